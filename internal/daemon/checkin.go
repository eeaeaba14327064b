package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/focusd/internal/daemon/events"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/notify"
	"git.home.luguber.info/inful/focusd/internal/session"
)

// CheckInCoordinator turns raised check-ins into user decisions.
//
// On each CheckInRaised it shows an interactive notification and waits,
// bounded by the configured timeout, for one of three outcomes:
//
//   - the user picks an action on the notification: that decision is
//     applied through the actor;
//   - the session leaves CheckInPending some other way (a client command
//     answered or stopped it first): the wait is abandoned;
//   - the timeout expires or the notification is dismissed: the session
//     is paused automatically, so an unattended machine never keeps
//     accumulating "focused" time.
type CheckInCoordinator struct {
	actor    *SessionActor
	bus      *events.Bus
	notifier notify.Notifier
	timeout  time.Duration
	urgency  notify.Urgency
	sound    bool
}

func NewCheckInCoordinator(actor *SessionActor, bus *events.Bus, notifier notify.Notifier, timeout time.Duration, urgency notify.Urgency, sound bool) *CheckInCoordinator {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CheckInCoordinator{
		actor:    actor,
		bus:      bus,
		notifier: notifier,
		timeout:  timeout,
		urgency:  urgency,
		sound:    sound,
	}
}

// Run consumes check-in events until ctx is canceled. Check-ins are
// handled one at a time; the state machine guarantees at most one is
// pending anyway.
func (c *CheckInCoordinator) Run(ctx context.Context) {
	raisedCh, unsubRaised := events.Subscribe[events.CheckInRaised](c.bus, 4)
	defer unsubRaised()
	changedCh, unsubChanged := events.Subscribe[events.SessionChanged](c.bus, 16)
	defer unsubChanged()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-changedCh:
			// Drained while idle so the actor never blocks on us.
			if !ok {
				return
			}
		case raised, ok := <-raisedCh:
			if !ok {
				return
			}
			c.handle(ctx, raised, changedCh)
		}
	}
}

func (c *CheckInCoordinator) handle(ctx context.Context, raised events.CheckInRaised, changedCh <-chan events.SessionChanged) {
	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	decisionCh := make(chan session.Decision, 1)
	go c.ask(waitCtx, raised, decisionCh)

	token := &checkInToken{sessionID: raised.SessionID, seq: raised.Seq}
	for {
		select {
		case <-ctx.Done():
			return

		case decision := <-decisionCh:
			c.resolve(ctx, token, decision, "user", changedCh)
			return

		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return
			}
			slog.Info("check-in unanswered, pausing session",
				logfields.SessionID(raised.SessionID),
				slog.Int("seq", raised.Seq))
			c.resolve(ctx, token, session.DecisionPause, "timeout", changedCh)
			return

		case evt, ok := <-changedCh:
			if !ok {
				return
			}
			if evt.Snapshot.SessionID != raised.SessionID ||
				evt.Snapshot.State != session.StateCheckInPending {
				// Something else already moved the session on; the
				// notification wait is stale. A late answer will be
				// rejected by the token check.
				return
			}
		}
	}
}

func (c *CheckInCoordinator) ask(ctx context.Context, raised events.CheckInRaised, decisionCh chan<- session.Decision) {
	n := notify.Notification{
		Title:   "Still focused?",
		Body:    fmt.Sprintf("%d minutes in. Keep going?", int(raised.Elapsed.Minutes())),
		Urgency: c.urgency,
		Sound:   c.sound,
	}
	decision, err := c.notifier.Ask(ctx, n)
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrUnavailable):
			slog.Warn("check-in notification unavailable, timeout will pause",
				logfields.SessionID(raised.SessionID))
		case errors.Is(err, notify.ErrNoDecision):
			slog.Debug("check-in notification dismissed",
				logfields.SessionID(raised.SessionID))
		case ctx.Err() != nil:
			// Timed out or canceled; the handle loop owns what happens next.
		default:
			slog.Warn("check-in notification failed", logfields.Error(err))
		}
		return
	}
	decisionCh <- decision
}

// resolve applies a decision through the actor. The actor publishes the
// resulting transition before it replies, so changedCh must keep
// draining while the reply is pending or the publish could block into
// our own full subscription.
func (c *CheckInCoordinator) resolve(ctx context.Context, token *checkInToken, decision session.Decision, source string, changedCh <-chan events.SessionChanged) {
	var (
		warning string
		err     error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, warning, err = c.actor.ResolveCheckIn(ctx, decision, token)
	}()
	for {
		select {
		case <-done:
			c.logResolved(token, decision, source, warning, err, ctx.Err() != nil)
			return
		case _, ok := <-changedCh:
			if !ok {
				<-done
				c.logResolved(token, decision, source, warning, err, ctx.Err() != nil)
				return
			}
		}
	}
}

func (c *CheckInCoordinator) logResolved(token *checkInToken, decision session.Decision, source, warning string, err error, canceled bool) {
	if err != nil {
		if errors.Is(err, session.ErrStaleCheckIn) {
			slog.Debug("discarding stale check-in resolution",
				logfields.SessionID(token.sessionID),
				slog.Int("seq", token.seq))
			return
		}
		if !canceled {
			slog.Error("failed to resolve check-in",
				logfields.SessionID(token.sessionID),
				logfields.Decision(string(decision)),
				logfields.Error(err))
		}
		return
	}
	if warning != "" {
		slog.Warn("check-in resolution degraded", slog.String("warning", warning))
	}
	slog.Debug("check-in decision applied",
		logfields.SessionID(token.sessionID),
		logfields.Decision(string(decision)),
		slog.String("source", source))
}
