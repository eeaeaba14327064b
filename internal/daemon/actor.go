package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/focusd/internal/daemon/events"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/metrics"
	"git.home.luguber.info/inful/focusd/internal/notify"
	"git.home.luguber.info/inful/focusd/internal/retry"
	"git.home.luguber.info/inful/focusd/internal/session"
	"git.home.luguber.info/inful/focusd/internal/store"
)

// persistTimeout bounds the synchronous terminal write so a wedged
// database cannot stall the command loop indefinitely.
const persistTimeout = 2 * time.Second

type actorOp int

const (
	opStart actorOp = iota
	opPause
	opResume
	opStop
	opStatus
	opTick
	opRaiseCheckIn
	opResolveCheckIn
)

// checkInToken identifies one specific raised check-in. The coordinator
// passes it back with its resolution so an answer to check-in N can never
// resolve check-in N+1 or a newer session's check-in.
type checkInToken struct {
	sessionID string
	seq       int
}

type actorCommand struct {
	op       actorOp
	mode     session.FocusMode
	total    time.Duration
	interval time.Duration
	delta    time.Duration
	decision session.Decision
	token    *checkInToken
	reply    chan actorResult
}

type actorResult struct {
	snap     session.Snapshot
	advanced bool
	warning  string
	err      error
}

// SessionActor owns the session state machine. All mutations flow through
// a single command loop goroutine, which serializes client requests, timer
// ticks, and check-in resolutions without locks.
//
// Ordering guarantee: every applied transition is published to the event
// bus before the command's reply is sent, so no observer's view lags a
// client that already saw the reply.
type SessionActor struct {
	machine  *session.Machine
	bus      *events.Bus
	store    store.Store
	notifier notify.Notifier
	metrics  *metrics.Recorder
	urgency  notify.Urgency
	sound    bool

	commands chan actorCommand
	done     chan struct{}
}

// NewSessionActor wires the actor. Run must be started before any command
// method is called.
func NewSessionActor(machine *session.Machine, bus *events.Bus, st store.Store, notifier notify.Notifier, rec *metrics.Recorder, urgency notify.Urgency, sound bool) *SessionActor {
	if machine == nil {
		machine = session.NewMachine()
	}
	return &SessionActor{
		machine:  machine,
		bus:      bus,
		store:    st,
		notifier: notifier,
		metrics:  rec,
		urgency:  urgency,
		sound:    sound,
		commands: make(chan actorCommand),
		done:     make(chan struct{}),
	}
}

// Run executes the command loop until ctx is canceled.
func (a *SessionActor) Run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-a.commands:
			cmd.reply <- a.apply(ctx, cmd)
		}
	}
}

func (a *SessionActor) submit(ctx context.Context, cmd actorCommand) actorResult {
	cmd.reply = make(chan actorResult, 1)
	select {
	case a.commands <- cmd:
	case <-a.done:
		return actorResult{snap: session.InactiveSnapshot(), err: errActorStopped()}
	case <-ctx.Done():
		return actorResult{snap: session.InactiveSnapshot(), err: ctx.Err()}
	}
	select {
	case res := <-cmd.reply:
		return res
	case <-a.done:
		return actorResult{snap: session.InactiveSnapshot(), err: errActorStopped()}
	}
}

func errActorStopped() error {
	return ferrors.DaemonError("session engine is shutting down").Build()
}

// Start begins a new session. The returned warning, when non-empty,
// reports a non-fatal infrastructure degradation.
func (a *SessionActor) Start(ctx context.Context, mode session.FocusMode, total, interval time.Duration) (session.Snapshot, string, error) {
	res := a.submit(ctx, actorCommand{op: opStart, mode: mode, total: total, interval: interval})
	return res.snap, res.warning, res.err
}

// Pause freezes the session clock.
func (a *SessionActor) Pause(ctx context.Context) (session.Snapshot, error) {
	res := a.submit(ctx, actorCommand{op: opPause})
	return res.snap, res.err
}

// Resume restarts a paused session.
func (a *SessionActor) Resume(ctx context.Context) (session.Snapshot, error) {
	res := a.submit(ctx, actorCommand{op: opResume})
	return res.snap, res.err
}

// Stop terminates the session early.
func (a *SessionActor) Stop(ctx context.Context) (session.Snapshot, string, error) {
	res := a.submit(ctx, actorCommand{op: opStop})
	return res.snap, res.warning, res.err
}

// Status reads the current snapshot. It goes through the command loop so
// the answer reflects every previously applied transition.
func (a *SessionActor) Status(ctx context.Context) (session.Snapshot, error) {
	res := a.submit(ctx, actorCommand{op: opStatus})
	return res.snap, res.err
}

// Tick advances the session clock. Only the timer actor calls this.
func (a *SessionActor) Tick(ctx context.Context, delta time.Duration) (session.Snapshot, bool, error) {
	res := a.submit(ctx, actorCommand{op: opTick, delta: delta})
	return res.snap, res.advanced, res.err
}

// RaiseCheckIn moves an Active session into CheckInPending. Only the
// timer actor calls this.
func (a *SessionActor) RaiseCheckIn(ctx context.Context) (session.Snapshot, error) {
	res := a.submit(ctx, actorCommand{op: opRaiseCheckIn})
	return res.snap, res.err
}

// ResolveCheckIn applies a check-in decision. A nil token means the
// resolution came from an explicit client request and binds to whatever
// check-in is currently pending; the coordinator always passes a token.
func (a *SessionActor) ResolveCheckIn(ctx context.Context, decision session.Decision, token *checkInToken) (session.Snapshot, string, error) {
	res := a.submit(ctx, actorCommand{op: opResolveCheckIn, decision: decision, token: token})
	return res.snap, res.warning, res.err
}

func (a *SessionActor) apply(ctx context.Context, cmd actorCommand) actorResult {
	prev := a.machine.Snapshot()

	var (
		snap     session.Snapshot
		advanced bool
		err      error
		reason   string
	)

	switch cmd.op {
	case opStatus:
		return actorResult{snap: prev}

	case opStart:
		reason = "start"
		snap, err = a.machine.Start(cmd.mode, cmd.total, cmd.interval)

	case opPause:
		reason = "pause"
		snap, err = a.machine.Pause()

	case opResume:
		reason = "resume"
		snap, err = a.machine.Resume()

	case opStop:
		reason = "stop"
		snap, err = a.machine.Stop()

	case opTick:
		reason = "tick"
		snap, advanced, err = a.machine.Tick(cmd.delta)
		if !advanced || err != nil {
			return actorResult{snap: snap, advanced: advanced, err: err}
		}

	case opRaiseCheckIn:
		reason = "check_in"
		snap, err = a.machine.RaiseCheckIn()

	case opResolveCheckIn:
		reason = "check_in_resolved"
		if cmd.token != nil && !a.tokenCurrent(prev, cmd.token) {
			return actorResult{snap: prev, err: session.ErrStaleCheckIn}
		}
		snap, err = a.machine.ResolveCheckIn(cmd.decision)

	default:
		return actorResult{snap: prev, err: ferrors.InternalError("unknown actor command").
			WithContext("op", int(cmd.op)).Build()}
	}

	if err != nil {
		return actorResult{snap: snap, err: err}
	}

	evt := events.SessionChanged{
		Snapshot: snap,
		Previous: prev.State,
		Reason:   reason,
		At:       time.Now(),
	}
	if pubErr := a.bus.Publish(ctx, evt); pubErr != nil {
		slog.Warn("session event publish failed",
			logfields.SessionID(snap.SessionID),
			logfields.Error(pubErr))
	}

	warning := a.afterTransition(ctx, cmd, prev, snap)

	return actorResult{snap: snap, advanced: advanced, warning: warning}
}

// tokenCurrent reports whether a token still refers to the pending check-in.
func (a *SessionActor) tokenCurrent(prev session.Snapshot, token *checkInToken) bool {
	return prev.State == session.StateCheckInPending &&
		prev.SessionID == token.sessionID &&
		prev.CheckInCount == token.seq
}

// afterTransition handles the side effects of an applied transition:
// secondary events, metrics, persistence, and passive notifications.
func (a *SessionActor) afterTransition(ctx context.Context, cmd actorCommand, prev, snap session.Snapshot) string {
	switch cmd.op {
	case opStart:
		a.metrics.SessionStarted(snap.Mode.String())
		slog.Info("session started",
			logfields.SessionID(snap.SessionID),
			logfields.Mode(snap.Mode.String()),
			slog.Duration("duration", snap.Total),
			slog.Duration("check_in_interval", snap.CheckInInterval))
		a.notifyAsync(notify.Notification{
			Title:   "Focus session started",
			Body:    fmt.Sprintf("%s for %s", snap.Mode, snap.Total),
			Urgency: a.urgency,
			Sound:   a.sound,
		})

	case opRaiseCheckIn:
		raised := events.CheckInRaised{
			SessionID: snap.SessionID,
			Seq:       snap.CheckInCount,
			Elapsed:   snap.Elapsed,
			RaisedAt:  time.Now(),
		}
		if pubErr := a.bus.Publish(ctx, raised); pubErr != nil {
			slog.Warn("check-in event publish failed",
				logfields.SessionID(snap.SessionID),
				logfields.Error(pubErr))
		}
		slog.Info("check-in raised",
			logfields.SessionID(snap.SessionID),
			slog.Int("seq", snap.CheckInCount),
			slog.Duration("elapsed", snap.Elapsed))

	case opResolveCheckIn:
		a.metrics.CheckInResolved(string(cmd.decision))
		slog.Info("check-in resolved",
			logfields.SessionID(snap.SessionID),
			logfields.Decision(string(cmd.decision)),
			logfields.State(snap.State.String()))
	}

	if !snap.State.IsTerminal() || !prev.State.IsLive() {
		return ""
	}
	return a.finishSession(snap)
}

// finishSession records a terminal session and announces it. A storage
// failure is logged and reported back as a warning; it never rolls back
// the in-memory transition.
func (a *SessionActor) finishSession(snap session.Snapshot) string {
	a.metrics.SessionFinished(snap.State.String(), snap.Elapsed)
	slog.Info("session finished",
		logfields.SessionID(snap.SessionID),
		logfields.State(snap.State.String()),
		slog.Duration("elapsed", snap.Elapsed),
		slog.Int("check_ins", snap.CheckInCount))

	title := "Focus session complete"
	if snap.State == session.StateStopped {
		title = "Focus session stopped"
	}
	a.notifyAsync(notify.Notification{
		Title:   title,
		Body:    fmt.Sprintf("%s of focused time", snap.Elapsed.Round(time.Second)),
		Urgency: a.urgency,
		Sound:   a.sound,
	})

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := retry.DefaultPolicy().Do(persistCtx, func() error {
		return a.store.RecordTerminal(persistCtx, snap)
	})
	if err != nil {
		slog.Error("failed to persist finished session",
			logfields.SessionID(snap.SessionID),
			logfields.Error(err))
		return "session finished but could not be saved to history"
	}
	return ""
}

// notifyAsync fires a passive notification without blocking the command
// loop. Unavailable backends degrade silently to debug logging.
func (a *SessionActor) notifyAsync(n notify.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.notifier.Notify(ctx, n); err != nil {
			slog.Debug("notification skipped", logfields.Error(err))
		}
	}()
}
