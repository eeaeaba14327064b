package daemon

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/session"
)

// TimerActor drives the session clock. It ticks at a fixed cadence,
// reports wall-clock deltas to the session actor, and raises a check-in
// whenever an Active session's elapsed time crosses a multiple of its
// check-in interval.
//
// Deltas are measured, not assumed: if the process is suspended the next
// tick applies the whole gap at once, which keeps elapsed honest across
// laptop sleeps.
type TimerActor struct {
	actor    *SessionActor
	interval time.Duration

	// check-in boundary tracking for the session currently observed
	sessionID   string
	lastElapsed time.Duration
}

func NewTimerActor(actor *SessionActor, tickInterval time.Duration) *TimerActor {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &TimerActor{actor: actor, interval: tickInterval}
}

// Run ticks until ctx is canceled.
func (t *TimerActor) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now
			t.tick(ctx, delta)
		}
	}
}

func (t *TimerActor) tick(ctx context.Context, delta time.Duration) {
	snap, advanced, err := t.actor.Tick(ctx, delta)
	if err != nil {
		if ctx.Err() == nil {
			slog.Debug("tick rejected", logfields.Error(err))
		}
		return
	}
	if !advanced {
		// Inactive, paused, or pending: nothing to account.
		return
	}

	if snap.SessionID != t.sessionID {
		t.sessionID = snap.SessionID
		t.lastElapsed = snap.Elapsed - delta
		if t.lastElapsed < 0 {
			t.lastElapsed = 0
		}
	}
	prevElapsed := t.lastElapsed
	t.lastElapsed = snap.Elapsed

	// Completion wins over a simultaneous check-in boundary.
	if snap.State != session.StateActive {
		return
	}
	if !crossedBoundary(prevElapsed, snap.Elapsed, snap.CheckInInterval) {
		return
	}

	if _, err := t.actor.RaiseCheckIn(ctx); err != nil {
		// A client command can land between the tick and the raise;
		// losing that race is fine.
		if !errors.Is(err, session.ErrNotActive) && !errors.Is(err, session.ErrNoActiveSession) && ctx.Err() == nil {
			slog.Warn("failed to raise check-in",
				logfields.SessionID(snap.SessionID),
				logfields.Error(err))
		}
	}
}

// crossedBoundary reports whether elapsed moved into a new check-in
// period. An interval of zero disables check-ins.
func crossedBoundary(prev, cur, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	return cur/interval > prev/interval
}
