package events

import (
	"time"

	"git.home.luguber.info/inful/focusd/internal/session"
)

// SessionChanged is published by the session actor for every applied
// state transition, including per-tick elapsed updates while Active.
//
// It is published before the triggering command's reply is sent, so an
// observer's view is never older than the command's own result.
type SessionChanged struct {
	Snapshot session.Snapshot
	Previous session.State
	// Reason names the operation that caused the transition: start,
	// pause, resume, stop, tick, check_in, check_in_resolved.
	Reason string
	At     time.Time
}

// Terminal reports whether this change finished the session.
func (e SessionChanged) Terminal() bool {
	return e.Snapshot.State.IsTerminal()
}

// CheckInRaised is published when an Active session enters
// CheckInPending. The coordinator uses SessionID and Seq to detect that
// its pending wait has gone stale.
type CheckInRaised struct {
	SessionID string
	// Seq is the per-session check-in ordinal, starting at 1.
	Seq      int
	Elapsed  time.Duration
	RaisedAt time.Time
}
