// Package store persists terminal focus sessions for history and digest
// queries. Non-terminal sessions are never written: a daemon crash simply
// loses the in-flight session, by design.
package store

import (
	"context"
	"time"

	"git.home.luguber.info/inful/focusd/internal/session"
)

// Record is one persisted terminal session.
type Record struct {
	ID             string
	Mode           session.FocusMode
	State          session.State
	StartedAt      time.Time
	EndedAt        time.Time
	TotalSeconds   int64
	ElapsedSeconds int64
	CheckInCount   int
}

// Store is the persistence contract consumed by the session actor, the
// digest scheduler, and the history command.
type Store interface {
	// RecordTerminal durably records a session that reached Completed or
	// Stopped. The actor guarantees at most one call per terminal
	// transition.
	RecordTerminal(ctx context.Context, snap session.Snapshot) error

	// CompletedSince returns sessions whose terminal transition happened
	// at or after the given time, oldest first.
	CompletedSince(ctx context.Context, since time.Time) ([]Record, error)

	// Recent returns the most recently finished sessions, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// CountCompleted returns the number of sessions that reached Completed.
	CountCompleted(ctx context.Context) (int, error)

	Close() error
}
