package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is the authoritative record of a single focus session. It is
// owned exclusively by the Machine; everything outside the daemon's actor
// sees only Snapshot copies.
type Session struct {
	ID               string
	Mode             FocusMode
	State            State
	Total            time.Duration
	CheckInInterval  time.Duration
	Elapsed          time.Duration
	CheckInCount     int
	StartedAt        time.Time
	LastTransitionAt time.Time
	PausedAt         *time.Time
	CheckInRaisedAt  *time.Time
	EndedAt          *time.Time
}

func newSession(mode FocusMode, total, interval time.Duration, now time.Time) *Session {
	return &Session{
		ID:               uuid.NewString(),
		Mode:             mode,
		State:            StateActive,
		Total:            total,
		CheckInInterval:  interval,
		StartedAt:        now,
		LastTransitionAt: now,
	}
}

// Remaining returns the time left until the session completes.
func (s *Session) Remaining() time.Duration {
	if s.Elapsed >= s.Total {
		return 0
	}
	return s.Total - s.Elapsed
}

// Snapshot is an immutable point-in-time copy of session state handed to
// observers. The zero value is not meaningful; use InactiveSnapshot for
// the no-session case.
type Snapshot struct {
	SessionID        string
	State            State
	Mode             FocusMode
	Total            time.Duration
	CheckInInterval  time.Duration
	Elapsed          time.Duration
	Remaining        time.Duration
	CheckInCount     int
	StartedAt        time.Time
	LastTransitionAt time.Time
}

// InactiveSnapshot is the explicit "no session" value returned by status
// queries when nothing is running.
func InactiveSnapshot() Snapshot {
	return Snapshot{State: StateInactive}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		SessionID:        s.ID,
		State:            s.State,
		Mode:             s.Mode,
		Total:            s.Total,
		CheckInInterval:  s.CheckInInterval,
		Elapsed:          s.Elapsed,
		Remaining:        s.Remaining(),
		CheckInCount:     s.CheckInCount,
		StartedAt:        s.StartedAt,
		LastTransitionAt: s.LastTransitionAt,
	}
}
