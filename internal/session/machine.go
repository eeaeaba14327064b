package session

import (
	"time"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

// Decision is a user's answer to a periodic check-in prompt.
type Decision string

const (
	DecisionContinue Decision = "continue"
	DecisionPause    Decision = "pause"
	DecisionStop     Decision = "stop"
)

// ParseDecision validates a wire-level decision string.
func ParseDecision(value string) (Decision, error) {
	switch Decision(value) {
	case DecisionContinue, DecisionPause, DecisionStop:
		return Decision(value), nil
	default:
		return "", ferrors.ValidationError("unknown check-in decision").
			WithContext("decision", value).Build()
	}
}

// Sentinel rejections raised by the state machine. Compare with errors.Is.
var (
	ErrSessionAlreadyActive = ferrors.SessionError("a session is already active").Build()
	ErrNoActiveSession      = ferrors.SessionError("no active session").Build()
	ErrNotPaused            = ferrors.SessionError("session is not paused").Build()
	ErrNotActive            = ferrors.SessionError("session is not active").Build()
	ErrStaleCheckIn         = ferrors.SessionError("check-in is no longer pending").Build()
)

// Machine is the focus-session state machine. It is pure: no goroutines,
// no I/O, no locking. Callers (the session actor) are responsible for
// serializing access.
type Machine struct {
	now     func() time.Time
	current *Session
}

// NewMachine creates a machine using the wall clock.
func NewMachine() *Machine {
	return NewMachineWithClock(time.Now)
}

// NewMachineWithClock creates a machine with an injected clock, used by
// tests to drive transitions deterministically.
func NewMachineWithClock(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now}
}

// Snapshot returns the current state as an immutable copy. It never fails;
// with no session (or only a terminal one left behind) the live/terminal
// record is still reported so late status queries can see the outcome.
func (m *Machine) Snapshot() Snapshot {
	if m.current == nil {
		return InactiveSnapshot()
	}
	return m.current.snapshot()
}

// Start creates a new session in Active state.
//
// It fails with ErrSessionAlreadyActive while a non-terminal session
// exists; the prior session is left unmodified.
func (m *Machine) Start(mode FocusMode, total, interval time.Duration) (Snapshot, error) {
	if m.current != nil && m.current.State.IsLive() {
		return m.current.snapshot(), ErrSessionAlreadyActive
	}
	if total <= 0 {
		return m.Snapshot(), ferrors.ValidationError("session duration must be positive").
			WithContext("duration", total.String()).Build()
	}
	if interval < 0 {
		return m.Snapshot(), ferrors.ValidationError("check-in interval cannot be negative").
			WithContext("interval", interval.String()).Build()
	}

	m.current = newSession(mode, total, interval, m.now())
	return m.current.snapshot(), nil
}

// Pause freezes the session. Valid from Active or CheckInPending.
func (m *Machine) Pause() (Snapshot, error) {
	s := m.current
	if s == nil || !s.State.IsLive() {
		return m.Snapshot(), ErrNoActiveSession
	}
	switch s.State {
	case StateActive, StateCheckInPending:
		now := m.now()
		s.State = StatePaused
		s.PausedAt = &now
		s.CheckInRaisedAt = nil
		s.LastTransitionAt = now
		return s.snapshot(), nil
	default:
		return s.snapshot(), ErrNoActiveSession
	}
}

// Resume unfreezes a paused session. The paused interval is excluded from
// elapsed accounting by construction: Elapsed only ever advances via Tick
// while Active.
func (m *Machine) Resume() (Snapshot, error) {
	s := m.current
	if s == nil || !s.State.IsLive() {
		return m.Snapshot(), ErrNoActiveSession
	}
	if s.State != StatePaused {
		return s.snapshot(), ErrNotPaused
	}

	now := m.now()
	s.State = StateActive
	s.PausedAt = nil
	s.LastTransitionAt = now
	return s.snapshot(), nil
}

// Stop terminates the session from any non-terminal state.
func (m *Machine) Stop() (Snapshot, error) {
	s := m.current
	if s == nil || !s.State.IsLive() {
		return m.Snapshot(), ErrNoActiveSession
	}
	m.finish(s, StateStopped)
	return s.snapshot(), nil
}

// Tick advances elapsed time by delta. It only has an effect while the
// session is Active; in every other state it is a no-op returning the
// current snapshot with advanced=false.
//
// Reaching the configured total forces Completed exactly once.
func (m *Machine) Tick(delta time.Duration) (snap Snapshot, advanced bool, err error) {
	s := m.current
	if s == nil || s.State != StateActive || delta <= 0 {
		return m.Snapshot(), false, nil
	}

	s.Elapsed += delta
	if s.Elapsed >= s.Total {
		s.Elapsed = s.Total
		m.finish(s, StateCompleted)
	}
	return s.snapshot(), true, nil
}

// RaiseCheckIn moves an Active session to CheckInPending. Only the timer
// issues this; the rejection path covers ticks racing with client commands.
func (m *Machine) RaiseCheckIn() (Snapshot, error) {
	s := m.current
	if s == nil || !s.State.IsLive() {
		return m.Snapshot(), ErrNoActiveSession
	}
	if s.State != StateActive {
		return s.snapshot(), ErrNotActive
	}

	now := m.now()
	s.State = StateCheckInPending
	s.CheckInRaisedAt = &now
	s.CheckInCount++
	s.LastTransitionAt = now
	return s.snapshot(), nil
}

// ResolveCheckIn applies a check-in decision. A resolution arriving after
// the state has already left CheckInPending (a concurrent stop, pause, or
// a newer session) fails with ErrStaleCheckIn and changes nothing.
func (m *Machine) ResolveCheckIn(decision Decision) (Snapshot, error) {
	s := m.current
	if s == nil || s.State != StateCheckInPending {
		return m.Snapshot(), ErrStaleCheckIn
	}

	now := m.now()
	switch decision {
	case DecisionContinue:
		s.State = StateActive
		s.CheckInRaisedAt = nil
		s.LastTransitionAt = now
	case DecisionPause:
		s.State = StatePaused
		s.PausedAt = &now
		s.CheckInRaisedAt = nil
		s.LastTransitionAt = now
	case DecisionStop:
		m.finish(s, StateStopped)
	default:
		return s.snapshot(), ferrors.ValidationError("unknown check-in decision").
			WithContext("decision", string(decision)).Build()
	}
	return s.snapshot(), nil
}

func (m *Machine) finish(s *Session, terminal State) {
	now := m.now()
	s.State = terminal
	s.PausedAt = nil
	s.CheckInRaisedAt = nil
	s.EndedAt = &now
	s.LastTransitionAt = now
}
