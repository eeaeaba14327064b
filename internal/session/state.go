package session

// State represents the lifecycle state of a focus session.
type State string

const (
	StateInactive       State = "inactive"
	StateActive         State = "active"
	StatePaused         State = "paused"
	StateCheckInPending State = "check_in_pending"
	StateCompleted      State = "completed"
	StateStopped        State = "stopped"
)

// IsTerminal reports whether the state permits no further transitions
// except a new start.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateStopped
}

// IsLive reports whether a session in this state is still running in some
// form (active, paused, or awaiting a check-in response).
func (s State) IsLive() bool {
	switch s {
	case StateActive, StatePaused, StateCheckInPending:
		return true
	default:
		return false
	}
}

func (s State) String() string { return string(s) }
