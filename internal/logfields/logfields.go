package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySessionID  = "session_id"
	KeyMode       = "mode"
	KeyState      = "state"
	KeyPrevState  = "prev_state"
	KeyDecision   = "decision"
	KeyClientID   = "client_id"
	KeyDurationMS = "duration_ms"
	KeySubject    = "subject"
	KeySocket     = "socket"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SessionID(id string) slog.Attr   { return slog.String(KeySessionID, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func PrevState(s string) slog.Attr    { return slog.String(KeyPrevState, s) }
func Decision(d string) slog.Attr     { return slog.String(KeyDecision, d) }
func ClientID(id string) slog.Attr    { return slog.String(KeyClientID, id) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Socket(path string) slog.Attr    { return slog.String(KeySocket, path) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
