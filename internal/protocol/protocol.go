// Package protocol defines the framed request/response contract spoken
// between focusd and its local clients (CLI, dashboard, tray).
//
// Every frame is a uint32 little-endian payload length followed by a JSON
// payload. One-shot clients exchange a single request/response pair; a
// subscribe request upgrades the connection into a stream of event frames.
package protocol

import (
	"time"

	"git.home.luguber.info/inful/focusd/internal/session"
)

// RequestType discriminates request frames.
type RequestType string

const (
	RequestStart          RequestType = "start"
	RequestPause          RequestType = "pause"
	RequestResume         RequestType = "resume"
	RequestStop           RequestType = "stop"
	RequestStatus         RequestType = "status"
	RequestSubscribe      RequestType = "subscribe"
	RequestCheckInRespond RequestType = "check_in_respond"
	RequestPing           RequestType = "ping"
	RequestShutdown       RequestType = "shutdown"
)

// Request is the single envelope for all client requests.
type Request struct {
	Type    RequestType     `json:"type"`
	Start   *StartRequest   `json:"start,omitempty"`
	CheckIn *CheckInRequest `json:"check_in,omitempty"`
}

// StartRequest carries parameters for a new focus session. Zero values
// fall back to the daemon's configured defaults.
type StartRequest struct {
	Mode                   string `json:"mode,omitempty"`
	DurationMinutes        int    `json:"duration_minutes,omitempty"`
	CheckInIntervalMinutes int    `json:"check_in_interval_minutes,omitempty"`
}

// CheckInRequest carries an explicit user answer to a pending check-in.
type CheckInRequest struct {
	Decision string `json:"decision"`
}

// ResponseType discriminates response frames.
type ResponseType string

const (
	ResponseOk    ResponseType = "ok"
	ResponseError ResponseType = "error"
	ResponseEvent ResponseType = "event"
	ResponsePong  ResponseType = "pong"
)

// Response is the single envelope for all daemon frames.
type Response struct {
	Type     ResponseType `json:"type"`
	Snapshot *Snapshot    `json:"snapshot,omitempty"`
	// Warning reports a non-fatal infrastructure failure (persistence,
	// notification backend) that did not affect the state transition.
	Warning string     `json:"warning,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the wire form of a rejected request.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Snapshot is the wire form of a session snapshot.
type Snapshot struct {
	SessionID              string    `json:"session_id,omitempty"`
	State                  string    `json:"state"`
	Mode                   string    `json:"mode,omitempty"`
	TotalSeconds           int64     `json:"total_seconds"`
	CheckInIntervalSeconds int64     `json:"check_in_interval_seconds,omitempty"`
	ElapsedSeconds         int64     `json:"elapsed_seconds"`
	RemainingSeconds       int64     `json:"remaining_seconds"`
	CheckInCount           int       `json:"check_in_count"`
	StartedAt              time.Time `json:"started_at,omitzero"`
	LastTransitionAt       time.Time `json:"last_transition_at,omitzero"`
}

// SnapshotFrom converts a domain snapshot to its wire form.
func SnapshotFrom(s session.Snapshot) Snapshot {
	return Snapshot{
		SessionID:              s.SessionID,
		State:                  s.State.String(),
		Mode:                   s.Mode.String(),
		TotalSeconds:           int64(s.Total.Seconds()),
		CheckInIntervalSeconds: int64(s.CheckInInterval.Seconds()),
		ElapsedSeconds:         int64(s.Elapsed.Seconds()),
		RemainingSeconds:       int64(s.Remaining.Seconds()),
		CheckInCount:           s.CheckInCount,
		StartedAt:              s.StartedAt,
		LastTransitionAt:       s.LastTransitionAt,
	}
}

// OkResponse builds an ok response for a snapshot, optionally carrying a
// non-fatal warning.
func OkResponse(s session.Snapshot, warning string) Response {
	snap := SnapshotFrom(s)
	return Response{Type: ResponseOk, Snapshot: &snap, Warning: warning}
}

// EventResponse builds a broadcast event frame.
func EventResponse(s session.Snapshot) Response {
	snap := SnapshotFrom(s)
	return Response{Type: ResponseEvent, Snapshot: &snap}
}

// ErrorResponse builds an error frame from any error.
func ErrorResponse(err error) Response {
	return Response{Type: ResponseError, Error: &ErrorInfo{
		Kind:    KindForError(err),
		Message: messageFor(err),
	}}
}
