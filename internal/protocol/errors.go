package protocol

import (
	"errors"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/session"
)

// ErrorKind is the closed wire-level error taxonomy. Kinds, not types:
// clients branch on these without sharing Go error values with the daemon.
type ErrorKind string

const (
	KindSessionAlreadyActive    ErrorKind = "SessionAlreadyActive"
	KindNoActiveSession         ErrorKind = "NoActiveSession"
	KindNotPaused               ErrorKind = "NotPaused"
	KindStaleCheckIn            ErrorKind = "StaleCheckIn"
	KindInvalidRequest          ErrorKind = "InvalidRequest"
	KindPersistenceFailure      ErrorKind = "PersistenceFailure"
	KindNotificationUnavailable ErrorKind = "NotificationUnavailable"
	KindInternal                ErrorKind = "Internal"
)

// KindForError maps a daemon-side error to its wire kind.
func KindForError(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrSessionAlreadyActive):
		return KindSessionAlreadyActive
	case errors.Is(err, session.ErrNoActiveSession), errors.Is(err, session.ErrNotActive):
		return KindNoActiveSession
	case errors.Is(err, session.ErrNotPaused):
		return KindNotPaused
	case errors.Is(err, session.ErrStaleCheckIn):
		return KindStaleCheckIn
	}

	switch ferrors.GetCategory(err) {
	case ferrors.CategoryValidation, ferrors.CategoryProtocol:
		return KindInvalidRequest
	case ferrors.CategoryStorage:
		return KindPersistenceFailure
	case ferrors.CategoryNotify:
		return KindNotificationUnavailable
	default:
		return KindInternal
	}
}

func messageFor(err error) string {
	if err == nil {
		return ""
	}
	if classified, ok := ferrors.AsClassified(err); ok {
		return classified.Message()
	}
	return err.Error()
}

// ErrorFor reconstructs a classified error from a wire error so the CLI
// adapter can derive exit codes on the client side.
func (e *ErrorInfo) ErrorFor() error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case KindSessionAlreadyActive, KindNoActiveSession, KindNotPaused, KindStaleCheckIn:
		return ferrors.SessionError(e.Message).WithContext("kind", string(e.Kind)).Build()
	case KindInvalidRequest:
		return ferrors.ValidationError(e.Message).WithContext("kind", string(e.Kind)).Build()
	case KindPersistenceFailure:
		return ferrors.StorageError(e.Message).WithContext("kind", string(e.Kind)).Build()
	case KindNotificationUnavailable:
		return ferrors.NotifyError(e.Message).WithContext("kind", string(e.Kind)).Build()
	default:
		return ferrors.InternalError(e.Message).WithContext("kind", string(e.Kind)).Build()
	}
}
