// Package notify renders OS-level alerts and optionally collects a user
// decision from an interactive notification.
//
// Failures here must never block or fail the session engine: callers treat
// every error as a degradation, falling back to timer-driven behavior.
package notify

import (
	"context"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/session"
)

// Urgency levels match the freedesktop notification spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// ParseUrgency maps a config string to an urgency level.
func ParseUrgency(value string) Urgency {
	switch value {
	case "low":
		return UrgencyLow
	case "critical":
		return UrgencyCritical
	default:
		return UrgencyNormal
	}
}

// Notification is one alert to present to the user.
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Sound   bool
}

// Sentinel errors for gateway degradation.
var (
	// ErrUnavailable means no notification backend is reachable.
	ErrUnavailable = ferrors.NotifyError("notification backend unavailable").Build()
	// ErrNoDecision means the notification was shown but dismissed or
	// timed out without the user picking an action.
	ErrNoDecision = ferrors.NotifyError("no decision received").Build()
)

// Notifier is the notification gateway contract.
type Notifier interface {
	// Notify shows a passive notification.
	Notify(ctx context.Context, n Notification) error

	// Ask shows an interactive notification with continue/pause/stop
	// actions and blocks until the user answers, the notification is
	// dismissed (ErrNoDecision), or ctx is done.
	Ask(ctx context.Context, n Notification) (session.Decision, error)

	Close() error
}

// Disabled is the degraded gateway used when no backend is available or
// notifications are turned off. Every call fails fast with ErrUnavailable.
type Disabled struct{}

func (Disabled) Notify(context.Context, Notification) error { return ErrUnavailable }

func (Disabled) Ask(context.Context, Notification) (session.Decision, error) {
	return "", ErrUnavailable
}

func (Disabled) Close() error { return nil }
