package config

import "time"

// Default values mirror the product's classic pomodoro-style profile.
const (
	DefaultDurationMinutes        = 25
	DefaultCheckInIntervalMinutes = 25
	DefaultCheckInTimeoutSeconds  = 120
	DefaultTickInterval           = time.Second
	DefaultSubscriberBuffer       = 16
	DefaultEventSubject           = "focusd.session.events"
	DefaultDigestAt               = "18:00"
)

// Defaults returns a fully-populated default configuration.
func Defaults() *Config {
	return &Config{
		Daemon: DaemonConfig{
			TickInterval:     DefaultTickInterval,
			SubscriberBuffer: DefaultSubscriberBuffer,
		},
		Focus: FocusConfig{
			DefaultDurationMinutes: DefaultDurationMinutes,
			CheckInIntervalMinutes: DefaultCheckInIntervalMinutes,
			CheckInTimeoutSeconds:  DefaultCheckInTimeoutSeconds,
		},
		Notifications: NotificationsConfig{
			Urgency: "normal",
		},
		Events: EventsConfig{
			Subject: DefaultEventSubject,
		},
		Digest: DigestConfig{
			At: DefaultDigestAt,
		},
	}
}

// applyDefaults fills zero values left after unmarshalling a partial file.
func (c *Config) applyDefaults() {
	if c.Daemon.TickInterval <= 0 {
		c.Daemon.TickInterval = DefaultTickInterval
	}
	if c.Daemon.SubscriberBuffer <= 0 {
		c.Daemon.SubscriberBuffer = DefaultSubscriberBuffer
	}
	if c.Focus.DefaultDurationMinutes <= 0 {
		c.Focus.DefaultDurationMinutes = DefaultDurationMinutes
	}
	if c.Focus.CheckInIntervalMinutes < 0 {
		c.Focus.CheckInIntervalMinutes = DefaultCheckInIntervalMinutes
	}
	if c.Focus.CheckInTimeoutSeconds <= 0 {
		c.Focus.CheckInTimeoutSeconds = DefaultCheckInTimeoutSeconds
	}
	if c.Notifications.Urgency == "" {
		c.Notifications.Urgency = "normal"
	}
	if c.Events.Subject == "" {
		c.Events.Subject = DefaultEventSubject
	}
	if c.Digest.At == "" {
		c.Digest.At = DefaultDigestAt
	}
}
