package config

import (
	"fmt"
	"time"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
)

// Validate checks cross-field constraints after defaults are applied.
func (c *Config) Validate() error {
	if c.Daemon.TickInterval < 100*time.Millisecond {
		return ferrors.ConfigError("daemon.tick_interval must be at least 100ms").
			WithContext("tick_interval", c.Daemon.TickInterval.String()).Build()
	}

	switch c.Notifications.Urgency {
	case "low", "normal", "critical":
	default:
		return ferrors.ConfigError("notifications.urgency must be one of low, normal, critical").
			WithContext("urgency", c.Notifications.Urgency).Build()
	}

	if c.Digest.Enabled {
		if _, _, err := ParseClock(c.Digest.At); err != nil {
			return ferrors.ConfigError("digest.at must be a HH:MM local time").
				WithContext("at", c.Digest.At).Build()
		}
	}

	return nil
}

// ParseClock parses a "HH:MM" local-time string.
func ParseClock(value string) (hour, minute int, err error) {
	if _, err = fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", value, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock %q out of range", value)
	}
	return hour, minute, nil
}
