// Package config loads the focusd configuration file.
//
// Configuration is an immutable input: it is read once at process start
// and never reloaded. The daemon watches the file only to warn that a
// restart is required when it changes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Daemon        DaemonConfig        `yaml:"daemon"`
	Focus         FocusConfig         `yaml:"focus"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Storage       StorageConfig       `yaml:"storage"`
	Events        EventsConfig        `yaml:"events"`
	Digest        DigestConfig        `yaml:"digest"`
}

// DaemonConfig controls the daemon's runtime plumbing.
type DaemonConfig struct {
	// SocketPath overrides the default unix socket location
	// ($XDG_RUNTIME_DIR/focusd.sock).
	SocketPath string `yaml:"socket_path,omitempty"`
	// TickInterval is the timer cadence. One second unless overridden.
	TickInterval time.Duration `yaml:"tick_interval,omitempty"`
	// SubscriberBuffer bounds each broadcast subscriber's event queue.
	// A subscriber that overflows it is dropped and must reconnect.
	SubscriberBuffer int `yaml:"subscriber_buffer,omitempty"`
	// AdminAddr, when set (e.g. "127.0.0.1:9656"), exposes /metrics and
	// /healthz on a loopback HTTP listener.
	AdminAddr string `yaml:"admin_addr,omitempty"`
}

// FocusConfig carries session defaults applied when a start request omits them.
type FocusConfig struct {
	DefaultDurationMinutes int `yaml:"default_duration_minutes,omitempty"`
	CheckInIntervalMinutes int `yaml:"check_in_interval_minutes,omitempty"`
	CheckInTimeoutSeconds  int `yaml:"check_in_timeout_seconds,omitempty"`
}

// NotificationsConfig controls the desktop notification gateway.
type NotificationsConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Urgency string `yaml:"urgency,omitempty"` // low, normal, critical
	Sound   *bool  `yaml:"sound,omitempty"`
}

// StorageConfig controls the session history database.
type StorageConfig struct {
	// DatabasePath defaults to $XDG_DATA_HOME/focusd/sessions.db.
	DatabasePath string `yaml:"database_path,omitempty"`
}

// EventsConfig controls the optional NATS mirror of session state changes.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// DigestConfig controls the daily session summary notification.
type DigestConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	At      string `yaml:"at,omitempty"` // local time, "HH:MM"
}

// Load reads, expands, and validates the configuration file. A missing
// file yields the defaults rather than an error: focusd runs fine with
// zero configuration.
func Load(path string) (*Config, error) {
	// .env files supplement the process environment for ${VAR} expansion;
	// absence is not an error.
	_ = godotenv.Load(".env", ".env.local")

	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigPath resolves the per-user configuration file location.
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "focusd", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "focusd.yaml"
	}
	return filepath.Join(home, ".config", "focusd", "config.yaml")
}

// DefaultSocketPath resolves the per-user socket location.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "focusd.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("focusd-%d.sock", os.Getuid()))
}

// DefaultDatabasePath resolves the session history database location.
func DefaultDatabasePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "focusd", "sessions.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "focusd-sessions.db")
	}
	return filepath.Join(home, ".local", "share", "focusd", "sessions.db")
}

// SocketPath returns the configured or default socket path.
func (c *Config) SocketPath() string {
	if c.Daemon.SocketPath != "" {
		return c.Daemon.SocketPath
	}
	return DefaultSocketPath()
}

// DatabasePath returns the configured or default database path.
func (c *Config) DatabasePath() string {
	if c.Storage.DatabasePath != "" {
		return c.Storage.DatabasePath
	}
	return DefaultDatabasePath()
}

// DefaultDuration returns the configured default session duration.
func (c *Config) DefaultDuration() time.Duration {
	return time.Duration(c.Focus.DefaultDurationMinutes) * time.Minute
}

// CheckInInterval returns the configured default check-in interval.
func (c *Config) CheckInInterval() time.Duration {
	return time.Duration(c.Focus.CheckInIntervalMinutes) * time.Minute
}

// CheckInTimeout returns the bounded wait applied to an unanswered check-in
// before the auto-pause policy kicks in.
func (c *Config) CheckInTimeout() time.Duration {
	return time.Duration(c.Focus.CheckInTimeoutSeconds) * time.Second
}

// NotificationsEnabled reports whether desktop notifications are on.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled == nil || *c.Notifications.Enabled
}

// SoundEnabled reports whether notification sounds are on.
func (c *Config) SoundEnabled() bool {
	return c.Notifications.Sound == nil || *c.Notifications.Sound
}
