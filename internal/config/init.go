package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// initialConfig is the annotated starting point written by `focusd init`.
// Every value shown matches the built-in default, so the file is safe to
// trim down to only the lines the user actually changes.
const initialConfig = `# focusd configuration
daemon:
  # socket_path: ${XDG_RUNTIME_DIR}/focusd.sock
  tick_interval: 1s
  subscriber_buffer: 16
  # Loopback HTTP endpoint for /metrics, /healthz and /status.
  # admin_addr: 127.0.0.1:9165

focus:
  default_duration_minutes: 25
  check_in_interval_minutes: 25
  check_in_timeout_seconds: 120

notifications:
  enabled: true
  urgency: normal
  sound: true

storage:
  # database_path: ${XDG_DATA_HOME}/focusd/sessions.db

events:
  # Mirror session events onto NATS for dashboards and automation.
  # nats_url: nats://localhost:4222
  # subject: focusd.session.events

digest:
  enabled: false
  at: "18:00"
`

// Init writes a starter configuration file. It refuses to overwrite an
// existing file unless force is set.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(initialConfig), 0o644)
}
