package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "focusd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	require.Equal(t, 25*time.Minute, cfg.DefaultDuration())
	require.Equal(t, 25*time.Minute, cfg.CheckInInterval())
	require.Equal(t, 120*time.Second, cfg.CheckInTimeout())
	require.Equal(t, time.Second, cfg.Daemon.TickInterval)
	require.Equal(t, DefaultSubscriberBuffer, cfg.Daemon.SubscriberBuffer)
	require.True(t, cfg.NotificationsEnabled())
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
focus:
  default_duration_minutes: 50
notifications:
  urgency: critical
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 50*time.Minute, cfg.DefaultDuration())
	require.Equal(t, 25*time.Minute, cfg.CheckInInterval())
	require.Equal(t, "critical", cfg.Notifications.Urgency)
}

func TestLoadExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("FOCUSD_TEST_SOCKET", "/tmp/focusd-test.sock")
	path := writeConfig(t, `
daemon:
  socket_path: ${FOCUSD_TEST_SOCKET}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/focusd-test.sock", cfg.SocketPath())
}

func TestLoadRejectsBadUrgency(t *testing.T) {
	path := writeConfig(t, `
notifications:
  urgency: shouty
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadDigestTime(t *testing.T) {
	path := writeConfig(t, `
digest:
  enabled: true
  at: "25:99"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestNotificationsCanBeDisabled(t *testing.T) {
	path := writeConfig(t, `
notifications:
  enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.False(t, cfg.NotificationsEnabled())
}

func TestSocketPathFallsBackToRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	cfg := Defaults()
	require.Equal(t, "/run/user/1000/focusd.sock", cfg.SocketPath())
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("18:05")
	require.NoError(t, err)
	require.Equal(t, 18, h)
	require.Equal(t, 5, m)

	_, _, err = ParseClock("24:00")
	require.Error(t, err)
	_, _, err = ParseClock("bogus")
	require.Error(t, err)
}
