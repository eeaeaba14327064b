package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/focusd/internal/client"
	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/protocol"
	"git.home.luguber.info/inful/focusd/internal/session"
)

// Global context passed to subcommands if we need to share state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition with global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:""`
	Socket  string           `short:"s" help:"Control socket path (overrides config)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Daemon  DaemonCmd  `cmd:"" help:"Run the focus session daemon"`
	Start   StartCmd   `cmd:"" help:"Start a focus session"`
	Pause   PauseCmd   `cmd:"" help:"Pause the active session"`
	Resume  ResumeCmd  `cmd:"" help:"Resume a paused session"`
	Stop    StopCmd    `cmd:"" help:"Stop the session early"`
	Status  StatusCmd  `cmd:"" help:"Show the current session"`
	Respond RespondCmd `cmd:"" help:"Answer a pending check-in"`
	Watch   WatchCmd   `cmd:"" help:"Stream session changes"`
	History HistoryCmd `cmd:"" help:"Show recently finished sessions"`
	Ping    PingCmd    `cmd:"" help:"Check that the daemon is responding"`
	Stopd   StopdCmd   `cmd:"" name:"stop-daemon" help:"Ask the daemon to shut down"`
	Init    InitCmd    `cmd:"" help:"Write a starter configuration file"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// ConfigPath resolves the configuration file to use.
func (c *CLI) ConfigPath() string {
	if c.Config != "" {
		return c.Config
	}
	return config.DefaultConfigPath()
}

// Client builds a socket client from flags and configuration.
func (c *CLI) Client() (*client.Client, error) {
	if c.Socket != "" {
		return client.New(c.Socket), nil
	}
	cfg, err := config.Load(c.ConfigPath())
	if err != nil {
		return nil, err
	}
	return client.New(cfg.SocketPath()), nil
}

// printSnapshot renders one snapshot for humans.
func printSnapshot(snap protocol.Snapshot) {
	state := session.State(snap.State)
	switch state {
	case session.StateInactive:
		fmt.Println("no active session")
		return
	case session.StateCompleted, session.StateStopped:
		fmt.Printf("%s  %s  focused %s of %s  (%d check-ins)\n",
			snap.State, snap.Mode,
			formatSeconds(snap.ElapsedSeconds), formatSeconds(snap.TotalSeconds),
			snap.CheckInCount)
		return
	}

	fmt.Printf("%s  %s  %s elapsed, %s remaining",
		snap.State, snap.Mode,
		formatSeconds(snap.ElapsedSeconds), formatSeconds(snap.RemainingSeconds))
	if state == session.StateCheckInPending {
		fmt.Print("  [answer with: focusd respond continue|pause|stop]")
	}
	fmt.Println()
}

func formatSeconds(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	if d >= time.Hour {
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%02dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// printWarning surfaces a daemon-side degradation without failing the command.
func printWarning(warning string) {
	if warning != "" {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
}
