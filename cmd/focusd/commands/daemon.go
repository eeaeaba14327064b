package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	configPath := root.ConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if root.Socket != "" {
		cfg.Daemon.SocketPath = root.Socket
	}
	return RunDaemon(cfg, configPath)
}

// RunDaemon runs the daemon until a signal or a client shutdown request.
func RunDaemon(cfg *config.Config, configPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.NewDaemon(cfg, configPath)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	return d.Stop(stopCtx)
}
