// Package daemon assembles and runs the focusd service: the session
// engine, its timer and check-in actors, the control socket and the
// optional admin, digest, and event-mirror surfaces.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/focusd/internal/config"
	"git.home.luguber.info/inful/focusd/internal/daemon/events"
	"git.home.luguber.info/inful/focusd/internal/eventpub"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/metrics"
	"git.home.luguber.info/inful/focusd/internal/notify"
	"git.home.luguber.info/inful/focusd/internal/session"
	"git.home.luguber.info/inful/focusd/internal/store"
)

// Status represents the daemon lifecycle state.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
	StatusError    Status = "error"
)

// Daemon is the focusd service.
type Daemon struct {
	config    *config.Config
	status    atomic.Value // Status
	startTime time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
	mu        sync.Mutex

	bus         *events.Bus
	actor       *SessionActor
	timer       *TimerActor
	coordinator *CheckInCoordinator
	hub         *BroadcastHub
	server      *Server
	admin       *AdminServer
	watcher     *ConfigWatcher
	digest      *DigestScheduler
	publisher   *eventpub.Publisher

	store    store.Store
	notifier notify.Notifier
	metrics  *metrics.Recorder

	workers WorkerGroup
}

// NewDaemon wires all components from configuration. configFilePath may
// be empty, in which case the config file is not watched for edits.
func NewDaemon(cfg *config.Config, configFilePath string) (*Daemon, error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("configuration is required").Build()
	}

	d := &Daemon{
		config:   cfg,
		stopChan: make(chan struct{}),
		metrics:  metrics.NewRecorder(nil),
	}
	d.status.Store(StatusStopped)

	st, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	d.store = st

	d.notifier = buildNotifier(cfg)
	urgency := notify.ParseUrgency(cfg.Notifications.Urgency)

	d.bus = events.NewBus()
	d.actor = NewSessionActor(session.NewMachine(), d.bus, d.store, d.notifier, d.metrics, urgency, cfg.SoundEnabled())
	d.timer = NewTimerActor(d.actor, cfg.Daemon.TickInterval)
	d.coordinator = NewCheckInCoordinator(d.actor, d.bus, d.notifier, cfg.CheckInTimeout(), urgency, cfg.SoundEnabled())
	d.hub = NewBroadcastHub(cfg.Daemon.SubscriberBuffer, d.metrics)
	d.server = NewServer(cfg, d.actor, d.hub, d.signalStop)

	if cfg.Daemon.AdminAddr != "" {
		d.admin = NewAdminServer(cfg.Daemon.AdminAddr, d, d.metrics)
	}

	if cfg.Digest.Enabled {
		digest, err := NewDigestScheduler(cfg.Digest, d.store, d.notifier, urgency)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		d.digest = digest
	}

	if cfg.Events.NATSURL != "" {
		publisher, err := eventpub.New(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			// The mirror is optional; a missing broker only costs the feed.
			slog.Warn("event mirror disabled", logfields.Error(err))
		} else {
			d.publisher = publisher
		}
	}

	if configFilePath != "" {
		watcher, err := NewConfigWatcher(configFilePath)
		if err != nil {
			slog.Warn("config watcher disabled", logfields.Error(err))
		} else {
			d.watcher = watcher
		}
	}

	return d, nil
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.NotificationsEnabled() {
		slog.Info("notifications disabled by configuration")
		return notify.Disabled{}
	}
	notifier, err := notify.NewDBusNotifier()
	if err != nil {
		slog.Warn("notification backend unavailable, running without notifications",
			logfields.Error(err))
		return notify.Disabled{}
	}
	return notifier
}

// Start launches all components and blocks until the daemon is stopped
// by ctx, a signal, or a client shutdown request.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.GetStatus() != StatusStopped {
		d.mu.Unlock()
		return ferrors.DaemonError("daemon is not in stopped state").
			WithContext("status", string(d.GetStatus())).Build()
	}
	d.status.Store(StatusStarting)
	d.startTime = time.Now()

	runCtx, cancel := d.stopAwareContext(ctx)
	defer cancel()

	// Observer subscriptions are registered before the actor starts so
	// no transition can be published without them. Bus.Close releases
	// them at shutdown.
	hubCh, _ := events.Subscribe[events.SessionChanged](d.bus, 64)
	var pubCh <-chan events.SessionChanged
	if d.publisher != nil {
		pubCh, _ = events.Subscribe[events.SessionChanged](d.bus, 64)
	}

	d.workers.Go(func() { d.actor.Run(runCtx) })
	d.workers.Go(func() { d.hub.Run(runCtx, hubCh) })
	d.workers.Go(func() { d.coordinator.Run(runCtx) })
	d.workers.Go(func() { d.timer.Run(runCtx) })
	if d.publisher != nil {
		ch := pubCh
		d.workers.Go(func() { d.publisher.Run(runCtx, ch) })
	}

	if err := d.server.Start(runCtx); err != nil {
		d.status.Store(StatusError)
		d.mu.Unlock()
		return err
	}

	if d.admin != nil {
		if err := d.admin.Start(runCtx); err != nil {
			d.status.Store(StatusError)
			d.mu.Unlock()
			return err
		}
	}

	if d.digest != nil {
		d.digest.Start(runCtx)
	}

	if d.watcher != nil {
		if err := d.watcher.Start(runCtx); err != nil {
			slog.Warn("failed to start config watcher", logfields.Error(err))
			d.watcher = nil
		}
	}

	d.status.Store(StatusRunning)
	completed, err := d.store.CountCompleted(runCtx)
	if err != nil {
		slog.Warn("failed to count completed sessions", logfields.Error(err))
	}
	slog.Info("focusd started",
		logfields.Socket(d.config.SocketPath()),
		slog.Duration("tick_interval", d.config.Daemon.TickInterval),
		slog.Bool("notifications", d.config.NotificationsEnabled()),
		slog.Bool("digest", d.config.Digest.Enabled),
		slog.Bool("event_mirror", d.publisher != nil),
		slog.Int("completed_sessions", completed))
	d.mu.Unlock()

	d.mainLoop(ctx)

	d.status.Store(StatusStopping)
	return nil
}

// mainLoop blocks until the daemon is told to stop.
func (d *Daemon) mainLoop(ctx context.Context) {
	select {
	case <-ctx.Done():
		slog.Info("stopping on context cancellation")
	case <-d.stopChan:
		slog.Info("stopping on shutdown signal")
	}
}

// signalStop requests shutdown without blocking. Safe to call from any
// goroutine, including connection handlers.
func (d *Daemon) signalStop() {
	d.stopOnce.Do(func() { close(d.stopChan) })
}

// Stop shuts components down in reverse dependency order: stop taking
// input first, then flush observers, then close shared resources.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.GetStatus()
	if current == StatusStopped {
		return nil
	}
	d.status.Store(StatusStopping)
	d.signalStop()

	if err := d.server.Stop(ctx); err != nil {
		slog.Warn("control socket shutdown incomplete", logfields.Error(err))
	}

	if d.watcher != nil {
		if err := d.watcher.Stop(ctx); err != nil {
			slog.Warn("failed to stop config watcher", logfields.Error(err))
		}
	}

	if d.digest != nil {
		if err := d.digest.Stop(ctx); err != nil {
			slog.Warn("failed to stop digest scheduler", logfields.Error(err))
		}
	}

	if d.admin != nil {
		if err := d.admin.Stop(ctx); err != nil {
			slog.Warn("failed to stop admin server", logfields.Error(err))
		}
	}

	// Closing the bus ends the hub and mirror streams; subscribers
	// drain whatever is already queued before their connections close.
	d.bus.Close()

	if err := d.workers.StopAndWait(ctx); err != nil {
		slog.Warn("workers did not stop cleanly", logfields.Error(err))
	}

	if d.publisher != nil {
		d.publisher.Close()
	}
	if err := d.store.Close(); err != nil {
		slog.Warn("failed to close session store", logfields.Error(err))
	}
	if err := d.notifier.Close(); err != nil {
		slog.Debug("failed to close notifier", logfields.Error(err))
	}

	d.status.Store(StatusStopped)
	slog.Info("focusd stopped", slog.Duration("uptime", time.Since(d.startTime)))
	return nil
}

// GetStatus returns the current daemon status.
func (d *Daemon) GetStatus() Status {
	status, ok := d.status.Load().(Status)
	if !ok {
		return StatusError
	}
	return status
}

// GetStartTime returns when Start was called.
func (d *Daemon) GetStartTime() time.Time {
	return d.startTime
}
