package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/focusd/internal/config"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
)

// ConfigWatcher monitors the configuration file. focusd deliberately does
// not hot-swap its config: the socket path, tick cadence and actor wiring
// are fixed at startup. The watcher's job is to tell the operator early
// whether an edited file is valid and that a restart is needed, instead
// of surprising them on the next launch.
type ConfigWatcher struct {
	configPath   string
	watcher      *fsnotify.Watcher
	stopChan     chan struct{}
	changeChan   chan struct{}
	debounceTime time.Duration
}

func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create file watcher").Build()
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to resolve config path").
			WithContext("path", configPath).Build()
	}

	return &ConfigWatcher{
		configPath:   absPath,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		changeChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins monitoring. Watching the directory instead of the file
// survives editors that replace the file on save.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to watch config directory").
			WithContext("dir", configDir).Build()
	}

	slog.Debug("watching configuration file", slog.String("config_path", cw.configPath))
	go cw.watchLoop(ctx)
	go cw.checkLoop(ctx)
	return nil
}

func (cw *ConfigWatcher) Stop(ctx context.Context) error {
	close(cw.stopChan)
	return cw.watcher.Close()
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(cw.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Rename):
				cw.triggerCheck()
			case event.Op.Has(fsnotify.Remove):
				slog.Warn("configuration file removed", slog.String("config_path", cw.configPath))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", logfields.Error(err))
		}
	}
}

// checkLoop debounces change bursts and validates the edited file.
func (cw *ConfigWatcher) checkLoop(ctx context.Context) {
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-cw.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-cw.changeChan:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(cw.debounceTime, cw.checkConfig)
		}
	}
}

func (cw *ConfigWatcher) triggerCheck() {
	select {
	case cw.changeChan <- struct{}{}:
	default:
		// check already pending
	}
}

func (cw *ConfigWatcher) checkConfig() {
	if _, err := config.Load(cw.configPath); err != nil {
		slog.Error("edited configuration is invalid",
			slog.String("config_path", cw.configPath),
			logfields.Error(err))
		return
	}
	slog.Info("configuration changed, restart focusd to apply",
		slog.String("config_path", cw.configPath))
}
