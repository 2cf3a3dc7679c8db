package internal

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	pkgconfig "github.com/starford/chemid/pkg/config"
)

const reloadDebounce = 200 * time.Millisecond

// ReloadCallback receives a freshly loaded and validated configuration.
type ReloadCallback func(cfg *Config)

// WatchConfig watches the configuration file at path and calls cb with the
// reloaded configuration after each change, until ctx is cancelled.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file on save are still seen. Bursts of events
// are debounced. A file that fails to load or validate is logged and
// skipped; the previous configuration stays in effect.
func WatchConfig(ctx context.Context, path string, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("config watcher: started", slog.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("config watcher: stopped")
			return nil

		case <-reloadCh:
			cfg := NewDefaultConfig()
			if err := pkgconfig.Load(abs, cfg); err != nil {
				logger.Warn("config watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("config watcher: reloaded", slog.String("path", abs))
			if cb != nil {
				cb(cfg)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("config watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// applyReload applies the settings that can change at runtime and reports
// the ones that need a restart.
func applyReload(current *Config, next *Config, level *slog.LevelVar, logger *slog.Logger) {
	if next.App.LogLevel != level.Level() {
		logger.Info("config watcher: log level changed",
			slog.String("from", level.Level().String()),
			slog.String("to", next.App.LogLevel.String()))
		level.Set(next.App.LogLevel)
	}

	var restart []string
	if next.App.HTTP != current.App.HTTP {
		restart = append(restart, "app.http")
	}
	if next.PubChem != current.PubChem {
		restart = append(restart, "pubchem")
	}
	if next.Cache != current.Cache {
		restart = append(restart, "cache")
	}
	if next.Auth != current.Auth {
		restart = append(restart, "auth")
	}
	if len(restart) > 0 {
		logger.Warn("config watcher: changes require restart", slog.Any("sections", restart))
	}
}
