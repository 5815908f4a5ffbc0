package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig contains configuration for the file watcher.
type WatchConfig struct {
	// Path is the configuration file to watch.
	Path string

	// DebounceInterval is the time to wait after a change before
	// triggering a reload, absorbing editor write bursts.
	// Default: 100ms
	DebounceInterval time.Duration
}

// Watcher watches the configuration file and triggers reloads on change.
type Watcher struct {
	watcher *fsnotify.Watcher
	config  WatchConfig
	logger  *slog.Logger
}

// NewWatcher creates a configuration file watcher.
func NewWatcher(config WatchConfig) (*Watcher, error) {
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 100 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: watcher,
		config:  config,
		logger:  slog.Default().With("component", "config.watcher"),
	}, nil
}

// Watch blocks until ctx is cancelled, invoking onReload after each
// debounced change to the watched file. Watching the parent directory
// keeps the watch alive across the rename-and-replace writes editors and
// config management tools perform.
func (w *Watcher) Watch(ctx context.Context, onReload func() error) error {
	defer w.watcher.Close()

	dir := filepath.Dir(w.config.Path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("config watcher started", "path", w.config.Path)

	var debounce *time.Timer
	var debounceCh <-chan time.Time
	target := filepath.Clean(w.config.Path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(w.config.DebounceInterval)
			} else {
				debounce.Reset(w.config.DebounceInterval)
			}
			debounceCh = debounce.C

		case <-debounceCh:
			debounceCh = nil
			w.logger.Info("config file changed, reloading", "path", w.config.Path)
			if err := onReload(); err != nil {
				w.logger.Error("config reload failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher error", "error", err)
		}
	}
}
