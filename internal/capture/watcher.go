package capture

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/charliek/netscope/internal/constants"
)

// Watcher reloads a capture file into a Store whenever the file changes.
// The parent directory is watched so that editors and tools that replace the
// file with a rename are still picked up.
type Watcher struct {
	path    string
	format  Format
	store   *Store
	logger  *slog.Logger
	delay   time.Duration
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher for path. Call Run to start processing events.
func NewWatcher(path string, format Format, store *Store, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:    abs,
		format:  format,
		store:   store,
		logger:  logger,
		delay:   constants.DefaultReloadDelay,
		watcher: fw,
	}, nil
}

// Run processes file events until ctx is cancelled. It closes the underlying
// watcher before returning.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	// Bursts of writes are coalesced into one reload
	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(w.delay)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "path", w.path, "error", err)

		case <-timer.C:
			w.Reload()
		}
	}
}

// Reload reads the file and replaces the store contents. On failure the
// previous snapshot is kept.
func (w *Watcher) Reload() {
	records, err := LoadFile(w.path, w.format)
	if err != nil {
		w.logger.Error("reload failed, keeping previous snapshot", "path", w.path, "error", err)
		return
	}
	w.store.Replace(records)
	w.logger.Info("capture file reloaded", "path", w.path, "records", len(records))
}
