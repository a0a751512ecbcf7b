package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/alexjbarnes/photo-sync/internal/library"
	"github.com/fsnotify/fsnotify"
)

// minWatchTick is the floor for how often pending events are checked.
const minWatchTick = 50 * time.Millisecond

// Watcher signals when new or changed images in the source directory
// have settled, so screenshots that are still being written are not
// uploaded half-finished.
type Watcher struct {
	dir      string
	filter   *library.Filter
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher creates a watcher for dir. A trigger fires once no
// eligible file event has been seen for debounce.
func NewWatcher(dir string, filter *library.Filter, debounce time.Duration, logger *slog.Logger) *Watcher {
	if filter == nil {
		filter = library.NewFilter()
	}

	return &Watcher{
		dir:      dir,
		filter:   filter,
		debounce: debounce,
		logger:   logger,
	}
}

// Watch blocks until ctx is cancelled, sending on trigger each time a
// burst of events settles. Sends never block: if a trigger is already
// pending it is not duplicated. trigger should have capacity 1.
func (w *Watcher) Watch(ctx context.Context, trigger chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	w.logger.Info("file watcher started",
		slog.String("dir", w.dir),
		slog.Duration("debounce", w.debounce),
	)

	tick := w.debounce / 4
	if tick < minWatchTick {
		tick = minWatchTick
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var lastEvent time.Time

	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed unexpectedly")
			}

			if !w.relevant(event) {
				continue
			}

			w.logger.Debug("file event", slog.String("name", filepath.Base(event.Name)), slog.String("op", event.Op.String()))

			lastEvent = time.Now()
			pending = true

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed unexpectedly")
			}

			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			if !pending || time.Since(lastEvent) < w.debounce {
				continue
			}

			pending = false

			select {
			case trigger <- struct{}{}:
			default:
			}
		}
	}
}

// relevant reports whether event may have produced a new eligible file.
// Removals never do; deletions are not propagated.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Chmod) {
		return false
	}

	return w.filter.Allow(filepath.Base(event.Name))
}
