package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/storage"
)

// Reload event kinds passed to an EventCallback.
const (
	EventReloaded = "reloaded"
	EventInvalid  = "invalid"
)

// EventCallback is called after the watcher acted on a change.
// c is the snapshot in effect afterwards.
type EventCallback func(kind string, c *Catalog)

const reloadDebounce = 200 * time.Millisecond

// Watch watches the content root for changes to the content document and
// swaps a freshly parsed catalog into store until ctx is cancelled.
//
// The directory is watched rather than the file because editors usually
// replace files by rename. Bursts of events are debounced; a document that
// fails to parse leaves the previous snapshot in place.
func Watch(ctx context.Context, store *Store, p storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(p.Root()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", p.Root()))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDebounce)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			reload(store, p, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != FileName {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("watcher: change", slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reload parses the document and installs it if it changed.
func reload(store *Store, p storage.Provider, logger *slog.Logger, cb EventCallback) {
	next, err := Load(p)
	if err != nil {
		logger.Warn("watcher: reload rejected, keeping previous catalog", slog.String("error", err.Error()))
		if cb != nil {
			cb(EventInvalid, store.Current())
		}
		return
	}
	if prev := store.Current(); prev != nil && prev.Checksum() == next.Checksum() {
		return
	}
	store.Swap(next)
	logger.Info("watcher: catalog reloaded",
		slog.Int("projects", next.Len()),
		slog.String("checksum", next.Checksum()))
	if cb != nil {
		cb(EventReloaded, next)
	}
}
