// Package uploads watches the uploads directory and keeps the index in
// sync with it: files dropped in or modified are (re)ingested, files
// removed are deleted from the index.
package uploads

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/studykit/studyrag-cli/internal/core/services"
	"github.com/studykit/studyrag-cli/internal/logger"
)

// DefaultDebounce coalesces bursts of write events for one file into a
// single ingestion. Editors commonly emit several writes per save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher mirrors a directory into the index via the ingest service.
type Watcher struct {
	dir      string
	ingest   *services.IngestService
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher for dir. A non-positive debounce uses
// the default.
func NewWatcher(dir string, ingest *services.IngestService, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		ingest:   ingest,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches until the context is cancelled. It returns the context
// error on cancellation and any watcher setup failure immediately.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}
	logger.Info("Watching %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Error("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.scheduleIngest(ctx, name)

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.cancelOne(name)
		removed, err := w.ingest.Remove(ctx, name)
		if err != nil {
			logger.Error("Removing %s from index: %v", name, err)
			return
		}
		logger.Info("Removed %s: %d chunks", name, removed)
	}
}

// scheduleIngest (re)arms the debounce timer for one file.
func (w *Watcher) scheduleIngest(ctx context.Context, name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[name]; ok {
		timer.Stop()
	}
	w.pending[name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, name)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		result, err := w.ingest.Reingest(ctx, name)
		if err != nil {
			logger.Error("Ingesting %s: %v", name, err)
			return
		}
		logger.Info("Ingested %s: %d chunks", name, result.ChunksAdded)
	})
}

func (w *Watcher) cancelOne(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[name]; ok {
		timer.Stop()
		delete(w.pending, name)
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, timer := range w.pending {
		timer.Stop()
		delete(w.pending, name)
	}
}
