package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/custodia-labs/sercha-engine/internal/core/ports/driven"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports commits made to a store's database file by any process.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dir      string
	files    glob.Glob
	debounce time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

var _ driven.ChangeWatcher = (*Watcher)(nil)

// NewWatcher watches the database file at path and its WAL companions.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	files, err := glob.Compile(glob.QuoteMeta(filepath.Base(path)) + "*")
	if err != nil {
		return nil, fmt.Errorf("compiling file pattern: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{watcher: w, dir: filepath.Dir(path), files: files, debounce: debounce}, nil
}

// Watch calls onChange, debounced, after writes to the database until ctx
// is cancelled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.files.Match(filepath.Base(event.Name)) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.schedule(onChange)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", w.dir, err)
		}
	}
}

func (w *Watcher) schedule(onChange func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			onChange()
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Close stops watching. Pending notifications are dropped.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}
