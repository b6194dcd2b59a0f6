// Package watch implements --watch mode: it recurses a root directory,
// places an fsnotify watch on every directory within it, and debounces
// the resulting create/write/remove/rename events into batches that are
// handed to a caller-supplied callback — typically a re-run of
// internal/driver over just the affected paths. Grounded on the
// teacher's internal/indexing/watcher.go FileWatcher/eventDebouncer
// pair: the directory-walk-and-add-watch setup, the symlink-cycle
// guard, and the "store latest event per path, reset a single timer"
// debounce shape are all reused; the per-event-type callback triage
// (onFileChanged/onFileCreated/onFileRemoved) is collapsed into one
// batch callback taking changed and removed path slices, since a lint
// re-run only cares about "recheck this file" vs. "this file is gone",
// not the original create/write/rename distinction.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/turbocop/internal/filefilter"
)

// DefaultDebounce is the default watch-debounce window.
const DefaultDebounce = 300 * time.Millisecond

// Batch is one debounced round of file-system activity.
type Batch struct {
	Changed []string // created, written, or renamed-into-existence
	Removed []string // removed or renamed-away
}

// Watcher watches a directory tree and delivers debounced Batches.
type Watcher struct {
	fsw      *fsnotify.Watcher
	filter   *filefilter.Filter
	debounce time.Duration
	onBatch  func(Batch)

	mu      sync.Mutex
	events  map[string]bool // path -> removed
	timer   *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Watcher rooted at root. filter decides which paths are
// worth reporting (the same filefilter.Filter the orchestrator uses for
// scope, so watch mode and a plain run agree on what's in scope).
// debounce <= 0 selects DefaultDebounce.
func New(root string, filter *filefilter.Filter, debounce time.Duration, onBatch func(Batch)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fsw:      fsw,
		filter:   filter,
		debounce: debounce,
		onBatch:  onBatch,
		events:   make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := w.addWatches(root); err != nil {
		cancel()
		_ = fsw.Close()
		return nil, fmt.Errorf("watch: adding watches under %s: %w", root, err)
	}

	return w, nil
}

// Start launches the event-processing goroutine. Callers stop watching
// with Close.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.processEvents()
}

// Close stops the watcher and waits for its goroutine to exit. Any
// event batch pending in the debounce window at the time of Close is
// dropped rather than flushed: flushing after the caller has already
// decided to stop could
// race a now-torn-down pipeline.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[real] {
			return filepath.SkipDir
		}
		visited[real] = true

		if !w.filter.InScope(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return nil
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Errors are non-fatal: the watcher keeps running on its
			// remaining watches.
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name

	info, err := os.Stat(path)
	if err != nil {
		if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.filter.InScope(path) {
			w.addEvent(path, true)
		}
		return
	}

	if info.IsDir() {
		if ev.Op&fsnotify.Create != 0 && w.filter.InScope(path) {
			_ = w.fsw.Add(path)
		}
		return
	}

	if !w.filter.InScope(path) {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
		w.addEvent(path, false)
	}
}

func (w *Watcher) addEvent(path string, removed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.events[path] = removed
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	events := w.events
	w.events = make(map[string]bool)
	w.mu.Unlock()

	if len(events) == 0 {
		return
	}

	var batch Batch
	for path, removed := range events {
		if removed {
			batch.Removed = append(batch.Removed, path)
		} else {
			batch.Changed = append(batch.Changed, path)
		}
	}

	if w.onBatch != nil {
		w.onBatch(batch)
	}
}
