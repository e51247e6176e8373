// Package watch reports changes below build output directories. Bursts of
// file events, as produced by a compiler rewriting its output, are coalesced
// into a single Batch.
package watch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay is how long the tree must stay quiet before a batch
// is delivered.
const DefaultDebounceDelay = 200 * time.Millisecond

// Batch lists the paths touched during one burst of changes.
type Batch struct {
	Paths []string  // Absolute paths, sorted
	Time  time.Time // When the batch was delivered
}

// Watcher watches directory trees and delivers coalesced change batches.
type Watcher struct {
	watcher *fsnotify.Watcher
	batches chan Batch
	errors  chan error
	done    chan struct{}
	roots   []string
	exclude map[string]bool

	mu            sync.Mutex
	debounceDelay time.Duration
	pending       map[string]struct{}
	timer         *time.Timer
	closed        bool
}

// New watches every directory below roots, skipping directories whose name
// is in excludeDirs. Directories created later are added as they appear.
func New(roots []string, excludeDirs []string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:       watcher,
		batches:       make(chan Batch, 16),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		exclude:       make(map[string]bool),
		debounceDelay: DefaultDebounceDelay,
		pending:       make(map[string]struct{}),
	}
	for _, d := range excludeDirs {
		w.exclude[d] = true
	}

	for _, root := range roots {
		root = filepath.Clean(root)
		if err := w.addRecursive(root); err != nil {
			watcher.Close()
			return nil, err
		}
		w.roots = append(w.roots, root)
	}

	go w.processEvents()
	return w, nil
}

// addRecursive adds dir and all its subdirectories to the watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Removed while walking
			if os.IsNotExist(err) && path != dir {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.exclude[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return nil
			}
			return err
		}
		return nil
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) reportError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Permission changes do not alter content
	if event.Op == fsnotify.Chmod {
		return
	}
	if w.excluded(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.exclude[info.Name()] {
				return
			}
			if err := w.addRecursive(event.Name); err != nil {
				w.reportError(err)
			}
		}
	}
	w.schedule(event.Name)
}

// excluded reports whether path lies in an excluded directory below a root.
func (w *Watcher) excluded(path string) bool {
	if len(w.exclude) == 0 {
		return false
	}
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
			if w.exclude[part] {
				return true
			}
		}
	}
	return false
}

// schedule records path and restarts the quiet period.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceDelay, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	sort.Strings(paths)
	select {
	case w.batches <- Batch{Paths: paths, Time: time.Now()}:
	case <-w.done:
	}
}

// Batches returns the channel of change batches.
func (w *Watcher) Batches() <-chan Batch {
	return w.batches
}

// Errors returns the channel of watch errors. Errors are dropped when the
// channel is full.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Roots returns the watched root directories.
func (w *Watcher) Roots() []string {
	return w.roots
}

// SetDebounceDelay sets the quiet period. Call before changes are expected.
func (w *Watcher) SetDebounceDelay(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDelay = delay
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}
