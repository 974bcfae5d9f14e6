// Package watch reports external modifications of files open in the editor.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/sert-editor/sert/pkg/logging"
)

// Change is one observed modification.
type Change struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

// Watcher tracks individual files. It watches their parent directories so
// atomic saves (write temp file, rename over) are still seen.
type Watcher struct {
	fs     *fsnotify.Watcher
	logger *logging.Logger
	notify func(Change)

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]int
}

// New creates a watcher that calls notify for every change to a watched file.
func New(logger *logging.Logger, notify func(Change)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		fs:     fsw,
		logger: logger,
		notify: notify,
		files:  make(map[string]bool),
		dirs:   make(map[string]int),
	}, nil
}

func normalise(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// Watch starts reporting changes to path. Watching twice is a no-op.
func (w *Watcher) Watch(path string) error {
	path, err := normalise(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[path] {
		return nil
	}
	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("failed to watch '%s': %w", path, err)
		}
	}
	w.dirs[dir]++
	w.files[path] = true
	w.logger.DebugCat(logging.CatIO, "Watching %s", path)
	return nil
}

// Unwatch stops reporting changes to path.
func (w *Watcher) Unwatch(path string) error {
	path, err := normalise(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.files[path] {
		return nil
	}
	delete(w.files, path)
	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if err := w.fs.Remove(dir); err != nil {
			w.logger.DebugCat(logging.CatIO, "Removing watch on %s: %v", dir, err)
		}
	}
	return nil
}

// Watched returns the number of watched files.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.files)
}

// Run delivers events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnCat(logging.CatIO, "File watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return
	}

	var op string
	switch {
	case ev.Has(fsnotify.Remove):
		op = "remove"
	case ev.Has(fsnotify.Rename):
		op = "rename"
	case ev.Has(fsnotify.Create):
		op = "create"
	case ev.Has(fsnotify.Write):
		op = "write"
	default:
		return
	}

	w.logger.DebugCat(logging.CatIO, "%s changed on disk (%s)", path, op)
	if w.notify != nil {
		w.notify(Change{Path: path, Op: op})
	}
}
