package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T) (*Watcher, <-chan Change) {
	t.Helper()
	changes := make(chan Change, 16)
	w, err := New(nil, func(c Change) { changes <- c })
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return w, changes
}

func waitFor(t *testing.T, changes <-chan Change, path string) Change {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changes:
			if c.Path == path {
				return c
			}
		case <-deadline:
			t.Fatalf("No change reported for %s", path)
		}
	}
}

func TestWriteIsReported(t *testing.T) {
	w, changes := startWatcher(t)
	dir, _ := filepath.EvalSymlinks(t.TempDir())
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}

	c := waitFor(t, changes, path)
	if c.Op != "write" && c.Op != "create" {
		t.Errorf("Expected write, got %s", c.Op)
	}
}

func TestSiblingFilesAreIgnored(t *testing.T) {
	w, changes := startWatcher(t)
	dir, _ := filepath.EvalSymlinks(t.TempDir())
	watched := filepath.Join(dir, "watched.txt")
	other := filepath.Join(dir, "other.txt")
	os.WriteFile(watched, []byte("a"), 0644)

	if err := w.Watch(watched); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(other, []byte("b"), 0644)
	os.WriteFile(watched, []byte("c"), 0644)

	c := waitFor(t, changes, watched)
	if c.Path != watched {
		t.Errorf("Expected only the watched file, got %s", c.Path)
	}
}

func TestWatchUnwatchBookkeeping(t *testing.T) {
	w, _ := startWatcher(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	os.WriteFile(a, nil, 0644)
	os.WriteFile(b, nil, 0644)

	for _, p := range []string{a, a, b} {
		if err := w.Watch(p); err != nil {
			t.Fatal(err)
		}
	}
	if w.Watched() != 2 {
		t.Errorf("Expected 2 watched files, got %d", w.Watched())
	}

	w.Unwatch(a)
	w.Unwatch(a)
	if w.Watched() != 1 {
		t.Errorf("Expected 1 watched file, got %d", w.Watched())
	}
	w.Unwatch(b)
	if w.Watched() != 0 {
		t.Errorf("Expected 0 watched files, got %d", w.Watched())
	}
}

func TestWatchMissingDirectoryFails(t *testing.T) {
	w, _ := startWatcher(t)
	if err := w.Watch(filepath.Join(t.TempDir(), "no", "such", "file.txt")); err == nil {
		t.Error("Expected error for missing directory")
	}
}
