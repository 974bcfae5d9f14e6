package osopen

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

type recorder struct {
	name string
	args []string
	err  error
}

func (r *recorder) start(_ context.Context, name string, args ...string) error {
	r.name = name
	r.args = args
	return r.err
}

func TestOpenFolderCommandPerPlatform(t *testing.T) {
	dir := t.TempDir()
	want := map[string]string{"darwin": "open", "windows": "explorer", "linux": "xdg-open"}

	for goos, tool := range want {
		r := &recorder{}
		if err := NewWith(goos, r.start).OpenFolder(context.Background(), dir); err != nil {
			t.Errorf("%s: unexpected error %v", goos, err)
		}
		if r.name != tool || len(r.args) != 1 || r.args[0] != dir {
			t.Errorf("%s: expected %s %s, got %s %v", goos, tool, dir, r.name, r.args)
		}
	}
}

// exitError produces a real *exec.ExitError.
func exitError(t *testing.T) error {
	t.Helper()
	err := exec.Command("sh", "-c", "exit 1").Run()
	if err == nil {
		t.Skip("sh not available")
	}
	if _, ok := err.(*exec.ExitError); !ok {
		t.Skipf("sh not available: %v", err)
	}
	return err
}

func TestExplorerNonZeroExitIsTolerated(t *testing.T) {
	r := &recorder{err: exitError(t)}
	if err := NewWith("windows", r.start).OpenFolder(context.Background(), t.TempDir()); err != nil {
		t.Errorf("Expected explorer exit status to be ignored, got %v", err)
	}
}

func TestNonZeroExitFailsElsewhere(t *testing.T) {
	r := &recorder{err: exitError(t)}
	if err := NewWith("linux", r.start).OpenFolder(context.Background(), t.TempDir()); err == nil {
		t.Error("Expected xdg-open failure to surface")
	}
}

func TestOpenFolderMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	r := &recorder{}
	err := NewWith("linux", r.start).OpenFolder(context.Background(), missing)
	if err == nil || !strings.Contains(err.Error(), missing) {
		t.Errorf("Expected error naming %s, got %v", missing, err)
	}
	if r.name != "" {
		t.Error("Expected no process to be started")
	}
}

func TestOpenFolderUnsupportedPlatform(t *testing.T) {
	if err := NewWith("plan9", (&recorder{}).start).OpenFolder(context.Background(), t.TempDir()); err == nil {
		t.Error("Expected unsupported platform error")
	}
}
