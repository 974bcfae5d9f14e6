// Package osopen hands paths and URLs to the host OS: folders go to the file
// manager, editor URLs go to the default browser.
package osopen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/pkg/browser"
)

func init() {
	// xdg-open and friends chatter on stdout; keep the console clean.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// Opener opens folders in the platform file manager.
type Opener struct {
	goos  string
	start func(ctx context.Context, name string, args ...string) error
}

// New returns an Opener for the current platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, start: runCommand}
}

// NewWith returns an Opener with an explicit platform and process starter.
func NewWith(goos string, start func(ctx context.Context, name string, args ...string) error) *Opener {
	if start == nil {
		start = runCommand
	}
	return &Opener{goos: goos, start: start}
}

// folderCommand returns the file-manager invocation for goos.
func folderCommand(goos, path string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{path}, nil
	case "windows":
		return "explorer", []string{path}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{path}, nil
	}
	return "", nil, fmt.Errorf("opening folders is not supported on %s", goos)
}

// OpenFolder shows path in a file-manager window. explorer.exe exits non-zero
// even when it opened the window, so its exit status is ignored.
func (o *Opener) OpenFolder(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot open folder '%s': %w", path, err)
	}

	name, args, err := folderCommand(o.goos, path)
	if err != nil {
		return err
	}

	err = o.start(ctx, name, args...)
	var exitErr *exec.ExitError
	if err != nil && errors.As(err, &exitErr) && o.goos == "windows" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open folder '%s': %w", path, err)
	}
	return nil
}

// OpenURL opens url in the default browser.
func OpenURL(url string) error {
	return browser.OpenURL(url)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to spawn %s: %w", name, err)
	}
	return cmd.Wait()
}
