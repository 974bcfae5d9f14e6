package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupported is returned on platforms without a known clipboard utility.
var ErrUnsupported = errors.New("clipboard operation not supported on this platform")

// tool is one clipboard utility invocation.
type tool struct {
	name string
	args []string
}

func (t tool) String() string {
	return t.name
}

// Runner starts name with args, feeds stdin and returns stdout.
type Runner func(ctx context.Context, stdin *string, name string, args ...string) (string, error)

// System shells out to the platform clipboard utilities.
type System struct {
	goos string
	run  Runner
}

// NewSystem returns the subprocess backend for the current platform.
func NewSystem() *System {
	return &System{goos: runtime.GOOS, run: execRunner}
}

// NewSystemWith is NewSystem with an explicit platform and runner.
func NewSystemWith(goos string, run Runner) *System {
	if run == nil {
		run = execRunner
	}
	return &System{goos: goos, run: run}
}

func readTools(goos string) []tool {
	switch goos {
	case "darwin":
		return []tool{{name: "pbpaste"}}
	case "windows":
		return []tool{{name: "powershell", args: []string{"-NoProfile", "-Command", "Get-Clipboard"}}}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []tool{
			{name: "xclip", args: []string{"-selection", "clipboard", "-o"}},
			{name: "xsel", args: []string{"-b", "-o"}},
		}
	}
	return nil
}

func writeTools(goos string) []tool {
	switch goos {
	case "darwin":
		return []tool{{name: "pbcopy"}}
	case "windows":
		return []tool{{name: "powershell", args: []string{"-NoProfile", "-Command",
			"[Console]::InputEncoding = [Text.Encoding]::UTF8; Set-Clipboard -Value ([Console]::In.ReadToEnd())"}}}
	case "linux", "freebsd", "openbsd", "netbsd":
		return []tool{
			{name: "xclip", args: []string{"-selection", "clipboard"}},
			{name: "xsel", args: []string{"-b", "-i"}},
		}
	}
	return nil
}

// ReadText tries each utility in order and returns the first success.
func (s *System) ReadText(ctx context.Context) (string, error) {
	tools := readTools(s.goos)
	if len(tools) == 0 {
		return "", ErrUnsupported
	}

	var lastErr error
	for _, t := range tools {
		out, err := s.run(ctx, nil, t.name, t.args...)
		if err != nil {
			lastErr = err
			continue
		}
		if s.goos == "windows" {
			// Get-Clipboard appends one line break.
			out = trimLineBreak(out)
		}
		return out, nil
	}
	return "", fmt.Errorf("clipboard read failed (%s): %w", s.goos, lastErr)
}

// WriteText tries each utility in order and stops at the first success.
func (s *System) WriteText(ctx context.Context, text string) error {
	tools := writeTools(s.goos)
	if len(tools) == 0 {
		return ErrUnsupported
	}

	var lastErr error
	for _, t := range tools {
		if _, err := s.run(ctx, &text, t.name, t.args...); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("clipboard write failed (%s): %w", s.goos, lastErr)
}

func execRunner(ctx context.Context, stdin *string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = strings.NewReader(*stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to spawn %s: %w", name, err)
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return "", fmt.Errorf("%s exited with status %d: %s", name, exitErr.ExitCode(), msg)
			}
			return "", fmt.Errorf("%s exited with status %d", name, exitErr.ExitCode())
		}
		return "", fmt.Errorf("failed to wait for %s: %w", name, err)
	}
	return stdout.String(), nil
}

func trimLineBreak(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
