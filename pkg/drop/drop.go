// Package drop decides which editor window receives a file dropped on the
// application.
package drop

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sert-editor/sert/pkg/logging"
)

// Events exchanged with editor windows.
const (
	EventModificationState = "request-modification-state"
	EventFileDropped       = "file-dropped"
	EventOpenFileOnStart   = "open-file-on-start"
)

// Action records where a dropped file went.
type Action string

const (
	ActionCurrent Action = "current"
	ActionNew     Action = "new"
)

const (
	DefaultAckTimeout   = 1500 * time.Millisecond
	DefaultReadyTimeout = 10 * time.Second
)

// Decision is the outcome of routing one drop.
type Decision struct {
	Action Action `json:"action"`
	Window string `json:"window"`
}

// Shell is the window surface the router talks to.
type Shell interface {
	Request(ctx context.Context, window, event string, payload interface{}) (json.RawMessage, error)
	Emit(window, event string, payload interface{}) error
	OpenWindow(ctx context.Context) (string, error)
	WaitReady(ctx context.Context, window string) error
}

type pathPayload struct {
	Path string `json:"path"`
}

type modificationState struct {
	Modified bool `json:"modified"`
}

// Router routes dropped files.
type Router struct {
	shell        Shell
	logger       *logging.Logger
	ackTimeout   time.Duration
	readyTimeout time.Duration
}

// NewRouter creates a router. Zero timeouts select the defaults.
func NewRouter(shell Shell, logger *logging.Logger, ackTimeout, readyTimeout time.Duration) *Router {
	if logger == nil {
		logger = logging.Discard()
	}
	if ackTimeout <= 0 {
		ackTimeout = DefaultAckTimeout
	}
	if readyTimeout <= 0 {
		readyTimeout = DefaultReadyTimeout
	}
	return &Router{shell: shell, logger: logger, ackTimeout: ackTimeout, readyTimeout: readyTimeout}
}

// Route delivers path to window when that window has no unsaved changes, and to
// a freshly opened window otherwise. An empty window always opens a new one.
func (r *Router) Route(ctx context.Context, window, path string) (Decision, error) {
	if path == "" {
		return Decision{}, fmt.Errorf("missing dropped path")
	}
	r.logger.InfoCat(logging.CatDrop, "File dropped on window %q: %s", window, path)

	if window != "" && r.canReuse(ctx, window) {
		err := r.shell.Emit(window, EventFileDropped, pathPayload{Path: path})
		if err == nil {
			return Decision{Action: ActionCurrent, Window: window}, nil
		}
		r.logger.WarnCat(logging.CatDrop, "Delivery to window %s failed, opening a new one: %v", window, err)
	}

	return r.openInNew(ctx, path)
}

// canReuse reports whether window answered in time that it is unmodified.
func (r *Router) canReuse(ctx context.Context, window string) bool {
	ackCtx, cancel := context.WithTimeout(ctx, r.ackTimeout)
	defer cancel()

	raw, err := r.shell.Request(ackCtx, window, EventModificationState, nil)
	if err != nil {
		r.logger.WarnCat(logging.CatDrop, "No modification state from window %s: %v", window, err)
		return false
	}

	var state modificationState
	if err := json.Unmarshal(raw, &state); err != nil {
		r.logger.WarnCat(logging.CatDrop, "Bad modification state from window %s: %v", window, err)
		return false
	}
	return !state.Modified
}

func (r *Router) openInNew(ctx context.Context, path string) (Decision, error) {
	label, err := r.shell.OpenWindow(ctx)
	if err != nil {
		r.logger.ErrorCat(logging.CatDrop, "Cannot open window for %s: %v", path, err)
		return Decision{}, err
	}

	readyCtx, cancel := context.WithTimeout(ctx, r.readyTimeout)
	defer cancel()
	if err := r.shell.WaitReady(readyCtx, label); err != nil {
		r.logger.ErrorCat(logging.CatDrop, "Window %s never became ready for %s: %v", label, path, err)
		return Decision{}, err
	}

	if err := r.shell.Emit(label, EventOpenFileOnStart, pathPayload{Path: path}); err != nil {
		r.logger.ErrorCat(logging.CatDrop, "Cannot hand %s to window %s: %v", path, label, err)
		return Decision{}, err
	}
	return Decision{Action: ActionNew, Window: label}, nil
}
