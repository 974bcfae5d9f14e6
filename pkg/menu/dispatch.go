package menu

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sert-editor/sert/pkg/logging"
)

const (
	// DefaultRetryDelay is the pause before a failed menu script is tried again.
	DefaultRetryDelay = 500 * time.Millisecond
	// DefaultEvalTimeout bounds each attempt to run a menu script.
	DefaultEvalTimeout = 5 * time.Second
)

var errNoWindow = errors.New("no active editor window")

// Evaluator runs script in an editor window.
type Evaluator interface {
	Eval(ctx context.Context, window, script string) error
	Active() string
}

// Dispatcher turns menu clicks into front-end script evaluation.
type Dispatcher struct {
	eval       Evaluator
	logger     *logging.Logger
	retryDelay  time.Duration
	evalTimeout time.Duration

	mu     sync.Mutex
	native map[string]func()
}

// NewDispatcher creates a dispatcher. Zero durations select the defaults.
func NewDispatcher(eval Evaluator, logger *logging.Logger, retryDelay, evalTimeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if evalTimeout <= 0 {
		evalTimeout = DefaultEvalTimeout
	}
	return &Dispatcher{
		eval:       eval,
		logger:     logger,
		retryDelay:  retryDelay,
		evalTimeout: evalTimeout,
		native:      make(map[string]func()),
	}
}

// Handle binds id to a native action that runs instead of front-end script.
func (d *Dispatcher) Handle(id string, fn func()) {
	d.mu.Lock()
	d.native[id] = fn
	d.mu.Unlock()
}

// Dispatch runs the action bound to id. Failures are logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, id string) {
	d.mu.Lock()
	fn := d.native[id]
	d.mu.Unlock()
	if fn != nil {
		d.logger.DebugCat(logging.CatMenu, "Menu %s handled natively", id)
		fn()
		return
	}

	script, ok := Script(id)
	if !ok {
		d.logger.WarnCat(logging.CatMenu, "Unknown menu item: %s", id)
		return
	}
	wrapped := Wrap(id, script)

	err := d.run(ctx, wrapped)
	if err == nil {
		return
	}
	d.logger.WarnCat(logging.CatMenu, "Menu %s failed, retrying in %v: %v", id, d.retryDelay, err)

	timer := time.NewTimer(d.retryDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		d.logger.WarnCat(logging.CatMenu, "Menu %s abandoned: %v", id, ctx.Err())
		return
	}

	if err := d.run(ctx, wrapped); err != nil {
		d.logger.ErrorCat(logging.CatMenu, "Menu %s failed again: %v", id, err)
	}
}

func (d *Dispatcher) run(ctx context.Context, script string) error {
	window := d.eval.Active()
	if window == "" {
		return errNoWindow
	}
	attemptCtx, cancel := context.WithTimeout(ctx, d.evalTimeout)
	defer cancel()
	return d.eval.Eval(attemptCtx, window, script)
}
