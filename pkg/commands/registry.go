// Package commands is the named command surface exposed to the front end.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sert-editor/sert/pkg/logging"
)

// Context is passed to command handlers
type Context struct {
	context.Context
	Window string

	name   string
	args   map[string]json.RawMessage
	result interface{}
}

// SetResult sets the value returned to the caller
func (c *Context) SetResult(value interface{}) {
	c.result = value
}

// Has reports whether the named argument was supplied and is not null
func (c *Context) Has(name string) bool {
	raw, ok := c.args[name]
	return ok && string(raw) != "null"
}

// Raw returns the named argument undecoded
func (c *Context) Raw(name string) (json.RawMessage, error) {
	raw, ok := c.args[name]
	if !ok {
		return nil, fmt.Errorf("%s: missing argument %q", c.name, name)
	}
	return raw, nil
}

// Arg returns a required string argument
func (c *Context) Arg(name string) (string, error) {
	raw, err := c.Raw(name)
	if err != nil {
		return "", err
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: argument %q must be a string", c.name, name)
	}
	return s, nil
}

// OptionalArg returns a string argument or "" when absent
func (c *Context) OptionalArg(name string) (string, error) {
	if !c.Has(name) {
		return "", nil
	}
	return c.Arg(name)
}

// Handler is a function that handles a command
type Handler func(*Context) error

// Registry maps command names to handlers
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Handler
	logger   *logging.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		commands: make(map[string]Handler),
		logger:   logger,
	}
}

// RegisterCommand registers a command handler
func (r *Registry) RegisterCommand(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[name] = handler
}

// Names lists registered commands in order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the named command with JSON object arguments
func (r *Registry) Invoke(ctx context.Context, window, name string, args json.RawMessage) (interface{}, error) {
	r.mu.RLock()
	handler, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		r.logger.WarnCat(logging.CatCommand, "Unknown command: %s", name)
		return nil, fmt.Errorf("unknown command: %s", name)
	}

	c := &Context{Context: ctx, Window: window, name: name}
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &c.args); err != nil {
			return nil, fmt.Errorf("%s: arguments must be an object: %v", name, err)
		}
	}

	r.logger.TraceCat(logging.CatCommand, "Invoking %s from window %q", name, window)
	if err := handler(c); err != nil {
		r.logger.DebugCat(logging.CatCommand, "%s failed: %v", name, err)
		return nil, err
	}
	return c.result, nil
}
