// Package clipboard reads and writes the OS clipboard as UTF-8 text.
//
// Three backends exist: System shells out to the platform clipboard utility,
// Toolkit goes through the fyne clipboard abstraction, and Memory keeps the
// text in-process for headless runs and tests.
package clipboard

import (
	"context"
	"sync"
)

// Clipboard is implemented by every backend.
type Clipboard interface {
	ReadText(ctx context.Context) (string, error)
	WriteText(ctx context.Context, text string) error
}

// Memory is an in-process clipboard.
type Memory struct {
	mu   sync.Mutex
	text string
}

// NewMemory returns an empty in-process clipboard.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) ReadText(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) WriteText(_ context.Context, text string) error {
	m.mu.Lock()
	m.text = text
	m.mu.Unlock()
	return nil
}
