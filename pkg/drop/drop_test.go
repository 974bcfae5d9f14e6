package drop

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type emitted struct {
	window, event string
	payload       interface{}
}

type fakeShell struct {
	mu sync.Mutex

	ack      json.RawMessage
	ackErr   error
	ackDelay time.Duration

	emitErr map[string]error

	openErr  error
	opened   []string
	readyErr error

	emits []emitted
}

func (f *fakeShell) Request(ctx context.Context, window, event string, payload interface{}) (json.RawMessage, error) {
	if f.ackDelay > 0 {
		select {
		case <-time.After(f.ackDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.ack, f.ackErr
}

func (f *fakeShell) Emit(window, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.emitErr[window]; err != nil {
		return err
	}
	f.emits = append(f.emits, emitted{window, event, payload})
	return nil
}

func (f *fakeShell) OpenWindow(ctx context.Context) (string, error) {
	if f.openErr != nil {
		return "", f.openErr
	}
	label := "new-window"
	f.opened = append(f.opened, label)
	return label, nil
}

func (f *fakeShell) WaitReady(ctx context.Context, window string) error {
	if f.readyErr != nil {
		return f.readyErr
	}
	return nil
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name       string
		shell      *fakeShell
		window     string
		wantAction Action
		wantWindow string
		wantEvent  string
	}{
		{
			name:       "unmodified window reuses current",
			shell:      &fakeShell{ack: json.RawMessage(`{"modified":false}`)},
			window:     "main",
			wantAction: ActionCurrent,
			wantWindow: "main",
			wantEvent:  EventFileDropped,
		},
		{
			name:       "modified window opens new",
			shell:      &fakeShell{ack: json.RawMessage(`{"modified":true}`)},
			window:     "main",
			wantAction: ActionNew,
			wantWindow: "new-window",
			wantEvent:  EventOpenFileOnStart,
		},
		{
			name:       "request error opens new",
			shell:      &fakeShell{ackErr: errors.New("window closed")},
			window:     "main",
			wantAction: ActionNew,
			wantWindow: "new-window",
			wantEvent:  EventOpenFileOnStart,
		},
		{
			name:       "garbled ack opens new",
			shell:      &fakeShell{ack: json.RawMessage(`"yes"`)},
			window:     "main",
			wantAction: ActionNew,
			wantWindow: "new-window",
			wantEvent:  EventOpenFileOnStart,
		},
		{
			name: "delivery failure opens new",
			shell: &fakeShell{
				ack:     json.RawMessage(`{"modified":false}`),
				emitErr: map[string]error{"main": errors.New("broken pipe")},
			},
			window:     "main",
			wantAction: ActionNew,
			wantWindow: "new-window",
			wantEvent:  EventOpenFileOnStart,
		},
		{
			name:       "no window opens new",
			shell:      &fakeShell{},
			window:     "",
			wantAction: ActionNew,
			wantWindow: "new-window",
			wantEvent:  EventOpenFileOnStart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(tt.shell, nil, 0, 0)
			got, err := r.Route(context.Background(), tt.window, "/tmp/a.txt")
			if err != nil {
				t.Fatalf("Route: %v", err)
			}
			if got.Action != tt.wantAction || got.Window != tt.wantWindow {
				t.Errorf("Route() = %+v, want %s/%s", got, tt.wantAction, tt.wantWindow)
			}
			if len(tt.shell.emits) != 1 {
				t.Fatalf("expected one emit, got %+v", tt.shell.emits)
			}
			e := tt.shell.emits[0]
			if e.window != tt.wantWindow || e.event != tt.wantEvent {
				t.Errorf("emit = %+v", e)
			}
			if p, ok := e.payload.(pathPayload); !ok || p.Path != "/tmp/a.txt" {
				t.Errorf("payload = %#v", e.payload)
			}
		})
	}
}

func TestRouteAckTimeout(t *testing.T) {
	shell := &fakeShell{ack: json.RawMessage(`{"modified":false}`), ackDelay: time.Second}
	r := NewRouter(shell, nil, 20*time.Millisecond, time.Second)

	start := time.Now()
	got, err := r.Route(context.Background(), "main", "/tmp/a.txt")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if got.Action != ActionNew {
		t.Errorf("expected new window after ack timeout, got %+v", got)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("ack timeout not honoured, took %v", elapsed)
	}
}

func TestRouteReadyTimeout(t *testing.T) {
	shell := &fakeShell{ack: json.RawMessage(`{"modified":true}`), readyErr: context.DeadlineExceeded}
	r := NewRouter(shell, nil, 0, 0)

	_, err := r.Route(context.Background(), "main", "/tmp/a.txt")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected ready timeout error, got %v", err)
	}
	if len(shell.emits) != 0 {
		t.Errorf("nothing should be emitted, got %+v", shell.emits)
	}
}

func TestRouteOpenFailure(t *testing.T) {
	shell := &fakeShell{openErr: errors.New("no browser")}
	r := NewRouter(shell, nil, 0, 0)
	if _, err := r.Route(context.Background(), "", "/tmp/a.txt"); err == nil {
		t.Error("expected error")
	}
}

func TestRouteEmptyPath(t *testing.T) {
	r := NewRouter(&fakeShell{}, nil, 0, 0)
	if _, err := r.Route(context.Background(), "main", ""); err == nil {
		t.Error("expected error for empty path")
	}
}
