package shell

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"github.com/sert-editor/sert/pkg/drop"
	"github.com/sert-editor/sert/pkg/menu"
)

type fakeWindows struct {
	active  string
	openErr error
	opened  int
}

func (f *fakeWindows) Active() string { return f.active }

func (f *fakeWindows) OpenWindow(context.Context) (string, error) {
	f.opened++
	return "new", f.openErr
}

type fakeRouter struct {
	mu     sync.Mutex
	window string
	path   string
	err    error
}

func (f *fakeRouter) Route(_ context.Context, window, path string) (drop.Decision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.window, f.path = window, path
	return drop.Decision{Action: drop.ActionCurrent, Window: window}, f.err
}

type nopEvaluator struct{}

func (nopEvaluator) Eval(context.Context, string, string) error { return nil }
func (nopEvaluator) Active() string                             { return "" }

func TestBuildInstallsMainMenu(t *testing.T) {
	app := test.NewTempApp(t)
	s := New(context.Background(), app, Options{
		Menus:      menu.Build("linux"),
		Dispatcher: menu.NewDispatcher(nopEvaluator{}, nil, time.Millisecond, time.Second),
	})
	w := s.Build()
	defer w.Close()

	mm := w.MainMenu()
	if mm == nil {
		t.Fatal("main menu not set")
	}
	if len(mm.Items) != 4 || mm.Items[0].Label != "File" {
		t.Errorf("unexpected main menu: %d items", len(mm.Items))
	}
	if w.Title() != menu.AppName {
		t.Errorf("title = %q", w.Title())
	}
}

func TestHandleDropUsesActiveWindow(t *testing.T) {
	app := test.NewTempApp(t)
	router := &fakeRouter{}
	s := New(context.Background(), app, Options{
		Router:  router,
		Windows: &fakeWindows{active: "main"},
	})
	w := s.Build()
	defer w.Close()

	s.handleDrop("/tmp/dropped.txt")
	if router.window != "main" || router.path != "/tmp/dropped.txt" {
		t.Errorf("router saw %q %q", router.window, router.path)
	}
}

func TestHandleDropWithoutEditor(t *testing.T) {
	app := test.NewTempApp(t)
	router := &fakeRouter{err: errors.New("window never became ready")}
	s := New(context.Background(), app, Options{Router: router, Windows: &fakeWindows{}})
	w := s.Build()
	defer w.Close()

	s.handleDrop("/tmp/dropped.txt")
	if router.window != "" {
		t.Errorf("expected no target window, got %q", router.window)
	}
}

func TestOpenWindow(t *testing.T) {
	app := test.NewTempApp(t)
	windows := &fakeWindows{}
	s := New(context.Background(), app, Options{Windows: windows})
	w := s.Build()
	defer w.Close()

	s.openWindow()
	windows.openErr = errors.New("no browser")
	s.openWindow()
	if windows.opened != 2 {
		t.Errorf("OpenWindow called %d times", windows.opened)
	}
}
