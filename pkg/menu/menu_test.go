package menu

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func ids(menus []Menu) map[string]bool {
	out := make(map[string]bool)
	for _, m := range menus {
		for _, it := range m.Items {
			if !it.IsSeparator() {
				out[it.ID] = true
			}
		}
	}
	return out
}

func labels(menus []Menu) []string {
	var out []string
	for _, m := range menus {
		out = append(out, m.Label)
	}
	return out
}

func TestBuildDarwin(t *testing.T) {
	menus := Build("darwin")
	got := strings.Join(labels(menus), ",")
	if got != "Sert,File,Edit,View,Settings" {
		t.Errorf("top-level menus = %s", got)
	}
	all := ids(menus)
	if !all[IDAbout] || !all[IDQuit] {
		t.Error("application menu should carry About and Quit")
	}
	if all[IDExit] {
		t.Error("File → Exit should not exist on macOS")
	}
}

func TestBuildOthers(t *testing.T) {
	for _, goos := range []string{"linux", "windows"} {
		t.Run(goos, func(t *testing.T) {
			menus := Build(goos)
			got := strings.Join(labels(menus), ",")
			if got != "File,Edit,View,Settings" {
				t.Errorf("top-level menus = %s", got)
			}
			file := menus[0].Items
			if last := file[len(file)-1]; last.ID != IDExit || !last.Quit {
				t.Errorf("last File item = %+v, want Exit", last)
			}
			if ids(menus)[IDAbout] {
				t.Error("About belongs to the macOS app menu only")
			}
		})
	}
}

func TestEveryItemHasAction(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		seen := make(map[string]bool)
		for _, m := range Build(goos) {
			for _, it := range m.Items {
				if it.IsSeparator() {
					continue
				}
				if seen[it.ID] {
					t.Errorf("%s: duplicate id %s", goos, it.ID)
				}
				seen[it.ID] = true
				if _, ok := Script(it.ID); !ok && it.ID != IDAbout {
					t.Errorf("%s: item %s has no script", goos, it.ID)
				}
			}
		}
	}
}

func TestDefaultIsBuiltOnce(t *testing.T) {
	a := Default()
	b := Default()
	if len(a) == 0 || &a[0] != &b[0] {
		t.Error("Default should return the same tree on every call")
	}
}

func TestWrap(t *testing.T) {
	got := Wrap(IDUndo, "undo()")
	if !strings.HasPrefix(got, "try { undo(); }") || !strings.Contains(got, "catch (e) { console.error(") {
		t.Errorf("Wrap() = %q", got)
	}
}

type fakeEvaluator struct {
	mu      sync.Mutex
	active  string
	fails   int
	scripts []string
}

func (f *fakeEvaluator) Active() string { return f.active }

func (f *fakeEvaluator) Eval(_ context.Context, window, script string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, window+":"+script)
	if f.fails > 0 {
		f.fails--
		return errors.New("webview not ready")
	}
	return nil
}

func TestDispatch(t *testing.T) {
	ev := &fakeEvaluator{active: "main"}
	d := NewDispatcher(ev, nil, time.Millisecond, time.Second)
	d.Dispatch(context.Background(), IDSave)

	if len(ev.scripts) != 1 {
		t.Fatalf("expected one evaluation, got %v", ev.scripts)
	}
	if want := "main:" + Wrap(IDSave, "saveFile()"); ev.scripts[0] != want {
		t.Errorf("script = %q, want %q", ev.scripts[0], want)
	}
}

func TestDispatchUnknownIgnored(t *testing.T) {
	ev := &fakeEvaluator{active: "main"}
	d := NewDispatcher(ev, nil, time.Millisecond, time.Second)
	d.Dispatch(context.Background(), "bogus")
	if len(ev.scripts) != 0 {
		t.Errorf("unknown id should not evaluate, got %v", ev.scripts)
	}
}

func TestDispatchRetriesOnce(t *testing.T) {
	tests := []struct {
		name  string
		fails int
		want  int
	}{
		{"first attempt fails", 1, 2},
		{"both attempts fail", 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &fakeEvaluator{active: "main", fails: tt.fails}
			d := NewDispatcher(ev, nil, time.Millisecond, time.Second)
			d.Dispatch(context.Background(), IDUndo)
			if len(ev.scripts) != tt.want {
				t.Errorf("attempts = %d, want %d", len(ev.scripts), tt.want)
			}
		})
	}
}

func TestDispatchNoWindow(t *testing.T) {
	ev := &fakeEvaluator{}
	d := NewDispatcher(ev, nil, time.Millisecond, time.Second)
	d.Dispatch(context.Background(), IDUndo)
	if len(ev.scripts) != 0 {
		t.Errorf("nothing to evaluate without a window, got %v", ev.scripts)
	}
}

func TestDispatchCancelledRetry(t *testing.T) {
	ev := &fakeEvaluator{active: "main", fails: 1}
	d := NewDispatcher(ev, nil, time.Hour, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx, IDUndo)
	if len(ev.scripts) != 1 {
		t.Errorf("cancelled dispatch should not retry, got %d attempts", len(ev.scripts))
	}
}

// stallingEvaluator never acknowledges; it returns only when the attempt's
// context ends.
type stallingEvaluator struct {
	mu       sync.Mutex
	attempts int
}

func (s *stallingEvaluator) Active() string { return "main" }

func (s *stallingEvaluator) Eval(ctx context.Context, _, _ string) error {
	s.mu.Lock()
	s.attempts++
	s.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatchBoundsEachAttempt(t *testing.T) {
	ev := &stallingEvaluator{}
	d := NewDispatcher(ev, nil, time.Millisecond, 20*time.Millisecond)

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), IDUndo)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Dispatch blocked on a window that never answers")
	}
	if ev.attempts != 2 {
		t.Errorf("attempts = %d, want 2 (first try plus one retry)", ev.attempts)
	}
}

func TestNativeHandler(t *testing.T) {
	ev := &fakeEvaluator{active: "main"}
	d := NewDispatcher(ev, nil, time.Millisecond, time.Second)
	called := false
	d.Handle(IDAbout, func() { called = true })
	d.Dispatch(context.Background(), IDAbout)
	if !called {
		t.Error("native handler not called")
	}
	if len(ev.scripts) != 0 {
		t.Errorf("native item should not evaluate script, got %v", ev.scripts)
	}
}

func TestMainMenuRendering(t *testing.T) {
	var clicked []string
	mm := MainMenu(Build("linux"), func(id string) { clicked = append(clicked, id) })
	if len(mm.Items) != 4 {
		t.Fatalf("expected 4 menus, got %d", len(mm.Items))
	}
	edit := mm.Items[1]
	if edit.Label != "Edit" {
		t.Fatalf("second menu = %q", edit.Label)
	}
	edit.Items[0].Action()
	if len(clicked) != 1 || clicked[0] != IDUndo {
		t.Errorf("clicked = %v", clicked)
	}
	if !edit.Items[2].IsSeparator {
		t.Error("expected separator after Redo")
	}
	file := mm.Items[0]
	if last := file.Items[len(file.Items)-1]; !last.IsQuit {
		t.Error("Exit should be marked as the quit item")
	}
}

func TestTrayMenuRendering(t *testing.T) {
	tray := TrayMenu(Build("darwin"), func(string) {})
	if len(tray.Items) != 5 {
		t.Fatalf("expected 5 submenus, got %d", len(tray.Items))
	}
	for _, it := range tray.Items {
		if it.ChildMenu == nil {
			t.Errorf("%s has no submenu", it.Label)
		}
	}
}
