// Package shell is the native GUI: a small launcher window carrying the main
// menu and the OS drop target, plus the system tray menu.
package shell

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/sert-editor/sert/pkg/drop"
	"github.com/sert-editor/sert/pkg/logging"
	"github.com/sert-editor/sert/pkg/menu"
)

// Windows is the editor window registry the shell reads.
type Windows interface {
	Active() string
	OpenWindow(ctx context.Context) (string, error)
}

// Router routes dropped files.
type Router interface {
	Route(ctx context.Context, window, path string) (drop.Decision, error)
}

// Options wires the shell to the rest of the application.
type Options struct {
	Title      string
	Version    string
	URL        string
	Menus      []menu.Menu
	Dispatcher *menu.Dispatcher
	Router     Router
	Windows    Windows
	Logger     *logging.Logger
}

// Shell owns the fyne application.
type Shell struct {
	app    fyne.App
	opts   Options
	ctx    context.Context
	window fyne.Window
	status *widget.Label
}

// New prepares a shell on app. Nothing is shown until Run.
func New(ctx context.Context, app fyne.App, opts Options) *Shell {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Title == "" {
		opts.Title = menu.AppName
	}
	return &Shell{app: app, opts: opts, ctx: ctx}
}

// Build creates the launcher window, menus and drop target.
func (s *Shell) Build() fyne.Window {
	w := s.app.NewWindow(s.opts.Title)
	s.window = w

	action := func(id string) {
		go s.opts.Dispatcher.Dispatch(s.ctx, id)
	}

	if s.opts.Dispatcher != nil {
		s.opts.Dispatcher.Handle(menu.IDAbout, s.showAbout)
		w.SetMainMenu(menu.MainMenu(s.opts.Menus, action))
		if desk, ok := s.app.(desktop.App); ok {
			desk.SetSystemTrayMenu(menu.TrayMenu(s.opts.Menus, action))
		}
	}

	s.status = widget.NewLabel("Drop a file here to open it")
	open := widget.NewButton("New Editor Window", func() {
		go s.openWindow()
	})
	w.SetContent(container.NewVBox(
		widget.NewLabelWithStyle(s.opts.Title, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabel(s.opts.URL),
		open,
		s.status,
	))
	w.Resize(fyne.NewSize(360, 180))

	w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		for _, u := range uris {
			path := u.Path()
			go s.handleDrop(path)
		}
	})
	return w
}

// Run builds the shell and blocks in the fyne event loop.
func (s *Shell) Run() {
	if s.window == nil {
		s.Build()
	}
	s.window.ShowAndRun()
}

func (s *Shell) setStatus(text string) {
	fyne.Do(func() {
		s.status.SetText(text)
	})
}

func (s *Shell) openWindow() {
	if s.opts.Windows == nil {
		return
	}
	label, err := s.opts.Windows.OpenWindow(s.ctx)
	if err != nil {
		s.opts.Logger.ErrorCat(logging.CatApp, "Cannot open editor window: %v", err)
		s.setStatus(fmt.Sprintf("Could not open window: %v", err))
		return
	}
	s.opts.Logger.DebugCat(logging.CatApp, "Opened editor window %s", label)
}

// handleDrop routes a file dropped on the launcher to the active editor
// window, or to a new one when no editor is connected.
func (s *Shell) handleDrop(path string) {
	if s.opts.Router == nil {
		return
	}
	active := ""
	if s.opts.Windows != nil {
		active = s.opts.Windows.Active()
	}
	decision, err := s.opts.Router.Route(s.ctx, active, path)
	if err != nil {
		s.setStatus(fmt.Sprintf("Could not open %s", path))
		return
	}
	s.opts.Logger.InfoCat(logging.CatDrop, "Dropped %s routed to %s window %s", path, decision.Action, decision.Window)
	s.setStatus(fmt.Sprintf("Opened %s", path))
}

func (s *Shell) showAbout() {
	fyne.Do(func() {
		dialog.ShowInformation("About "+menu.AppName,
			fmt.Sprintf("%s %s\nA text editor with Python extensions.", menu.AppName, s.opts.Version),
			s.window)
	})
}
