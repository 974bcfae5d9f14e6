package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sert-editor/sert/pkg/clipboard"
	"github.com/sert-editor/sert/pkg/drop"
	"github.com/sert-editor/sert/pkg/logging"
	"github.com/sert-editor/sert/pkg/menu"
	"github.com/sert-editor/sert/pkg/picker"
	"github.com/sert-editor/sert/pkg/provenance"
	"github.com/sert-editor/sert/pkg/python"
)

// Python is the interpreter surface the commands need.
type Python interface {
	Exec(ctx context.Context, code string) (string, error)
	Eval(ctx context.Context, expr string) (string, error)
	RunFile(ctx context.Context, path string) (string, error)
	Info(ctx context.Context) (python.Info, error)
}

// Environment is the interpreter diagnosis made once at start-up.
type Environment struct {
	Report     provenance.Report
	Location   python.Location
	Version    string
	Executable string
	Err        error
}

// FolderOpener reveals a directory in the OS file manager.
type FolderOpener interface {
	OpenFolder(ctx context.Context, path string) error
}

// DropRouter decides where a dropped file opens.
type DropRouter interface {
	Route(ctx context.Context, window, path string) (drop.Decision, error)
}

// MenuDispatcher runs menu actions.
type MenuDispatcher interface {
	Dispatch(ctx context.Context, id string)
}

// Picker shows native file dialogs.
type Picker interface {
	OpenFile(picker.Options) (string, error)
	SaveFile(picker.Options) (string, error)
	Folder(picker.Options) (string, error)
}

// Store persists preferences and recent files.
type Store interface {
	GetPreference(key string) (json.RawMessage, error)
	Preferences() (map[string]json.RawMessage, error)
	SetPreference(key string, value json.RawMessage) error
	RecentFiles() ([]string, error)
	AddRecentFile(path string) ([]string, error)
	ClearRecentFiles() error
}

// Watcher tracks files for external changes.
type Watcher interface {
	Watch(path string) error
	Unwatch(path string) error
}

// Deps are the collaborators handlers reach. Nil members make the matching
// commands fail with an explanatory error.
type Deps struct {
	Python      Python
	Environment Environment
	Clipboard   clipboard.Clipboard
	Opener      FolderOpener
	Router      DropRouter
	Menu        MenuDispatcher
	Menus       []menu.Menu
	Picker      Picker
	Store       Store
	Watcher     Watcher

	StartupFile string
	AppDataDir  string

	// Exit ends the process. Defaults to os.Exit.
	Exit func(code int)

	Logger *logging.Logger
}

func unavailable(what string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%s is not available: %v", what, cause)
	}
	return fmt.Errorf("%s is not available", what)
}

// Register installs every command backed by d.
func Register(r *Registry, d Deps) {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Exit == nil {
		d.Exit = os.Exit
	}
	registerPython(r, d)
	registerFiles(r, d)
	registerApp(r, d)
}
