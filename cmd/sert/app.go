package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sert-editor/sert/pkg/bridge"
	"github.com/sert-editor/sert/pkg/clipboard"
	"github.com/sert-editor/sert/pkg/commands"
	"github.com/sert-editor/sert/pkg/config"
	"github.com/sert-editor/sert/pkg/drop"
	"github.com/sert-editor/sert/pkg/logging"
	"github.com/sert-editor/sert/pkg/menu"
	"github.com/sert-editor/sert/pkg/osopen"
	"github.com/sert-editor/sert/pkg/picker"
	"github.com/sert-editor/sert/pkg/shell"
	"github.com/sert-editor/sert/pkg/store"
	"github.com/sert-editor/sert/pkg/watch"
)

const appID = "io.github.sert-editor.sert"

func configUsed() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.GetConfigPath()
}

// startupFile returns the absolute path of the file named on the command line,
// or "" if none was given or it does not exist.
func startupFile(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return ""
	}
	path, err := filepath.Abs(args[0])
	if err != nil {
		path = args[0]
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		logger.WarnCat(logging.CatApp, "Ignoring start-up file %s: not a readable file", args[0])
		return ""
	}
	return path
}

// sendStartupFile hands path to the first editor window that signals ready.
func sendStartupFile(hub *bridge.Hub, path string) {
	if path == "" {
		return
	}
	var once sync.Once
	hub.OnReady(func(label string) {
		once.Do(func() {
			if err := hub.Emit(label, drop.EventOpenFileOnStart, map[string]string{"path": path}); err != nil {
				logger.WarnCat(logging.CatApp, "Could not send start-up file to %s: %v", label, err)
			}
		})
	})
}

func newClipboard(backend string, fyneApp fyne.App) clipboard.Clipboard {
	switch backend {
	case config.ClipboardSystem:
		return clipboard.NewSystem()
	case config.ClipboardMemory:
		return clipboard.NewMemory()
	default:
		return clipboard.NewToolkit(fyneApp.Clipboard())
	}
}

func runApp(cmd *cobra.Command, args []string) error {
	logger.InfoCat(logging.CatApp, "Sert %s starting", version)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startFile := startupFile(args)

	py, env := startPython(ctx, cfg, logger)
	if py != nil {
		defer py.Close()
	}

	var prefs commands.Store
	st, err := store.Open(cfg.Store.Path, cfg.Store.RecentLimit)
	if err != nil {
		logger.ErrorCat(logging.CatStore, "Preferences disabled: %v", err)
	} else {
		defer st.Close()
		prefs = st
	}

	hub := bridge.NewHub(nil, logger)

	var files commands.Watcher
	watcher, err := watch.New(logger, func(c watch.Change) {
		hub.Broadcast("file-changed", c)
	})
	if err != nil {
		logger.ErrorCat(logging.CatIO, "File watching disabled: %v", err)
	} else {
		files = watcher
	}

	router := drop.NewRouter(hub, logger, cfg.Drop.AckTimeout, cfg.Drop.ReadyTimeout)
	dispatcher := menu.NewDispatcher(hub, logger, cfg.Menu.RetryDelay, cfg.Menu.EvalTimeout)
	menus := menu.Default()

	fyneApp := app.NewWithID(appID)

	var interp commands.Python
	if py != nil {
		interp = py
	}

	registry := commands.NewRegistry(logger)
	commands.Register(registry, commands.Deps{
		Python:      interp,
		Environment: env,
		Clipboard:   newClipboard(cfg.Clipboard.Backend, fyneApp),
		Opener:      osopen.New(),
		Router:      router,
		Menu:        dispatcher,
		Menus:       menus,
		Picker:      picker.New(),
		Store:       prefs,
		Watcher:     files,
		StartupFile: startFile,
		AppDataDir:  config.GetAppDataDir(),
		Logger:      logger,
	})
	hub.SetInvoker(registry)
	logger.DebugCat(logging.CatCommand, "Registered commands: %s", strings.Join(registry.Names(), ", "))

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		logger.FatalCat(logging.CatApp, "Cannot serve the editor front end: %v", err)
		return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}
	baseURL := "http://" + ln.Addr().String()
	hub.SetLauncher(baseURL, osopen.OpenURL)

	sendStartupFile(hub, startFile)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bridge.Serve(gctx, ln, bridge.NewHandler(hub, cfg.Frontend.Dir), logger)
	})
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}
	if cfg.OpenBrowser && !noBrowser {
		g.Go(func() error {
			if _, err := hub.OpenWindow(gctx); err != nil {
				logger.WarnCat(logging.CatApp, "Could not open editor window, browse to %s: %v", baseURL, err)
			}
			return nil
		})
	}
	go func() {
		<-gctx.Done()
		fyne.Do(fyneApp.Quit)
	}()

	shell.New(gctx, fyneApp, shell.Options{
		Version:    version,
		URL:        baseURL,
		Menus:      menus,
		Dispatcher: dispatcher,
		Router:     router,
		Windows:    hub,
		Logger:     logger,
	}).Run()

	logger.InfoCat(logging.CatApp, "Shutting down")
	cancel()
	return g.Wait()
}
