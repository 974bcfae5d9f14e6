package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sert-editor/sert/pkg/commands"
	"github.com/sert-editor/sert/pkg/config"
	"github.com/sert-editor/sert/pkg/logging"
	"github.com/sert-editor/sert/pkg/provenance"
	"github.com/sert-editor/sert/pkg/python"
)

const pythonStartTimeout = 15 * time.Second

// appDir is the directory of the running executable, symlinks resolved.
func appDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// startPython locates and starts the interpreter and classifies its
// provenance. A nil interpreter comes back when none could be started; the
// environment then carries the reason.
func startPython(ctx context.Context, c *config.Config, log *logging.Logger) (*python.Interpreter, commands.Environment) {
	build := provenance.Build{
		Embedded:     buildEmbedded(),
		EmbeddedPath: embeddedPath,
		AppDir:       appDir(),
	}
	env := commands.Environment{Report: provenance.Report{Provenance: provenance.Unknown}}

	loc, err := python.Locate(python.LocateOptions{
		Override:     c.Python.Path,
		UseSystem:    c.Python.UseSystem,
		AppDir:       build.AppDir,
		EmbeddedPath: embeddedPath,
	})
	if err != nil {
		env.Err = err
		log.ErrorCat(logging.CatPython, "Python initialisation failed: %v", err)
		return nil, env
	}
	env.Location = loc
	log.DebugCat(logging.CatPython, "Using %s via %s", loc.Path, loc.Strategy)

	startCtx, cancel := context.WithTimeout(ctx, pythonStartTimeout)
	defer cancel()

	py := python.NewInterpreter(loc.Path, log)
	if err := py.Start(startCtx); err != nil {
		env.Err = err
		log.ErrorCat(logging.CatPython, "Python worker failed to start: %v", err)
		_ = py.Close()
		return nil, env
	}

	report, err := provenance.Detect(startCtx, py, build)
	env.Report = report
	if err != nil {
		env.Err = err
		log.WarnCat(logging.CatPython, "Python provenance unknown: %v", err)
	}

	if info, err := py.Info(startCtx); err == nil {
		env.Version = info.Version
		env.Executable = info.Executable
	}
	log.InfoCat(logging.CatPython, "Python %s (%s, signals %v)", env.Version, report.Provenance, report.Matched)
	return py, env
}
