package python

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
)

// Discovery strategy names, reported alongside the interpreter path.
const (
	StrategyOverride      = "override"
	StrategyBundled       = "bundled"
	StrategyBuildEmbedded = "build-embedded"
	StrategyPath          = "path"
	StrategyHomebrew      = "homebrew"
	StrategyKnownLocation = "known-location"
)

// ErrNotFound is returned when every discovery strategy came up empty.
var ErrNotFound = errors.New("no python interpreter found")

// LocateOptions drives interpreter discovery.
type LocateOptions struct {
	Override     string // Explicit path (SERT_PYTHON), must exist
	UseSystem    bool   // Skip the bundled and build-embedded interpreters
	AppDir       string // Directory of the running executable
	EmbeddedPath string // Interpreter root recorded at build time
	GOOS         string // Defaults to runtime.GOOS

	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// Location is a discovered interpreter.
type Location struct {
	Path     string `json:"path"`
	Strategy string `json:"strategy"`
}

// Locate walks the discovery strategies in order and returns the first hit.
func Locate(opts LocateOptions) (Location, error) {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if opts.Override != "" {
		if isFile(opts.Override) {
			return Location{Path: opts.Override, Strategy: StrategyOverride}, nil
		}
		return Location{}, fmt.Errorf("python override %q does not exist", opts.Override)
	}

	if !opts.UseSystem {
		if opts.AppDir != "" {
			for _, rel := range bundledCandidates(goos) {
				if p := filepath.Join(opts.AppDir, rel); isFile(p) {
					return Location{Path: p, Strategy: StrategyBundled}, nil
				}
			}
		}
		if opts.EmbeddedPath != "" {
			if isFile(opts.EmbeddedPath) {
				return Location{Path: opts.EmbeddedPath, Strategy: StrategyBuildEmbedded}, nil
			}
			for _, rel := range executableNames(goos) {
				if p := filepath.Join(opts.EmbeddedPath, rel); isFile(p) {
					return Location{Path: p, Strategy: StrategyBuildEmbedded}, nil
				}
			}
		}
	}

	for _, name := range []string{"python3", "python"} {
		if p, err := lookPath(name); err == nil && p != "" {
			return Location{Path: p, Strategy: StrategyPath}, nil
		}
	}

	if goos == "darwin" {
		for _, p := range []string{"/opt/homebrew/bin/python3", "/usr/local/bin/python3"} {
			if isFile(p) {
				return Location{Path: p, Strategy: StrategyHomebrew}, nil
			}
		}
	}

	for _, p := range knownLocations(goos) {
		if isFile(p) {
			return Location{Path: p, Strategy: StrategyKnownLocation}, nil
		}
	}

	return Location{}, ErrNotFound
}

func bundledCandidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			filepath.Join("python", "python.exe"),
			filepath.Join("python", "install", "python.exe"),
		}
	case "darwin":
		return []string{
			filepath.Join("python", "bin", "python3"),
			filepath.Join("python", "install", "bin", "python3"),
			filepath.Join("..", "Resources", "python", "bin", "python3"),
			filepath.Join("..", "Frameworks", "Python.framework", "Versions", "Current", "bin", "python3"),
		}
	default:
		return []string{
			filepath.Join("python", "bin", "python3"),
			filepath.Join("python", "install", "bin", "python3"),
			filepath.Join("..", "lib", "sert", "python", "bin", "python3"),
		}
	}
}

func executableNames(goos string) []string {
	if goos == "windows" {
		return []string{"python.exe", filepath.Join("install", "python.exe")}
	}
	return []string{
		filepath.Join("bin", "python3"),
		filepath.Join("install", "bin", "python3"),
	}
}

func knownLocations(goos string) []string {
	switch goos {
	case "windows":
		var out []string
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			matches, _ := filepath.Glob(filepath.Join(local, "Programs", "Python", "Python3*", "python.exe"))
			sort.Sort(sort.Reverse(sort.StringSlice(matches)))
			out = append(out, matches...)
		}
		return append(out, `C:\Python312\python.exe`, `C:\Python311\python.exe`)
	case "darwin":
		return []string{
			"/Library/Frameworks/Python.framework/Versions/Current/bin/python3",
			"/usr/bin/python3",
		}
	default:
		return []string{"/usr/bin/python3", "/usr/local/bin/python3", "/bin/python3"}
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
