// Package provenance decides whether the active Python interpreter ships inside
// the application bundle or comes from the host system.
//
// The answer is advisory. It is computed once at start-up and shown by the
// diagnostic commands; nothing else may branch on it.
package provenance

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Provenance is the interpreter classification.
type Provenance int

const (
	Unknown  Provenance = iota // Interpreter could not be started or queried
	Embedded                   // Bundled with the application
	System                     // Resolved from the host environment
)

func (p Provenance) String() string {
	switch p {
	case Embedded:
		return "embedded"
	case System:
		return "system"
	default:
		return "unknown"
	}
}

// MarshalText renders the classification as its lowercase name.
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses the lowercase name.
func (p *Provenance) UnmarshalText(b []byte) error {
	switch string(b) {
	case "embedded":
		*p = Embedded
	case "system":
		*p = System
	case "unknown", "":
		*p = Unknown
	default:
		return fmt.Errorf("unknown provenance %q", string(b))
	}
	return nil
}

// DistributionMarker appears in paths of the standalone CPython builds we bundle.
const DistributionMarker = "python-build-standalone"

// FreezerModules are imported by interpreter freezing/embedding tools.
var FreezerModules = []string{"oxidized_importer", "pyimod02_importers"}

// Signal letters reported in Report.Matched
const (
	SignalBuildFlag    = "A"
	SignalMarkerPath   = "B"
	SignalAppDir       = "C"
	SignalFreezer      = "D"
	SignalFrozen       = "E"
	SignalSearchMarker = "F"
)

// Signals are the facts the classifier looks at.
type Signals struct {
	BuildEmbedded     bool
	BuildEmbeddedPath string
	Executable        string
	AppDir            string
	Modules           []string
	Frozen            string
	SearchPath        []string
}

// Report is the outcome of a classification.
type Report struct {
	Provenance Provenance `json:"provenance"`
	Matched    []string   `json:"matched,omitempty"`
}

// Classify ORs the embedding signals together. Every signal is evaluated so the
// report can list all that fired.
func Classify(s Signals) Report {
	var matched []string

	if s.BuildEmbedded {
		matched = append(matched, SignalBuildFlag)
	}
	if s.Executable != "" && (strings.Contains(s.Executable, DistributionMarker) ||
		(s.BuildEmbeddedPath != "" && strings.HasPrefix(s.Executable, s.BuildEmbeddedPath))) {
		matched = append(matched, SignalMarkerPath)
	}
	if s.Executable != "" && s.AppDir != "" && withinDir(s.Executable, s.AppDir) {
		matched = append(matched, SignalAppDir)
	}
	if hasAny(s.Modules, FreezerModules) {
		matched = append(matched, SignalFreezer)
	}
	if s.Frozen != "" {
		matched = append(matched, SignalFrozen)
	}
	for _, entry := range s.SearchPath {
		if strings.Contains(entry, DistributionMarker) {
			matched = append(matched, SignalSearchMarker)
			break
		}
	}

	if len(matched) > 0 {
		return Report{Provenance: Embedded, Matched: matched}
	}
	return Report{Provenance: System}
}

// withinDir reports whether path lies in dir, respecting path boundaries so
// /opt/app2/python is not "inside" /opt/app.
func withinDir(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

func hasAny(names, wanted []string) bool {
	for _, name := range names {
		for _, w := range wanted {
			if name == w {
				return true
			}
		}
	}
	return false
}

// Facts is what a running interpreter reports about itself.
type Facts struct {
	Executable string
	Modules    []string
	Frozen     string
	SearchPath []string
}

// Querier asks the interpreter for its facts.
type Querier interface {
	Facts(ctx context.Context) (Facts, error)
}

// Build carries the build-time constants.
type Build struct {
	Embedded     bool
	EmbeddedPath string
	AppDir       string
}

// Detect queries the interpreter and classifies it. A failed query yields
// Unknown together with the error.
func Detect(ctx context.Context, q Querier, b Build) (Report, error) {
	if q == nil {
		return Report{Provenance: Unknown}, fmt.Errorf("no interpreter available")
	}
	facts, err := q.Facts(ctx)
	if err != nil {
		return Report{Provenance: Unknown}, err
	}
	return Classify(Signals{
		BuildEmbedded:     b.Embedded,
		BuildEmbeddedPath: b.EmbeddedPath,
		Executable:        facts.Executable,
		AppDir:            b.AppDir,
		Modules:           facts.Modules,
		Frozen:            facts.Frozen,
		SearchPath:        facts.SearchPath,
	}), nil
}
