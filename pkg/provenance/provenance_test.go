package provenance

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func TestBuildFlagWinsRegardlessOfOtherSignals(t *testing.T) {
	cases := []Signals{
		{BuildEmbedded: true},
		{BuildEmbedded: true, Executable: "/usr/bin/python3", AppDir: "/Applications/Sert.app/Contents/MacOS"},
		{BuildEmbedded: true, Executable: "/usr/bin/python3", SearchPath: []string{"/usr/lib/python3.12"}},
	}
	for _, s := range cases {
		r := Classify(s)
		if r.Provenance != Embedded {
			t.Errorf("Expected Embedded for %+v, got %s", s, r.Provenance)
		}
		if len(r.Matched) == 0 || r.Matched[0] != SignalBuildFlag {
			t.Errorf("Expected signal A first, got %v", r.Matched)
		}
	}
}

func TestNoSignalsIsSystem(t *testing.T) {
	r := Classify(Signals{
		Executable: "/usr/bin/python3",
		AppDir:     "/opt/sert",
		Modules:    []string{"sys", "builtins", "os"},
		SearchPath: []string{"/usr/lib/python312.zip", "/usr/lib/python3.12"},
	})
	if r.Provenance != System {
		t.Errorf("Expected System, got %s (matched %v)", r.Provenance, r.Matched)
	}
	if len(r.Matched) != 0 {
		t.Errorf("Expected no matched signals, got %v", r.Matched)
	}
}

func TestEachSignalAloneIsEmbedded(t *testing.T) {
	appDir := filepath.Join(string(filepath.Separator), "opt", "sert")
	tests := []struct {
		name   string
		s      Signals
		signal string
	}{
		{"marker in executable", Signals{Executable: "/tmp/python-build-standalone/bin/python3"}, SignalMarkerPath},
		{"recorded embedded path", Signals{Executable: "/bundle/py/bin/python3", BuildEmbeddedPath: "/bundle/py"}, SignalMarkerPath},
		{"inside app dir", Signals{Executable: filepath.Join(appDir, "python", "bin", "python3"), AppDir: appDir}, SignalAppDir},
		{"freezer module", Signals{Executable: "/usr/bin/python3", Modules: []string{"sys", "oxidized_importer"}}, SignalFreezer},
		{"frozen attribute", Signals{Executable: "/usr/bin/python3", Frozen: "True"}, SignalFrozen},
		{"marker on sys.path", Signals{Executable: "/usr/bin/python3", SearchPath: []string{"/x/python-build-standalone/lib"}}, SignalSearchMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Classify(tt.s)
			if r.Provenance != Embedded {
				t.Fatalf("Expected Embedded, got %s", r.Provenance)
			}
			found := false
			for _, m := range r.Matched {
				if m == tt.signal {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected signal %s in %v", tt.signal, r.Matched)
			}
		})
	}
}

func TestAppDirRespectsPathBoundary(t *testing.T) {
	r := Classify(Signals{
		Executable: filepath.Join(string(filepath.Separator), "opt", "sert2", "bin", "python3"),
		AppDir:     filepath.Join(string(filepath.Separator), "opt", "sert"),
	})
	if r.Provenance != System {
		t.Errorf("Expected sibling directory not to count as app dir, got %s", r.Provenance)
	}
}

type fakeQuerier struct {
	facts Facts
	err   error
}

func (f fakeQuerier) Facts(context.Context) (Facts, error) { return f.facts, f.err }

func TestDetect(t *testing.T) {
	r, err := Detect(context.Background(), fakeQuerier{facts: Facts{Executable: "/usr/bin/python3"}}, Build{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if r.Provenance != System {
		t.Errorf("Expected System, got %s", r.Provenance)
	}

	r, err = Detect(context.Background(), fakeQuerier{facts: Facts{Executable: "/usr/bin/python3"}}, Build{Embedded: true})
	if err != nil || r.Provenance != Embedded {
		t.Errorf("Expected Embedded with build flag, got %s (%v)", r.Provenance, err)
	}
}

func TestDetectFailureIsUnknown(t *testing.T) {
	boom := errors.New("python not found")
	r, err := Detect(context.Background(), fakeQuerier{err: boom}, Build{Embedded: true})
	if !errors.Is(err, boom) {
		t.Errorf("Expected the start-up error to surface, got %v", err)
	}
	if r.Provenance != Unknown {
		t.Errorf("Expected Unknown, got %s", r.Provenance)
	}

	r, err = Detect(context.Background(), nil, Build{})
	if err == nil || r.Provenance != Unknown {
		t.Errorf("Expected Unknown and an error without interpreter, got %s / %v", r.Provenance, err)
	}
}

func TestProvenanceJSON(t *testing.T) {
	b, err := json.Marshal(Report{Provenance: Embedded, Matched: []string{"A"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"provenance":"embedded","matched":["A"]}` {
		t.Errorf("Unexpected JSON: %s", b)
	}

	var p Provenance
	if err := p.UnmarshalText([]byte("system")); err != nil || p != System {
		t.Errorf("Expected system, got %v (%v)", p, err)
	}
	if err := p.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("Expected error for unknown name")
	}
}
