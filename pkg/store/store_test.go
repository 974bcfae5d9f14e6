package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "state.db"), limit)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPreferences(t *testing.T) {
	s := openTemp(t, 10)

	_, err := s.GetPreference("theme")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.SetPreference("theme", json.RawMessage(`"dark"`)))
	require.NoError(t, s.SetPreference("font", json.RawMessage(`{"family":"Menlo","size":14}`)))

	got, err := s.GetPreference("theme")
	require.NoError(t, err)
	assert.JSONEq(t, `"dark"`, string(got))

	all, err := s.Preferences()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.JSONEq(t, `{"family":"Menlo","size":14}`, string(all["font"]))

	require.NoError(t, s.SetPreference("theme", json.RawMessage(`null`)))
	_, err = s.GetPreference("theme")
	assert.True(t, errors.Is(err, ErrNotFound), "null deletes the key")
}

func TestPreferenceValidation(t *testing.T) {
	s := openTemp(t, 10)

	assert.Error(t, s.SetPreference("", json.RawMessage(`1`)))
	assert.Error(t, s.SetPreference("broken", json.RawMessage(`{not json`)))
}

func TestRecentFilesOrderingAndLimit(t *testing.T) {
	s := openTemp(t, 3)
	dir := t.TempDir()
	a, b, c, d := filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"), filepath.Join(dir, "c.txt"), filepath.Join(dir, "d.txt")

	files, err := s.RecentFiles()
	require.NoError(t, err)
	assert.Empty(t, files)

	for _, p := range []string{a, b, c} {
		_, err := s.AddRecentFile(p)
		require.NoError(t, err)
	}
	files, err = s.AddRecentFile(a)
	require.NoError(t, err)
	assert.Equal(t, []string{a, c, b}, files, "re-adding moves to front without duplicates")

	files, err = s.AddRecentFile(d)
	require.NoError(t, err)
	assert.Equal(t, []string{d, a, c}, files, "list is capped")

	stored, err := s.RecentFiles()
	require.NoError(t, err)
	assert.Equal(t, files, stored)

	require.NoError(t, s.ClearRecentFiles())
	stored, err = s.RecentFiles()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestStatePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(path, 10)
	require.NoError(t, err)
	require.NoError(t, s.SetPreference("language", json.RawMessage(`"ja"`)))
	require.NoError(t, s.Close())

	s, err = Open(path, 10)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetPreference("language")
	require.NoError(t, err)
	assert.JSONEq(t, `"ja"`, string(got))
}
