// Package store persists editor preferences and the recent-files list in a
// bbolt database under the app data directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	preferencesBucket = "preferences"
	recentBucket      = "recent"
	recentKey         = "files"
)

// ErrNotFound is returned for preferences that were never set.
var ErrNotFound = errors.New("preference not set")

// Store wraps the state database.
type Store struct {
	db          *bolt.DB
	recentLimit int
}

// Open opens (creating if needed) the database at path.
func Open(path string, recentLimit int) (*Store, error) {
	if recentLimit <= 0 {
		recentLimit = 10
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database '%s': %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{preferencesBucket, recentBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise state database: %w", err)
	}

	return &Store{db: db, recentLimit: recentLimit}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetPreference returns the raw JSON value stored under key.
func (s *Store) GetPreference(key string) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(preferencesBucket)).Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		// bbolt memory is only valid inside the transaction.
		out = append(json.RawMessage(nil), data...)
		return nil
	})
	return out, err
}

// SetPreference stores a JSON value under key. A null value deletes the key.
func (s *Store) SetPreference(key string, value json.RawMessage) error {
	if key == "" {
		return fmt.Errorf("preference key must not be empty")
	}
	if len(value) > 0 && !json.Valid(value) {
		return fmt.Errorf("preference %q: value is not valid JSON", key)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(preferencesBucket))
		if len(value) == 0 || string(value) == "null" {
			return b.Delete([]byte(key))
		}
		return b.Put([]byte(key), value)
	})
}

// Preferences returns every stored preference.
func (s *Store) Preferences() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(preferencesBucket)).ForEach(func(k, v []byte) error {
			out[string(k)] = append(json.RawMessage(nil), v...)
			return nil
		})
	})
	return out, err
}

// RecentFiles returns the recent files, most recent first.
func (s *Store) RecentFiles() ([]string, error) {
	var files []string
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		files, err = readRecent(tx)
		return err
	})
	return files, err
}

// AddRecentFile moves path to the front of the recent list, dropping
// duplicates and trimming the list to its limit.
func (s *Store) AddRecentFile(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("recent file path must not be empty")
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	var files []string
	err := s.db.Update(func(tx *bolt.Tx) error {
		current, err := readRecent(tx)
		if err != nil {
			return err
		}

		files = make([]string, 0, len(current)+1)
		files = append(files, path)
		for _, f := range current {
			if f != path {
				files = append(files, f)
			}
		}
		if len(files) > s.recentLimit {
			files = files[:s.recentLimit]
		}

		data, err := json.Marshal(files)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(recentBucket)).Put([]byte(recentKey), data)
	})
	return files, err
}

// ClearRecentFiles empties the recent list.
func (s *Store) ClearRecentFiles() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(recentBucket)).Delete([]byte(recentKey))
	})
}

func readRecent(tx *bolt.Tx) ([]string, error) {
	data := tx.Bucket([]byte(recentBucket)).Get([]byte(recentKey))
	if data == nil {
		return []string{}, nil
	}
	var files []string
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, fmt.Errorf("corrupt recent files list: %w", err)
	}
	return files, nil
}
