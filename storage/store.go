// Package storage persists the single in-progress query across sessions.
// It implements the XDG Base Directory specification for locating the state
// file, falling back to ~/.local/state when XDG_STATE_HOME is unset.
package storage

import (
	"os"
	"path/filepath"
)

const queryFileName = "current-query.graphql"

// QueryStore is a single shared slot for the most recent query text.
// Last write wins; there is no versioning and nothing ever deletes the slot.
// Storage failures are deliberately silent: Load treats them as "no persisted
// query" and Save drops the write, per the console's contract.
type QueryStore struct {
	path string
}

// NewQueryStore returns a store rooted at the XDG state directory for the
// given application name. The directory is created with private permissions.
func NewQueryStore(appName string) (*QueryStore, error) {
	dir, err := stateDir(appName)
	if err != nil {
		return nil, err
	}
	return &QueryStore{path: filepath.Join(dir, queryFileName)}, nil
}

// NewQueryStoreAt returns a store over an explicit file path.
func NewQueryStoreAt(path string) *QueryStore {
	return &QueryStore{path: path}
}

// Load returns the last persisted query. ok is false when no query was ever
// saved or the file cannot be read; callers fall back to a default query.
func (s *QueryStore) Load() (string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// Save overwrites the persisted query unconditionally. The returned error is
// advisory: callers log it and move on, they never surface it.
func (s *QueryStore) Save(text string) error {
	return os.WriteFile(s.path, []byte(text), 0o600)
}

// Path reports where the query is persisted.
func (s *QueryStore) Path() string {
	return s.path
}

func stateDir(appName string) (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(base, appName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
