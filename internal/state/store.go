package state

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danieljhkim/macsetup/internal/fsops"
)

// StateStore persists BackupState.
type StateStore interface {
	// Load returns the saved state, or an empty state when none exists.
	Load() (*BackupState, error)

	// Save writes the state atomically.
	Save(state *BackupState) error
}

// FileStateStore implements StateStore with a JSON file.
type FileStateStore struct {
	fs   fsops.FS
	path string
}

// NewFileStateStore creates a FileStateStore writing to path.
func NewFileStateStore(fs fsops.FS, path string) *FileStateStore {
	return &FileStateStore{fs: fs, path: path}
}

// Load reads the state file.
func (s *FileStateStore) Load() (*BackupState, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewBackupState(), nil
		}
		return nil, fmt.Errorf("failed to read backup state: %w", err)
	}

	state := NewBackupState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backup state: %w", err)
	}
	if state.Backups == nil {
		state.Backups = make(map[string]BackupRecord)
	}
	return state, nil
}

// Save writes the state file atomically.
func (s *FileStateStore) Save(state *BackupState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup state: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup state: %w", err)
	}
	return nil
}
