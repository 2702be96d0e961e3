package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists one panel state as a JSON file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultStatePath returns the state file location under the user config dir.
func DefaultStatePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "joyview", "state.json"), nil
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns the saved state, or nil if nothing has been saved yet.
func (s *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return data, nil
}

// Save writes the persisted form of cfg. The file is replaced atomically so a
// crash mid-write never leaves a truncated state behind.
func (s *FileStore) Save(cfg Config) error {
	data, err := cfg.Encode()
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return os.Rename(tmp, s.path)
}
