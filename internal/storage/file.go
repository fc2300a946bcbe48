package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON document per target in a directory.
type FileStore struct {
	Dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Path returns the state file of target.
func (s *FileStore) Path(target string) string {
	return filepath.Join(s.Dir, target+"_hint_model.json")
}

// Load reads the state of target.
func (s *FileStore) Load(_ context.Context, target string) (*State, error) {
	data, err := os.ReadFile(s.Path(target))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Path(target), err)
	}
	st.Repair()
	return &st, nil
}

// Save writes the state of target atomically (temporary file + rename).
func (s *FileStore) Save(_ context.Context, target string, state *State) error {
	return writeAtomic(s.Path(target), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	})
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// writeAtomic writes path through a temporary file in the same directory.
func writeAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
