package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileStore implements Store with one JSON file per key inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a file-backed store.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file that backs key.
func (f *FileStore) Path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Load reads and decodes the file for key.
func (f *FileStore) Load(ctx context.Context, key string, v interface{}) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		logrus.Debugf("no persisted state for key %s", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read state %s: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal state %s: %w", key, err)
	}

	return true, nil
}

// Save writes the document to a temp file and renames it over the target,
// so readers never observe a partially written file.
func (f *FileStore) Save(ctx context.Context, key string, v interface{}) error {
	if key == "" {
		return ErrEmptyKey
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync state %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close state %s: %w", key, err)
	}

	if err := os.Rename(tmpName, f.Path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state %s: %w", key, err)
	}

	logrus.Debugf("saved state %s to %s", key, f.Path(key))
	return nil
}
