package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSnapshotStore keeps the cache snapshot in a local JSON file. Writes go
// to a temp file in the same directory and are renamed into place.
type FileSnapshotStore struct {
	path string
}

func NewFileSnapshotStore(path string) *FileSnapshotStore {
	return &FileSnapshotStore{path: path}
}

func (s *FileSnapshotStore) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (s *FileSnapshotStore) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, s.path)
}

func (s *FileSnapshotStore) Close() error { return nil }

// NoopSnapshotStore disables persistence.
type NoopSnapshotStore struct{}

func (NoopSnapshotStore) Load(context.Context) ([]byte, error) { return nil, nil }
func (NoopSnapshotStore) Save(context.Context, []byte) error   { return nil }
func (NoopSnapshotStore) Close() error                          { return nil }
