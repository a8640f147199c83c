package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore is a BlobStore backed by a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed and returns a store over it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(name string, r io.Reader) (int64, error) {
	f, err := os.Create(s.path(name))
	if err != nil {
		return 0, fmt.Errorf("failed to create blob %s: %w", name, err)
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return written, fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return written, nil
}

func (s *LocalStore) Open(name string) (io.ReadCloser, int64, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open blob %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat blob %s: %w", name, err)
	}

	return f, info.Size(), nil
}

func (s *LocalStore) Delete(name string) error {
	return os.Remove(s.path(name))
}

// path joins name onto the store directory. Base strips any path components a
// caller smuggles into the filename.
func (s *LocalStore) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}
