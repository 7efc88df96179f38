package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore reads objects from a directory tree laid out as <root>/<bucket>/<key>.
// It is used for local development.
type FileStore struct {
	root string
}

var (
	_ Store     = (*FileStore)(nil)
	_ Publisher = (*FileStore)(nil)
)

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

func (s *FileStore) path(bucket, key string) (string, error) {
	rel := filepath.Join(bucket, key)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("object %s/%s is outside the store root", bucket, key)
	}
	return filepath.Join(s.root, rel), nil
}

// GetObject reads the file for bucket/key.
func (s *FileStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}

	return data, nil
}

// PutObject writes body to the file for bucket/key.
func (s *FileStore) PutObject(_ context.Context, bucket, key string, body []byte, _ string) error {
	p, err := s.path(bucket, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", p, err)
	}

	if err := os.WriteFile(p, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}
