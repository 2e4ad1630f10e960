package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is the destination of an export.
type Store interface {
	// Put writes data under key. Keys use forward slashes and never start
	// with one.
	Put(ctx context.Context, key, contentType string, data []byte) error

	// Location describes where key ends up, for logs and the CLI.
	Location(key string) string
}

// DiskStore writes files below a directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed and returns a store writing into it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the output directory.
func (s *DiskStore) Dir() string { return s.dir }

// Put implements Store.
func (s *DiskStore) Put(ctx context.Context, key, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Location implements Store.
func (s *DiskStore) Location(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}

func (s *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("export: key %q escapes the output directory", key)
	}
	return filepath.Join(s.dir, clean), nil
}
