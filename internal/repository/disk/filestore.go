package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/msomdec/inscripciones/internal/domain"
)

// FileStore implements domain.FileStore on the local filesystem. All access
// goes through an os.Root, so keys can never reach outside the base path.
type FileStore struct {
	root *os.Root
}

var _ domain.FileStore = (*FileStore)(nil)

// New opens (creating if needed) the base directory.
func New(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}
	root, err := os.OpenRoot(basePath)
	if err != nil {
		return nil, fmt.Errorf("open base path: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) Close() error {
	return s.root.Close()
}

// Save writes data under key, creating intermediate directories. An existing
// file is never overwritten.
func (s *FileStore) Save(_ context.Context, key string, data []byte) error {
	name, ok := localName(key)
	if !ok {
		return fmt.Errorf("%w: invalid file key %q", domain.ErrInvalidInput, key)
	}

	if dir := filepath.Dir(name); dir != "." {
		if err := s.root.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := s.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		s.root.Remove(name)
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		s.root.Remove(name)
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}

// Get returns the file bytes. Missing files, directories and keys outside
// the store all report domain.ErrNotFound.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	name, ok := localName(key)
	if !ok {
		return nil, domain.ErrNotFound
	}

	info, err := s.root.Stat(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, domain.ErrNotFound
	}

	data, err := s.root.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete removes the file. A missing file is not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	name, ok := localName(key)
	if !ok {
		return nil
	}
	if err := s.root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func localName(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	name := filepath.Clean(filepath.FromSlash(key))
	if !filepath.IsLocal(name) {
		return "", false
	}
	return name, true
}
