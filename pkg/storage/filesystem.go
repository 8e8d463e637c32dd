package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileSystemStorage implements PageStore on a local output directory
type FileSystemStorage struct {
	rootDir string
}

// NewFileSystemStorage creates a new filesystem-based page store
func NewFileSystemStorage(rootDir string) (*FileSystemStorage, error) {
	if strings.TrimSpace(rootDir) == "" {
		return nil, ErrEmptyRoot
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FileSystemStorage{rootDir: abs}, nil
}

// Root implements PageStore.Root
func (s *FileSystemStorage) Root() string {
	return s.rootDir
}

// ReadPage implements PageStore.ReadPage
func (s *FileSystemStorage) ReadPage(path string) ([]byte, error) {
	target, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return data, nil
}

// WritePage implements PageStore.WritePage. The page is written atomically.
func (s *FileSystemStorage) WritePage(path string, content []byte) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(target, content, 0644); err != nil {
		return fmt.Errorf("failed to write page: %w", err)
	}
	return nil
}

// RemovePage implements PageStore.RemovePage. Removing a missing page is not
// an error. Directories left empty are pruned up to the root.
func (s *FileSystemStorage) RemovePage(path string) error {
	target, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove page: %w", err)
	}

	for dir := filepath.Dir(target); dir != s.rootDir && strings.HasPrefix(dir, s.rootDir); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// ListPages implements PageStore.ListPages
func (s *FileSystemStorage) ListPages(ext string) ([]string, error) {
	var pages []string
	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ext {
			return nil
		}
		rel, err := filepath.Rel(s.rootDir, path)
		if err != nil {
			return err
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}

	sort.Strings(pages)
	return pages, nil
}

// resolve maps a relative or absolute path onto a file under the root
func (s *FileSystemStorage) resolve(path string) (string, error) {
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.rootDir, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(s.rootDir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return target, nil
}
