package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewFileSystemStorage(t *testing.T) {
	t.Run("creates storage with new directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		rootDir := filepath.Join(tmpDir, "api")

		storage, err := NewFileSystemStorage(rootDir)
		if err != nil {
			t.Fatalf("Failed to create storage: %v", err)
		}

		if storage.Root() != rootDir {
			t.Errorf("Expected root %s, got %s", rootDir, storage.Root())
		}

		if _, err := os.Stat(rootDir); os.IsNotExist(err) {
			t.Error("Root directory should have been created")
		}
	})

	t.Run("rejects empty root", func(t *testing.T) {
		if _, err := NewFileSystemStorage(" "); !errors.Is(err, ErrEmptyRoot) {
			t.Errorf("Expected ErrEmptyRoot, got %v", err)
		}
	})
}

func TestFileSystemStorage_WritePage(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := NewFileSystemStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("writes relative path with parents", func(t *testing.T) {
		if err := storage.WritePage("user/v1/user.md", []byte("# User")); err != nil {
			t.Fatalf("WritePage failed: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(tmpDir, "user", "v1", "user.md"))
		if err != nil {
			t.Fatalf("Failed to read page: %v", err)
		}
		if string(data) != "# User" {
			t.Errorf("Unexpected content: %q", data)
		}
	})

	t.Run("overwrites absolute path", func(t *testing.T) {
		target := filepath.Join(tmpDir, "user", "v1", "user.md")
		if err := storage.WritePage(target, []byte("# Updated")); err != nil {
			t.Fatalf("WritePage failed: %v", err)
		}

		data, _ := os.ReadFile(target)
		if string(data) != "# Updated" {
			t.Errorf("Unexpected content: %q", data)
		}

		entries, _ := os.ReadDir(filepath.Dir(target))
		if len(entries) != 1 {
			t.Errorf("Temp files left behind: %v", entries)
		}
	})

	t.Run("rejects paths outside root", func(t *testing.T) {
		err := storage.WritePage("../escape.md", []byte("x"))
		if !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Expected ErrOutsideRoot, got %v", err)
		}
	})
}

func TestFileSystemStorage_RemovePage(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := NewFileSystemStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := storage.WritePage("a/b/c.md", []byte("c")); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}
	if err := storage.WritePage("a/keep.md", []byte("keep")); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	if err := storage.RemovePage("a/b/c.md"); err != nil {
		t.Fatalf("RemovePage failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "a", "b")); !os.IsNotExist(err) {
		t.Error("Empty directory should have been pruned")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "a", "keep.md")); err != nil {
		t.Error("Sibling page should remain")
	}

	if err := storage.RemovePage("a/b/c.md"); err != nil {
		t.Errorf("Removing a missing page should succeed, got %v", err)
	}
}

func TestFileSystemStorage_ListPages(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := NewFileSystemStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	for _, page := range []string{"z.md", "user/v1/user.md", "common/v1/common.md", "notes.txt"} {
		if err := storage.WritePage(page, []byte("x")); err != nil {
			t.Fatalf("WritePage failed: %v", err)
		}
	}

	pages, err := storage.ListPages(".md")
	if err != nil {
		t.Fatalf("ListPages failed: %v", err)
	}

	expected := []string{"common/v1/common.md", "user/v1/user.md", "z.md"}
	if !reflect.DeepEqual(pages, expected) {
		t.Errorf("Expected %v, got %v", expected, pages)
	}
}

func TestFileSystemStorage_ReadPage(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := NewFileSystemStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := storage.WritePage("user/v1/user.md", []byte("# User")); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	data, err := storage.ReadPage(filepath.Join(tmpDir, "user", "v1", "user.md"))
	if err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if string(data) != "# User" {
		t.Errorf("Expected page content, got %q", data)
	}

	if _, err := storage.ReadPage("missing.md"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
	if _, err := storage.ReadPage("../escape.md"); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("Expected ErrOutsideRoot, got %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "cache.json")

	if err := WriteFileAtomic(target, []byte(`{}`), 0600); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}
}
