package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/protodoc/pkg/storage"
)

// FileCache remembers the content digest of every source file converted
// so far, so unchanged files can be skipped on the next build. It is
// persisted as a flat JSON object of absolute path to hex digest.
type FileCache struct {
	path   string
	log    *logrus.Logger
	mu     sync.RWMutex
	hashes map[string]string
}

// NewFileCache loads the cache stored at path. A missing or unreadable
// cache file yields an empty cache.
func NewFileCache(path string, log *logrus.Logger) (*FileCache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrInvalidPath
	}
	if log == nil {
		log = logrus.New()
	}

	c := &FileCache{
		path:   path,
		log:    log,
		hashes: make(map[string]string),
	}
	c.load()
	return c, nil
}

func (c *FileCache) load() {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		c.log.Warnf("Failed to load file cache %s: %v", c.path, err)
		return
	}

	hashes := make(map[string]string)
	if err := json.Unmarshal(data, &hashes); err != nil {
		c.log.Warnf("Ignoring corrupt file cache %s: %v", c.path, err)
		return
	}
	c.hashes = hashes
	c.log.Debugf("Loaded file cache with %d entries", len(hashes))
}

// Path returns the location of the cache file
func (c *FileCache) Path() string {
	return c.path
}

// Len returns the number of recorded files
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hashes)
}

// HasChanged reports whether the file differs from its recorded digest.
// A file that no longer exists is reported unchanged; a file that cannot
// be hashed, or was never recorded, is reported changed.
func (c *FileCache) HasChanged(path string) bool {
	abs := absPath(path)
	if _, err := os.Stat(abs); errors.Is(err, fs.ErrNotExist) {
		return false
	}

	digest, err := FileDigest(abs)
	if err != nil {
		c.log.Warnf("Failed to hash %s: %v", abs, err)
		return true
	}

	c.mu.RLock()
	previous, ok := c.hashes[abs]
	c.mu.RUnlock()
	return !ok || previous != digest
}

// Record stores the current digest of the file
func (c *FileCache) Record(path string) error {
	abs := absPath(path)
	digest, err := FileDigest(abs)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.hashes[abs] = digest
	c.mu.Unlock()
	return nil
}

// Forget drops the file's digest
func (c *FileCache) Forget(path string) {
	abs := absPath(path)
	c.mu.Lock()
	delete(c.hashes, abs)
	c.mu.Unlock()
}

// Save writes the cache to disk atomically, creating parent directories
func (c *FileCache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.hashes, "", "  ")
	count := len(c.hashes)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal file cache: %w", err)
	}

	if err := storage.WriteFileAtomic(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to save file cache: %w", err)
	}
	c.log.Debugf("Saved file cache with %d entries", count)
	return nil
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
