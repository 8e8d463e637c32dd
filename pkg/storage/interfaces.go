package storage

import "errors"

var (
	// ErrEmptyRoot is returned when a store is created without a root directory
	ErrEmptyRoot = errors.New("storage root directory is empty")

	// ErrOutsideRoot is returned when a page path escapes the root directory
	ErrOutsideRoot = errors.New("path is outside the storage root")
)

// PageStore persists generated documentation pages under a root directory.
// Paths may be absolute (inside the root) or relative to the root.
type PageStore interface {
	// Root returns the absolute root directory
	Root() string

	// ReadPage returns the content of the page at path
	ReadPage(path string) ([]byte, error)

	// WritePage replaces the page at path with content
	WritePage(path string, content []byte) error

	// RemovePage deletes the page at path
	RemovePage(path string) error

	// ListPages returns the slash-separated root-relative paths of every
	// page with the given extension, sorted
	ListPages(ext string) ([]string, error)
}
