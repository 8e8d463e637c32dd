package cache

import "errors"

var (
	// ErrInvalidPath is returned when a cache file path is empty
	ErrInvalidPath = errors.New("invalid cache path")

	// ErrNotHashable is returned when a source file cannot be read for hashing
	ErrNotHashable = errors.New("file cannot be hashed")
)
