package docs

import (
	"errors"
	"fmt"
)

// ErrEmptyOutputDir is returned when a batch has no output directory
var ErrEmptyOutputDir = errors.New("output directory is empty")

// FileError records why one source file produced no page
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
