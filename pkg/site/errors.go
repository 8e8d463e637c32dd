package site

import "errors"

var (
	// ErrNoSources is returned when discovery finds no proto files
	ErrNoSources = errors.New("no proto files found in the configured paths")

	// ErrNoOutputDir is returned when a site has no output directory
	ErrNoOutputDir = errors.New("output directory is required")
)
