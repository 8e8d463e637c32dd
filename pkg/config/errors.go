package config

import "errors"

var (
	// ErrNoProtoPaths is returned when no proto path is configured
	ErrNoProtoPaths = errors.New("at least one proto path is required")

	// ErrNoOutputDir is returned when the output directory is empty
	ErrNoOutputDir = errors.New("output directory is required")

	// ErrInvalidWorkers is returned when the worker count is below one
	ErrInvalidWorkers = errors.New("workers must be at least 1")
)
