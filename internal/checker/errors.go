package checker

import (
	"errors"
	"fmt"
)

var (
	// ErrBaseDirNotFound is returned when the base directory does not exist.
	ErrBaseDirNotFound = errors.New("base directory not found")

	// ErrBaseDirNotDirectory is returned when the base path is not a directory.
	ErrBaseDirNotDirectory = errors.New("base path is not a directory")

	// ErrInvalidUTF8 is returned when a document is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("document is not valid UTF-8")
)

// ReadError is returned when a document cannot be read or decoded.
// Path is relative to the base directory.
type ReadError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ReadError) Unwrap() error {
	return e.Err
}
