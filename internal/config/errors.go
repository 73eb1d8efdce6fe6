package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so that callers can use
// errors.Is() while still getting a human-readable message. Problems with
// the base directory itself are reported with checker.ErrBaseDirNotFound and
// checker.ErrBaseDirNotDirectory.
var (
	// ErrNoBaseDir is returned when the base directory is empty.
	ErrNoBaseDir = errors.New("no base directory specified: pass a directory or set " + EnvBaseDir)

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidColorMode is returned for a --color value other than auto, on or off.
	ErrInvalidColorMode = errors.New("invalid color mode: must be auto, on or off")

	// ErrInvalidExtension is returned when the document extension does not
	// start with a dot or is only a dot.
	ErrInvalidExtension = errors.New("invalid extension: must start with '.' followed by at least one character")

	// ErrInvalidIgnorePattern is returned when an ignore pattern is malformed.
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")
)
