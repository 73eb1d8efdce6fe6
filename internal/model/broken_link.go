package model

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// BrokenLink records a link whose resolved target does not exist on disk.
// It is the only output of a scan besides read failures.
type BrokenLink struct {
	// SourceFile is the containing document, relative to the base directory.
	SourceFile string `json:"source_file" msgpack:"source_file"`

	// Link is the raw target as it appeared in the document, before any resolution.
	Link string `json:"broken_link" msgpack:"broken_link"` //nolint:tagliatelle // legacy report field name

	// AttemptedPath is the resolved path relative to the base directory when its
	// parent directory exists, and the joined path unmodified otherwise.
	AttemptedPath string `json:"resolved_path_attempt" msgpack:"resolved_path_attempt"` //nolint:tagliatelle // legacy report field name
}

// Fingerprint returns a stable identifier for the record.
// Two runs over an unchanged tree produce equal fingerprints for the same
// broken link, which lets the run history tell new links from fixed ones.
func (b BrokenLink) Fingerprint() string {
	h := sha3.New256()
	for _, field := range []string{b.SourceFile, b.Link, b.AttemptedPath} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ReadFailure records a document that could not be read or decoded.
// It is reported separately from broken links.
type ReadFailure struct {
	// SourceFile is the document path relative to the base directory.
	SourceFile string `json:"source_file" msgpack:"source_file"`

	// Error is the error message.
	Error string `json:"error" msgpack:"error"`
}
