// Package model defines the core data structures used throughout mdlinkcheck.
//
// This package contains the following main types:
//   - Document: A Markdown file discovered under the base directory
//   - Link: A raw link target extracted from a document
//   - BrokenLink: A link whose resolved target does not exist
//   - ReadFailure: A document that could not be read or decoded
//   - Report: The result of a single scan
//   - Summary: Per-report aggregates used by the report writers
//
// Multiple packages (checker, pipeline, report, database) use these types,
// so they live in their own package to prevent import cycles.
//
// The models are serializable to JSON for report output and to msgpack for
// database storage.
package model
