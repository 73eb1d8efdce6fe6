package model

import (
	"time"
)

// Report is the result of scanning one base directory.
// A Report is owned by a single invocation; nothing in it is shared between runs.
type Report struct {
	// BaseDir is the scanned directory as supplied by the user.
	BaseDir string `json:"base_dir" msgpack:"base_dir"`

	// DateScanned is the timestamp when the scan started.
	DateScanned time.Time `json:"date_scanned" msgpack:"date_scanned"`

	// Documents lists the discovered documents in traversal order.
	Documents []Document `json:"-" msgpack:"documents"`

	// DocumentsScanned is the number of documents whose links were checked.
	DocumentsScanned int `json:"documents_scanned" msgpack:"documents_scanned"`

	// LinksChecked is the number of link targets resolved on disk.
	LinksChecked int `json:"links_checked" msgpack:"links_checked"`

	// LinksSkipped is the number of external, anchor and ignored targets.
	LinksSkipped int `json:"links_skipped" msgpack:"links_skipped"`

	// BrokenLinks holds records in document-traversal then link-occurrence order.
	BrokenLinks []BrokenLink `json:"broken_links" msgpack:"broken_links"`

	// ReadFailures holds documents that could not be read, in traversal order.
	ReadFailures []ReadFailure `json:"read_failures,omitempty" msgpack:"read_failures"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"-" msgpack:"performed_steps"`

	// TimedOut is true if the scan was cancelled before completing.
	TimedOut bool `json:"timed_out,omitempty" msgpack:"timed_out"`

	// Error contains any error that aborted the scan.
	Error error `json:"-" msgpack:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty" msgpack:"error"` //nolint:tagliatelle // error is conventional
}

// NewReport creates an empty report for the given base directory.
func NewReport(baseDir string) *Report {
	return &Report{
		BaseDir:      baseDir,
		DateScanned:  time.Now(),
		BrokenLinks:  make([]BrokenLink, 0),
		ReadFailures: make([]ReadFailure, 0),
	}
}

// AddResult merges the outcome of checking one document into the report.
// Results must be added in traversal order to keep the record order stable.
func (r *Report) AddResult(result DocumentResult) {
	if result.Failure != nil {
		r.ReadFailures = append(r.ReadFailures, *result.Failure)
		return
	}
	r.DocumentsScanned++
	r.LinksChecked += result.LinksChecked
	r.LinksSkipped += result.LinksSkipped
	r.BrokenLinks = append(r.BrokenLinks, result.BrokenLinks...)
}

// HasBrokenLinks reports whether at least one broken link was recorded.
func (r *Report) HasBrokenLinks() bool {
	return len(r.BrokenLinks) > 0
}

// HasReadFailures reports whether at least one document could not be read.
func (r *Report) HasReadFailures() bool {
	return len(r.ReadFailures) > 0
}

// DocumentResult is the outcome of checking a single document.
type DocumentResult struct {
	// Document is the checked document.
	Document Document

	// BrokenLinks holds the document's broken links in occurrence order.
	BrokenLinks []BrokenLink

	// LinksChecked is the number of targets resolved on disk.
	LinksChecked int

	// LinksSkipped is the number of targets that were not resolved.
	LinksSkipped int

	// Failure is set when the document could not be read.
	Failure *ReadFailure
}
