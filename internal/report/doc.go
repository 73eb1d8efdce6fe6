// Package report renders link check results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: the plain text report, optionally colored
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: a Markdown document for pull requests and CI summaries
//
// Report data structures live in the model package; writers only format
// them. All writers implement the Writer interface.
package report
