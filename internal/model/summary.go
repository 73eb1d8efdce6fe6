package model

import (
	"sort"
	"time"
)

// Summary aggregates a Report for presentation.
// It is derived data; the Report stays the source of truth.
type Summary struct {
	// BaseDir is the scanned directory.
	BaseDir string `json:"base_dir"`

	// DateScanned is when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// DocumentsScanned is the number of documents whose links were checked.
	DocumentsScanned int `json:"documents_scanned"`

	// LinksChecked is the number of link targets resolved on disk.
	LinksChecked int `json:"links_checked"`

	// LinksSkipped is the number of targets that were not resolved.
	LinksSkipped int `json:"links_skipped"`

	// BrokenCount is the total number of broken links.
	BrokenCount int `json:"broken_count"`

	// ReadFailureCount is the number of unreadable documents.
	ReadFailureCount int `json:"read_failure_count"`

	// BySource counts broken links per source document,
	// ordered by descending count then by file name.
	BySource []SourceCount `json:"by_source,omitempty"`
}

// SourceCount is the number of broken links found in one document.
type SourceCount struct {
	SourceFile string `json:"source_file"`
	Count      int    `json:"count"`
}

// NewSummary builds a Summary from a Report.
func NewSummary(r *Report) *Summary {
	s := &Summary{
		BaseDir:          r.BaseDir,
		DateScanned:      r.DateScanned,
		DocumentsScanned: r.DocumentsScanned,
		LinksChecked:     r.LinksChecked,
		LinksSkipped:     r.LinksSkipped,
		BrokenCount:      len(r.BrokenLinks),
		ReadFailureCount: len(r.ReadFailures),
	}

	counts := make(map[string]int)
	for _, b := range r.BrokenLinks {
		counts[b.SourceFile]++
	}
	for source, count := range counts {
		s.BySource = append(s.BySource, SourceCount{SourceFile: source, Count: count})
	}
	sort.Slice(s.BySource, func(i, j int) bool {
		if s.BySource[i].Count != s.BySource[j].Count {
			return s.BySource[i].Count > s.BySource[j].Count
		}
		return s.BySource[i].SourceFile < s.BySource[j].SourceFile
	})

	return s
}

// HealthyLinks returns the number of checked links that resolved.
func (s *Summary) HealthyLinks() int {
	return s.LinksChecked - s.BrokenCount
}
