package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nao1215/mdlinkcheck/internal/checker"
	"github.com/nao1215/mdlinkcheck/internal/log"
	"github.com/nao1215/mdlinkcheck/internal/model"
)

// writeTree creates files under a fresh temporary directory.
// Keys are slash-separated paths relative to the directory.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

// sampleTree has a broken link in several documents so that ordering
// problems show up in the report.
func sampleTree(t *testing.T) string {
	t.Helper()

	return writeTree(t, map[string]string{
		"a.md":        "[ok](b.md) [gone](missing.md)",
		"b.md":        "[up](/a) [web](https://example.com) [anchor](#top)",
		"c/d.md":      "[x](../nope.md) [y](e.md)",
		"c/e.md":      "[back](../a.md)",
		"z/last.md":   "[q](q.md)",
		"notes.txt":   "[ignored](nothing.md)",
		"c/f/deep.md": "[deep](/c/f/none)",
	})
}

func runDefault(t *testing.T, base string, concurrency int, opts ...checker.Option) (*model.Report, error) {
	t.Helper()

	logger := log.NewDiscardLogger()
	opts = append(opts, checker.WithLogger(logger))
	c := checker.New(base, opts...)

	report := model.NewReport(base)
	err := DefaultPipeline(c, concurrency, WithLogger(logger)).Run(context.Background(), report)
	return report, err
}

// TestDefaultPipeline tests the discover-then-check pipeline end to end.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("empty tree still runs both steps", func(t *testing.T) {
		t.Parallel()

		report, err := runDefault(t, t.TempDir(), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(report.PerformedSteps, []string{StepDiscover, StepCheck}) {
			t.Errorf("unexpected performed steps: %v", report.PerformedSteps)
		}
	})

	t.Run("reports broken links in traversal order", func(t *testing.T) {
		t.Parallel()

		base := sampleTree(t)
		report, err := runDefault(t, base, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []model.BrokenLink{
			{SourceFile: "a.md", Link: "missing.md", AttemptedPath: "missing.md"},
			{SourceFile: filepath.Join("c", "d.md"), Link: "../nope.md", AttemptedPath: "nope.md"},
			{SourceFile: filepath.Join("c", "f", "deep.md"), Link: "/c/f/none", AttemptedPath: filepath.Join("c", "f", "none")},
			{SourceFile: filepath.Join("z", "last.md"), Link: "q.md", AttemptedPath: filepath.Join("z", "q.md")},
		}
		if !reflect.DeepEqual(report.BrokenLinks, want) {
			t.Errorf("unexpected broken links:\n got: %+v\nwant: %+v", report.BrokenLinks, want)
		}
		if report.DocumentsScanned != 6 {
			t.Errorf("expected 6 documents scanned, got %d", report.DocumentsScanned)
		}
		if report.LinksSkipped != 2 {
			t.Errorf("expected 2 skipped links, got %d", report.LinksSkipped)
		}
		if !reflect.DeepEqual(report.PerformedSteps, []string{StepDiscover, StepCheck}) {
			t.Errorf("unexpected performed steps: %v", report.PerformedSteps)
		}
	})

	t.Run("report does not depend on concurrency", func(t *testing.T) {
		t.Parallel()

		base := sampleTree(t)
		sequential, err := runDefault(t, base, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, n := range []int{2, 3, 16} {
			parallel, err := runDefault(t, base, n)
			if err != nil {
				t.Fatalf("unexpected error with concurrency %d: %v", n, err)
			}
			if !reflect.DeepEqual(parallel.BrokenLinks, sequential.BrokenLinks) {
				t.Errorf("concurrency %d changed the report:\n got: %+v\nwant: %+v",
					n, parallel.BrokenLinks, sequential.BrokenLinks)
			}
			if parallel.LinksChecked != sequential.LinksChecked {
				t.Errorf("concurrency %d changed links checked: %d vs %d",
					n, parallel.LinksChecked, sequential.LinksChecked)
			}
		}
	})

	t.Run("matches the sequential checker", func(t *testing.T) {
		t.Parallel()

		base := sampleTree(t)
		report, err := runDefault(t, base, 8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		records, err := checker.FindBrokenLinks(base)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(report.BrokenLinks, records) {
			t.Errorf("pipeline and checker disagree:\n got: %+v\nwant: %+v", report.BrokenLinks, records)
		}
	})

	t.Run("missing base dir fails discovery", func(t *testing.T) {
		t.Parallel()

		report, err := runDefault(t, filepath.Join(t.TempDir(), "missing"), 2)
		if !errors.Is(err, checker.ErrBaseDirNotFound) {
			t.Fatalf("expected ErrBaseDirNotFound, got %v", err)
		}
		if report.ErrorMessage == "" {
			t.Error("expected error message in report")
		}
	})

	t.Run("empty tree has no broken links", func(t *testing.T) {
		t.Parallel()

		report, err := runDefault(t, t.TempDir(), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.HasBrokenLinks() || report.DocumentsScanned != 0 {
			t.Errorf("expected empty report, got %+v", report)
		}
	})
}

// TestCheckStepReadFailures tests best-effort and fail-fast handling of
// unreadable documents.
func TestCheckStepReadFailures(t *testing.T) {
	t.Parallel()

	tree := func(t *testing.T) string {
		t.Helper()
		return writeTree(t, map[string]string{
			"a.md": "[gone](missing.md)",
			"b.md": "\xff\xfe invalid",
			"c.md": "[also gone](other.md)",
		})
	}

	t.Run("records failure and continues by default", func(t *testing.T) {
		t.Parallel()

		report, err := runDefault(t, tree(t), 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.BrokenLinks) != 2 {
			t.Errorf("expected 2 broken links, got %+v", report.BrokenLinks)
		}
		if len(report.ReadFailures) != 1 || report.ReadFailures[0].SourceFile != "b.md" {
			t.Errorf("unexpected read failures: %+v", report.ReadFailures)
		}
		if report.DocumentsScanned != 2 {
			t.Errorf("expected 2 documents scanned, got %d", report.DocumentsScanned)
		}
	})

	t.Run("fail-fast aborts with ReadError", func(t *testing.T) {
		t.Parallel()

		report, err := runDefault(t, tree(t), 1, checker.WithFailFast(true))

		var readErr *checker.ReadError
		if !errors.As(err, &readErr) {
			t.Fatalf("expected *checker.ReadError, got %v", err)
		}
		if readErr.Path != "b.md" {
			t.Errorf("expected failing path b.md, got %q", readErr.Path)
		}
		if !errors.Is(err, checker.ErrInvalidUTF8) {
			t.Errorf("expected ErrInvalidUTF8 in chain, got %v", err)
		}
		if len(report.BrokenLinks) != 1 || report.BrokenLinks[0].SourceFile != "a.md" {
			t.Errorf("expected only a.md results before abort, got %+v", report.BrokenLinks)
		}
	})
}

// TestBatchProcessor tests options and cancellation of the batch processor.
func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	t.Run("default concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(checker.New(t.TempDir()))
		if bp.Concurrency() != DefaultConcurrency {
			t.Errorf("expected %d, got %d", DefaultConcurrency, bp.Concurrency())
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(checker.New(t.TempDir()), WithConcurrency(0))
		if bp.Concurrency() != DefaultConcurrency {
			t.Errorf("expected %d, got %d", DefaultConcurrency, bp.Concurrency())
		}
	})

	t.Run("returns one result per document", func(t *testing.T) {
		t.Parallel()

		base := sampleTree(t)
		c := checker.New(base, checker.WithLogger(log.NewDiscardLogger()))
		docs, err := c.Discover()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		results, err := NewBatchProcessor(c, WithConcurrency(3)).ProcessBatch(context.Background(), docs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != len(docs) {
			t.Fatalf("expected %d results, got %d", len(docs), len(results))
		}
		for i, result := range results {
			if result == nil {
				t.Fatalf("result %d is nil", i)
			}
			if result.Document.RelPath != docs[i].RelPath {
				t.Errorf("result %d is for %q, want %q", i, result.Document.RelPath, docs[i].RelPath)
			}
		}
	})

	t.Run("cancelled context checks nothing", func(t *testing.T) {
		t.Parallel()

		base := sampleTree(t)
		c := checker.New(base, checker.WithLogger(log.NewDiscardLogger()))
		docs, err := c.Discover()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := NewBatchProcessor(c).ProcessBatch(ctx, docs)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		for i, result := range results {
			if result != nil {
				t.Errorf("expected result %d to be nil", i)
			}
		}
	})

	t.Run("cancelled check step marks the report", func(t *testing.T) {
		t.Parallel()

		base := sampleTree(t)
		c := checker.New(base, checker.WithLogger(log.NewDiscardLogger()))
		docs, err := c.Discover()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report := model.NewReport(base)
		report.Documents = docs
		err = NewCheckStep(NewBatchProcessor(c)).Do(ctx, report)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !report.TimedOut {
			t.Error("expected TimedOut to be set")
		}
		if report.DocumentsScanned != 0 {
			t.Errorf("expected no documents scanned, got %d", report.DocumentsScanned)
		}
	})
}
