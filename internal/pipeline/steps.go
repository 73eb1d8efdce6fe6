package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/mdlinkcheck/internal/checker"
	"github.com/nao1215/mdlinkcheck/internal/model"
)

// Step names recorded in model.Report.PerformedSteps.
const (
	StepDiscover = "discover"
	StepCheck    = "check"
)

// DiscoverStep walks the base directory and fills report.Documents.
type DiscoverStep struct {
	checker *checker.Checker
	logger  *slog.Logger
}

// DiscoverStepOption configures a DiscoverStep.
type DiscoverStepOption func(*DiscoverStep)

// WithDiscoverLogger sets a custom logger for the discover step.
func WithDiscoverLogger(logger *slog.Logger) DiscoverStepOption {
	return func(s *DiscoverStep) {
		s.logger = logger
	}
}

// NewDiscoverStep creates a new discovery step.
func NewDiscoverStep(c *checker.Checker, opts ...DiscoverStepOption) *DiscoverStep {
	s := &DiscoverStep{
		checker: c,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *DiscoverStep) Name() string {
	return StepDiscover
}

// Do executes the discovery step.
func (s *DiscoverStep) Do(_ context.Context, report *model.Report) error {
	docs, err := s.checker.Discover()
	if err != nil {
		return fmt.Errorf("failed to discover documents: %w", err)
	}

	report.Documents = docs

	s.logger.Debug("documents discovered",
		"base_dir", report.BaseDir,
		"count", len(docs),
	)

	return nil
}

// CheckStep checks every discovered document and merges the results into
// the report in traversal order.
type CheckStep struct {
	batch  *BatchProcessor
	logger *slog.Logger
}

// CheckStepOption configures a CheckStep.
type CheckStepOption func(*CheckStep)

// WithCheckLogger sets a custom logger for the check step.
func WithCheckLogger(logger *slog.Logger) CheckStepOption {
	return func(s *CheckStep) {
		s.logger = logger
	}
}

// NewCheckStep creates a new check step backed by batch.
func NewCheckStep(batch *BatchProcessor, opts ...CheckStepOption) *CheckStep {
	s := &CheckStep{
		batch:  batch,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CheckStep) Name() string {
	return StepCheck
}

// Do executes the check step.
//
// Results are merged up to the first document that was not checked. On a
// fail-fast abort the report keeps everything merged before the failing
// document and the *checker.ReadError is returned.
func (s *CheckStep) Do(ctx context.Context, report *model.Report) error {
	results, err := s.batch.ProcessBatch(ctx, report.Documents)

	for _, result := range results {
		if result == nil {
			break
		}
		if result.Failure != nil && s.batch.checker.FailFast() {
			return &checker.ReadError{Path: result.Document.RelPath, Err: result.Err}
		}
		report.AddResult(result.DocumentResult)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.TimedOut = true
		}
		return err
	}

	s.logger.Debug("documents checked",
		"base_dir", report.BaseDir,
		"documents", report.DocumentsScanned,
		"links_checked", report.LinksChecked,
		"broken", len(report.BrokenLinks),
	)

	return nil
}

// DefaultPipeline creates the standard discover-then-check pipeline.
// concurrency is passed to the BatchProcessor; values below one fall back
// to DefaultConcurrency.
func DefaultPipeline(c *checker.Checker, concurrency int, pipelineOpts ...Option) *Pipeline {
	p := New(pipelineOpts...)

	batch := NewBatchProcessor(c,
		WithConcurrency(concurrency),
		WithBatchLogger(p.logger),
	)

	return p.
		Then(NewDiscoverStep(c, WithDiscoverLogger(p.logger))).
		Then(NewCheckStep(batch, WithCheckLogger(p.logger)))
}
