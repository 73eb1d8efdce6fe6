package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/mdlinkcheck/internal/checker"
	"github.com/nao1215/mdlinkcheck/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of documents checked in parallel when
// WithConcurrency is not given.
const DefaultConcurrency = 4

// BatchProcessor checks many documents concurrently with one Checker.
// Results are stored by document index so the caller sees them in
// traversal order regardless of which goroutine finished first.
type BatchProcessor struct {
	checker *checker.Checker

	// concurrency is the maximum number of documents checked at once.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent document checks.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor for c.
func NewBatchProcessor(c *checker.Checker, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		checker:     c,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Concurrency returns the configured concurrency limit.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch checks docs concurrently and returns one result per document.
//
// A nil entry means the document was never checked because the batch was
// cancelled. When the checker is in fail-fast mode the first read failure
// stops the batch and is returned as a *checker.ReadError.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, docs []model.Document) ([]*checker.Result, error) {
	bp.logger.Debug("starting batch processing",
		"total_documents", len(docs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]*checker.Result, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result := bp.checker.CheckDocument(doc)
			results[i] = &result

			if result.Failure != nil && bp.checker.FailFast() {
				return &checker.ReadError{Path: doc.RelPath, Err: result.Err}
			}
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch processing complete",
		"total_documents", len(docs),
		"elapsed", time.Since(startTime),
	)

	return results, err
}
