package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/mdlinkcheck/internal/model"
)

// Step is one stage of a link check. It reads what earlier stages left in
// the report and adds its own results.
type Step interface {
	// Do runs the stage. Problems with a single document belong in the
	// report; a returned error ends the run.
	Do(ctx context.Context, report *model.Report) error

	// Name identifies the stage in logs and in model.Report.PerformedSteps.
	Name() string
}

// Pipeline runs its steps in order against one report.
// Each step depends on the output of the one before it, so the first
// failure ends the run.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for step progress.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New returns an empty Pipeline. Add steps with Then.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Then appends step and returns p.
func (p *Pipeline) Then(step Step) *Pipeline {
	p.steps = append(p.steps, step)
	return p
}

// Run executes the steps in order.
//
// A cancelled context is noticed before each step starts and marks the
// report as timed out. The error of a failing step is stored in the report
// and returned; steps after it do not run.
func (p *Pipeline) Run(ctx context.Context, report *model.Report) error {
	for _, step := range p.steps {
		name := step.Name()

		if err := ctx.Err(); err != nil {
			p.logger.Warn("link check cancelled", "before_step", name, "reason", err)
			report.TimedOut = true
			return err
		}

		start := time.Now()
		if err := step.Do(ctx, report); err != nil {
			p.logger.Debug("step failed",
				"step", name,
				"elapsed", time.Since(start),
				"error", err,
			)
			report.Error = err
			report.ErrorMessage = err.Error()
			return err
		}

		report.PerformedSteps = append(report.PerformedSteps, name)
		p.logger.Debug("step finished",
			"step", name,
			"base_dir", report.BaseDir,
			"elapsed", time.Since(start),
		)
	}
	return nil
}
