package checker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/mdlinkcheck/internal/model"
)

// DefaultExtension is the file name suffix that marks a document.
const DefaultExtension = ".md"

// Checker finds broken links under a single base directory.
// A Checker holds no per-run state and is safe for concurrent use
// by multiple goroutines checking different documents.
type Checker struct {
	// baseDir is the root of the document tree as supplied by the caller.
	baseDir string

	// extension is the document suffix, also used for the fallback lookup.
	extension string

	// ignorePatterns are path.Match globs; matching targets are skipped.
	ignorePatterns []string

	// excludeDirs are directory base names that discovery does not enter.
	excludeDirs map[string]struct{}

	// failFast aborts Check on the first unreadable document.
	failFast bool

	logger *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithExtension sets the document extension. Empty values are ignored.
func WithExtension(ext string) Option {
	return func(c *Checker) {
		if ext != "" {
			c.extension = ext
		}
	}
}

// WithIgnorePatterns skips link targets matching any of the glob patterns.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Checker) {
		c.ignorePatterns = append(c.ignorePatterns, patterns...)
	}
}

// WithExcludeDirs prevents discovery from descending into directories
// with any of the given base names.
func WithExcludeDirs(names []string) Option {
	return func(c *Checker) {
		for _, name := range names {
			c.excludeDirs[name] = struct{}{}
		}
	}
}

// WithFailFast makes Check return on the first document read failure
// instead of recording it and continuing.
func WithFailFast(failFast bool) Option {
	return func(c *Checker) {
		c.failFast = failFast
	}
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// New creates a Checker for the given base directory.
func New(baseDir string, opts ...Option) *Checker {
	c := &Checker{
		baseDir:     baseDir,
		extension:   DefaultExtension,
		excludeDirs: make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// BaseDir returns the base directory the checker scans.
func (c *Checker) BaseDir() string {
	return c.baseDir
}

// FailFast reports whether the checker aborts on the first read failure.
func (c *Checker) FailFast() bool {
	return c.failFast
}

// CheckBaseDir verifies that path exists and is a directory.
func CheckBaseDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrBaseDirNotFound, path)
		}
		return fmt.Errorf("failed to access base directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrBaseDirNotDirectory, path)
	}
	return nil
}

// Check scans every document sequentially and returns the report.
//
// Read failures are recorded in the report and the scan continues, unless
// the checker was created WithFailFast, in which case the first failure is
// returned as a *ReadError together with the partial report.
func (c *Checker) Check(ctx context.Context) (*model.Report, error) {
	report := model.NewReport(c.baseDir)

	docs, err := c.Discover()
	if err != nil {
		return report, err
	}
	report.Documents = docs

	for _, doc := range docs {
		select {
		case <-ctx.Done():
			report.TimedOut = true
			return report, ctx.Err()
		default:
		}

		result := c.CheckDocument(doc)
		if result.Failure != nil && c.failFast {
			return report, &ReadError{Path: doc.RelPath, Err: result.Err}
		}
		report.AddResult(result.DocumentResult)
	}

	return report, nil
}

// Result wraps a model.DocumentResult with the underlying read error,
// which the model only carries as a message.
type Result struct {
	model.DocumentResult

	// Err is the read error behind Failure, if any.
	Err error
}

// CheckDocument reads one document and checks all of its links.
// A read failure is reported through the result rather than as an error
// so that callers decide whether to continue.
func (c *Checker) CheckDocument(doc model.Document) Result {
	content, err := readDocument(doc.Path)
	if err != nil {
		c.logger.Warn("failed to read document",
			"document", doc.RelPath,
			"error", err,
		)
		return Result{
			DocumentResult: model.DocumentResult{
				Document: doc,
				Failure:  &model.ReadFailure{SourceFile: doc.RelPath, Error: err.Error()},
			},
			Err: err,
		}
	}
	doc.Content = content

	result := model.DocumentResult{
		Document:    doc,
		BrokenLinks: make([]model.BrokenLink, 0),
	}

	for _, link := range ExtractLinks(doc) {
		kind := c.Classify(link.Target)
		if !kind.Checked() {
			c.logger.Debug("skipping link",
				"document", doc.RelPath,
				"target", link.Target,
				"kind", kind.String(),
			)
			result.LinksSkipped++
			continue
		}

		result.LinksChecked++
		resolved := c.Resolve(doc, link.Target, kind)
		if exists(resolved) {
			continue
		}

		broken := model.BrokenLink{
			SourceFile:    doc.RelPath,
			Link:          link.Target,
			AttemptedPath: c.attemptedPath(resolved),
		}
		c.logger.Debug("broken link",
			"document", doc.RelPath,
			"target", link.Target,
			"attempted", broken.AttemptedPath,
		)
		result.BrokenLinks = append(result.BrokenLinks, broken)
	}

	return Result{DocumentResult: result}
}

// FindBrokenLinks scans basePath with default options and returns the broken
// links in document-traversal then link-occurrence order.
// Unreadable documents are logged and skipped.
func FindBrokenLinks(basePath string) ([]model.BrokenLink, error) {
	if err := CheckBaseDir(basePath); err != nil {
		return nil, err
	}

	report, err := New(basePath).Check(context.Background())
	if err != nil {
		return nil, err
	}
	return report.BrokenLinks, nil
}
