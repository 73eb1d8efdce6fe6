package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/nao1215/mdlinkcheck/internal/model"
)

// Text report lines. Scripts parse this format, so it must not change.
const (
	noBrokenLinksLine = "No broken links found in the docs directory."
	reportHeaderLine  = "--- Broken Links Report ---"
	recordSeparator   = "--------------------"
)

// SimpleWriter outputs the plain text report.
//
// Without color the output is byte-for-byte the historical format. With
// color the same lines are written with ANSI styling around the labels.
type SimpleWriter struct {
	baseWriter

	colored bool

	header  *color.Color
	label   *color.Color
	broken  *color.Color
	success *color.Color
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithColor enables ANSI colors regardless of the terminal and NO_COLOR.
// Callers decide whether color is wanted.
func WithColor(colored bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.colored = colored
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.header = newColor(w.colored, color.FgRed, color.Bold)
	w.label = newColor(w.colored, color.Bold)
	w.broken = newColor(w.colored, color.FgYellow)
	w.success = newColor(w.colored, color.FgGreen)

	return w
}

func newColor(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Write outputs the broken links of report in the text format.
// Read failures are not part of this format; the CLI reports them on stderr.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	if !report.HasBrokenLinks() {
		sb.WriteString(w.success.Sprint(noBrokenLinksLine))
		sb.WriteString("\n")
		return io.WriteString(w.output, sb.String())
	}

	sb.WriteString(w.header.Sprint(reportHeaderLine))
	sb.WriteString("\n")
	for _, link := range report.BrokenLinks {
		fmt.Fprintf(&sb, "%s %s\n", w.label.Sprint("Source:"), link.SourceFile)
		fmt.Fprintf(&sb, "  %s %s\n", w.label.Sprint("Broken Link:"), w.broken.Sprint(link.Link))
		fmt.Fprintf(&sb, "  %s %s\n", w.label.Sprint("Attempted Path:"), link.AttemptedPath)
		sb.WriteString(recordSeparator)
		sb.WriteString("\n")
	}

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs the run totals and the sources with the most broken
// links, one line each.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s %d documents, %d links checked, %d skipped, %d broken",
		w.label.Sprint("Summary:"),
		summary.DocumentsScanned,
		summary.LinksChecked,
		summary.LinksSkipped,
		summary.BrokenCount,
	)
	if summary.ReadFailureCount > 0 {
		fmt.Fprintf(&sb, ", %d unreadable", summary.ReadFailureCount)
	}
	sb.WriteString("\n")

	for _, source := range summary.BySource {
		fmt.Fprintf(&sb, "  %s: %d\n", source.SourceFile, source.Count)
	}

	return io.WriteString(w.output, sb.String())
}
