package report

import (
	"io"
	"strconv"

	"fortio.org/safecast"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/mdlinkcheck/internal/model"
)

// maxPieSlices bounds the number of sources shown in the pie chart.
const maxPieSlices = 8

// MarkdownWriter outputs reports as a Markdown document suitable for
// pull request comments and CI job summaries.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := model.NewSummary(report)

	w.writeHeader(md, report)
	w.writeSummaryTable(md, summary)
	w.writeAlert(md, summary)
	w.writeBrokenLinks(md, report)
	w.writeReadFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs only the summary table and alert.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H2("Link Check Summary")
	md.PlainText("")
	w.writeSummaryTable(md, summary)
	w.writeAlert(md, summary)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Broken Links Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base Directory", "`" + report.BaseDir + "`"},
			{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

func statusText(report *model.Report) string {
	if report.TimedOut {
		return "⚠️ Cancelled (partial results)"
	}
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeSummaryTable(md *markdown.Markdown, summary *model.Summary) {
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Documents scanned", strconv.Itoa(summary.DocumentsScanned)},
			{"Links checked", strconv.Itoa(summary.LinksChecked)},
			{"Links skipped", strconv.Itoa(summary.LinksSkipped)},
			{"Healthy links", strconv.Itoa(summary.HealthyLinks())},
			{"**Broken links**", "**" + strconv.Itoa(summary.BrokenCount) + "**"},
			{"Unreadable documents", strconv.Itoa(summary.ReadFailureCount)},
		},
	})
	md.PlainText("")

	if len(summary.BySource) > 1 {
		w.writePieChart(md, summary)
	}
}

// writePieChart writes a mermaid pie chart of broken links per document.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Broken Links by Document"),
		piechart.WithShowData(true),
	)

	for i, source := range summary.BySource {
		if i == maxPieSlices {
			break
		}
		count, err := safecast.Conv[uint64](source.Count)
		if err != nil {
			continue
		}
		chart.LabelAndIntValue(source.SourceFile, count)
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.BrokenCount > 0:
		md.Cautionf("%d broken link(s) found in %d document(s).",
			summary.BrokenCount, len(summary.BySource))
	case summary.ReadFailureCount > 0:
		md.Warningf("No broken links found, but %d document(s) could not be read.",
			summary.ReadFailureCount)
	default:
		md.Tip("No broken links found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, report *model.Report) {
	md.H2("Broken Links")
	md.PlainText("")

	if !report.HasBrokenLinks() {
		md.PlainText("No broken links found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.BrokenLinks))
	for i, link := range report.BrokenLinks {
		rows[i] = []string{
			"`" + link.SourceFile + "`",
			"`" + link.Link + "`",
			"`" + link.AttemptedPath + "`",
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Source", "Broken Link", "Attempted Path"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeReadFailures(md *markdown.Markdown, report *model.Report) {
	if !report.HasReadFailures() {
		return
	}

	md.H2("Unreadable Documents")
	md.PlainText("")

	items := make([]string, len(report.ReadFailures))
	for i, failure := range report.ReadFailures {
		items[i] = "`" + failure.SourceFile + "`: " + failure.Error
	}
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [mdlinkcheck](https://github.com/nao1215/mdlinkcheck)*")
}
