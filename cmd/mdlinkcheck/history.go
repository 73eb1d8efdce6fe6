package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/mdlinkcheck/internal/config"
	"github.com/nao1215/mdlinkcheck/internal/database"
	"github.com/nao1215/mdlinkcheck/internal/model"
	"github.com/spf13/cobra"
)

// errNotEnoughRuns is returned when a comparison needs more recorded runs.
var errNotEnoughRuns = errors.New("at least two recorded runs are required to compare")

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	baseDir   string
	dbDir     string
	list      bool
	listDirs  bool
	withRunID int64
	since     string
	prune     int
	json      bool
	markdown  bool
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [dir]",
		Short: "Compare recorded runs to see which links broke or were fixed",
		Long: `History reads the runs saved by 'mdlinkcheck check --record' and shows
the links that became broken and the links that were fixed between two
runs of the same directory.

The directory is resolved the same way as for 'mdlinkcheck check'.

Examples:
  # Compare the latest two runs of docs
  mdlinkcheck history

  # List recorded runs
  mdlinkcheck history --list

  # Compare run 5 with the latest run
  mdlinkcheck history -i 5

  # Compare the first run since a date with the latest run
  mdlinkcheck history --since 2026-01-01

  # Keep only the newest 10 runs
  mdlinkcheck history --prune 10

  # List every directory with recorded runs
  mdlinkcheck history --list-dirs`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List recorded runs for the directory")
	cmd.Flags().BoolP("list-dirs", "L", false,
		"List all directories with recorded runs")

	// Comparison target flags
	cmd.Flags().Int64P("with-run-id", "i", 0,
		"Compare a specific run with the latest run (use --list to see IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare the first run on or after this date (format: YYYY-MM-DD)")

	// Maintenance
	cmd.Flags().Int("prune", -1,
		"Delete all but the newest N runs for the directory")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	return cmd
}

// parseHistoryOptions reads the history flags and resolves the directory.
func parseHistoryOptions(cmd *cobra.Command, args []string) (*historyOptions, error) {
	flags := cmd.Flags()
	opts := &historyOptions{}

	var err error
	if opts.list, err = flags.GetBool("list"); err != nil {
		return nil, err
	}
	if opts.listDirs, err = flags.GetBool("list-dirs"); err != nil {
		return nil, err
	}
	if opts.withRunID, err = flags.GetInt64("with-run-id"); err != nil {
		return nil, err
	}
	if opts.since, err = flags.GetString("since"); err != nil {
		return nil, err
	}
	if opts.prune, err = flags.GetInt("prune"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	if opts.json && opts.markdown {
		return nil, config.ErrConflictingReportFormats
	}
	if opts.withRunID != 0 && opts.since != "" {
		return nil, errors.New("--with-run-id and --since cannot be used together")
	}
	if flags.Changed("prune") && opts.prune < 0 {
		return nil, errors.New("--prune must not be negative")
	}

	if opts.dbDir == "" {
		opts.dbDir = config.XDGDataDir()
	}

	if len(args) > 0 {
		opts.baseDir = args[0]
		return opts, nil
	}

	// The rules file only matters when it names the directory.
	rules, err := loadRules("")
	if err != nil {
		return nil, err
	}
	opts.baseDir = config.ResolveBaseDir("", rules)

	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case opts.listDirs:
		return listBaseDirs(ctx, out, db)
	case opts.prune >= 0:
		return pruneRuns(ctx, out, db, opts)
	case opts.list:
		return listRuns(ctx, out, db, opts.baseDir)
	default:
		return runComparison(ctx, out, db, opts)
	}
}

// listBaseDirs lists all directories that have recorded runs.
func listBaseDirs(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	dirs, err := db.ListBaseDirs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list directories: %w", err)
	}

	if len(dirs) == 0 {
		fmt.Fprintln(out, "No recorded runs found in the database.")
		fmt.Fprintln(out, "\nUse 'mdlinkcheck check --record <dir>' to record a run.")
		return nil
	}

	fmt.Fprintf(out, "Recorded directories (%d):\n\n", len(dirs))
	for _, dir := range dirs {
		fmt.Fprintf(out, "  • %s\n", dir)
	}
	fmt.Fprintln(out, "\nUse 'mdlinkcheck history --list <dir>' to see the runs of a directory.")

	return nil
}

// listRuns lists all recorded runs for baseDir, newest first.
func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, baseDir string) error {
	runs, err := db.ListRuns(ctx, baseDir)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No recorded runs found for %s\n", baseDir)
		fmt.Fprintln(out, "\nUse 'mdlinkcheck check --record' to record a run.")
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", baseDir, len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %s\n", "ID", "Date", "Summary")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %s\n",
			run.ID,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			formatRunSummary(run),
		)
	}

	fmt.Fprintln(out, "\nUse 'mdlinkcheck history' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'mdlinkcheck history -i <id>' to compare a specific run with the latest.")

	return nil
}

// formatRunSummary formats the counts of a run on one line.
func formatRunSummary(run database.RunMetadata) string {
	parts := []string{
		fmt.Sprintf("%d docs", run.DocumentsScanned),
		fmt.Sprintf("%d checked", run.LinksChecked),
		fmt.Sprintf("%d broken", run.BrokenCount),
	}
	if run.ReadFailureCount > 0 {
		parts = append(parts, fmt.Sprintf("%d unreadable", run.ReadFailureCount))
	}
	return strings.Join(parts, ", ")
}

// pruneRuns deletes old runs of the directory.
func pruneRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, opts *historyOptions) error {
	deleted, err := db.PruneRuns(ctx, opts.baseDir, opts.prune)
	if err != nil {
		return fmt.Errorf("failed to prune runs: %w", err)
	}
	fmt.Fprintf(out, "Deleted %d run(s) for %s, kept at most %d.\n", deleted, opts.baseDir, opts.prune)
	return nil
}

// selectRuns picks the older and newer run to compare.
// runs must be ordered newest first.
func selectRuns(runs []database.RunMetadata, withRunID int64, since string) (from, to database.RunMetadata, err error) {
	if len(runs) < 2 {
		return from, to, errNotEnoughRuns
	}
	to = runs[0]

	switch {
	case withRunID != 0:
		for _, run := range runs {
			if run.ID == withRunID {
				from = run
				break
			}
		}
		if from.ID == 0 {
			return from, to, fmt.Errorf("%w: %d", database.ErrRunNotFound, withRunID)
		}
		if from.ID == to.ID {
			return from, to, fmt.Errorf("run %d is the latest run; choose an older one", withRunID)
		}
	case since != "":
		sinceTime, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return from, to, fmt.Errorf("invalid date format %q (expected YYYY-MM-DD): %w", since, err)
		}
		// Oldest run on or after the date, excluding the latest.
		for i := len(runs) - 1; i > 0; i-- {
			if !runs[i].Timestamp.Before(sinceTime) {
				from = runs[i]
				break
			}
		}
		if from.ID == 0 {
			return from, to, fmt.Errorf("no run found on or after %s other than the latest", since)
		}
	default:
		from = runs[1]
	}

	return from, to, nil
}

// runComparison compares two runs of the directory and prints the result.
func runComparison(ctx context.Context, out io.Writer, db *database.HistoryDB, opts *historyOptions) error {
	runs, err := db.ListRuns(ctx, opts.baseDir)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	from, to, err := selectRuns(runs, opts.withRunID, opts.since)
	if err != nil {
		if errors.Is(err, errNotEnoughRuns) {
			return fmt.Errorf("%w (found %d for %s)", err, len(runs), opts.baseDir)
		}
		return err
	}

	diff, err := db.Diff(ctx, from.ID, to.ID)
	if err != nil {
		return fmt.Errorf("failed to compare runs: %w", err)
	}

	switch {
	case opts.json:
		return outputDiffJSON(out, diff)
	case opts.markdown:
		return outputDiffMarkdown(out, opts.baseDir, from, to, diff)
	default:
		outputDiffText(out, opts.baseDir, from, to, diff)
		return nil
	}
}

// outputDiffJSON writes the comparison as indented JSON.
func outputDiffJSON(out io.Writer, diff *database.RunDiff) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(diff)
}

// outputDiffText writes the comparison in human-readable form.
func outputDiffText(out io.Writer, baseDir string, from, to database.RunMetadata, diff *database.RunDiff) {
	fmt.Fprintf(out, "Comparing runs for %s\n", baseDir)
	fmt.Fprintf(out, "  from: #%d (%s)\n", from.ID, from.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  to:   #%d (%s)\n\n", to.ID, to.Timestamp.Local().Format("2006-01-02 15:04:05"))

	if !diff.HasChanges() {
		fmt.Fprintf(out, "No changes. %d broken link(s) in both runs.\n", diff.Unchanged)
		return
	}

	if len(diff.New) > 0 {
		fmt.Fprintf(out, "Newly broken (%d):\n", len(diff.New))
		for _, link := range diff.New {
			fmt.Fprintf(out, "  + %s: %s\n", link.SourceFile, link.Link)
		}
		fmt.Fprintln(out)
	}

	if len(diff.Fixed) > 0 {
		fmt.Fprintf(out, "Fixed (%d):\n", len(diff.Fixed))
		for _, link := range diff.Fixed {
			fmt.Fprintf(out, "  - %s: %s\n", link.SourceFile, link.Link)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "Unchanged: %d\n", diff.Unchanged)
}

// outputDiffMarkdown writes the comparison as a Markdown document.
func outputDiffMarkdown(out io.Writer, baseDir string, from, to database.RunMetadata, diff *database.RunDiff) error {
	md := markdown.NewMarkdown(out)

	md.H1("Broken Links Comparison")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base Directory", "`" + baseDir + "`"},
			{"From", "#" + strconv.FormatInt(from.ID, 10) + " " + from.Timestamp.Format(time.RFC3339)},
			{"To", "#" + strconv.FormatInt(to.ID, 10) + " " + to.Timestamp.Format(time.RFC3339)},
			{"Newly broken", strconv.Itoa(len(diff.New))},
			{"Fixed", strconv.Itoa(len(diff.Fixed))},
			{"Unchanged", strconv.Itoa(diff.Unchanged)},
		},
	})
	md.PlainText("")

	switch {
	case len(diff.New) > 0:
		md.Cautionf("%d link(s) broke since run #%d.", len(diff.New), from.ID)
	case len(diff.Fixed) > 0:
		md.Tip("No new broken links.")
	default:
		md.Note("No changes between the two runs.")
	}
	md.PlainText("")

	writeDiffSection(md, "Newly Broken", diff.New)
	writeDiffSection(md, "Fixed", diff.Fixed)

	return md.Build()
}

// writeDiffSection writes a table of links under an H2 heading.
func writeDiffSection(md *markdown.Markdown, title string, links []model.BrokenLink) {
	if len(links) == 0 {
		return
	}

	md.H2(title)
	md.PlainText("")

	rows := make([][]string, len(links))
	for i, link := range links {
		rows[i] = []string{"`" + link.SourceFile + "`", "`" + link.Link + "`"}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Link"},
		Rows:   rows,
	})
	md.PlainText("")
}
