package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/mdlinkcheck/internal/checker"
	"github.com/nao1215/mdlinkcheck/internal/config"
	"github.com/nao1215/mdlinkcheck/internal/database"
	"github.com/nao1215/mdlinkcheck/internal/log"
	"github.com/nao1215/mdlinkcheck/internal/model"
	"github.com/nao1215/mdlinkcheck/internal/pipeline"
	"github.com/nao1215/mdlinkcheck/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Check a directory of Markdown documents for broken links",
		Long: `Check scans every Markdown document under dir and reports links whose
targets do not exist on disk.

The directory is taken from the argument, then the MDLINKCHECK_DIR
environment variable, then the "dir" key of the rules file, and finally
defaults to "docs".

Link resolution:
  /guide/setup.md    resolved against the scanned directory
  ../api/index.md    resolved against the directory of the document
  setup              also matches setup.md when setup does not exist
  https://..., #top  never checked

Examples:
  # Check the docs directory
  mdlinkcheck check

  # Check another directory with 8 workers
  mdlinkcheck check handbook --concurrency 8

  # Write a JSON report to a file
  mdlinkcheck check -j -o reports/links.json

  # Record the run so that 'mdlinkcheck history' can compare it later
  mdlinkcheck check --record`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCheckCmd,
	}

	// Scanning options
	cmd.Flags().String("extension", config.DefaultExtension,
		"Document suffix, also tried as a fallback for extensionless links")
	cmd.Flags().StringSlice("ignore", nil,
		"Glob pattern for link targets that are not checked (repeatable)")
	cmd.Flags().StringSlice("exclude-dir", nil,
		"Directory name that is never scanned (repeatable)")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of documents checked in parallel")
	cmd.Flags().Bool("fail-fast", false,
		"Abort on the first unreadable document")

	// Output options
	cmd.Flags().BoolP("json", "j", false,
		"Output report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output report in Markdown format")
	cmd.Flags().StringP("output", "o", "",
		"Write report to file instead of stdout")
	cmd.Flags().String("color", config.ColorAuto,
		"Colorize the text report: auto, on or off")

	// History options
	cmd.Flags().Bool("record", false,
		"Save the run to the history database")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")

	// Rules file
	cmd.Flags().StringP("config", "c", "",
		"Path to rules file (default: .mdlinkcheck)")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, getPersistentBool(cmd, "log-json"))

	ctx, stop := signalContext(logger)
	defer stop()

	return runCheck(ctx, cmd, cfg, logger)
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	return getPersistentBool(cmd, "verbose")
}

// getPersistentBool retrieves a boolean root flag from the command or its parent.
func getPersistentBool(cmd *cobra.Command, name string) bool {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return value
}

// loadRules finds and loads the rules file.
// A path given with --config must exist; otherwise a missing file is not an error.
func loadRules(configPath string) (*config.File, error) {
	found := config.FindConfigFile(configPath)
	if found == "" {
		if configPath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, configPath)
		}
		return nil, nil
	}

	rules, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return rules, nil
}

// buildConfig creates a Config from the rules file and cobra command flags.
// Flags that were set explicitly override the rules file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.Rules, err = loadRules(cfg.ConfigFilePath)
	if err != nil {
		return nil, err
	}
	cfg.Rules.ApplyTo(cfg)

	if flags.Changed("extension") {
		if cfg.Extension, err = flags.GetString("extension"); err != nil {
			return nil, err
		}
	}

	ignore, err := flags.GetStringSlice("ignore")
	if err != nil {
		return nil, err
	}
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, ignore...)

	excludeDirs, err := flags.GetStringSlice("exclude-dir")
	if err != nil {
		return nil, err
	}
	cfg.ExcludeDirs = append(cfg.ExcludeDirs, excludeDirs...)

	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return nil, err
		}
	}

	if flags.Changed("fail-fast") {
		if cfg.FailFast, err = flags.GetBool("fail-fast"); err != nil {
			return nil, err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.ColorMode, err = flags.GetString("color"); err != nil {
		return nil, err
	}
	if cfg.Record, err = flags.GetBool("record"); err != nil {
		return nil, err
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose = getVerboseFlag(cmd)

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	cfg.BaseDir = config.ResolveBaseDir(arg, cfg.Rules)

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
// Sensitive values in link targets are masked before they reach w.
func setupLogger(w io.Writer, verbose, jsonLogs bool) *slog.Logger {
	if jsonLogs {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}

// newChecker creates a Checker for cfg.
func newChecker(cfg *config.Config, logger *slog.Logger) *checker.Checker {
	return checker.New(cfg.BaseDir,
		checker.WithExtension(cfg.Extension),
		checker.WithIgnorePatterns(cfg.IgnorePatterns),
		checker.WithExcludeDirs(cfg.ExcludeDirs),
		checker.WithFailFast(cfg.FailFast),
		checker.WithLogger(logger),
	)
}

// runCheck executes the check and writes the report.
func runCheck(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Debug("starting check",
		"base_dir", cfg.BaseDir,
		"concurrency", cfg.Concurrency,
		"fail_fast", cfg.FailFast,
	)

	linkReport := model.NewReport(cfg.BaseDir)
	p := pipeline.DefaultPipeline(newChecker(cfg, logger), cfg.Concurrency,
		pipeline.WithLogger(logger),
	)

	if err := p.Run(ctx, linkReport); err != nil {
		var readErr *checker.ReadError
		if errors.As(err, &readErr) {
			return fmt.Errorf("aborted: %w", err)
		}
		if errors.Is(err, context.Canceled) {
			return errors.New("check cancelled")
		}
		return fmt.Errorf("check failed: %w", err)
	}

	if err := outputReport(cmd.OutOrStdout(), cfg, linkReport); err != nil {
		return err
	}

	if cfg.Verbose {
		summaryWriter := report.NewSimpleWriter(cmd.ErrOrStderr(),
			report.WithColor(resolveColor(cfg.ColorMode, cmd.ErrOrStderr())))
		if _, err := summaryWriter.WriteSummary(model.NewSummary(linkReport)); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if cfg.Record {
		if err := recordRun(ctx, cfg.DBDir, linkReport, logger); err != nil {
			return err
		}
	}

	if linkReport.HasBrokenLinks() {
		return errBrokenLinks
	}
	return nil
}

// reportFormat returns the report format selected by cfg.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// outputReport writes the report to cfg.ReportFile, or to stdout if unset.
func outputReport(stdout io.Writer, cfg *config.Config, linkReport *model.Report) error {
	if cfg.ReportFile == "" {
		return writeReport(stdout, cfg, linkReport)
	}

	if err := ensureParentDir(cfg.ReportFile); err != nil {
		return err
	}

	// Reports list local paths, so only the owner may read them.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeReport(f, cfg, linkReport); err != nil {
		_ = f.Close() //nolint:errcheck // the write error is reported
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// writeReport renders linkReport to w in the format selected by cfg.
func writeReport(w io.Writer, cfg *config.Config, linkReport *model.Report) error {
	format := reportFormat(cfg)
	colored := format == report.FormatText && resolveColor(cfg.ColorMode, w)

	if _, err := report.NewWriter(format, w, colored).Write(linkReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// resolveColor reports whether output to w should be colorized.
// In auto mode, color is used only for terminals and never when NO_COLOR is set.
func resolveColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorOn:
		return true
	case config.ColorOff:
		return false
	}

	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// recordRun saves the report to the history database in dbDir.
func recordRun(ctx context.Context, dbDir string, linkReport *model.Report, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveReport(ctx, linkReport)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	logger.Info("run recorded", "run_id", id, "database", db.Path())
	return nil
}
