package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/nao1215/mdlinkcheck/internal/checker"
)

// Default configuration values.
const (
	// DefaultBaseDir is the directory scanned when no other source names one.
	DefaultBaseDir = "docs"

	// DefaultExtension marks documents and is the suffix tried by the
	// extension fallback.
	DefaultExtension = checker.DefaultExtension

	// DefaultConcurrency is the number of documents checked in parallel.
	// Checking is I/O bound on small files, so a handful of workers is enough.
	DefaultConcurrency = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "mdlinkcheck"

	// EnvBaseDir names the environment variable that supplies the base directory.
	EnvBaseDir = "MDLINKCHECK_DIR"
)

// Color modes accepted by --color.
const (
	ColorAuto = "auto"
	ColorOn   = "on"
	ColorOff  = "off"
)

// Config holds all configuration options for a check run.
// It is populated from CLI flags and the rules file and passed through the
// application explicitly rather than kept in global state.
type Config struct {
	// BaseDir is the root of the document tree.
	// All relative paths in the report are expressed relative to it.
	BaseDir string

	// Extension is the document suffix, ".md" by default.
	Extension string

	// IgnorePatterns are path.Match globs for link targets that are not checked.
	IgnorePatterns []string

	// ExcludeDirs are directory base names that are never scanned.
	ExcludeDirs []string

	// Concurrency is the number of documents checked in parallel.
	// The order of the report does not depend on it.
	Concurrency int

	// FailFast aborts the run on the first unreadable document.
	// When false, unreadable documents are reported as warnings and skipped.
	FailFast bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the rules file given with --config.
	// If empty, the tool searches the default locations.
	ConfigFilePath string

	// Rules holds the rules file that was loaded, if any.
	Rules *File

	// JSONReport enables JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// ColorMode is one of ColorAuto, ColorOn or ColorOff.
	// It only affects the text report.
	ColorMode string

	// Record saves the run to the history database.
	Record bool

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/mdlinkcheck on Linux).
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseDir:     DefaultBaseDir,
		Extension:   DefaultExtension,
		Concurrency: DefaultConcurrency,
		ColorMode:   ColorAuto,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for mdlinkcheck.
// On Linux: ~/.local/share/mdlinkcheck
// On macOS: ~/Library/Application Support/mdlinkcheck
// On Windows: %LOCALAPPDATA%\mdlinkcheck
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for mdlinkcheck.
// On Linux: ~/.config/mdlinkcheck
// On macOS: ~/Library/Application Support/mdlinkcheck
// On Windows: %APPDATA%\mdlinkcheck
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ResolveBaseDir picks the base directory from, in order: the positional
// argument, the MDLINKCHECK_DIR environment variable, the rules file and
// DefaultBaseDir.
func ResolveBaseDir(arg string, rules *File) string {
	if arg != "" {
		return arg
	}
	if env := os.Getenv(EnvBaseDir); env != "" {
		return env
	}
	if rules != nil && rules.Dir != "" {
		return rules.Dir
	}
	return DefaultBaseDir
}

// Validate checks if the configuration is valid.
// It returns the first problem found. The base directory is checked last
// because it touches the filesystem.
func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return ErrNoBaseDir
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	switch c.ColorMode {
	case ColorAuto, ColorOn, ColorOff:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidColorMode, c.ColorMode)
	}

	if len(c.Extension) < 2 || !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidExtension, c.Extension)
	}

	for _, pattern := range c.IgnorePatterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidIgnorePattern, pattern)
		}
	}

	return checker.CheckBaseDir(c.BaseDir)
}
