package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Exit statuses.
const (
	exitOK          = 0
	exitBrokenLinks = 1
	exitError       = 2
)

// errBrokenLinks is returned by check when the report is not clean.
// It maps to exitBrokenLinks and is not printed.
var errBrokenLinks = errors.New("broken links found")

// NewRootCmd creates the root command for mdlinkcheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdlinkcheck",
		Short: "Find broken links in a tree of Markdown documents",
		Long: `mdlinkcheck scans a directory of Markdown documents and reports relative
and site-absolute links whose targets do not exist on disk.

External links (http://, https://) and in-page anchors (#section) are not
checked. The scan is offline and never modifies any file.

Exit status is 0 when no broken links are found, 1 when at least one broken
link is found, and 2 on any error.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write log records to stderr as JSON lines")

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with the matching status.
func Execute() {
	os.Exit(exitCode(NewRootCmd().Execute(), os.Stderr))
}

// exitCode maps the error returned by a command to an exit status.
// Errors other than errBrokenLinks are printed to stderr.
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errBrokenLinks):
		return exitBrokenLinks
	default:
		fmt.Fprintln(stderr, err)
		return exitError
	}
}
