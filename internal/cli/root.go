// Package cli implements the cobra-based CLI commands for shipit.
//
// Each bump command (major, minor, patch) plus the targets inspection
// command is defined in its own file within this package. This file defines
// the root command that serves as the parent for all subcommands and handles
// global flags and exit-code translation.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/shipit/internal/model"
)

// verbose enables detailed step logging on stderr.
// Bound to the --verbose persistent flag on the root command.
var verbose bool

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only provides
// help text and global flags. Actual functionality is provided by the
// major/minor/patch bump commands and the targets command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shipit",
		Short: "Release automation: bump, changelog, commit, tag, push",
		Long: `shipit cuts a release in one command: it computes the next semantic
version, validates that the repository is releasable, regenerates the
changelog, rewrites the version field in every configured manifest file,
and commits, tags, and pushes the result.

A dry run previews the version transition and changelog without touching
anything, so it is safe to run speculatively at any time.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// Execute formats them and maps them to exit codes.
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(newBumpCommand(model.BumpMajor, `e.g. "1.x.x" -> "2.0.0"`))
	rootCmd.AddCommand(newBumpCommand(model.BumpMinor, `e.g. "x.1.x" -> "x.2.0"`))
	rootCmd.AddCommand(newBumpCommand(model.BumpPatch, `e.g. "x.x.1" -> "x.x.2"`))
	rootCmd.AddCommand(newTargetsCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them into
// OS exit codes. CLIError values carry their own code, one per failure
// class; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message to stderr.
func printError(message string, underlying error) {
	if underlying != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}
