// Package main is the entry point for the shipit CLI.
//
// This binary cuts releases: it computes the next semantic version,
// validates the repository, regenerates the changelog, rewrites version
// fields across the configured manifest files, and commits, tags, and
// pushes the result. It delegates all functionality to the internal/cli
// package, which defines cobra commands.
package main

import (
	"github.com/mmr-tortoise/shipit/internal/cli"
)

// version, commit, and date are set by GoReleaser at build time
// via ldflags. They provide binary identification for the --version
// flag output.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject build-time version info into the CLI package.
	// This decouples the build system (GoReleaser ldflags) from the
	// CLI framework (cobra), keeping main.go minimal.
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
