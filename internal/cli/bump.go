// bump.go implements the three release commands: "shipit major",
// "shipit minor", and "shipit patch".
//
// All three share one orchestration path; only the bump kind differs.
// The command wires the concrete git and changelog implementations into the
// release pipeline and renders the result:
//
//	shipit minor             # release, push commits and tags
//	shipit minor --no-push   # release locally only
//	shipit patch --dry-run   # preview the transition and changelog
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/shipit/internal/changelog"
	"github.com/mmr-tortoise/shipit/internal/config"
	"github.com/mmr-tortoise/shipit/internal/gitrepo"
	"github.com/mmr-tortoise/shipit/internal/model"
	"github.com/mmr-tortoise/shipit/internal/release"
)

// previewRule separates the changelog preview from surrounding output
// in dry-run mode.
var previewRule = strings.Repeat("-", 60)

// bumpFlags holds the flag values shared by the three bump commands.
type bumpFlags struct {
	dryRun bool // --dry-run: preview only, mutate nothing
	push   bool // --push/--no-push: push commits and tags after tagging
}

// newBumpCommand creates one of the major/minor/patch commands.
func newBumpCommand(kind model.BumpKind, example string) *cobra.Command {
	flags := &bumpFlags{}

	cmd := &cobra.Command{
		Use:   kind.String(),
		Short: fmt.Sprintf("Release a %s version bump, %s", kind, example),
		Long: fmt.Sprintf(`Release a %s version bump, %s.

The release validates the repository first (clean tree, candidate tag
absent, remote in sync), then regenerates the changelog, rewrites every
configured manifest file, commits, tags, and pushes.`, kind, example),

		// No positional arguments: everything comes from configuration.
		Args: cobra.NoArgs,

		// RunE is used instead of Run so errors reach the Execute
		// error handler in root.go, which maps them to exit codes.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBump(cmd, kind, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "d", false, "Preview the release without making any changes")
	cmd.Flags().BoolVarP(&flags.push, "push", "p", true, "Push changes to the remote (--no-push via --push=false)")

	return cmd
}

// runBump wires the pipeline for one invocation and renders the outcome.
func runBump(cmd *cobra.Command, kind model.BumpKind, flags *bumpFlags) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	root, err := gitrepo.RepoRoot(cwd)
	if err != nil {
		return model.WrapCLIError(model.ExitGitError, "not inside a Git repository", err)
	}
	VerboseLog("repository root: %s", root)

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}
	VerboseLog("remote: %s, changelog tool: %s", cfg.Remote, cfg.Changelog.Tool)

	repo := gitrepo.NewRepository(root, cfg.Remote)
	gen := &changelog.Generator{
		Tool: cfg.Changelog.Tool,
		File: filepath.Join(root, cfg.Changelog.File),
		Dir:  root,
	}

	progress := func(format string, args ...any) {
		fmt.Fprintf(cmd.OutOrStdout(), "[*] "+format+"\n", args...)
	}
	pipeline := release.New(cfg, root, repo, gen, progress)

	result, err := pipeline.Run(kind, release.Options{DryRun: flags.dryRun, Push: flags.push})
	if err != nil {
		return err
	}

	printBumpResult(cmd, cfg, result)
	return nil
}

// printBumpResult renders the terminal state of a successful run.
func printBumpResult(cmd *cobra.Command, cfg config.Config, result *release.Result) {
	out := cmd.OutOrStdout()

	if result.Outcome == release.OutcomeDryRun {
		fmt.Fprintf(out, "[*] would update %s version: %s -> %s\n", result.Kind, result.Previous, result.Next)
		fmt.Fprintln(out, previewRule)
		fmt.Fprint(out, result.ChangelogText)
		fmt.Fprintln(out, previewRule)
		fmt.Fprintln(out, "[*] dry run complete; nothing was changed")
		return
	}

	if result.ChangelogText != "" {
		fmt.Fprint(cmd.OutOrStdout(), result.ChangelogText)
	}
	fmt.Fprintf(out, "[*] changelog written to %s\n", cfg.Changelog.File)
	fmt.Fprintf(out, "[*] released %s (%s bump from %s)\n", result.Next, result.Kind, result.Previous)
	if result.Pushed {
		fmt.Fprintf(out, "[*] pushed commits and tags to %s\n", cfg.Remote)
	} else {
		fmt.Fprintf(out, "[*] push skipped; tag %s exists locally only\n", result.Next)
	}
}
