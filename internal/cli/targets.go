// targets.go implements "shipit targets", which shows the release
// configuration as it would apply to the current repository: every manifest
// target with its rewrite strategy, and the version each bump kind would
// produce. Useful for checking a release.yml before cutting a release.
package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/shipit/internal/config"
	"github.com/mmr-tortoise/shipit/internal/gitrepo"
	"github.com/mmr-tortoise/shipit/internal/manifest"
	"github.com/mmr-tortoise/shipit/internal/model"
)

// newTargetsCommand creates the "targets" cobra command.
func newTargetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "Show configured manifest targets and candidate versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTargets(cmd)
		},
	}
}

func runTargets(cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	root, err := gitrepo.RepoRoot(cwd)
	if err != nil {
		return model.WrapCLIError(model.ExitGitError, "not inside a Git repository", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	current, err := manifest.ReadProjectVersion(cfg.ProjectManifestPath(root))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "current version: %s\n", current)
	for _, kind := range []model.BumpKind{model.BumpMajor, model.BumpMinor, model.BumpPatch} {
		fmt.Fprintf(out, "  %-5s -> %s\n", kind, current.Bump(kind))
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Kind", "Path", "Field"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})

	for _, tc := range cfg.Targets {
		table.Append([]string{tc.Kind, tc.Path, tc.Field()})
	}

	table.Render()
	fmt.Fprintf(out, "\n%s", buf.String())
	return nil
}
