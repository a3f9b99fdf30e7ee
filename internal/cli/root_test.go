// Package cli — root_test.go covers command registration and flag wiring.
// Pipeline behavior itself is tested in internal/release; these tests only
// verify that the CLI surface exposes it correctly.
package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand_RegistersSubcommands(t *testing.T) {
	rootCmd := NewRootCommand()

	names := make([]string, 0, 4)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	assert.Contains(t, names, "major")
	assert.Contains(t, names, "minor")
	assert.Contains(t, names, "patch")
	assert.Contains(t, names, "targets")
}

func TestNewRootCommand_SilencesCobraOutput(t *testing.T) {
	rootCmd := NewRootCommand()

	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestBumpCommand_FlagDefaults(t *testing.T) {
	rootCmd := NewRootCommand()

	for _, name := range []string{"major", "minor", "patch"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{name})
			require.NoError(t, err)

			dryRun := cmd.Flags().Lookup("dry-run")
			require.NotNil(t, dryRun)
			assert.Equal(t, "false", dryRun.DefValue)

			push := cmd.Flags().Lookup("push")
			require.NotNil(t, push)
			assert.Equal(t, "true", push.DefValue)
		})
	}
}

func TestBumpCommand_RejectsPositionalArgs(t *testing.T) {
	rootCmd := NewRootCommand()

	cmd, _, err := rootCmd.Find([]string{"minor"})
	require.NoError(t, err)

	assert.Error(t, cmd.Args(cmd, []string{"unexpected"}))
}
