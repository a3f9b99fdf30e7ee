package release

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/shipit/internal/config"
	"github.com/mmr-tortoise/shipit/internal/model"
)

// fakeGit is a hand-written GitClient fake that records the order of calls
// and serves scripted responses. It lets pipeline tests verify sequencing
// and short-circuiting without a real repository.
type fakeGit struct {
	calls []string

	tagExists bool
	modified  []string

	staged    []string
	committed []string
	tags      []string

	fetchErr     error
	pullErr      error
	commitErr    error
	tagErr       error
	pushErr      error
	pushTagsErr  error
	tagExistsErr error
}

func (f *fakeGit) FetchTags() error {
	f.calls = append(f.calls, "fetch")
	return f.fetchErr
}

func (f *fakeGit) Pull() error {
	f.calls = append(f.calls, "pull")
	return f.pullErr
}

func (f *fakeGit) PullTags() error {
	f.calls = append(f.calls, "pull-tags")
	return nil
}

func (f *fakeGit) TagExists(tag string) (bool, error) {
	f.calls = append(f.calls, "tag-exists")
	return f.tagExists, f.tagExistsErr
}

func (f *fakeGit) ModifiedPaths() ([]string, error) {
	f.calls = append(f.calls, "modified-paths")
	return f.modified, nil
}

func (f *fakeGit) Stage(paths ...string) error {
	f.calls = append(f.calls, "stage")
	f.staged = append(f.staged, paths...)
	return nil
}

func (f *fakeGit) Commit(message string) error {
	f.calls = append(f.calls, "commit")
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, message)
	return nil
}

func (f *fakeGit) CreateTag(tag string) error {
	f.calls = append(f.calls, "create-tag")
	if f.tagErr != nil {
		return f.tagErr
	}
	f.tags = append(f.tags, tag)
	return nil
}

func (f *fakeGit) Push() error {
	f.calls = append(f.calls, "push")
	return f.pushErr
}

func (f *fakeGit) PushTags() error {
	f.calls = append(f.calls, "push-tags")
	return f.pushTagsErr
}

// fakeChangelog records the generation request and serves scripted output.
type fakeChangelog struct {
	tag    string
	dryRun bool
	called bool

	text string
	err  error
}

func (f *fakeChangelog) Generate(tag string, dryRun bool) (string, error) {
	f.called = true
	f.tag = tag
	f.dryRun = dryRun
	return f.text, f.err
}

const (
	pyprojectContent = "[project]\nname = \"demo\"\nversion = \"0.9.0\"\n"
	addonManifest    = "id = \"demo\"\nversion = \"0.9.0\"\n"
	addonInit        = "addon_info = {\n    \"name\": \"Demo\",\n    \"version\": (0, 9, 0),\n}\n"
)

// setupPipeline creates a repository root populated with the three manifest
// files at version 0.9.0 and returns a pipeline wired to fakes.
func setupPipeline(t *testing.T) (*Pipeline, *fakeGit, *fakeChangelog, string) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "addon"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte(pyprojectContent), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "addon", "manifest.toml"), []byte(addonManifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "addon", "__init__.py"), []byte(addonInit), 0644))

	git := &fakeGit{}
	gen := &fakeChangelog{text: "## 0.10.0\n- things\n"}
	p := New(config.Default(), root, git, gen, nil)
	return p, git, gen, root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func exitCodeOf(t *testing.T, err error) model.ExitCode {
	t.Helper()
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr), "error should carry an exit code: %v", err)
	return cliErr.Code
}

func TestRun_DryRun(t *testing.T) {
	p, git, gen, root := setupPipeline(t)

	result, err := p.Run(model.BumpMinor, Options{DryRun: true, Push: true})
	require.NoError(t, err)

	assert.Equal(t, OutcomeDryRun, result.Outcome)
	assert.Equal(t, model.Version{Major: 0, Minor: 9, Patch: 0}, result.Previous)
	assert.Equal(t, model.Version{Major: 0, Minor: 10, Patch: 0}, result.Next)
	assert.Equal(t, "## 0.10.0\n- things\n", result.ChangelogText)
	assert.False(t, result.Pushed)

	// The gate still runs in dry-run mode, but nothing mutates.
	assert.Contains(t, git.calls, "fetch")
	assert.NotContains(t, git.calls, "stage")
	assert.NotContains(t, git.calls, "commit")
	assert.NotContains(t, git.calls, "create-tag")
	assert.NotContains(t, git.calls, "push")
	assert.True(t, gen.dryRun, "changelog must run in preview mode")

	// No manifest was rewritten.
	assert.Equal(t, pyprojectContent, readFile(t, filepath.Join(root, "pyproject.toml")))
	assert.Equal(t, addonManifest, readFile(t, filepath.Join(root, "addon", "manifest.toml")))
	assert.Equal(t, addonInit, readFile(t, filepath.Join(root, "addon", "__init__.py")))
}

func TestRun_ReleasedWithPush(t *testing.T) {
	p, git, gen, root := setupPipeline(t)

	result, err := p.Run(model.BumpMinor, Options{Push: true})
	require.NoError(t, err)

	assert.Equal(t, OutcomeReleased, result.Outcome)
	assert.True(t, result.Pushed)
	assert.Equal(t, "0.10.0", gen.tag)
	assert.False(t, gen.dryRun)

	// All three manifests carry the new version, the tuple file in tuple form.
	assert.Contains(t, readFile(t, filepath.Join(root, "pyproject.toml")), `version = "0.10.0"`)
	assert.Contains(t, readFile(t, filepath.Join(root, "addon", "manifest.toml")), `version = "0.10.0"`)
	assert.Contains(t, readFile(t, filepath.Join(root, "addon", "__init__.py")), `"version": (0, 10, 0),`)

	// The staged set is the three manifests plus the changelog file.
	assert.Len(t, git.staged, 4)
	assert.Contains(t, git.staged, filepath.Join(root, "CHANGELOG.md"))

	require.Len(t, git.committed, 1)
	assert.Equal(t, "chore(release): prepare for 0.10.0 (minor version)", git.committed[0])
	assert.Equal(t, []string{"0.10.0"}, git.tags)

	// Ordering: gate before edits, stage before commit, commit before tag,
	// tag before pushes, commits pushed before tags.
	assert.Equal(t, []string{
		"fetch", "pull", "pull-tags", "tag-exists", "modified-paths",
		"stage", "commit", "create-tag", "push", "push-tags",
	}, git.calls)
}

func TestRun_PushDisabled(t *testing.T) {
	p, git, _, _ := setupPipeline(t)

	result, err := p.Run(model.BumpPatch, Options{Push: false})
	require.NoError(t, err)

	assert.Equal(t, OutcomeReleased, result.Outcome)
	assert.False(t, result.Pushed)
	assert.NotContains(t, git.calls, "push")
	assert.NotContains(t, git.calls, "push-tags")
}

func TestRun_BumpKinds(t *testing.T) {
	tests := []struct {
		kind     model.BumpKind
		expected string
	}{
		{model.BumpMajor, "1.0.0"},
		{model.BumpMinor, "0.10.0"},
		{model.BumpPatch, "0.9.1"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			p, git, _, _ := setupPipeline(t)

			result, err := p.Run(tt.kind, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Next.String())
			assert.Equal(t, []string{tt.expected}, git.tags)
		})
	}
}

func TestRun_AbortsWhenTagExists(t *testing.T) {
	p, git, gen, root := setupPipeline(t)
	git.tagExists = true

	_, err := p.Run(model.BumpMinor, Options{Push: true})
	require.Error(t, err)
	assert.Equal(t, model.ExitTagExists, exitCodeOf(t, err))
	assert.Contains(t, err.Error(), "0.10.0", "error should name the tag")

	assert.False(t, gen.called, "changelog must not run after a gate failure")
	assert.Equal(t, pyprojectContent, readFile(t, filepath.Join(root, "pyproject.toml")))
}

func TestRun_AbortsWhenWorkspaceDirty(t *testing.T) {
	p, git, gen, root := setupPipeline(t)
	git.modified = []string{"src/app.py", "pyproject.toml"}

	_, err := p.Run(model.BumpMinor, Options{Push: true})
	require.Error(t, err)
	assert.Equal(t, model.ExitDirtyWorkspace, exitCodeOf(t, err))
	assert.Contains(t, err.Error(), "src/app.py", "error should enumerate every modified path")
	assert.Contains(t, err.Error(), "pyproject.toml")

	assert.False(t, gen.called)
	assert.Equal(t, pyprojectContent, readFile(t, filepath.Join(root, "pyproject.toml")))
}

func TestRun_AbortsOnGateFetchFailure(t *testing.T) {
	p, git, gen, _ := setupPipeline(t)
	git.fetchErr = model.NewCLIError(model.ExitGitError, "git fetch origin --tags failed")

	_, err := p.Run(model.BumpMinor, Options{})
	require.Error(t, err)
	assert.Equal(t, model.ExitGitError, exitCodeOf(t, err))
	assert.False(t, gen.called)
	assert.NotContains(t, git.calls, "pull", "fetch failure must short-circuit the gate")
}

func TestRun_AbortsOnVersionParseFailure(t *testing.T) {
	p, git, _, root := setupPipeline(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "pyproject.toml"),
		[]byte("[project]\nversion = \"not-a-version\"\n"), 0644))

	_, err := p.Run(model.BumpMinor, Options{})
	require.Error(t, err)
	assert.Equal(t, model.ExitVersionParse, exitCodeOf(t, err))
	assert.Empty(t, git.calls, "nothing may run before the current version parses")
}

func TestRun_AbortsOnChangelogFailure(t *testing.T) {
	p, git, gen, root := setupPipeline(t)
	gen.err = model.NewCLIError(model.ExitChangelogFailed, "git-cliff --tag 0.10.0 failed")

	_, err := p.Run(model.BumpMinor, Options{})
	require.Error(t, err)
	assert.Equal(t, model.ExitChangelogFailed, exitCodeOf(t, err))

	// Changelog failure precedes the edit step, so no manifest changed.
	assert.Equal(t, pyprojectContent, readFile(t, filepath.Join(root, "pyproject.toml")))
	assert.NotContains(t, git.calls, "stage")
}

func TestRun_ManifestDriftLeavesEarlierEditsOnDisk(t *testing.T) {
	p, git, _, root := setupPipeline(t)

	// Break the second target: the addon manifest loses its version key.
	require.NoError(t, os.WriteFile(filepath.Join(root, "addon", "manifest.toml"),
		[]byte("id = \"demo\"\n"), 0644))

	_, err := p.Run(model.BumpMinor, Options{})
	require.Error(t, err)
	assert.Equal(t, model.ExitManifestDrift, exitCodeOf(t, err))

	// No rollback: the first target was already rewritten and stays that way.
	assert.Contains(t, readFile(t, filepath.Join(root, "pyproject.toml")), `version = "0.10.0"`)
	// The third target was never reached.
	assert.Equal(t, addonInit, readFile(t, filepath.Join(root, "addon", "__init__.py")))

	assert.NotContains(t, git.calls, "commit")
}

func TestRun_CommitFailureStopsBeforeTag(t *testing.T) {
	p, git, _, _ := setupPipeline(t)
	git.commitErr = model.NewCLIError(model.ExitCommitFailed, "failed to create release commit")

	_, err := p.Run(model.BumpMinor, Options{Push: true})
	require.Error(t, err)
	assert.Equal(t, model.ExitCommitFailed, exitCodeOf(t, err))
	assert.NotContains(t, git.calls, "create-tag")
	assert.NotContains(t, git.calls, "push")
}

func TestRun_TagFailureLeavesCommit(t *testing.T) {
	p, git, _, _ := setupPipeline(t)
	git.tagErr = model.NewCLIError(model.ExitGitError, "git tag -a failed")

	_, err := p.Run(model.BumpMinor, Options{Push: true})
	require.Error(t, err)

	// The commit happened and is not undone; pushing never starts.
	assert.Len(t, git.committed, 1)
	assert.NotContains(t, git.calls, "push")
}

func TestRun_PushFailureLeavesLocalState(t *testing.T) {
	p, git, _, _ := setupPipeline(t)
	git.pushErr = model.NewCLIError(model.ExitPushFailed, "failed to push commits")

	_, err := p.Run(model.BumpMinor, Options{Push: true})
	require.Error(t, err)
	assert.Equal(t, model.ExitPushFailed, exitCodeOf(t, err))

	// Local commit and tag survive the failed push.
	assert.Len(t, git.committed, 1)
	assert.Equal(t, []string{"0.10.0"}, git.tags)
	assert.NotContains(t, git.calls, "push-tags", "tag push must not run after a failed commit push")
}
