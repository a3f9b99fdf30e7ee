// Package release implements the release pipeline: the ordered sequence of
// pre-flight validation, version bump, changelog generation, manifest
// rewriting, and the commit/tag/push transaction.
//
// The pipeline is a straight-line state machine. Every step is a
// precondition for the next, and the first failure halts the run, leaving
// the system in whatever state the last fully-completed step produced.
// Nothing is retried and nothing is rolled back: a failed manifest edit
// leaves earlier edits on disk, a failed tag leaves the commit, a failed
// push leaves both. The operator remediates from the reported error and
// re-runs.
//
// Exactly one pipeline run may operate on a working tree at a time. The
// pipeline performs no locking of its own; exclusivity is an operational
// convention.
package release

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/shipit/internal/config"
	"github.com/mmr-tortoise/shipit/internal/manifest"
	"github.com/mmr-tortoise/shipit/internal/model"
)

// GitClient is the capability interface the pipeline requires from the
// version-control backend. internal/gitrepo provides the git CLI
// implementation; tests substitute a fake.
type GitClient interface {
	// FetchTags downloads remote tag/commit metadata.
	FetchTags() error

	// Pull synchronizes the local branch with its upstream.
	Pull() error

	// PullTags synchronizes the local tag set with the remote.
	PullTags() error

	// TagExists reports whether the tag already exists.
	TagExists(tag string) (bool, error)

	// ModifiedPaths returns tracked paths with staged or unstaged
	// modifications, deduplicated.
	ModifiedPaths() ([]string, error)

	// Stage adds paths to the index.
	Stage(paths ...string) error

	// Commit creates a commit from the staged files.
	Commit(message string) error

	// CreateTag creates an annotated tag on HEAD.
	CreateTag(tag string) error

	// Push force-pushes the current branch to the remote.
	Push() error

	// PushTags pushes all tags to the remote.
	PushTags() error
}

// ChangelogGenerator is the capability interface over the external
// changelog tool.
type ChangelogGenerator interface {
	Generate(tag string, dryRun bool) (string, error)
}

// Outcome is the terminal state of a successful pipeline run. Aborted runs
// terminate with an error instead.
type Outcome string

const (
	// OutcomeDryRun means the pipeline previewed the release and stopped
	// before mutating anything.
	OutcomeDryRun Outcome = "dry-run-complete"

	// OutcomeReleased means manifests were rewritten, committed, and tagged
	// (and pushed, if pushing was enabled).
	OutcomeReleased Outcome = "released"
)

// Options control the two execution toggles of a run.
type Options struct {
	// DryRun previews the version transition and changelog without
	// mutating files or repository state.
	DryRun bool

	// Push pushes commits and tags to the remote after tagging.
	Push bool
}

// Result describes a completed (non-aborted) run.
type Result struct {
	Kind     model.BumpKind
	Previous model.Version
	Next     model.Version
	Outcome  Outcome

	// ChangelogText is the changelog tool's captured output: the full
	// preview in dry-run mode, or whatever the tool printed alongside
	// writing the file otherwise.
	ChangelogText string

	// Pushed reports whether commits and tags reached the remote.
	Pushed bool
}

// Pipeline wires the release steps together. Construct with New.
type Pipeline struct {
	cfg       config.Config
	root      string
	git       GitClient
	changelog ChangelogGenerator

	// progress receives step-by-step status lines for the operator.
	progress func(format string, args ...any)
}

// New creates a Pipeline for the repository rooted at root.
// progress may be nil to discard status output.
func New(cfg config.Config, root string, git GitClient, gen ChangelogGenerator, progress func(format string, args ...any)) *Pipeline {
	if progress == nil {
		progress = func(string, ...any) {}
	}
	return &Pipeline{cfg: cfg, root: root, git: git, changelog: gen, progress: progress}
}

// Run executes the pipeline for one bump kind.
//
// Step order matters: the candidate version is computed first so the gate
// can check the exact tag name, and the gate runs before any file is
// touched, guaranteeing the pipeline never starts mutating files it cannot
// safely commit.
func (p *Pipeline) Run(kind model.BumpKind, opts Options) (*Result, error) {
	// Step 1: compute the candidate version from the committed manifest.
	current, err := manifest.ReadProjectVersion(p.cfg.ProjectManifestPath(p.root))
	if err != nil {
		return nil, err
	}
	next := current.Bump(kind)
	tag := next.String()

	// Step 2: gate. Re-evaluated fresh on every run, never cached.
	if err := p.gate(tag); err != nil {
		return nil, err
	}
	if opts.DryRun {
		p.progress("would update %s version: %s -> %s", kind, current, next)
	} else {
		p.progress("updating %s version: %s -> %s", kind, current, next)
	}

	// Step 3: changelog. In dry-run mode this is the last step.
	p.progress("generating changelog for %s", tag)
	text, err := p.changelog.Generate(tag, opts.DryRun)
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		return &Result{
			Kind: kind, Previous: current, Next: next,
			Outcome: OutcomeDryRun, ChangelogText: text,
		}, nil
	}

	// Step 4: rewrite every manifest target. The first failure aborts;
	// targets already rewritten in this run stay modified on disk for the
	// operator to resolve or discard.
	targets := p.cfg.BuildTargets(p.root)
	for _, target := range targets {
		p.progress("rewriting %s", target.Path())
		if err := target.Rewrite(next); err != nil {
			return nil, err
		}
	}

	// Step 5: stage the rewritten manifests plus the changelog and commit.
	files := make([]string, 0, len(targets)+1)
	for _, target := range targets {
		files = append(files, target.Path())
	}
	files = append(files, filepath.Join(p.root, p.cfg.Changelog.File))

	if err := p.git.Stage(files...); err != nil {
		return nil, err
	}
	message := p.cfg.CommitMessage(kind, next)
	p.progress("committing: %s", message)
	if err := p.git.Commit(message); err != nil {
		return nil, err
	}

	// Step 6: annotated tag on the just-created commit. Failure here is
	// fatal and requires manual tagging; the commit is not undone.
	p.progress("tagging %s", tag)
	if err := p.git.CreateTag(tag); err != nil {
		return nil, err
	}

	// Step 7: push commits, then tags. Failure leaves local state intact.
	result := &Result{
		Kind: kind, Previous: current, Next: next,
		Outcome: OutcomeReleased, ChangelogText: text,
	}
	if opts.Push {
		p.progress("pushing commits and tags to %s", p.cfg.Remote)
		if err := p.git.Push(); err != nil {
			return nil, err
		}
		if err := p.git.PushTags(); err != nil {
			return nil, err
		}
		result.Pushed = true
	}

	return result, nil
}

// gate validates that the repository is in a releasable state. Each check
// is an abort point; nothing on disk is touched.
func (p *Pipeline) gate(tag string) error {
	if err := p.git.FetchTags(); err != nil {
		return err
	}
	if err := p.git.Pull(); err != nil {
		return err
	}
	if err := p.git.PullTags(); err != nil {
		return err
	}

	exists, err := p.git.TagExists(tag)
	if err != nil {
		return err
	}
	if exists {
		return model.NewCLIError(model.ExitTagExists,
			fmt.Sprintf("tag %q already exists", tag))
	}

	modified, err := p.git.ModifiedPaths()
	if err != nil {
		return err
	}
	if len(modified) > 0 {
		return model.NewCLIError(model.ExitDirtyWorkspace,
			fmt.Sprintf("found modified files:\n%s\ncommit or stash changes before releasing",
				strings.Join(modified, "\n")))
	}

	return nil
}
