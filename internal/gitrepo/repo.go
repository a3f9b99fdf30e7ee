// Package gitrepo provides the version-control operations the release
// pipeline needs: remote synchronization, working-tree inspection, tag
// queries, and the commit/tag/push transaction steps.
//
// Design decisions:
//   - We shell out to `git` rather than using a Go Git library (e.g., go-git)
//     because the pipeline must interoperate with whatever hooks, credential
//     helpers, and config the operator's git installation carries, and a
//     reimplementation would bypass all of them.
//   - All invocations are synchronous and blocking with no timeout. A hung
//     fetch blocks the whole pipeline; that is an accepted limitation of a
//     tool that runs attended in a terminal.
//   - The one distinguished commit failure — a pre-commit hook rewriting
//     tracked content and refusing the commit — is translated into the named
//     ErrHookModifiedFiles variant here and nowhere else, so the numeric
//     status stays out of the rest of the codebase.
package gitrepo

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/shipit/internal/model"
)

// ErrHookModifiedFiles reports that a pre-commit hook modified tracked
// content and blocked the release commit. Callers match it with errors.Is
// and present the re-run instruction instead of a generic commit failure.
var ErrHookModifiedFiles = errors.New("pre-commit hook modified tracked files")

// hookModifiedExitStatus is the exit status the repository's pre-commit hook
// uses to signal that it rewrote tracked content (stale generated metadata)
// and blocked the commit. This constant is the single point coupling the
// pipeline to the hook's failure signal.
const hookModifiedExitStatus = 99

// Repository wraps git CLI operations scoped to one working tree and one
// named remote. It is stateless; every method re-runs git so the pipeline
// always observes fresh repository state.
type Repository struct {
	dir    string
	remote string
}

// NewRepository creates a Repository operating on the working tree at dir,
// pushing to and fetching from the named remote.
func NewRepository(dir, remote string) *Repository {
	return &Repository{dir: dir, remote: remote}
}

// FetchTags downloads tag and commit metadata from the remote without
// touching the working tree. Network failure is surfaced, not retried.
func (r *Repository) FetchTags() error {
	_, err := r.run("fetch", r.remote, "--tags")
	return err
}

// Pull synchronizes the current branch with its upstream.
func (r *Repository) Pull() error {
	_, err := r.run("pull")
	return err
}

// PullTags synchronizes the local tag set with the remote.
func (r *Repository) PullTags() error {
	_, err := r.run("pull", "--tags")
	return err
}

// TagExists reports whether a tag with the given name exists locally.
// Run after FetchTags/PullTags, this reflects the remote tag set too.
func (r *Repository) TagExists(tag string) (bool, error) {
	out, err := r.run("tag", "--list", tag)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// ModifiedPaths returns every tracked path with uncommitted modifications:
// the union of unstaged changes (diff against the index) and staged changes
// (diff of the index against HEAD), deduplicated, in first-seen order.
// Untracked files are deliberately excluded — they cannot collide with the
// release commit.
func (r *Repository) ModifiedPaths() ([]string, error) {
	unstaged, err := r.run("diff", "--name-only")
	if err != nil {
		return nil, err
	}
	staged, err := r.run("diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var paths []string
	for _, out := range []string{unstaged, staged} {
		for _, line := range strings.Split(out, "\n") {
			path := strings.TrimSpace(line)
			if path == "" || seen[path] {
				continue
			}
			seen[path] = true
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// Stage adds the given paths to the index in preparation for the release
// commit. Paths are passed after "--" so names can never be mistaken for refs.
func (r *Repository) Stage(paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := r.run(args...)
	return err
}

// Commit creates a commit from the staged files with the given message.
//
// The hook-blocked condition is detected here: if git exits with the
// distinguished status, the returned error wraps ErrHookModifiedFiles and
// carries its own exit code; any other non-zero exit is a generic commit
// failure. Either way the pipeline stops — manifests are already rewritten
// on disk and the operator resolves from there.
func (r *Repository) Commit(message string) error {
	_, err := r.run("commit", "-m", message)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == hookModifiedExitStatus {
		return model.WrapCLIError(model.ExitHookModifiedFiles,
			"commit blocked: generated version metadata is stale; regenerate it and re-run the release",
			ErrHookModifiedFiles)
	}
	return model.WrapCLIError(model.ExitCommitFailed, "failed to create release commit", err)
}

// CreateTag creates an annotated tag with the given name on HEAD.
// The tag name is exactly the version string, with no "v" prefix.
func (r *Repository) CreateTag(tag string) error {
	_, err := r.run("tag", "-a", tag, "-m", "release "+tag)
	return err
}

// Push force-pushes the current branch to the remote. Force is required
// because the remote ref may have diverged from an earlier aborted release;
// the just-created release commit is authoritative.
func (r *Repository) Push() error {
	if _, err := r.run("push", "--force", r.remote); err != nil {
		return model.WrapCLIError(model.ExitPushFailed, "failed to push commits", err)
	}
	return nil
}

// PushTags pushes all local tags to the remote.
func (r *Repository) PushTags() error {
	if _, err := r.run("push", r.remote, "--tags"); err != nil {
		return model.WrapCLIError(model.ExitPushFailed, "failed to push tags", err)
	}
	return nil
}

// RepoRoot returns the absolute path to the top-level directory of the
// repository containing the given path, via `git rev-parse --show-toplevel`.
// The release pipeline resolves all configured manifest paths against it.
func RepoRoot(path string) (string, error) {
	r := &Repository{dir: path}
	out, err := r.run("rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// run executes a git command in the repository directory.
//
// It captures stdout and stderr separately. On success it returns stdout.
// On failure it returns a model.CLIError with ExitGitError, folding the
// stderr output into the message for diagnostics; the raw exec error stays
// wrapped underneath so callers can still inspect the exit status.
//
// The directory is passed via the -C flag, which git handles itself and
// which works correctly with every subcommand, instead of changing the
// process working directory.
func (r *Repository) run(args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.Command("git", fullArgs...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("git %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitGitError, message, err)
	}

	return stdout.String(), nil
}
