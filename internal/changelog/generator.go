// Package changelog drives the external changelog generator.
//
// The generator tool (git-cliff by default) owns commit grouping and
// changelog formatting; this package only invokes it scoped to the candidate
// release tag and decides whether the output lands in the changelog file or
// is returned as a preview. A non-zero exit is fatal and never retried: it
// means the tool's configuration or the commit history is wrong, and a
// retry cannot fix either.
package changelog

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/shipit/internal/model"
)

// Generator invokes an external changelog tool for a candidate release tag.
type Generator struct {
	// Tool is the executable to invoke, e.g. "git-cliff".
	Tool string

	// File is the changelog path the tool writes in non-dry-run mode.
	File string

	// Dir is the working directory for the invocation, normally the
	// repository root so the tool sees the right commit history.
	Dir string
}

// Generate runs the changelog tool scoped to the given tag.
//
// In dry-run mode the tool's stdout is captured and returned as a preview;
// no file is written. Otherwise the tool is instructed to write the
// changelog file directly via -o, and whatever it still prints is returned
// for display.
func (g *Generator) Generate(tag string, dryRun bool) (string, error) {
	args := []string{"--tag", tag}
	if !dryRun {
		args = append(args, "-o", g.File)
	}

	// #nosec G204 — tool and args come from validated configuration
	cmd := exec.Command(g.Tool, args...)
	cmd.Dir = g.Dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := fmt.Sprintf("%s --tag %s failed", g.Tool, tag)
		if s := strings.TrimSpace(stderr.String()); s != "" {
			message = fmt.Sprintf("%s: %s", message, s)
		}
		return "", model.WrapCLIError(model.ExitChangelogFailed, message, err)
	}

	return stdout.String(), nil
}
