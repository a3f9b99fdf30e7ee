// Package manifest locates and rewrites version fields inside the
// differently-formatted manifest files that carry the project version.
//
// Three textual encodings exist, each handled by its own Target strategy:
//
//   - SectionKeyTarget: `version = "1.2.3"` inside a named [section] of a
//     sectioned config file (e.g. the [project] table of pyproject.toml).
//   - BareKeyTarget: `version = "1.2.3"` anywhere in the file (e.g. an
//     extension manifest with a top-level version key).
//   - TupleFieldTarget: `"version": (1, 2, 3),` inside a metadata block
//     literal that opens on the file's first line.
//
// All strategies share the same contract: rewrite exactly one line, leave
// every other line byte-identical, normalize line endings to "\n", and
// terminate the file with exactly one trailing newline. Rewriting works on
// lines rather than a parsed document so that comments, ordering, and
// formatting in hand-edited files survive untouched.
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/mmr-tortoise/shipit/internal/model"
)

// Target is a single version-field rewrite strategy bound to a file.
// The release pipeline treats all configured targets uniformly.
type Target interface {
	// Path returns the file the target rewrites, for staging and error messages.
	Path() string

	// Rewrite replaces the version field with the new version and writes the
	// file back in place. A missing field is an error naming the file.
	Rewrite(v model.Version) error
}

// SectionKeyTarget rewrites a `key = "value"` assignment that appears inside
// a named [section] of a sectioned configuration file. Assignments with the
// same key in other sections are ignored.
type SectionKeyTarget struct {
	FilePath string
	Section  string
	Key      string
}

// Path returns the target file path.
func (t SectionKeyTarget) Path() string { return t.FilePath }

// Rewrite scans the file tracking the most recently seen section header and
// replaces the first matching assignment inside the designated section.
func (t SectionKeyTarget) Rewrite(v model.Version) error {
	lines, err := readLines(t.FilePath)
	if err != nil {
		return err
	}

	section := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if name, ok := sectionHeader(trimmed); ok {
			section = name
			continue
		}
		if section != t.Section {
			continue
		}
		if key, ok := assignmentKey(line); ok && key == t.Key {
			// Keep everything up to the "=" as written (indentation included),
			// replacing only the value.
			prefix := strings.TrimRight(line[:strings.Index(line, "=")], " \t")
			lines[i] = fmt.Sprintf("%s = %q", prefix, v.String())
			return saveLines(t.FilePath, lines)
		}
	}

	return fieldNotFound(t.FilePath, fmt.Sprintf("%s.%s", t.Section, t.Key))
}

// BareKeyTarget rewrites a `key = "value"` assignment wherever it first
// appears in the file, with no section scoping.
type BareKeyTarget struct {
	FilePath string
	Key      string
}

// Path returns the target file path.
func (t BareKeyTarget) Path() string { return t.FilePath }

// Rewrite replaces the first matching assignment in the file.
func (t BareKeyTarget) Rewrite(v model.Version) error {
	lines, err := readLines(t.FilePath)
	if err != nil {
		return err
	}

	for i, line := range lines {
		if key, ok := assignmentKey(line); ok && key == t.Key {
			prefix := strings.TrimRight(line[:strings.Index(line, "=")], " \t")
			lines[i] = fmt.Sprintf("%s = %q", prefix, v.String())
			return saveLines(t.FilePath, lines)
		}
	}

	return fieldNotFound(t.FilePath, t.Key)
}

// TupleFieldTarget rewrites a `"key": (M, m, p),` field inside an in-source
// metadata block literal. The block must open on the very first line of the
// file (`<block> = {` or similar); fields outside that block are never
// touched, so a later dictionary that happens to contain the same key is safe.
type TupleFieldTarget struct {
	FilePath string
	Block    string
	Key      string
}

// Path returns the target file path.
func (t TupleFieldTarget) Path() string { return t.FilePath }

// Rewrite replaces the matched field's value with the parenthesized integer
// tuple rendering of the new version, e.g. `(1, 4, 0)`. The key text and its
// indentation are preserved exactly as written.
func (t TupleFieldTarget) Rewrite(v model.Version) error {
	lines, err := readLines(t.FilePath)
	if err != nil {
		return err
	}

	if len(lines) == 0 || !strings.HasPrefix(strings.TrimSpace(lines[0]), t.Block+" =") {
		return fieldNotFound(t.FilePath, fmt.Sprintf("%s block", t.Block))
	}

	// Scan only the first block: count brace depth from the opening line and
	// stop once the block closes.
	depth := 0
	for i, line := range lines {
		depth += strings.Count(line, "{") - strings.Count(line, "}")

		colon := strings.Index(line, ":")
		if colon >= 0 {
			key := strings.Trim(strings.TrimSpace(line[:colon]), `"'`)
			if key == t.Key {
				lines[i] = fmt.Sprintf("%s: %s,", line[:colon], v.Tuple())
				return saveLines(t.FilePath, lines)
			}
		}

		if i > 0 && depth <= 0 {
			break
		}
	}

	return fieldNotFound(t.FilePath, t.Key)
}

// sectionHeader reports whether the trimmed line is a `[name]` section header
// and returns the section name.
func sectionHeader(trimmed string) (string, bool) {
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return "", false
	}
	return trimmed[1 : len(trimmed)-1], true
}

// assignmentKey extracts the key of a `key = value` line.
// Returns false for lines without an "=" separator.
func assignmentKey(line string) (string, bool) {
	before, _, found := strings.Cut(line, "=")
	if !found {
		return "", false
	}
	return strings.TrimSpace(before), true
}

// readLines reads the file and splits it into lines, normalizing CRLF and
// bare CR line endings to LF so that the rewrite output is consistent
// regardless of which platform last touched the file.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to read manifest %s", path), err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n"), nil
}

// saveLines writes the lines back to the file, guaranteeing the file ends
// with exactly one trailing newline. A whitespace-only final line is reduced
// to empty rather than duplicated, which makes the normalization idempotent:
// writing an already-well-terminated file changes no bytes beyond the
// rewritten field.
func saveLines(path string, lines []string) error {
	if len(lines) == 0 || lines[len(lines)-1] != "" {
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines[len(lines)-1] = ""
		} else {
			lines = append(lines, "")
		}
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, fmt.Sprintf("failed to write manifest %s", path), err)
	}
	return nil
}

// fieldNotFound builds the manifest-drift error for a missing version field.
func fieldNotFound(path, field string) error {
	return model.NewCLIError(model.ExitManifestDrift,
		fmt.Sprintf("version field %s not found in %s", field, path))
}
