// Package model defines the domain types shared across the shipit CLI.
//
// The release pipeline passes these types between components: the semantic
// version being released, the kind of bump requested, and the error/exit-code
// vocabulary that lets the CLI layer translate domain failures into process
// exit codes.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// BumpKind selects which component of a semantic version is incremented.
type BumpKind string

const (
	// BumpMajor increments the major component and resets minor and patch.
	BumpMajor BumpKind = "major"

	// BumpMinor increments the minor component and resets patch.
	BumpMinor BumpKind = "minor"

	// BumpPatch increments the patch component only.
	BumpPatch BumpKind = "patch"
)

// String returns the string representation of BumpKind.
// This satisfies fmt.Stringer for CLI output and commit messages.
func (k BumpKind) String() string {
	return string(k)
}

// IsValid checks whether the BumpKind value is one of the three
// defined bump kinds.
func (k BumpKind) IsValid() bool {
	switch k {
	case BumpMajor, BumpMinor, BumpPatch:
		return true
	default:
		return false
	}
}

// ParseBumpKind converts a string to a BumpKind.
// Returns an error if the string does not match any valid kind.
func ParseBumpKind(s string) (BumpKind, error) {
	kind := BumpKind(strings.ToLower(s))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid bump kind: %q (valid: major, minor, patch)", s)
	}
	return kind, nil
}

// Version is a semantic version triple. Versions are immutable values;
// Bump returns a new Version rather than mutating the receiver.
//
// Only the plain M.m.p form is supported. Pre-release and build-metadata
// suffixes are not part of the release scheme the pipeline manages, so
// parsing rejects them.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a strict "M.m.p" version string where each component
// is a non-negative base-10 integer with no sign and no leading "v".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		// strconv.Atoi accepts a leading sign, which is never valid in a
		// version component, so reject signs before converting.
		if part == "" || part[0] == '+' || part[0] == '-' {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", s, part)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: component %q is not a non-negative integer", s, part)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Bump returns the next version for the given bump kind:
//
//	major: (M+1, 0, 0)
//	minor: (M, m+1, 0)
//	patch: (M, m, p+1)
//
// Exactly one component increments; lower-order components reset to zero.
// An invalid kind returns the receiver unchanged — kinds are validated at
// the CLI boundary before the pipeline runs.
func (v Version) Bump(kind BumpKind) Version {
	switch kind {
	case BumpMajor:
		return Version{Major: v.Major + 1}
	case BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}
	case BumpPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}
	default:
		return v
	}
}

// String returns the dotted "M.m.p" rendering. This is also the exact
// tag name the pipeline creates, so it must not carry a "v" prefix.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Tuple returns the parenthesized integer-tuple rendering, e.g. "(1, 4, 0)",
// used by the in-source metadata manifest target.
func (v Version) Tuple() string {
	return fmt.Sprintf("(%d, %d, %d)", v.Major, v.Minor, v.Patch)
}

// ExitCode defines the CLI exit codes, one per failure class.
// These codes allow scripts and CI systems to programmatically
// determine which stage of the release pipeline aborted.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully,
	// including dry-run completion.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitVersionParse indicates the current version read from the
	// project manifest could not be parsed.
	ExitVersionParse ExitCode = 2

	// ExitTagExists indicates the candidate release tag already exists.
	ExitTagExists ExitCode = 3

	// ExitDirtyWorkspace indicates the working tree has uncommitted
	// modifications (staged or unstaged).
	ExitDirtyWorkspace ExitCode = 4

	// ExitManifestDrift indicates a manifest file is missing the expected
	// version field — the file layout has drifted from the configuration.
	ExitManifestDrift ExitCode = 5

	// ExitChangelogFailed indicates the external changelog tool exited
	// non-zero.
	ExitChangelogFailed ExitCode = 6

	// ExitCommitFailed indicates the release commit could not be created.
	ExitCommitFailed ExitCode = 7

	// ExitHookModifiedFiles indicates a pre-commit hook rewrote tracked
	// content and blocked the commit. Distinct from ExitCommitFailed
	// because the remediation differs: regenerate derived metadata and
	// re-run instead of debugging the commit itself.
	ExitHookModifiedFiles ExitCode = 8

	// ExitPushFailed indicates pushing commits or tags to the remote
	// failed. Local commit and tag state is already in place.
	ExitPushFailed ExitCode = 9

	// ExitGitError indicates some other git operation failed
	// (fetch, pull, stage, tag creation).
	ExitGitError ExitCode = 10
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
