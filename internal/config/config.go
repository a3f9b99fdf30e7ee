// Package config loads the release configuration.
//
// Configuration lives in an optional release.yml at the repository root.
// When the file is absent, built-in defaults describe the conventional
// project layout: a pyproject-style manifest carrying the authoritative
// [project] version, an add-on manifest with a top-level version key, an
// in-source metadata block with a version tuple, and a git-cliff generated
// CHANGELOG.md. Everything the pipeline touches — which files, which
// changelog tool, which remote, the commit message — is decided here, before
// any step runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/shipit/internal/manifest"
	"github.com/mmr-tortoise/shipit/internal/model"
)

// FileName is the configuration file looked up at the repository root.
const FileName = "release.yml"

// Target kinds accepted in configuration. Each selects one of the
// manifest rewrite strategies.
const (
	KindSectionKey = "section-key"
	KindBareKey    = "bare-key"
	KindTupleField = "tuple-field"
)

// TargetConfig describes one manifest file the release rewrites.
type TargetConfig struct {
	// Kind selects the rewrite strategy: section-key, bare-key, or tuple-field.
	Kind string `yaml:"kind"`

	// Path is the manifest file, relative to the repository root.
	Path string `yaml:"path"`

	// Section scopes a section-key target to one [section].
	Section string `yaml:"section,omitempty"`

	// Key is the version key for section-key and bare-key targets, and the
	// field name for tuple-field targets (defaults to "version").
	Key string `yaml:"key,omitempty"`

	// Block names the metadata block a tuple-field target matches inside.
	Block string `yaml:"block,omitempty"`
}

// ChangelogConfig describes the external changelog tool invocation.
type ChangelogConfig struct {
	// Tool is the changelog executable, e.g. "git-cliff".
	Tool string `yaml:"tool"`

	// File is the changelog path the tool writes, relative to the root.
	File string `yaml:"file"`
}

// Config is the full release configuration.
type Config struct {
	// ProjectManifest is the TOML file whose [project] version is the
	// authoritative current version, relative to the repository root.
	ProjectManifest string `yaml:"project_manifest"`

	// Targets are the manifest files rewritten with the new version.
	Targets []TargetConfig `yaml:"targets"`

	// Changelog configures the external changelog tool.
	Changelog ChangelogConfig `yaml:"changelog"`

	// Remote is the git remote releases are pushed to.
	Remote string `yaml:"remote"`

	// CommitTemplate is the release commit message. The placeholders
	// {version} and {kind} are substituted before committing.
	CommitTemplate string `yaml:"commit_template"`
}

// Default returns the built-in configuration for the conventional layout.
func Default() Config {
	return Config{
		ProjectManifest: "pyproject.toml",
		Targets: []TargetConfig{
			{Kind: KindSectionKey, Path: "pyproject.toml", Section: "project", Key: "version"},
			{Kind: KindBareKey, Path: filepath.Join("addon", "manifest.toml"), Key: "version"},
			{Kind: KindTupleField, Path: filepath.Join("addon", "__init__.py"), Block: "addon_info", Key: "version"},
		},
		Changelog:      ChangelogConfig{Tool: "git-cliff", File: "CHANGELOG.md"},
		Remote:         "origin",
		CommitTemplate: "chore(release): prepare for {version} ({kind} version)",
	}
}

// Load reads release.yml from the given repository root, falling back to
// Default when the file does not exist. Fields left empty in the file keep
// their default values, so a config can override just the target list.
func Load(root string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(root, FileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, model.WrapCLIError(model.ExitGeneralError, "failed to read "+FileName, err)
	}

	// Overriding targets replaces the default list wholesale; merging
	// per-entry would make it impossible to drop a default target.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, model.WrapCLIError(model.ExitGeneralError, "failed to parse "+FileName, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate rejects configurations the pipeline could not act on. Running
// this at load time means every later step can trust the target list.
func (c Config) validate() error {
	if c.ProjectManifest == "" {
		return model.NewCLIError(model.ExitGeneralError, FileName+": project_manifest must not be empty")
	}
	if len(c.Targets) == 0 {
		return model.NewCLIError(model.ExitGeneralError, FileName+": at least one target is required")
	}
	for i, tc := range c.Targets {
		if tc.Path == "" {
			return model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("%s: targets[%d]: path must not be empty", FileName, i))
		}
		switch tc.Kind {
		case KindSectionKey:
			if tc.Section == "" {
				return model.NewCLIError(model.ExitGeneralError,
					fmt.Sprintf("%s: targets[%d]: section-key target requires a section", FileName, i))
			}
		case KindBareKey:
			// key defaults below; nothing else required
		case KindTupleField:
			if tc.Block == "" {
				return model.NewCLIError(model.ExitGeneralError,
					fmt.Sprintf("%s: targets[%d]: tuple-field target requires a block", FileName, i))
			}
		default:
			return model.NewCLIError(model.ExitGeneralError,
				fmt.Sprintf("%s: targets[%d]: unknown kind %q (valid: %s, %s, %s)",
					FileName, i, tc.Kind, KindSectionKey, KindBareKey, KindTupleField))
		}
	}
	return nil
}

// ProjectManifestPath resolves the project manifest against the
// repository root.
func (c Config) ProjectManifestPath(root string) string {
	return filepath.Join(root, c.ProjectManifest)
}

// Field describes the matched field for display purposes:
// "section.key" for section-key targets, "block.key" for tuple-field
// targets, and the bare key otherwise.
func (tc TargetConfig) Field() string {
	key := tc.Key
	if key == "" {
		key = "version"
	}
	switch tc.Kind {
	case KindSectionKey:
		return tc.Section + "." + key
	case KindTupleField:
		return tc.Block + "." + key
	default:
		return key
	}
}

// BuildTargets materializes the configured targets as manifest rewrite
// strategies with paths resolved against the repository root.
func (c Config) BuildTargets(root string) []manifest.Target {
	targets := make([]manifest.Target, 0, len(c.Targets))
	for _, tc := range c.Targets {
		key := tc.Key
		if key == "" {
			key = "version"
		}
		path := filepath.Join(root, tc.Path)

		switch tc.Kind {
		case KindSectionKey:
			targets = append(targets, manifest.SectionKeyTarget{FilePath: path, Section: tc.Section, Key: key})
		case KindBareKey:
			targets = append(targets, manifest.BareKeyTarget{FilePath: path, Key: key})
		case KindTupleField:
			targets = append(targets, manifest.TupleFieldTarget{FilePath: path, Block: tc.Block, Key: key})
		}
	}
	return targets
}

// CommitMessage renders the commit template for the given bump.
func (c Config) CommitMessage(kind model.BumpKind, v model.Version) string {
	msg := strings.ReplaceAll(c.CommitTemplate, "{version}", v.String())
	return strings.ReplaceAll(msg, "{kind}", kind.String())
}
