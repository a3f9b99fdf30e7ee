package manifest

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/mmr-tortoise/shipit/internal/model"
)

// projectManifest captures the single field we read from the project
// manifest. Decoding into a typed struct (rather than scanning lines, as the
// rewrite side does) gives us real TOML semantics for free: quoting,
// whitespace, and inline comments are all handled by the parser.
type projectManifest struct {
	Project struct {
		Version string `toml:"version"`
	} `toml:"project"`
}

// ReadProjectVersion reads the committed version from the [project] table of
// the given TOML manifest. This is the authoritative current version that the
// release pipeline bumps; any failure here aborts before anything is mutated.
func ReadProjectVersion(path string) (model.Version, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Version{}, model.WrapCLIError(model.ExitVersionParse,
			fmt.Sprintf("failed to read project manifest %s", path), err)
	}

	var m projectManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return model.Version{}, model.WrapCLIError(model.ExitVersionParse,
			fmt.Sprintf("failed to parse project manifest %s", path), err)
	}

	if m.Project.Version == "" {
		return model.Version{}, model.NewCLIError(model.ExitVersionParse,
			fmt.Sprintf("project.version missing from %s", path))
	}

	v, err := model.ParseVersion(m.Project.Version)
	if err != nil {
		return model.Version{}, model.WrapCLIError(model.ExitVersionParse,
			fmt.Sprintf("invalid project.version in %s", path), err)
	}
	return v, nil
}
