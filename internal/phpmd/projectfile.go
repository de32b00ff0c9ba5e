package phpmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectFileName is looked up from the workspace root towards the filesystem root.
const ProjectFileName = ".phpmdls.toml"

type projectFile struct {
	Enabled  *bool                `toml:"enabled"`
	Validate projectValidateTable `toml:"validate"`
}

type projectValidateTable struct {
	ExecutablePath *string `toml:"executable_path"`
	Rulesets       *string `toml:"rulesets"`
}

// FindProjectFile walks up from startDir looking for ProjectFileName.
func FindProjectFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ProjectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadProjectFile decodes the project file at path into Overrides.
func LoadProjectFile(path string) (Overrides, error) {
	var file projectFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return Overrides{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Overrides{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return Overrides{
		Enabled:        file.Enabled,
		ExecutablePath: file.Validate.ExecutablePath,
		Rulesets:       file.Validate.Rulesets,
	}, nil
}

// DiscoverProjectFile finds and loads the project file above startDir.
// A missing file yields empty Overrides and no error.
func DiscoverProjectFile(startDir string) (Overrides, string, error) {
	path, ok, err := FindProjectFile(startDir)
	if err != nil || !ok {
		return Overrides{}, "", err
	}
	o, err := LoadProjectFile(path)
	if err != nil {
		return Overrides{}, path, err
	}
	return o, path, nil
}
