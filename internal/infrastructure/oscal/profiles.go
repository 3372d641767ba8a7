package oscal

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nca-tools/nca-cli/internal/catalog"
)

// profileFile is the on-disk YAML shape of a custom baseline profile.
type profileFile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Inherits    string   `yaml:"inherits"`
	Controls    []string `yaml:"controls"`
}

// LoadProfile reads a custom baseline profile from a YAML file. The
// profile backs the "custom" baseline level: its control list, unioned
// with the inherited built-in baseline when inherits is set.
func LoadProfile(path string) (*catalog.BaselineProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse profile file: %w", err)
	}

	profile, err := catalog.NewCustomProfile(pf.Name, pf.Description, pf.Controls, catalog.Level(pf.Inherits))
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}

	return profile, nil
}
