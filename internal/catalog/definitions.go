package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Definitions is the static, ordered description of every configuration item.
type Definitions struct {
	Categories []CategoryDefinition `yaml:"categories"`
}

// CategoryDefinition groups item definitions under a category key.
type CategoryDefinition struct {
	Name  string           `yaml:"name"`
	Items []ItemDefinition `yaml:"items"`
}

// ItemDefinition describes one deployable file.
type ItemDefinition struct {
	Name        string   `yaml:"name"`
	Source      string   `yaml:"source"`
	Dest        string   `yaml:"dest"`
	Description string   `yaml:"description"`
	Requires    []string `yaml:"requires"`
}

// DefaultDefinitions returns the catalog compiled into the binary.
func DefaultDefinitions() (*Definitions, error) {
	return ParseDefinitions(defaultCatalog)
}

// LoadDefinitionsFile reads a catalog from a YAML file.
func LoadDefinitionsFile(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	defs, err := ParseDefinitions(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	return defs, nil
}

// ParseDefinitions decodes and validates a YAML catalog.
func ParseDefinitions(data []byte) (*Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := defs.Validate(); err != nil {
		return nil, err
	}
	return &defs, nil
}

// Validate checks the definitions for empty fields, duplicate categories and
// source paths escaping the configs directory.
func (d *Definitions) Validate() error {
	seen := make(map[string]bool)
	for _, cat := range d.Categories {
		if cat.Name == "" {
			return fmt.Errorf("%w: category with empty name", ErrInvalidCatalog)
		}
		if seen[cat.Name] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, cat.Name)
		}
		seen[cat.Name] = true

		for _, item := range cat.Items {
			if item.Name == "" {
				return fmt.Errorf("%w: item with empty name in category %q", ErrInvalidCatalog, cat.Name)
			}
			if item.Dest == "" {
				return fmt.Errorf("%w: item %q has no destination", ErrInvalidCatalog, item.Name)
			}
			if err := validateSource(item.Source); err != nil {
				return fmt.Errorf("%w: item %q: %v", ErrInvalidCatalog, item.Name, err)
			}
		}
	}
	return nil
}

func validateSource(rel string) error {
	cleaned := filepath.Clean(rel)
	if rel == "" || cleaned == "." {
		return fmt.Errorf("empty source path")
	}
	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("source must be relative, got %q", rel)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("source %q escapes the configs directory", rel)
	}
	return nil
}
