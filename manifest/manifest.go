// Package manifest handles hal.toml class manifests.
//
// A manifest declares classes to be exported to the scripting engine:
// the class name, its attributes, an optional parent class, and
// per-property attribute sets. Callback wiring stays in native code;
// the manifest carries only the declarative surface.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ManifestFileName is the file name looked up by Load and FindAndLoad.
const ManifestFileName = "hal.toml"

// Manifest represents a hal.toml file.
type Manifest struct {
	Classes []ClassConfig `toml:"class"`

	// Dir is the directory containing the hal.toml file (set at load time).
	Dir string `toml:"-"`
}

// ClassConfig declares one exported class.
type ClassConfig struct {
	Name       string           `toml:"name"`
	Parent     string           `toml:"parent"`
	Attributes []string         `toml:"attributes"`
	Properties []PropertyConfig `toml:"property"`
}

// PropertyConfig declares attribute overrides for one named property.
type PropertyConfig struct {
	Name       string   `toml:"name"`
	Attributes []string `toml:"attributes"`
}

// Load parses a hal.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a hal.toml file, then
// loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, ManifestFileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Class returns the configuration for a class by name, or nil.
func (m *Manifest) Class(name string) *ClassConfig {
	for i := range m.Classes {
		if m.Classes[i].Name == name {
			return &m.Classes[i]
		}
	}
	return nil
}

// Property returns the configuration for a property by name, or nil.
func (c *ClassConfig) Property(name string) *PropertyConfig {
	for i := range c.Properties {
		if c.Properties[i].Name == name {
			return &c.Properties[i]
		}
	}
	return nil
}

// validate performs structural checks: class and property names must be
// non-empty and unique within their scope. Attribute names are checked
// by the binding layer when the config is applied.
func (m *Manifest) validate() error {
	seen := make(map[string]bool)
	for _, class := range m.Classes {
		if class.Name == "" {
			return fmt.Errorf("class with empty name")
		}
		if seen[class.Name] {
			return fmt.Errorf("duplicate class %q", class.Name)
		}
		seen[class.Name] = true

		props := make(map[string]bool)
		for _, prop := range class.Properties {
			if prop.Name == "" {
				return fmt.Errorf("class %q: property with empty name", class.Name)
			}
			if props[prop.Name] {
				return fmt.Errorf("class %q: duplicate property %q", class.Name, prop.Name)
			}
			props[prop.Name] = true
		}
	}
	return nil
}
