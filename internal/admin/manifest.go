package admin

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the optional YAML overlay that tunes registered admins without
// a rebuild: page sizes, export formats, preview and revision toggles, and
// batch confirmation skips.
type Manifest struct {
	Admins map[string]AdminOverrides `yaml:"admins"`
}

// AdminOverrides carries the per-admin knobs. Pointer fields distinguish
// "absent" from zero values.
type AdminOverrides struct {
	Label            *string  `yaml:"label"`
	PageSize         *int     `yaml:"page_size"`
	ExportFormats    []string `yaml:"export_formats"`
	Preview          *bool    `yaml:"preview"`
	Revisions        *bool    `yaml:"revisions"`
	SkipConfirmation []string `yaml:"skip_confirmation"`
}

// LoadManifest reads and parses the manifest file.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin manifest %s: %w", path, err)
	}
	return ParseManifest(raw)
}

func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse admin manifest: %w", err)
	}
	return &m, nil
}

// Apply overlays the manifest onto descriptors. It runs before the registry
// is built; a manifest entry for an unregistered code is a configuration
// error so typos surface at startup.
func (m *Manifest) Apply(descriptors []*Descriptor) error {
	if m == nil || len(m.Admins) == 0 {
		return nil
	}
	byCode := make(map[string]*Descriptor, len(descriptors))
	for _, d := range descriptors {
		byCode[d.Code()] = d
	}
	for code, overrides := range m.Admins {
		d, ok := byCode[code]
		if !ok {
			return NewConfigurationError("admin manifest references unknown admin %q", code)
		}
		if err := d.applyOverrides(overrides); err != nil {
			return err
		}
	}
	return nil
}
