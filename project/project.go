// Package project reads tracing projects and prediction scores from YAML
// files for the tracekit CLI.
package project

import (
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/teranos/tracekit/builder"
	"github.com/teranos/tracekit/errors"
	"github.com/teranos/tracekit/tracelink"
)

// SupportedFormat is the range of format_version values this reader accepts
const SupportedFormat = "^1.0.0"

// File is the on-disk layout of a project
type File struct {
	FormatVersion string                              `yaml:"format_version"`
	Layers        map[string][]builder.ArtifactRecord `yaml:"layers"`
	TrueLinks     []builder.LinkPair                  `yaml:"true_links"`
	Mappings      []tracelink.LayerMapping            `yaml:"mappings"`
}

// Load reads a project file
func Load(path string) (*builder.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read project %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "project %s", path)
	}
	return p, nil
}

// Parse decodes a project and converts it to the builder's input
func Parse(data []byte) (*builder.Project, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse project YAML")
	}
	if err := CheckFormat(f.FormatVersion); err != nil {
		return nil, err
	}
	if len(f.Layers) == 0 {
		return nil, errors.NewConfigurationError("project declares no layers")
	}

	for layer, records := range f.Layers {
		for i, r := range records {
			if r.ID == "" {
				return nil, errors.NewConfigurationError("layer %s: artifact %d has no id", layer, i)
			}
		}
	}
	return &builder.Project{Layers: f.Layers, TrueLinks: f.TrueLinks, Mappings: f.Mappings}, nil
}

// CheckFormat verifies a format_version against SupportedFormat
func CheckFormat(version string) error {
	if version == "" {
		return errors.NewConfigurationError("format_version is required (supported: %s)", SupportedFormat)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.NewConfigurationError("invalid format_version %q: %v", version, err)
	}
	constraint, err := semver.NewConstraint(SupportedFormat)
	if err != nil {
		return errors.Wrapf(err, "invalid format constraint %s", SupportedFormat)
	}
	if !constraint.Check(v) {
		return errors.NewConfigurationError("format_version %s is not supported (supported: %s)", version, SupportedFormat)
	}
	return nil
}
