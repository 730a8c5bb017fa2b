package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slok/devrig/internal/model"
)

// ManifestYAMLRepository loads provisioning manifests from YAML files.
type ManifestYAMLRepository struct {
	fs fs.FS
}

// NewManifestYAMLRepository creates a new YAML manifest repository.
func NewManifestYAMLRepository(filesystem fs.FS) *ManifestYAMLRepository {
	return &ManifestYAMLRepository{fs: filesystem}
}

// GetManifest loads a manifest from a YAML file and returns a validated domain model.
func (r *ManifestYAMLRepository) GetManifest(ctx context.Context, path string) (model.Manifest, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Manifest{}, fmt.Errorf("reading manifest file: %w", err)
	}

	if ctx.Err() != nil {
		return model.Manifest{}, ctx.Err()
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return model.Manifest{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := m.validate(); err != nil {
		return model.Manifest{}, fmt.Errorf("invalid manifest: %w", err)
	}

	return m.toModel()
}

// Manifest represents the YAML structure for provisioning configuration.
type Manifest struct {
	Steps        []string          `yaml:"steps"`
	Env          map[string]string `yaml:"env"`
	StepTimeout  string            `yaml:"step_timeout"`
	CheckTimeout string            `yaml:"check_timeout"`
}

func (m Manifest) validate() error {
	seen := map[string]struct{}{}
	for _, id := range m.Steps {
		if id == "" {
			return fmt.Errorf("step ids cannot be empty")
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("step id %q is duplicated", id)
		}
		seen[id] = struct{}{}
	}

	return nil
}

func (m Manifest) toModel() (model.Manifest, error) {
	result := model.Manifest{
		Steps: m.Steps,
		Env:   m.Env,
	}

	if m.StepTimeout != "" {
		d, err := time.ParseDuration(m.StepTimeout)
		if err != nil {
			return model.Manifest{}, fmt.Errorf("invalid step_timeout: %w", err)
		}
		result.StepTimeout = d
	}

	if m.CheckTimeout != "" {
		d, err := time.ParseDuration(m.CheckTimeout)
		if err != nil {
			return model.Manifest{}, fmt.Errorf("invalid check_timeout: %w", err)
		}
		result.CheckTimeout = d
	}

	return result, nil
}
