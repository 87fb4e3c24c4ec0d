package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Manifest is the on-disk YAML description of an evaluation batch: the tasks
// to run and the stage dependency edges between them.
type Manifest struct {
	Tasks        []*domain.Task     `yaml:"tasks"`
	Dependencies []domain.StageEdge `yaml:"dependencies"`
}

// LoadManifest reads and validates a YAML task manifest. Tasks are validated
// through registry Add; dependency edges must reference registered tasks.
// All structural problems are wrapped with ErrManifestInvalid.
func LoadManifest(path string) (*Registry, []domain.StageEdge, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path comes from the --tasks flag
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read %s: %w", relaberrors.ErrManifestInvalid, path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to parse %s: %w", relaberrors.ErrManifestInvalid, path, err)
	}

	return buildRegistry(&m, path)
}

// buildRegistry converts a parsed manifest into a validated registry and
// edge list.
func buildRegistry(m *Manifest, path string) (*Registry, []domain.StageEdge, error) {
	if len(m.Tasks) == 0 {
		return nil, nil, fmt.Errorf("%w: %s declares no tasks", relaberrors.ErrManifestInvalid, path)
	}

	reg := New()
	for _, task := range m.Tasks {
		if err := reg.Add(task); err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %w", relaberrors.ErrManifestInvalid, path, err)
		}
	}

	for i, edge := range m.Dependencies {
		if edge.Upstream == "" || edge.Downstream == "" || edge.ArtifactPath == "" {
			return nil, nil, fmt.Errorf("%w: %s dependency %d is incomplete", relaberrors.ErrManifestInvalid, path, i)
		}
		if !reg.Has(edge.Upstream) {
			return nil, nil, fmt.Errorf("%w: %s dependency %d references unknown upstream task %q",
				relaberrors.ErrManifestInvalid, path, i, edge.Upstream)
		}
		if !reg.Has(edge.Downstream) {
			return nil, nil, fmt.Errorf("%w: %s dependency %d references unknown downstream task %q",
				relaberrors.ErrManifestInvalid, path, i, edge.Downstream)
		}
	}

	return reg, m.Dependencies, nil
}
