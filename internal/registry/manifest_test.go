package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// writeManifest writes a manifest file and returns its path.
func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadManifest(t *testing.T) {
	t.Run("valid manifest with dependencies", func(t *testing.T) {
		path := writeManifest(t, `
tasks:
  - name: replication
    prompts: [p1]
    provider: claude
    concurrency: 2
    mode: replication
  - name: evaluator
    prompts: [p2]
    provider: gemini
    concurrency: 1
    mode: standard
dependencies:
  - upstream: replication
    downstream: evaluator
    artifact: /out/replication/results/plan.md
`)
		reg, edges, err := LoadManifest(path)
		require.NoError(t, err)
		assert.Equal(t, 2, reg.Len())
		require.Len(t, edges, 1)
		assert.Equal(t, "replication", edges[0].Upstream)
		assert.Equal(t, "evaluator", edges[0].Downstream)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorIs(t, err, relaberrors.ErrManifestInvalid)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, _, err := LoadManifest(writeManifest(t, "tasks: ["))
		require.ErrorIs(t, err, relaberrors.ErrManifestInvalid)
	})

	t.Run("no tasks", func(t *testing.T) {
		_, _, err := LoadManifest(writeManifest(t, "tasks: []"))
		require.ErrorIs(t, err, relaberrors.ErrManifestInvalid)
	})

	t.Run("invalid task surfaces validation error", func(t *testing.T) {
		path := writeManifest(t, `
tasks:
  - name: broken
    prompts: [p1]
    provider: claude
    concurrency: 0
    mode: standard
`)
		_, _, err := LoadManifest(path)
		require.ErrorIs(t, err, relaberrors.ErrManifestInvalid)
		require.ErrorIs(t, err, relaberrors.ErrTaskInvalid)
	})

	t.Run("dependency on unknown task", func(t *testing.T) {
		path := writeManifest(t, `
tasks:
  - name: replication
    prompts: [p1]
    provider: claude
    concurrency: 1
    mode: replication
dependencies:
  - upstream: replication
    downstream: ghost
    artifact: /out/a.md
`)
		_, _, err := LoadManifest(path)
		require.ErrorIs(t, err, relaberrors.ErrManifestInvalid)
		assert.Contains(t, err.Error(), "ghost")
	})

	t.Run("incomplete dependency", func(t *testing.T) {
		path := writeManifest(t, `
tasks:
  - name: replication
    prompts: [p1]
    provider: claude
    concurrency: 1
    mode: replication
dependencies:
  - upstream: replication
    downstream: replication
`)
		_, _, err := LoadManifest(path)
		require.ErrorIs(t, err, relaberrors.ErrManifestInvalid)
	})
}
