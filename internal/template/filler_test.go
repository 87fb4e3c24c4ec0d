package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// writeTemplate creates a template file in dir and returns its path.
func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFillerResolve(t *testing.T) {
	t.Run("substitutes all placeholders", func(t *testing.T) {
		tmplDir := t.TempDir()
		outDir := t.TempDir()
		writeTemplate(t, tmplDir, "p1_replication.md",
			"Repo: {{repo_path}}\nPlan: {{replication_path}}\n")

		f := NewFiller(tmplDir, outDir)
		rp, err := f.Resolve("counting", domain.ModeReplication, "p1", domain.BindingSet{
			domain.BindingRepoPath:        "/work/repo",
			domain.BindingReplicationPath: "/work/plan.md",
		})
		require.NoError(t, err)
		assert.Equal(t, "Repo: /work/repo\nPlan: /work/plan.md\n", rp.Content)
		assert.Equal(t, filepath.Join(outDir, "counting_replication_p1.md"), rp.Path)

		data, err := os.ReadFile(rp.Path)
		require.NoError(t, err)
		assert.Equal(t, rp.Content, string(data))
	})

	t.Run("missing mode-mandatory binding fails before template read", func(t *testing.T) {
		f := NewFiller(t.TempDir(), t.TempDir())
		_, err := f.Resolve("counting", domain.ModeReplication, "p1", domain.BindingSet{
			domain.BindingRepoPath: "/work/repo",
		})
		require.ErrorIs(t, err, relaberrors.ErrUnresolvedPlaceholder)
		assert.Contains(t, err.Error(), domain.BindingReplicationPath)
	})

	t.Run("unresolved placeholders named in error", func(t *testing.T) {
		tmplDir := t.TempDir()
		writeTemplate(t, tmplDir, "p1_human.md", "{{repo_path}} {{alpha}} {{beta}}")

		f := NewFiller(tmplDir, t.TempDir())
		_, err := f.Resolve("counting", domain.ModeHuman, "p1", domain.BindingSet{
			domain.BindingRepoPath: "/work/repo",
		})
		require.ErrorIs(t, err, relaberrors.ErrUnresolvedPlaceholder)
		assert.Contains(t, err.Error(), "alpha")
		assert.Contains(t, err.Error(), "beta")
	})

	t.Run("unknown mode rejected", func(t *testing.T) {
		f := NewFiller(t.TempDir(), t.TempDir())
		_, err := f.Resolve("counting", domain.Mode("turbo"), "p1", domain.BindingSet{})
		require.ErrorIs(t, err, relaberrors.ErrUnknownMode)
	})

	t.Run("missing template file", func(t *testing.T) {
		f := NewFiller(t.TempDir(), t.TempDir())
		_, err := f.Resolve("counting", domain.ModeHuman, "p1", domain.BindingSet{
			domain.BindingRepoPath: "/work/repo",
		})
		require.ErrorIs(t, err, relaberrors.ErrTemplateNotFound)
	})

	t.Run("mode-agnostic fallback template", func(t *testing.T) {
		tmplDir := t.TempDir()
		writeTemplate(t, tmplDir, "p1.md", "generic {{repo_path}}")

		f := NewFiller(tmplDir, t.TempDir())
		rp, err := f.Resolve("counting", domain.ModeHuman, "p1", domain.BindingSet{
			domain.BindingRepoPath: "/work/repo",
		})
		require.NoError(t, err)
		assert.Equal(t, "generic /work/repo", rp.Content)
	})

	t.Run("mode variant wins over fallback", func(t *testing.T) {
		tmplDir := t.TempDir()
		writeTemplate(t, tmplDir, "p1.md", "generic {{repo_path}}")
		writeTemplate(t, tmplDir, "p1_human.md", "human {{repo_path}}")

		f := NewFiller(tmplDir, t.TempDir())
		rp, err := f.Resolve("counting", domain.ModeHuman, "p1", domain.BindingSet{
			domain.BindingRepoPath: "/work/repo",
		})
		require.NoError(t, err)
		assert.Equal(t, "human /work/repo", rp.Content)
	})
}

func TestFillerResolveIdempotent(t *testing.T) {
	tmplDir := t.TempDir()
	outDir := t.TempDir()
	writeTemplate(t, tmplDir, "p1_human.md", "{{repo_path}}")

	f := NewFiller(tmplDir, outDir)
	bindings := domain.BindingSet{domain.BindingRepoPath: "/work/repo"}

	first, err := f.Resolve("counting", domain.ModeHuman, "p1", bindings)
	require.NoError(t, err)
	info1, err := os.Stat(first.Path)
	require.NoError(t, err)

	// Identical bindings produce a byte-identical artifact and leave the
	// existing file untouched.
	second, err := f.Resolve("counting", domain.ModeHuman, "p1", bindings)
	require.NoError(t, err)
	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, first.Content, second.Content)

	info2, err := os.Stat(second.Path)
	require.NoError(t, err)
	assert.Equal(t, info1.ModTime(), info2.ModTime())

	// Changed bindings replace the artifact rather than editing it in place.
	third, err := f.Resolve("counting", domain.ModeHuman, "p1", domain.BindingSet{
		domain.BindingRepoPath: "/other/repo",
	})
	require.NoError(t, err)
	data, err := os.ReadFile(third.Path)
	require.NoError(t, err)
	assert.Equal(t, "/other/repo", string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFillerResolveAll(t *testing.T) {
	t.Run("resolves every role", func(t *testing.T) {
		tmplDir := t.TempDir()
		outDir := t.TempDir()
		writeTemplate(t, tmplDir, "p1_human.md", "one {{repo_path}}")
		writeTemplate(t, tmplDir, "p2_human.md", "two {{repo_path}}")

		f := NewFiller(tmplDir, outDir)
		resolved, err := f.ResolveAll("counting", domain.ModeHuman, []string{"p1", "p2"}, domain.BindingSet{
			domain.BindingRepoPath: "/work/repo",
		})
		require.NoError(t, err)
		require.Len(t, resolved, 2)
		assert.Equal(t, "p1", resolved[0].Role)
		assert.Equal(t, "p2", resolved[1].Role)
	})

	t.Run("binding error writes no files", func(t *testing.T) {
		tmplDir := t.TempDir()
		outDir := t.TempDir()
		writeTemplate(t, tmplDir, "p1_human.md", "one {{repo_path}}")
		writeTemplate(t, tmplDir, "p2_human.md", "two {{repo_path}} {{undeclared}}")

		f := NewFiller(tmplDir, outDir)
		_, err := f.ResolveAll("counting", domain.ModeHuman, []string{"p1", "p2"}, domain.BindingSet{
			domain.BindingRepoPath: "/work/repo",
		})
		require.ErrorIs(t, err, relaberrors.ErrUnresolvedPlaceholder)

		entries, err := os.ReadDir(outDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestPlaceholders(t *testing.T) {
	t.Run("sorted and de-duplicated", func(t *testing.T) {
		names := Placeholders("{{beta}} {{alpha}} {{beta}} text {{alpha}}")
		assert.Equal(t, []string{"alpha", "beta"}, names)
	})

	t.Run("no markers", func(t *testing.T) {
		assert.Empty(t, Placeholders("plain text with {single} braces"))
	})
}

func TestFillerListRoles(t *testing.T) {
	tmplDir := t.TempDir()
	writeTemplate(t, tmplDir, "p1_replication.md", "x")
	writeTemplate(t, tmplDir, "p2_replication.md", "x")
	writeTemplate(t, tmplDir, "p1_student.md", "x")

	f := NewFiller(tmplDir, t.TempDir())
	roles, err := f.ListRoles(domain.ModeReplication)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p2"}, roles)
}
