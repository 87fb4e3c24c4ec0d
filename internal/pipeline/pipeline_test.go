package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/relab/internal/config"
	"github.com/mrz1836/relab/internal/constants"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// runnerFunc adapts a function to the provider.Runner interface.
type runnerFunc func(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error)

func (f runnerFunc) Invoke(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
	return f(ctx, req)
}

// recordingPusher captures push calls instead of shelling out to git.
type recordingPusher struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingPusher) Push(_ context.Context, dir, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, dir)
	return nil
}

// testConfig returns defaults with a test-local output root and short gate
// wait bounds.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Output.Root = filepath.Join(t.TempDir(), "runs")
	cfg.Pipeline.DependencyTimeout = 300 * time.Millisecond
	cfg.Pipeline.DependencyPollInterval = 5 * time.Millisecond
	return cfg
}

func succeed() runnerFunc {
	return func(_ context.Context, _ *domain.InvokeRequest) (*domain.InvokeResult, error) {
		return &domain.InvokeResult{Status: domain.InvokeSucceeded, Output: "ok"}, nil
	}
}

// writePrompt creates a prompt file and returns its path.
func writePrompt(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("prompt"), 0o600))
	return path
}

// countInvocationRecords walks the output root counting invocation.json files.
func countInvocationRecords(t *testing.T, root string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == constants.InvocationFileName {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func TestPipelineGenerate(t *testing.T) {
	t.Run("fans prompts out across providers", func(t *testing.T) {
		cfg := testConfig(t)
		pusher := &recordingPusher{}
		p := New(cfg, succeed(), WithPusher(pusher))

		workDir := t.TempDir()
		summary, err := p.Generate(context.Background(), &GenerateParams{
			TaskName:    "generation",
			PromptPaths: []string{writePrompt(t, "p1.md"), writePrompt(t, "p2.md")},
			Providers:   []domain.Provider{domain.ProviderClaude, domain.ProviderGemini},
			Concurrency: 2,
			WorkingDir:  workDir,
		})
		require.NoError(t, err)
		require.NoError(t, summary.Err())
		assert.Equal(t, 4, summary.Succeeded())

		// Each job got its own run directory with an audit record.
		assert.Equal(t, 4, countInvocationRecords(t, cfg.Output.Root))
		// No push without --push.
		assert.Empty(t, pusher.calls)
	})

	t.Run("push requested after batch settles", func(t *testing.T) {
		cfg := testConfig(t)
		pusher := &recordingPusher{}
		p := New(cfg, succeed(), WithPusher(pusher))

		workDir := t.TempDir()
		_, err := p.Generate(context.Background(), &GenerateParams{
			TaskName:    "generation",
			PromptPaths: []string{writePrompt(t, "p1.md")},
			Providers:   []domain.Provider{domain.ProviderClaude},
			WorkingDir:  workDir,
			Push:        true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{workDir}, pusher.calls)
	})

	t.Run("missing prompt file fails before any allocation", func(t *testing.T) {
		cfg := testConfig(t)
		p := New(cfg, succeed(), WithPusher(&recordingPusher{}))

		_, err := p.Generate(context.Background(), &GenerateParams{
			TaskName:    "generation",
			PromptPaths: []string{filepath.Join(t.TempDir(), "missing.md")},
			Providers:   []domain.Provider{domain.ProviderClaude},
			WorkingDir:  t.TempDir(),
		})
		require.ErrorIs(t, err, relaberrors.ErrConfigInvalid)
		assert.NoDirExists(t, cfg.Output.Root)
	})

	t.Run("parameter validation", func(t *testing.T) {
		p := New(testConfig(t), succeed(), WithPusher(&recordingPusher{}))
		prompt := writePrompt(t, "p1.md")

		tests := []struct {
			name   string
			params *GenerateParams
		}{
			{"empty task name", &GenerateParams{PromptPaths: []string{prompt}, Providers: []domain.Provider{domain.ProviderClaude}}},
			{"no prompts", &GenerateParams{TaskName: "g", Providers: []domain.Provider{domain.ProviderClaude}}},
			{"no providers", &GenerateParams{TaskName: "g", PromptPaths: []string{prompt}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := p.Generate(context.Background(), tt.params)
				require.ErrorIs(t, err, relaberrors.ErrEmptyValue)
			})
		}
	})

	t.Run("failed job reported without aborting siblings", func(t *testing.T) {
		bad := writePrompt(t, "bad.md")
		good := writePrompt(t, "good.md")

		runner := runnerFunc(func(_ context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
			if req.PromptPath == bad {
				return &domain.InvokeResult{Status: domain.InvokeTimedOut, Error: "deadline exceeded"}, nil
			}
			return &domain.InvokeResult{Status: domain.InvokeSucceeded}, nil
		})

		p := New(testConfig(t), runner, WithPusher(&recordingPusher{}))
		summary, err := p.Generate(context.Background(), &GenerateParams{
			TaskName:    "generation",
			PromptPaths: []string{bad, good},
			Providers:   []domain.Provider{domain.ProviderClaude},
			WorkingDir:  t.TempDir(),
		})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Failed())
		assert.Equal(t, 1, summary.Succeeded())
		require.ErrorIs(t, summary.Err(), relaberrors.ErrBatchFailed)
	})
}

func TestPipelineConstruct(t *testing.T) {
	// writeTemplate drops a template variant into dir.
	writeTemplate := func(t *testing.T, dir, name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	t.Run("resolves every role for the mode", func(t *testing.T) {
		tmplDir := t.TempDir()
		outDir := filepath.Join(t.TempDir(), "prompts")
		writeTemplate(t, tmplDir, "p1_replication.md", "Repo {{repo_path}} plan {{replication_path}}")
		writeTemplate(t, tmplDir, "p2_replication.md", "Again {{repo_path}}")

		p := New(testConfig(t), succeed(), WithPusher(&recordingPusher{}))
		resolved, err := p.Construct(&ConstructParams{
			TaskName:        "counting",
			Mode:            domain.ModeReplication,
			RepoPath:        "/work/repo",
			ReplicationPath: "/work/plan.md",
			TemplateDir:     tmplDir,
			OutputDir:       outDir,
		})
		require.NoError(t, err)
		require.Len(t, resolved, 2)
		for _, rp := range resolved {
			assert.FileExists(t, rp.Path)
		}
	})

	t.Run("replication without replication_path fails before writing", func(t *testing.T) {
		tmplDir := t.TempDir()
		outDir := filepath.Join(t.TempDir(), "prompts")
		writeTemplate(t, tmplDir, "p1_replication.md", "Repo {{repo_path}} plan {{replication_path}}")

		p := New(testConfig(t), succeed(), WithPusher(&recordingPusher{}))
		_, err := p.Construct(&ConstructParams{
			TaskName:    "counting",
			Mode:        domain.ModeReplication,
			RepoPath:    "/work/repo",
			TemplateDir: tmplDir,
			OutputDir:   outDir,
		})
		require.ErrorIs(t, err, relaberrors.ErrUnresolvedPlaceholder)
		assert.NoDirExists(t, outDir)
	})

	t.Run("no templates for mode", func(t *testing.T) {
		p := New(testConfig(t), succeed(), WithPusher(&recordingPusher{}))
		_, err := p.Construct(&ConstructParams{
			TaskName:    "counting",
			Mode:        domain.ModeHuman,
			RepoPath:    "/work/repo",
			TemplateDir: t.TempDir(),
			OutputDir:   t.TempDir(),
		})
		require.ErrorIs(t, err, relaberrors.ErrTemplateNotFound)
	})

	t.Run("unknown mode", func(t *testing.T) {
		p := New(testConfig(t), succeed(), WithPusher(&recordingPusher{}))
		_, err := p.Construct(&ConstructParams{TaskName: "counting", Mode: "turbo"})
		require.ErrorIs(t, err, relaberrors.ErrUnknownMode)
	})
}

func TestPipelineEvaluate(t *testing.T) {
	// writeManifest renders a two-task manifest with a dependency edge on
	// the given artifact path.
	writeManifest := func(t *testing.T, upPrompt, downPrompt, artifact string) string {
		t.Helper()
		content := `
tasks:
  - name: replication
    prompts: ["` + upPrompt + `"]
    provider: claude
    concurrency: 1
    mode: replication
  - name: evaluator
    prompts: ["` + downPrompt + `"]
    provider: gemini
    concurrency: 1
    mode: standard
dependencies:
  - upstream: replication
    downstream: evaluator
    artifact: "` + artifact + `"
`
		path := filepath.Join(t.TempDir(), "tasks.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("downstream waits for upstream artifact", func(t *testing.T) {
		repo := t.TempDir()
		artifact := filepath.Join(t.TempDir(), "plan.md")
		upPrompt := writePrompt(t, "up.md")
		downPrompt := writePrompt(t, "down.md")

		var mu sync.Mutex
		var order []string
		runner := runnerFunc(func(_ context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
			mu.Lock()
			order = append(order, string(req.Provider))
			mu.Unlock()
			if req.Provider == domain.ProviderClaude {
				// The upstream job produces the artifact the gate waits on.
				time.Sleep(20 * time.Millisecond)
				_ = os.WriteFile(artifact, []byte("plan"), 0o600)
			}
			return &domain.InvokeResult{Status: domain.InvokeSucceeded}, nil
		})

		cfg := testConfig(t)
		cfg.Pipeline.DependencyTimeout = 2 * time.Second
		p := New(cfg, runner, WithPusher(&recordingPusher{}))

		summary, err := p.Evaluate(context.Background(), &EvaluateParams{
			ManifestPath: writeManifest(t, upPrompt, downPrompt, artifact),
			RepoPath:     repo,
		})
		require.NoError(t, err)
		require.NoError(t, summary.Err())
		require.Equal(t, []string{"claude", "gemini"}, order)
	})

	t.Run("dependency timeout fails downstream only", func(t *testing.T) {
		repo := t.TempDir()
		artifact := filepath.Join(t.TempDir(), "never.md")
		upPrompt := writePrompt(t, "up.md")
		downPrompt := writePrompt(t, "down.md")

		// The upstream job never writes the artifact.
		p := New(testConfig(t), succeed(), WithPusher(&recordingPusher{}))

		summary, err := p.Evaluate(context.Background(), &EvaluateParams{
			ManifestPath: writeManifest(t, upPrompt, downPrompt, artifact),
			RepoPath:     repo,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Succeeded())
		assert.Equal(t, 1, summary.Failed())

		for _, o := range summary.Outcomes {
			if o.Job.TaskName == "evaluator" {
				require.ErrorIs(t, o.Job.Err(), relaberrors.ErrDependencyTimeout)
			}
		}
	})

	t.Run("ad hoc batch without manifest", func(t *testing.T) {
		p := New(testConfig(t), succeed(), WithPusher(&recordingPusher{}))
		summary, err := p.Evaluate(context.Background(), &EvaluateParams{
			TaskName:    "evaluation",
			PromptPaths: []string{writePrompt(t, "p1.md")},
			Providers:   []domain.Provider{domain.ProviderCodex},
			RepoPath:    t.TempDir(),
		})
		require.NoError(t, err)
		require.NoError(t, summary.Err())
		assert.Equal(t, 1, summary.Succeeded())
	})

	t.Run("missing repo path", func(t *testing.T) {
		p := New(testConfig(t), succeed(), WithPusher(&recordingPusher{}))
		_, err := p.Evaluate(context.Background(), &EvaluateParams{})
		require.ErrorIs(t, err, relaberrors.ErrEmptyValue)
	})

	t.Run("nonexistent repo path", func(t *testing.T) {
		p := New(testConfig(t), succeed(), WithPusher(&recordingPusher{}))
		_, err := p.Evaluate(context.Background(), &EvaluateParams{
			RepoPath: filepath.Join(t.TempDir(), "gone"),
		})
		require.ErrorIs(t, err, relaberrors.ErrConfigInvalid)
	})
}
