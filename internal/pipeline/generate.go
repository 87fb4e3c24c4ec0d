package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/mrz1836/relab/internal/dispatch"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
	"github.com/mrz1836/relab/internal/registry"
)

// GenerateParams describes a phase-1 generation batch: the same prompt files
// fanned out across one or more providers.
type GenerateParams struct {
	// TaskName names the batch; run directories are keyed by it.
	TaskName string

	// PromptPaths are the prompt files to dispatch, in order.
	PromptPaths []string

	// Providers are the agent backends to fan out to.
	Providers []domain.Provider

	// Concurrency caps simultaneous jobs per provider. Zero uses the
	// configured default.
	Concurrency int

	// WorkingDir is the directory providers operate in.
	WorkingDir string

	// Push pushes produced artifacts after the batch settles (best-effort).
	Push bool
}

// Generate dispatches every (prompt, provider) pair as an independent job.
// All prompt files are checked for existence before any job is created.
func (p *Pipeline) Generate(ctx context.Context, params *GenerateParams) (*dispatch.Summary, error) {
	if params.TaskName == "" {
		return nil, fmt.Errorf("%w: task name", relaberrors.ErrEmptyValue)
	}
	if len(params.PromptPaths) == 0 {
		return nil, fmt.Errorf("%w: at least one prompt is required", relaberrors.ErrEmptyValue)
	}
	if len(params.Providers) == 0 {
		return nil, fmt.Errorf("%w: at least one provider is required", relaberrors.ErrEmptyValue)
	}

	for _, path := range params.PromptPaths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: prompt file %s: %w", relaberrors.ErrConfigInvalid, path, err)
		}
	}

	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = p.cfg.Pipeline.Concurrency
	}

	// One registry task per provider; every task dispatches the same prompts.
	reg := registry.New()
	prompts := make(map[string][]string, len(params.Providers))
	for _, prov := range params.Providers {
		task := &domain.Task{
			Name:        fmt.Sprintf("%s_%s", params.TaskName, prov),
			PromptFiles: params.PromptPaths,
			Provider:    prov,
			Concurrency: concurrency,
			Mode:        domain.ModeStandard,
		}
		if err := reg.Add(task); err != nil {
			return nil, err
		}
		prompts[task.Name] = params.PromptPaths
	}

	p.logger.Info().
		Str("task", params.TaskName).
		Int("prompts", len(params.PromptPaths)).
		Int("providers", len(params.Providers)).
		Int("concurrency", concurrency).
		Msg("starting generation batch")

	return p.runBatch(ctx, reg, nil, prompts, params.WorkingDir, p.providerLimits(reg, 0), params.Push)
}
