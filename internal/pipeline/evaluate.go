package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/mrz1836/relab/internal/dispatch"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
	"github.com/mrz1836/relab/internal/registry"
	"github.com/mrz1836/relab/internal/template"
)

// EvaluateParams describes a phase-2 evaluation batch. Tasks come from a
// YAML manifest (with optional stage dependencies) or, without one, from the
// prompt/provider flags the same way Generate builds its batch.
type EvaluateParams struct {
	// ManifestPath is the YAML task manifest; empty builds an ad hoc batch.
	ManifestPath string

	// TaskName names the ad hoc batch when no manifest is given.
	TaskName string

	// PromptPaths are the prompts for the ad hoc batch.
	PromptPaths []string

	// Providers are the backends for the ad hoc batch.
	Providers []domain.Provider

	// Concurrency overrides every task's per-provider cap when positive.
	Concurrency int

	// RepoPath is the working directory providers operate in; it also binds
	// {{repo_path}} when manifest prompts need template resolution.
	RepoPath string

	// TemplateDir holds template variants for manifest prompt roles.
	TemplateDir string

	// PromptOutputDir is where resolved manifest prompts are written.
	PromptOutputDir string

	// Push pushes produced artifacts after the batch settles (best-effort).
	Push bool
}

// Evaluate runs an evaluation batch behind the stage gate. Every prompt is
// resolved to a concrete file before the first job is created, so binding
// and template errors never leave half a batch running.
func (p *Pipeline) Evaluate(ctx context.Context, params *EvaluateParams) (*dispatch.Summary, error) {
	if params.RepoPath == "" {
		return nil, fmt.Errorf("%w: repo path", relaberrors.ErrEmptyValue)
	}
	if _, err := os.Stat(params.RepoPath); err != nil {
		return nil, fmt.Errorf("%w: repo path %s: %w", relaberrors.ErrConfigInvalid, params.RepoPath, err)
	}

	reg, edges, err := p.evaluationRegistry(params)
	if err != nil {
		return nil, err
	}

	gate := p.newGate()
	for _, edge := range edges {
		if err := gate.AddEdge(edge); err != nil {
			return nil, err
		}
	}

	prompts, err := p.resolveTaskPrompts(reg, params)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Int("tasks", reg.Len()).
		Int("dependencies", len(edges)).
		Msg("starting evaluation batch")

	return p.runBatch(ctx, reg, gate, prompts, params.RepoPath, p.providerLimits(reg, params.Concurrency), params.Push)
}

// evaluationRegistry loads the manifest or synthesizes per-provider tasks
// from the flag parameters.
func (p *Pipeline) evaluationRegistry(params *EvaluateParams) (*registry.Registry, []domain.StageEdge, error) {
	if params.ManifestPath != "" {
		return registry.LoadManifest(params.ManifestPath)
	}

	if len(params.PromptPaths) == 0 {
		return nil, nil, fmt.Errorf("%w: either a manifest or prompts are required", relaberrors.ErrEmptyValue)
	}
	if len(params.Providers) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one provider is required", relaberrors.ErrEmptyValue)
	}

	name := params.TaskName
	if name == "" {
		name = "evaluation"
	}

	reg := registry.New()
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = p.cfg.Pipeline.Concurrency
	}
	for _, prov := range params.Providers {
		task := &domain.Task{
			Name:        fmt.Sprintf("%s_%s", name, prov),
			PromptFiles: params.PromptPaths,
			Provider:    prov,
			Concurrency: concurrency,
			Mode:        domain.ModeStandard,
		}
		if err := reg.Add(task); err != nil {
			return nil, nil, err
		}
	}
	return reg, nil, nil
}

// resolveTaskPrompts maps every task to concrete prompt file paths. A prompt
// entry naming an existing file is used as-is; anything else is treated as a
// template role and resolved through the filler with the repo binding.
func (p *Pipeline) resolveTaskPrompts(reg *registry.Registry, params *EvaluateParams) (map[string][]string, error) {
	filler := template.NewFiller(params.TemplateDir, params.PromptOutputDir, template.WithFillerLogger(p.logger))
	bindings := domain.BindingSet{domain.BindingRepoPath: params.RepoPath}

	prompts := make(map[string][]string, reg.Len())
	for _, task := range reg.List() {
		paths := make([]string, 0, len(task.PromptFiles))
		for _, entry := range task.PromptFiles {
			if _, err := os.Stat(entry); err == nil {
				paths = append(paths, entry)
				continue
			}
			rp, err := filler.Resolve(task.Name, task.Mode, entry, bindings)
			if err != nil {
				return nil, fmt.Errorf("task %s prompt %q: %w", task.Name, entry, err)
			}
			paths = append(paths, rp.Path)
		}
		prompts[task.Name] = paths
	}
	return prompts, nil
}
