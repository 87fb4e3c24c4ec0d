// Package pipeline wires the task registry, template filler, stage gate,
// dispatcher, provider runners, and output manager into the generate,
// construct, and evaluate operations exposed by the CLI.
package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/config"
	"github.com/mrz1836/relab/internal/dispatch"
	"github.com/mrz1836/relab/internal/domain"
	"github.com/mrz1836/relab/internal/output"
	"github.com/mrz1836/relab/internal/provider"
	"github.com/mrz1836/relab/internal/registry"
	"github.com/mrz1836/relab/internal/stage"
)

// Pipeline coordinates a batch run end to end: allocate output, hold jobs at
// the stage gate, dispatch them under provider concurrency caps, and persist
// an invocation record per job.
type Pipeline struct {
	cfg    *config.Config
	runner provider.Runner
	out    *output.Manager
	pusher Pusher
	logger zerolog.Logger
}

// Option is a functional option for configuring a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithOutputManager overrides the output manager, mainly for tests.
func WithOutputManager(m *output.Manager) Option {
	return func(p *Pipeline) {
		p.out = m
	}
}

// WithPusher overrides the artifact pusher, mainly for tests.
func WithPusher(pusher Pusher) Option {
	return func(p *Pipeline) {
		p.pusher = pusher
	}
}

// New creates a pipeline invoking providers through runner.
func New(cfg *config.Config, runner provider.Runner, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		runner: runner,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.out == nil {
		p.out = output.NewManager(cfg.Output.Root, output.WithManagerLogger(p.logger))
	}
	if p.pusher == nil {
		p.pusher = NewGitPusher(WithPusherLogger(p.logger))
	}
	return p
}

// newGate builds a stage gate from the pipeline's wait policy.
func (p *Pipeline) newGate() *stage.Gate {
	return stage.NewGate(
		p.cfg.Pipeline.DependencyTimeout,
		p.cfg.Pipeline.DependencyPollInterval,
		stage.WithGateLogger(p.logger),
	)
}

// batchJob is a job plus the run directory allocated for its artifacts.
type batchJob struct {
	job *domain.Job
	dir *output.RunDir
}

// runBatch creates jobs for every (task, prompt) pair, releases each task
// through the gate, dispatches everything, and records outcomes. Output
// directories are allocated before anything runs so a full batch either has
// all its run dirs or fails before the first invocation.
func (p *Pipeline) runBatch(ctx context.Context, reg *registry.Registry, gate *stage.Gate, prompts map[string][]string, workingDir string, limits map[domain.Provider]int, push bool) (*dispatch.Summary, error) {
	byTask := make(map[string][]*batchJob)
	runDirs := make(map[string]*output.RunDir)

	for _, task := range reg.List() {
		for _, promptPath := range prompts[task.Name] {
			dir, err := p.out.Allocate(task.Name, task.Provider)
			if err != nil {
				return nil, err
			}
			job := domain.NewJob(task.Name, task.Provider, promptPath)
			job.WorkingDir = workingDir
			job.OutputDir = dir.Root
			job.Timeout = p.cfg.Provider.Timeout
			byTask[task.Name] = append(byTask[task.Name], &batchJob{job: job, dir: dir})
			runDirs[job.ID] = dir
		}
	}

	d := dispatch.NewDispatcher(ctx, p.runner, limits, dispatch.WithDispatcherLogger(p.logger))

	var mu sync.Mutex
	var held []*dispatch.Outcome
	var wg sync.WaitGroup

	for _, task := range reg.List() {
		jobs := byTask[task.Name]
		if len(jobs) == 0 {
			continue
		}
		wg.Add(1)
		go func(taskName string, jobs []*batchJob) {
			defer wg.Done()

			if gate != nil {
				if err := gate.Release(ctx, taskName); err != nil {
					// The gate failed the whole task; its jobs never reach
					// the dispatcher.
					mu.Lock()
					for _, bj := range jobs {
						_ = bj.job.Transition(domain.JobFailed, err)
						held = append(held, &dispatch.Outcome{Job: bj.job})
					}
					mu.Unlock()
					p.logger.Error().Err(err).Str("task", taskName).Msg("stage gate failed task")
					return
				}
			}

			for _, bj := range jobs {
				if err := d.Submit(bj.job); err != nil {
					mu.Lock()
					_ = bj.job.Transition(domain.JobFailed, err)
					held = append(held, &dispatch.Outcome{Job: bj.job})
					mu.Unlock()
				}
			}
		}(task.Name, jobs)
	}

	wg.Wait()
	summary := d.Close()
	summary.Outcomes = append(summary.Outcomes, held...)

	for _, o := range summary.Outcomes {
		if dir, ok := runDirs[o.Job.ID]; ok {
			p.writeRecord(dir, o)
		}
	}

	if push {
		if err := p.pusher.Push(ctx, workingDir, pushMessage(summary)); err != nil {
			// Push is best-effort; the batch outcome stands on its own.
			p.logger.Warn().Err(err).Msg("artifact push failed")
		}
	}

	return summary, nil
}

// providerLimits derives the per-provider concurrency caps for a batch.
// A positive override wins; otherwise the largest task budget per provider
// applies, falling back to the configured default.
func (p *Pipeline) providerLimits(reg *registry.Registry, override int) map[domain.Provider]int {
	limits := make(map[domain.Provider]int)
	for _, task := range reg.List() {
		c := task.Concurrency
		if override > 0 {
			c = override
		}
		if c > limits[task.Provider] {
			limits[task.Provider] = c
		}
	}
	for prov, c := range limits {
		if c < 1 {
			limits[prov] = p.cfg.Pipeline.Concurrency
		}
	}
	return limits
}
