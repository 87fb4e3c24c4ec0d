// Package dispatch runs provider invocations under per-provider concurrency
// caps. Each provider gets one FIFO queue and a fixed pool of workers, so at
// most C jobs per provider run simultaneously while providers stay
// independent of each other. A failed job is reported in the batch summary
// and never aborts its siblings; retry policy belongs to the caller.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
	"github.com/mrz1836/relab/internal/provider"
)

// queueCapacity bounds each provider queue. Submissions beyond capacity
// block until a worker drains the queue.
const queueCapacity = 256

// Dispatcher owns every job it accepts for the job's whole lifetime:
// queued on Submit, running while its worker invokes the provider, and
// terminal once the invocation settles or the job is canceled.
type Dispatcher struct {
	runner provider.Runner
	logger zerolog.Logger

	queues map[domain.Provider]chan *domain.Job
	group  errgroup.Group

	mu       sync.Mutex
	jobs     map[string]*domain.Job
	cancels  map[string]context.CancelFunc
	outcomes []*Outcome
	closed   bool

	// submits tracks accepted Submit calls whose queue send is still in
	// flight. Close waits on it before closing any queue, so an accepted
	// submission can never send on a closed channel.
	submits sync.WaitGroup
}

// DispatcherOption is a functional option for configuring a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger for the Dispatcher.
func WithDispatcherLogger(logger zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher invoking jobs through runner and starts
// `limits[p]` workers for each provider p. Providers absent from limits
// accept no jobs. ctx bounds all invocations; canceling it fails queued and
// running jobs instead of abandoning them.
func NewDispatcher(ctx context.Context, runner provider.Runner, limits map[domain.Provider]int, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		runner:  runner,
		logger:  zerolog.Nop(),
		queues:  make(map[domain.Provider]chan *domain.Job, len(limits)),
		jobs:    make(map[string]*domain.Job),
		cancels: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(d)
	}

	for p, limit := range limits {
		if limit < 1 {
			limit = 1
		}
		queue := make(chan *domain.Job, queueCapacity)
		d.queues[p] = queue
		for i := 0; i < limit; i++ {
			d.group.Go(func() error {
				for job := range queue {
					d.runJob(ctx, job)
				}
				return nil
			})
		}
	}

	return d
}

// Submit enqueues a queued job behind every earlier submission for its
// provider. Returns ErrProviderNotFound when the dispatcher has no workers
// for the job's provider and ErrJobNotQueued after Close. A submission
// accepted concurrently with Close is still dispatched and appears in the
// batch summary.
func (d *Dispatcher) Submit(job *domain.Job) error {
	queue, ok := d.queues[job.Provider]
	if !ok {
		return fmt.Errorf("%w: no workers for %s", relaberrors.ErrProviderNotFound, job.Provider)
	}

	// The closed check and the in-flight registration are one atomic step:
	// once submits is incremented under the lock, Close cannot close this
	// queue until the send below has completed.
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("%w: dispatcher is closed", relaberrors.ErrJobNotQueued)
	}
	d.jobs[job.ID] = job
	d.submits.Add(1)
	d.mu.Unlock()
	defer d.submits.Done()

	d.logger.Debug().
		Str("job_id", job.ID).
		Str("task", job.TaskName).
		Str("provider", string(job.Provider)).
		Msg("job queued")

	queue <- job
	return nil
}

// Cancel cancels a job by ID. A queued job is marked failed and skipped by
// its worker without side effects; a running job has its invocation context
// canceled best-effort, leaving partial artifacts in its output directory.
// Terminal jobs return ErrJobNotQueued.
func (d *Dispatcher) Cancel(jobID string) error {
	d.mu.Lock()
	job, ok := d.jobs[jobID]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", relaberrors.ErrJobNotFound, jobID)
	}

	if cancel := d.cancels[jobID]; cancel != nil {
		d.mu.Unlock()
		d.logger.Info().Str("job_id", jobID).Msg("canceling running job")
		cancel()
		return nil
	}

	// Still queued: fail it under the dispatcher lock so the worker cannot
	// start it concurrently, then the worker skips the invocation entirely.
	if err := job.Transition(domain.JobFailed, context.Canceled); err != nil {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", relaberrors.ErrJobNotQueued, jobID)
	}
	d.outcomes = append(d.outcomes, &Outcome{Job: job})
	d.mu.Unlock()

	d.logger.Info().Str("job_id", jobID).Msg("canceled queued job")
	return nil
}

// Job looks up a submitted job by ID.
func (d *Dispatcher) Job(jobID string) (*domain.Job, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	job, ok := d.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", relaberrors.ErrJobNotFound, jobID)
	}
	return job, nil
}

// Close stops accepting submissions, waits for every accepted job to reach a
// terminal state, and returns the batch summary.
func (d *Dispatcher) Close() *Summary {
	d.mu.Lock()
	first := !d.closed
	d.closed = true
	d.mu.Unlock()

	if first {
		// Let accepted submissions finish their sends before the queues go.
		d.submits.Wait()
		for _, queue := range d.queues {
			close(queue)
		}
	}

	_ = d.group.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	return &Summary{Outcomes: d.outcomes}
}

// runJob executes one invocation and settles the job's terminal state.
func (d *Dispatcher) runJob(ctx context.Context, job *domain.Job) {
	jobCtx, cancel := context.WithCancel(ctx)

	// Transition and cancel registration happen under the dispatcher lock so
	// Cancel sees either a queued job or a registered cancel func, never a
	// gap between the two. A job canceled while queued is already terminal.
	d.mu.Lock()
	if err := job.Transition(domain.JobRunning, nil); err != nil {
		d.mu.Unlock()
		cancel()
		return
	}
	d.cancels[job.ID] = cancel
	d.mu.Unlock()
	defer func() {
		cancel()
		d.mu.Lock()
		delete(d.cancels, job.ID)
		d.mu.Unlock()
	}()

	d.logger.Info().
		Str("job_id", job.ID).
		Str("task", job.TaskName).
		Str("provider", string(job.Provider)).
		Msg("job running")

	result, err := d.runner.Invoke(jobCtx, &domain.InvokeRequest{
		Provider:    job.Provider,
		PromptPath:  job.PromptPath,
		Timeout:     job.Timeout,
		WorkingDir:  job.WorkingDir,
		ArtifactDir: job.OutputDir,
	})

	switch {
	case err != nil:
		_ = job.Transition(domain.JobFailed, err)
	case result.Succeeded():
		_ = job.Transition(domain.JobSucceeded, nil)
	default:
		_ = job.Transition(domain.JobFailed, invocationError(result))
	}

	d.record(&Outcome{Job: job, Result: result})

	d.logger.Info().
		Str("job_id", job.ID).
		Str("status", string(job.Status())).
		Dur("duration", job.Duration()).
		Msg("job settled")
}

// record appends a terminal outcome to the batch summary.
func (d *Dispatcher) record(o *Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outcomes = append(d.outcomes, o)
}

// invocationError maps a non-success invocation status onto the error
// taxonomy recorded on the job.
func invocationError(result *domain.InvokeResult) error {
	switch result.Status {
	case domain.InvokeTimedOut:
		return fmt.Errorf("%w: %s", relaberrors.ErrProviderTimeout, result.Error)
	case domain.InvokeAuthFailed:
		return fmt.Errorf("%w: %s", relaberrors.ErrAuthFailed, result.Error)
	default:
		return fmt.Errorf("provider reported failure: %s", result.Error)
	}
}
