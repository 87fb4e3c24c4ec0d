package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Job is one concrete provider invocation derived from a task and a resolved
// prompt. Status is the only field mutated after creation; every transition
// happens exactly once under the job's lock so concurrent observers never see
// a lost update.
type Job struct {
	// ID uniquely identifies the job for cancellation and reporting.
	ID string `json:"id"`

	// TaskName is the registry task this job belongs to.
	TaskName string `json:"task_name"`

	// Provider is the agent backend executing this job.
	Provider Provider `json:"provider"`

	// PromptPath is the resolved prompt file the provider is invoked with.
	PromptPath string `json:"prompt_path"`

	// WorkingDir is the directory the provider operates in.
	WorkingDir string `json:"working_dir"`

	// OutputDir is the allocated run directory this job writes artifacts to.
	OutputDir string `json:"output_dir"`

	// Timeout bounds the provider invocation. Zero uses the provider default.
	Timeout time.Duration `json:"timeout,omitempty"`

	mu         sync.Mutex
	status     JobStatus
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

// NewJob creates a queued job with a fresh ID.
func NewJob(taskName string, provider Provider, promptPath string) *Job {
	return &Job{
		ID:         uuid.NewString(),
		TaskName:   taskName,
		Provider:   provider,
		PromptPath: promptPath,
		status:     JobQueued,
	}
}

// Status returns the job's current lifecycle state.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the failure recorded on the job, nil while not failed.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// StartedAt returns when the job entered running, zero if it never ran.
func (j *Job) StartedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.startedAt
}

// FinishedAt returns when the job reached a terminal state.
func (j *Job) FinishedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finishedAt
}

// Duration returns how long the job ran, zero if it never started or is
// still running.
func (j *Job) Duration() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.startedAt.IsZero() || j.finishedAt.IsZero() {
		return 0
	}
	return j.finishedAt.Sub(j.startedAt)
}

// Transition moves the job to the target status, recording timestamps and,
// for failures, the cause. Illegal transitions return ErrInvalidTransition
// and leave the job unchanged.
func (j *Job) Transition(target JobStatus, cause error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.status.CanTransitionTo(target) {
		return fmt.Errorf("%w: job %s: %s -> %s", relaberrors.ErrInvalidTransition, j.ID, j.status, target)
	}

	now := time.Now()
	switch target {
	case JobRunning:
		j.startedAt = now
	case JobSucceeded, JobFailed:
		j.finishedAt = now
	}
	if target == JobFailed {
		j.err = cause
	}
	j.status = target
	return nil
}
