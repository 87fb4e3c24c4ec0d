package domain

// JobStatus represents the lifecycle state of a job. A job is owned
// exclusively by the dispatcher: created queued, moved to running when a
// provider slot frees, and finished as succeeded or failed.
type JobStatus string

// Job lifecycle states.
const (
	// JobQueued means the job is waiting for a provider slot.
	JobQueued JobStatus = "queued"

	// JobRunning means the provider invocation is in flight.
	JobRunning JobStatus = "running"

	// JobSucceeded means the provider reported success and artifacts are persisted.
	JobSucceeded JobStatus = "succeeded"

	// JobFailed means the provider reported failure, timed out, or the job
	// was canceled. The job's invocation status carries the precise reason.
	JobFailed JobStatus = "failed"
)

// String returns the string representation of the status.
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the status is final.
func (s JobStatus) IsTerminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// CanTransitionTo reports whether a transition to the target status is legal.
// Each transition happens exactly once; terminal states accept nothing.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobQueued:
		// queued jobs may be canceled straight to failed
		return target == JobRunning || target == JobFailed
	case JobRunning:
		return target == JobSucceeded || target == JobFailed
	default:
		return false
	}
}
