package dispatch

import (
	"fmt"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Outcome pairs a terminal job with its invocation result. Result is nil for
// jobs canceled before their invocation was attempted.
type Outcome struct {
	Job    *domain.Job
	Result *domain.InvokeResult
}

// Summary reports the terminal state of every job in a batch.
type Summary struct {
	Outcomes []*Outcome
}

// Succeeded returns the number of jobs that reached succeeded.
func (s *Summary) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Job.Status() == domain.JobSucceeded {
			n++
		}
	}
	return n
}

// Failed returns the number of jobs that reached failed.
func (s *Summary) Failed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Job.Status() == domain.JobFailed {
			n++
		}
	}
	return n
}

// Err returns nil when every job succeeded, otherwise ErrBatchFailed with
// the failure count.
func (s *Summary) Err() error {
	if failed := s.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d jobs failed", relaberrors.ErrBatchFailed, failed, len(s.Outcomes))
	}
	return nil
}
