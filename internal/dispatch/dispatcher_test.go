package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// runnerFunc adapts a function to the provider.Runner interface.
type runnerFunc func(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error)

func (f runnerFunc) Invoke(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
	return f(ctx, req)
}

// succeedRunner returns an immediately successful invocation.
func succeedRunner() runnerFunc {
	return func(_ context.Context, _ *domain.InvokeRequest) (*domain.InvokeResult, error) {
		return &domain.InvokeResult{Status: domain.InvokeSucceeded, Output: "ok"}, nil
	}
}

func newJob(task string, p domain.Provider) *domain.Job {
	return domain.NewJob(task, p, "/prompts/"+task+".md")
}

func TestDispatcherRunsBatch(t *testing.T) {
	d := NewDispatcher(context.Background(), succeedRunner(), map[domain.Provider]int{
		domain.ProviderClaude: 2,
	})

	jobs := make([]*domain.Job, 0, 4)
	for i := 0; i < 4; i++ {
		job := newJob(fmt.Sprintf("task-%d", i), domain.ProviderClaude)
		jobs = append(jobs, job)
		require.NoError(t, d.Submit(job))
	}

	summary := d.Close()
	require.Len(t, summary.Outcomes, 4)
	assert.Equal(t, 4, summary.Succeeded())
	assert.Equal(t, 0, summary.Failed())
	require.NoError(t, summary.Err())

	for _, job := range jobs {
		assert.Equal(t, domain.JobSucceeded, job.Status())
		assert.False(t, job.StartedAt().IsZero())
		assert.False(t, job.FinishedAt().IsZero())
	}
}

func TestDispatcherConcurrencyCap(t *testing.T) {
	const limit = 2
	var active, peak int32

	runner := runnerFunc(func(_ context.Context, _ *domain.InvokeRequest) (*domain.InvokeResult, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return &domain.InvokeResult{Status: domain.InvokeSucceeded}, nil
	})

	d := NewDispatcher(context.Background(), runner, map[domain.Provider]int{
		domain.ProviderClaude: limit,
	})
	for i := 0; i < 8; i++ {
		require.NoError(t, d.Submit(newJob(fmt.Sprintf("task-%d", i), domain.ProviderClaude)))
	}

	summary := d.Close()
	assert.Equal(t, 8, summary.Succeeded())
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit))
}

func TestDispatcherSerializesAtConcurrencyOne(t *testing.T) {
	// Two prompts for one task on a single slot: the second invocation must
	// not start before the first settles.
	var mu sync.Mutex
	var order []string

	first := newJob("counting", domain.ProviderClaude)
	second := newJob("counting", domain.ProviderClaude)

	runner := runnerFunc(func(_ context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
		mu.Lock()
		order = append(order, req.PromptPath)
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		return &domain.InvokeResult{Status: domain.InvokeSucceeded}, nil
	})

	first.PromptPath = "/prompts/p1.md"
	second.PromptPath = "/prompts/p2.md"

	d := NewDispatcher(context.Background(), runner, map[domain.Provider]int{
		domain.ProviderClaude: 1,
	})
	require.NoError(t, d.Submit(first))
	require.NoError(t, d.Submit(second))

	// While the first invocation is in flight, the second must still be queued.
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, domain.JobRunning, first.Status())
	assert.Equal(t, domain.JobQueued, second.Status())

	summary := d.Close()
	require.NoError(t, summary.Err())
	require.Equal(t, []string{"/prompts/p1.md", "/prompts/p2.md"}, order)
}

func TestDispatcherProvidersIndependent(t *testing.T) {
	release := make(chan struct{})
	runner := runnerFunc(func(_ context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
		if req.Provider == domain.ProviderClaude {
			<-release
		}
		return &domain.InvokeResult{Status: domain.InvokeSucceeded}, nil
	})

	d := NewDispatcher(context.Background(), runner, map[domain.Provider]int{
		domain.ProviderClaude: 1,
		domain.ProviderGemini: 1,
	})

	blocked := newJob("slow", domain.ProviderClaude)
	quick := newJob("quick", domain.ProviderGemini)
	require.NoError(t, d.Submit(blocked))
	require.NoError(t, d.Submit(quick))

	// The gemini job finishes while the claude slot is still held.
	require.Eventually(t, func() bool {
		return quick.Status() == domain.JobSucceeded
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.JobRunning, blocked.Status())

	close(release)
	require.NoError(t, d.Close().Err())
}

func TestDispatcherFailureDoesNotAbortSiblings(t *testing.T) {
	runner := runnerFunc(func(_ context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
		if req.PromptPath == "/prompts/bad.md" {
			return &domain.InvokeResult{Status: domain.InvokeTimedOut, Error: "deadline exceeded"}, nil
		}
		return &domain.InvokeResult{Status: domain.InvokeSucceeded}, nil
	})

	d := NewDispatcher(context.Background(), runner, map[domain.Provider]int{
		domain.ProviderClaude: 1,
	})

	bad := newJob("bad", domain.ProviderClaude)
	bad.PromptPath = "/prompts/bad.md"
	good := newJob("good", domain.ProviderClaude)
	require.NoError(t, d.Submit(bad))
	require.NoError(t, d.Submit(good))

	summary := d.Close()
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, 1, summary.Succeeded())
	require.ErrorIs(t, summary.Err(), relaberrors.ErrBatchFailed)

	assert.Equal(t, domain.JobFailed, bad.Status())
	require.ErrorIs(t, bad.Err(), relaberrors.ErrProviderTimeout)
	assert.Equal(t, domain.JobSucceeded, good.Status())
}

func TestDispatcherAuthFailureRecorded(t *testing.T) {
	runner := runnerFunc(func(_ context.Context, _ *domain.InvokeRequest) (*domain.InvokeResult, error) {
		return &domain.InvokeResult{Status: domain.InvokeAuthFailed, Error: "invalid api key"}, nil
	})

	d := NewDispatcher(context.Background(), runner, map[domain.Provider]int{
		domain.ProviderCodex: 1,
	})
	job := newJob("auth", domain.ProviderCodex)
	require.NoError(t, d.Submit(job))

	d.Close()
	require.ErrorIs(t, job.Err(), relaberrors.ErrAuthFailed)
}

func TestDispatcherCancelQueued(t *testing.T) {
	release := make(chan struct{})
	var invocations int32
	runner := runnerFunc(func(_ context.Context, _ *domain.InvokeRequest) (*domain.InvokeResult, error) {
		atomic.AddInt32(&invocations, 1)
		<-release
		return &domain.InvokeResult{Status: domain.InvokeSucceeded}, nil
	})

	d := NewDispatcher(context.Background(), runner, map[domain.Provider]int{
		domain.ProviderClaude: 1,
	})

	running := newJob("running", domain.ProviderClaude)
	queued := newJob("queued", domain.ProviderClaude)
	require.NoError(t, d.Submit(running))
	require.NoError(t, d.Submit(queued))

	require.Eventually(t, func() bool {
		return running.Status() == domain.JobRunning
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Cancel(queued.ID))
	assert.Equal(t, domain.JobFailed, queued.Status())
	require.ErrorIs(t, queued.Err(), context.Canceled)

	close(release)
	summary := d.Close()

	// The canceled job's invocation was never attempted.
	assert.Equal(t, int32(1), atomic.LoadInt32(&invocations))
	require.Len(t, summary.Outcomes, 2)
}

func TestDispatcherCancelRunning(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, _ *domain.InvokeRequest) (*domain.InvokeResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	d := NewDispatcher(context.Background(), runner, map[domain.Provider]int{
		domain.ProviderClaude: 1,
	})
	job := newJob("running", domain.ProviderClaude)
	require.NoError(t, d.Submit(job))

	require.Eventually(t, func() bool {
		return job.Status() == domain.JobRunning
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Cancel(job.ID))
	d.Close()

	assert.Equal(t, domain.JobFailed, job.Status())
	require.ErrorIs(t, job.Err(), context.Canceled)
}

func TestDispatcherCancelErrors(t *testing.T) {
	d := NewDispatcher(context.Background(), succeedRunner(), map[domain.Provider]int{
		domain.ProviderClaude: 1,
	})

	t.Run("unknown job", func(t *testing.T) {
		require.ErrorIs(t, d.Cancel("nope"), relaberrors.ErrJobNotFound)
	})

	t.Run("terminal job", func(t *testing.T) {
		job := newJob("done", domain.ProviderClaude)
		require.NoError(t, d.Submit(job))
		require.Eventually(t, func() bool {
			return job.Status() == domain.JobSucceeded
		}, time.Second, 5*time.Millisecond)
		require.ErrorIs(t, d.Cancel(job.ID), relaberrors.ErrJobNotQueued)
	})

	d.Close()
}

func TestDispatcherSubmitRacingClose(t *testing.T) {
	// A submission racing Close must either be rejected with ErrJobNotQueued
	// or be accepted and settle in the summary; it must never send on a
	// closed queue.
	for i := 0; i < 500; i++ {
		d := NewDispatcher(context.Background(), succeedRunner(), map[domain.Provider]int{
			domain.ProviderClaude: 1,
		})
		job := newJob("racer", domain.ProviderClaude)

		errCh := make(chan error, 1)
		go func() {
			errCh <- d.Submit(job)
		}()

		summary := d.Close()

		if err := <-errCh; err != nil {
			require.ErrorIs(t, err, relaberrors.ErrJobNotQueued)
			assert.Empty(t, summary.Outcomes)
			assert.Equal(t, domain.JobQueued, job.Status())
		} else {
			require.Len(t, summary.Outcomes, 1)
			assert.Equal(t, domain.JobSucceeded, job.Status())
		}
	}
}

func TestDispatcherSubmitErrors(t *testing.T) {
	d := NewDispatcher(context.Background(), succeedRunner(), map[domain.Provider]int{
		domain.ProviderClaude: 1,
	})

	t.Run("unknown provider", func(t *testing.T) {
		err := d.Submit(newJob("task", domain.ProviderGemini))
		require.ErrorIs(t, err, relaberrors.ErrProviderNotFound)
	})

	d.Close()

	t.Run("closed dispatcher", func(t *testing.T) {
		err := d.Submit(newJob("late", domain.ProviderClaude))
		require.ErrorIs(t, err, relaberrors.ErrJobNotQueued)
	})
}
