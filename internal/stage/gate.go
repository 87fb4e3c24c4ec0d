// Package stage enforces pipeline phase ordering. A stage gate holds a table
// of dependency edges; a downstream task is only released once the artifact
// its edge names exists on disk. Tasks without an edge release immediately.
package stage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Gate is the stage dependency table plus the wait policy for artifact
// appearance. The table is write-once during setup and read-mostly during
// dispatch, so it is safe for concurrent Release calls from workers.
type Gate struct {
	mu      sync.RWMutex
	edges   map[string]domain.StageEdge // keyed by downstream task name
	timeout time.Duration
	poll    time.Duration
	logger  zerolog.Logger
}

// GateOption is a functional option for configuring a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger for the Gate.
func WithGateLogger(logger zerolog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate creates a gate that waits up to timeout for dependency artifacts,
// re-checking at the poll interval.
func NewGate(timeout, poll time.Duration, opts ...GateOption) *Gate {
	g := &Gate{
		edges:   make(map[string]domain.StageEdge),
		timeout: timeout,
		poll:    poll,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddEdge declares a dependency edge. A downstream task may carry at most one
// edge (ErrEdgeExists otherwise), and an edge that would close a cycle in the
// dependency graph is rejected with ErrCycleDetected, leaving the table
// unchanged.
func (g *Gate) AddEdge(edge domain.StageEdge) error {
	if edge.Upstream == "" || edge.Downstream == "" || edge.ArtifactPath == "" {
		return fmt.Errorf("%w: stage edge requires upstream, downstream, and artifact", relaberrors.ErrEmptyValue)
	}
	if edge.Upstream == edge.Downstream {
		return fmt.Errorf("%w: %s depends on itself", relaberrors.ErrCycleDetected, edge.Downstream)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.edges[edge.Downstream]; ok {
		return fmt.Errorf("%w: %s already depends on %s", relaberrors.ErrEdgeExists, edge.Downstream, existing.Upstream)
	}

	g.edges[edge.Downstream] = edge
	if cycle := g.findCycle(); cycle != nil {
		delete(g.edges, edge.Downstream)
		return fmt.Errorf("%w: %s", relaberrors.ErrCycleDetected, formatCycle(cycle))
	}
	return nil
}

// Edge returns the dependency edge for a downstream task, if declared.
func (g *Gate) Edge(downstream string) (domain.StageEdge, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edge, ok := g.edges[downstream]
	return edge, ok
}

// Release blocks until the task's dependency artifact exists, then returns.
// A task with no declared edge releases immediately. The wait is a
// bounded-interval poll; it ends with ErrDependencyTimeout once the gate's
// timeout elapses, or with the context error on cancellation.
func (g *Gate) Release(ctx context.Context, taskName string) error {
	edge, ok := g.Edge(taskName)
	if !ok {
		return nil
	}

	if artifactExists(edge.ArtifactPath) {
		return nil
	}

	g.logger.Info().
		Str("task", taskName).
		Str("upstream", edge.Upstream).
		Str("artifact", edge.ArtifactPath).
		Dur("timeout", g.timeout).
		Msg("waiting for dependency artifact")

	deadline := time.NewTimer(g.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(g.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: task %s waited %s for artifact %s from %s",
				relaberrors.ErrDependencyTimeout, taskName, g.timeout, edge.ArtifactPath, edge.Upstream)
		case <-ticker.C:
			if artifactExists(edge.ArtifactPath) {
				g.logger.Info().Str("task", taskName).Str("artifact", edge.ArtifactPath).Msg("dependency artifact observed")
				return nil
			}
		}
	}
}

// artifactExists reports whether the artifact path exists on disk.
func artifactExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
