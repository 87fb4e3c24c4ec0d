package stage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// testGate returns a gate with short wait bounds suitable for tests.
func testGate() *Gate {
	return NewGate(200*time.Millisecond, 10*time.Millisecond)
}

func edge(up, down, artifact string) domain.StageEdge {
	return domain.StageEdge{Upstream: up, Downstream: down, ArtifactPath: artifact}
}

func TestGateAddEdge(t *testing.T) {
	t.Run("accepts valid edge", func(t *testing.T) {
		g := testGate()
		require.NoError(t, g.AddEdge(edge("replication", "evaluator", "/out/plan.md")))

		got, ok := g.Edge("evaluator")
		require.True(t, ok)
		assert.Equal(t, "replication", got.Upstream)
	})

	t.Run("rejects incomplete edge", func(t *testing.T) {
		g := testGate()
		require.ErrorIs(t, g.AddEdge(edge("a", "b", "")), relaberrors.ErrEmptyValue)
		require.ErrorIs(t, g.AddEdge(edge("", "b", "/x")), relaberrors.ErrEmptyValue)
	})

	t.Run("rejects duplicate downstream", func(t *testing.T) {
		g := testGate()
		require.NoError(t, g.AddEdge(edge("a", "b", "/x")))
		require.ErrorIs(t, g.AddEdge(edge("c", "b", "/y")), relaberrors.ErrEdgeExists)
	})

	t.Run("rejects self dependency", func(t *testing.T) {
		g := testGate()
		require.ErrorIs(t, g.AddEdge(edge("a", "a", "/x")), relaberrors.ErrCycleDetected)
	})

	t.Run("rejects cycle and leaves table unchanged", func(t *testing.T) {
		g := testGate()
		require.NoError(t, g.AddEdge(edge("a", "b", "/x")))
		require.NoError(t, g.AddEdge(edge("b", "c", "/y")))

		err := g.AddEdge(edge("c", "a", "/z"))
		require.ErrorIs(t, err, relaberrors.ErrCycleDetected)

		// The offending edge must not remain in the table.
		_, ok := g.Edge("a")
		assert.False(t, ok)
		require.NoError(t, g.AddEdge(edge("d", "a", "/w")))
	})
}

func TestGateRelease(t *testing.T) {
	t.Run("no edge releases immediately", func(t *testing.T) {
		g := testGate()
		require.NoError(t, g.Release(context.Background(), "independent"))
	})

	t.Run("existing artifact releases immediately", func(t *testing.T) {
		artifact := filepath.Join(t.TempDir(), "plan.md")
		require.NoError(t, os.WriteFile(artifact, []byte("plan"), 0o600))

		g := testGate()
		require.NoError(t, g.AddEdge(edge("replication", "evaluator", artifact)))
		require.NoError(t, g.Release(context.Background(), "evaluator"))
	})

	t.Run("blocks until artifact appears", func(t *testing.T) {
		artifact := filepath.Join(t.TempDir(), "plan.md")

		g := NewGate(2*time.Second, 5*time.Millisecond)
		require.NoError(t, g.AddEdge(edge("replication", "evaluator", artifact)))

		go func() {
			time.Sleep(30 * time.Millisecond)
			_ = os.WriteFile(artifact, []byte("plan"), 0o600)
		}()

		start := time.Now()
		require.NoError(t, g.Release(context.Background(), "evaluator"))
		assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
	})

	t.Run("times out when artifact never appears", func(t *testing.T) {
		artifact := filepath.Join(t.TempDir(), "never.md")

		g := NewGate(50*time.Millisecond, 5*time.Millisecond)
		require.NoError(t, g.AddEdge(edge("replication", "evaluator", artifact)))

		err := g.Release(context.Background(), "evaluator")
		require.ErrorIs(t, err, relaberrors.ErrDependencyTimeout)
		assert.Contains(t, err.Error(), artifact)
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		artifact := filepath.Join(t.TempDir(), "never.md")

		g := NewGate(5*time.Second, 5*time.Millisecond)
		require.NoError(t, g.AddEdge(edge("replication", "evaluator", artifact)))

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		err := g.Release(ctx, "evaluator")
		require.ErrorIs(t, err, context.Canceled)
	})
}
