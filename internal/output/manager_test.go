package output

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/relab/internal/constants"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// fixedClock always reports the same instant, forcing timestamp collisions.
type fixedClock struct {
	at time.Time
}

func (f fixedClock) Now() time.Time {
	return f.at
}

func TestManagerAllocate(t *testing.T) {
	t.Run("creates run dir with fixed layout", func(t *testing.T) {
		root := t.TempDir()
		m := NewManager(root)

		rd, err := m.Allocate("counting", domain.ProviderClaude)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(rd.Root, constants.LogsDir), rd.Logs)
		for _, dir := range []string{rd.Root, rd.Logs, rd.Notebooks, rd.Results} {
			info, statErr := os.Stat(dir)
			require.NoError(t, statErr)
			assert.True(t, info.IsDir())
		}

		base := filepath.Base(rd.Root)
		assert.Contains(t, base, "counting_claude_")
	})

	t.Run("rejects empty task name", func(t *testing.T) {
		m := NewManager(t.TempDir())
		_, err := m.Allocate("", domain.ProviderClaude)
		require.ErrorIs(t, err, relaberrors.ErrEmptyValue)
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		m := NewManager(t.TempDir())
		_, err := m.Allocate("counting", "bard")
		require.ErrorIs(t, err, relaberrors.ErrProviderNotFound)
	})

	t.Run("creates missing output root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "out")
		m := NewManager(root)

		rd, err := m.Allocate("counting", domain.ProviderGemini)
		require.NoError(t, err)
		assert.DirExists(t, rd.Root)
	})
}

func TestManagerAllocateSameTick(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	t.Run("suffix disambiguates collisions", func(t *testing.T) {
		root := t.TempDir()
		m := NewManager(root, WithClock(fixedClock{at: now}))

		first, err := m.Allocate("counting", domain.ProviderClaude)
		require.NoError(t, err)
		second, err := m.Allocate("counting", domain.ProviderClaude)
		require.NoError(t, err)
		third, err := m.Allocate("counting", domain.ProviderClaude)
		require.NoError(t, err)

		assert.NotEqual(t, first.Root, second.Root)
		assert.NotEqual(t, second.Root, third.Root)
		assert.Equal(t, first.Root+"_1", second.Root)
		assert.Equal(t, first.Root+"_2", third.Root)
	})

	t.Run("exhausted suffixes fail with collision error", func(t *testing.T) {
		root := t.TempDir()
		m := NewManager(root, WithClock(fixedClock{at: now}))

		for i := 0; i <= constants.MaxAllocateAttempts; i++ {
			_, err := m.Allocate("counting", domain.ProviderClaude)
			require.NoError(t, err)
		}

		_, err := m.Allocate("counting", domain.ProviderClaude)
		require.ErrorIs(t, err, relaberrors.ErrOutputCollision)
	})

	t.Run("concurrent same-tick allocations stay unique", func(t *testing.T) {
		root := t.TempDir()
		m := NewManager(root, WithClock(fixedClock{at: now}))

		const n = 8
		var mu sync.Mutex
		var wg sync.WaitGroup
		paths := make(map[string]struct{}, n)

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rd, err := m.Allocate("counting", domain.ProviderCodex)
				assert.NoError(t, err)
				if rd != nil {
					mu.Lock()
					paths[rd.Root] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Len(t, paths, n)
	})
}
