// Package output allocates collision-free run directories for jobs. Each
// allocation produces {root}/{task}_{provider}_{timestamp}/ with the fixed
// logs/, notebooks/, and results/ layout consumed by later pipeline stages.
// Directories are never deleted here; lifecycle belongs to the caller.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/clock"
	"github.com/mrz1836/relab/internal/constants"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

const dirPerm = 0o750

// RunDir is an allocated output directory and its fixed subdirectories.
type RunDir struct {
	// Root is the allocated run directory itself.
	Root string

	// Logs holds invocation records and provider output logs.
	Logs string

	// Notebooks holds executable analysis artifacts produced by the agent.
	Notebooks string

	// Results holds the final artifacts later stages depend on.
	Results string
}

// Manager allocates run directories under a configured root.
type Manager struct {
	root   string
	clock  clock.Clock
	logger zerolog.Logger
}

// ManagerOption is a functional option for configuring a Manager.
type ManagerOption func(*Manager)

// WithClock sets the clock used for run timestamps.
func WithClock(c clock.Clock) ManagerOption {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager allocating run directories under root.
func NewManager(root string, opts ...ManagerOption) *Manager {
	m := &Manager{
		root:   root,
		clock:  clock.RealClock{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allocate creates a fresh run directory for (task, provider) keyed by the
// current timestamp. Uniqueness rides on os.Mkdir failing with EEXIST: a
// same-tick collision retries with a _1.._N suffix and gives up with
// ErrOutputCollision after constants.MaxAllocateAttempts. The allocated
// directory is never handed out twice.
func (m *Manager) Allocate(taskName string, provider domain.Provider) (*RunDir, error) {
	if taskName == "" {
		return nil, fmt.Errorf("%w: task name", relaberrors.ErrEmptyValue)
	}
	if !provider.IsValid() {
		return nil, fmt.Errorf("%w: %s", relaberrors.ErrProviderNotFound, provider)
	}

	if err := os.MkdirAll(m.root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create output root %s: %w", m.root, err)
	}

	stamp := m.clock.Now().Format(constants.RunTimestampFormat)
	base := fmt.Sprintf("%s_%s_%s", taskName, provider, stamp)

	for attempt := 0; attempt <= constants.MaxAllocateAttempts; attempt++ {
		name := base
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d", base, attempt)
		}
		path := filepath.Join(m.root, name)

		// Mkdir (not MkdirAll) is the atomicity point: exactly one caller
		// wins a given path.
		err := os.Mkdir(path, dirPerm)
		if err == nil {
			return m.layout(path)
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create run dir %s: %w", path, err)
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts", relaberrors.ErrOutputCollision, base, constants.MaxAllocateAttempts)
}

// layout creates the fixed subdirectory structure inside an allocated run dir.
func (m *Manager) layout(root string) (*RunDir, error) {
	rd := &RunDir{
		Root:      root,
		Logs:      filepath.Join(root, constants.LogsDir),
		Notebooks: filepath.Join(root, constants.NotebooksDir),
		Results:   filepath.Join(root, constants.ResultsDir),
	}

	for _, dir := range []string{rd.Logs, rd.Notebooks, rd.Results} {
		if err := os.Mkdir(dir, dirPerm); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	m.logger.Debug().Str("run_dir", root).Msg("allocated output directory")
	return rd, nil
}
