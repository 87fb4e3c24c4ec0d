package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/config"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Registry maps provider types to their runners.
// It provides thread-safe registration and lookup.
type Registry struct {
	mu      sync.RWMutex
	runners map[domain.Provider]Runner
}

// NewRegistry creates a new empty runner registry.
func NewRegistry() *Registry {
	return &Registry{
		runners: make(map[domain.Provider]Runner),
	}
}

// NewDefaultRegistry creates a registry with the production claude, gemini,
// and codex runners registered against the given configuration.
func NewDefaultRegistry(cfg *config.ProviderConfig, logger zerolog.Logger) *Registry {
	reg := NewRegistry()
	reg.Register(domain.ProviderClaude, NewClaudeRunner(cfg, nil, WithClaudeLogger(logger)))
	reg.Register(domain.ProviderGemini, NewGeminiRunner(cfg, nil, WithGeminiLogger(logger)))
	reg.Register(domain.ProviderCodex, NewCodexRunner(cfg, nil, WithCodexLogger(logger)))
	return reg
}

// Register adds a runner for a provider type.
// If a runner already exists for the provider, it is replaced.
func (r *Registry) Register(p domain.Provider, runner Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runners[p] = runner
}

// Get retrieves the runner for a provider type.
// Returns ErrProviderNotFound if no runner is registered for the provider.
func (r *Registry) Get(p domain.Provider) (Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runner, ok := r.runners[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", relaberrors.ErrProviderNotFound, p)
	}
	return runner, nil
}

// Has checks if a runner is registered for the provider.
func (r *Registry) Has(p domain.Provider) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.runners[p]
	return ok
}

// Providers returns all registered provider types.
func (r *Registry) Providers() []domain.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]domain.Provider, 0, len(r.runners))
	for p := range r.runners {
		providers = append(providers, p)
	}
	return providers
}

// MultiRunner dispatches invocations to the appropriate runner based on the
// request's provider field. It implements the Runner interface to provide
// transparent provider routing.
type MultiRunner struct {
	registry *Registry
}

// NewMultiRunner creates a multi-runner with the given registry.
func NewMultiRunner(registry *Registry) *MultiRunner {
	return &MultiRunner{registry: registry}
}

// Invoke dispatches to the appropriate runner based on req.Provider.
// Returns ErrEmptyValue if req.Provider is not specified.
func (m *MultiRunner) Invoke(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
	if req.Provider == "" {
		return nil, fmt.Errorf("%w: provider must be specified in request", relaberrors.ErrEmptyValue)
	}

	runner, err := m.registry.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	return runner.Invoke(ctx, req)
}

// Compile-time check that MultiRunner implements Runner.
var _ Runner = (*MultiRunner)(nil)
