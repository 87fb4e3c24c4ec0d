package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/config"
	"github.com/mrz1836/relab/internal/constants"
	"github.com/mrz1836/relab/internal/ctxutil"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// ExecuteFunc is the function signature for provider-specific command execution.
type ExecuteFunc func(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error)

// BaseRunner provides common functionality for runner implementations.
// Embed this in provider-specific runners to share timeout handling, prompt
// loading, and failure classification. Retries are deliberately absent:
// re-submission is a caller decision, never implicit.
type BaseRunner struct {
	Config   *config.ProviderConfig
	Executor CommandExecutor
	Info     CLIInfo
	Logger   zerolog.Logger // Logger for diagnostics (optional, uses nop if not set)
}

// ValidateWorkingDir checks if the working directory exists.
// Returns nil if the directory exists or is empty (current dir).
// This prevents a wasted provider invocation when the repo path is wrong.
func (b *BaseRunner) ValidateWorkingDir(workingDir string) error {
	if workingDir == "" {
		return nil
	}
	if _, err := os.Stat(workingDir); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", relaberrors.ErrWorkingDirMissing, workingDir)
	}
	return nil
}

// LoadPrompt returns the prompt text for the request, reading PromptPath if
// the text was not populated by the caller.
func (b *BaseRunner) LoadPrompt(req *domain.InvokeRequest) (string, error) {
	if req.Prompt != "" {
		return req.Prompt, nil
	}
	data, err := os.ReadFile(req.PromptPath)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt %s: %w", req.PromptPath, err)
	}
	return string(data), nil
}

// ResolveTimeout determines the timeout to use for a request.
// Priority: request timeout > config timeout > default timeout.
func (b *BaseRunner) ResolveTimeout(req *domain.InvokeRequest) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}
	if b.Config != nil && b.Config.Timeout > 0 {
		return b.Config.Timeout
	}
	return constants.DefaultProviderTimeout
}

// ResolveModel determines the model to request: request > config > provider default.
// The short alias is resolved to the provider's full model name.
func (b *BaseRunner) ResolveModel(req *domain.InvokeRequest) string {
	model := req.Model
	if model == "" && b.Config != nil {
		model = b.Config.Model
	}
	if model == "" {
		model = req.Provider.DefaultModel()
	}
	return req.Provider.ResolveModelAlias(model)
}

// RunWithTimeout executes an invocation with proper timeout handling.
// The execute function is provider-specific and handles command building and
// response parsing. A deadline hit on the invocation context is classified
// as a timed_out result rather than an error; parent cancellation propagates.
func (b *BaseRunner) RunWithTimeout(ctx context.Context, req *domain.InvokeRequest, execute ExecuteFunc) (*domain.InvokeResult, error) {
	// Check cancellation at entry
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}

	timeout := b.ResolveTimeout(req)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := execute(runCtx, req)
	elapsed := time.Since(start)

	if err != nil {
		// Parent cancellation wins over any classification.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			b.Logger.Warn().
				Str("provider", req.Provider.String()).
				Dur("timeout", timeout).
				Msg("provider invocation timed out")
			return &domain.InvokeResult{
				Status:     domain.InvokeTimedOut,
				Error:      fmt.Sprintf("%s: exceeded %s", relaberrors.ErrProviderTimeout.Error(), timeout),
				DurationMs: elapsed.Milliseconds(),
			}, nil
		}
		return nil, err
	}

	if result.DurationMs == 0 {
		result.DurationMs = elapsed.Milliseconds()
	}
	if result.ArtifactDir == "" {
		result.ArtifactDir = req.ArtifactDir
	}
	return result, nil
}

// ClassifyFailure converts a subprocess execution error into a failed or
// auth_failed result using stderr heuristics. The wrapped message carries the
// provider sentinel so errors.Is checks still work on the recorded text.
func (b *BaseRunner) ClassifyFailure(err error, stderr []byte) *domain.InvokeResult {
	wrapped := WrapCLIExecutionError(b.Info, err, stderr)
	status := domain.InvokeFailed
	if errors.Is(wrapped, relaberrors.ErrAuthFailed) {
		status = domain.InvokeAuthFailed
	}
	return &domain.InvokeResult{
		Status: status,
		Error:  wrapped.Error(),
	}
}
