package provider

import (
	"context"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/config"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// claudeCLIInfo contains Claude-specific CLI metadata for error messages.
//
//nolint:gochecknoglobals // Constant-like structure
var claudeCLIInfo = CLIInfo{
	Name:        "claude",
	InstallHint: domain.ProviderClaude.InstallHint(),
	ErrType:     relaberrors.ErrClaudeInvocation,
	EnvVar:      "ANTHROPIC_API_KEY",
}

// ClaudeRunner implements Runner for Claude Code CLI invocation.
// It builds command-line arguments and executes the claude CLI,
// parsing the JSON response into an InvokeResult.
type ClaudeRunner struct {
	base BaseRunner
}

// ClaudeRunnerOption is a functional option for configuring ClaudeRunner.
type ClaudeRunnerOption func(*ClaudeRunner)

// WithClaudeLogger sets the logger for the ClaudeRunner.
func WithClaudeLogger(logger zerolog.Logger) ClaudeRunnerOption {
	return func(r *ClaudeRunner) {
		r.base.Logger = logger
	}
}

// NewClaudeRunner creates a new ClaudeRunner with the given configuration.
// If executor is nil, a DefaultExecutor is used for production subprocess execution.
func NewClaudeRunner(cfg *config.ProviderConfig, executor CommandExecutor, opts ...ClaudeRunnerOption) *ClaudeRunner {
	if executor == nil {
		executor = &DefaultExecutor{}
	}
	r := &ClaudeRunner{
		base: BaseRunner{
			Config:   cfg,
			Executor: executor,
			Info:     claudeCLIInfo,
			Logger:   zerolog.Nop(),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Invoke executes an invocation using the Claude Code CLI.
// This method delegates to BaseRunner for timeout handling, providing the
// execute function for Claude-specific command execution.
func (r *ClaudeRunner) Invoke(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
	return r.base.RunWithTimeout(ctx, req, r.execute)
}

// execute performs a single invocation.
func (r *ClaudeRunner) execute(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
	// Pre-flight check: verify working directory exists
	if err := r.base.ValidateWorkingDir(req.WorkingDir); err != nil {
		return nil, err
	}

	prompt, err := r.base.LoadPrompt(req)
	if err != nil {
		return nil, err
	}

	cmd := r.buildCommand(ctx, req)

	// Pass prompt via stdin for large prompts
	cmd.Stdin = strings.NewReader(prompt)

	r.base.Logger.Debug().
		Str("cli", "claude").
		Strs("args", cmd.Args[1:]).
		Str("working_dir", cmd.Dir).
		Int("prompt_length", len(prompt)).
		Msg("executing claude CLI")

	stdout, stderr, err := r.base.Executor.Execute(ctx, cmd)
	if err != nil {
		return r.handleExecutionError(ctx, err, stdout, stderr)
	}

	resp, parseErr := parseClaudeResponse(stdout)
	if parseErr != nil {
		return nil, parseErr
	}

	return resp.toInvokeResult(string(stderr)), nil
}

// handleExecutionError processes errors from command execution.
// A JSON error payload on stdout takes precedence over stderr classification.
func (r *ClaudeRunner) handleExecutionError(ctx context.Context, execErr error, stdout, stderr []byte) (*domain.InvokeResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if len(stdout) > 0 {
		if resp, parseErr := parseClaudeResponse(stdout); parseErr == nil && resp.IsError {
			result := resp.toInvokeResult(string(stderr))
			result.Error = execErr.Error() + ": " + result.Error
			return result, nil
		}
	}

	return r.base.ClassifyFailure(execErr, stderr), nil
}

// buildCommand constructs the claude CLI command with appropriate flags.
func (r *ClaudeRunner) buildCommand(ctx context.Context, req *domain.InvokeRequest) *exec.Cmd {
	args := []string{
		"-p", // Print mode (non-interactive)
		"--output-format", "json",
	}

	if model := r.base.ResolveModel(req); model != "" {
		args = append(args, "--model", model)
	}

	cmd := exec.CommandContext(ctx, "claude", args...)

	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}

	return cmd
}

// Compile-time check that ClaudeRunner implements Runner.
var _ Runner = (*ClaudeRunner)(nil)
