package provider

import (
	"context"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/config"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// geminiCLIInfo contains Gemini-specific CLI metadata for error messages.
//
//nolint:gochecknoglobals // Constant-like structure
var geminiCLIInfo = CLIInfo{
	Name:        "gemini",
	InstallHint: domain.ProviderGemini.InstallHint(),
	ErrType:     relaberrors.ErrGeminiInvocation,
	EnvVar:      "GEMINI_API_KEY",
}

// GeminiRunner implements Runner for Gemini CLI invocation.
// It builds command-line arguments and executes the gemini CLI,
// parsing the JSON response into an InvokeResult.
type GeminiRunner struct {
	base BaseRunner
}

// GeminiRunnerOption is a functional option for configuring GeminiRunner.
type GeminiRunnerOption func(*GeminiRunner)

// WithGeminiLogger sets the logger for the GeminiRunner.
func WithGeminiLogger(logger zerolog.Logger) GeminiRunnerOption {
	return func(r *GeminiRunner) {
		r.base.Logger = logger
	}
}

// NewGeminiRunner creates a new GeminiRunner with the given configuration.
// If executor is nil, a DefaultExecutor is used for production subprocess execution.
func NewGeminiRunner(cfg *config.ProviderConfig, executor CommandExecutor, opts ...GeminiRunnerOption) *GeminiRunner {
	if executor == nil {
		executor = &DefaultExecutor{}
	}
	r := &GeminiRunner{
		base: BaseRunner{
			Config:   cfg,
			Executor: executor,
			Info:     geminiCLIInfo,
			Logger:   zerolog.Nop(),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Invoke executes an invocation using the Gemini CLI.
func (r *GeminiRunner) Invoke(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
	return r.base.RunWithTimeout(ctx, req, r.execute)
}

// execute performs a single invocation.
func (r *GeminiRunner) execute(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
	if err := r.base.ValidateWorkingDir(req.WorkingDir); err != nil {
		return nil, err
	}

	prompt, err := r.base.LoadPrompt(req)
	if err != nil {
		return nil, err
	}

	cmd := r.buildCommand(ctx, req, prompt)

	r.base.Logger.Debug().
		Str("cli", "gemini").
		Str("working_dir", cmd.Dir).
		Int("prompt_length", len(prompt)).
		Msg("executing gemini CLI")

	stdout, stderr, err := r.base.Executor.Execute(ctx, cmd)
	if err != nil {
		return r.handleExecutionError(ctx, err, stdout, stderr)
	}

	resp, parseErr := parseGeminiResponse(stdout)
	if parseErr != nil {
		return nil, parseErr
	}

	return resp.toInvokeResult(string(stderr)), nil
}

// handleExecutionError processes errors from command execution.
func (r *GeminiRunner) handleExecutionError(ctx context.Context, execErr error, stdout, stderr []byte) (*domain.InvokeResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if len(stdout) > 0 {
		if resp, parseErr := parseGeminiResponse(stdout); parseErr == nil && resp.Error != nil {
			result := resp.toInvokeResult(string(stderr))
			result.Error = execErr.Error() + ": " + result.Error
			return result, nil
		}
	}

	return r.base.ClassifyFailure(execErr, stderr), nil
}

// buildCommand constructs the gemini CLI command with appropriate flags.
// The prompt is passed as a positional argument; the -p/--prompt flag is
// deprecated in favor of positional arguments.
func (r *GeminiRunner) buildCommand(ctx context.Context, req *domain.InvokeRequest, prompt string) *exec.Cmd {
	args := []string{
		"--output-format", "json",
	}

	// Always use --yolo for non-interactive execution (auto-approve allowed actions)
	args = append(args, "--yolo")

	if model := r.base.ResolveModel(req); model != "" {
		args = append(args, "-m", model)
	}

	args = append(args, prompt)

	cmd := exec.CommandContext(ctx, "gemini", args...)

	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}

	return cmd
}

// Compile-time check that GeminiRunner implements Runner.
var _ Runner = (*GeminiRunner)(nil)
