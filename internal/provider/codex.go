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

// codexCLIInfo contains Codex-specific CLI metadata for error messages.
//
//nolint:gochecknoglobals // Constant-like structure
var codexCLIInfo = CLIInfo{
	Name:        "codex",
	InstallHint: domain.ProviderCodex.InstallHint(),
	ErrType:     relaberrors.ErrCodexInvocation,
	EnvVar:      "OPENAI_API_KEY",
}

// CodexRunner implements Runner for OpenAI Codex CLI invocation.
// Codex runs in non-interactive mode via `codex exec` and emits a JSONL
// event stream; the last agent message becomes the result output.
type CodexRunner struct {
	base BaseRunner
}

// CodexRunnerOption is a functional option for configuring CodexRunner.
type CodexRunnerOption func(*CodexRunner)

// WithCodexLogger sets the logger for the CodexRunner.
func WithCodexLogger(logger zerolog.Logger) CodexRunnerOption {
	return func(r *CodexRunner) {
		r.base.Logger = logger
	}
}

// NewCodexRunner creates a new CodexRunner with the given configuration.
// If executor is nil, a DefaultExecutor is used for production subprocess execution.
func NewCodexRunner(cfg *config.ProviderConfig, executor CommandExecutor, opts ...CodexRunnerOption) *CodexRunner {
	if executor == nil {
		executor = &DefaultExecutor{}
	}
	r := &CodexRunner{
		base: BaseRunner{
			Config:   cfg,
			Executor: executor,
			Info:     codexCLIInfo,
			Logger:   zerolog.Nop(),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Invoke executes an invocation using the Codex CLI.
func (r *CodexRunner) Invoke(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
	return r.base.RunWithTimeout(ctx, req, r.execute)
}

// execute performs a single invocation.
func (r *CodexRunner) execute(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error) {
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
		Str("cli", "codex").
		Strs("args", cmd.Args[1:]).
		Str("working_dir", cmd.Dir).
		Int("prompt_length", len(prompt)).
		Msg("executing codex CLI")

	stdout, stderr, err := r.base.Executor.Execute(ctx, cmd)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return r.base.ClassifyFailure(err, stderr), nil
	}

	return &domain.InvokeResult{
		Status: domain.InvokeSucceeded,
		Output: parseCodexOutput(stdout),
	}, nil
}

// buildCommand constructs the codex CLI command with appropriate flags.
// Codex uses "codex exec" for non-interactive mode with --json output.
func (r *CodexRunner) buildCommand(ctx context.Context, req *domain.InvokeRequest) *exec.Cmd {
	args := []string{
		"exec",
		"--json",
	}

	if model := r.base.ResolveModel(req); model != "" {
		args = append(args, "-m", model)
	}

	cmd := exec.CommandContext(ctx, "codex", args...)

	if req.WorkingDir != "" {
		cmd.Dir = req.WorkingDir
	}

	return cmd
}

// Compile-time check that CodexRunner implements Runner.
var _ Runner = (*CodexRunner)(nil)
