package domain

import "time"

// InvokeStatus classifies the outcome of a single provider invocation.
// Authentication failures are kept distinct from generic failures so the
// batch summary can surface missing or rejected API keys precisely.
type InvokeStatus string

// Invocation outcomes.
const (
	// InvokeSucceeded means the provider exited zero and produced output.
	InvokeSucceeded InvokeStatus = "succeeded"

	// InvokeFailed means the provider exited nonzero or crashed.
	InvokeFailed InvokeStatus = "failed"

	// InvokeTimedOut means the invocation exceeded its timeout and was killed.
	InvokeTimedOut InvokeStatus = "timed_out"

	// InvokeAuthFailed means the provider rejected or could not find credentials.
	InvokeAuthFailed InvokeStatus = "auth_failed"
)

// String returns the string representation of the status.
func (s InvokeStatus) String() string {
	return string(s)
}

// InvokeRequest contains the parameters for one provider invocation.
// This is passed to provider.Runner implementations.
type InvokeRequest struct {
	// Provider specifies which agent CLI to use (claude, gemini, codex).
	Provider Provider `json:"provider"`

	// PromptPath is the resolved prompt file on disk. If Prompt is empty the
	// runner reads the prompt from this path.
	PromptPath string `json:"prompt_path"`

	// Prompt is the full prompt text. Populated by the pipeline so runners
	// do not re-read the file per attempt.
	Prompt string `json:"-"`

	// Model specifies which model alias or full model name to use.
	Model string `json:"model,omitempty"`

	// Timeout is the maximum duration for the invocation.
	// Zero falls back to the configured provider timeout.
	Timeout time.Duration `json:"timeout,omitempty"`

	// WorkingDir is the directory where the agent operates.
	WorkingDir string `json:"working_dir"`

	// ArtifactDir is the allocated run directory the agent writes into.
	ArtifactDir string `json:"artifact_dir"`
}

// InvokeResult captures the outcome of a provider invocation.
type InvokeResult struct {
	// Status classifies the outcome.
	Status InvokeStatus `json:"status"`

	// Output contains the agent's response or summary text.
	Output string `json:"output,omitempty"`

	// Error contains the failure message when Status is not succeeded.
	Error string `json:"error,omitempty"`

	// ArtifactDir is where the agent deposited produced files.
	ArtifactDir string `json:"artifact_dir,omitempty"`

	// SessionID identifies the agent session for debugging, when reported.
	SessionID string `json:"session_id,omitempty"`

	// DurationMs is how long the invocation took in milliseconds.
	DurationMs int64 `json:"duration_ms"`
}

// Succeeded reports whether the invocation completed successfully.
func (r *InvokeResult) Succeeded() bool {
	return r != nil && r.Status == InvokeSucceeded
}
