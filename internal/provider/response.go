package provider

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// claudeResponse represents the JSON response from the Claude Code CLI.
// This struct matches the output format when using --output-format json.
type claudeResponse struct {
	// Type indicates the response type (e.g., "result").
	Type string `json:"type"`

	// IsError indicates whether the response represents an error.
	IsError bool `json:"is_error"`

	// Result contains the agent's text response or output.
	Result string `json:"result"`

	// SessionID identifies the agent session for debugging.
	SessionID string `json:"session_id"`

	// Duration is how long the session took in milliseconds.
	Duration int64 `json:"duration_ms"`
}

// parseClaudeResponse parses the JSON output from the Claude Code CLI.
// Returns an error wrapped with ErrClaudeInvocation on parse failure.
func parseClaudeResponse(data []byte) (*claudeResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty response", relaberrors.ErrClaudeInvocation)
	}

	var resp claudeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse json response: %s", relaberrors.ErrClaudeInvocation, err.Error())
	}

	return &resp, nil
}

// toInvokeResult converts a claudeResponse to a domain.InvokeResult.
func (r *claudeResponse) toInvokeResult(stderr string) *domain.InvokeResult {
	result := &domain.InvokeResult{
		Status:     domain.InvokeSucceeded,
		Output:     r.Result,
		SessionID:  r.SessionID,
		DurationMs: r.Duration,
	}
	if r.IsError {
		result.Status = domain.InvokeFailed
		result.Error = stderr
		if result.Error == "" {
			result.Error = r.Result
		}
	}
	return result
}

// geminiResponse represents the JSON response from the Gemini CLI when
// invoked with --output-format json.
type geminiResponse struct {
	// Response contains the agent's text output.
	Response string `json:"response"`

	// Error is populated when the CLI reports a structured failure.
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// parseGeminiResponse parses the JSON output from the Gemini CLI.
func parseGeminiResponse(data []byte) (*geminiResponse, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty response", relaberrors.ErrGeminiInvocation)
	}

	var resp geminiResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse json response: %s", relaberrors.ErrGeminiInvocation, err.Error())
	}

	return &resp, nil
}

// toInvokeResult converts a geminiResponse to a domain.InvokeResult.
func (r *geminiResponse) toInvokeResult(stderr string) *domain.InvokeResult {
	result := &domain.InvokeResult{
		Status: domain.InvokeSucceeded,
		Output: r.Response,
	}
	if r.Error != nil {
		result.Status = domain.InvokeFailed
		result.Error = r.Error.Message
		if result.Error == "" {
			result.Error = stderr
		}
	}
	return result
}

// codexEvent is a single JSONL event emitted by `codex exec --json`.
// Only the final agent message is of interest to the pipeline.
type codexEvent struct {
	Msg struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"msg"`
}

// parseCodexOutput scans the JSONL event stream from the Codex CLI and
// returns the last agent message. Unparseable lines are skipped; the CLI
// interleaves progress events that do not follow the event schema.
func parseCodexOutput(data []byte) string {
	var last string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var ev codexEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		if ev.Msg.Type == "agent_message" && ev.Msg.Message != "" {
			last = ev.Msg.Message
		}
	}
	return last
}
