package provider

import (
	"fmt"
	"strings"

	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// CLIInfo contains provider-specific information for error messages.
type CLIInfo struct {
	Name        string // CLI command name (e.g., "claude", "gemini", "codex")
	InstallHint string // Installation instructions
	ErrType     error  // Sentinel error type for this provider
	EnvVar      string // API key environment variable name
}

// IsAuthStderr reports whether stderr output indicates an authentication
// failure for the given API key env var. Auth failures get their own
// invocation status so they are never conflated with generic failures.
func IsAuthStderr(stderr string, envVar string) bool {
	s := strings.ToLower(stderr)
	if strings.Contains(s, "api key") ||
		strings.Contains(s, "authentication") ||
		strings.Contains(s, "unauthorized") ||
		strings.Contains(s, "invalid credentials") {
		return true
	}
	return envVar != "" && strings.Contains(stderr, envVar)
}

// WrapCLIExecutionError wraps an execution error with provider-specific context.
// This is shared logic used by all CLI-based runners.
func WrapCLIExecutionError(info CLIInfo, err error, stderr []byte) error {
	stderrStr := strings.TrimSpace(string(stderr))

	// Check for CLI not found
	if strings.Contains(stderrStr, "command not found") ||
		strings.Contains(err.Error(), "executable file not found") {
		return fmt.Errorf("%w: %s CLI not found - %s", info.ErrType, info.Name, info.InstallHint)
	}

	// Check for API key errors
	if IsAuthStderr(stderrStr, info.EnvVar) {
		return fmt.Errorf("%w: %w: %s", info.ErrType, relaberrors.ErrAuthFailed, stderrStr)
	}

	// Default error wrapping
	if stderrStr != "" {
		return fmt.Errorf("%w: %s", info.ErrType, stderrStr)
	}

	return fmt.Errorf("%w: %s", info.ErrType, err.Error())
}
