// Package errors provides centralized error handling for RELAB.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrConfigInvalid indicates a malformed configuration value
	// (bad concurrency, empty provider list, invalid timeout).
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrUnresolvedPlaceholder indicates a template references a placeholder
	// with no binding. This is fatal and reported before any job is created.
	ErrUnresolvedPlaceholder = errors.New("unresolved template placeholder")

	// ErrUnknownMode indicates the requested prompt mode does not match any
	// recognized template variant.
	ErrUnknownMode = errors.New("unknown prompt mode")

	// ErrTemplateNotFound indicates the template file for the requested mode
	// and role does not exist in the template directory.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTaskExists indicates an attempt to register a task whose name is
	// already taken.
	ErrTaskExists = errors.New("task already registered")

	// ErrTaskNotFound indicates the named task is not in the registry.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskInvalid indicates a task failed registration validation.
	ErrTaskInvalid = errors.New("invalid task")

	// ErrProviderNotFound indicates no runner is registered for a provider.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrClaudeInvocation indicates the claude CLI failed to execute
	// or returned a non-zero exit code.
	ErrClaudeInvocation = errors.New("claude invocation failed")

	// ErrGeminiInvocation indicates the gemini CLI failed to execute
	// or returned a non-zero exit code.
	ErrGeminiInvocation = errors.New("gemini invocation failed")

	// ErrCodexInvocation indicates the codex CLI failed to execute
	// or returned a non-zero exit code.
	ErrCodexInvocation = errors.New("codex invocation failed")

	// ErrAuthFailed indicates a provider reported an authentication failure.
	// Kept distinct from generic invocation errors so callers can surface
	// missing or rejected API keys precisely.
	ErrAuthFailed = errors.New("provider authentication failed")

	// ErrProviderTimeout indicates a provider invocation exceeded its timeout.
	ErrProviderTimeout = errors.New("provider invocation timed out")

	// ErrWorkingDirMissing indicates the job's working directory does not exist.
	ErrWorkingDirMissing = errors.New("working directory missing")

	// ErrDependencyTimeout indicates the stage gate wait for an upstream
	// artifact exceeded the configured timeout.
	ErrDependencyTimeout = errors.New("dependency wait timeout")

	// ErrCycleDetected indicates the stage dependency graph contains a cycle,
	// which is unsatisfiable by construction.
	ErrCycleDetected = errors.New("dependency cycle detected")

	// ErrEdgeExists indicates a duplicate dependency edge for a downstream task.
	ErrEdgeExists = errors.New("dependency edge already declared")

	// ErrOutputCollision indicates output allocation could not produce a
	// unique directory after bounded retries.
	ErrOutputCollision = errors.New("output directory collision")

	// ErrInvalidTransition indicates an attempt to make an invalid job
	// status transition.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrJobNotFound indicates the referenced job is not known to the dispatcher.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotQueued indicates a queued-only operation was attempted on a
	// job that already left the queue.
	ErrJobNotQueued = errors.New("job is not queued")

	// ErrBatchFailed indicates one or more jobs in a batch reached the failed
	// status. The batch summary carries per-job detail.
	ErrBatchFailed = errors.New("one or more jobs failed")

	// ErrManifestInvalid indicates the task manifest file could not be parsed
	// or failed validation.
	ErrManifestInvalid = errors.New("invalid task manifest")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrConflictingFlags indicates that mutually exclusive flags were specified.
	ErrConflictingFlags = errors.New("conflicting flags specified")

	// ErrPushFailed indicates pushing run outputs to the remote failed.
	ErrPushFailed = errors.New("push failed")
)
