// Package provider implements the adapter boundary to external agent CLIs.
//
// Each supported backend (claude, gemini, codex) gets a Runner that builds
// the CLI invocation, executes it as a subprocess, and classifies the outcome
// into a domain.InvokeResult. The core treats all three polymorphically.
//
// IMPORTANT: This package may import internal/constants, internal/errors,
// internal/config, internal/ctxutil, and internal/domain. It MUST NOT import
// internal/dispatch, internal/pipeline, or internal/cli.
package provider

import (
	"context"

	"github.com/mrz1836/relab/internal/domain"
)

// Runner defines the interface for provider invocation.
// Implementations handle the actual subprocess execution of one agent CLI.
//
// Invoke returns a non-nil result whenever an invocation was attempted; the
// result's Status classifies provider-side outcomes (succeeded, failed,
// timed_out, auth_failed). The error return is reserved for cases where the
// invocation could not be attempted at all: context cancellation, a missing
// working directory, or an unreadable prompt file.
type Runner interface {
	// Invoke executes one provider invocation and classifies its outcome.
	Invoke(ctx context.Context, req *domain.InvokeRequest) (*domain.InvokeResult, error)
}
