package domain

import (
	"fmt"

	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Task is the declarative description of a unit of work: which prompt
// templates to run, on which provider, under what concurrency cap, and in
// which mode. Tasks are validated once at registration and are read-only
// afterwards; dispatcher workers may read them concurrently.
type Task struct {
	// Name uniquely identifies the task within a registry.
	Name string `yaml:"name" json:"name"`

	// PromptFiles is the ordered sequence of template identifiers (roles)
	// this task resolves and dispatches. Must be non-empty.
	PromptFiles []string `yaml:"prompts" json:"prompts"`

	// Provider selects the agent backend executing this task's jobs.
	Provider Provider `yaml:"provider" json:"provider"`

	// Concurrency caps how many of this task's jobs run simultaneously on
	// its provider. Must be >= 1.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// Mode selects the template variant and required-binding schema.
	Mode Mode `yaml:"mode" json:"mode"`
}

// Validate checks the task invariants. All violations are wrapped with
// ErrTaskInvalid so callers can treat them as configuration errors.
func (t *Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: %w: name", relaberrors.ErrTaskInvalid, relaberrors.ErrEmptyValue)
	}
	if len(t.PromptFiles) == 0 {
		return fmt.Errorf("%w: task %q has no prompt files", relaberrors.ErrTaskInvalid, t.Name)
	}
	for i, p := range t.PromptFiles {
		if p == "" {
			return fmt.Errorf("%w: task %q prompt file %d is empty", relaberrors.ErrTaskInvalid, t.Name, i)
		}
	}
	if !t.Provider.IsValid() {
		return fmt.Errorf("%w: task %q has unknown provider %q", relaberrors.ErrTaskInvalid, t.Name, t.Provider)
	}
	if t.Concurrency < 1 {
		return fmt.Errorf("%w: task %q concurrency must be >= 1, got %d", relaberrors.ErrTaskInvalid, t.Name, t.Concurrency)
	}
	if !t.Mode.IsValid() {
		return fmt.Errorf("%w: task %q: %w: %q", relaberrors.ErrTaskInvalid, t.Name, relaberrors.ErrUnknownMode, t.Mode)
	}
	return nil
}
