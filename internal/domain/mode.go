package domain

import (
	"fmt"

	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// Mode selects which template variant a task resolves and which bindings are
// mandatory before resolution. The set is closed: every mode declares its
// required-binding schema here rather than in ad hoc flag conditionals.
type Mode string

// Mode constants define the recognized template variants.
const (
	// ModeStandard evaluates a repository against a provided system prompt.
	ModeStandard Mode = "standard"

	// ModeReplication reruns a replication plan against the repository.
	ModeReplication Mode = "replication"

	// ModeStudent evaluates with exam and documentation material.
	ModeStudent Mode = "student"

	// ModeHuman prepares a prompt for a human-run session.
	ModeHuman Mode = "human"
)

// Binding names referenced by mode schemas and templates.
const (
	BindingRepoPath          = "repo_path"
	BindingSystemPromptPath  = "system_prompt_path"
	BindingReplicationPath   = "replication_path"
	BindingExamPath          = "exam_path"
	BindingDocumentationPath = "documentation_path"
)

// String returns the string representation of the Mode.
func (m Mode) String() string {
	return string(m)
}

// IsValid checks if the mode is a recognized variant.
func (m Mode) IsValid() bool {
	switch m {
	case ModeStandard, ModeReplication, ModeStudent, ModeHuman:
		return true
	}
	return false
}

// RequiredBindings returns the binding names that must be present before a
// template in this mode may be resolved.
func (m Mode) RequiredBindings() []string {
	switch m {
	case ModeStandard:
		return []string{BindingRepoPath, BindingSystemPromptPath}
	case ModeReplication:
		return []string{BindingRepoPath, BindingReplicationPath}
	case ModeStudent:
		return []string{BindingRepoPath, BindingExamPath, BindingDocumentationPath}
	case ModeHuman:
		return []string{BindingRepoPath}
	default:
		return nil
	}
}

// ParseMode converts a string into a Mode, returning ErrUnknownMode for
// unrecognized values.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", relaberrors.ErrUnknownMode, s)
	}
	return m, nil
}
