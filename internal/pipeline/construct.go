package pipeline

import (
	"fmt"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
	"github.com/mrz1836/relab/internal/template"
)

// ConstructParams describes a prompt-construction run: which template
// variant to resolve and the bindings to resolve it with.
type ConstructParams struct {
	// TaskName keys the resolved prompt file names.
	TaskName string

	// Mode selects the template variant and its required-binding schema.
	Mode domain.Mode

	// RepoPath binds {{repo_path}}; required in every mode.
	RepoPath string

	// SystemPromptPath binds {{system_prompt_path}} (standard mode).
	SystemPromptPath string

	// ReplicationPath binds {{replication_path}} (replication mode).
	ReplicationPath string

	// ExamPath binds {{exam_path}} (student mode).
	ExamPath string

	// DocumentationPath binds {{documentation_path}} (student mode).
	DocumentationPath string

	// TemplateDir is the directory holding template variants.
	TemplateDir string

	// OutputDir is where resolved prompts are written.
	OutputDir string
}

// bindings assembles the binding set from the populated path parameters.
func (cp *ConstructParams) bindings() domain.BindingSet {
	b := domain.BindingSet{}
	set := func(name, value string) {
		if value != "" {
			b[name] = value
		}
	}
	set(domain.BindingRepoPath, cp.RepoPath)
	set(domain.BindingSystemPromptPath, cp.SystemPromptPath)
	set(domain.BindingReplicationPath, cp.ReplicationPath)
	set(domain.BindingExamPath, cp.ExamPath)
	set(domain.BindingDocumentationPath, cp.DocumentationPath)
	return b
}

// Construct resolves every template role available for the requested mode
// into concrete prompt files. Binding and mode errors surface before any
// prompt is written, and no job is ever created here.
func (p *Pipeline) Construct(params *ConstructParams) ([]*template.ResolvedPrompt, error) {
	if params.TaskName == "" {
		return nil, fmt.Errorf("%w: task name", relaberrors.ErrEmptyValue)
	}
	if !params.Mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", relaberrors.ErrUnknownMode, params.Mode)
	}

	filler := template.NewFiller(params.TemplateDir, params.OutputDir, template.WithFillerLogger(p.logger))

	roles, err := filler.ListRoles(params.Mode)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: no *_%s.md templates in %s",
			relaberrors.ErrTemplateNotFound, params.Mode, params.TemplateDir)
	}

	resolved, err := filler.ResolveAll(params.TaskName, params.Mode, roles, params.bindings())
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("task", params.TaskName).
		Str("mode", string(params.Mode)).
		Int("prompts", len(resolved)).
		Msg("constructed prompts")

	return resolved, nil
}
