// Package template resolves mode-variant prompt templates into concrete
// prompt files. A template is a text file containing {{placeholder}} markers;
// resolution substitutes every marker from a binding set and fails hard when
// any marker is left unresolved.
package template

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// placeholderPattern matches {{name}} markers for template expansion.
// This is a package-level compiled regex for performance (immutable after init).
var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ResolvedPrompt is an immutable prompt artifact produced once per
// (task, mode, role) triple. It is never edited in place; reruns either
// reuse the byte-identical file or atomically replace it.
type ResolvedPrompt struct {
	TaskName string
	Mode     domain.Mode
	Role     string
	Path     string
	Content  string
}

// Filler loads mode-variant templates from a template directory and writes
// resolved prompts to deterministic paths under an output directory.
type Filler struct {
	templateDir string
	outputDir   string
	logger      zerolog.Logger
}

// FillerOption is a functional option for configuring a Filler.
type FillerOption func(*Filler)

// WithFillerLogger sets the logger for the Filler.
func WithFillerLogger(logger zerolog.Logger) FillerOption {
	return func(f *Filler) {
		f.logger = logger
	}
}

// NewFiller creates a filler reading templates from templateDir and writing
// resolved prompts under outputDir.
func NewFiller(templateDir, outputDir string, opts ...FillerOption) *Filler {
	f := &Filler{
		templateDir: templateDir,
		outputDir:   outputDir,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// OutputPath returns the deterministic path for a resolved prompt:
// {output_dir}/{task}_{mode}_{role}.md.
func (f *Filler) OutputPath(taskName string, mode domain.Mode, role string) string {
	return filepath.Join(f.outputDir, fmt.Sprintf("%s_%s_%s.md", taskName, mode, role))
}

// Resolve loads the template for (role, mode), substitutes bindings, and
// writes the resolved prompt to its deterministic path. Returns
// ErrUnknownMode for an unrecognized mode and ErrUnresolvedPlaceholder
// naming every missing binding. Byte-identical rewrites are a no-op.
func (f *Filler) Resolve(taskName string, mode domain.Mode, role string, bindings domain.BindingSet) (*ResolvedPrompt, error) {
	rp, err := f.resolve(taskName, mode, role, bindings)
	if err != nil {
		return nil, err
	}
	if err := f.write(rp); err != nil {
		return nil, err
	}
	return rp, nil
}

// ResolveAll resolves every role before writing any file, so a binding or
// mode error surfaces before the first prompt artifact is produced.
func (f *Filler) ResolveAll(taskName string, mode domain.Mode, roles []string, bindings domain.BindingSet) ([]*ResolvedPrompt, error) {
	resolved := make([]*ResolvedPrompt, 0, len(roles))
	for _, role := range roles {
		rp, err := f.resolve(taskName, mode, role, bindings)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rp)
	}

	for _, rp := range resolved {
		if err := f.write(rp); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// resolve performs mode validation, required-binding checks, template load,
// and substitution without touching the filesystem output.
func (f *Filler) resolve(taskName string, mode domain.Mode, role string, bindings domain.BindingSet) (*ResolvedPrompt, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: %q", relaberrors.ErrUnknownMode, mode)
	}

	// Mode-mandatory bindings are checked before the template is even read,
	// so a missing replication_path fails identically for every role.
	if missing := bindings.Missing(mode.RequiredBindings()); len(missing) > 0 {
		return nil, fmt.Errorf("%w: mode %s requires bindings: %s",
			relaberrors.ErrUnresolvedPlaceholder, mode, strings.Join(missing, ", "))
	}

	text, err := f.loadTemplate(role, mode)
	if err != nil {
		return nil, err
	}

	if unresolved := unresolvedPlaceholders(text, bindings); len(unresolved) > 0 {
		return nil, fmt.Errorf("%w: %s", relaberrors.ErrUnresolvedPlaceholder, strings.Join(unresolved, ", "))
	}

	content := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		return bindings[strings.Trim(match, "{}")]
	})

	f.logger.Debug().
		Str("task", taskName).
		Str("mode", string(mode)).
		Str("role", role).
		Int("length", len(content)).
		Msg("resolved prompt template")

	return &ResolvedPrompt{
		TaskName: taskName,
		Mode:     mode,
		Role:     role,
		Path:     f.OutputPath(taskName, mode, role),
		Content:  content,
	}, nil
}

// Placeholders returns the sorted, de-duplicated placeholder names
// referenced by a template text.
func Placeholders(text string) []string {
	seen := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// unresolvedPlaceholders returns the referenced placeholders with no binding.
func unresolvedPlaceholders(text string, bindings domain.BindingSet) []string {
	var missing []string
	for _, name := range Placeholders(text) {
		if _, ok := bindings[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
