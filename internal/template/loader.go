package template

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
)

// loadTemplate reads the template text for (role, mode). The mode-specific
// variant {role}_{mode}.md wins over the mode-agnostic {role}.md fallback.
func (f *Filler) loadTemplate(role string, mode domain.Mode) (string, error) {
	candidates := []string{
		filepath.Join(f.templateDir, fmt.Sprintf("%s_%s.md", role, mode)),
		filepath.Join(f.templateDir, role+".md"),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path) //#nosec G304 -- path is constructed from the configured template dir
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read template %s: %w", path, err)
		}
	}

	return "", fmt.Errorf("%w: no %s_%s.md or %s.md in %s",
		relaberrors.ErrTemplateNotFound, role, mode, role, f.templateDir)
}

// ListRoles returns the prompt roles available in the template directory for
// a mode, derived from {role}_{mode}.md file names.
func (f *Filler) ListRoles(mode domain.Mode) ([]string, error) {
	suffix := fmt.Sprintf("_%s.md", mode)
	pattern := filepath.Join(f.templateDir, "*"+suffix)

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates in %s: %w", f.templateDir, err)
	}

	roles := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		roles = append(roles, base[:len(base)-len(suffix)])
	}
	return roles, nil
}
