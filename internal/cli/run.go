package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mrz1836/relab/internal/config"
	"github.com/mrz1836/relab/internal/dispatch"
	"github.com/mrz1836/relab/internal/domain"
	relaberrors "github.com/mrz1836/relab/internal/errors"
	"github.com/mrz1836/relab/internal/pipeline"
	"github.com/mrz1836/relab/internal/provider"
)

// buildPipeline loads configuration and wires the production pipeline:
// provider registry, multi-runner routing, output manager, and git pusher.
func buildPipeline(logger zerolog.Logger) (*pipeline.Pipeline, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	registry := provider.NewDefaultRegistry(&cfg.Provider, logger)
	runner := provider.NewMultiRunner(registry)

	return pipeline.New(cfg, runner, pipeline.WithLogger(logger)), cfg, nil
}

// parseProviderList parses a comma-separated provider list, rejecting
// unknown names.
func parseProviderList(raw string) ([]domain.Provider, error) {
	providers, unknown := domain.ParseProviders(raw)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown providers: %s", relaberrors.ErrConfigInvalid, strings.Join(unknown, ", "))
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("%w: at least one provider is required", relaberrors.ErrEmptyValue)
	}
	return providers, nil
}

// splitList parses a comma-separated flag value into trimmed entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// summaryView is the JSON-friendly shape of a batch summary.
type summaryView struct {
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Jobs      []jobView `json:"jobs"`
}

type jobView struct {
	ID        string           `json:"id"`
	Task      string           `json:"task"`
	Provider  domain.Provider  `json:"provider"`
	Status    domain.JobStatus `json:"status"`
	OutputDir string           `json:"output_dir,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// printSummary renders a settled batch in the requested output format and
// returns the batch error, if any, so callers can map it to an exit code.
func printSummary(w io.Writer, format string, summary *dispatch.Summary) error {
	view := summaryView{
		Total:     len(summary.Outcomes),
		Succeeded: summary.Succeeded(),
		Failed:    summary.Failed(),
	}
	for _, o := range summary.Outcomes {
		jv := jobView{
			ID:        o.Job.ID,
			Task:      o.Job.TaskName,
			Provider:  o.Job.Provider,
			Status:    o.Job.Status(),
			OutputDir: o.Job.OutputDir,
		}
		if err := o.Job.Err(); err != nil {
			jv.Error = err.Error()
		}
		view.Jobs = append(view.Jobs, jv)
	}

	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return err
		}
		return summary.Err()
	}

	for _, jv := range view.Jobs {
		line := fmt.Sprintf("%-9s  %s  [%s]", jv.Status, jv.Task, jv.Provider)
		if jv.Error != "" {
			line += "  " + jv.Error
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%d jobs: %d succeeded, %d failed\n", view.Total, view.Succeeded, view.Failed)

	return summary.Err()
}
