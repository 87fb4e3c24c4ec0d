package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/mrz1836/relab/internal/constants"
	"github.com/mrz1836/relab/internal/dispatch"
	"github.com/mrz1836/relab/internal/domain"
	"github.com/mrz1836/relab/internal/output"
)

// InvocationRecord is the audit artifact persisted into a run directory's
// logs/ after its job settles. It captures what was asked and what happened,
// never the prompt body itself.
type InvocationRecord struct {
	JobID      string               `json:"job_id"`
	TaskName   string               `json:"task_name"`
	Provider   domain.Provider      `json:"provider"`
	PromptPath string               `json:"prompt_path"`
	WorkingDir string               `json:"working_dir"`
	OutputDir  string               `json:"output_dir"`
	Status     domain.JobStatus     `json:"status"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"started_at,omitzero"`
	FinishedAt time.Time            `json:"finished_at,omitzero"`
	DurationMs int64                `json:"duration_ms"`
	Invocation *domain.InvokeResult `json:"invocation,omitempty"`
}

// writeRecord persists the invocation record for a settled job. Failures are
// logged and swallowed; a missing audit record must not fail the batch.
func (p *Pipeline) writeRecord(dir *output.RunDir, o *dispatch.Outcome) {
	rec := &InvocationRecord{
		JobID:      o.Job.ID,
		TaskName:   o.Job.TaskName,
		Provider:   o.Job.Provider,
		PromptPath: o.Job.PromptPath,
		WorkingDir: o.Job.WorkingDir,
		OutputDir:  o.Job.OutputDir,
		Status:     o.Job.Status(),
		StartedAt:  o.Job.StartedAt(),
		FinishedAt: o.Job.FinishedAt(),
		DurationMs: o.Job.Duration().Milliseconds(),
		Invocation: o.Result,
	}
	if err := o.Job.Err(); err != nil {
		rec.Error = err.Error()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		p.logger.Warn().Err(err).Str("job_id", o.Job.ID).Msg("failed to marshal invocation record")
		return
	}

	path := filepath.Join(dir.Logs, constants.InvocationFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		p.logger.Warn().Err(err).Str("path", path).Msg("failed to write invocation record")
	}
}
