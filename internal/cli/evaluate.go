package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrz1836/relab/internal/constants"
	"github.com/mrz1836/relab/internal/domain"
	"github.com/mrz1836/relab/internal/pipeline"
)

// EvaluateFlags holds flags specific to the evaluate command.
type EvaluateFlags struct {
	// Prompts is a comma-separated list of prompt file paths for ad hoc runs.
	Prompts string
	// Providers is a comma-separated list of provider names for ad hoc runs.
	Providers string
	// Concurrent caps simultaneous jobs per provider.
	Concurrent int
	// Tasks is the YAML manifest describing the batch and its dependencies.
	Tasks string
	// RepoPath is the repository the agents operate on.
	RepoPath string
	// TemplateDir holds template variants for manifest prompt roles.
	TemplateDir string
	// Model overrides the configured model alias.
	Model string
	// Push pushes produced artifacts after the batch settles.
	Push bool
}

// newEvaluateCmd creates the 'evaluate' command for phase-2 batches.
func newEvaluateCmd(flags *EvaluateFlags, global *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run an evaluation batch with stage-dependency gating",
		Long: `Run evaluation jobs against a repository. With --tasks, the batch comes
from a YAML manifest whose dependency edges hold downstream tasks at the
stage gate until their upstream artifact exists on disk; without one, the
--prompts and --providers flags build the batch directly.

A dependency that never materializes fails only its dependent jobs; the
rest of the batch completes normally.

Examples:
  relab evaluate --tasks manifest.yaml --repo_path ./repo
  relab evaluate --prompts eval.md --providers claude,codex --repo_path ./repo --push`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()

			var providers []domain.Provider
			if flags.Tasks == "" {
				parsed, err := parseProviderList(flags.Providers)
				if err != nil {
					return err
				}
				providers = parsed
			}

			p, cfg, err := buildPipeline(logger)
			if err != nil {
				return err
			}
			if flags.Model != "" {
				cfg.Provider.Model = flags.Model
			}

			summary, err := p.Evaluate(cmd.Context(), &pipeline.EvaluateParams{
				ManifestPath:    flags.Tasks,
				TaskName:        "evaluation",
				PromptPaths:     splitList(flags.Prompts),
				Providers:       providers,
				Concurrency:     flags.Concurrent,
				RepoPath:        flags.RepoPath,
				TemplateDir:     flags.TemplateDir,
				PromptOutputDir: constants.DefaultPromptOutputDir,
				Push:            flags.Push,
			})
			if err != nil {
				return err
			}

			return printSummary(cmd.OutOrStdout(), global.Output, summary)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&flags.Prompts, "prompts", "", "comma-separated prompt file paths (ad hoc batches)")
	cmd.Flags().StringVar(&flags.Providers, "providers", "", "comma-separated providers: claude, gemini, codex")
	cmd.Flags().IntVar(&flags.Concurrent, "concurrent", 0, "max simultaneous jobs per provider (0 uses task budgets)")
	cmd.Flags().StringVar(&flags.Tasks, "tasks", "", "YAML task manifest with optional dependencies")
	cmd.Flags().StringVar(&flags.RepoPath, "repo_path", "", "repository the agents operate on (required)")
	cmd.Flags().StringVar(&flags.TemplateDir, "template_dir", constants.DefaultTemplateDir, "directory holding template variants")
	cmd.Flags().StringVar(&flags.Model, "model", "", "model alias override (e.g. sonnet, flash)")
	cmd.Flags().BoolVar(&flags.Push, "push", false, "push produced artifacts after the batch settles")
	cmd.MarkFlagsMutuallyExclusive("tasks", "prompts")
	_ = cmd.MarkFlagRequired("repo_path")

	return cmd
}

// AddEvaluateCommand adds the evaluate command to the root command.
func AddEvaluateCommand(root *cobra.Command, global *GlobalFlags) {
	root.AddCommand(newEvaluateCmd(&EvaluateFlags{}, global))
}
