package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/relab/internal/constants"
	"github.com/mrz1836/relab/internal/pipeline"
)

// GenerateFlags holds flags specific to the generate command.
type GenerateFlags struct {
	// Prompts is a comma-separated list of prompt file paths.
	Prompts string
	// Providers is a comma-separated list of provider names.
	Providers string
	// Concurrent caps simultaneous jobs per provider.
	Concurrent int
	// TaskName names the batch for run directory allocation.
	TaskName string
	// Model overrides the configured model alias.
	Model string
	// Push pushes produced artifacts after the batch settles.
	Push bool
}

// newGenerateCmd creates the 'generate' command for phase-1 batches.
func newGenerateCmd(flags *GenerateFlags, global *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Dispatch prompt files across providers",
		Long: `Dispatch each prompt file to each requested provider as an independent
job, with at most --concurrent jobs running per provider at once.

Exit code is 0 when every job succeeds and 1 when any job fails.

Examples:
  relab generate --prompts p1.md,p2.md --providers claude,gemini --concurrent 3
  relab generate --prompts plan.md --providers claude --task-name replication --push`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()

			providers, err := parseProviderList(flags.Providers)
			if err != nil {
				return err
			}

			p, cfg, err := buildPipeline(logger)
			if err != nil {
				return err
			}
			if flags.Model != "" {
				cfg.Provider.Model = flags.Model
			}

			workDir, err := os.Getwd()
			if err != nil {
				return err
			}

			summary, err := p.Generate(cmd.Context(), &pipeline.GenerateParams{
				TaskName:    flags.TaskName,
				PromptPaths: splitList(flags.Prompts),
				Providers:   providers,
				Concurrency: flags.Concurrent,
				WorkingDir:  workDir,
				Push:        flags.Push,
			})
			if err != nil {
				return err
			}

			return printSummary(cmd.OutOrStdout(), global.Output, summary)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&flags.Prompts, "prompts", "", "comma-separated prompt file paths (required)")
	cmd.Flags().StringVar(&flags.Providers, "providers", "", "comma-separated providers: claude, gemini, codex (required)")
	cmd.Flags().IntVar(&flags.Concurrent, "concurrent", constants.DefaultConcurrency, "max simultaneous jobs per provider")
	cmd.Flags().StringVar(&flags.TaskName, "task-name", "generation", "batch name used for run directories")
	cmd.Flags().StringVar(&flags.Model, "model", "", "model alias override (e.g. sonnet, flash)")
	cmd.Flags().BoolVar(&flags.Push, "push", false, "push produced artifacts after the batch settles")
	_ = cmd.MarkFlagRequired("prompts")
	_ = cmd.MarkFlagRequired("providers")

	return cmd
}

// AddGenerateCommand adds the generate command to the root command.
func AddGenerateCommand(root *cobra.Command, global *GlobalFlags) {
	root.AddCommand(newGenerateCmd(&GenerateFlags{}, global))
}
