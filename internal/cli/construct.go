package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/relab/internal/constants"
	"github.com/mrz1836/relab/internal/domain"
	"github.com/mrz1836/relab/internal/pipeline"
)

// ConstructFlags holds flags specific to the construct command.
// Flag names use underscores to match the binding names they populate.
type ConstructFlags struct {
	TaskName          string
	RepoPath          string
	Replication       bool
	Student           bool
	Human             bool
	SystemPromptPath  string
	ReplicationPath   string
	ExamPath          string
	DocumentationPath string
	TemplateDir       string
	OutputDir         string
}

// mode derives the prompt mode from the mutually exclusive mode flags.
// No flag means standard mode.
func (f *ConstructFlags) mode() domain.Mode {
	switch {
	case f.Replication:
		return domain.ModeReplication
	case f.Student:
		return domain.ModeStudent
	case f.Human:
		return domain.ModeHuman
	default:
		return domain.ModeStandard
	}
}

// newConstructCmd creates the 'construct' command for prompt construction.
func newConstructCmd(flags *ConstructFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "construct",
		Short: "Resolve prompt templates into concrete prompt files",
		Long: `Resolve every template variant for the selected mode against the given
bindings and write the resulting prompts to the output directory.

The mode decides which bindings are mandatory:
  standard      --repo_path and --system_prompt_path
  --replication --repo_path and --replication_path
  --student     --repo_path, --exam_path, and --documentation_path
  --human       --repo_path

Resolution is idempotent: rerunning with identical bindings leaves
byte-identical prompt files untouched.

Examples:
  relab construct --task_name counting --repo_path ./repo --system_prompt_path sys.md
  relab construct --task_name counting --repo_path ./repo --replication --replication_path plan.md`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := GetLogger()

			p, _, err := buildPipeline(logger)
			if err != nil {
				return err
			}

			resolved, err := p.Construct(&pipeline.ConstructParams{
				TaskName:          flags.TaskName,
				Mode:              flags.mode(),
				RepoPath:          flags.RepoPath,
				SystemPromptPath:  flags.SystemPromptPath,
				ReplicationPath:   flags.ReplicationPath,
				ExamPath:          flags.ExamPath,
				DocumentationPath: flags.DocumentationPath,
				TemplateDir:       flags.TemplateDir,
				OutputDir:         flags.OutputDir,
			})
			if err != nil {
				return err
			}

			for _, rp := range resolved {
				fmt.Fprintln(cmd.OutOrStdout(), rp.Path)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&flags.TaskName, "task_name", "", "task name keying the resolved prompt files (required)")
	cmd.Flags().StringVar(&flags.RepoPath, "repo_path", "", "repository path bound into the prompts (required)")
	cmd.Flags().BoolVar(&flags.Replication, "replication", false, "use the replication template variant")
	cmd.Flags().BoolVar(&flags.Student, "student", false, "use the student template variant")
	cmd.Flags().BoolVar(&flags.Human, "human", false, "use the human template variant")
	cmd.Flags().StringVar(&flags.SystemPromptPath, "system_prompt_path", "", "system prompt file (standard mode)")
	cmd.Flags().StringVar(&flags.ReplicationPath, "replication_path", "", "replication plan file (replication mode)")
	cmd.Flags().StringVar(&flags.ExamPath, "exam_path", "", "exam file (student mode)")
	cmd.Flags().StringVar(&flags.DocumentationPath, "documentation_path", "", "documentation file (student mode)")
	cmd.Flags().StringVar(&flags.TemplateDir, "template_dir", constants.DefaultTemplateDir, "directory holding template variants")
	cmd.Flags().StringVar(&flags.OutputDir, "output_dir", constants.DefaultPromptOutputDir, "directory for resolved prompts")
	cmd.MarkFlagsMutuallyExclusive("replication", "student", "human")
	_ = cmd.MarkFlagRequired("task_name")
	_ = cmd.MarkFlagRequired("repo_path")

	return cmd
}

// AddConstructCommand adds the construct command to the root command.
func AddConstructCommand(root *cobra.Command) {
	root.AddCommand(newConstructCmd(&ConstructFlags{}))
}
