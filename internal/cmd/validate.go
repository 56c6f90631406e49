package cmd

import (
	"fmt"

	"github.com/WomB0ComB0/git-project-management/internal/config"
	"github.com/WomB0ComB0/git-project-management/internal/plan"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a plan file and print its summary",
	Long: `Parse and validate a plan file without contacting GitHub.

Every problem is reported at once: missing project name, empty or duplicate
week labels, untitled tasks, unknown commit types, and tasks whose branch
names would collide.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addPlanFlags(validateCmd)
}

// addPlanFlags registers the flags shared by every command that reads a plan.
func addPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("plan", "p", "", "plan file (.yaml, .json or .toml; default from plan.file)")
	cmd.Flags().String("only", "", "only include tasks whose branch matches this glob, e.g. 'feat/*'")
}

// loadConfig loads the configuration and applies the plan flag override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if f := cmd.Flags().Lookup("plan"); f != nil && f.Changed {
		cfg.Plan.File = f.Value.String()
	}
	return cfg, nil
}

// loadPlan reads, validates and filters the plan at path.
func loadPlan(cmd *cobra.Command, path string) (*plan.Plan, error) {
	p, err := plan.Load(path)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan %s: %w", path, err)
	}

	only, _ := cmd.Flags().GetString("only")
	filtered, err := p.Filter(only)
	if err != nil {
		return nil, err
	}
	if only != "" && filtered.TaskCount() == 0 {
		return nil, fmt.Errorf("no tasks match %q", only)
	}
	return filtered, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := loadPlan(cmd, cfg.Plan.File)
	if err != nil {
		return err
	}

	out := newPrinter(cmd.OutOrStdout())
	fmt.Fprint(out.w, plan.FormatPlanForDisplay(p))
	fmt.Fprintln(out.w, out.ok.Render(fmt.Sprintf("✓ %s is valid", cfg.Plan.File)))
	return nil
}
