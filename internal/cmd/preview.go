package cmd

import (
	"fmt"
	"strings"

	"github.com/WomB0ComB0/git-project-management/internal/provision"
	"github.com/WomB0ComB0/git-project-management/internal/util"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show what provision would create, without contacting GitHub",
	Long: `Show the board, milestones, branches and issues a provision run would
create. Nothing is sent to GitHub and no credentials are needed.

Use --bodies to print each rendered issue body.`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	addPlanFlags(previewCmd)
	addProjectFlags(previewCmd)
	previewCmd.Flags().Bool("bodies", false, "print rendered issue bodies")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := loadPlan(cmd, cfg.Plan.File)
	if err != nil {
		return err
	}

	prov, err := provision.New(provisionConfig(cmd, cfg, p), provision.Deps{})
	if err != nil {
		return err
	}
	preview, err := prov.Preview()
	if err != nil {
		return err
	}

	bodies, _ := cmd.Flags().GetBool("bodies")
	printPreview(newPrinter(cmd.OutOrStdout()), preview, bodies)
	return nil
}

func printPreview(out *printer, preview *provision.Preview, bodies bool) {
	fmt.Fprintln(out.w, out.title.Render("Project: "+preview.Project))
	if preview.Body != "" {
		fmt.Fprintln(out.w, out.muted.Render(util.TruncateString(preview.Body, out.width)))
	}

	for _, week := range preview.Weeks {
		fmt.Fprintln(out.w)
		due := "no due date"
		if week.DueOn != "" {
			due = "due " + week.DueOn
		}
		header := out.heading.Render("Milestone: "+week.Week) + " " + out.muted.Render("("+due+")")
		fmt.Fprintln(out.w, header)
		if week.Goal != "" {
			fmt.Fprintln(out.w, "  "+week.Goal)
		}

		for _, task := range week.Tasks {
			line := fmt.Sprintf("  %s %s", out.ok.Render(task.Branch), task.IssueTitle)
			fmt.Fprintln(out.w, util.TruncateANSI(line, out.width))

			var meta []string
			if len(task.Labels) > 0 {
				meta = append(meta, "labels: "+strings.Join(task.Labels, ", "))
			}
			if len(task.Assignees) > 0 {
				meta = append(meta, "assignees: "+strings.Join(task.Assignees, ", "))
			}
			if len(meta) > 0 {
				fmt.Fprintln(out.w, out.muted.Render("    "+strings.Join(meta, "  ")))
			}
			if bodies {
				for _, l := range strings.Split(task.IssueBody, "\n") {
					fmt.Fprintln(out.w, "    | "+l)
				}
			}
		}
	}
}
