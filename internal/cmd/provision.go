package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/WomB0ComB0/git-project-management/internal/config"
	apperrors "github.com/WomB0ComB0/git-project-management/internal/errors"
	"github.com/WomB0ComB0/git-project-management/internal/github"
	"github.com/WomB0ComB0/git-project-management/internal/logging"
	"github.com/WomB0ComB0/git-project-management/internal/plan"
	"github.com/WomB0ComB0/git-project-management/internal/plan/tracker"
	"github.com/WomB0ComB0/git-project-management/internal/provision"
	"github.com/WomB0ComB0/git-project-management/internal/util"
	"github.com/spf13/cobra"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the board, milestones, branches and issues for a plan",
	Long: `Provision a plan against the configured repository.

The run resolves or creates the project board, creates one milestone per
week (concurrently), then creates a branch and an issue for every task and
adds each issue to the board. Existing boards, milestones and branches are
reused. Issues are always created.

Board, milestone and base-commit failures abort the run. A failed task is
reported and the run continues; set provision.fail_on_task_error to exit
non-zero in that case.

Credentials come from github.token (or GITHUB_TOKEN), github.owner
(REPO_OWNER) and github.repo (REPO_NAME).`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	addPlanFlags(provisionCmd)
	addProjectFlags(provisionCmd)
	provisionCmd.Flags().String("board", "", "board backend: v2 or classic (default from github.board)")
	provisionCmd.Flags().Int("max-concurrency", 0, "max concurrent milestone requests (default from provision.max_concurrency)")
	provisionCmd.Flags().Bool("dry-run", false, "print what would be created and exit")
}

// addProjectFlags registers the flags that shape board and issue content.
func addProjectFlags(cmd *cobra.Command) {
	cmd.Flags().String("project", "", "project board title (overrides the plan)")
	cmd.Flags().String("project-body", "", "project board description (overrides the plan)")
	cmd.Flags().StringSlice("label", nil, "extra label for every issue (repeatable)")
}

// provisionConfig builds the run configuration from config and flags.
func provisionConfig(cmd *cobra.Command, cfg *config.Config, p *plan.Plan) provision.Config {
	project, _ := cmd.Flags().GetString("project")
	body, _ := cmd.Flags().GetString("project-body")
	labels, _ := cmd.Flags().GetStringSlice("label")

	extra := make([]string, 0, len(cfg.Issue.Labels)+len(labels))
	extra = append(extra, cfg.Issue.Labels...)
	extra = append(extra, labels...)

	return provision.Config{
		Plan:           p,
		ProjectName:    project,
		ProjectBody:    body,
		ExtraLabels:    extra,
		BodyTemplate:   cfg.Issue.Template,
		MaxConcurrency: cfg.Provision.MaxConcurrency,
	}
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("board"); f != nil && f.Changed {
		cfg.GitHub.Board = f.Value.String()
	}
	if cmd.Flags().Changed("max-concurrency") {
		cfg.Provision.MaxConcurrency, _ = cmd.Flags().GetInt("max-concurrency")
	}

	p, err := loadPlan(cmd, cfg.Plan.File)
	if err != nil {
		return err
	}

	out := newPrinter(cmd.OutOrStdout())

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		prov, err := provision.New(provisionConfig(cmd, cfg, p), provision.Deps{})
		if err != nil {
			return err
		}
		preview, err := prov.Preview()
		if err != nil {
			return err
		}
		printPreview(out, preview, false)
		fmt.Fprintln(out.w)
		fmt.Fprintln(out.w, out.warn.Render("Dry run: nothing was created."))
		return nil
	}

	if errs := cfg.ValidateRemote(); len(errs) > 0 {
		return fmt.Errorf("missing GitHub settings: %w", config.ValidationErrors(errs))
	}

	logger, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	client := github.NewClient(cfg.GitHub.Token, cfg.GitHub.Owner, cfg.GitHub.Repo,
		github.WithAPIURL(cfg.GitHub.APIURL),
		github.WithGraphQLURL(cfg.GitHub.GraphQLURL),
		github.WithTimeout(cfg.GitHub.Timeout),
	)

	board, err := tracker.NewBoard(client, tracker.BoardConfig{
		Kind:          cfg.GitHub.Board,
		OwnerType:     cfg.GitHub.OwnerType,
		ProjectNumber: cfg.GitHub.ProjectNumber,
	}, logger)
	if err != nil {
		return err
	}

	prov, err := provision.New(provisionConfig(cmd, cfg, p), provision.Deps{
		Repo:   tracker.NewGitHubTracker(client, logger),
		Board:  board,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	report, runErr := prov.Run(cmd.Context())
	printReport(out, report)

	if runErr != nil {
		return runError(out, runErr)
	}
	if taskErr := report.TaskError(); taskErr != nil && cfg.Provision.FailOnTaskError {
		return runError(out, taskErr)
	}
	return nil
}

// runError prints why a run stopped and returns the command error.
func runError(out *printer, err error) error {
	if errors.Is(err, apperrors.ErrCanceled) {
		fmt.Fprintln(out.w, out.warn.Render("Provisioning interrupted."))
		return fmt.Errorf("provisioning interrupted: %w", err)
	}

	reason := "provisioning aborted"
	switch {
	case errors.Is(err, apperrors.ErrBoardUnavailable):
		reason = "could not find or create the project board"
	case errors.Is(err, apperrors.ErrMilestoneBatch):
		reason = "could not create milestones, no branches or issues were created"
	case errors.Is(err, apperrors.ErrBaseCommit):
		reason = "could not resolve the default branch head"
	case !apperrors.IsFatal(err):
		reason = "provisioning incomplete"
	}

	style := out.warn
	if apperrors.GetSeverity(err) >= apperrors.SeverityError {
		style = out.fail
	}
	fmt.Fprintln(out.w)
	fmt.Fprintln(out.w, style.Render(reason))
	if apperrors.IsRetryable(err) {
		fmt.Fprintln(out.w, out.muted.Render("Rerun to resume: existing boards, milestones and branches are reused."))
	}
	return fmt.Errorf("%s: %w", reason, err)
}

func printReport(out *printer, report *provision.Report) {
	if report == nil {
		return
	}

	fmt.Fprintln(out.w, out.title.Render("Provisioning run "+report.RunID))

	if report.Board.ID != "" {
		state := "reused"
		if report.BoardCreated {
			state = "created"
		}
		board := fmt.Sprintf("Board: %s (%s)", report.Board.Title, state)
		if report.Board.URL != "" {
			board += " " + out.muted.Render(report.Board.URL)
		}
		fmt.Fprintln(out.w, board)
	}
	if report.MilestonesCreated+report.MilestonesReused > 0 {
		fmt.Fprintf(out.w, "Milestones: %d created, %d reused\n", report.MilestonesCreated, report.MilestonesReused)
	}

	if len(report.Tasks) > 0 {
		fmt.Fprintln(out.w)
	}
	for _, task := range report.Tasks {
		var line string
		switch {
		case task.OK():
			issue := ""
			if task.Issue != nil {
				issue = fmt.Sprintf(" #%d", task.Issue.Number)
			}
			line = out.ok.Render("✓") + " " + task.Branch + issue
		case task.Issue != nil:
			line = out.warn.Render("!") + fmt.Sprintf(" %s #%d (%s failed)", task.Branch, task.Issue.Number, task.Step)
		default:
			line = out.fail.Render("✗") + fmt.Sprintf(" %s (%s failed)", task.Branch, task.Step)
		}
		fmt.Fprintln(out.w, util.TruncateANSI(line, out.width))
		if task.Err != nil {
			fmt.Fprintln(out.w, util.TruncateANSI(out.muted.Render("    "+task.Err.Error()), out.width))
		}
	}

	fmt.Fprintln(out.w)
	fmt.Fprintf(out.w, "Branches: %d created, %d reused\n", report.BranchesCreated, report.BranchesReused)
	fmt.Fprintf(out.w, "Issues: %d created, %d added to board\n", report.IssuesCreated, report.IssuesLinked)

	if failed := report.Failed(); len(failed) > 0 {
		fmt.Fprintln(out.w, out.fail.Render(fmt.Sprintf("%d of %s failed", len(failed), util.Plural(len(report.Tasks), "task"))))
	} else if len(report.Tasks) > 0 {
		fmt.Fprintln(out.w, out.ok.Render(fmt.Sprintf("All %s provisioned in %s", util.Plural(len(report.Tasks), "task"), report.Duration().Round(time.Millisecond))))
	}
}
