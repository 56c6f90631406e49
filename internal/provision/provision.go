// Package provision drives a plan against a repository: it resolves or
// creates the project board, reconciles one milestone per week
// concurrently, resolves the base commit, and then creates a branch and an
// issue for every task, placing each issue on the board.
//
// Board, milestone and base-commit failures abort the run. Task failures
// are logged, recorded in the Report, and the run moves on to the next task.
package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"

	apperrors "github.com/WomB0ComB0/git-project-management/internal/errors"
	"github.com/WomB0ComB0/git-project-management/internal/logging"
	"github.com/WomB0ComB0/git-project-management/internal/plan"
	"github.com/WomB0ComB0/git-project-management/internal/plan/tracker"
)

// Config holds everything a run needs besides its remote dependencies.
type Config struct {
	// Plan is the validated plan to provision.
	Plan *plan.Plan

	// ProjectName and ProjectBody override the plan's project section when set.
	ProjectName string
	ProjectBody string

	// ExtraLabels are added to every issue after the difficulty label.
	ExtraLabels []string

	// BodyTemplate is a text/template for issue bodies. Empty selects the default.
	BodyTemplate string

	// MaxConcurrency bounds the milestone fan-out. Zero runs one goroutine per week.
	MaxConcurrency int

	// Now returns the current time. Nil uses time.Now.
	Now func() time.Time
}

// Deps holds the remote backends and the logger.
type Deps struct {
	Repo   tracker.Repository
	Board  tracker.Board
	Logger *logging.Logger
}

// Provisioner runs a plan against a repository.
type Provisioner struct {
	cfg      Config
	deps     Deps
	renderer *plan.BodyRenderer
	logger   *logging.Logger
}

// New creates a Provisioner. Deps may be zero when only Preview is used.
func New(cfg Config, deps Deps) (*Provisioner, error) {
	if cfg.Plan == nil {
		return nil, apperrors.NewValidationError("plan is required").WithField("plan")
	}
	if cfg.MaxConcurrency < 0 {
		return nil, apperrors.NewValidationError("must be non-negative").
			WithField("provision.max_concurrency").WithValue(cfg.MaxConcurrency)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	renderer, err := plan.NewBodyRenderer(cfg.BodyTemplate)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error()).WithField("issue.template")
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	return &Provisioner{
		cfg:      cfg,
		deps:     deps,
		renderer: renderer,
		logger:   logger,
	}, nil
}

// boardOptions returns the project title and description to use.
func (p *Provisioner) boardOptions() tracker.BoardOptions {
	opts := tracker.BoardOptions{
		Title: p.cfg.Plan.Project.Name,
		Body:  p.cfg.Plan.Project.Body,
	}
	if p.cfg.ProjectName != "" {
		opts.Title = p.cfg.ProjectName
	}
	if p.cfg.ProjectBody != "" {
		opts.Body = p.cfg.ProjectBody
	}
	return opts
}

// Run provisions the plan. The returned Report is never nil and describes
// whatever was done before a fatal error.
func (p *Provisioner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: p.cfg.Now(),
	}
	defer func() { report.Finished = p.cfg.Now() }()

	if p.deps.Repo == nil || p.deps.Board == nil {
		return report, fmt.Errorf("provision: repository and board backends are required")
	}

	log := p.logger.WithRun(report.RunID)
	log.Info("starting provisioning",
		"project", p.boardOptions().Title,
		"board", p.deps.Board.Kind(),
		"weeks", len(p.cfg.Plan.Weeks),
		"tasks", p.cfg.Plan.TaskCount(),
	)

	board, err := p.resolveBoard(ctx, log, report)
	if err != nil {
		return report, err
	}
	report.Board = *board

	milestones, err := p.resolveMilestones(ctx, log, report)
	if err != nil {
		return report, err
	}

	sha, err := p.deps.Repo.BaseCommit(ctx)
	if err != nil {
		log.Error("failed to resolve base commit", "error", err)
		return report, apperrors.NewProvisionError(apperrors.StageBaseCommit, "resolve base commit", err)
	}
	report.BaseSHA = sha
	log.Debug("resolved base commit", "sha", sha)

	for i, week := range p.cfg.Plan.Weeks {
		weekLog := log.WithWeek(week.Week)
		for _, task := range week.Tasks {
			if err := ctx.Err(); err != nil {
				return report, fmt.Errorf("%w: %w", apperrors.ErrCanceled, err)
			}

			result := p.provisionTask(ctx, weekLog, *board, milestones[i], sha, week, task)
			report.record(result)
		}
	}

	log.Info("provisioning finished",
		"branches_created", report.BranchesCreated,
		"branches_reused", report.BranchesReused,
		"issues_created", report.IssuesCreated,
		"issues_linked", report.IssuesLinked,
		"failed_tasks", len(report.Failed()),
	)
	return report, nil
}

// resolveBoard finds the board by title or creates it.
func (p *Provisioner) resolveBoard(ctx context.Context, log *logging.Logger, report *Report) (*tracker.BoardRef, error) {
	opts := p.boardOptions()

	board, err := p.deps.Board.FindBoard(ctx, opts.Title)
	if err != nil {
		log.Error("failed to look up project", "project", opts.Title, "error", err)
		return nil, apperrors.NewProvisionError(apperrors.StageBoard, "find project", err)
	}

	if board != nil {
		log.Info("using existing project", "project", board.Title, "url", board.URL)
	} else {
		board, err = p.deps.Board.CreateBoard(ctx, opts)
		if err != nil {
			log.Error("failed to create project", "project", opts.Title, "error", err)
			return nil, apperrors.NewProvisionError(apperrors.StageBoard, "create project", err)
		}
		report.BoardCreated = true
	}

	if board == nil || board.ID == "" {
		return nil, apperrors.NewProvisionError(apperrors.StageBoard, "failed to create or find project", nil)
	}
	return board, nil
}

type milestoneResult struct {
	milestone *tracker.Milestone
	created   bool
}

// resolveMilestones reconciles one milestone per week concurrently. The
// result slice is indexed like the plan's weeks, whatever order the
// requests complete in.
func (p *Provisioner) resolveMilestones(ctx context.Context, log *logging.Logger, report *Report) ([]*tracker.Milestone, error) {
	weeks := p.cfg.Plan.Weeks
	if len(weeks) == 0 {
		return nil, nil
	}

	limit := p.cfg.MaxConcurrency
	if limit == 0 || limit > len(weeks) {
		limit = len(weeks)
	}
	now := p.cfg.Now()

	mapper := iter.Mapper[plan.WeekPlan, milestoneResult]{MaxGoroutines: limit}
	results, err := mapper.MapErr(weeks, func(week *plan.WeekPlan) (milestoneResult, error) {
		res, err := p.resolveMilestone(ctx, log.WithWeek(week.Week), now, *week)
		if err != nil {
			return res, fmt.Errorf("week %q: %w", week.Week, err)
		}
		return res, nil
	})
	if err != nil {
		log.Error("milestone batch failed", "error", err)
		return nil, apperrors.NewProvisionError(apperrors.StageMilestones, "resolve milestones", err)
	}

	milestones := make([]*tracker.Milestone, len(results))
	for i, res := range results {
		milestones[i] = res.milestone
		if res.created {
			report.MilestonesCreated++
		} else {
			report.MilestonesReused++
		}
	}
	return milestones, nil
}

func (p *Provisioner) resolveMilestone(ctx context.Context, log *logging.Logger, now time.Time, week plan.WeekPlan) (milestoneResult, error) {
	existing, err := p.deps.Repo.FindMilestone(ctx, week.Week)
	if err != nil {
		return milestoneResult{}, err
	}
	if existing != nil {
		log.Info("using existing milestone", "number", existing.Number)
		return milestoneResult{milestone: existing}, nil
	}

	opts := tracker.MilestoneOptions{
		Title:       week.Week,
		Description: week.Goal,
	}
	if due, ok := plan.DueDate(now, week.Week); ok {
		opts.DueOn = due
	} else {
		log.Warn("week label has no ordinal, creating milestone without due date")
	}

	created, err := p.deps.Repo.CreateMilestone(ctx, opts)
	if err != nil {
		return milestoneResult{}, err
	}
	if created == nil {
		return milestoneResult{}, fmt.Errorf("create milestone returned no milestone")
	}
	log.Info("created milestone", "number", created.Number, "due_on", opts.DueOn)
	return milestoneResult{milestone: created, created: true}, nil
}

// provisionTask runs branch -> issue -> link for one task. The first
// failing step ends the task; the error is logged and returned in the result.
func (p *Provisioner) provisionTask(
	ctx context.Context,
	weekLog *logging.Logger,
	board tracker.BoardRef,
	milestone *tracker.Milestone,
	sha string,
	week plan.WeekPlan,
	task plan.TaskConfig,
) TaskResult {
	branchName := plan.BranchName(task)
	log := weekLog.WithTask(task.Title, branchName)

	result := TaskResult{
		Week:   week.Week,
		Title:  task.Title,
		Branch: branchName,
	}

	fail := func(step apperrors.Step, msg string, err error) TaskResult {
		provErr := apperrors.NewProvisionError(apperrors.StageTask, msg, err).
			WithWeek(week.Week).
			WithTask(task.Title).
			WithStep(step)
		log.Error("failed to provision task", "step", string(step), "error", err)
		result.Step = step
		result.Err = provErr
		return result
	}

	existing, err := p.deps.Repo.FindBranch(ctx, branchName)
	if err != nil {
		return fail(apperrors.StepBranch, "check branch", err)
	}
	if existing == nil {
		_, created, err := p.deps.Repo.CreateBranch(ctx, branchName, sha)
		if err != nil {
			return fail(apperrors.StepBranch, "create branch", err)
		}
		result.BranchCreated = created
	} else {
		log.Debug("branch already exists")
	}

	body, err := p.renderer.Render(week, task)
	if err != nil {
		return fail(apperrors.StepIssue, "render issue body", err)
	}

	opts := tracker.IssueOptions{
		Title:     plan.IssueTitle(week, task),
		Body:      body,
		Labels:    plan.Labels(task, p.cfg.ExtraLabels...),
		Assignees: plan.Assignees(task),
	}
	if milestone != nil {
		opts.Milestone = milestone.Number
	}

	issue, err := p.deps.Repo.CreateIssue(ctx, opts)
	if err != nil {
		return fail(apperrors.StepIssue, "create issue", err)
	}
	result.Issue = &issue

	if err := p.deps.Board.AddIssue(ctx, board, issue); err != nil {
		return fail(apperrors.StepLink, "add issue to project", err)
	}
	result.Linked = true

	log.Info("created issue with branch and added to project", "issue", issue.Number, "url", issue.URL)
	return result
}
