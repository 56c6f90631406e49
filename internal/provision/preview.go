package provision

import (
	"fmt"

	"github.com/WomB0ComB0/git-project-management/internal/plan"
)

// PlannedTask is the set of values a task would be provisioned with.
type PlannedTask struct {
	Title      string
	Branch     string
	IssueTitle string
	IssueBody  string
	Labels     []string
	Assignees  []string
}

// PlannedWeek is the milestone a week would get and its tasks.
type PlannedWeek struct {
	Week  string
	Goal  string
	DueOn string
	Tasks []PlannedTask
}

// Preview is a dry run: every derived value, no network calls.
type Preview struct {
	Project string
	Body    string
	Weeks   []PlannedWeek
}

// Preview computes what Run would create without touching GitHub.
func (p *Provisioner) Preview() (*Preview, error) {
	opts := p.boardOptions()
	out := &Preview{
		Project: opts.Title,
		Body:    opts.Body,
		Weeks:   make([]PlannedWeek, 0, len(p.cfg.Plan.Weeks)),
	}
	now := p.cfg.Now()

	for _, week := range p.cfg.Plan.Weeks {
		pw := PlannedWeek{Week: week.Week, Goal: week.Goal}
		pw.DueOn, _ = plan.DueDate(now, week.Week)

		for _, task := range week.Tasks {
			body, err := p.renderer.Render(week, task)
			if err != nil {
				return nil, fmt.Errorf("%s / %s: %w", week.Week, task.Title, err)
			}
			pw.Tasks = append(pw.Tasks, PlannedTask{
				Title:      task.Title,
				Branch:     plan.BranchName(task),
				IssueTitle: plan.IssueTitle(week, task),
				IssueBody:  body,
				Labels:     plan.Labels(task, p.cfg.ExtraLabels...),
				Assignees:  plan.Assignees(task),
			})
		}
		out.Weeks = append(out.Weeks, pw)
	}
	return out, nil
}
