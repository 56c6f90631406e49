package provision

import (
	"fmt"
	"time"

	apperrors "github.com/WomB0ComB0/git-project-management/internal/errors"
	"github.com/WomB0ComB0/git-project-management/internal/plan/tracker"
	"github.com/WomB0ComB0/git-project-management/internal/util"
)

// TaskResult records what happened to one task.
type TaskResult struct {
	Week   string
	Title  string
	Branch string

	BranchCreated bool
	Issue         *tracker.IssueRef
	Linked        bool

	// Step is the step that failed. Empty when the task succeeded.
	Step apperrors.Step

	// Err is a *errors.ProvisionError when the task failed.
	Err error
}

// OK reports whether every step of the task succeeded.
func (r TaskResult) OK() bool {
	return r.Err == nil
}

// Report summarizes a run.
type Report struct {
	RunID string

	Board        tracker.BoardRef
	BoardCreated bool

	MilestonesCreated int
	MilestonesReused  int

	BaseSHA string

	BranchesCreated int
	BranchesReused  int
	IssuesCreated   int
	IssuesLinked    int

	Tasks []TaskResult

	Started  time.Time
	Finished time.Time
}

func (r *Report) record(res TaskResult) {
	r.Tasks = append(r.Tasks, res)

	// A branch failure leaves neither flag meaningful.
	if res.Step != apperrors.StepBranch {
		if res.BranchCreated {
			r.BranchesCreated++
		} else {
			r.BranchesReused++
		}
	}
	if res.Issue != nil {
		r.IssuesCreated++
	}
	if res.Linked {
		r.IssuesLinked++
	}
}

// Failed returns the tasks that did not complete, in plan order.
func (r *Report) Failed() []TaskResult {
	var failed []TaskResult
	for _, t := range r.Tasks {
		if !t.OK() {
			failed = append(failed, t)
		}
	}
	return failed
}

// TaskError joins the failed tasks' errors into one task-stage
// ProvisionError. It returns nil when every task succeeded.
func (r *Report) TaskError() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(failed))
	for _, t := range failed {
		errs = append(errs, t.Err)
	}
	msg := fmt.Sprintf("%d of %s failed", len(failed), util.Plural(len(r.Tasks), "task"))
	return apperrors.NewProvisionError(apperrors.StageTask, msg, apperrors.Join(errs...))
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
