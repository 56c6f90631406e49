package plan

import (
	"fmt"
	"strings"

	apperrors "github.com/WomB0ComB0/git-project-management/internal/errors"
)

// ValidationErrors collects every problem found in a plan.
type ValidationErrors []*apperrors.ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Is lets callers test a failed validation with errors.Is(err, ErrPlanInvalid).
func (e ValidationErrors) Is(target error) bool {
	return target == apperrors.ErrPlanInvalid || target == apperrors.ErrInvalidInput
}

// Validate checks the plan and returns all problems found, or nil.
//
// Week labels must be unique because they key milestones, and branch
// names must be unique because two tasks sharing one would silently
// reuse the same branch.
func (p *Plan) Validate() error {
	var errs ValidationErrors

	if p.Project.Name == "" {
		errs = append(errs, apperrors.NewValidationError("must not be empty").WithField("project.name"))
	}
	if len(p.Weeks) == 0 {
		errs = append(errs, apperrors.NewValidationError("plan must contain at least one week").WithField("weeks"))
	}

	weeks := make(map[string]int)
	branches := make(map[string]string)

	for i, w := range p.Weeks {
		weekField := fmt.Sprintf("weeks[%d]", i)

		if w.Week == "" {
			errs = append(errs, apperrors.NewValidationError("must not be empty").WithField(weekField+".week"))
		} else if prev, dup := weeks[w.Week]; dup {
			errs = append(errs, apperrors.NewValidationError(fmt.Sprintf("duplicate week label (also weeks[%d])", prev)).
				WithField(weekField+".week").WithValue(w.Week))
		} else {
			weeks[w.Week] = i
		}

		for j, t := range w.Tasks {
			taskField := fmt.Sprintf("%s.tasks[%d]", weekField, j)

			if t.Title == "" {
				errs = append(errs, apperrors.NewValidationError("must not be empty").WithField(taskField+".title"))
			}
			if !t.CommitType.Valid() {
				errs = append(errs, apperrors.NewValidationError(fmt.Sprintf("must be one of: %s", joinCommitTypes())).
					WithField(taskField+".commit_type").WithValue(string(t.CommitType)))
				continue
			}
			if t.Title == "" {
				continue
			}

			branch := BranchName(t)
			if prev, dup := branches[branch]; dup {
				errs = append(errs, apperrors.NewValidationError(fmt.Sprintf("branch name collides with %s", prev)).
					WithField(taskField+".title").WithValue(branch))
			} else {
				branches[branch] = taskField
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func joinCommitTypes() string {
	types := CommitTypes()
	names := make([]string, len(types))
	for i, c := range types {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
