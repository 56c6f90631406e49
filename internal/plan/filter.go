package plan

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Filter returns a copy of the plan keeping only tasks whose branch name
// matches pattern. Weeks are always kept so their milestones are still
// reconciled. An empty pattern returns the plan unchanged.
func (p *Plan) Filter(pattern string) (*Plan, error) {
	if pattern == "" {
		return p, nil
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid task filter %q: %w", pattern, err)
	}

	out := &Plan{
		Project: p.Project,
		Weeks:   make([]WeekPlan, len(p.Weeks)),
	}
	for i, w := range p.Weeks {
		kept := w
		kept.Tasks = nil
		for _, t := range w.Tasks {
			if g.Match(BranchName(t)) {
				kept.Tasks = append(kept.Tasks, t)
			}
		}
		out.Weeks[i] = kept
	}
	return out, nil
}
