package plan

import (
	"fmt"
	"strings"
)

// FormatPlanForDisplay formats a plan for terminal display
func FormatPlanForDisplay(p *Plan) string {
	var sb strings.Builder

	sb.WriteString("Plan Summary\n")
	sb.WriteString("============\n\n")

	sb.WriteString(fmt.Sprintf("Project: %s\n", p.Project.Name))
	if p.Project.Body != "" {
		sb.WriteString(p.Project.Body)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("Tasks: %d total in %d weeks\n\n", p.TaskCount(), len(p.Weeks)))

	for _, w := range p.Weeks {
		sb.WriteString(w.Week)
		if w.Goal != "" {
			sb.WriteString(fmt.Sprintf(" - %s", w.Goal))
		}
		sb.WriteString("\n")

		for _, t := range w.Tasks {
			sb.WriteString(fmt.Sprintf("  - %s", BranchName(t)))
			var meta []string
			if t.Difficulty != "" {
				meta = append(meta, t.Difficulty)
			}
			if t.Assignee != "" {
				meta = append(meta, "@"+t.Assignee)
			}
			if len(meta) > 0 {
				sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(meta, ", ")))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
