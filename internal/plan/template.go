package plan

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// DefaultIssueBodyTemplate renders the issue body used when no custom
// template is configured.
const DefaultIssueBodyTemplate = "Task for {{.Week}}: {{.Title}}\n\nBranch: `{{.Branch}}`"

// DifficultyLabelPrefix prefixes the difficulty label attached to every issue.
const DifficultyLabelPrefix = "difficulty:"

// whitespaceRun matches the same characters as an ECMAScript \s class:
// ASCII space and controls, vertical tab, Unicode space separators, line
// and paragraph separators, and the byte order mark.
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)

// BranchName derives the branch for a task: the commit type, a slash, and
// the lowercased title with each whitespace run replaced by a hyphen.
//
//	{Title: "Add login form", CommitType: "feat"} -> "feat/add-login-form"
func BranchName(t TaskConfig) string {
	slug := whitespaceRun.ReplaceAllString(strings.ToLower(t.Title), "-")
	return string(t.CommitType) + "/" + slug
}

// IssueTitle renders "[<commit type>] <week label>: <title>".
func IssueTitle(w WeekPlan, t TaskConfig) string {
	return fmt.Sprintf("[%s] %s: %s", t.CommitType, w.Week, t.Title)
}

// Labels returns the difficulty label followed by any extra labels,
// skipping blanks and duplicates.
func Labels(t TaskConfig, extra ...string) []string {
	var labels []string
	seen := make(map[string]bool)
	add := func(l string) {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			return
		}
		seen[l] = true
		labels = append(labels, l)
	}

	if t.Difficulty != "" {
		add(DifficultyLabelPrefix + t.Difficulty)
	}
	for _, l := range extra {
		add(l)
	}
	return labels
}

// Assignees returns the task assignee as a list, or nil when unassigned.
func Assignees(t TaskConfig) []string {
	if t.Assignee == "" {
		return nil
	}
	return []string{t.Assignee}
}

// WeekOrdinal extracts N from a label such as "Week 2 (Jan 13-19)": the
// leading digits of the second whitespace-separated token. ok is false
// when that token is missing or does not start with a digit.
func WeekOrdinal(label string) (n int, ok bool) {
	fields := strings.Fields(label)
	if len(fields) < 2 {
		return 0, false
	}

	token := fields[1]
	end := 0
	for end < len(token) && token[end] >= '0' && token[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(token[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// maxWeekOrdinal bounds the day arithmetic in DueDate.
const maxWeekOrdinal = 1_000_000

// DueDate returns now + 7*N days as an RFC 3339 UTC timestamp, where N is
// the week's ordinal. ok is false when the label carries no ordinal or the
// date would fall past year 9999.
func DueDate(now time.Time, week string) (due string, ok bool) {
	n, ok := WeekOrdinal(week)
	if !ok || n > maxWeekOrdinal {
		return "", false
	}
	t := now.UTC().AddDate(0, 0, 7*n)
	if t.Year() > 9999 {
		return "", false
	}
	return t.Format(time.RFC3339), true
}

// IssueData is the data available to issue body templates.
type IssueData struct {
	Week       string
	Goal       string
	Title      string
	Branch     string
	CommitType string
	Difficulty string
	Assignee   string
}

// NewIssueData collects the template data for one task.
func NewIssueData(w WeekPlan, t TaskConfig) IssueData {
	return IssueData{
		Week:       w.Week,
		Goal:       w.Goal,
		Title:      t.Title,
		Branch:     BranchName(t),
		CommitType: string(t.CommitType),
		Difficulty: t.Difficulty,
		Assignee:   t.Assignee,
	}
}

// BodyRenderer renders issue bodies from a parsed text/template.
type BodyRenderer struct {
	tmpl *template.Template
}

// NewBodyRenderer parses text as an issue body template. An empty text
// selects DefaultIssueBodyTemplate.
func NewBodyRenderer(text string) (*BodyRenderer, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultIssueBodyTemplate
	}

	tmpl, err := template.New("issue-body").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse issue body template: %w", err)
	}
	return &BodyRenderer{tmpl: tmpl}, nil
}

// Render produces the issue body for one task.
func (r *BodyRenderer) Render(w WeekPlan, t TaskConfig) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, NewIssueData(w, t)); err != nil {
		return "", fmt.Errorf("failed to render issue body template: %w", err)
	}
	return buf.String(), nil
}

// IssueBody renders the default issue body.
func IssueBody(w WeekPlan, t TaskConfig) string {
	return fmt.Sprintf("Task for %s: %s\n\nBranch: `%s`", w.Week, t.Title, BranchName(t))
}
