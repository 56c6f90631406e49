package plan

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBranchName(t *testing.T) {
	tests := []struct {
		name string
		task TaskConfig
		want string
	}{
		{"simple", TaskConfig{Title: "Add login form", CommitType: CommitFeat}, "feat/add-login-form"},
		{"whitespace runs collapse", TaskConfig{Title: "Fix   flaky\ttest", CommitType: CommitFix}, "fix/fix-flaky-test"},
		{"mixed case", TaskConfig{Title: "Update README", CommitType: CommitDocs}, "docs/update-readme"},
		{"punctuation kept", TaskConfig{Title: "Use v2 API (beta)", CommitType: CommitRefactor}, "refactor/use-v2-api-(beta)"},
		{"single word", TaskConfig{Title: "Cleanup", CommitType: CommitChore}, "chore/cleanup"},
		{"vertical tab", TaskConfig{Title: "Add\vlogin form", CommitType: CommitFeat}, "feat/add-login-form"},
		{"no-break space", TaskConfig{Title: "Add\u00a0login form", CommitType: CommitFeat}, "feat/add-login-form"},
		{"ideographic space", TaskConfig{Title: "Add\u3000login\u2028form", CommitType: CommitFeat}, "feat/add-login-form"},
		{"byte order mark run", TaskConfig{Title: "Add\ufeff \u2009login", CommitType: CommitFeat}, "feat/add-login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BranchName(tt.task); got != tt.want {
				t.Errorf("BranchName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIssueTitle(t *testing.T) {
	week := WeekPlan{Week: "Week 1 (Jan 6-12)"}
	task := TaskConfig{Title: "Add login form", CommitType: CommitFeat}

	want := "[feat] Week 1 (Jan 6-12): Add login form"
	if got := IssueTitle(week, task); got != want {
		t.Errorf("IssueTitle() = %q, want %q", got, want)
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		name  string
		task  TaskConfig
		extra []string
		want  []string
	}{
		{"difficulty only", TaskConfig{Difficulty: "medium"}, nil, []string{"difficulty:medium"}},
		{"no difficulty", TaskConfig{}, nil, nil},
		{"extra labels", TaskConfig{Difficulty: "hard"}, []string{"capstone", " ", "capstone", "difficulty:hard"}, []string{"difficulty:hard", "capstone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Labels(tt.task, tt.extra...); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Labels() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignees(t *testing.T) {
	if got := Assignees(TaskConfig{}); got != nil {
		t.Errorf("Assignees() = %v, want nil", got)
	}
	if got := Assignees(TaskConfig{Assignee: "alice"}); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("Assignees() = %v", got)
	}
}

func TestWeekOrdinal(t *testing.T) {
	tests := []struct {
		label  string
		want   int
		wantOK bool
	}{
		{"Week 1", 1, true},
		{"Week 2 (Jan 13-19)", 2, true},
		{"Week 12", 12, true},
		{"Week 3:", 3, true},
		{"Sprint  4", 4, true},
		{"Week", 0, false},
		{"Week one", 0, false},
		{"Week (Jan 6-12)", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := WeekOrdinal(tt.label)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("WeekOrdinal(%q) = (%d, %v), want (%d, %v)", tt.label, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDueDate(t *testing.T) {
	now := time.Date(2025, time.January, 6, 9, 30, 0, 0, time.FixedZone("EST", -5*60*60))

	tests := []struct {
		week   string
		want   string
		wantOK bool
	}{
		{"Week 1 (Jan 6-12)", "2025-01-13T14:30:00Z", true},
		{"Week 2 (Jan 13-19)", "2025-01-20T14:30:00Z", true},
		{"Week 10", "2025-03-17T14:30:00Z", true},
		{"Week 20000 (x)", "2408-04-28T14:30:00Z", true},
		{"Week 5000000", "", false},
		{"Week 99999999999999999999", "", false},
		{"Kickoff", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.week, func(t *testing.T) {
			got, ok := DueDate(now, tt.week)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("DueDate() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBodyRenderer_Default(t *testing.T) {
	r, err := NewBodyRenderer("")
	if err != nil {
		t.Fatalf("NewBodyRenderer() error = %v", err)
	}

	week := WeekPlan{Week: "Week 1 (Jan 6-12)"}
	task := TaskConfig{Title: "Add login form", CommitType: CommitFeat}

	got, err := r.Render(week, task)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "Task for Week 1 (Jan 6-12): Add login form\n\nBranch: `feat/add-login-form`"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
	if got != IssueBody(week, task) {
		t.Error("default template should match IssueBody")
	}
}

func TestBodyRenderer_Custom(t *testing.T) {
	r, err := NewBodyRenderer("## {{.Title}}\n\nGoal: {{.Goal}}\n{{if .Assignee}}Owner: @{{.Assignee}}\n{{end}}Type: {{.CommitType}} ({{.Difficulty}})")
	if err != nil {
		t.Fatalf("NewBodyRenderer() error = %v", err)
	}

	got, err := r.Render(
		WeekPlan{Week: "Week 1", Goal: "Scaffolding"},
		TaskConfig{Title: "Set up CI", CommitType: CommitChore, Difficulty: "easy", Assignee: "bob"},
	)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	for _, want := range []string{"## Set up CI", "Goal: Scaffolding", "Owner: @bob", "Type: chore (easy)"} {
		if !strings.Contains(got, want) {
			t.Errorf("Render() missing %q:\n%s", want, got)
		}
	}
}

func TestBodyRenderer_Errors(t *testing.T) {
	if _, err := NewBodyRenderer("{{.Title"); err == nil {
		t.Error("expected parse error")
	}

	r, err := NewBodyRenderer("{{.Missing}}")
	if err != nil {
		t.Fatalf("NewBodyRenderer() error = %v", err)
	}
	if _, err := r.Render(WeekPlan{}, TaskConfig{}); err == nil {
		t.Error("expected render error for unknown field")
	}
}
