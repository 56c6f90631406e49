// Package plan holds the week/task plan that drives provisioning: the
// document model, loading from YAML, JSON or TOML, validation, filtering
// and the pure naming rules (branch names, issue titles, labels, due dates).
package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// CommitType is the conventional-commit prefix of a task. It becomes the
// first segment of the task's branch name and the tag in its issue title.
type CommitType string

const (
	CommitFeat     CommitType = "feat"
	CommitFix      CommitType = "fix"
	CommitPerf     CommitType = "perf"
	CommitRefactor CommitType = "refactor"
	CommitStyle    CommitType = "style"
	CommitTest     CommitType = "test"
	CommitBuild    CommitType = "build"
	CommitOps      CommitType = "ops"
	CommitDocs     CommitType = "docs"
	CommitChore    CommitType = "chore"
	CommitMerge    CommitType = "merge"
	CommitRevert   CommitType = "revert"
)

// CommitTypes returns every accepted commit type in declaration order.
func CommitTypes() []CommitType {
	return []CommitType{
		CommitFeat, CommitFix, CommitPerf, CommitRefactor, CommitStyle, CommitTest,
		CommitBuild, CommitOps, CommitDocs, CommitChore, CommitMerge, CommitRevert,
	}
}

// Valid reports whether c is one of the known commit types.
func (c CommitType) Valid() bool {
	for _, known := range CommitTypes() {
		if c == known {
			return true
		}
	}
	return false
}

// ProjectConfig describes the project board.
type ProjectConfig struct {
	Name string `json:"name" yaml:"name" toml:"name"`
	Body string `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
}

// TaskConfig is one unit of work. Each task becomes a branch and an issue.
type TaskConfig struct {
	Title      string     `json:"title" yaml:"title" toml:"title"`
	Difficulty string     `json:"difficulty,omitempty" yaml:"difficulty,omitempty" toml:"difficulty,omitempty"`
	Assignee   string     `json:"assignee,omitempty" yaml:"assignee,omitempty" toml:"assignee,omitempty"`
	CommitType CommitType `json:"commit_type" yaml:"commit_type" toml:"commit_type"`
}

// UnmarshalJSON accepts both commit_type and the camelCase commitType key.
func (t *TaskConfig) UnmarshalJSON(data []byte) error {
	type plain TaskConfig
	var aux struct {
		plain
		CamelCommitType CommitType `json:"commitType"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = TaskConfig(aux.plain)
	if t.CommitType == "" {
		t.CommitType = aux.CamelCommitType
	}
	return nil
}

// WeekPlan groups tasks under a week label. The label keys the week's
// milestone and must be unique within a plan.
type WeekPlan struct {
	Week       string       `json:"week" yaml:"week" toml:"week"`
	Goal       string       `json:"goal,omitempty" yaml:"goal,omitempty" toml:"goal,omitempty"`
	Difficulty string       `json:"difficulty,omitempty" yaml:"difficulty,omitempty" toml:"difficulty,omitempty"`
	Assignee   string       `json:"assignee,omitempty" yaml:"assignee,omitempty" toml:"assignee,omitempty"`
	Tasks      []TaskConfig `json:"tasks" yaml:"tasks" toml:"tasks"`
}

// Plan is the whole provisioning input. It is immutable once loaded.
type Plan struct {
	Project ProjectConfig `json:"project" yaml:"project" toml:"project"`
	Weeks   []WeekPlan    `json:"weeks" yaml:"weeks" toml:"weeks"`
}

// TaskCount returns the number of tasks across all weeks.
func (p *Plan) TaskCount() int {
	n := 0
	for _, w := range p.Weeks {
		n += len(w.Tasks)
	}
	return n
}

// Format identifies a plan file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath infers the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported plan file extension %q (want .yaml, .yml, .json or .toml)", filepath.Ext(path))
	}
}

// Load reads, decodes and normalizes a plan file. The result is not
// validated; call Validate before using it.
func Load(path string) (*Plan, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	p, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a plan from data in the given format and applies defaults.
func Parse(data []byte, format Format) (*Plan, error) {
	var p Plan

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &p)
		if err != nil {
			return nil, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml: unknown key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported plan format %q", format)
	}

	p.normalize()
	return &p, nil
}

// normalize trims text fields and lets tasks inherit assignee and
// difficulty from their week.
func (p *Plan) normalize() {
	p.Project.Name = strings.TrimSpace(p.Project.Name)

	for i := range p.Weeks {
		w := &p.Weeks[i]
		w.Week = strings.TrimSpace(w.Week)
		w.Difficulty = strings.TrimSpace(w.Difficulty)
		w.Assignee = strings.TrimSpace(w.Assignee)

		for j := range w.Tasks {
			t := &w.Tasks[j]
			t.Title = strings.TrimSpace(t.Title)
			t.Difficulty = strings.TrimSpace(t.Difficulty)
			t.Assignee = strings.TrimSpace(t.Assignee)
			t.CommitType = CommitType(strings.ToLower(strings.TrimSpace(string(t.CommitType))))

			if t.Difficulty == "" {
				t.Difficulty = w.Difficulty
			}
			if t.Assignee == "" {
				t.Assignee = w.Assignee
			}
		}
	}
}
