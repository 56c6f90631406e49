// Package testutil provides testing utilities for gpm tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CredentialEnv lists every environment variable the configuration reads
// GitHub credentials from.
var CredentialEnv = []string{
	"GPM_GITHUB_TOKEN", "GITHUB_TOKEN", "GITHUB_TOKEN_D", "GITHUB_TOKEN_M", "GITHUB_TOKEN_R",
	"GPM_GITHUB_OWNER", "REPO_OWNER", "GPM_GITHUB_REPO", "REPO_NAME",
}

// SamplePlanYAML is a two-week plan with three tasks.
const SamplePlanYAML = `project:
  name: Bootcamp
  body: Ten weeks of Go
weeks:
  - week: Week 1
    goal: Basics
    difficulty: easy
    assignee: alice
    tasks:
      - title: Hello world
        commit_type: feat
      - title: Set up CI
        commit_type: chore
  - week: Week 2
    goal: Concurrency
    tasks:
      - title: Worker pool
        difficulty: hard
        commit_type: feat
`

// WriteFile writes content to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", name, err)
	}
	return path
}

// IsolateEnv points HOME and XDG_CONFIG_HOME at a temporary directory and
// clears every credential variable, so a developer's own configuration
// cannot leak into a test. It returns the temporary home.
func IsolateEnv(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range CredentialEnv {
		t.Setenv(key, "")
	}
	return home
}
