// Package internal contains integration tests that run the provisioner
// through the real HTTP client and GitHub backends against a fake GitHub.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/WomB0ComB0/git-project-management/internal/errors"
	"github.com/WomB0ComB0/git-project-management/internal/github"
	"github.com/WomB0ComB0/git-project-management/internal/logging"
	"github.com/WomB0ComB0/git-project-management/internal/plan"
	"github.com/WomB0ComB0/git-project-management/internal/plan/tracker"
	"github.com/WomB0ComB0/git-project-management/internal/provision"
	"github.com/WomB0ComB0/git-project-management/internal/testutil"
)

// fakeGitHub keeps enough REST and GraphQL state for repeated runs.
type fakeGitHub struct {
	mu sync.Mutex

	project     map[string]any
	description string
	milestones  []map[string]any
	branches    map[string]string
	issues      []map[string]any
	items       []string

	milestoneStatus int
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *httptest.Server) {
	t.Helper()
	f := &fakeGitHub{branches: map[string]string{"main": "sha-main"}}

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	decode := func(r *http.Request) map[string]any {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode %s %s: %v", r.Method, r.URL.Path, err)
		}
		return body
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/octo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"login": "octo", "node_id": "U_octo"})
	})
	mux.HandleFunc("GET /repos/octo/hello", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"node_id": "R_hello", "full_name": "octo/hello", "default_branch": "main"})
	})
	mux.HandleFunc("GET /repos/octo/hello/milestones", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.milestones)
	})
	mux.HandleFunc("POST /repos/octo/hello/milestones", func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.milestoneStatus != 0 {
			writeJSON(w, f.milestoneStatus, map[string]string{"message": "Server Error"})
			return
		}
		m := map[string]any{
			"number":   len(f.milestones) + 1,
			"title":    body["title"],
			"due_on":   body["due_on"],
			"html_url": fmt.Sprintf("https://github.com/octo/hello/milestone/%d", len(f.milestones)+1),
		}
		f.milestones = append(f.milestones, m)
		writeJSON(w, http.StatusCreated, m)
	})
	mux.HandleFunc("GET /repos/octo/hello/git/ref/heads/{name...}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		sha, ok := f.branches[r.PathValue("name")]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ref": "refs/heads/" + r.PathValue("name"), "object": map[string]string{"sha": sha}})
	})
	mux.HandleFunc("POST /repos/octo/hello/git/refs", func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		ref, _ := body["ref"].(string)
		sha, _ := body["sha"].(string)
		f.mu.Lock()
		f.branches[strings.TrimPrefix(ref, "refs/heads/")] = sha
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"ref": ref, "object": map[string]string{"sha": sha}})
	})
	mux.HandleFunc("POST /repos/octo/hello/issues", func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.issues = append(f.issues, body)
		n := len(f.issues)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":       5000 + n,
			"node_id":  fmt.Sprintf("I_%d", n),
			"number":   n,
			"html_url": fmt.Sprintf("https://github.com/octo/hello/issues/%d", n),
		})
	})
	mux.HandleFunc("POST /graphql", func(w http.ResponseWriter, r *http.Request) {
		body := decode(r)
		query, _ := body["query"].(string)
		vars, _ := body["variables"].(map[string]any)

		f.mu.Lock()
		defer f.mu.Unlock()
		switch {
		case strings.Contains(query, "projectV2(number"):
			if f.project == nil {
				writeJSON(w, http.StatusOK, map[string]any{
					"data":   map[string]any{"owner": map[string]any{"projectV2": nil}},
					"errors": []map[string]any{{"message": "Could not resolve to a ProjectV2 with the number 1."}},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"owner": map[string]any{"projectV2": f.project}}})
		case strings.Contains(query, "projectsV2(first"):
			nodes := []any{}
			if f.project != nil {
				nodes = append(nodes, f.project)
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"owner": map[string]any{"projectsV2": map[string]any{"nodes": nodes}}}})
		case strings.Contains(query, "createProjectV2"):
			input, _ := vars["input"].(map[string]any)
			if input["ownerId"] != "U_octo" || input["repositoryId"] != "R_hello" {
				t.Errorf("createProjectV2 input = %v", input)
			}
			f.project = map[string]any{"id": "PVT_1", "number": 1, "title": input["title"], "url": "https://github.com/users/octo/projects/1"}
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"createProjectV2": map[string]any{"projectV2": f.project}}})
		case strings.Contains(query, "updateProjectV2"):
			input, _ := vars["input"].(map[string]any)
			f.description, _ = input["shortDescription"].(string)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"updateProjectV2": map[string]any{"projectV2": map[string]any{"id": "PVT_1"}}}})
		case strings.Contains(query, "addProjectV2ItemById"):
			contentID, _ := vars["contentId"].(string)
			f.items = append(f.items, contentID)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"addProjectV2ItemById": map[string]any{"item": map[string]any{"id": "PVTI_" + contentID}}}})
		default:
			t.Errorf("unexpected GraphQL query: %s", query)
			writeJSON(w, http.StatusOK, map[string]any{"errors": []map[string]any{{"message": "unexpected"}}})
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func newProvisioner(t *testing.T, srv *httptest.Server) *provision.Provisioner {
	t.Helper()

	p, err := plan.Parse([]byte(testutil.SamplePlanYAML), plan.FormatYAML)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	logger := logging.NopLogger()
	client := github.NewClient("ghp_test", "octo", "hello",
		github.WithAPIURL(srv.URL),
		github.WithGraphQLURL(srv.URL+"/graphql"),
		github.WithTimeout(5*time.Second),
	)
	board, err := tracker.NewBoard(client, tracker.BoardConfig{
		Kind:          tracker.BoardProjectsV2,
		OwnerType:     tracker.OwnerUser,
		ProjectNumber: 1,
	}, logger)
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}

	prov, err := provision.New(provision.Config{
		Plan:        p,
		ExtraLabels: []string{"bootcamp"},
		Now:         func() time.Time { return time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC) },
	}, provision.Deps{
		Repo:   tracker.NewGitHubTracker(client, logger),
		Board:  board,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return prov
}

// TestProvisionProjectsV2 runs a plan twice against the same fake GitHub and
// checks what the second run reuses.
func TestProvisionProjectsV2(t *testing.T) {
	fake, srv := newFakeGitHub(t)
	ctx := context.Background()

	report, err := newProvisioner(t, srv).Run(ctx)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if !report.BoardCreated || report.Board.ID != "PVT_1" {
		t.Errorf("board = %+v, created = %v, want PVT_1 created", report.Board, report.BoardCreated)
	}
	if report.MilestonesCreated != 2 || report.BranchesCreated != 3 || report.IssuesCreated != 3 || report.IssuesLinked != 3 {
		t.Errorf("first run counts = %+v", report)
	}
	if len(report.Failed()) != 0 {
		t.Errorf("first run failures = %v", report.Failed())
	}

	fake.mu.Lock()
	if fake.description != "Ten weeks of Go" {
		t.Errorf("project description = %q, want %q", fake.description, "Ten weeks of Go")
	}
	if len(fake.milestones) != 2 {
		t.Fatalf("milestones = %d, want 2", len(fake.milestones))
	}
	dueByTitle := map[string]any{}
	for _, m := range fake.milestones {
		dueByTitle[m["title"].(string)] = m["due_on"]
	}
	if dueByTitle["Week 1"] != "2025-01-13T09:00:00Z" || dueByTitle["Week 2"] != "2025-01-20T09:00:00Z" {
		t.Errorf("milestone due dates = %v", dueByTitle)
	}
	if fake.branches["feat/worker-pool"] != "sha-main" {
		t.Errorf("branch feat/worker-pool sha = %q, want sha-main", fake.branches["feat/worker-pool"])
	}
	first := fake.issues[0]
	if first["title"] != "[feat] Week 1: Hello world" {
		t.Errorf("first issue title = %v", first["title"])
	}
	labels, _ := first["labels"].([]any)
	if len(labels) != 2 || labels[0] != "difficulty:easy" || labels[1] != "bootcamp" {
		t.Errorf("first issue labels = %v", labels)
	}
	if assignees, _ := first["assignees"].([]any); len(assignees) != 1 || assignees[0] != "alice" {
		t.Errorf("first issue assignees = %v", first["assignees"])
	}
	if _, ok := first["milestone"]; !ok {
		t.Error("first issue has no milestone")
	}
	if strings.Join(fake.items, ",") != "I_1,I_2,I_3" {
		t.Errorf("board items = %v", fake.items)
	}
	fake.mu.Unlock()

	// The second run finds the board, milestones and branches by name.
	// Issues have no natural key, so they are created again.
	report, err = newProvisioner(t, srv).Run(ctx)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if report.BoardCreated || report.Board.ID != "PVT_1" {
		t.Errorf("second run board = %+v, created = %v, want PVT_1 reused", report.Board, report.BoardCreated)
	}
	if report.MilestonesReused != 2 || report.MilestonesCreated != 0 {
		t.Errorf("second run milestones created=%d reused=%d", report.MilestonesCreated, report.MilestonesReused)
	}
	if report.BranchesReused != 3 || report.BranchesCreated != 0 {
		t.Errorf("second run branches created=%d reused=%d", report.BranchesCreated, report.BranchesReused)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.milestones) != 2 {
		t.Errorf("milestones after rerun = %d, want 2", len(fake.milestones))
	}
	if len(fake.issues) != 6 {
		t.Errorf("issues after rerun = %d, want 6", len(fake.issues))
	}
}

// TestProvisionMilestoneFailureAborts checks that a failed milestone stops
// the run before any branch or issue is created.
func TestProvisionMilestoneFailureAborts(t *testing.T) {
	fake, srv := newFakeGitHub(t)
	fake.milestoneStatus = http.StatusInternalServerError

	report, err := newProvisioner(t, srv).Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail when milestones cannot be created")
	}
	if !errors.Is(err, apperrors.ErrMilestoneBatch) {
		t.Errorf("Run() error = %v, want ErrMilestoneBatch", err)
	}
	if github.StatusCode(err) != http.StatusInternalServerError {
		t.Errorf("StatusCode(err) = %d, want 500", github.StatusCode(err))
	}
	if len(report.Tasks) != 0 {
		t.Errorf("tasks attempted = %d, want 0", len(report.Tasks))
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.issues) != 0 || len(fake.branches) != 1 {
		t.Errorf("issues = %d, branches = %d after aborted run", len(fake.issues), len(fake.branches))
	}
}
