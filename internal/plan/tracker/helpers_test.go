package tracker

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/WomB0ComB0/git-project-management/internal/github"
)

const (
	testOwner = "octo"
	testRepo  = "hello"
)

// fakeGitHub is an httptest server with method-aware routes that records
// every request it serves.
type fakeGitHub struct {
	mux *http.ServeMux

	mu       sync.Mutex
	requests []string
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *github.Client) {
	t.Helper()

	f := &fakeGitHub{mux: http.NewServeMux()}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	client := github.NewClient("token", testOwner, testRepo,
		github.WithAPIURL(server.URL),
		github.WithGraphQLURL(server.URL+"/graphql"),
		github.WithHTTPClient(server.Client()),
	)
	return f, client
}

func (f *fakeGitHub) handle(pattern string, h http.HandlerFunc) {
	f.mux.HandleFunc(pattern, h)
}

func (f *fakeGitHub) count(request string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == request {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("read body: %v", err)
		return nil
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Errorf("decode body %q: %v", data, err)
		return nil
	}
	return body
}
