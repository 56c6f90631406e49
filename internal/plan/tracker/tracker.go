// Package tracker reconciles plan entities with remote GitHub state.
// It defines the Repository operations (milestones, branches, issues) and
// the Board interface that lets provisioning target either a ProjectsV2
// board over GraphQL or a classic board over REST.
package tracker

import (
	"context"

	gh "github.com/google/go-github/v66/github"
)

// API is the subset of the GitHub client the tracker needs.
// *github.Client satisfies it.
type API interface {
	Owner() string
	Repo() string
	RepoPath(parts ...string) string

	// Get and Post reach endpoints without a typed wrapper (classic projects).
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	GraphQL(ctx context.Context, query string, vars map[string]any, out any) error

	Repository(ctx context.Context) (*gh.Repository, error)
	User(ctx context.Context, login string) (*gh.User, error)
	Organization(ctx context.Context, login string) (*gh.Organization, error)
	ListMilestones(ctx context.Context, page, perPage int) ([]*gh.Milestone, error)
	CreateMilestone(ctx context.Context, m *gh.Milestone) (*gh.Milestone, error)
	GetBranchRef(ctx context.Context, name string) (*gh.Reference, error)
	CreateBranchRef(ctx context.Context, name, sha string) (*gh.Reference, error)
	CreateIssue(ctx context.Context, req *gh.IssueRequest) (*gh.Issue, error)
}

// BoardRef identifies a project board.
type BoardRef struct {
	// ID is the GraphQL node ID for ProjectsV2 boards and the numeric REST
	// id, rendered as a string, for classic boards.
	ID string

	// Number is the board number shown in its URL.
	Number int

	Title string
	URL   string
}

// BoardOptions contains the parameters for creating a board.
type BoardOptions struct {
	Title string
	Body  string
}

// Milestone is a repository milestone.
type Milestone struct {
	Number      int
	Title       string
	Description string

	// DueOn is an RFC 3339 timestamp, empty when the milestone has none.
	DueOn string

	URL string
}

// MilestoneOptions contains the parameters for creating a milestone.
type MilestoneOptions struct {
	Title       string
	Description string

	// DueOn is an RFC 3339 timestamp. Empty means no due date.
	DueOn string
}

// Branch is a git branch head.
type Branch struct {
	Name string
	Ref  string
	SHA  string
}

// RepoInfo holds the repository fields provisioning depends on.
type RepoInfo struct {
	NodeID        string
	FullName      string
	DefaultBranch string
}

// IssueRef is a reference to a created issue.
type IssueRef struct {
	// ID is the GraphQL node ID (e.g., "I_kwDOA...").
	ID string

	// DatabaseID is the numeric REST id, used by classic project cards.
	DatabaseID int64

	Number int
	URL    string
}

// IssueOptions contains the parameters for creating an issue.
type IssueOptions struct {
	Title     string
	Body      string
	Labels    []string
	Assignees []string

	// Milestone is the milestone number. Zero leaves the issue without one.
	Milestone int
}

// Repository defines the repository-scoped operations used by provisioning.
type Repository interface {
	// FindMilestone returns the milestone with an exactly matching title,
	// or nil when none exists.
	FindMilestone(ctx context.Context, title string) (*Milestone, error)

	// CreateMilestone creates a milestone. A conflicting title resolves to
	// the existing milestone.
	CreateMilestone(ctx context.Context, opts MilestoneOptions) (*Milestone, error)

	// FindBranch returns the named branch, or nil when it does not exist.
	FindBranch(ctx context.Context, name string) (*Branch, error)

	// CreateBranch creates a branch at sha. When the branch already exists
	// it is returned as is and created is false.
	CreateBranch(ctx context.Context, name, sha string) (branch *Branch, created bool, err error)

	// BaseCommit resolves the head SHA of the default branch.
	BaseCommit(ctx context.Context) (string, error)

	// CreateIssue creates an issue. Issues are never deduplicated.
	CreateIssue(ctx context.Context, opts IssueOptions) (IssueRef, error)
}

// Board is a project board backend.
type Board interface {
	// Kind names the backend ("v2" or "classic").
	Kind() string

	// FindBoard returns the board whose title equals title, or nil.
	FindBoard(ctx context.Context, title string) (*BoardRef, error)

	// CreateBoard creates a new board.
	CreateBoard(ctx context.Context, opts BoardOptions) (*BoardRef, error)

	// AddIssue places an issue on the board.
	AddIssue(ctx context.Context, board BoardRef, issue IssueRef) error
}

// Board kinds accepted by NewBoard.
const (
	BoardProjectsV2 = "v2"
	BoardClassic    = "classic"
)

// Owner types for ProjectsV2 lookups.
const (
	OwnerUser         = "user"
	OwnerOrganization = "organization"
)
