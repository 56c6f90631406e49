package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/WomB0ComB0/git-project-management/internal/errors"
	"github.com/WomB0ComB0/git-project-management/internal/github"
	"github.com/WomB0ComB0/git-project-management/internal/logging"
	gh "github.com/google/go-github/v66/github"
)

// milestonePageSize is the largest page GitHub serves for list endpoints.
const milestonePageSize = 100

// GitHubTracker implements Repository against the GitHub REST API.
type GitHubTracker struct {
	api    API
	logger *logging.Logger
}

// NewGitHubTracker creates a GitHubTracker. A nil logger discards output.
func NewGitHubTracker(api API, logger *logging.Logger) *GitHubTracker {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &GitHubTracker{
		api:    api,
		logger: logger,
	}
}

// Repository fetches the repository metadata.
func (g *GitHubTracker) Repository(ctx context.Context) (*RepoInfo, error) {
	repo, err := g.api.Repository(ctx)
	if err != nil {
		return nil, classifyError(err, "get repository")
	}
	return &RepoInfo{
		NodeID:        repo.GetNodeID(),
		FullName:      repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
	}, nil
}

// DefaultBranch returns the repository's default branch name.
func (g *GitHubTracker) DefaultBranch(ctx context.Context) (string, error) {
	info, err := g.Repository(ctx)
	if err != nil {
		return "", err
	}
	if info.DefaultBranch == "" {
		return "", fmt.Errorf("get repository: %w: default_branch", ErrMissingPayload)
	}
	return info.DefaultBranch, nil
}

// BaseCommit resolves default branch -> its ref -> the object SHA.
func (g *GitHubTracker) BaseCommit(ctx context.Context) (string, error) {
	name, err := g.DefaultBranch(ctx)
	if err != nil {
		return "", err
	}

	branch, err := g.FindBranch(ctx, name)
	if err != nil {
		return "", err
	}
	if branch == nil {
		return "", apperrors.NewNotFoundError("default branch", name)
	}
	if branch.SHA == "" {
		return "", fmt.Errorf("resolve %s: %w: object.sha", name, ErrMissingPayload)
	}
	return branch.SHA, nil
}

// ListMilestones returns every milestone, open and closed.
func (g *GitHubTracker) ListMilestones(ctx context.Context) ([]Milestone, error) {
	var all []Milestone
	for page := 1; ; page++ {
		batch, err := g.api.ListMilestones(ctx, page, milestonePageSize)
		if err != nil {
			return nil, classifyError(err, "list milestones")
		}
		for _, m := range batch {
			all = append(all, milestoneFrom(m))
		}

		if len(batch) < milestonePageSize {
			return all, nil
		}
	}
}

func milestoneFrom(m *gh.Milestone) Milestone {
	ms := Milestone{
		Number:      m.GetNumber(),
		Title:       m.GetTitle(),
		Description: m.GetDescription(),
		URL:         m.GetHTMLURL(),
	}
	if m.DueOn != nil {
		ms.DueOn = m.DueOn.UTC().Format(time.RFC3339)
	}
	return ms
}

// FindMilestone returns the first milestone titled title. A failed listing
// is logged and reported as absent so that creation can still be attempted.
func (g *GitHubTracker) FindMilestone(ctx context.Context, title string) (*Milestone, error) {
	milestones, err := g.ListMilestones(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		g.logger.Warn("failed to check existing milestone", "milestone", title, "error", err)
		return nil, nil
	}
	return findMilestone(milestones, title), nil
}

func findMilestone(milestones []Milestone, title string) *Milestone {
	for i := range milestones {
		if milestones[i].Title == title {
			return &milestones[i]
		}
	}
	return nil
}

// CreateMilestone creates a milestone. When GitHub rejects the title as a
// duplicate, the existing milestone is looked up and returned instead.
func (g *GitHubTracker) CreateMilestone(ctx context.Context, opts MilestoneOptions) (*Milestone, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("milestone title is required")
	}

	req := &gh.Milestone{
		Title:       gh.String(opts.Title),
		Description: gh.String(opts.Description),
	}
	if opts.DueOn != "" {
		due, err := time.Parse(time.RFC3339, opts.DueOn)
		if err != nil {
			return nil, fmt.Errorf("milestone %q due date: %w", opts.Title, err)
		}
		req.DueOn = &gh.Timestamp{Time: due}
	}

	created, err := g.api.CreateMilestone(ctx, req)
	if err == nil {
		m := milestoneFrom(created)
		return &m, nil
	}

	if github.IsConflict(err) {
		milestones, listErr := g.ListMilestones(ctx)
		if listErr == nil {
			if existing := findMilestone(milestones, opts.Title); existing != nil {
				g.logger.Info("using existing milestone", "milestone", opts.Title, "number", existing.Number)
				return existing, nil
			}
		}
		g.logResponseError("milestone conflict without a listed match", err, "milestone", opts.Title)
		return nil, apperrors.NewAlreadyExistsError("milestone", opts.Title).WithCause(err)
	}

	g.logResponseError("error creating milestone", err, "milestone", opts.Title)
	return nil, classifyError(err, "create milestone "+strconv.Quote(opts.Title))
}

func branchFrom(name string, ref *gh.Reference) *Branch {
	return &Branch{Name: name, Ref: ref.GetRef(), SHA: ref.GetObject().GetSHA()}
}

// FindBranch looks up refs/heads/<name>. A 404 means the branch does not exist.
func (g *GitHubTracker) FindBranch(ctx context.Context, name string) (*Branch, error) {
	ref, err := g.api.GetBranchRef(ctx, name)
	if err != nil {
		if github.IsNotFound(err) {
			return nil, nil
		}
		return nil, classifyError(err, "get branch "+strconv.Quote(name))
	}
	return branchFrom(name, ref), nil
}

// CreateBranch creates refs/heads/<name> pointing at sha. If the ref
// already exists the existing branch is returned with created false.
func (g *GitHubTracker) CreateBranch(ctx context.Context, name, sha string) (*Branch, bool, error) {
	if name == "" || sha == "" {
		return nil, false, fmt.Errorf("branch name and sha are required")
	}

	ref, err := g.api.CreateBranchRef(ctx, name, sha)
	if err == nil {
		g.logger.Info("created branch", "branch", name)
		return branchFrom(name, ref), true, nil
	}

	if github.IsConflict(err) {
		g.logger.Info("branch already exists", "branch", name)
		existing, findErr := g.FindBranch(ctx, name)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing != nil {
			return existing, false, nil
		}
		g.logResponseError("branch conflict without a readable ref", err, "branch", name)
		return nil, false, apperrors.NewAlreadyExistsError("branch", name).WithCause(err)
	}

	g.logResponseError("error creating branch", err, "branch", name)
	return nil, false, classifyError(err, "create branch "+strconv.Quote(name))
}

// CreateIssue creates an issue. It is not deduplicated: running the same
// plan twice opens the issue twice.
func (g *GitHubTracker) CreateIssue(ctx context.Context, opts IssueOptions) (IssueRef, error) {
	if opts.Title == "" {
		return IssueRef{}, fmt.Errorf("issue title is required")
	}

	req := &gh.IssueRequest{
		Title: gh.String(opts.Title),
		Body:  gh.String(opts.Body),
	}
	if len(opts.Labels) > 0 {
		labels := opts.Labels
		req.Labels = &labels
	}
	if len(opts.Assignees) > 0 {
		assignees := opts.Assignees
		req.Assignees = &assignees
	}
	if opts.Milestone > 0 {
		req.Milestone = gh.Int(opts.Milestone)
	}

	issue, err := g.api.CreateIssue(ctx, req)
	if err != nil {
		g.logResponseError("error creating issue", err, "title", opts.Title)
		return IssueRef{}, classifyError(err, "create issue")
	}
	ref := IssueRef{
		ID:         issue.GetNodeID(),
		DatabaseID: issue.GetID(),
		Number:     issue.GetNumber(),
		URL:        issue.GetHTMLURL(),
	}
	if ref.ID == "" {
		return IssueRef{Number: ref.Number, URL: ref.URL}, fmt.Errorf("create issue: %w: node_id", ErrMissingPayload)
	}

	g.logger.Info("issue created", "number", ref.Number, "url", ref.URL)
	return ref, nil
}

// logResponseError logs the response metadata of a failed request.
func (g *GitHubTracker) logResponseError(msg string, err error, args ...any) {
	logResponseError(g.logger, msg, err, args...)
}

func logResponseError(logger *logging.Logger, msg string, err error, args ...any) {
	args = append(args, "error", err)
	var respErr *github.ResponseError
	if errors.As(err, &respErr) {
		args = append(args, respErr.LogAttrs()...)
	}
	logger.Error(msg, args...)
}

// Ensure GitHubTracker implements Repository
var _ Repository = (*GitHubTracker)(nil)
