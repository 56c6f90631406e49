package github

import (
	"context"

	gh "github.com/google/go-github/v66/github"
)

// Repository fetches the configured repository.
func (c *Client) Repository(ctx context.Context) (*gh.Repository, error) {
	repo, _, err := c.rest.Repositories.Get(ctx, c.owner, c.repo)
	return repo, wrapError(err)
}

// User fetches a user account by login.
func (c *Client) User(ctx context.Context, login string) (*gh.User, error) {
	user, _, err := c.rest.Users.Get(ctx, login)
	return user, wrapError(err)
}

// Organization fetches an organization by login.
func (c *Client) Organization(ctx context.Context, login string) (*gh.Organization, error) {
	org, _, err := c.rest.Organizations.Get(ctx, login)
	return org, wrapError(err)
}

// ListMilestones returns one page of milestones in every state.
func (c *Client) ListMilestones(ctx context.Context, page, perPage int) ([]*gh.Milestone, error) {
	opts := &gh.MilestoneListOptions{
		State:       "all",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}
	milestones, _, err := c.rest.Issues.ListMilestones(ctx, c.owner, c.repo, opts)
	return milestones, wrapError(err)
}

// CreateMilestone creates a milestone.
func (c *Client) CreateMilestone(ctx context.Context, m *gh.Milestone) (*gh.Milestone, error) {
	created, _, err := c.rest.Issues.CreateMilestone(ctx, c.owner, c.repo, m)
	return created, wrapError(err)
}

// GetBranchRef fetches refs/heads/<name>.
func (c *Client) GetBranchRef(ctx context.Context, name string) (*gh.Reference, error) {
	ref, _, err := c.rest.Git.GetRef(ctx, c.owner, c.repo, "heads/"+name)
	return ref, wrapError(err)
}

// CreateBranchRef creates refs/heads/<name> pointing at sha.
func (c *Client) CreateBranchRef(ctx context.Context, name, sha string) (*gh.Reference, error) {
	ref, _, err := c.rest.Git.CreateRef(ctx, c.owner, c.repo, &gh.Reference{
		Ref:    gh.String("refs/heads/" + name),
		Object: &gh.GitObject{SHA: gh.String(sha)},
	})
	return ref, wrapError(err)
}

// CreateIssue opens an issue.
func (c *Client) CreateIssue(ctx context.Context, req *gh.IssueRequest) (*gh.Issue, error) {
	issue, _, err := c.rest.Issues.Create(ctx, c.owner, c.repo, req)
	return issue, wrapError(err)
}
