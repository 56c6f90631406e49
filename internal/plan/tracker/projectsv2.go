package tracker

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/WomB0ComB0/git-project-management/internal/errors"
	"github.com/WomB0ComB0/git-project-management/internal/github"
	"github.com/WomB0ComB0/git-project-management/internal/logging"
)

// ProjectsV2Board implements Board for GitHub Projects (v2) over GraphQL.
type ProjectsV2Board struct {
	api       API
	ownerType string
	number    int
	logger    *logging.Logger
}

// NewProjectsV2Board creates a ProjectsV2 backend. ownerType selects the
// user or organization namespace for lookups. When number is positive,
// FindBoard checks that project number before searching by title.
func NewProjectsV2Board(api API, ownerType string, number int, logger *logging.Logger) *ProjectsV2Board {
	if ownerType == "" {
		ownerType = OwnerUser
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &ProjectsV2Board{
		api:       api,
		ownerType: ownerType,
		number:    number,
		logger:    logger,
	}
}

// Kind implements Board.
func (b *ProjectsV2Board) Kind() string { return BoardProjectsV2 }

type projectV2Node struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

func (n *projectV2Node) ref() *BoardRef {
	return &BoardRef{ID: n.ID, Number: n.Number, Title: n.Title, URL: n.URL}
}

// ownerField returns the GraphQL root field for the configured owner type.
func (b *ProjectsV2Board) ownerField() string {
	if b.ownerType == OwnerOrganization {
		return "organization"
	}
	return "user"
}

// FindBoard looks the project up by its configured number first. When no
// number is configured, or that project carries a different title, it
// searches the owner's first 100 projects by title. GraphQL errors (for
// example an unknown project number) are logged and reported as absent.
func (b *ProjectsV2Board) FindBoard(ctx context.Context, title string) (*BoardRef, error) {
	if b.number > 0 {
		node, err := b.findByNumber(ctx)
		if err != nil && !b.absent(err, title) {
			return nil, classifyError(err, "find project")
		}
		if node != nil && node.Title == title {
			return node.ref(), nil
		}
		b.logger.Debug("project number does not match, searching by title",
			"project", title, "number", b.number)
	}

	nodes, err := b.listProjects(ctx)
	if err != nil {
		if b.absent(err, title) {
			return nil, nil
		}
		return nil, classifyError(err, "find project")
	}
	for i := range nodes {
		if nodes[i].Title == title {
			return nodes[i].ref(), nil
		}
	}
	return nil, nil
}

// absent reports whether a lookup error means "no such project". GraphQL
// errors do; transport errors do not.
func (b *ProjectsV2Board) absent(err error, title string) bool {
	var gqlErr *github.GraphQLError
	if errors.As(err, &gqlErr) {
		b.logger.Warn("project lookup returned errors, treating as absent", "project", title, "error", err)
		return true
	}
	return false
}

func (b *ProjectsV2Board) findByNumber(ctx context.Context) (*projectV2Node, error) {
	query := fmt.Sprintf(`query($login: String!, $number: Int!) {
  owner: %s(login: $login) {
    projectV2(number: $number) { id number title url }
  }
}`, b.ownerField())

	var out struct {
		Owner *struct {
			ProjectV2 *projectV2Node `json:"projectV2"`
		} `json:"owner"`
	}
	vars := map[string]any{"login": b.api.Owner(), "number": b.number}
	if err := b.api.GraphQL(ctx, query, vars, &out); err != nil {
		return nil, err
	}
	if out.Owner == nil {
		return nil, nil
	}
	return out.Owner.ProjectV2, nil
}

func (b *ProjectsV2Board) listProjects(ctx context.Context) ([]projectV2Node, error) {
	query := fmt.Sprintf(`query($login: String!) {
  owner: %s(login: $login) {
    projectsV2(first: 100) { nodes { id number title url } }
  }
}`, b.ownerField())

	var out struct {
		Owner *struct {
			ProjectsV2 struct {
				Nodes []projectV2Node `json:"nodes"`
			} `json:"projectsV2"`
		} `json:"owner"`
	}
	if err := b.api.GraphQL(ctx, query, map[string]any{"login": b.api.Owner()}, &out); err != nil {
		return nil, err
	}
	if out.Owner == nil {
		return nil, nil
	}
	return out.Owner.ProjectsV2.Nodes, nil
}

const createProjectV2Mutation = `mutation($input: CreateProjectV2Input!) {
  createProjectV2(input: $input) {
    projectV2 { id number title url }
  }
}`

const updateProjectV2Mutation = `mutation($input: UpdateProjectV2Input!) {
  updateProjectV2(input: $input) {
    projectV2 { id }
  }
}`

// CreateBoard creates a project owned by the repository owner and linked to
// the repository. The body, if any, becomes the project's short description.
func (b *ProjectsV2Board) CreateBoard(ctx context.Context, opts BoardOptions) (*BoardRef, error) {
	ownerID, err := b.ownerNodeID(ctx)
	if err != nil {
		return nil, err
	}

	repo, err := b.api.Repository(ctx)
	if err != nil {
		return nil, classifyError(err, "get repository node id")
	}

	input := map[string]any{
		"ownerId": ownerID,
		"title":   opts.Title,
	}
	if id := repo.GetNodeID(); id != "" {
		input["repositoryId"] = id
	}

	var out struct {
		CreateProjectV2 *struct {
			ProjectV2 *projectV2Node `json:"projectV2"`
		} `json:"createProjectV2"`
	}
	if err := b.api.GraphQL(ctx, createProjectV2Mutation, map[string]any{"input": input}, &out); err != nil {
		b.logger.Error("graphql error creating project", "project", opts.Title, "error", err)
		return nil, classifyError(err, "create project")
	}
	if out.CreateProjectV2 == nil || out.CreateProjectV2.ProjectV2 == nil || out.CreateProjectV2.ProjectV2.ID == "" {
		return nil, fmt.Errorf("create project: %w: createProjectV2.projectV2", ErrMissingPayload)
	}

	board := out.CreateProjectV2.ProjectV2.ref()
	if board.Title == "" {
		board.Title = opts.Title
	}

	if opts.Body != "" {
		update := map[string]any{"input": map[string]any{
			"projectId":        board.ID,
			"shortDescription": opts.Body,
		}}
		if err := b.api.GraphQL(ctx, updateProjectV2Mutation, update, nil); err != nil {
			b.logger.Warn("failed to set project description", "project", opts.Title, "error", err)
		}
	}

	b.logger.Info("created project", "project", board.Title, "url", board.URL)
	return board, nil
}

func (b *ProjectsV2Board) ownerNodeID(ctx context.Context) (string, error) {
	login := b.api.Owner()

	var (
		nodeID string
		err    error
	)
	if b.ownerType == OwnerOrganization {
		org, orgErr := b.api.Organization(ctx, login)
		nodeID, err = org.GetNodeID(), orgErr
	} else {
		user, userErr := b.api.User(ctx, login)
		nodeID, err = user.GetNodeID(), userErr
	}
	if err != nil {
		if github.IsNotFound(err) {
			return "", apperrors.NewNotFoundError(b.ownerType, login).WithCause(err)
		}
		return "", classifyError(err, "get owner node id")
	}
	if nodeID == "" {
		return "", fmt.Errorf("get owner node id: %w: node_id", ErrMissingPayload)
	}
	return nodeID, nil
}

const addProjectV2ItemMutation = `mutation($projectId: ID!, $contentId: ID!) {
  addProjectV2ItemById(input: {projectId: $projectId, contentId: $contentId}) {
    item { id }
  }
}`

// AddIssue adds the issue to the project by node ID.
func (b *ProjectsV2Board) AddIssue(ctx context.Context, board BoardRef, issue IssueRef) error {
	if board.ID == "" || issue.ID == "" {
		return fmt.Errorf("add issue to project: project and issue node ids are required")
	}

	vars := map[string]any{"projectId": board.ID, "contentId": issue.ID}
	if err := b.api.GraphQL(ctx, addProjectV2ItemMutation, vars, nil); err != nil {
		return classifyError(err, "failed to add issue to project")
	}
	return nil
}

// Ensure ProjectsV2Board implements Board
var _ Board = (*ProjectsV2Board)(nil)
