package tracker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/WomB0ComB0/git-project-management/internal/logging"
)

// DefaultColumnName is the column created on a classic board that has none.
const DefaultColumnName = "To do"

// ClassicBoard implements Board for repository-level classic projects
// over the REST API.
type ClassicBoard struct {
	api    API
	logger *logging.Logger

	// columns caches the first column id per board id.
	columns map[string]int64
}

// NewClassicBoard creates a classic project backend.
func NewClassicBoard(api API, logger *logging.Logger) *ClassicBoard {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &ClassicBoard{
		api:     api,
		logger:  logger,
		columns: make(map[string]int64),
	}
}

// Kind implements Board.
func (b *ClassicBoard) Kind() string { return BoardClassic }

type classicProject struct {
	ID      int64  `json:"id"`
	Number  int    `json:"number"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

func (p *classicProject) ref() *BoardRef {
	return &BoardRef{
		ID:     strconv.FormatInt(p.ID, 10),
		Number: p.Number,
		Title:  p.Name,
		URL:    p.HTMLURL,
	}
}

// FindBoard lists the repository's projects and returns the one named title.
func (b *ClassicBoard) FindBoard(ctx context.Context, title string) (*BoardRef, error) {
	var projects []classicProject
	path := b.api.RepoPath("projects") + "?state=all&per_page=100"
	if err := b.api.Get(ctx, path, &projects); err != nil {
		return nil, classifyError(err, "list projects")
	}

	for i := range projects {
		if projects[i].Name == title {
			return projects[i].ref(), nil
		}
	}
	return nil, nil
}

// CreateBoard creates a repository project.
func (b *ClassicBoard) CreateBoard(ctx context.Context, opts BoardOptions) (*BoardRef, error) {
	body := map[string]string{"name": opts.Title}
	if opts.Body != "" {
		body["body"] = opts.Body
	}

	var created classicProject
	if err := b.api.Post(ctx, b.api.RepoPath("projects"), body, &created); err != nil {
		logResponseError(b.logger, "error creating project", err, "project", opts.Title)
		return nil, classifyError(err, "create project")
	}
	if created.ID == 0 {
		return nil, fmt.Errorf("create project: %w: id", ErrMissingPayload)
	}

	b.logger.Info("created project", "project", created.Name, "url", created.HTMLURL)
	return created.ref(), nil
}

type classicColumn struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AddIssue adds the issue as a card in the board's first column.
func (b *ClassicBoard) AddIssue(ctx context.Context, board BoardRef, issue IssueRef) error {
	if issue.DatabaseID == 0 {
		return fmt.Errorf("add issue to project: issue database id is required")
	}

	columnID, err := b.firstColumn(ctx, board)
	if err != nil {
		return err
	}

	card := map[string]any{
		"content_id":   issue.DatabaseID,
		"content_type": "Issue",
	}
	path := "/projects/columns/" + strconv.FormatInt(columnID, 10) + "/cards"
	if err := b.api.Post(ctx, path, card, nil); err != nil {
		logResponseError(b.logger, "error adding issue card", err, "issue", issue.Number)
		return classifyError(err, "failed to add issue to project")
	}
	return nil
}

// firstColumn returns the id of the board's first column, creating
// DefaultColumnName when the board has no columns.
func (b *ClassicBoard) firstColumn(ctx context.Context, board BoardRef) (int64, error) {
	if board.ID == "" {
		return 0, fmt.Errorf("%w: empty board id", ErrBoardNotFound)
	}
	if id, ok := b.columns[board.ID]; ok {
		return id, nil
	}

	var columns []classicColumn
	if err := b.api.Get(ctx, "/projects/"+board.ID+"/columns", &columns); err != nil {
		return 0, classifyError(err, "list project columns")
	}

	var id int64
	if len(columns) > 0 {
		id = columns[0].ID
	} else {
		var created classicColumn
		if err := b.api.Post(ctx, "/projects/"+board.ID+"/columns", map[string]string{"name": DefaultColumnName}, &created); err != nil {
			return 0, classifyError(err, "create project column")
		}
		if created.ID == 0 {
			return 0, fmt.Errorf("create project column: %w: id", ErrMissingPayload)
		}
		b.logger.Info("created project column", "column", DefaultColumnName)
		id = created.ID
	}

	b.columns[board.ID] = id
	return id, nil
}

// Ensure ClassicBoard implements Board
var _ Board = (*ClassicBoard)(nil)
