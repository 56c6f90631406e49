package provision

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WomB0ComB0/git-project-management/internal/plan/tracker"
)

// fakeRepo is an in-memory tracker.Repository that keeps state across runs.
type fakeRepo struct {
	mu sync.Mutex

	milestones []tracker.Milestone
	branches   map[string]string
	issues     []tracker.IssueOptions

	// Failure injection, keyed by milestone title or branch name.
	failMilestone map[string]error
	failBranch    map[string]error
	failIssue     map[string]error
	baseErr       error

	// staleFind hides branches from FindBranch, as when another run creates
	// the ref between the lookup and the create.
	staleFind bool

	// milestoneDelay delays CreateMilestone per title.
	milestoneDelay map[string]time.Duration

	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		branches:       make(map[string]string),
		failMilestone:  make(map[string]error),
		failBranch:     make(map[string]error),
		failIssue:      make(map[string]error),
		milestoneDelay: make(map[string]time.Duration),
	}
}

func (f *fakeRepo) FindMilestone(_ context.Context, title string) (*tracker.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.milestones {
		if f.milestones[i].Title == title {
			m := f.milestones[i]
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) CreateMilestone(ctx context.Context, opts tracker.MilestoneOptions) (*tracker.Milestone, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	delay := f.milestoneDelay[opts.Title]
	failErr := f.failMilestone[opts.Title]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failErr != nil {
		return nil, failErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	m := tracker.Milestone{
		Number:      len(f.milestones) + 1,
		Title:       opts.Title,
		Description: opts.Description,
		DueOn:       opts.DueOn,
	}
	f.milestones = append(f.milestones, m)
	return &m, nil
}

func (f *fakeRepo) milestoneByTitle(title string) *tracker.Milestone {
	m, _ := f.FindMilestone(context.Background(), title)
	return m
}

func (f *fakeRepo) FindBranch(_ context.Context, name string) (*tracker.Branch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sha, ok := f.branches[name]
	if !ok || f.staleFind {
		return nil, nil
	}
	return &tracker.Branch{Name: name, Ref: "refs/heads/" + name, SHA: sha}, nil
}

func (f *fakeRepo) CreateBranch(_ context.Context, name, sha string) (*tracker.Branch, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failBranch[name]; err != nil {
		return nil, false, err
	}
	if existing, ok := f.branches[name]; ok {
		return &tracker.Branch{Name: name, Ref: "refs/heads/" + name, SHA: existing}, false, nil
	}
	f.branches[name] = sha
	return &tracker.Branch{Name: name, Ref: "refs/heads/" + name, SHA: sha}, true, nil
}

func (f *fakeRepo) BaseCommit(context.Context) (string, error) {
	if f.baseErr != nil {
		return "", f.baseErr
	}
	return "base-sha", nil
}

func (f *fakeRepo) CreateIssue(_ context.Context, opts tracker.IssueOptions) (tracker.IssueRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failIssue[opts.Title]; err != nil {
		return tracker.IssueRef{}, err
	}
	f.issues = append(f.issues, opts)
	n := len(f.issues)
	return tracker.IssueRef{
		ID:         fmt.Sprintf("I_%d", n),
		DatabaseID: int64(1000 + n),
		Number:     n,
		URL:        fmt.Sprintf("https://github.com/octo/hello/issues/%d", n),
	}, nil
}

func (f *fakeRepo) issueTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := make([]string, len(f.issues))
	for i, is := range f.issues {
		titles[i] = is.Title
	}
	return titles
}

// fakeBoard is an in-memory tracker.Board.
type fakeBoard struct {
	mu sync.Mutex

	boards []tracker.BoardRef
	items  map[string][]string

	findErr   error
	createErr error
	emptyID   bool
	failLink  map[string]error
}

func newFakeBoard() *fakeBoard {
	return &fakeBoard{
		items:    make(map[string][]string),
		failLink: make(map[string]error),
	}
}

func (b *fakeBoard) Kind() string { return "fake" }

func (b *fakeBoard) FindBoard(_ context.Context, title string) (*tracker.BoardRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.findErr != nil {
		return nil, b.findErr
	}
	for i := range b.boards {
		if b.boards[i].Title == title {
			ref := b.boards[i]
			return &ref, nil
		}
	}
	return nil, nil
}

func (b *fakeBoard) CreateBoard(_ context.Context, opts tracker.BoardOptions) (*tracker.BoardRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.createErr != nil {
		return nil, b.createErr
	}
	ref := tracker.BoardRef{
		ID:     fmt.Sprintf("PVT_%d", len(b.boards)+1),
		Number: len(b.boards) + 1,
		Title:  opts.Title,
	}
	if b.emptyID {
		ref.ID = ""
	}
	b.boards = append(b.boards, ref)
	return &ref, nil
}

func (b *fakeBoard) AddIssue(_ context.Context, board tracker.BoardRef, issue tracker.IssueRef) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.failLink[issue.ID]; err != nil {
		return err
	}
	if board.ID == "" {
		return errors.New("no board")
	}
	b.items[board.ID] = append(b.items[board.ID], issue.ID)
	return nil
}

var (
	_ tracker.Repository = (*fakeRepo)(nil)
	_ tracker.Board      = (*fakeBoard)(nil)
)
