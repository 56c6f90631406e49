package tracker

import (
	"fmt"

	"github.com/WomB0ComB0/git-project-management/internal/logging"
)

// BoardConfig selects and configures a board backend.
type BoardConfig struct {
	// Kind is BoardProjectsV2 (the default when empty) or BoardClassic.
	Kind string

	// OwnerType and ProjectNumber apply to ProjectsV2 lookups only.
	OwnerType     string
	ProjectNumber int
}

// NewBoard returns the Board backend named by cfg.Kind.
func NewBoard(api API, cfg BoardConfig, logger *logging.Logger) (Board, error) {
	switch cfg.Kind {
	case "", BoardProjectsV2:
		return NewProjectsV2Board(api, cfg.OwnerType, cfg.ProjectNumber, logger), nil
	case BoardClassic:
		return NewClassicBoard(api, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownBoard, cfg.Kind, BoardProjectsV2, BoardClassic)
	}
}
