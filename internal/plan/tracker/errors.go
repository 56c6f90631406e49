package tracker

import (
	"errors"
	"fmt"

	"github.com/WomB0ComB0/git-project-management/internal/github"
)

// Sentinel errors for tracker operations.
var (
	// ErrBoardNotFound indicates that the board or one of its columns does not exist.
	ErrBoardNotFound = errors.New("project board not found")

	// ErrAuthRequired indicates that the token is missing or rejected.
	ErrAuthRequired = errors.New("authentication required")

	// ErrMissingPayload indicates a successful response without the expected object.
	ErrMissingPayload = errors.New("response missing expected payload")

	// ErrUnknownBoard indicates an unsupported board kind.
	ErrUnknownBoard = errors.New("unknown board kind")
)

// classifyError wraps API errors with a sentinel when one applies.
// Errors are wrapped to preserve context while enabling errors.Is() checks.
func classifyError(err error, action string) error {
	if err == nil {
		return nil
	}
	if github.IsUnauthorized(err) {
		return fmt.Errorf("%s: %w: %w", action, ErrAuthRequired, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}
