package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/WomB0ComB0/git-project-management/internal/logging"
	"github.com/WomB0ComB0/git-project-management/internal/plan"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "github.board")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errors found.
// Credentials are not required here; see ValidateRemote.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate GitHub config
	errors = append(errors, c.validateGitHub()...)

	// Validate Issue config
	errors = append(errors, c.validateIssue()...)

	// Validate Provision config
	errors = append(errors, c.validateProvision()...)

	// Validate Logging config
	errors = append(errors, c.validateLogging()...)

	return errors
}

// ValidateRemote checks the settings needed to talk to GitHub. There are
// no placeholder fallbacks: a missing token, owner or repo is an error.
func (c *Config) ValidateRemote() []ValidationError {
	var errors []ValidationError

	if c.GitHub.Token == "" {
		errors = append(errors, ValidationError{
			Field:   "github.token",
			Value:   "",
			Message: "is required (set GPM_GITHUB_TOKEN or GITHUB_TOKEN)",
		})
	}
	if c.GitHub.Owner == "" {
		errors = append(errors, ValidationError{
			Field:   "github.owner",
			Value:   "",
			Message: "is required (set GPM_GITHUB_OWNER or REPO_OWNER)",
		})
	}
	if c.GitHub.Repo == "" {
		errors = append(errors, ValidationError{
			Field:   "github.repo",
			Value:   "",
			Message: "is required (set GPM_GITHUB_REPO or REPO_NAME)",
		})
	}

	return errors
}

// validateGitHub validates the GitHubConfig
func (c *Config) validateGitHub() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidBoards(), c.GitHub.Board) {
		errors = append(errors, ValidationError{
			Field:   "github.board",
			Value:   c.GitHub.Board,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBoards(), ", ")),
		})
	}

	if !slices.Contains(ValidOwnerTypes(), c.GitHub.OwnerType) {
		errors = append(errors, ValidationError{
			Field:   "github.owner_type",
			Value:   c.GitHub.OwnerType,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidOwnerTypes(), ", ")),
		})
	}

	if c.GitHub.ProjectNumber < 0 {
		errors = append(errors, ValidationError{
			Field:   "github.project_number",
			Value:   c.GitHub.ProjectNumber,
			Message: "must be non-negative (0 searches by title)",
		})
	}

	if c.GitHub.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "github.timeout",
			Value:   c.GitHub.Timeout,
			Message: "must be positive",
		})
	}

	errors = append(errors, validateURL("github.api_url", c.GitHub.APIURL)...)
	errors = append(errors, validateURL("github.graphql_url", c.GitHub.GraphQLURL)...)

	return errors
}

func validateURL(field, raw string) []ValidationError {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return []ValidationError{{
			Field:   field,
			Value:   raw,
			Message: "must be an absolute http(s) URL",
		}}
	}
	return nil
}

// validateIssue validates the IssueConfig
func (c *Config) validateIssue() []ValidationError {
	var errors []ValidationError

	for i, label := range c.Issue.Labels {
		if strings.TrimSpace(label) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("issue.labels[%d]", i),
				Value:   label,
				Message: "label cannot be empty",
			})
		}
	}

	if _, err := plan.NewBodyRenderer(c.Issue.Template); err != nil {
		errors = append(errors, ValidationError{
			Field:   "issue.template",
			Value:   c.Issue.Template,
			Message: err.Error(),
		})
	}

	return errors
}

// validateProvision validates the ProvisionConfig
func (c *Config) validateProvision() []ValidationError {
	var errors []ValidationError

	if c.Provision.MaxConcurrency < 0 {
		errors = append(errors, ValidationError{
			Field:   "provision.max_concurrency",
			Value:   c.Provision.MaxConcurrency,
			Message: "must be non-negative (0 means one request per week)",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(logging.ValidLevels(), ", ")),
		})
	}

	return errors
}
