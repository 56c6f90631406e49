package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable viper reads automatically,
// e.g. GPM_PROVISION_MAX_CONCURRENCY for provision.max_concurrency.
const EnvPrefix = "GPM"

// Config represents the complete gpm configuration
type Config struct {
	GitHub    GitHubConfig    `mapstructure:"github"`
	Plan      PlanConfig      `mapstructure:"plan"`
	Issue     IssueConfig     `mapstructure:"issue"`
	Provision ProvisionConfig `mapstructure:"provision"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// GitHubConfig controls which repository and board are provisioned and how
// the API is reached
type GitHubConfig struct {
	// Token is the bearer token. Also read from GITHUB_TOKEN and the
	// GITHUB_TOKEN_D/M/R variants.
	Token string `mapstructure:"token"`
	// Owner is the repository owner login (REPO_OWNER)
	Owner string `mapstructure:"owner"`
	// Repo is the repository name (REPO_NAME)
	Repo string `mapstructure:"repo"`
	// APIURL is the REST base URL; override for GitHub Enterprise
	APIURL string `mapstructure:"api_url"`
	// GraphQLURL is the GraphQL endpoint
	GraphQLURL string `mapstructure:"graphql_url"`
	// Board selects the project backend
	// Options: "v2", "classic"
	Board string `mapstructure:"board"`
	// OwnerType is the ProjectsV2 namespace of the owner
	// Options: "user", "organization"
	OwnerType string `mapstructure:"owner_type"`
	// ProjectNumber is the ProjectsV2 number checked for an existing board.
	// 0 searches the owner's projects by title instead.
	ProjectNumber int `mapstructure:"project_number"`
	// Timeout bounds each HTTP request
	Timeout time.Duration `mapstructure:"timeout"`
}

// PlanConfig controls where the plan is read from
type PlanConfig struct {
	// File is the plan document (.yaml, .yml, .json or .toml)
	File string `mapstructure:"file"`
}

// IssueConfig controls issue content
type IssueConfig struct {
	// Labels are added to every issue after the difficulty label
	Labels []string `mapstructure:"labels"`
	// Template is a Go text/template for issue bodies (empty = default body)
	Template string `mapstructure:"template"`
}

// ProvisionConfig controls the provisioning run
type ProvisionConfig struct {
	// MaxConcurrency bounds concurrent milestone requests (0 = one per week)
	MaxConcurrency int `mapstructure:"max_concurrency"`
	// FailOnTaskError makes the command exit non-zero when any task failed
	FailOnTaskError bool `mapstructure:"fail_on_task_error"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Dir is where provision.log is written. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIURL:        "https://api.github.com",
			GraphQLURL:    "https://api.github.com/graphql",
			Board:         "v2",
			OwnerType:     "user",
			ProjectNumber: 1,
			Timeout:       30 * time.Second,
		},
		Plan: PlanConfig{
			File: "plan.yaml",
		},
		Issue: IssueConfig{
			Labels:   []string{},
			Template: "",
		},
		Provision: ProvisionConfig{
			MaxConcurrency:  0,
			FailOnTaskError: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// GitHub defaults
	viper.SetDefault("github.token", defaults.GitHub.Token)
	viper.SetDefault("github.owner", defaults.GitHub.Owner)
	viper.SetDefault("github.repo", defaults.GitHub.Repo)
	viper.SetDefault("github.api_url", defaults.GitHub.APIURL)
	viper.SetDefault("github.graphql_url", defaults.GitHub.GraphQLURL)
	viper.SetDefault("github.board", defaults.GitHub.Board)
	viper.SetDefault("github.owner_type", defaults.GitHub.OwnerType)
	viper.SetDefault("github.project_number", defaults.GitHub.ProjectNumber)
	viper.SetDefault("github.timeout", defaults.GitHub.Timeout)

	// Plan defaults
	viper.SetDefault("plan.file", defaults.Plan.File)

	// Issue defaults
	viper.SetDefault("issue.labels", defaults.Issue.Labels)
	viper.SetDefault("issue.template", defaults.Issue.Template)

	// Provision defaults
	viper.SetDefault("provision.max_concurrency", defaults.Provision.MaxConcurrency)
	viper.SetDefault("provision.fail_on_task_error", defaults.Provision.FailOnTaskError)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
}

// BindEnv binds the legacy environment variables the original provisioning
// scripts used. The first non-empty variable in each list wins.
func BindEnv() {
	_ = viper.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN", "GITHUB_TOKEN_D", "GITHUB_TOKEN_M", "GITHUB_TOKEN_R")
	_ = viper.BindEnv("github.owner", EnvPrefix+"_GITHUB_OWNER", "REPO_OWNER")
	_ = viper.BindEnv("github.repo", EnvPrefix+"_GITHUB_REPO", "REPO_NAME")
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gpm")
	}
	// Fall back to ~/.config/gpm
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gpm"
	}
	return filepath.Join(home, ".config", "gpm")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ValidBoards returns the list of valid board kinds
func ValidBoards() []string {
	return []string{"v2", "classic"}
}

// ValidOwnerTypes returns the list of valid ProjectsV2 owner types
func ValidOwnerTypes() []string {
	return []string{"user", "organization"}
}

// RedactedToken returns the token with all but its last four characters masked
func (c *GitHubConfig) RedactedToken() string {
	if c.Token == "" {
		return "(not set)"
	}
	if len(c.Token) <= 4 {
		return "****"
	}
	return "****" + c.Token[len(c.Token)-4:]
}
