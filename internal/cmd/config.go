package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/WomB0ComB0/git-project-management/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify gpm configuration",
	Long: `View or modify gpm configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  gpm config set github.owner octo
  gpm config set github.board classic
  gpm config set provision.max_concurrency 4

Valid keys:
  github.owner               - Repository owner login
  github.repo                - Repository name
  github.board               - Board backend
                               Options: v2, classic
  github.owner_type          - ProjectsV2 owner namespace
                               Options: user, organization
  github.project_number      - ProjectsV2 number to check first (0 = search by title)
  plan.file                  - Default plan file
  provision.max_concurrency  - Max concurrent milestone requests (0 = one per week)
  provision.fail_on_task_error - Exit non-zero when a task fails (true/false)
  logging.level              - debug, info, warn, error
  logging.dir                - Directory for provision.log (empty = stderr)

The token is never written to the config file; use GITHUB_TOKEN.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/gpm/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(w)

	// GitHub settings
	fmt.Fprintln(w, "github:")
	fmt.Fprintf(w, "  token: %s\n", cfg.GitHub.RedactedToken())
	fmt.Fprintf(w, "  owner: %s\n", cfg.GitHub.Owner)
	fmt.Fprintf(w, "  repo: %s\n", cfg.GitHub.Repo)
	fmt.Fprintf(w, "  api_url: %s\n", cfg.GitHub.APIURL)
	fmt.Fprintf(w, "  graphql_url: %s\n", cfg.GitHub.GraphQLURL)
	fmt.Fprintf(w, "  board: %s\n", cfg.GitHub.Board)
	fmt.Fprintf(w, "  owner_type: %s\n", cfg.GitHub.OwnerType)
	fmt.Fprintf(w, "  project_number: %d\n", cfg.GitHub.ProjectNumber)
	fmt.Fprintf(w, "  timeout: %s\n", cfg.GitHub.Timeout)

	// Plan settings
	fmt.Fprintln(w, "plan:")
	fmt.Fprintf(w, "  file: %s\n", cfg.Plan.File)

	// Issue settings
	fmt.Fprintln(w, "issue:")
	fmt.Fprintf(w, "  labels: [%s]\n", strings.Join(cfg.Issue.Labels, ", "))
	if cfg.Issue.Template != "" {
		fmt.Fprintln(w, "  template: (custom)")
	} else {
		fmt.Fprintln(w, "  template: (default)")
	}

	// Provision settings
	fmt.Fprintln(w, "provision:")
	fmt.Fprintf(w, "  max_concurrency: %d\n", cfg.Provision.MaxConcurrency)
	fmt.Fprintf(w, "  fail_on_task_error: %v\n", cfg.Provision.FailOnTaskError)

	// Logging settings
	fmt.Fprintln(w, "logging:")
	fmt.Fprintf(w, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  dir: %s\n", cfg.Logging.Dir)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Validate the key exists
	validKeys := map[string]string{
		"github.owner":                 "string",
		"github.repo":                  "string",
		"github.board":                 "string",
		"github.owner_type":            "string",
		"github.project_number":        "int",
		"plan.file":                    "string",
		"provision.max_concurrency":    "int",
		"provision.fail_on_task_error": "bool",
		"logging.level":                "string",
		"logging.dir":                  "string",
	}

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'gpm config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue any
	switch keyType {
	case "string":
		typedValue = value
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	}

	// Set the value in viper, then check the resulting config as a whole
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write only the file's own settings so values from the environment
	// (the token in particular) never end up on disk
	configFile := config.ConfigFile()
	fileConfig := viper.New()
	fileConfig.SetConfigFile(configFile)
	if _, err := os.Stat(configFile); err == nil {
		if err := fileConfig.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	fileConfig.Set(key, typedValue)
	if err := fileConfig.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)

	return nil
}

// defaultConfigContent is written by 'gpm config init'.
const defaultConfigContent = `# gpm configuration

github:
  # Repository to provision. REPO_OWNER and REPO_NAME also work.
  owner: ""
  repo: ""
  # The token is read from GPM_GITHUB_TOKEN or GITHUB_TOKEN.
  # GitHub Enterprise: point both URLs at your instance.
  api_url: https://api.github.com
  graphql_url: https://api.github.com/graphql
  # Board backend
  # Options: v2 (Projects), classic (repository projects)
  board: v2
  # ProjectsV2 owner namespace
  # Options: user, organization
  owner_type: user
  # ProjectsV2 number checked for an existing board; 0 searches by title
  project_number: 1
  # Per-request timeout
  timeout: 30s

plan:
  # Plan document (.yaml, .json or .toml)
  file: plan.yaml

issue:
  # Labels added to every issue after the difficulty label
  labels: []
  # Go text/template for issue bodies. Fields: .Week .Goal .Title
  # .Branch .Difficulty .Assignee .CommitType. Empty uses the default body.
  template: ""

provision:
  # Max concurrent milestone requests (0 = one per week)
  max_concurrency: 0
  # Exit non-zero when any task fails
  fail_on_task_error: false

logging:
  # Options: debug, info, warn, error
  level: info
  # Directory for provision.log; empty logs JSON to stderr
  dir: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'gpm config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	fmt.Fprintln(cmd.OutOrStdout(), "Edit this file to set the repository to provision.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(w, "\nSearch paths:")
	fmt.Fprintf(w, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(w, "  2. $HOME/.config/gpm/config.yaml\n")
	fmt.Fprintf(w, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(w, "\nEnvironment variables: GPM_* (e.g., GPM_GITHUB_BOARD)")
	fmt.Fprintln(w, "Also read: GITHUB_TOKEN, GITHUB_TOKEN_D/M/R, REPO_OWNER, REPO_NAME")

	return nil
}
