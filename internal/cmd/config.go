package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Iron-Ham/roadmap/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify roadmap configuration",
	Long: `View or modify roadmap configuration.

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
  roadmap config set store.repo acme/app
  roadmap config set dispatch.labels plan,roadmap
  roadmap config set output.description_width 80

Valid keys:
  store.backend                 - Document store (github, file)
  store.repo                    - Default owner/repo for #N references
  store.gh_path                 - gh executable
  store.attempts                - Tries per gh fetch or write on transient failures
  dispatch.repo                 - Repository plan issues are created in
  dispatch.labels               - Comma-separated labels for plan issues
  dispatch.plan_title_prefix    - Plan issue title prefix
  dispatch.limit                - Max steps planned per dispatch (0 = no limit)
  dispatch.dry_run              - Preview dispatch by default (true/false)
  rewrite.collapse_completed    - Collapse finished phases (true/false)
  rewrite.verify_unchanged      - Refuse to overwrite concurrent edits (true/false)
  output.format                 - auto, json, text
  output.color                  - Styled text output (true/false)
  output.description_width      - Truncate descriptions (0 = no limit)
  logging.level                 - debug, info, warn, error
  logging.dir                   - Log directory (empty logs to stderr)
  logging.max_size_mb           - Log size before rotation
  logging.max_backups           - Rotated log files to keep`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/roadmap/config.yaml with all available options.`,
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

// configKeys maps every settable key to its value type.
var configKeys = map[string]string{
	"store.backend":              "string",
	"store.repo":                 "string",
	"store.gh_path":              "string",
	"store.attempts":             "int",
	"dispatch.repo":              "string",
	"dispatch.labels":            "list",
	"dispatch.plan_title_prefix": "string",
	"dispatch.limit":             "int",
	"dispatch.dry_run":           "bool",
	"rewrite.collapse_completed": "bool",
	"rewrite.verify_unchanged":   "bool",
	"output.format":              "string",
	"output.color":               "bool",
	"output.description_width":   "int",
	"logging.level":              "string",
	"logging.dir":                "string",
	"logging.max_size_mb":        "int",
	"logging.max_backups":        "int",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w)

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(w, "Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(w, "Config file: (none - using defaults)\n")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "store:")
	fmt.Fprintf(w, "  backend: %s\n", cfg.Store.Backend)
	fmt.Fprintf(w, "  repo: %s\n", cfg.Store.Repo)
	fmt.Fprintf(w, "  gh_path: %s\n", cfg.Store.GHPath)
	fmt.Fprintf(w, "  attempts: %d\n", cfg.Store.Attempts)

	fmt.Fprintln(w, "dispatch:")
	fmt.Fprintf(w, "  repo: %s\n", cfg.Dispatch.Repo)
	fmt.Fprintf(w, "  labels: [%s]\n", strings.Join(cfg.Dispatch.Labels, ", "))
	fmt.Fprintf(w, "  plan_title_prefix: %s\n", cfg.Dispatch.PlanTitlePrefix)
	fmt.Fprintf(w, "  limit: %d\n", cfg.Dispatch.Limit)
	fmt.Fprintf(w, "  dry_run: %v\n", cfg.Dispatch.DryRun)

	fmt.Fprintln(w, "rewrite:")
	fmt.Fprintf(w, "  collapse_completed: %v\n", cfg.Rewrite.CollapseCompleted)
	fmt.Fprintf(w, "  verify_unchanged: %v\n", cfg.Rewrite.VerifyUnchanged)

	fmt.Fprintln(w, "output:")
	fmt.Fprintf(w, "  format: %s\n", cfg.Output.Format)
	fmt.Fprintf(w, "  color: %v\n", cfg.Output.Color)
	fmt.Fprintf(w, "  description_width: %d\n", cfg.Output.DescriptionWidth)

	fmt.Fprintln(w, "logging:")
	fmt.Fprintf(w, "  level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  dir: %s\n", cfg.Logging.Dir)
	fmt.Fprintf(w, "  max_size_mb: %d\n", cfg.Logging.MaxSizeMB)
	fmt.Fprintf(w, "  max_backups: %d\n", cfg.Logging.MaxBackups)

	return nil
}

// parseConfigValue converts a command-line value to the type of key.
func parseConfigValue(key, value string) (any, error) {
	keyType, ok := configKeys[key]
	if !ok {
		return nil, fmt.Errorf("unknown configuration key: %s\nRun 'roadmap config set --help' to see valid keys", key)
	}

	switch keyType {
	case "bool":
		if value != "true" && value != "false" {
			return nil, fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		return value == "true", nil
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return nil, fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		return intVal, nil
	case "list":
		items := []string{}
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return items, nil
	default:
		return value, nil
	}
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	typedValue, err := parseConfigValue(key, args[1])
	if err != nil {
		return err
	}

	// Apply, then validate the whole config before anything is written.
	previous := viper.Get(key)
	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		viper.Set(key, previous)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(w, "Config saved to %s\n", configFile)

	return nil
}

const defaultConfigContent = `# roadmap configuration

# Where roadmap documents live
store:
  # github: issue bodies and comments via the gh CLI
  # file: local markdown files
  backend: github
  # Default owner/repo for "#12" and "12" references
  repo: ""
  # gh executable
  gh_path: gh
  # Tries per fetch or write when GitHub reports a transient failure
  attempts: 3

# Plan issue creation for unblocked steps
dispatch:
  # Repository plan issues are created in (empty: the roadmap's repository)
  repo: ""
  labels: []
  plan_title_prefix: "Plan:"
  # Max steps planned per run (0 = no limit)
  limit: 0
  dry_run: false

# Full-body rewrites
rewrite:
  # Wrap finished phases in <details> blocks
  collapse_completed: false
  # Re-read before writing and refuse to overwrite concurrent edits
  verify_unchanged: true

# Command output
output:
  # auto: text on a terminal, JSON otherwise
  format: auto
  color: true
  # Truncate step descriptions in text output (0 = no limit)
  description_width: 60

# Debug logging
logging:
  level: info
  # Directory for roadmap.log (empty logs to stderr)
  dir: ""
  max_size_mb: 5
  max_backups: 3
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'roadmap config set' to modify values", configFile)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created config file at %s\n", configFile)
	fmt.Fprintln(w, "Edit this file to customize roadmap's behavior.")

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

	fmt.Fprintln(w, "\nSearch paths:")
	fmt.Fprintf(w, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(w, "  2. $HOME/.config/roadmap/config.yaml\n")
	fmt.Fprintf(w, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(w, "\nEnvironment variables: ROADMAP_* (e.g., ROADMAP_STORE_REPO)")

	return nil
}
