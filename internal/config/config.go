package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete roadmap configuration
type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Rewrite  RewriteConfig  `mapstructure:"rewrite"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StoreConfig controls where roadmap documents are read from and written to
type StoreConfig struct {
	// Backend selects the document store.
	// Options: "github" (issue bodies and comments via the gh CLI), "file" (local markdown files)
	Backend string `mapstructure:"backend"`
	// Repo is the default "owner/repo" used for "#N" and bare-number references
	Repo string `mapstructure:"repo"`
	// GHPath is the gh executable used by the github backend (default: "gh")
	GHPath string `mapstructure:"gh_path"`
	// Attempts is how many times a gh fetch or write is tried when GitHub
	// reports a transient failure such as a rate limit (default: 3)
	Attempts int `mapstructure:"attempts"`
}

// DispatchConfig controls plan issue creation for unblocked steps
type DispatchConfig struct {
	// Repo is the "owner/repo" plan issues are created in. Empty uses the roadmap's repository.
	Repo string `mapstructure:"repo"`
	// Labels are applied to every plan issue
	Labels []string `mapstructure:"labels"`
	// PlanTitlePrefix is prepended to plan issue titles (default: "Plan:")
	PlanTitlePrefix string `mapstructure:"plan_title_prefix"`
	// Limit caps how many steps one dispatch run plans (0 = no limit)
	Limit int `mapstructure:"limit"`
	// DryRun previews dispatch without creating issues or writing the roadmap
	DryRun bool `mapstructure:"dry_run"`
}

// RewriteConfig controls full-body rewrites
type RewriteConfig struct {
	// CollapseCompleted wraps finished phases in <details> blocks
	CollapseCompleted bool `mapstructure:"collapse_completed"`
	// VerifyUnchanged re-reads the document before writing and refuses to
	// overwrite edits made since it was read
	VerifyUnchanged bool `mapstructure:"verify_unchanged"`
}

// OutputConfig controls how commands print results
type OutputConfig struct {
	// Format selects the output format.
	// Options: "auto" (text on a terminal, JSON otherwise), "json", "text"
	Format string `mapstructure:"format"`
	// Color enables styled text output
	Color bool `mapstructure:"color"`
	// DescriptionWidth truncates step descriptions in text output (0 = no limit)
	DescriptionWidth int `mapstructure:"description_width"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory roadmap.log is written to. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 5)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// Store backends
const (
	BackendGitHub = "github"
	BackendFile   = "file"
)

// Output formats
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatText = "text"
)

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:  BackendGitHub,
			Repo:     "",
			GHPath:   "gh",
			Attempts: 3,
		},
		Dispatch: DispatchConfig{
			Labels:          []string{},
			PlanTitlePrefix: "Plan:",
			Limit:           0,
			DryRun:          false,
		},
		Rewrite: RewriteConfig{
			CollapseCompleted: false,
			VerifyUnchanged:   true, // Refuse to clobber concurrent edits unless disabled
		},
		Output: OutputConfig{
			Format:           FormatAuto,
			Color:            true,
			DescriptionWidth: 60,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Dir:        "", // Empty means stderr
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Store defaults
	viper.SetDefault("store.backend", defaults.Store.Backend)
	viper.SetDefault("store.repo", defaults.Store.Repo)
	viper.SetDefault("store.gh_path", defaults.Store.GHPath)
	viper.SetDefault("store.attempts", defaults.Store.Attempts)

	// Dispatch defaults
	viper.SetDefault("dispatch.repo", defaults.Dispatch.Repo)
	viper.SetDefault("dispatch.labels", defaults.Dispatch.Labels)
	viper.SetDefault("dispatch.plan_title_prefix", defaults.Dispatch.PlanTitlePrefix)
	viper.SetDefault("dispatch.limit", defaults.Dispatch.Limit)
	viper.SetDefault("dispatch.dry_run", defaults.Dispatch.DryRun)

	// Rewrite defaults
	viper.SetDefault("rewrite.collapse_completed", defaults.Rewrite.CollapseCompleted)
	viper.SetDefault("rewrite.verify_unchanged", defaults.Rewrite.VerifyUnchanged)

	// Output defaults
	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.color", defaults.Output.Color)
	viper.SetDefault("output.description_width", defaults.Output.DescriptionWidth)

	// Logging defaults
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
}

// Load reads the configuration from viper into a Config struct
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

// Get returns the current configuration, falling back to defaults if
// loading fails
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the roadmap configuration directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "roadmap")
	}
	// Fall back to ~/.config/roadmap
	home, err := os.UserHomeDir()
	if err != nil {
		return ".roadmap"
	}
	return filepath.Join(home, ".config", "roadmap")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// UseFileStore reports whether documents live in local files
func (c *StoreConfig) UseFileStore() bool {
	return strings.EqualFold(c.Backend, BackendFile)
}

// ValidBackends returns the list of valid store backends
func ValidBackends() []string {
	return []string{BackendGitHub, BackendFile}
}

// ValidFormats returns the list of valid output formats
func ValidFormats() []string {
	return []string{FormatAuto, FormatJSON, FormatText}
}
