package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "store.backend")
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

// repoSlugRegex validates "owner/repo" values
var repoSlugRegex = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?/[A-Za-z0-9._-]+$`)

// labelRegex rejects labels that would break the gh command line
var labelRegex = regexp.MustCompile(`^[^,\n]+$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate Store config
	errors = append(errors, c.validateStore()...)

	// Validate Dispatch config
	errors = append(errors, c.validateDispatch()...)

	// Validate Output config
	errors = append(errors, c.validateOutput()...)

	// Validate Logging config
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateStore validates the StoreConfig
func (c *Config) validateStore() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidBackends(), strings.ToLower(c.Store.Backend)) {
		errors = append(errors, ValidationError{
			Field:   "store.backend",
			Value:   c.Store.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidBackends(), ", ")),
		})
	}

	if c.Store.Repo != "" && !repoSlugRegex.MatchString(c.Store.Repo) {
		errors = append(errors, ValidationError{
			Field:   "store.repo",
			Value:   c.Store.Repo,
			Message: "must be in owner/repo form",
		})
	}

	if !c.Store.UseFileStore() && strings.TrimSpace(c.Store.GHPath) == "" {
		errors = append(errors, ValidationError{
			Field:   "store.gh_path",
			Value:   c.Store.GHPath,
			Message: "must not be empty for the github backend",
		})
	}

	if c.Store.Attempts < 1 {
		errors = append(errors, ValidationError{
			Field:   "store.attempts",
			Value:   c.Store.Attempts,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateDispatch validates the DispatchConfig
func (c *Config) validateDispatch() []ValidationError {
	var errors []ValidationError

	if c.Dispatch.Repo != "" && !repoSlugRegex.MatchString(c.Dispatch.Repo) {
		errors = append(errors, ValidationError{
			Field:   "dispatch.repo",
			Value:   c.Dispatch.Repo,
			Message: "must be in owner/repo form",
		})
	}

	if c.Dispatch.Limit < 0 {
		errors = append(errors, ValidationError{
			Field:   "dispatch.limit",
			Value:   c.Dispatch.Limit,
			Message: "must be non-negative",
		})
	}

	for i, label := range c.Dispatch.Labels {
		if !labelRegex.MatchString(label) || strings.TrimSpace(label) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("dispatch.labels[%d]", i),
				Value:   label,
				Message: "must be non-empty and contain no commas or newlines",
			})
		}
	}

	return errors
}

// validateOutput validates the OutputConfig
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidFormats(), c.Output.Format) {
		errors = append(errors, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidFormats(), ", ")),
		})
	}

	if c.Output.DescriptionWidth < 0 {
		errors = append(errors, ValidationError{
			Field:   "output.description_width",
			Value:   c.Output.DescriptionWidth,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
