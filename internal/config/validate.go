// Package config provides configuration management for plumb.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"strings"
	"time"

	perrors "github.com/plumbfile/plumb/internal/errors"
)

// varNamePattern is the shape of a valid rule variable name.
var varNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError contains all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if len(e.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors:\n  - %s", strings.Join(e.Errors, "\n  - ")))
	}

	if len(e.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings:\n  - %s", strings.Join(e.Warnings, "\n  - ")))
	}

	return fmt.Sprintf("configuration validation failed:\n%s", strings.Join(parts, "\n"))
}

// HasErrors returns true if there are validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// HasWarnings returns true if there are validation warnings.
func (e *ValidationError) HasWarnings() bool {
	return len(e.Warnings) > 0
}

// Addf adds a formatted error to the validation error.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// Warnf adds a formatted warning to the validation error.
func (e *ValidationError) Warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// Validator validates configuration.
type Validator struct {
	errors *ValidationError
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: &ValidationError{},
	}
}

// Validate validates the configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateRules(cfg.Rules)
	v.validateRoute(cfg.Route)
	v.validateTransfer(cfg.Transfer)
	v.validateWatch(cfg.Watch)
	v.validateOutput(cfg.Output)

	// Print warnings to stderr even if there are no errors
	if v.errors.HasWarnings() {
		fmt.Fprintf(os.Stderr, "\n⚠️  Configuration Warnings:\n")
		for _, warning := range v.errors.Warnings {
			fmt.Fprintf(os.Stderr, "  - %s\n", warning)
		}
		fmt.Fprintf(os.Stderr, "\n")
	}

	if v.errors.HasErrors() {
		return perrors.Validation("config.Validate", v.errors.Error())
	}

	return nil
}

// validateRules validates the rules configuration.
func (v *Validator) validateRules(cfg RulesConfig) {
	if cfg.File != "" {
		if _, err := os.Stat(cfg.File); os.IsNotExist(err) {
			v.errors.Addf("rules.file: file does not exist: %s", cfg.File)
		}
	}

	for name := range cfg.Vars {
		if !varNamePattern.MatchString(name) {
			v.errors.Addf("rules.vars: invalid variable name %q", name)
		}
	}
}

// validateRoute validates routing configuration.
func (v *Validator) validateRoute(cfg RouteConfig) {
	if cfg.Jobs < 1 {
		v.errors.Addf("route.jobs: must be at least 1, got %d", cfg.Jobs)
	}
	if cfg.Jobs > 32 {
		v.errors.Warnf("route.jobs: value %d is unusually high", cfg.Jobs)
	}

	if cfg.WorkingDir != "" {
		info, err := os.Stat(cfg.WorkingDir)
		if os.IsNotExist(err) {
			v.errors.Addf("route.working_dir: directory does not exist: %s", cfg.WorkingDir)
		} else if err == nil && !info.IsDir() {
			v.errors.Addf("route.working_dir: not a directory: %s", cfg.WorkingDir)
		}
	}
}

// validateTransfer validates the transfer configuration.
func (v *Validator) validateTransfer(cfg TransferConfig) {
	if cfg.Command == "" {
		v.errors.Addf("transfer.command: cannot be empty")
	} else if _, err := exec.LookPath(cfg.Command); err != nil {
		v.errors.Warnf("transfer.command: %q not found in PATH", cfg.Command)
	}

	if cfg.RetryAttempts < 0 {
		v.errors.Addf("transfer.retry_attempts: must be non-negative, got %d", cfg.RetryAttempts)
	}
	if cfg.RetryDelay < 0 {
		v.errors.Addf("transfer.retry_delay: must be non-negative")
	}
	if cfg.RetryMaxDelay > 0 && cfg.RetryMaxDelay < cfg.RetryDelay {
		v.errors.Addf("transfer.retry_max_delay: must be at least retry_delay")
	}
}

// validateWatch validates watch mode configuration.
func (v *Validator) validateWatch(cfg WatchConfig) {
	if cfg.Settle < 0 {
		v.errors.Addf("watch.settle: must be non-negative")
	}
	if cfg.Settle > time.Minute {
		v.errors.Warnf("watch.settle: %s is unusually long", cfg.Settle)
	}

	if cfg.Jobs < 1 {
		v.errors.Addf("watch.jobs: must be at least 1, got %d", cfg.Jobs)
	}

	for _, dir := range cfg.Dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			v.errors.Warnf("watch.dirs: directory does not exist: %s", dir)
		}
	}
}

// validateOutput validates output configuration.
func (v *Validator) validateOutput(cfg OutputConfig) {
	validFormats := []string{"text", "json", "yaml", "toml"}
	if !slices.Contains(validFormats, cfg.Format) {
		v.errors.Addf("output.format: must be one of %v, got %q", validFormats, cfg.Format)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, cfg.LogLevel) {
		v.errors.Addf("output.log_level: must be one of %v, got %q", validLogLevels, cfg.LogLevel)
	}

	validLogFormats := []string{"text", "json"}
	if !slices.Contains(validLogFormats, cfg.LogFormat) {
		v.errors.Addf("output.log_format: must be one of %v, got %q", validLogFormats, cfg.LogFormat)
	}

	// Quiet and verbose are mutually exclusive
	if cfg.Quiet && cfg.Verbose {
		v.errors.Addf("output: quiet and verbose cannot both be enabled")
	}
}

// Validate is a convenience function to validate configuration.
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
