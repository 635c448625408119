// Package config provides configuration management for plumb.
package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Config is the root configuration for plumb.
type Config struct {
	// Requires is a semver constraint the running plumb binary must
	// satisfy, e.g. ">= 0.3.0". Empty means any version.
	Requires string `mapstructure:"requires" json:"requires,omitempty"`
	// Rules configures the rules file and pre-seeded variables.
	Rules RulesConfig `mapstructure:"rules" json:"rules"`
	// Route configures routing behavior.
	Route RouteConfig `mapstructure:"route" json:"route"`
	// Transfer configures the file-transfer command.
	Transfer TransferConfig `mapstructure:"transfer" json:"transfer"`
	// Watch configures watch mode.
	Watch WatchConfig `mapstructure:"watch" json:"watch"`
	// Output configures logging and display.
	Output OutputConfig `mapstructure:"output" json:"output"`
}

// RulesConfig configures where rules come from.
type RulesConfig struct {
	// File is the rules file path. Empty uses the default search paths.
	File string `mapstructure:"file" json:"file,omitempty"`
	// Vars pre-seeds the variable scope of every routing pass.
	Vars map[string]string `mapstructure:"vars" json:"vars,omitempty"`
}

// RouteConfig configures routing behavior.
type RouteConfig struct {
	// Jobs is how many messages route concurrently.
	Jobs int `mapstructure:"jobs" json:"jobs"`
	// DryRun prints would-be commands instead of executing them.
	DryRun bool `mapstructure:"dry_run" json:"dry_run"`
	// WorkingDir resolves relative message payloads when set.
	WorkingDir string `mapstructure:"working_dir" json:"working_dir,omitempty"`
}

// TransferConfig configures the file-transfer command.
type TransferConfig struct {
	// Command is the transfer program.
	Command string `mapstructure:"command" json:"command"`
	// Args are the base arguments placed before the sources.
	Args []string `mapstructure:"args" json:"args"`
	// RetryAttempts bounds retries of transient transfer failures.
	// Zero disables retrying.
	RetryAttempts int `mapstructure:"retry_attempts" json:"retry_attempts"`
	// RetryDelay is the initial backoff delay between attempts.
	RetryDelay time.Duration `mapstructure:"retry_delay" json:"retry_delay"`
	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration `mapstructure:"retry_max_delay" json:"retry_max_delay"`
	// CheckSpace toggles the destination free-space preflight
	// (default: true).
	CheckSpace *bool `mapstructure:"check_space" json:"check_space,omitempty"`
}

// SpaceCheck returns whether the free-space preflight is enabled
// (defaults to true).
func (t *TransferConfig) SpaceCheck() bool {
	if t.CheckSpace == nil {
		return true
	}
	return *t.CheckSpace
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Dirs are the directories watched when none are given on the
	// command line.
	Dirs []string `mapstructure:"dirs" json:"dirs,omitempty"`
	// Settle is how long a file must stay quiet before it routes.
	Settle time.Duration `mapstructure:"settle" json:"settle"`
	// Jobs is the worker pool size.
	Jobs int `mapstructure:"jobs" json:"jobs"`
}

// OutputConfig configures logging and display.
type OutputConfig struct {
	// Format is the structured output format (text, json, yaml, toml).
	Format string `mapstructure:"format" json:"format"`
	// Color enables styled terminal output.
	Color bool `mapstructure:"color" json:"color"`
	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose" json:"verbose"`
	// Quiet suppresses non-error output.
	Quiet bool `mapstructure:"quiet" json:"quiet"`
	// LogLevel is the log level (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	// LogFormat is the log formatter (text, json).
	LogFormat string `mapstructure:"log_format" json:"log_format"`
	// LogFile appends logs to a file instead of stderr. Useful under
	// watch mode, where stderr is usually a terminal.
	LogFile string `mapstructure:"log_file" json:"log_file,omitempty"`
}

// ConfigFileNames are the base names searched for a config file.
var ConfigFileNames = []string{".plumb", "config"}

// ConfigFileExtensions are the extensions searched for a config file.
var ConfigFileExtensions = []string{"yaml", "yml", "toml"}

// DefaultDir returns the plumb directory under the XDG config home.
func DefaultDir() string {
	return filepath.Join(xdg.ConfigHome, "plumb")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Rules: RulesConfig{},
		Route: RouteConfig{
			Jobs: 1,
		},
		Transfer: TransferConfig{
			Command:       "rsync",
			Args:          []string{"-vaP"},
			RetryAttempts: 3,
			RetryDelay:    500 * time.Millisecond,
			RetryMaxDelay: 5 * time.Second,
		},
		Watch: WatchConfig{
			Settle: 500 * time.Millisecond,
			Jobs:   4,
		},
		Output: OutputConfig{
			Format:    "text",
			Color:     true,
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}
