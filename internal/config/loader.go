// Package config provides configuration management for plumb.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	perrors "github.com/plumbfile/plumb/internal/errors"
)

// Pre-compiled regex patterns for environment variable expansion.
// These are compiled once at package initialization to avoid repeated compilation.
var (
	// envVarPattern matches ${VAR} or ${VAR:-default} syntax
	envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)
	// simpleEnvVarPattern matches $VAR syntax
	simpleEnvVarPattern = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// Loader handles configuration loading and merging.
type Loader struct {
	v           *viper.Viper
	configPath  string
	searchPaths []string
}

// NewLoader creates a new configuration loader. Config files are
// searched in the current directory, then the plumb XDG config dir.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("PLUMB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &Loader{
		v:           v,
		searchPaths: []string{".", DefaultDir()},
	}
}

// WithConfigPath sets an explicit config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithSearchPaths adds directories to search for config files.
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.searchPaths = append(l.searchPaths, paths...)
	return l
}

// Load loads the configuration.
func (l *Loader) Load() (*Config, error) {
	const op = "config.Load"

	l.setDefaults()

	if err := l.loadConfigFile(); err != nil {
		return nil, perrors.ConfigWrap(err, op, "failed to load config file")
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, perrors.ConfigWrap(err, op, "failed to unmarshal config")
	}

	l.expandEnvVars(cfg)

	return cfg, nil
}

// setDefaults sets default values using Viper.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("requires", defaults.Requires)

	l.v.SetDefault("rules.file", defaults.Rules.File)

	l.v.SetDefault("route.jobs", defaults.Route.Jobs)
	l.v.SetDefault("route.dry_run", defaults.Route.DryRun)
	l.v.SetDefault("route.working_dir", defaults.Route.WorkingDir)

	l.v.SetDefault("transfer.command", defaults.Transfer.Command)
	l.v.SetDefault("transfer.args", defaults.Transfer.Args)
	l.v.SetDefault("transfer.retry_attempts", defaults.Transfer.RetryAttempts)
	l.v.SetDefault("transfer.retry_delay", defaults.Transfer.RetryDelay)
	l.v.SetDefault("transfer.retry_max_delay", defaults.Transfer.RetryMaxDelay)

	l.v.SetDefault("watch.dirs", defaults.Watch.Dirs)
	l.v.SetDefault("watch.settle", defaults.Watch.Settle)
	l.v.SetDefault("watch.jobs", defaults.Watch.Jobs)

	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.color", defaults.Output.Color)
	l.v.SetDefault("output.verbose", defaults.Output.Verbose)
	l.v.SetDefault("output.quiet", defaults.Output.Quiet)
	l.v.SetDefault("output.log_level", defaults.Output.LogLevel)
	l.v.SetDefault("output.log_format", defaults.Output.LogFormat)
	l.v.SetDefault("output.log_file", defaults.Output.LogFile)
}

// loadConfigFile loads the configuration file.
func (l *Loader) loadConfigFile() error {
	// If explicit path provided, use it
	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", l.configPath, err)
		}
		return nil
	}

	// Search for config file in paths
	for _, searchPath := range l.searchPaths {
		for _, name := range ConfigFileNames {
			for _, ext := range ConfigFileExtensions {
				configFile := filepath.Join(searchPath, name+"."+ext)
				if _, err := os.Stat(configFile); err == nil {
					l.v.SetConfigFile(configFile)
					if err := l.v.ReadInConfig(); err != nil {
						return fmt.Errorf("reading config file %s: %w", configFile, err)
					}
					return nil
				}
			}
		}
	}

	// No config file found - this is OK, we use defaults
	return nil
}

// expandEnvVars expands environment variables in path-like and
// user-provided configuration fields.
func (l *Loader) expandEnvVars(cfg *Config) {
	cfg.Rules.File = expandEnvVar(cfg.Rules.File)
	cfg.Route.WorkingDir = expandEnvVar(cfg.Route.WorkingDir)
	cfg.Transfer.Command = expandEnvVar(cfg.Transfer.Command)
	cfg.Output.LogFile = expandEnvVar(cfg.Output.LogFile)

	for k, v := range cfg.Rules.Vars {
		cfg.Rules.Vars[k] = expandEnvVar(v)
	}
	for i, dir := range cfg.Watch.Dirs {
		cfg.Watch.Dirs[i] = expandEnvVar(dir)
	}
}

// expandEnvVar expands environment variables in a string.
// Supports both ${VAR} and $VAR syntax, with ${VAR:-default} fallbacks.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}

		varName := submatch[1]
		defaultValue := ""
		if len(submatch) > 2 {
			defaultValue = submatch[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})

	result = simpleEnvVarPattern.ReplaceAllStringFunc(result, func(match string) string {
		varName := match[1:]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})

	return result
}

// GetConfigPath returns the path to the loaded config file, if any.
func (l *Loader) GetConfigPath() string {
	return l.v.ConfigFileUsed()
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}

// FindConfigFile searches for a config file and returns its path.
func FindConfigFile(searchPaths ...string) (string, error) {
	if len(searchPaths) == 0 {
		searchPaths = []string{".", DefaultDir()}
	}

	for _, searchPath := range searchPaths {
		for _, name := range ConfigFileNames {
			for _, ext := range ConfigFileExtensions {
				configFile := filepath.Join(searchPath, name+"."+ext)
				if _, err := os.Stat(configFile); err == nil {
					return configFile, nil
				}
			}
		}
	}

	return "", perrors.NotFound("config.FindConfigFile", "no config file found")
}

// ValidateAndLoad loads and validates configuration.
func ValidateAndLoad() (*Config, error) {
	cfg, err := NewLoader().Load()
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
