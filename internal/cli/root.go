// Package cli provides the command-line interface for plumb.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/plumbfile/plumb/internal/config"
	"github.com/plumbfile/plumb/internal/rules"
	"github.com/plumbfile/plumb/internal/version"
)

var (
	// Version information set by main.
	versionInfo = version.Get()

	// Global flags
	cfgFile   string
	rulesFile string
	verbose   bool
	quiet     bool
	logLevel  string
	logFormat string
	noColor   bool

	// Global config
	cfg *config.Config

	// Logger
	logger *log.Logger

	// logFile holds the log file handle for cleanup
	logFile *os.File

	// Styles
	styles = struct {
		Title   lipgloss.Style
		Success lipgloss.Style
		Error   lipgloss.Style
		Warning lipgloss.Style
		Info    lipgloss.Style
		Subtle  lipgloss.Style
		Bold    lipgloss.Style
	}{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Bold:    lipgloss.NewStyle().Bold(true),
	}
)

// SetVersionInfo sets the version information from main.
func SetVersionInfo(ver, commit, date string) {
	version.Set(ver, commit, date)
	versionInfo = version.Get()
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "plumb",
	Short: "Rule-driven file routing",
	Long: `plumb sorts files with a small rules file.

Each file handed to plumb walks the rules top to bottom: conditions
match on name, type or content, matching rules queue copy and move
actions, and stop ends the walk. Transfers to the same destination
consolidate into one rsync call.

Key features:
  • One readable rules file instead of a pile of shell scripts
  • glob, regex and file-type conditions with capture variables
  • Dry-run and trace modes that show the work before it happens
  • Watch mode that sorts files as they arrive

Get started with 'plumb init' to write a starter rules file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version commands
		if cmd.Name() == "init" || cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context for graceful shutdown.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Initialize logger with default settings
	// JSON format and log level are configured in initConfig based on flags
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
	})

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: plumb config.yaml under the XDG config dir)")
	rootCmd.PersistentFlags().StringVarP(&rulesFile, "rules", "r", "", "rules file (default: $PLUMB_RULES, then the XDG config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig() error {
	loader := config.NewLoader()

	if cfgFile != "" {
		loader.WithConfigPath(cfgFile)
	}

	var err error
	cfg, err = loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Development builds are not subject to the requires constraint.
	if version.IsDev() {
		return nil
	}
	return config.CheckRequires(cfg, versionInfo.Version)
}

// applyGlobalFlags applies global CLI flags to the configuration.
func applyGlobalFlags() {
	if verbose {
		cfg.Output.Verbose = true
	}

	if quiet {
		cfg.Output.Quiet = true
	}

	if logLevel != "" {
		cfg.Output.LogLevel = logLevel
	}

	if logFormat != "" {
		cfg.Output.LogFormat = logFormat
	}

	if rulesFile != "" {
		cfg.Rules.File = rulesFile
	}

	if noColor || os.Getenv("NO_COLOR") != "" {
		cfg.Output.Color = false
	}
	if !cfg.Output.Color {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// configureLoggerFormat configures the logger format based on settings.
func configureLoggerFormat() {
	if cfg.Output.LogFormat == "json" {
		logger.SetFormatter(log.JSONFormatter)
		logger.SetReportTimestamp(true)
		logger.SetReportCaller(true)
	} else if !cfg.Output.Color {
		logger.SetFormatter(log.TextFormatter)
	}
}

// configureLogLevel sets the logger level based on configuration.
func configureLogLevel() {
	switch cfg.Output.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	if cfg.Output.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	if cfg.Output.Quiet {
		logger.SetLevel(log.ErrorLevel)
	}
}

// configureLogFile sets up log file output if specified.
func configureLogFile() error {
	if cfg.Output.LogFile == "" {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(cfg.Output.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logger.SetOutput(logFile)
	return nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	// Load and validate configuration
	if err := loadAndValidateConfig(); err != nil {
		return err
	}

	// Apply CLI flags to configuration
	applyGlobalFlags()

	// Configure logger
	configureLoggerFormat()
	configureLogLevel()

	// Configure log file
	return configureLogFile()
}

// Cleanup closes any open resources. Should be called before program exit.
func Cleanup() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// effectiveRulesPath returns the rules file the command should use:
// the --rules flag, then the config, then the default search.
func effectiveRulesPath() string {
	if rulesFile != "" {
		return rulesFile
	}
	if cfg != nil && cfg.Rules.File != "" {
		return cfg.Rules.File
	}
	return rules.DefaultPath()
}

// loadRuleSet loads the effective rules file, or an explicit path when
// one is given. Returns the set together with the path it came from.
func loadRuleSet(path string) (*rules.RuleSet, string, error) {
	if path == "" {
		path = effectiveRulesPath()
	}
	set, err := rules.LoadFile(path)
	if err != nil {
		return nil, path, err
	}
	return set, path, nil
}

// isQuiet reports whether non-error output is suppressed.
func isQuiet() bool {
	if quiet {
		return true
	}
	return cfg != nil && cfg.Output.Quiet
}

// Output helper functions

func printSuccess(msg string) {
	if isQuiet() {
		return
	}
	fmt.Println(styles.Success.Render("✓ " + msg))
}

func printError(msg string) {
	fmt.Println(styles.Error.Render("✗ " + msg))
}

func printWarning(msg string) {
	if isQuiet() {
		return
	}
	fmt.Println(styles.Warning.Render("⚠ " + msg))
}

func printInfo(msg string) {
	if isQuiet() {
		return
	}
	fmt.Println(styles.Info.Render("ℹ " + msg))
}

func printTitle(msg string) {
	if isQuiet() {
		return
	}
	fmt.Println(styles.Title.Render(msg))
}

func printSubtle(msg string) {
	if isQuiet() {
		return
	}
	fmt.Println(styles.Subtle.Render(msg))
}
