package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/observability"
	"github.com/plumbfile/plumb/internal/rules"
)

var checkStrict bool

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check the rules file for errors",
	Long: `Check that the rules file parses.

Syntax errors report the offending line and column. With --strict the
parsed rules are also linted: constant regex and glob patterns must
compile, and suspicious shapes (unreachable rules, commands after stop,
variables that are never bound) are reported.

Examples:
  # Check the default rules file
  plumb check

  # Check a file before installing it
  plumb check --strict ./rules.new`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "also compile constant patterns and lint rule shapes")
}

// runCheck implements the check command.
func runCheck(cmd *cobra.Command, args []string) error {
	start := time.Now()
	metrics := observability.InitGlobal(versionInfo.Version)
	defer func() {
		metrics.RecordCommandInvocation("check", time.Since(start))
	}()

	var explicit string
	if len(args) == 1 {
		explicit = args[0]
	}

	set, path, err := loadRuleSet(explicit)
	if err != nil {
		return err
	}

	if checkStrict {
		result := rules.Lint(set)
		for _, w := range result.Warnings {
			printWarning(w)
		}
		if result.HasErrors() {
			for _, e := range result.Errors {
				printError(e)
			}
			return perrors.Syntax("cli.check",
				fmt.Sprintf("%d problems in %s", len(result.Errors), path))
		}
	}

	printSuccess(fmt.Sprintf("%s: %d rules OK", path, len(set.Rules)))
	if verbose {
		for _, rule := range set.Rules {
			printSubtle(fmt.Sprintf("  rule %s (line %d, %d commands)", rule.Name, rule.Line, len(rule.Steps)))
		}
	}
	return nil
}
