package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/plumbfile/plumb/internal/observability"
	"github.com/plumbfile/plumb/internal/rules"
)

var rulesOutput string

var rulesCmd = &cobra.Command{
	Use:   "rules [file]",
	Short: "List the parsed rules",
	Long: `List the rules as plumb understands them.

The text format prints the canonical source rendering, comments
stripped and spacing normalized. The structured formats carry each
command's kind, destination and line for tooling to filter on.

Examples:
  # Show the effective rules
  plumb rules

  # Feed the rule names to jq
  plumb rules --output json | jq '.rules[].name'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVarP(&rulesOutput, "output", "o", "text",
		fmt.Sprintf("output format (%s)", strings.Join(rules.ExportFormats(), ", ")))
}

// runRules implements the rules command.
func runRules(cmd *cobra.Command, args []string) error {
	start := time.Now()
	metrics := observability.InitGlobal(versionInfo.Version)
	defer func() {
		metrics.RecordCommandInvocation("rules", time.Since(start))
	}()

	var explicit string
	if len(args) == 1 {
		explicit = args[0]
	}

	set, path, err := loadRuleSet(explicit)
	if err != nil {
		return err
	}

	out, err := rules.Export(set, rulesOutput)
	if err != nil {
		return err
	}

	if strings.EqualFold(rulesOutput, rules.FormatText) {
		printSubtle("# " + path)
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
