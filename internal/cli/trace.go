package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/plumbfile/plumb/internal/engine"
	"github.com/plumbfile/plumb/internal/observability"
)

var (
	traceVars []string
	traceWdir string
)

var traceCmd = &cobra.Command{
	Use:   "trace <path>...",
	Short: "Show how the rules treat a file",
	Long: `Walk a file through the rules without executing anything.

The trace shows every rule reached, each condition's outcome, the
variables each step bound, and the actions that would have been queued,
with their destinations evaluated against the file.

Examples:
  # Why did this land in Videos?
  plumb trace ~/Downloads/lecture.mp4

  # Check a rules draft against a sample file
  plumb trace --rules ./rules.new ~/Downloads/sample.iso`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().StringArrayVar(&traceVars, "var", nil, "pre-seed a rule variable as name=value (repeatable)")
	traceCmd.Flags().StringVarP(&traceWdir, "wdir", "w", "", "directory relative paths resolve against")
}

// runTrace implements the trace command.
func runTrace(cmd *cobra.Command, args []string) error {
	start := time.Now()
	metrics := observability.InitGlobal(versionInfo.Version)
	defer func() {
		metrics.RecordCommandInvocation("trace", time.Since(start))
	}()

	set, path, err := loadRuleSet("")
	if err != nil {
		return err
	}
	logger.Debug("rules loaded", "path", path, "rules", len(set.Rules))

	vars, err := parseVars(traceVars)
	if err != nil {
		return err
	}

	eng := engine.New(set, append(engineOptions(vars), engine.WithTrace())...)

	wdir := traceWdir
	if wdir == "" {
		wdir = cfg.Route.WorkingDir
	}

	out := cmd.OutOrStdout()
	for i, arg := range args {
		if i > 0 {
			fmt.Fprintln(out)
		}

		msg := engine.NewMessage(arg)
		msg.Source = engine.SourceCLI
		msg.Dir = wdir

		res, err := eng.Scan(cmd.Context(), msg)
		if err != nil {
			return err
		}
		fmt.Fprint(out, renderTrace(res, len(set.Rules)))
	}
	return nil
}

// renderTrace renders one message's trace: the rules walked step by
// step, then the actions left pending.
func renderTrace(res *engine.Result, totalRules int) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(res.Message.Data) + "\n")

	for _, rt := range res.Trace.Rules {
		b.WriteString("  " + styles.Bold.Render("rule "+rt.Name) +
			styles.Subtle.Render(fmt.Sprintf(" (line %d)", rt.Line)) + "\n")
		for _, st := range rt.Steps {
			b.WriteString(renderTraceStep(st))
		}
	}
	if skipped := totalRules - len(res.Trace.Rules); skipped > 0 {
		b.WriteString(styles.Subtle.Render(fmt.Sprintf("  %d later rules not reached", skipped)) + "\n")
	}

	b.WriteString("\n")
	if len(res.Actions) == 0 {
		b.WriteString(styles.Subtle.Render("no actions queued") + "\n")
		return b.String()
	}

	b.WriteString(styles.Bold.Render("queued actions:") + "\n")
	for i, a := range res.Actions {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, describeAction(a)))
	}
	return b.String()
}

// renderTraceStep renders one step: an outcome symbol, the step as
// written, and what it bound or queued.
func renderTraceStep(st engine.StepTrace) string {
	var sym string
	switch st.Kind {
	case "condition":
		if st.Passed {
			sym = styles.Success.Render("✓")
		} else {
			sym = styles.Error.Render("✗")
		}
	case "assign":
		sym = styles.Info.Render("=")
	case "stop":
		sym = styles.Warning.Render("■")
	default:
		sym = styles.Info.Render("→")
	}

	line := "    " + sym + " " + st.Text
	if len(st.Bound) > 0 {
		line += styles.Subtle.Render("  binds " + formatBindings(st.Bound))
	}
	if st.Action != nil && st.Action.Kind != engine.ActionInspect {
		line += styles.Subtle.Render(fmt.Sprintf("  %s → %s", st.Action.Source, st.Action.Dest))
	}
	return line + "\n"
}

// formatBindings renders bound variables sorted by name.
func formatBindings(bound map[string]string) string {
	names := make([]string, 0, len(bound))
	for name := range bound {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("$%s=%s", name, bound[name])
	}
	return strings.Join(parts, " ")
}

// describeAction renders one queued action for the trace summary.
func describeAction(a engine.Action) string {
	origin := styles.Subtle.Render(fmt.Sprintf("  (rule %s, line %d)", a.Rule, a.Line))
	switch a.Kind {
	case engine.ActionInspect:
		if a.All != nil {
			return "inspect all" + origin
		}
		return fmt.Sprintf("inspect %q", a.Value) + origin
	case engine.ActionMove:
		return fmt.Sprintf("moveto %s → %s", a.Source, a.Dest) + origin
	default:
		return fmt.Sprintf("copyto %s → %s", a.Source, a.Dest) + origin
	}
}
