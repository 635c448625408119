package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/plumbfile/plumb/internal/actions"
	"github.com/plumbfile/plumb/internal/engine"
	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/observability"
)

var (
	routeDryRun bool
	routeVars   []string
	routeJobs   int
	routeWdir   string
)

var routeCmd = &cobra.Command{
	Use:   "route [path...]",
	Short: "Route files through the rules",
	Long: `Route files through the rules file.

Each path becomes one message and walks the rules top to bottom.
Conditions that fail abandon their rule but keep what earlier rules
queued; stop ends the walk. The queued copy and move actions then run,
consolidated per destination into single rsync calls.

A lone - reads newline-separated paths from stdin instead.

Examples:
  # Sort one download
  plumb route ~/Downloads/movie.mkv

  # See the commands without running them
  plumb route --dry-run ~/Downloads/*.iso

  # Route whatever find produces, four at a time
  find ~/Downloads -type f | plumb route --jobs 4 -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)
	routeCmd.Flags().BoolVarP(&routeDryRun, "dry-run", "n", false, "print would-be commands instead of executing")
	routeCmd.Flags().StringArrayVar(&routeVars, "var", nil, "pre-seed a rule variable as name=value (repeatable)")
	routeCmd.Flags().IntVarP(&routeJobs, "jobs", "j", 0, "messages routed concurrently (default from config)")
	routeCmd.Flags().StringVarP(&routeWdir, "wdir", "w", "", "directory relative paths resolve against")
}

// routeInput is one message to route and where it came from.
type routeInput struct {
	path   string
	source string
}

// runRoute implements the route command.
func runRoute(cmd *cobra.Command, args []string) error {
	start := time.Now()
	metrics := observability.InitGlobal(versionInfo.Version)
	defer func() {
		metrics.RecordCommandInvocation("route", time.Since(start))
	}()

	set, path, err := loadRuleSet("")
	if err != nil {
		return err
	}
	logger.Debug("rules loaded", "path", path, "rules", len(set.Rules))

	vars, err := parseVars(routeVars)
	if err != nil {
		return err
	}

	inputs, err := gatherInputs(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		printWarning("nothing to route")
		return nil
	}

	eng := engine.New(set, engineOptions(vars)...)
	exec := buildExecutor(routeDryRun)

	wdir := routeWdir
	if wdir == "" {
		wdir = cfg.Route.WorkingDir
	}

	jobs := routeJobs
	if jobs <= 0 {
		jobs = cfg.Route.Jobs
	}
	if jobs < 1 {
		jobs = 1
	}

	var (
		mu     sync.Mutex
		failed []string
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)

	for _, in := range inputs {
		g.Go(func() error {
			msgStart := time.Now()
			metrics.IncrementActiveMessages()
			defer metrics.DecrementActiveMessages()

			msg := engine.NewMessage(in.path)
			msg.Source = in.source
			msg.Dir = wdir

			res, err := eng.Route(ctx, msg, exec)
			if err != nil {
				if perrors.IsKind(err, perrors.KindCanceled) {
					return err
				}
				logger.Error("routing failed", "path", in.path, "error", err)
				mu.Lock()
				failed = append(failed, in.path)
				mu.Unlock()
				return nil
			}

			metrics.RecordMessage(len(res.Matched), res.Stopped, time.Since(msgStart))
			if len(res.Actions) == 0 {
				printSubtle("nothing to do: " + in.path)
				return nil
			}
			logger.Debug("routed",
				"path", in.path,
				"matched", len(res.Matched),
				"actions", len(res.Actions),
				"stopped", res.Stopped)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if verbose && !isQuiet() {
		fmt.Fprint(os.Stderr, metrics.Summary())
	}

	if len(failed) > 0 {
		return perrors.Execution("cli.route",
			fmt.Sprintf("%d of %d messages failed", len(failed), len(inputs)))
	}
	return nil
}

// gatherInputs expands the argument list into routable inputs. A lone
// "-" splices in newline-separated paths read from stdin.
func gatherInputs(args []string, stdin io.Reader) ([]routeInput, error) {
	var inputs []routeInput
	stdinUsed := false

	for _, arg := range args {
		if arg != "-" {
			inputs = append(inputs, routeInput{path: arg, source: engine.SourceCLI})
			continue
		}
		if stdinUsed {
			return nil, perrors.Validation("cli.route", "stdin (-) given more than once")
		}
		stdinUsed = true

		scanner := bufio.NewScanner(stdin)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			inputs = append(inputs, routeInput{path: line, source: engine.SourceStdin})
		}
		if err := scanner.Err(); err != nil {
			return nil, perrors.IOWrap(err, "cli.route", "reading paths from stdin")
		}
	}
	return inputs, nil
}

// parseVars parses repeated name=value flags into a variable map.
func parseVars(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, perrors.Validation("cli.route",
				fmt.Sprintf("invalid --var %q, want name=value", pair))
		}
		vars[name] = value
	}
	return vars, nil
}

// engineOptions builds the engine options shared by route, trace and
// watch: config variables first, command-line variables on top.
func engineOptions(extra map[string]string) []engine.Option {
	var opts []engine.Option
	if len(cfg.Rules.Vars) > 0 {
		opts = append(opts, engine.WithVars(cfg.Rules.Vars))
	}
	if len(extra) > 0 {
		opts = append(opts, engine.WithVars(extra))
	}
	return opts
}

// rsyncOptions builds the transfer options from config.
func rsyncOptions() []actions.RsyncOption {
	return []actions.RsyncOption{
		actions.WithCommand(cfg.Transfer.Command, cfg.Transfer.Args...),
		actions.WithRetry(cfg.Transfer.RetryAttempts, cfg.Transfer.RetryDelay, cfg.Transfer.RetryMaxDelay),
		actions.WithSpaceCheck(cfg.Transfer.SpaceCheck()),
	}
}

// buildExecutor builds the action executor: a printing dry-run one when
// asked for, the real thing otherwise.
func buildExecutor(dryRun bool) engine.Executor {
	if dryRun || cfg.Route.DryRun {
		return actions.NewDryRun(os.Stdout, rsyncOptions()...)
	}
	return actions.NewExecutor(
		actions.WithTransfer(actions.NewRsyncTransfer(rsyncOptions()...)),
		actions.WithLogger(logger.With("component", "actions")),
	)
}
