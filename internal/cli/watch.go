package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/plumbfile/plumb/internal/engine"
	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/observability"
	"github.com/plumbfile/plumb/internal/rules"
	"github.com/plumbfile/plumb/internal/watch"
)

var (
	watchSettle time.Duration
	watchJobs   int
	watchDryRun bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Route files as they arrive",
	Long: `Watch directories and route files as they appear.

A file routes once it has stayed quiet for the settle window, so
half-written downloads are left alone. Editing the rules file reloads
it on the fly; a reload that fails to parse keeps the previous rules.
Interrupting waits for in-flight routes to finish and prints the
session counters.

Examples:
  # Sort downloads as they complete
  plumb watch ~/Downloads

  # Slow settle for a directory rsync writes into
  plumb watch --settle 5s /srv/incoming`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 0, "how long a file must stay quiet before routing (default from config)")
	watchCmd.Flags().IntVarP(&watchJobs, "jobs", "j", 0, "worker pool size (default from config)")
	watchCmd.Flags().BoolVarP(&watchDryRun, "dry-run", "n", false, "print would-be commands instead of executing")
}

// runWatch implements the watch command.
func runWatch(cmd *cobra.Command, args []string) error {
	start := time.Now()
	metrics := observability.InitGlobal(versionInfo.Version)
	defer func() {
		metrics.RecordCommandInvocation("watch", time.Since(start))
	}()

	dirs := args
	if len(dirs) == 0 {
		dirs = cfg.Watch.Dirs
	}
	if len(dirs) == 0 {
		return perrors.Validation("cli.watch",
			"no directories to watch (pass them as arguments or set watch.dirs)")
	}

	set, rulesPath, err := loadRuleSet("")
	if err != nil {
		return err
	}

	exec := buildExecutor(watchDryRun)

	// The engine swaps atomically on rules reload; in-flight passes
	// finish on the engine they started with.
	var current atomic.Pointer[engine.Engine]
	current.Store(engine.New(set, engineOptions(nil)...))

	settle := watchSettle
	if !cmd.Flags().Changed("settle") {
		settle = cfg.Watch.Settle
	}
	jobs := watchJobs
	if jobs <= 0 {
		jobs = cfg.Watch.Jobs
	}

	watchLogger := logger.With("component", "watch")

	route := func(ctx context.Context, path string) error {
		msgStart := time.Now()
		msg := engine.NewMessage(path)
		msg.Source = engine.SourceWatch

		res, err := current.Load().Route(ctx, msg, exec)
		if err != nil {
			if perrors.IsKind(err, perrors.KindCanceled) {
				return nil
			}
			return err
		}
		metrics.RecordMessage(len(res.Matched), res.Stopped, time.Since(msgStart))
		return nil
	}

	reload := func() {
		set, err := rules.LoadFile(rulesPath)
		if err != nil {
			watchLogger.Error("rules reload failed, keeping previous rules",
				"path", rulesPath, "error", err)
			return
		}
		current.Store(engine.New(set, engineOptions(nil)...))
		watchLogger.Info("rules reloaded", "path", rulesPath, "rules", len(set.Rules))
	}

	w := watch.NewWatcher(dirs, route,
		watch.WithSettle(settle),
		watch.WithJobs(jobs),
		watch.WithLogger(watchLogger),
		watch.WithMetrics(metrics),
		watch.WithRulesReload(rulesPath, reload),
	)

	printInfo(fmt.Sprintf("watching %s (settle %s, %d workers)", strings.Join(dirs, ", "), settle, jobs))
	printSubtle("rules: " + rulesPath)

	err = w.Run(cmd.Context())

	if !isQuiet() {
		fmt.Fprint(os.Stderr, "\n"+metrics.Summary())
	}
	return err
}
