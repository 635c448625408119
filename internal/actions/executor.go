// Package actions executes the pending actions of a routing pass.
// Inspect actions write diagnostics; copyto and moveto delegate to an
// external transfer tool, with every transfer to the same destination
// in the same mode consolidated into one invocation.
package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/plumbfile/plumb/internal/engine"
	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/observability"
)

// TransferGroup is one consolidated transfer: every source headed to
// the same destination in the same mode.
type TransferGroup struct {
	Move    bool
	Dest    string
	Sources []string
}

// Transfer runs one consolidated transfer group.
type Transfer interface {
	Run(ctx context.Context, group TransferGroup) error
}

// Executor runs action batches from the engine. Failures are reported
// per action group and do not stop the rest of the batch.
type Executor struct {
	transfer Transfer
	out      io.Writer
	logger   *log.Logger
	metrics  *observability.Metrics
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTransfer sets the transfer implementation.
func WithTransfer(t Transfer) ExecutorOption {
	return func(e *Executor) { e.transfer = t }
}

// WithOutput sets the writer inspect actions print to.
func WithOutput(w io.Writer) ExecutorOption {
	return func(e *Executor) { e.out = w }
}

// WithLogger sets the logger for per-action failure reports.
func WithLogger(l *log.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// WithMetrics sets the metrics sink for action counters.
func WithMetrics(m *observability.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an executor that transfers with rsync, prints
// inspect output to stdout, and records counters on the global metrics.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		transfer: NewRsyncTransfer(),
		out:      os.Stdout,
		metrics:  observability.Global(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// workItem is one unit of ordered work: either a single inspect or a
// consolidated transfer group.
type workItem struct {
	inspect *engine.Action
	group   *TransferGroup
}

type groupKey struct {
	dest string
	move bool
}

// plan orders the batch: transfers join the group for their
// (destination, mode) pair, placed where the group first appeared;
// inspects stay exactly where they were queued.
func plan(actions []engine.Action) []workItem {
	var items []workItem
	groups := make(map[groupKey]*TransferGroup)
	for i := range actions {
		a := &actions[i]
		switch a.Kind {
		case engine.ActionInspect:
			items = append(items, workItem{inspect: a})
		case engine.ActionCopy, engine.ActionMove:
			key := groupKey{dest: a.Dest, move: a.Kind == engine.ActionMove}
			g, ok := groups[key]
			if !ok {
				g = &TransferGroup{Move: key.move, Dest: a.Dest}
				groups[key] = g
				items = append(items, workItem{group: g})
			}
			g.Sources = append(g.Sources, a.Source)
		}
	}
	return items
}

// Execute implements engine.Executor.
func (e *Executor) Execute(ctx context.Context, actions []engine.Action) error {
	var errs []error
	for _, item := range plan(actions) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, perrors.Wrap(err, perrors.KindCanceled, "actions.Execute", "execution canceled"))
			break
		}

		var err error
		switch {
		case item.inspect != nil:
			err = writeInspect(e.out, item.inspect)
		case item.group != nil:
			err = e.runGroup(ctx, item.group)
		}

		if err != nil {
			errs = append(errs, err)
			e.metrics.RecordActions(0, 1)
			continue
		}
		e.metrics.RecordActions(1, 0)
	}
	return errors.Join(errs...)
}

func (e *Executor) runGroup(ctx context.Context, g *TransferGroup) error {
	if err := e.transfer.Run(ctx, *g); err != nil {
		if e.logger != nil {
			e.logger.Error("transfer failed",
				"dest", g.Dest,
				"sources", len(g.Sources),
				"move", g.Move,
				"error", err)
		}
		return perrors.ExecutionWrap(err, "actions.Execute", fmt.Sprintf("transfer to %s", g.Dest))
	}
	if e.logger != nil {
		e.logger.Debug("transfer done", "dest", g.Dest, "sources", len(g.Sources), "move", g.Move)
	}
	return nil
}

// writeInspect prints one inspect action: key=value lines sorted by
// key for a full dump, the bare value otherwise.
func writeInspect(w io.Writer, a *engine.Action) error {
	if a.All == nil {
		_, err := fmt.Fprintln(w, a.Value)
		return err
	}
	keys := make([]string, 0, len(a.All))
	for k := range a.All {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, a.All[k]); err != nil {
			return err
		}
	}
	return nil
}
