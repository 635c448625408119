// Package watch routes files into the engine as they appear on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/observability"
)

// RouteFunc routes one settled file.
type RouteFunc func(ctx context.Context, path string) error

// Watcher drives routing from filesystem events. Files that appear in
// the watched directories route once they have settled; the rules file
// can be watched alongside for hot reload.
type Watcher struct {
	dirs    []string
	watched map[string]bool
	route   RouteFunc
	settle  time.Duration
	jobs    int
	logger  *log.Logger
	metrics *observability.Metrics

	rulesFile string
	onReload  func()
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets how long a file must stay quiet before routing.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) { w.settle = d }
}

// WithJobs sets the worker pool size.
func WithJobs(n int) Option {
	return func(w *Watcher) { w.jobs = n }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithMetrics sets the metrics sink for in-flight gauges.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Watcher) { w.metrics = m }
}

// WithRulesReload watches the rules file and calls onReload after it
// changes and settles. Sibling files in the rules directory are not
// routed.
func WithRulesReload(path string, onReload func()) Option {
	return func(w *Watcher) {
		w.rulesFile = filepath.Clean(path)
		w.onReload = onReload
	}
}

// NewWatcher creates a watcher over dirs that routes settled files
// through route.
func NewWatcher(dirs []string, route RouteFunc, opts ...Option) *Watcher {
	w := &Watcher{
		dirs:    dirs,
		watched: make(map[string]bool, len(dirs)),
		route:   route,
		settle:  500 * time.Millisecond,
		jobs:    4,
		logger:  log.Default(),
		metrics: observability.Global(),
	}
	for _, dir := range dirs {
		w.watched[filepath.Clean(dir)] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until the context is canceled. Workers drain in-flight
// routes before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	const op = "watch.Run"

	if len(w.dirs) == 0 {
		return perrors.Validation(op, "no directories to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return perrors.IOWrap(err, op, "failed to create watcher")
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			return perrors.IOWrap(err, op, fmt.Sprintf("failed to watch %s", dir))
		}
		w.logger.Debug("watching", "dir", dir)
	}

	if w.rulesFile != "" {
		// Watch the directory, not the file: editors often replace
		// the file instead of writing in place.
		if err := watcher.Add(filepath.Dir(w.rulesFile)); err != nil {
			w.logger.Warn("cannot watch rules file", "path", w.rulesFile, "error", err)
		} else {
			w.logger.Debug("watching rules file", "path", w.rulesFile)
		}
	}

	work := make(chan string, 64)
	g, gCtx := errgroup.WithContext(ctx)

	for i := 0; i < w.jobs; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gCtx.Done():
					return nil
				case path := <-work:
					w.routeOne(gCtx, path)
				}
			}
		})
	}

	g.Go(func() error {
		pending := newSettler(w.settle, func(path string) {
			select {
			case work <- path:
			case <-gCtx.Done():
			}
		})
		defer pending.stop()

		reload := newSettler(w.settle, func(string) {
			if w.onReload != nil {
				w.logger.Info("rules file changed, reloading")
				w.onReload()
			}
		})
		defer reload.stop()

		for {
			select {
			case <-gCtx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				w.handleEvent(pending, reload, event)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				w.logger.Error("watch error", "error", err)
			}
		}
	})

	return g.Wait()
}

func (w *Watcher) routeOne(ctx context.Context, path string) {
	w.metrics.IncrementActiveMessages()
	defer w.metrics.DecrementActiveMessages()

	if err := w.route(ctx, path); err != nil {
		w.logger.Error("routing failed", "path", path, "error", err)
		return
	}
	w.logger.Debug("routed", "path", path)
}

func (w *Watcher) handleEvent(pending, reload *settler, event fsnotify.Event) {
	name := filepath.Clean(event.Name)

	if w.rulesFile != "" && name == w.rulesFile {
		if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
			reload.touch(name)
		}
		return
	}

	// Only files inside the watched dirs route; the rules directory
	// may deliver events for unrelated siblings.
	if !w.watched[filepath.Dir(name)] {
		return
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		pending.cancel(name)
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return
	}

	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		return
	}

	pending.touch(name)
}
