package actions

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/plumbfile/plumb/internal/engine"
)

// DryRun prints what a batch would do without executing anything: one
// shell-quoted command line per consolidated transfer, plus the usual
// inspect output.
type DryRun struct {
	rsync *RsyncTransfer
	out   io.Writer
}

// NewDryRun creates a dry-run executor printing to out. The rsync
// options shape the printed command lines exactly as a real executor
// configured the same way would run them.
func NewDryRun(out io.Writer, opts ...RsyncOption) *DryRun {
	if out == nil {
		out = os.Stdout
	}
	return &DryRun{
		rsync: NewRsyncTransfer(opts...),
		out:   out,
	}
}

// Execute implements engine.Executor.
func (d *DryRun) Execute(_ context.Context, actions []engine.Action) error {
	for _, item := range plan(actions) {
		switch {
		case item.inspect != nil:
			if err := writeInspect(d.out, item.inspect); err != nil {
				return err
			}
		case item.group != nil:
			if _, err := fmt.Fprintln(d.out, ShellJoin(d.rsync.Command(*item.group))); err != nil {
				return err
			}
		}
	}
	return nil
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9@%+=:,./_-]+$`)

// ShellJoin renders argv as a copy-pasteable shell command line,
// single-quoting any argument that needs it.
func ShellJoin(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = shellQuote(a)
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
