package actions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/plumbfile/plumb/internal/observability"
)

// CommandRunner runs one external command and returns its combined
// output. Tests inject a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// RsyncTransfer shells out to rsync, one invocation per consolidated
// group, with bounded retries for transient failures and a best-effort
// free-space preflight on local destinations.
type RsyncTransfer struct {
	command    string
	args       []string
	runner     CommandRunner
	retrier    retry.Retry[string]
	checkSpace bool
	metrics    *observability.Metrics
}

// RsyncOption configures an RsyncTransfer.
type RsyncOption func(*RsyncTransfer)

// WithCommand overrides the transfer command and its base arguments.
func WithCommand(command string, baseArgs ...string) RsyncOption {
	return func(t *RsyncTransfer) {
		t.command = command
		t.args = baseArgs
	}
}

// WithRunner sets the command runner.
func WithRunner(r CommandRunner) RsyncOption {
	return func(t *RsyncTransfer) { t.runner = r }
}

// WithRetry enables retries for transient transfer failures.
func WithRetry(maxAttempts int, initialDelay, maxDelay time.Duration) RsyncOption {
	return func(t *RsyncTransfer) {
		t.retrier = retry.New[string](retry.Config{
			MaxAttempts:   maxAttempts,
			InitialDelay:  initialDelay,
			MaxDelay:      maxDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    2.0,
			Jitter:        true,
			IsRetryable:   isTransientError,
		})
	}
}

// WithSpaceCheck toggles the destination free-space preflight.
func WithSpaceCheck(enabled bool) RsyncOption {
	return func(t *RsyncTransfer) { t.checkSpace = enabled }
}

// WithTransferMetrics sets the metrics sink for transferred bytes.
func WithTransferMetrics(m *observability.Metrics) RsyncOption {
	return func(t *RsyncTransfer) { t.metrics = m }
}

// NewRsyncTransfer creates a transfer backed by "rsync -vaP".
func NewRsyncTransfer(opts ...RsyncOption) *RsyncTransfer {
	t := &RsyncTransfer{
		command:    "rsync",
		args:       []string{"-vaP"},
		runner:     execRunner{},
		checkSpace: true,
		metrics:    observability.Global(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Command returns the argv that Run would execute for a group.
// Moves add --remove-source-files so rsync deletes each source after
// it lands.
func (t *RsyncTransfer) Command(g TransferGroup) []string {
	argv := make([]string, 0, len(t.args)+len(g.Sources)+3)
	argv = append(argv, t.command)
	argv = append(argv, t.args...)
	if g.Move {
		argv = append(argv, "--remove-source-files")
	}
	argv = append(argv, g.Sources...)
	argv = append(argv, g.Dest)
	return argv
}

// Run implements Transfer.
func (t *RsyncTransfer) Run(ctx context.Context, g TransferGroup) error {
	if len(g.Sources) == 0 {
		return nil
	}

	size := groupSize(g)
	if t.checkSpace {
		if err := t.preflight(g, size); err != nil {
			return err
		}
	}

	argv := t.Command(g)
	run := func(ctx context.Context) (string, error) {
		out, err := t.runner.Run(ctx, argv[0], argv[1:]...)
		if err != nil {
			msg := strings.TrimSpace(string(out))
			if msg == "" {
				return "", fmt.Errorf("%s: %w", argv[0], err)
			}
			return "", fmt.Errorf("%s: %w: %s", argv[0], err, msg)
		}
		return string(out), nil
	}

	var err error
	if t.retrier != nil {
		_, err = t.retrier.Do(ctx, run)
	} else {
		_, err = run(ctx)
	}
	if err != nil {
		return err
	}
	t.metrics.RecordTransfer(len(g.Sources), size)
	return nil
}

// isTransientError reports whether a transfer failure is worth
// retrying. Context cancellation and final rsync exit codes are not.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		switch exitErr.ExitCode() {
		// 10 socket I/O, 11 file I/O, 12 protocol stream, 23 partial
		// transfer, 30 timeout, 35 daemon connect timeout
		case 10, 11, 12, 23, 30, 35:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"connection", "timeout", "temporarily", "broken pipe"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}
