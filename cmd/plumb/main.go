// Package main is the entry point for the plumb CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plumbfile/plumb/internal/cli"
)

// Version information set by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	cli.SetVersionInfo(version, commit, date)

	code := run(context.Background(), sigChan, cli.ExecuteContext, cli.Cleanup, os.Stderr, os.Exit)
	os.Exit(code)
}

// run executes the CLI under a cancelable context with coordinated shutdown.
// A first signal cancels the context and waits up to shutdownTimeout for the
// CLI to drain; a second signal or an expired timeout forces exit.
func run(
	ctx context.Context,
	sigChan chan os.Signal,
	execute func(context.Context) error,
	cleanup func(),
	stderr io.Writer,
	exit func(int),
) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})

	if sigChan != nil {
		go func() {
			select {
			case <-done:
				return
			case sig := <-sigChan:
				fmt.Fprintf(stderr, "\nReceived signal %v, initiating graceful shutdown...\n", sig)
				cancel()

				shutdownTimer := time.NewTimer(shutdownTimeout)
				defer shutdownTimer.Stop()

				select {
				case <-done:
					// Graceful shutdown completed
				case <-shutdownTimer.C:
					fmt.Fprintf(stderr, "\nShutdown timeout (%v) exceeded, forcing exit\n", shutdownTimeout)
					exit(1)
				case sig = <-sigChan:
					fmt.Fprintf(stderr, "\nReceived second signal %v, forcing exit\n", sig)
					exit(1)
				}
			}
		}()
	}

	var exitCode int
	if err := execute(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(stderr, "Operation canceled")
			exitCode = 130 // Standard exit code for SIGINT
		} else {
			// Print the error since SilenceErrors is enabled in cobra
			fmt.Fprintf(stderr, "Error: %v\n", err)
			exitCode = 1
		}
	}

	close(done)
	cancel()

	// Cleanup CLI resources (e.g., log file handles)
	cleanup()

	return exitCode
}
