package integration

import (
	"context"
	"testing"
	"time"

	"github.com/plumbfile/plumb/internal/watch"
)

func TestWatchFlow_RoutesArrivals(t *testing.T) {
	tree := NewTestTree(t)
	routed := make(chan string, 8)

	w := watch.NewWatcher([]string{tree.Dir}, func(ctx context.Context, path string) error {
		routed <- path
		return nil
	}, watch.WithSettle(50*time.Millisecond), watch.WithJobs(2))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)
	want := tree.WriteFile("take5.mp3", "not really audio")

	select {
	case got := <-routed:
		if got != want {
			t.Errorf("routed %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("file was never routed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v on clean shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not shut down")
	}
}
