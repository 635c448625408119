// Package integration provides integration test utilities and fixtures.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/plumbfile/plumb/internal/actions"
	"github.com/plumbfile/plumb/internal/rules"
)

// TestTree is a temporary directory tree that files are routed out of.
// It is cleaned up when the test completes.
type TestTree struct {
	t   testing.TB
	Dir string
}

// NewTestTree creates a temporary directory for routing tests.
func NewTestTree(t testing.TB) *TestTree {
	t.Helper()
	return &TestTree{t: t, Dir: t.TempDir()}
}

// WriteFile writes a file under the tree, creating parent directories,
// and returns its full path.
func (tt *TestTree) WriteFile(rel, content string) string {
	tt.t.Helper()
	full := filepath.Join(tt.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		tt.t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		tt.t.Fatalf("failed to write %s: %v", rel, err)
	}
	return full
}

// MkDir creates a directory under the tree and returns its full path.
func (tt *TestTree) MkDir(rel string) string {
	tt.t.Helper()
	full := filepath.Join(tt.Dir, rel)
	if err := os.MkdirAll(full, 0o755); err != nil {
		tt.t.Fatalf("failed to create directory %s: %v", rel, err)
	}
	return full
}

// Path returns the full path of an entry under the tree.
func (tt *TestTree) Path(rel string) string {
	return filepath.Join(tt.Dir, rel)
}

// WriteRules writes a rules file under the tree, failing the test if
// the fixture itself does not parse.
func (tt *TestTree) WriteRules(content string) string {
	tt.t.Helper()
	if _, err := rules.Parse(content); err != nil {
		tt.t.Fatalf("fixture rules do not parse: %v", err)
	}
	return tt.WriteFile("rules", content)
}

// Exists reports whether an entry under the tree exists.
func (tt *TestTree) Exists(rel string) bool {
	_, err := os.Stat(tt.Path(rel))
	return err == nil
}

// recordingTransfer captures consolidated transfer groups instead of
// running rsync.
type recordingTransfer struct {
	groups []actions.TransferGroup
	fail   error
}

func (r *recordingTransfer) Run(_ context.Context, g actions.TransferGroup) error {
	if r.fail != nil {
		return r.fail
	}
	r.groups = append(r.groups, g)
	return nil
}

// mapEnv is a deterministic environment provider for env lookups.
type mapEnv map[string]string

func (m mapEnv) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
