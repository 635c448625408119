package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/rules"
)

func TestInitCommand_Configuration(t *testing.T) {
	if initCmd.Use != "init" {
		t.Errorf("unexpected Use: %q", initCmd.Use)
	}
	if initCmd.RunE == nil {
		t.Error("init command has no RunE")
	}

	flags := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"force", "f", "false"},
		{"downloads", "", ""},
		{"dest", "", ""},
	}
	for _, f := range flags {
		flag := initCmd.Flags().Lookup(f.name)
		if flag == nil {
			t.Errorf("flag --%s not registered", f.name)
			continue
		}
		if flag.Shorthand != f.shorthand {
			t.Errorf("flag --%s: shorthand = %q, want %q", f.name, flag.Shorthand, f.shorthand)
		}
		if flag.DefValue != f.defValue {
			t.Errorf("flag --%s: default = %q, want %q", f.name, flag.DefValue, f.defValue)
		}
	}
}

// setInitFlags marks the scripted-setup flags as explicitly set, which
// is what routes runInit past the wizard. Flag state is restored when
// the test ends.
func setInitFlags(t *testing.T, downloads, dest string) {
	t.Helper()
	flags := initCmd.Flags()
	if downloads != "" {
		if err := flags.Set("downloads", downloads); err != nil {
			t.Fatalf("setting --downloads: %v", err)
		}
	}
	if dest != "" {
		if err := flags.Set("dest", dest); err != nil {
			t.Fatalf("setting --dest: %v", err)
		}
	}
	t.Cleanup(func() {
		for _, name := range []string{"downloads", "dest"} {
			f := flags.Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
}

func TestRunInit_Scripted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plumb", "rules")

	oldRules, oldForce, oldQuiet := rulesFile, initForce, quiet
	rulesFile, initForce, quiet = path, false, true
	defer func() { rulesFile, initForce, quiet = oldRules, oldForce, oldQuiet }()
	setInitFlags(t, "/data/incoming", "/srv/media")

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading generated rules: %v", err)
	}
	content := string(data)
	for _, want := range []string{`dest = "/srv/media"`, "rule videos", "plumb watch /data/incoming"} {
		if !strings.Contains(content, want) {
			t.Errorf("generated rules missing %q", want)
		}
	}

	set, err := rules.Parse(content)
	if err != nil {
		t.Fatalf("generated rules do not parse: %v", err)
	}
	if len(set.Rules) != 6 {
		t.Errorf("generated %d rules, want 6", len(set.Rules))
	}
}

func TestRunInit_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules")
	if err := os.WriteFile(path, []byte("# mine\n"), 0o644); err != nil {
		t.Fatalf("seeding rules file: %v", err)
	}

	oldRules, oldForce, oldQuiet := rulesFile, initForce, quiet
	rulesFile, initForce, quiet = path, false, true
	defer func() { rulesFile, initForce, quiet = oldRules, oldForce, oldQuiet }()
	setInitFlags(t, "", "/srv/media")

	err := runInit(initCmd, nil)
	if err == nil {
		t.Fatal("expected an error for an existing rules file")
	}
	if !perrors.IsKind(err, perrors.KindConfig) {
		t.Errorf("error kind = %v, want config", perrors.GetKind(err))
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		t.Fatalf("reading rules file: %v", readErr)
	}
	if string(data) != "# mine\n" {
		t.Error("existing rules file was modified without --force")
	}
}

func TestRunInit_ForceOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules")
	if err := os.WriteFile(path, []byte("# mine\n"), 0o644); err != nil {
		t.Fatalf("seeding rules file: %v", err)
	}

	oldRules, oldForce, oldQuiet := rulesFile, initForce, quiet
	rulesFile, initForce, quiet = path, true, true
	defer func() { rulesFile, initForce, quiet = oldRules, oldForce, oldQuiet }()
	setInitFlags(t, "", "/srv/media")

	if err := runInit(initCmd, nil); err != nil {
		t.Fatalf("runInit: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading rules file: %v", err)
	}
	if !strings.Contains(string(data), "rule videos") {
		t.Error("rules file was not overwritten with --force")
	}
}
