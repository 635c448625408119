package cli

import (
	"strings"
	"testing"

	"github.com/plumbfile/plumb/internal/actions"
	"github.com/plumbfile/plumb/internal/config"
	"github.com/plumbfile/plumb/internal/engine"
)

func TestRouteCommand_Configuration(t *testing.T) {
	if routeCmd == nil {
		t.Fatal("routeCmd is nil")
	}
	if routeCmd.Name() != "route" {
		t.Errorf("routeCmd.Name() = %v, want route", routeCmd.Name())
	}
	if routeCmd.RunE == nil {
		t.Error("routeCmd.RunE is nil")
	}
}

func TestRouteCommand_FlagsExist(t *testing.T) {
	tests := []struct {
		name     string
		flagName string
	}{
		{"dry-run flag", "dry-run"},
		{"var flag", "var"},
		{"jobs flag", "jobs"},
		{"wdir flag", "wdir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := routeCmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Errorf("route command missing %s flag", tt.flagName)
			}
		})
	}
}

func TestRouteCommand_FlagShorthands(t *testing.T) {
	tests := []struct {
		flagName      string
		wantShorthand string
	}{
		{"dry-run", "n"},
		{"jobs", "j"},
		{"wdir", "w"},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := routeCmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("%s flag not found", tt.flagName)
			}
			if flag.Shorthand != tt.wantShorthand {
				t.Errorf("%s flag shorthand = %v, want %v", tt.flagName, flag.Shorthand, tt.wantShorthand)
			}
		})
	}
}

func TestGatherInputs_Args(t *testing.T) {
	inputs, err := gatherInputs([]string{"a.txt", "b.txt"}, strings.NewReader(""))
	if err != nil {
		t.Fatalf("gatherInputs() error = %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("len(inputs) = %d, want 2", len(inputs))
	}
	for i, want := range []string{"a.txt", "b.txt"} {
		if inputs[i].path != want {
			t.Errorf("inputs[%d].path = %v, want %v", i, inputs[i].path, want)
		}
		if inputs[i].source != engine.SourceCLI {
			t.Errorf("inputs[%d].source = %v, want %v", i, inputs[i].source, engine.SourceCLI)
		}
	}
}

func TestGatherInputs_Stdin(t *testing.T) {
	stdin := strings.NewReader("one.mkv\n\n  two.mp3  \n")
	inputs, err := gatherInputs([]string{"-"}, stdin)
	if err != nil {
		t.Fatalf("gatherInputs() error = %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("len(inputs) = %d, want 2 (blank lines skipped)", len(inputs))
	}
	if inputs[0].path != "one.mkv" || inputs[1].path != "two.mp3" {
		t.Errorf("paths = %v, %v; want one.mkv, two.mp3", inputs[0].path, inputs[1].path)
	}
	for i := range inputs {
		if inputs[i].source != engine.SourceStdin {
			t.Errorf("inputs[%d].source = %v, want %v", i, inputs[i].source, engine.SourceStdin)
		}
	}
}

func TestGatherInputs_MixedArgsAndStdin(t *testing.T) {
	stdin := strings.NewReader("middle.txt\n")
	inputs, err := gatherInputs([]string{"first.txt", "-", "last.txt"}, stdin)
	if err != nil {
		t.Fatalf("gatherInputs() error = %v", err)
	}
	got := make([]string, len(inputs))
	for i, in := range inputs {
		got[i] = in.path
	}
	want := []string{"first.txt", "middle.txt", "last.txt"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("inputs[%d].path = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGatherInputs_DuplicateStdin(t *testing.T) {
	if _, err := gatherInputs([]string{"-", "-"}, strings.NewReader("")); err == nil {
		t.Error("gatherInputs() should reject a second -")
	}
}

func TestParseVars(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "simple pair",
			pairs: []string{"dest=/srv/media"},
			want:  map[string]string{"dest": "/srv/media"},
		},
		{
			name:  "empty value",
			pairs: []string{"flag="},
			want:  map[string]string{"flag": ""},
		},
		{
			name:  "value containing equals",
			pairs: []string{"expr=a=b"},
			want:  map[string]string{"expr": "a=b"},
		},
		{
			name:  "nil input",
			pairs: nil,
			want:  nil,
		},
		{
			name:    "missing equals",
			pairs:   []string{"dest"},
			wantErr: true,
		},
		{
			name:    "empty name",
			pairs:   []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVars(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVars() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseVars() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("parseVars()[%q] = %v, want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestEngineOptions(t *testing.T) {
	origCfg := cfg
	defer func() { cfg = origCfg }()

	cfg = config.DefaultConfig()
	if got := engineOptions(nil); len(got) != 0 {
		t.Errorf("engineOptions(nil) with no config vars = %d options, want 0", len(got))
	}

	cfg.Rules.Vars = map[string]string{"dest": "/srv"}
	if got := engineOptions(map[string]string{"extra": "1"}); len(got) != 2 {
		t.Errorf("engineOptions() = %d options, want 2", len(got))
	}
}

func TestBuildExecutor(t *testing.T) {
	origCfg := cfg
	defer func() { cfg = origCfg }()
	cfg = config.DefaultConfig()

	if _, ok := buildExecutor(true).(*actions.DryRun); !ok {
		t.Error("buildExecutor(true) should return a dry-run executor")
	}
	if _, ok := buildExecutor(false).(*actions.Executor); !ok {
		t.Error("buildExecutor(false) should return the real executor")
	}

	cfg.Route.DryRun = true
	if _, ok := buildExecutor(false).(*actions.DryRun); !ok {
		t.Error("buildExecutor(false) should honor route.dry_run from config")
	}
}
