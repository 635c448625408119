package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/plumbfile/plumb/internal/config"
	"github.com/plumbfile/plumb/internal/engine"
	"github.com/plumbfile/plumb/internal/rules"
)

func TestTraceCommand_Configuration(t *testing.T) {
	if traceCmd.Use != "trace <path>..." {
		t.Errorf("unexpected Use: %q", traceCmd.Use)
	}
	if traceCmd.Short == "" {
		t.Error("trace command has no Short description")
	}
	if traceCmd.RunE == nil {
		t.Error("trace command has no RunE")
	}
}

func TestTraceCommand_Flags(t *testing.T) {
	flags := []struct {
		name      string
		shorthand string
	}{
		{"var", ""},
		{"wdir", "w"},
	}
	for _, f := range flags {
		flag := traceCmd.Flags().Lookup(f.name)
		if flag == nil {
			t.Errorf("flag --%s not registered", f.name)
			continue
		}
		if flag.Shorthand != f.shorthand {
			t.Errorf("flag --%s: shorthand = %q, want %q", f.name, flag.Shorthand, f.shorthand)
		}
	}
}

// scanTrace evaluates src against a file name without touching the
// filesystem and returns the traced result.
func scanTrace(t *testing.T, src, data string) *engine.Result {
	t.Helper()
	set := rules.MustParse(src)
	eng := engine.New(set, engine.WithTrace())

	msg := engine.NewMessage(data)
	msg.Source = engine.SourceCLI

	res, err := eng.Scan(context.Background(), msg)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return res
}

func TestRenderTrace_MatchedRule(t *testing.T) {
	src := "rule music\n" +
		"\tglob \"*.mp3\" \"*.flac\"\n" +
		"\tcopyto \"/srv/music\"\n" +
		"\tstop\n" +
		"\n" +
		"rule rest\n" +
		"\tinspect all\n"
	res := scanTrace(t, src, "song.mp3")

	out := renderTrace(res, 2)
	for _, want := range []string{
		"song.mp3",
		"rule music",
		"(line 1)",
		"✓",
		"■",
		"1 later rules not reached",
		"queued actions:",
		"copyto",
		"/srv/music",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTrace_NoActions(t *testing.T) {
	src := "rule music\n" +
		"\tglob \"*.mp3\"\n" +
		"\tcopyto \"/srv/music\"\n"
	res := scanTrace(t, src, "notes.txt")

	out := renderTrace(res, 1)
	if !strings.Contains(out, "✗") {
		t.Errorf("failed condition not marked:\n%s", out)
	}
	if !strings.Contains(out, "no actions queued") {
		t.Errorf("empty pending list not reported:\n%s", out)
	}
	if strings.Contains(out, "not reached") {
		t.Errorf("every rule was reached, none should be skipped:\n%s", out)
	}
}

func TestRenderTraceStep_Symbols(t *testing.T) {
	tests := []struct {
		name string
		step engine.StepTrace
		want string
	}{
		{"condition passed", engine.StepTrace{Kind: "condition", Text: `glob "*.mp3"`, Passed: true}, "✓"},
		{"condition failed", engine.StepTrace{Kind: "condition", Text: "is file"}, "✗"},
		{"assign", engine.StepTrace{Kind: "assign", Text: `dest = "/srv"`}, "="},
		{"stop", engine.StepTrace{Kind: "stop", Text: "stop"}, "■"},
		{"action", engine.StepTrace{Kind: "copyto", Text: `copyto "/srv"`}, "→"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := renderTraceStep(tt.step)
			if !strings.Contains(out, tt.want) {
				t.Errorf("renderTraceStep = %q, missing %q", out, tt.want)
			}
			if !strings.Contains(out, tt.step.Text) {
				t.Errorf("renderTraceStep = %q, missing the step text", out)
			}
		})
	}
}

func TestRenderTraceStep_Bindings(t *testing.T) {
	st := engine.StepTrace{
		Kind:   "condition",
		Text:   `match "{$show} - {$ep}"`,
		Passed: true,
		Bound:  map[string]string{"show": "severance", "ep": "s01e02"},
	}
	out := renderTraceStep(st)
	if !strings.Contains(out, "binds $ep=s01e02 $show=severance") {
		t.Errorf("bindings not rendered sorted by name: %q", out)
	}
}

func TestFormatBindings_Sorted(t *testing.T) {
	got := formatBindings(map[string]string{"z": "1", "a": "2", "m": "3"})
	if got != "$a=2 $m=3 $z=1" {
		t.Errorf("formatBindings = %q, want sorted names", got)
	}
}

func TestDescribeAction(t *testing.T) {
	tests := []struct {
		name   string
		action engine.Action
		want   []string
	}{
		{
			"copy",
			engine.Action{Kind: engine.ActionCopy, Source: "a.mp3", Dest: "/srv/music", Rule: "music", Line: 4},
			[]string{"copyto a.mp3", "/srv/music", "rule music", "line 4"},
		},
		{
			"move",
			engine.Action{Kind: engine.ActionMove, Source: "b.iso", Dest: "/srv/images", Rule: "images", Line: 9},
			[]string{"moveto b.iso", "/srv/images"},
		},
		{
			"inspect value",
			engine.Action{Kind: engine.ActionInspect, Value: "archive", Rule: "tag", Line: 2},
			[]string{`inspect "archive"`},
		},
		{
			"inspect all",
			engine.Action{Kind: engine.ActionInspect, All: map[string]string{"name": "x"}, Rule: "dump", Line: 3},
			[]string{"inspect all"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeAction(tt.action)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("describeAction = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestRunTrace_WritesTrace(t *testing.T) {
	path := writeTempRules(t, "rule music\n\tglob \"*.mp3\"\n\tmoveto \"/srv/music\"\n\tstop\n")

	oldRules, oldCfg, oldVars := rulesFile, cfg, traceVars
	rulesFile, cfg, traceVars = path, config.DefaultConfig(), nil
	defer func() { rulesFile, cfg, traceVars = oldRules, oldCfg, oldVars }()

	var buf bytes.Buffer
	traceCmd.SetOut(&buf)
	defer traceCmd.SetOut(nil)
	traceCmd.SetContext(context.Background())

	if err := runTrace(traceCmd, []string{"take5.mp3"}); err != nil {
		t.Fatalf("runTrace: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"take5.mp3", "rule music", "queued actions:", "moveto"} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%s", want, out)
		}
	}
}
