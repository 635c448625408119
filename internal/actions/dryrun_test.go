package actions

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plumbfile/plumb/internal/engine"
)

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"/media/tv/show.mkv", "/media/tv/show.mkv"},
		{"user@host:path", "user@host:path"},
		{"", "''"},
		{"with space", "'with space'"},
		{"it's", `'it'"'"'s'`},
		{"$HOME", "'$HOME'"},
		{"glob*", "'glob*'"},
		{"a;b", "'a;b'"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, shellQuote(tt.in))
		})
	}
}

func TestShellJoin(t *testing.T) {
	got := ShellJoin([]string{"rsync", "-vaP", "my file.txt", "/dest"})
	assert.Equal(t, "rsync -vaP 'my file.txt' /dest", got)
}

func TestDryRun_PrintsCommands(t *testing.T) {
	var out bytes.Buffer
	d := NewDryRun(&out)

	err := d.Execute(context.Background(), []engine.Action{
		{Kind: engine.ActionCopy, Source: "episode 01.mkv", Dest: "/media/tv"},
		{Kind: engine.ActionMove, Source: "old.iso", Dest: "/archive"},
		{Kind: engine.ActionInspect, Value: "routed"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"rsync -vaP 'episode 01.mkv' /media/tv\n"+
			"rsync -vaP --remove-source-files old.iso /archive\n"+
			"routed\n",
		out.String())
}

func TestDryRun_ConsolidatesLikeExecutor(t *testing.T) {
	var out bytes.Buffer
	d := NewDryRun(&out)

	err := d.Execute(context.Background(), []engine.Action{
		{Kind: engine.ActionCopy, Source: "a", Dest: "/x"},
		{Kind: engine.ActionCopy, Source: "b", Dest: "/x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "rsync -vaP a b /x\n", out.String())
}

func TestDryRun_CustomCommand(t *testing.T) {
	var out bytes.Buffer
	d := NewDryRun(&out, WithCommand("cp", "-r"))

	err := d.Execute(context.Background(), []engine.Action{
		{Kind: engine.ActionCopy, Source: "a", Dest: "/x"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cp -r a /x\n", out.String())
}

func TestDryRun_NeverExecutes(t *testing.T) {
	var out bytes.Buffer
	fr := &fakeRunner{}
	d := NewDryRun(&out, WithRunner(fr))

	err := d.Execute(context.Background(), []engine.Action{
		{Kind: engine.ActionCopy, Source: "a", Dest: "/x"},
	})
	require.NoError(t, err)
	assert.Empty(t, fr.calls)
}

func TestDryRun_InspectAll(t *testing.T) {
	var out bytes.Buffer
	d := NewDryRun(&out)

	err := d.Execute(context.Background(), []engine.Action{
		{Kind: engine.ActionInspect, All: map[string]string{"id": "m-1", "data": "x"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "data=x\nid=m-1\n", out.String())
}
