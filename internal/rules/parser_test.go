package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, source string) *Rule {
	t.Helper()
	set, err := Parse(source)
	require.NoError(t, err)
	require.Len(t, set.Rules, 1)
	return set.Rules[0]
}

func TestParser_EmptyInput(t *testing.T) {
	tests := []string{"", "\n\n", "# only a comment\n", "  \t\n# note\n\n"}
	for _, input := range tests {
		set, err := Parse(input)
		require.NoError(t, err)
		assert.Empty(t, set.Rules)
	}
}

func TestParser_SimpleRule(t *testing.T) {
	rule := parseOne(t, `rule downloads
glob "*.html"
moveto "/srv/www"
stop
`)

	assert.Equal(t, "downloads", rule.Name)
	require.Len(t, rule.Steps, 3)

	cond, ok := rule.Steps[0].(*ConditionStep)
	require.True(t, ok)
	glob, ok := cond.Cond.(*GlobExpr)
	require.True(t, ok)
	assert.Nil(t, glob.Target)
	require.Len(t, glob.Patterns, 1)
	lit, ok := glob.Patterns[0].(*LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "*.html", lit.Value)

	move, ok := rule.Steps[1].(*MoveToStep)
	require.True(t, ok)
	dest, ok := move.Dest.(*LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "/srv/www", dest.Value)

	_, ok = rule.Steps[2].(*StopStep)
	require.True(t, ok)
}

func TestParser_MultipleRules(t *testing.T) {
	set, err := Parse(`rule first
glob *.py

rule second
glob *.txt
copyto /tmp
`)
	require.NoError(t, err)
	require.Len(t, set.Rules, 2)
	assert.Equal(t, "first", set.Rules[0].Name)
	assert.Equal(t, "second", set.Rules[1].Name)
	assert.Len(t, set.Rules[0].Steps, 1)
	assert.Len(t, set.Rules[1].Steps, 2)
}

func TestParser_QuotedRuleName(t *testing.T) {
	rule := parseOne(t, `rule "junk drawer"
glob *.tmp
`)
	assert.Equal(t, "junk drawer", rule.Name)
}

func TestParser_EmptyRule(t *testing.T) {
	set, err := Parse("rule placeholder\n")
	require.NoError(t, err)
	require.Len(t, set.Rules, 1)
	assert.Empty(t, set.Rules[0].Steps)
}

func TestParser_CaseInsensitiveKeywords(t *testing.T) {
	rule := parseOne(t, `RULE shouting
GLOB "*.WAV"
MOVETO /srv/audio
STOP
`)
	assert.Equal(t, "shouting", rule.Name)
	require.Len(t, rule.Steps, 3)
}

func TestParser_Precedence(t *testing.T) {
	// or binds loosest: a or (b and c)
	rule := parseOne(t, `rule p
glob *.a or glob *.b and glob *.c
`)
	cond := rule.Steps[0].(*ConditionStep)
	or, ok := cond.Cond.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "or", or.Operator)

	_, ok = or.Left.(*GlobExpr)
	assert.True(t, ok)

	and, ok := or.Right.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "and", and.Operator)
}

func TestParser_NotBindsTightest(t *testing.T) {
	// (not a) and b
	rule := parseOne(t, `rule p
not glob *.a and glob *.b
`)
	cond := rule.Steps[0].(*ConditionStep)
	and, ok := cond.Cond.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "and", and.Operator)

	not, ok := and.Left.(*UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, "not", not.Operator)
}

func TestParser_ParensOverridePrecedence(t *testing.T) {
	// not (a or b)
	rule := parseOne(t, `rule p
not (glob *.a or glob *.b)
`)
	cond := rule.Steps[0].(*ConditionStep)
	not, ok := cond.Cond.(*UnaryExpr)
	require.True(t, ok)

	or, ok := not.Operand.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "or", or.Operator)
}

func TestParser_ConditionTarget(t *testing.T) {
	rule := parseOne(t, `rule p
$src glob "incoming/*" and "{$data}.bak" is file
`)
	cond := rule.Steps[0].(*ConditionStep)
	and := cond.Cond.(*BinaryExpr)

	glob := and.Left.(*GlobExpr)
	target, ok := glob.Target.(*VarExpr)
	require.True(t, ok)
	assert.Equal(t, "src", target.Name)

	is := and.Right.(*IsExpr)
	require.NotNil(t, is.Target)
	concat, ok := is.Target.(*ConcatExpr)
	require.True(t, ok)
	assert.Len(t, concat.Parts, 2)
	assert.Equal(t, TypeFile, is.Type)
}

func TestParser_MultiPatternGlob(t *testing.T) {
	rule := parseOne(t, `rule p
glob *.tar.gz *.tgz "*.tar.bz2"
`)
	cond := rule.Steps[0].(*ConditionStep)
	glob := cond.Cond.(*GlobExpr)
	require.Len(t, glob.Patterns, 3)

	// Patterns stop at a boolean operator
	rule = parseOne(t, `rule q
glob *.a *.b and is file
`)
	and := rule.Steps[0].(*ConditionStep).Cond.(*BinaryExpr)
	glob = and.Left.(*GlobExpr)
	assert.Len(t, glob.Patterns, 2)
}

func TestParser_IsTypes(t *testing.T) {
	tests := []struct {
		input    string
		expected FileType
	}{
		{"is file", TypeFile},
		{"is dir", TypeDir},
		{"is DIR", TypeDir},
		{"is pipe", TypeFifo},
		{"is fifo", TypeFifo},
		{"is socket", TypeSock},
		{"is link", TypeSymlink},
		{"is whiteout", TypeWhiteout},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rule := parseOne(t, "rule p\n"+tt.input+"\n")
			is := rule.Steps[0].(*ConditionStep).Cond.(*IsExpr)
			assert.Equal(t, tt.expected, is.Type)
		})
	}
}

func TestParser_GrepLimits(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{`grep "x"`, 0},
		{`grep(512) "x"`, 512},
		{`grep(512 b) "x"`, 512},
		{`grep(64 kb) "x"`, 64_000},
		{`grep(64 KB) "x"`, 64_000},
		{`grep(64 kib) "x"`, 65_536},
		{`grep(2 mb) "x"`, 2_000_000},
		{`grep(2 mib) "x"`, 2 * 1024 * 1024},
		{`grep(1 gb) "x"`, 1_000_000_000},
		{`grep(1 gib) "x"`, 1 << 30},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rule := parseOne(t, "rule p\n"+tt.input+"\n")
			grep := rule.Steps[0].(*ConditionStep).Cond.(*GrepExpr)
			assert.Equal(t, tt.expected, grep.Limit)
		})
	}
}

func TestParser_Assignment(t *testing.T) {
	rule := parseOne(t, `rule p
dest = "{env HOME}/games"
moveto $dest
`)
	require.Len(t, rule.Steps, 2)

	assign, ok := rule.Steps[0].(*AssignStep)
	require.True(t, ok)
	assert.Equal(t, "dest", assign.Name)
	_, ok = assign.Value.(*ConcatExpr)
	assert.True(t, ok)

	move := rule.Steps[1].(*MoveToStep)
	v, ok := move.Dest.(*VarExpr)
	require.True(t, ok)
	assert.Equal(t, "dest", v.Name)
}

func TestParser_Inspect(t *testing.T) {
	rule := parseOne(t, `rule p
inspect all
inspect $data
inspect "all"
`)
	require.Len(t, rule.Steps, 3)

	all := rule.Steps[0].(*InspectStep)
	assert.True(t, all.All)
	assert.Nil(t, all.Value)

	one := rule.Steps[1].(*InspectStep)
	assert.False(t, one.All)
	v := one.Value.(*VarExpr)
	assert.Equal(t, "data", v.Name)

	// Quoting defeats the contextual keyword
	quoted := rule.Steps[2].(*InspectStep)
	assert.False(t, quoted.All)
	lit := quoted.Value.(*LiteralExpr)
	assert.Equal(t, "all", lit.Value)
}

func TestParser_InterpolationFolding(t *testing.T) {
	// Constant spans fold into a single literal at parse time
	rule := parseOne(t, `rule p
copyto "a{"b"}c"
`)
	copyto := rule.Steps[0].(*CopyToStep)
	lit, ok := copyto.Dest.(*LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, "abc", lit.Value)
}

func TestParser_InterpolationParts(t *testing.T) {
	rule := parseOne(t, `rule p
copyto "{env HOME}/games/{$dir}"
`)
	copyto := rule.Steps[0].(*CopyToStep)
	concat, ok := copyto.Dest.(*ConcatExpr)
	require.True(t, ok)
	require.Len(t, concat.Parts, 3)

	env, ok := concat.Parts[0].(*EnvExpr)
	require.True(t, ok)
	name := env.Name.(*LiteralExpr)
	assert.Equal(t, "HOME", name.Value)

	mid := concat.Parts[1].(*LiteralExpr)
	assert.Equal(t, "/games/", mid.Value)

	v := concat.Parts[2].(*VarExpr)
	assert.Equal(t, "dir", v.Name)
}

func TestParser_NestedInterpolation(t *testing.T) {
	rule := parseOne(t, `rule p
copyto "{env "PLUMB{$suffix}"}"
`)
	copyto := rule.Steps[0].(*CopyToStep)
	env, ok := copyto.Dest.(*EnvExpr)
	require.True(t, ok)

	concat, ok := env.Name.(*ConcatExpr)
	require.True(t, ok)
	require.Len(t, concat.Parts, 2)
	assert.Equal(t, "PLUMB", concat.Parts[0].(*LiteralExpr).Value)
	assert.Equal(t, "suffix", concat.Parts[1].(*VarExpr).Name)
}

func TestParser_EscapesInStrings(t *testing.T) {
	rule := parseOne(t, `rule p
copyto "a\"b\{c}"
`)
	copyto := rule.Steps[0].(*CopyToStep)
	lit, ok := copyto.Dest.(*LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, `a"b{c}`, lit.Value)
}

func TestParser_EnvForms(t *testing.T) {
	rule := parseOne(t, `rule p
dest = env HOME
key = env $name
`)
	env := rule.Steps[0].(*AssignStep).Value.(*EnvExpr)
	assert.Equal(t, "HOME", env.Name.(*LiteralExpr).Value)

	env = rule.Steps[1].(*AssignStep).Value.(*EnvExpr)
	assert.Equal(t, "name", env.Name.(*VarExpr).Name)
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"command outside rule", "glob *.py\n", "commands must appear inside a rule block"},
		{"missing rule name", "rule\nglob *.py\n", "expected rule name"},
		{"keyword rule name", "rule stop\n", "expected rule name"},
		{"interpolated rule name", "rule \"{$x}\"\n", "rule name must be constant"},
		{"unknown file type", "rule p\nis banana\n", "unknown file type"},
		{"missing glob pattern", "rule p\nglob\n", "expected pattern after 'glob'"},
		{"missing is type", "rule p\nis\n", "expected file type"},
		{"target without condition", "rule p\n$x\n", "expected condition after match target"},
		{"two conditions one line", "rule p\nglob *.a is file\n", "expected end of command"},
		{"dangling and", "rule p\nglob *.a and\nglob *.b\n", "expected condition"},
		{"bad grep unit", "rule p\ngrep(64 lightyears) \"x\"\n", "unknown size scale"},
		{"bad grep number", "rule p\ngrep(many kb) \"x\"\n", "invalid byte limit"},
		{"negative grep limit", "rule p\ngrep(-1 kb) \"x\"\n", "byte limit"},
		{"unclosed paren", "rule p\n(glob *.a or glob *.b\n", "expected )"},
		{"condition across lines in parens", "rule p\n(glob *.a or\nglob *.b)\n", "expected condition"},
		{"bad variable name in assignment", "rule p\nmy.var = x\n", "invalid variable name"},
		{"bad span expression", "rule p\ncopyto \"{and}\"\n", "expected expression"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParser_ErrorPositions(t *testing.T) {
	_, err := Parse("rule p\nglob *.py\nis banana\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestParser_RuleBlocksAreLexical(t *testing.T) {
	// No terminator: the next rule marker closes the previous block
	set, err := Parse(`rule a
glob *.py
rule b
glob *.txt
`)
	require.NoError(t, err)
	require.Len(t, set.Rules, 2)
	assert.Len(t, set.Rules[0].Steps, 1)
	assert.Len(t, set.Rules[1].Steps, 1)
}
