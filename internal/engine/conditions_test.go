package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsType(t *testing.T) {
	dir := t.TempDir()

	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	link := filepath.Join(dir, "link.txt")
	require.NoError(t, os.Symlink(file, link))

	tests := []struct {
		name string
		data string
		cond string
		want bool
	}{
		{"file on regular file", file, `is file`, true},
		{"dir on regular file", file, `is dir`, false},
		{"dir on directory", sub, `is dir`, true},
		{"file on directory", sub, `is file`, false},
		{"symlink on link", link, `is symlink`, true},
		{"link alias", link, `is link`, true},
		{"file follows link", link, `is file`, true},
		{"symlink on regular file", file, `is symlink`, false},
		{"missing path", filepath.Join(dir, "nope"), `is file`, false},
		{"missing path dir", filepath.Join(dir, "nope"), `is dir`, false},
		{"chardev on regular file", file, `is chardev`, false},
		{"blockdev on regular file", file, `is blockdev`, false},
		{"fifo on regular file", file, `is fifo`, false},
		{"sock on regular file", file, `is sock`, false},
		{"door never matches", file, `is door`, false},
		{"port never matches", file, `is port`, false},
		{"whiteout never matches", file, `is wht`, false},
		{"empty payload", "", `is file`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(tt.data, MapEnv{})
			assert.Equal(t, tt.want, evalCond(t, ctx, tt.cond))
		})
	}
}

func TestIsType_DevNull(t *testing.T) {
	if _, err := os.Stat("/dev/null"); err != nil {
		t.Skip("/dev/null not available")
	}
	ctx := testContext("/dev/null", MapEnv{})
	assert.True(t, evalCond(t, ctx, `is chardev`))
	assert.False(t, evalCond(t, ctx, `is file`))
	assert.False(t, evalCond(t, ctx, `is blockdev`))
}

func TestIsType_RelativeToWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rel.txt"), []byte("x"), 0o644))

	msg := NewMessage("rel.txt")
	msg.Dir = dir
	ctx := NewContext(msg, MapEnv{}, nil)

	assert.True(t, evalCond(t, ctx, `is file`))
}

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		name string
		data string
		cond string
		want bool
	}{
		{"suffix", "notes.txt", `glob "*.txt"`, true},
		{"wrong suffix", "notes.txt", `glob "*.md"`, false},
		{"star crosses separators", "Downloads/x.html", `glob "*.html"`, true},
		{"question mark", "a.txt", `glob "?.txt"`, true},
		{"class", "3.txt", `glob "[0-9].txt"`, true},
		{"class miss", "x.txt", `glob "[0-9].txt"`, false},
		{"case sensitive", "a.TXT", `glob "*.txt"`, false},
		{"multi pattern first", "mod.py", `glob *.py *.pyc`, true},
		{"multi pattern second", "mod.pyc", `glob *.py *.pyc`, true},
		{"multi pattern none", "mod.rb", `glob *.py *.pyc`, false},
		{"exact word", "Makefile", `glob Makefile`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(tt.data, MapEnv{})
			assert.Equal(t, tt.want, evalCond(t, ctx, tt.cond))
		})
	}
}

func TestGlobMatch_NormalizesUnicode(t *testing.T) {
	// A decomposed filename (e with combining acute, as macOS stores
	// it) must match the composed spelling in the pattern.
	decomposed := "café.txt"
	composed := "café.txt"

	ctx := testContext(decomposed, MapEnv{})
	assert.True(t, evalCond(t, ctx, `glob "`+composed+`"`))

	ctx = testContext(composed, MapEnv{})
	assert.True(t, evalCond(t, ctx, `glob "`+decomposed+`"`))
}

func TestGlobMatch_DynamicPattern(t *testing.T) {
	ctx := testContext("notes.txt", MapEnv{})
	ctx.Set("ext", "txt")
	assert.True(t, evalCond(t, ctx, `glob "*.{$ext}"`))

	// A pattern that fails to compile at run time simply never
	// matches, it does not fault the pass.
	ctx.Set("bad", "[")
	assert.False(t, evalCond(t, ctx, `glob "{$bad}"`))
	assert.True(t, evalCond(t, ctx, `glob "{$bad}" "*.txt"`))
}

func TestRegexMatch(t *testing.T) {
	t.Run("numbered captures", func(t *testing.T) {
		ctx := testContext("foobar", MapEnv{})
		require.True(t, evalCond(t, ctx, `match "(foo)(bar)"`))

		full, _ := ctx.Var("0")
		first, _ := ctx.Var("1")
		second, _ := ctx.Var("2")
		assert.Equal(t, "foobar", full)
		assert.Equal(t, "foo", first)
		assert.Equal(t, "bar", second)
	})

	t.Run("named captures", func(t *testing.T) {
		// The quantifier brace is escaped: a bare { opens
		// interpolation inside strings.
		ctx := testContext("backup-2024.tar", MapEnv{})
		require.True(t, evalCond(t, ctx, `match "(?P<year>[0-9]\{4})"`))

		year, ok := ctx.Var("match_year")
		require.True(t, ok)
		assert.Equal(t, "2024", year)
		numbered, _ := ctx.Var("1")
		assert.Equal(t, "2024", numbered)
	})

	t.Run("unmatched optional group binds empty", func(t *testing.T) {
		ctx := testContext("abc", MapEnv{})
		require.True(t, evalCond(t, ctx, `match "a(x)?(b)"`))

		opt, ok := ctx.Var("1")
		require.True(t, ok)
		assert.Equal(t, "", opt)
		second, _ := ctx.Var("2")
		assert.Equal(t, "b", second)
	})

	t.Run("no match binds nothing", func(t *testing.T) {
		ctx := testContext("abc", MapEnv{})
		require.False(t, evalCond(t, ctx, `match "(zzz)"`))

		_, ok := ctx.Var("1")
		assert.False(t, ok)
	})

	t.Run("later match overwrites", func(t *testing.T) {
		ctx := testContext("one two", MapEnv{})
		require.True(t, evalCond(t, ctx, `match "(one)"`))
		require.True(t, evalCond(t, ctx, `match "(two)"`))

		got, _ := ctx.Var("1")
		assert.Equal(t, "two", got)
	})

	t.Run("unanchored search", func(t *testing.T) {
		ctx := testContext("prefix-middle-suffix", MapEnv{})
		assert.True(t, evalCond(t, ctx, `match "middle"`))
	})

	t.Run("bad dynamic pattern is false", func(t *testing.T) {
		ctx := testContext("anything", MapEnv{})
		ctx.Set("pat", "(unclosed")
		assert.False(t, evalCond(t, ctx, `match "{$pat}"`))
	})
}

func TestGrepFile(t *testing.T) {
	dir := t.TempDir()
	story := filepath.Join(dir, "story.html")
	require.NoError(t, os.WriteFile(story, []byte("<html>made with Twine</html>"), 0o644))

	t.Run("match in content", func(t *testing.T) {
		ctx := testContext(story, MapEnv{})
		assert.True(t, evalCond(t, ctx, `grep "(?i)twine"`))
	})

	t.Run("no match", func(t *testing.T) {
		ctx := testContext(story, MapEnv{})
		assert.False(t, evalCond(t, ctx, `grep "inform7"`))
	})

	t.Run("missing file is false", func(t *testing.T) {
		ctx := testContext(filepath.Join(dir, "absent.html"), MapEnv{})
		assert.False(t, evalCond(t, ctx, `grep "twine"`))
	})

	t.Run("captures bind from content", func(t *testing.T) {
		ctx := testContext(story, MapEnv{})
		require.True(t, evalCond(t, ctx, `grep "made with (?P<tool>[A-Za-z]+)"`))

		tool, ok := ctx.Var("match_tool")
		require.True(t, ok)
		assert.Equal(t, "Twine", tool)
	})

	t.Run("explicit target", func(t *testing.T) {
		ctx := testContext("unrelated.txt", MapEnv{})
		assert.True(t, evalCond(t, ctx, `"`+story+`" grep "Twine"`))
	})

	t.Run("relative to working dir", func(t *testing.T) {
		msg := NewMessage("story.html")
		msg.Dir = dir
		ctx := NewContext(msg, MapEnv{}, nil)
		assert.True(t, evalCond(t, ctx, `grep "Twine"`))
	})
}

func TestGrepFile_ByteLimit(t *testing.T) {
	dir := t.TempDir()

	// The needle starts at offset 1010: inside 1 kib (1024) but past
	// 1 kb (1000).
	content := strings.Repeat("a", 1010) + "needle" + strings.Repeat("b", 500)
	big := filepath.Join(dir, "big.dat")
	require.NoError(t, os.WriteFile(big, []byte(content), 0o644))

	tests := []struct {
		name string
		cond string
		want bool
	}{
		{"unlimited", `grep "needle"`, true},
		{"within decimal limit", `grep(2 kb) "needle"`, true},
		{"past decimal limit", `grep(1 kb) "needle"`, false},
		{"within binary limit", `grep(1 kib) "needle"`, true},
		{"bare bytes past", `grep(1000) "needle"`, false},
		{"bare bytes within", `grep(1016) "needle"`, true},
		{"needle truncated by limit", `grep(1013) "needle"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(big, MapEnv{})
			assert.Equal(t, tt.want, evalCond(t, ctx, tt.cond))
		})
	}
}

func TestCompileCaches(t *testing.T) {
	re1, err := compileRegex(`cache-probe-[0-9]+`)
	require.NoError(t, err)
	re2, err := compileRegex(`cache-probe-[0-9]+`)
	require.NoError(t, err)
	assert.Same(t, re1, re2)

	_, err = compileRegex(`(unclosed`)
	assert.Error(t, err)

	g1, err := compileGlob(`cache-probe-*.txt`)
	require.NoError(t, err)
	g2, err := compileGlob(`cache-probe-*.txt`)
	require.NoError(t, err)
	assert.Equal(t, g1, g2)

	_, err = compileGlob(`[`)
	assert.Error(t, err)
}
