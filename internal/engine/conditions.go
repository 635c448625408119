package engine

import (
	"os"
	"regexp"
	"strconv"
	"sync"

	"github.com/gobwas/glob"
	"golang.org/x/text/unicode/norm"

	"github.com/plumbfile/plumb/internal/fileutil"
	"github.com/plumbfile/plumb/internal/rules"
)

// Compiled patterns are cached across passes; both regexp.Regexp and
// glob.Glob are safe for concurrent matching.
var (
	regexCache sync.Map // pattern string -> *regexp.Regexp
	globCache  sync.Map // pattern string -> glob.Glob
)

func compileRegex(pattern string) (*regexp.Regexp, error) {
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}

func compileGlob(pattern string) (glob.Glob, error) {
	if g, ok := globCache.Load(pattern); ok {
		return g.(glob.Glob), nil
	}
	// Compiled without separators: * and ? cross /, like fnmatch
	// without FNM_PATHNAME.
	g, err := glob.Compile(norm.NFC.String(pattern))
	if err != nil {
		return nil, err
	}
	globCache.Store(pattern, g)
	return g, nil
}

// isType stats the target and tests its entry type. A missing path or
// stat failure is a plain false. Symlinks are the one type tested
// without following; every other type follows links first.
func (e *evaluator) isType(x *rules.IsExpr) bool {
	path := e.ctx.ResolvePath(e.target(x.Target))
	if path == "" {
		return false
	}
	var (
		info os.FileInfo
		err  error
	)
	if x.Type == rules.TypeSymlink {
		info, err = e.ctx.stat.Lstat(path)
	} else {
		info, err = e.ctx.stat.Stat(path)
	}
	if err != nil {
		return false
	}
	return matchFileType(info.Mode(), x.Type)
}

// matchFileType reports whether mode has the named entry type. door,
// port and wht never occur on Linux and always report false.
func matchFileType(mode os.FileMode, t rules.FileType) bool {
	switch t {
	case rules.TypeFile:
		return mode.IsRegular()
	case rules.TypeDir:
		return mode.IsDir()
	case rules.TypeSymlink:
		return mode&os.ModeSymlink != 0
	case rules.TypeCharDev:
		return mode&os.ModeCharDevice != 0
	case rules.TypeBlockDev:
		return mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0
	case rules.TypeFifo:
		return mode&os.ModeNamedPipe != 0
	case rules.TypeSock:
		return mode&os.ModeSocket != 0
	}
	return false
}

// globMatch tests the target against each pattern; any match passes.
// Both sides are NFC-normalized so decomposed filenames (macOS)
// compare equal to their composed spelling. A pattern that fails to
// compile simply does not match.
func (e *evaluator) globMatch(x *rules.GlobExpr) bool {
	target := norm.NFC.String(e.target(x.Target))
	for _, p := range x.Patterns {
		g, err := compileGlob(e.value(p))
		if err != nil {
			continue
		}
		if g.Match(target) {
			return true
		}
	}
	return false
}

// regexMatch searches the target string, unanchored, and binds capture
// variables on success.
func (e *evaluator) regexMatch(x *rules.MatchExpr) bool {
	re, err := compileRegex(e.value(x.Pattern))
	if err != nil {
		return false
	}
	groups := re.FindStringSubmatch(e.target(x.Target))
	if groups == nil {
		return false
	}
	e.bindCaptures(re, groups)
	return true
}

// grepFile searches the content of the file named by the target. With
// a byte limit, at most that many bytes are read from the start, so a
// match past the limit does not pass. Unreadable files do not pass
// either; that is a condition failure, not a fault.
func (e *evaluator) grepFile(x *rules.GrepExpr) bool {
	re, err := compileRegex(e.value(x.Pattern))
	if err != nil {
		return false
	}
	path := e.ctx.ResolvePath(e.target(x.Target))
	if path == "" {
		return false
	}
	content, err := fileutil.ReadFilePrefix(path, x.Limit)
	if err != nil {
		return false
	}
	raw := re.FindSubmatch(content)
	if raw == nil {
		return false
	}
	groups := make([]string, len(raw))
	for i, b := range raw {
		groups[i] = string(b)
	}
	e.bindCaptures(re, groups)
	return true
}

// bindCaptures writes $0..$N plus $match_<name> for each named group.
// An unmatched optional group binds "". Bindings persist until
// overwritten by a later match or the pass ends.
func (e *evaluator) bindCaptures(re *regexp.Regexp, groups []string) {
	names := re.SubexpNames()
	for i, g := range groups {
		e.ctx.Set(strconv.Itoa(i), g)
		if i < len(names) && names[i] != "" {
			e.ctx.Set("match_"+names[i], g)
		}
	}
}
