package engine

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnvProvider supplies environment lookups to the evaluator. The engine
// never reads the process environment directly, so tests can inject a
// fixed map.
type EnvProvider interface {
	Lookup(name string) (string, bool)
}

type osEnv struct{}

func (osEnv) Lookup(name string) (string, bool) { return os.LookupEnv(name) }

// OSEnv returns an EnvProvider backed by the process environment.
func OSEnv() EnvProvider { return osEnv{} }

// MapEnv is a fixed EnvProvider. Lookups outside the map report false.
type MapEnv map[string]string

// Lookup implements EnvProvider.
func (m MapEnv) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Stater reports filesystem entry status for type conditions.
type Stater interface {
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
}

type osStater struct{}

func (osStater) Stat(path string) (os.FileInfo, error)  { return os.Stat(path) }
func (osStater) Lstat(path string) (os.FileInfo, error) { return os.Lstat(path) }

// OSStater returns a Stater backed by the real filesystem.
func OSStater() Stater { return osStater{} }

type statResult struct {
	info os.FileInfo
	err  error
}

// statCache memoizes Stat and Lstat results for the lifetime of one
// pass, so a path tested by several rules is stat'ed once.
type statCache struct {
	next  Stater
	stat  map[string]statResult
	lstat map[string]statResult
}

func newStatCache(next Stater) *statCache {
	return &statCache{
		next:  next,
		stat:  make(map[string]statResult),
		lstat: make(map[string]statResult),
	}
}

func (c *statCache) Stat(path string) (os.FileInfo, error) {
	r, ok := c.stat[path]
	if !ok {
		r.info, r.err = c.next.Stat(path)
		c.stat[path] = r
	}
	return r.info, r.err
}

func (c *statCache) Lstat(path string) (os.FileInfo, error) {
	r, ok := c.lstat[path]
	if !ok {
		r.info, r.err = c.next.Lstat(path)
		c.lstat[path] = r
	}
	return r.info, r.err
}

// Context is the mutable state of one routing pass: the message, the
// variable scope, and the actions queued so far. A Context belongs to
// exactly one pass and must not be shared.
type Context struct {
	Message *Message

	vars    map[string]string
	env     EnvProvider
	stat    *statCache
	pending []Action
}

// NewContext creates the evaluation context for one pass. A nil env or
// stater falls back to the process environment and filesystem.
func NewContext(msg *Message, env EnvProvider, st Stater) *Context {
	if env == nil {
		env = OSEnv()
	}
	if st == nil {
		st = OSStater()
	}
	return &Context{
		Message: msg,
		vars:    make(map[string]string),
		env:     env,
		stat:    newStatCache(st),
	}
}

// Set binds a variable in the pass scope. Binding a message field name
// shadows that field for the rest of the pass.
func (c *Context) Set(name, value string) {
	c.vars[name] = value
}

// Var resolves a variable: pass scope first, then the message fields.
// Unknown names report false.
func (c *Context) Var(name string) (string, bool) {
	if v, ok := c.vars[name]; ok {
		return v, true
	}
	switch name {
	case "data":
		return c.Message.Data, true
	case "original_data":
		return c.Message.OriginalData, true
	case "src":
		return c.Message.Source, true
	case "dst":
		return c.Message.Dest, true
	case "type":
		return c.Message.Type, true
	case "wdir":
		return c.Message.Dir, true
	case "attr":
		return formatAttrs(c.Message.Attrs), true
	}
	return "", false
}

// Data returns the current payload value, honoring scope shadowing.
func (c *Context) Data() string {
	v, _ := c.Var("data")
	return v
}

// Env looks up an environment variable through the injected provider.
func (c *Context) Env(name string) (string, bool) {
	return c.env.Lookup(name)
}

// ResolvePath resolves a relative path against the message working
// directory when one is set.
func (c *Context) ResolvePath(path string) string {
	if path == "" || c.Message.Dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Message.Dir, path)
}

// Snapshot copies the message fields and the full variable scope, in
// the form inspect all reports. Scope bindings win over field names.
func (c *Context) Snapshot() map[string]string {
	snap := make(map[string]string, len(c.vars)+8)
	snap["id"] = c.Message.ID
	snap["data"] = c.Message.Data
	snap["original_data"] = c.Message.OriginalData
	snap["src"] = c.Message.Source
	snap["dst"] = c.Message.Dest
	snap["type"] = c.Message.Type
	snap["wdir"] = c.Message.Dir
	snap["attr"] = formatAttrs(c.Message.Attrs)
	for k, v := range c.vars {
		snap[k] = v
	}
	return snap
}

// Pending returns the actions queued so far, in collection order.
func (c *Context) Pending() []Action {
	return c.pending
}

func (c *Context) queue(a Action) {
	c.pending = append(c.pending, a)
}

func formatAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + attrs[k]
	}
	return strings.Join(parts, " ")
}
