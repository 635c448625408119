package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/fileutil"
)

const (
	// EnvRulesPath overrides rules file discovery when set.
	EnvRulesPath = "PLUMB_RULES"

	// maxRulesSize caps how much of a rules file is read. A rules file
	// bigger than this is almost certainly not a rules file.
	maxRulesSize = 1 << 20
)

// Parse compiles rules source into a RuleSet.
func Parse(source string) (*RuleSet, error) {
	lexer := NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		return nil, perrors.SyntaxWrap(err, "rules.Parse", "tokenizing")
	}

	parser := NewParser(tokens)
	set, err := parser.Parse()
	if err != nil {
		return nil, perrors.SyntaxWrap(err, "rules.Parse", "parsing")
	}

	return set, nil
}

// LoadFile loads and compiles a rules file.
func LoadFile(path string) (*RuleSet, error) {
	content, err := fileutil.ReadFileLimited(path, maxRulesSize)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perrors.NotFound("rules.LoadFile", fmt.Sprintf("rules file not found: %s", path))
		}
		return nil, perrors.IOWrap(err, "rules.LoadFile", fmt.Sprintf("reading rules file %s", path))
	}

	set, err := Parse(string(content))
	if err != nil {
		var perr *perrors.Error
		if errors.As(err, &perr) {
			return nil, perr.WithDetail("file", path)
		}
		return nil, err
	}
	return set, nil
}

// ValidateFile parses a rules file and reports the first error.
func ValidateFile(path string) error {
	_, err := LoadFile(path)
	return err
}

// ValidateString parses rules source and reports the first error.
func ValidateString(source string) error {
	_, err := Parse(source)
	return err
}

// MustParse compiles rules source or panics. This is useful for tests.
func MustParse(source string) *RuleSet {
	set, err := Parse(source)
	if err != nil {
		panic(fmt.Sprintf("failed to parse rules: %v", err))
	}
	return set
}

// DefaultPath returns the rules file used when --rules is not given:
// $PLUMB_RULES if set, else the XDG config location, else the legacy
// dotfile when only that exists.
func DefaultPath() string {
	if path := os.Getenv(EnvRulesPath); path != "" {
		return path
	}

	preferred := filepath.Join(xdg.ConfigHome, "plumb", "rules")
	if _, err := os.Stat(preferred); err == nil {
		return preferred
	}

	if home, err := os.UserHomeDir(); err == nil {
		legacy := filepath.Join(home, ".config", "plumb_rules")
		if _, err := os.Stat(legacy); err == nil {
			return legacy
		}
	}

	return preferred
}

// SearchPaths returns every location DefaultPath considers, in order.
func SearchPaths() []string {
	paths := make([]string, 0, 3)
	if path := os.Getenv(EnvRulesPath); path != "" {
		paths = append(paths, path)
	}
	paths = append(paths, filepath.Join(xdg.ConfigHome, "plumb", "rules"))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "plumb_rules"))
	}
	return paths
}
