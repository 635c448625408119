// Package rules provides the domain-specific language for plumb routing rules.
//
// A rules file is a flat, line-oriented sequence of commands. A `rule`
// command starts a new block; every following command belongs to it until
// the next `rule` or end of file:
//
//	rule downloads
//	glob "*.html"
//	grep(64 kb) "(?i)twine"
//	dest = "{env HOME}/games/twine"
//	moveto $dest
//	stop
//
//	rule archives
//	glob *.tar.gz *.tgz
//	copyto "{env HOME}/backups"
//
// Conditions (`is`, `glob`, `match`, `grep`) combine with `and`, `or`,
// `not` and parentheses. String literals interpolate `{...}` spans and
// recognize the escapes `\"` and `\{`; any other backslash passes through
// unchanged. Keywords match case-insensitively. `#` starts a comment.
package rules

import "strings"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError
	TokenComment
	TokenNewline

	// Literals
	TokenWord   // bareword: identifier, path, pattern, type name
	TokenString // "quoted string", possibly holding interpolation spans
	TokenVar    // $name variable reference

	// Keywords
	TokenRule
	TokenStop
	TokenIs
	TokenGlob
	TokenMatch
	TokenGrep
	TokenCopyTo
	TokenMoveTo
	TokenInspect
	TokenEnv

	// Operators
	TokenAnd
	TokenOr
	TokenNot

	// Delimiters
	TokenLParen // (
	TokenRParen // )
	TokenAssign // =
)

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Value   string
	Line    int
	Column  int
	Literal any // Decoded literal value (for strings: []StringPart)
}

// StringPart is one segment of a string literal. Exactly one of Text or
// Source is meaningful: Text carries decoded literal characters, Source
// carries the raw text of a `{...}` interpolation span.
type StringPart struct {
	Text   string
	Source string
	Span   bool // true when Source holds an interpolation span
	Line   int
	Column int
}

// String returns the token type name.
func (t TokenType) String() string {
	names := map[TokenType]string{
		TokenEOF:     "EOF",
		TokenError:   "ERROR",
		TokenComment: "COMMENT",
		TokenNewline: "NEWLINE",
		TokenWord:    "WORD",
		TokenString:  "STRING",
		TokenVar:     "VAR",
		TokenRule:    "rule",
		TokenStop:    "stop",
		TokenIs:      "is",
		TokenGlob:    "glob",
		TokenMatch:   "match",
		TokenGrep:    "grep",
		TokenCopyTo:  "copyto",
		TokenMoveTo:  "moveto",
		TokenInspect: "inspect",
		TokenEnv:     "env",
		TokenAnd:     "and",
		TokenOr:      "or",
		TokenNot:     "not",
		TokenLParen:  "(",
		TokenRParen:  ")",
		TokenAssign:  "=",
	}
	if name, ok := names[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// keywords maps lowercase keyword strings to token types. Lookup is
// case-insensitive; barewords that are not keywords stay TokenWord.
var keywords = map[string]TokenType{
	"rule":    TokenRule,
	"stop":    TokenStop,
	"is":      TokenIs,
	"glob":    TokenGlob,
	"match":   TokenMatch,
	"grep":    TokenGrep,
	"copyto":  TokenCopyTo,
	"moveto":  TokenMoveTo,
	"inspect": TokenInspect,
	"env":     TokenEnv,
	"and":     TokenAnd,
	"or":      TokenOr,
	"not":     TokenNot,
}

// LookupKeyword returns the token type for a bareword.
func LookupKeyword(word string) TokenType {
	if tok, ok := keywords[strings.ToLower(word)]; ok {
		return tok
	}
	return TokenWord
}
