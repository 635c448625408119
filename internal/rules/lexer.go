package rules

import (
	"fmt"
	"strings"
)

// Lexer tokenizes rules source code.
type Lexer struct {
	input   string
	pos     int
	line    int
	column  int
	start   int
	startLn int
	startCl int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		pos:    0,
		line:   1,
		column: 1,
	}
}

// Tokenize returns all tokens from the input.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == TokenError {
			return nil, fmt.Errorf("lexer error at line %d, column %d: %s", tok.Line, tok.Column, tok.Value)
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens, nil
}

// NextToken returns the next token from the input. Newlines are
// significant (they terminate commands) and come back as TokenNewline.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Line: l.line, Column: l.column}
	}

	l.start = l.pos
	l.startLn = l.line
	l.startCl = l.column

	ch := l.input[l.pos]

	// Command separator
	if ch == '\n' {
		l.advance()
		return Token{Type: TokenNewline, Value: "\n", Line: l.startLn, Column: l.startCl}
	}

	// Comments
	if ch == '#' {
		return l.scanComment()
	}

	// String literals
	if ch == '"' {
		return l.scanString()
	}

	// Variable references
	if ch == '$' {
		return l.scanVar()
	}

	// Single-character tokens
	switch ch {
	case '(':
		l.advance()
		return Token{Type: TokenLParen, Value: "(", Line: l.startLn, Column: l.startCl}
	case ')':
		l.advance()
		return Token{Type: TokenRParen, Value: ")", Line: l.startLn, Column: l.startCl}
	case '=':
		l.advance()
		return Token{Type: TokenAssign, Value: "=", Line: l.startLn, Column: l.startCl}
	}

	// Barewords and keywords
	if isWordChar(ch) {
		return l.scanWord()
	}

	l.advance()
	return Token{
		Type:   TokenError,
		Value:  fmt.Sprintf("unexpected character: %c", ch),
		Line:   l.startLn,
		Column: l.startCl,
	}
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	ch := l.input[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return ch
}

func (l *Lexer) peek() byte {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' {
			l.advance()
		} else {
			break
		}
	}
}

func (l *Lexer) scanComment() Token {
	start := l.pos
	l.advance() // Skip #

	// Read until end of line
	for l.pos < len(l.input) && l.input[l.pos] != '\n' {
		l.advance()
	}

	return Token{
		Type:   TokenComment,
		Value:  strings.TrimSpace(l.input[start:l.pos]),
		Line:   l.startLn,
		Column: l.startCl,
	}
}

// scanString reads a quoted string literal. The only escapes are \" and
// \{; a backslash before any other character is kept as-is. A bare `{`
// opens an interpolation span, scanned raw (including nested strings and
// braces) for the parser to compile; a bare `}` outside a span is a
// literal brace. Parts land in Token.Literal as []StringPart, Value holds
// the raw text between the quotes.
func (l *Lexer) scanString() Token {
	l.advance() // Skip opening quote
	rawStart := l.pos

	var parts []StringPart
	var sb strings.Builder

	flush := func() {
		if sb.Len() > 0 {
			parts = append(parts, StringPart{Text: sb.String()})
			sb.Reset()
		}
	}

	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '"' {
			raw := l.input[rawStart:l.pos]
			l.advance() // Skip closing quote
			flush()
			return Token{
				Type:    TokenString,
				Value:   raw,
				Line:    l.startLn,
				Column:  l.startCl,
				Literal: parts,
			}
		}
		if ch == '\\' && l.pos+1 < len(l.input) {
			next := l.peek()
			switch next {
			case '"', '{':
				l.advance()
				sb.WriteByte(l.advance())
			default:
				sb.WriteByte(l.advance())
			}
		} else if ch == '{' {
			spanLn, spanCl := l.line, l.column
			l.advance() // Skip opening brace
			src, ok := l.scanSpan()
			if !ok {
				return Token{
					Type:   TokenError,
					Value:  "unterminated interpolation",
					Line:   spanLn,
					Column: spanCl,
				}
			}
			flush()
			parts = append(parts, StringPart{Source: src, Span: true, Line: spanLn, Column: spanCl})
		} else if ch == '\n' {
			return Token{
				Type:   TokenError,
				Value:  "unterminated string",
				Line:   l.startLn,
				Column: l.startCl,
			}
		} else {
			sb.WriteByte(l.advance())
		}
	}

	return Token{
		Type:   TokenError,
		Value:  "unterminated string",
		Line:   l.startLn,
		Column: l.startCl,
	}
}

// scanSpan consumes an interpolation span up to its closing brace and
// returns the raw text between the braces. Nested braces balance, and
// nested string literals are skipped wholesale so their braces and
// quotes do not count.
func (l *Lexer) scanSpan() (string, bool) {
	start := l.pos
	depth := 1

	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\n':
			return "", false
		case '{':
			depth++
			l.advance()
		case '}':
			depth--
			if depth == 0 {
				src := l.input[start:l.pos]
				l.advance() // Skip closing brace
				return src, true
			}
			l.advance()
		case '"':
			l.advance()
			if !l.skipRawString() {
				return "", false
			}
		default:
			l.advance()
		}
	}
	return "", false
}

// skipRawString consumes a nested string literal inside a span, opening
// quote already consumed. Backslash pairs are skipped so escaped quotes
// do not terminate early.
func (l *Lexer) skipRawString() bool {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\n':
			return false
		case '\\':
			l.advance()
			if l.pos < len(l.input) {
				l.advance()
			}
		case '"':
			l.advance()
			return true
		default:
			l.advance()
		}
	}
	return false
}

func (l *Lexer) scanVar() Token {
	l.advance() // Skip $
	start := l.pos

	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if isLetter(ch) || isDigit(ch) || ch == '_' {
			l.advance()
		} else {
			break
		}
	}

	name := l.input[start:l.pos]
	if name == "" {
		return Token{
			Type:   TokenError,
			Value:  "empty variable name",
			Line:   l.startLn,
			Column: l.startCl,
		}
	}

	return Token{
		Type:   TokenVar,
		Value:  name,
		Line:   l.startLn,
		Column: l.startCl,
	}
}

func (l *Lexer) scanWord() Token {
	start := l.pos

	for l.pos < len(l.input) && isWordChar(l.input[l.pos]) {
		l.advance()
	}

	value := l.input[start:l.pos]
	return Token{
		Type:   LookupKeyword(value),
		Value:  value,
		Line:   l.startLn,
		Column: l.startCl,
	}
}

// isWordChar reports whether ch can appear in a bareword. Barewords
// cover unquoted paths, glob patterns and type names; anything with
// spaces, quotes, braces or parser delimiters needs a quoted string.
func isWordChar(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '"', '#', '(', ')', '=', '{', '}', '$':
		return false
	}
	return ch > 32 && ch < 127 || ch >= 128
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
