package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser parses rules tokens into an AST.
type Parser struct {
	tokens  []Token
	pos     int
	current Token
}

// NewParser creates a new parser for the given tokens.
func NewParser(tokens []Token) *Parser {
	p := &Parser{
		tokens: tokens,
		pos:    0,
	}
	if len(tokens) > 0 {
		p.current = tokens[0]
	}
	return p
}

// Parse parses the tokens and returns a RuleSet AST. Rule blocks are
// purely lexical: every command after a `rule` marker belongs to that
// rule until the next marker or end of file.
func (p *Parser) Parse() (*RuleSet, error) {
	set := &RuleSet{
		Rules: make([]*Rule, 0),
	}

	p.skipBlank()

	for p.current.Type != TokenEOF {
		if p.current.Type != TokenRule {
			return nil, p.error("expected 'rule', got %s (commands must appear inside a rule block)", p.current.Type)
		}
		rule, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		set.Rules = append(set.Rules, rule)
		p.skipBlank()
	}

	return set, nil
}

func (p *Parser) parseRule() (*Rule, error) {
	rule := &Rule{
		Steps:  make([]Step, 0),
		Line:   p.current.Line,
		Column: p.current.Column,
	}

	// Consume 'rule' keyword
	if err := p.expect(TokenRule); err != nil {
		return nil, err
	}

	// Rule name: a bareword or a constant string
	switch p.current.Type {
	case TokenWord:
		rule.Name = p.current.Value
		p.advance()
	case TokenString:
		expr, err := p.parseStringExpr()
		if err != nil {
			return nil, err
		}
		lit, ok := expr.(*LiteralExpr)
		if !ok {
			return nil, p.error("rule name must be constant")
		}
		rule.Name = lit.Value
	default:
		return nil, p.error("expected rule name, got %s", p.current.Type)
	}

	if err := p.endOfCommand(); err != nil {
		return nil, err
	}
	p.skipBlank()

	// Rule body: commands until the next rule marker
	for p.current.Type != TokenRule && p.current.Type != TokenEOF {
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		rule.Steps = append(rule.Steps, step)
		p.skipBlank()
	}

	return rule, nil
}

func (p *Parser) parseStep() (Step, error) {
	line, col := p.current.Line, p.current.Column

	switch p.current.Type {
	case TokenStop:
		p.advance()
		if err := p.endOfCommand(); err != nil {
			return nil, err
		}
		return &StopStep{Line: line, Column: col}, nil

	case TokenCopyTo:
		p.advance()
		dest, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		if err := p.endOfCommand(); err != nil {
			return nil, err
		}
		return &CopyToStep{Dest: dest, Line: line, Column: col}, nil

	case TokenMoveTo:
		p.advance()
		dest, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		if err := p.endOfCommand(); err != nil {
			return nil, err
		}
		return &MoveToStep{Dest: dest, Line: line, Column: col}, nil

	case TokenInspect:
		p.advance()
		// 'all' is contextual: only special right after inspect
		if p.current.Type == TokenWord && strings.EqualFold(p.current.Value, "all") {
			p.advance()
			if err := p.endOfCommand(); err != nil {
				return nil, err
			}
			return &InspectStep{All: true, Line: line, Column: col}, nil
		}
		value, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		if err := p.endOfCommand(); err != nil {
			return nil, err
		}
		return &InspectStep{Value: value, Line: line, Column: col}, nil
	}

	// Assignment: a bareword immediately followed by '='
	if p.current.Type == TokenWord && p.peek().Type == TokenAssign {
		name := p.current.Value
		if !isIdentName(name) {
			return nil, p.error("invalid variable name: %s", name)
		}
		p.advance() // name
		p.advance() // =
		value, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		if err := p.endOfCommand(); err != nil {
			return nil, err
		}
		return &AssignStep{Name: name, Value: value, Line: line, Column: col}, nil
	}

	// Everything else is a condition
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	if err := p.endOfCommand(); err != nil {
		return nil, err
	}
	return &ConditionStep{Cond: cond, Line: line, Column: col}, nil
}

// Condition parsing with operator precedence: not binds tighter than
// and, and tighter than or. A condition must fit on one line.
func (p *Parser) parseCondition() (Expression, error) {
	return p.parseOrExpr()
}

func (p *Parser) parseOrExpr() (Expression, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenOr {
		line, col := p.current.Line, p.current.Column
		p.advance()

		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpr{
			Left:     left,
			Operator: "or",
			Right:    right,
			Line:     line,
			Column:   col,
		}
	}

	return left, nil
}

func (p *Parser) parseAndExpr() (Expression, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}

	for p.current.Type == TokenAnd {
		line, col := p.current.Line, p.current.Column
		p.advance()

		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}

		left = &BinaryExpr{
			Left:     left,
			Operator: "and",
			Right:    right,
			Line:     line,
			Column:   col,
		}
	}

	return left, nil
}

func (p *Parser) parseNotExpr() (Expression, error) {
	if p.current.Type == TokenNot {
		line, col := p.current.Line, p.current.Column
		p.advance()

		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}

		return &UnaryExpr{
			Operator: "not",
			Operand:  operand,
			Line:     line,
			Column:   col,
		}, nil
	}

	return p.parseCondAtom()
}

// parseCondAtom parses a single condition: an optional match target
// expression followed by a condition keyword and its arguments, or a
// parenthesized condition group.
func (p *Parser) parseCondAtom() (Expression, error) {
	if p.current.Type == TokenLParen {
		p.advance()
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	}

	// Optional leading target: defaults to the message payload
	var target Expression
	if !isConditionKeyword(p.current.Type) {
		if !isValueStart(p.current.Type) {
			return nil, p.error("expected condition, got %s", p.current.Type)
		}
		expr, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		target = expr
		if !isConditionKeyword(p.current.Type) {
			return nil, p.error("expected condition after match target, got %s", p.current.Type)
		}
	}

	line, col := p.current.Line, p.current.Column

	switch p.current.Type {
	case TokenIs:
		p.advance()
		if p.current.Type != TokenWord {
			return nil, p.error("expected file type after 'is', got %s", p.current.Type)
		}
		ft, ok := ParseFileType(p.current.Value)
		if !ok {
			return nil, p.error("unknown file type %q (valid: %s)", p.current.Value, strings.Join(FileTypeNames(), ", "))
		}
		p.advance()
		return &IsExpr{Target: target, Type: ft, Line: line, Column: col}, nil

	case TokenGlob:
		p.advance()
		// One or more patterns; any match passes
		patterns := make([]Expression, 0, 1)
		for isValueStart(p.current.Type) {
			pat, err := p.parseValueExpr()
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, pat)
		}
		if len(patterns) == 0 {
			return nil, p.error("expected pattern after 'glob', got %s", p.current.Type)
		}
		return &GlobExpr{Target: target, Patterns: patterns, Line: line, Column: col}, nil

	case TokenMatch:
		p.advance()
		pattern, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		return &MatchExpr{Target: target, Pattern: pattern, Line: line, Column: col}, nil

	case TokenGrep:
		p.advance()
		limit, err := p.parseGrepLimit()
		if err != nil {
			return nil, err
		}
		pattern, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		return &GrepExpr{Target: target, Pattern: pattern, Limit: limit, Line: line, Column: col}, nil
	}

	return nil, p.error("expected condition, got %s", p.current.Type)
}

// parseGrepLimit parses the optional `(<n> <scale>)` read cap after
// `grep`. Zero means unlimited.
func (p *Parser) parseGrepLimit() (int64, error) {
	if p.current.Type != TokenLParen {
		return 0, nil
	}
	p.advance()

	if p.current.Type != TokenWord {
		return 0, p.error("expected byte limit, got %s", p.current.Type)
	}
	number := p.current.Value
	p.advance()

	unit := ""
	if p.current.Type == TokenWord {
		unit = p.current.Value
		p.advance()
	}

	limit, err := parseByteSize(number, unit)
	if err != nil {
		return 0, p.error("%v", err)
	}

	if err := p.expect(TokenRParen); err != nil {
		return 0, err
	}
	return limit, nil
}

// parseValueExpr parses a value-producing expression: a string literal
// (possibly interpolated), a bareword, a variable reference, or an
// environment lookup.
func (p *Parser) parseValueExpr() (Expression, error) {
	switch p.current.Type {
	case TokenString:
		return p.parseStringExpr()

	case TokenWord:
		lit := &LiteralExpr{
			Value:  p.current.Value,
			Line:   p.current.Line,
			Column: p.current.Column,
		}
		p.advance()
		return lit, nil

	case TokenVar:
		v := &VarExpr{
			Name:   p.current.Value,
			Line:   p.current.Line,
			Column: p.current.Column,
		}
		p.advance()
		return v, nil

	case TokenEnv:
		line, col := p.current.Line, p.current.Column
		p.advance()
		name, err := p.parseValueExpr()
		if err != nil {
			return nil, err
		}
		return &EnvExpr{Name: name, Line: line, Column: col}, nil

	default:
		return nil, p.error("expected expression, got %s", p.current.Type)
	}
}

// parseStringExpr turns a string token into an expression, compiling
// each interpolation span and folding adjacent constants. A string with
// no spans, or whose spans all fold to constants, becomes a single
// literal.
func (p *Parser) parseStringExpr() (Expression, error) {
	tok := p.current
	p.advance()

	stringParts, _ := tok.Literal.([]StringPart)
	exprs := make([]Expression, 0, len(stringParts))

	for _, part := range stringParts {
		if !part.Span {
			exprs = append(exprs, &LiteralExpr{
				Value:  part.Text,
				Line:   tok.Line,
				Column: tok.Column,
			})
			continue
		}
		expr, err := p.parseSpan(part)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}

	return foldConcat(exprs, tok.Line, tok.Column), nil
}

// parseSpan compiles the raw source of one `{...}` interpolation span.
// Token positions are remapped to the enclosing file so errors point at
// the right place.
func (p *Parser) parseSpan(part StringPart) (Expression, error) {
	lexer := NewLexer(part.Source)
	var tokens []Token
	for {
		tok := lexer.NextToken()
		tok.Line = part.Line
		tok.Column = part.Column + tok.Column
		if tok.Type == TokenError {
			return nil, p.errorAt(tok.Line, tok.Column, "in interpolation: %s", tok.Value)
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}

	sub := NewParser(tokens)
	expr, err := sub.parseValueExpr()
	if err != nil {
		return nil, err
	}
	if sub.current.Type != TokenEOF {
		return nil, sub.error("unexpected token in interpolation: %s", sub.current.Type)
	}
	return expr, nil
}

// foldConcat merges adjacent literal parts and collapses all-constant
// interpolations to a single literal.
func foldConcat(exprs []Expression, line, column int) Expression {
	folded := make([]Expression, 0, len(exprs))
	for _, e := range exprs {
		lit, ok := e.(*LiteralExpr)
		if ok && len(folded) > 0 {
			if prev, ok := folded[len(folded)-1].(*LiteralExpr); ok {
				prev.Value += lit.Value
				continue
			}
		}
		folded = append(folded, e)
	}

	switch len(folded) {
	case 0:
		return &LiteralExpr{Line: line, Column: column}
	case 1:
		return folded[0]
	}
	return &ConcatExpr{Parts: folded, Line: line, Column: column}
}

func (p *Parser) advance() {
	p.pos++
	if p.pos < len(p.tokens) {
		p.current = p.tokens[p.pos]
	} else {
		p.current = Token{Type: TokenEOF}
	}
}

func (p *Parser) peek() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return Token{Type: TokenEOF}
}

func (p *Parser) expect(t TokenType) error {
	if p.current.Type != t {
		return p.error("expected %s, got %s", t, p.current.Type)
	}
	p.advance()
	return nil
}

// endOfCommand requires the current command to end here: a newline,
// a trailing comment, or end of file.
func (p *Parser) endOfCommand() error {
	if p.current.Type == TokenComment {
		p.advance()
	}
	switch p.current.Type {
	case TokenNewline:
		p.advance()
		return nil
	case TokenEOF:
		return nil
	}
	return p.error("expected end of command, got %s", p.current.Type)
}

// skipBlank consumes blank lines and comment-only lines.
func (p *Parser) skipBlank() {
	for p.current.Type == TokenNewline || p.current.Type == TokenComment {
		p.advance()
	}
}

func (p *Parser) error(format string, args ...any) error {
	return p.errorAt(p.current.Line, p.current.Column, format, args...)
}

func (p *Parser) errorAt(line, column int, format string, args ...any) error {
	return fmt.Errorf("parse error at line %d, column %d: %s",
		line, column, fmt.Sprintf(format, args...))
}

func isConditionKeyword(t TokenType) bool {
	switch t {
	case TokenIs, TokenGlob, TokenMatch, TokenGrep:
		return true
	}
	return false
}

func isValueStart(t TokenType) bool {
	switch t {
	case TokenString, TokenWord, TokenVar, TokenEnv:
		return true
	}
	return false
}

// isIdentName reports whether s is usable as a variable name.
func isIdentName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isLetter(ch) || ch == '_' || (i > 0 && isDigit(ch)) {
			continue
		}
		return false
	}
	return true
}

// parseByteSize converts a grep read-cap number and scale suffix to
// bytes. Decimal scales (kb, mb, gb) are powers of 1000, binary scales
// (kib, mib, gib) are powers of 1024, and a bare number or b is bytes.
func parseByteSize(number, unit string) (int64, error) {
	n, err := strconv.ParseInt(number, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte limit: %s", number)
	}
	if n < 0 {
		return 0, fmt.Errorf("byte limit cannot be negative: %s", number)
	}

	var scale int64
	switch strings.ToLower(unit) {
	case "", "b":
		scale = 1
	case "kb":
		scale = 1000
	case "mb":
		scale = 1000 * 1000
	case "gb":
		scale = 1000 * 1000 * 1000
	case "kib":
		scale = 1024
	case "mib":
		scale = 1024 * 1024
	case "gib":
		scale = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unknown size scale: %s", unit)
	}

	if scale > 1 && n > (1<<62)/scale {
		return 0, fmt.Errorf("byte limit too large: %s %s", number, unit)
	}
	return n * scale, nil
}
