package rules

// Node is the base interface for all AST nodes.
type Node interface {
	node()
}

// RuleSet represents the root of a parsed rules file.
type RuleSet struct {
	Rules []*Rule
}

func (r *RuleSet) node() {}

// Rule represents a named rule block: the commands between one `rule`
// marker and the next.
type Rule struct {
	Name   string
	Steps  []Step
	Line   int
	Column int
}

func (r *Rule) node() {}

// Step is one command inside a rule block. String renders the command
// as source text.
type Step interface {
	Node
	step()
	String() string
}

// ConditionStep holds a boolean condition expression. A false result
// abandons the rest of the rule.
type ConditionStep struct {
	Cond   Expression
	Line   int
	Column int
}

func (c *ConditionStep) node() {}
func (c *ConditionStep) step() {}

// AssignStep binds a variable to an evaluated expression.
type AssignStep struct {
	Name   string
	Value  Expression
	Line   int
	Column int
}

func (a *AssignStep) node() {}
func (a *AssignStep) step() {}

// CopyToStep queues a copy of the message payload to a destination.
type CopyToStep struct {
	Dest   Expression
	Line   int
	Column int
}

func (c *CopyToStep) node() {}
func (c *CopyToStep) step() {}

// MoveToStep queues a move of the message payload to a destination.
type MoveToStep struct {
	Dest   Expression
	Line   int
	Column int
}

func (m *MoveToStep) node() {}
func (m *MoveToStep) step() {}

// InspectStep queues a diagnostic dump: one expression, or the whole
// routing context when All is set (Value is nil in that form).
type InspectStep struct {
	All    bool
	Value  Expression
	Line   int
	Column int
}

func (i *InspectStep) node() {}
func (i *InspectStep) step() {}

// StopStep halts the scan for the current message.
type StopStep struct {
	Line   int
	Column int
}

func (s *StopStep) node() {}
func (s *StopStep) step() {}

// Expression is the interface for value and condition expressions.
type Expression interface {
	Node
	expr()
}

// BinaryExpr represents `and` / `or` between two conditions.
type BinaryExpr struct {
	Left     Expression
	Operator string
	Right    Expression
	Line     int
	Column   int
}

func (b *BinaryExpr) node() {}
func (b *BinaryExpr) expr() {}

// UnaryExpr represents `not` applied to a condition.
type UnaryExpr struct {
	Operator string
	Operand  Expression
	Line     int
	Column   int
}

func (u *UnaryExpr) node() {}
func (u *UnaryExpr) expr() {}

// IsExpr tests the filesystem entry type of the target. A nil Target
// means the message payload.
type IsExpr struct {
	Target Expression
	Type   FileType
	Line   int
	Column int
}

func (i *IsExpr) node() {}
func (i *IsExpr) expr() {}

// GlobExpr tests the target against one or more shell glob patterns;
// any match passes.
type GlobExpr struct {
	Target   Expression
	Patterns []Expression
	Line     int
	Column   int
}

func (g *GlobExpr) node() {}
func (g *GlobExpr) expr() {}

// MatchExpr searches the target for a regular expression and binds
// capture groups on success.
type MatchExpr struct {
	Target  Expression
	Pattern Expression
	Line    int
	Column  int
}

func (m *MatchExpr) node() {}
func (m *MatchExpr) expr() {}

// GrepExpr searches the content of the file named by the target for a
// regular expression, reading at most Limit bytes (0 means the whole
// file).
type GrepExpr struct {
	Target  Expression
	Pattern Expression
	Limit   int64
	Line    int
	Column  int
}

func (g *GrepExpr) node() {}
func (g *GrepExpr) expr() {}

// LiteralExpr represents a constant string: a quoted literal without
// interpolation, a bareword, or a folded interpolation.
type LiteralExpr struct {
	Value  string
	Line   int
	Column int
}

func (l *LiteralExpr) node() {}
func (l *LiteralExpr) expr() {}

// ConcatExpr represents an interpolated string: the concatenation of
// its evaluated parts.
type ConcatExpr struct {
	Parts  []Expression
	Line   int
	Column int
}

func (c *ConcatExpr) node() {}
func (c *ConcatExpr) expr() {}

// VarExpr represents a `$name` variable reference.
type VarExpr struct {
	Name   string
	Line   int
	Column int
}

func (v *VarExpr) node() {}
func (v *VarExpr) expr() {}

// EnvExpr reads an environment variable named by its operand.
type EnvExpr struct {
	Name   Expression
	Line   int
	Column int
}

func (e *EnvExpr) node() {}
func (e *EnvExpr) expr() {}
