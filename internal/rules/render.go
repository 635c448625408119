package rules

import (
	"fmt"
	"strings"
)

// Source renderings of AST nodes, used by trace output and rule export.
// The rendered text re-parses to an equivalent AST; constant folding
// means it is not always byte-identical to the input.

func (r *RuleSet) String() string {
	parts := make([]string, 0, len(r.Rules))
	for _, rule := range r.Rules {
		parts = append(parts, rule.String())
	}
	return strings.Join(parts, "\n")
}

func (r *Rule) String() string {
	var sb strings.Builder
	sb.WriteString("rule ")
	sb.WriteString(renderWord(r.Name))
	sb.WriteByte('\n')
	for _, step := range r.Steps {
		sb.WriteString(step.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// String methods on steps render one command line without the newline.

func (c *ConditionStep) String() string {
	return renderCond(c.Cond, 0)
}

func (a *AssignStep) String() string {
	return fmt.Sprintf("%s = %s", a.Name, renderValue(a.Value))
}

func (c *CopyToStep) String() string {
	return "copyto " + renderValue(c.Dest)
}

func (m *MoveToStep) String() string {
	return "moveto " + renderValue(m.Dest)
}

func (i *InspectStep) String() string {
	if i.All {
		return "inspect all"
	}
	// A literal "all" must stay quoted or it re-parses as the all form
	if lit, ok := i.Value.(*LiteralExpr); ok && strings.EqualFold(lit.Value, "all") {
		return "inspect " + quoteString(lit.Value)
	}
	return "inspect " + renderValue(i.Value)
}

func (s *StopStep) String() string {
	return "stop"
}

// Condition precedence levels for minimal re-parenthesization.
const (
	precOr = iota + 1
	precAnd
	precNot
	precAtom
)

func renderCond(e Expression, parent int) string {
	var out string
	var prec int

	switch expr := e.(type) {
	case *BinaryExpr:
		if expr.Operator == "or" {
			prec = precOr
		} else {
			prec = precAnd
		}
		out = fmt.Sprintf("%s %s %s", renderCond(expr.Left, prec), expr.Operator, renderCond(expr.Right, prec+1))

	case *UnaryExpr:
		prec = precNot
		out = "not " + renderCond(expr.Operand, precNot)

	case *IsExpr:
		prec = precAtom
		out = renderTarget(expr.Target) + "is " + string(expr.Type)

	case *GlobExpr:
		prec = precAtom
		pats := make([]string, len(expr.Patterns))
		for i, p := range expr.Patterns {
			pats[i] = renderValue(p)
		}
		out = renderTarget(expr.Target) + "glob " + strings.Join(pats, " ")

	case *MatchExpr:
		prec = precAtom
		out = renderTarget(expr.Target) + "match " + renderValue(expr.Pattern)

	case *GrepExpr:
		prec = precAtom
		out = renderTarget(expr.Target) + renderGrep(expr)

	default:
		prec = precAtom
		out = renderValue(e)
	}

	if prec < parent {
		return "(" + out + ")"
	}
	return out
}

func renderTarget(target Expression) string {
	if target == nil {
		return ""
	}
	return renderValue(target) + " "
}

func renderGrep(g *GrepExpr) string {
	if g.Limit <= 0 {
		return "grep " + renderValue(g.Pattern)
	}
	return fmt.Sprintf("grep(%s) %s", formatByteSize(g.Limit), renderValue(g.Pattern))
}

func renderValue(e Expression) string {
	switch expr := e.(type) {
	case *LiteralExpr:
		return renderWord(expr.Value)

	case *ConcatExpr:
		var sb strings.Builder
		sb.WriteByte('"')
		for _, part := range expr.Parts {
			if lit, ok := part.(*LiteralExpr); ok {
				sb.WriteString(escapeString(lit.Value))
				continue
			}
			sb.WriteByte('{')
			sb.WriteString(renderValue(part))
			sb.WriteByte('}')
		}
		sb.WriteByte('"')
		return sb.String()

	case *VarExpr:
		return "$" + expr.Name

	case *EnvExpr:
		return "env " + renderValue(expr.Name)

	default:
		return fmt.Sprintf("%v", e)
	}
}

// renderWord renders a constant as a bareword when the lexer would read
// it back as one, and as a quoted string otherwise.
func renderWord(s string) string {
	if s == "" || LookupKeyword(s) != TokenWord {
		return quoteString(s)
	}
	for i := 0; i < len(s); i++ {
		if !isWordChar(s[i]) {
			return quoteString(s)
		}
	}
	return s
}

func quoteString(s string) string {
	return `"` + escapeString(s) + `"`
}

func escapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			sb.WriteString(`\"`)
		case '{':
			sb.WriteString(`\{`)
		default:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// formatByteSize renders a byte count with the largest scale that
// divides it evenly.
func formatByteSize(n int64) string {
	scales := []struct {
		name string
		size int64
	}{
		{"gib", 1024 * 1024 * 1024},
		{"gb", 1000 * 1000 * 1000},
		{"mib", 1024 * 1024},
		{"mb", 1000 * 1000},
		{"kib", 1024},
		{"kb", 1000},
	}
	for _, scale := range scales {
		if n%scale.size == 0 {
			return fmt.Sprintf("%d %s", n/scale.size, scale.name)
		}
	}
	return fmt.Sprintf("%d b", n)
}
