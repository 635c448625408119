package engine

import (
	"strings"

	"github.com/plumbfile/plumb/internal/rules"
)

// evaluator walks expressions against a Context. Value evaluation never
// fails: an unbound variable or missing environment entry reads as "".
// Condition evaluation never faults either: I/O errors and patterns
// that do not compile at run time read as false.
type evaluator struct {
	ctx *Context
}

func (e *evaluator) value(expr rules.Expression) string {
	switch x := expr.(type) {
	case *rules.LiteralExpr:
		return x.Value
	case *rules.ConcatExpr:
		var sb strings.Builder
		for _, p := range x.Parts {
			sb.WriteString(e.value(p))
		}
		return sb.String()
	case *rules.VarExpr:
		v, _ := e.ctx.Var(x.Name)
		return v
	case *rules.EnvExpr:
		v, _ := e.ctx.Env(e.value(x.Name))
		return v
	}
	return ""
}

// cond evaluates a boolean condition expression. and/or short-circuit,
// which matters: a skipped match or grep binds no captures.
func (e *evaluator) cond(expr rules.Expression) bool {
	switch x := expr.(type) {
	case *rules.BinaryExpr:
		if x.Operator == "or" {
			return e.cond(x.Left) || e.cond(x.Right)
		}
		return e.cond(x.Left) && e.cond(x.Right)
	case *rules.UnaryExpr:
		return !e.cond(x.Operand)
	case *rules.IsExpr:
		return e.isType(x)
	case *rules.GlobExpr:
		return e.globMatch(x)
	case *rules.MatchExpr:
		return e.regexMatch(x)
	case *rules.GrepExpr:
		return e.grepFile(x)
	}
	return false
}

// target evaluates a condition's match target; nil means the payload.
func (e *evaluator) target(expr rules.Expression) string {
	if expr == nil {
		return e.ctx.Data()
	}
	return e.value(expr)
}
