package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// builtinVars are the variable names every routing context starts with,
// taken from the message being routed.
var builtinVars = map[string]bool{
	"data":          true,
	"original_data": true,
	"src":           true,
	"dst":           true,
	"type":          true,
	"wdir":          true,
	"attr":          true,
}

// IsBuiltinVar reports whether name is bound by the message itself
// rather than by an assignment or a capture.
func IsBuiltinVar(name string) bool {
	return builtinVars[name]
}

// LintResult contains all lint errors and warnings.
type LintResult struct {
	Errors   []string
	Warnings []string
}

// Error implements the error interface.
func (r *LintResult) Error() string {
	var parts []string

	if len(r.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("Errors:\n  - %s", strings.Join(r.Errors, "\n  - ")))
	}

	if len(r.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("Warnings:\n  - %s", strings.Join(r.Warnings, "\n  - ")))
	}

	return fmt.Sprintf("rules check failed:\n%s", strings.Join(parts, "\n"))
}

// HasErrors returns true if there are lint errors.
func (r *LintResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are lint warnings.
func (r *LintResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Addf adds a formatted error to the result.
func (r *LintResult) Addf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Warnf adds a formatted warning to the result.
func (r *LintResult) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Linter checks a parsed rule set for problems the parser accepts:
// patterns that can never compile, steps that can never run, variables
// that are never bound.
type Linter struct {
	findings *LintResult
}

// NewLinter creates a new rule set linter.
func NewLinter() *Linter {
	return &Linter{
		findings: &LintResult{},
	}
}

// Lint checks the rule set and returns all findings.
func (l *Linter) Lint(set *RuleSet) *LintResult {
	l.lintNames(set)

	unconditionalStop := false
	for _, rule := range set.Rules {
		if unconditionalStop {
			l.findings.Warnf("rule %q (line %d): unreachable, an earlier rule always stops", rule.Name, rule.Line)
		}
		l.lintRule(rule)
		if ruleAlwaysStops(rule) {
			unconditionalStop = true
		}
	}

	return l.findings
}

// lintNames warns about duplicate rule names. Duplicates are legal,
// the name is only a label, but they make trace output ambiguous.
func (l *Linter) lintNames(set *RuleSet) {
	seen := make(map[string]int)
	for _, rule := range set.Rules {
		if first, ok := seen[rule.Name]; ok {
			l.findings.Warnf("rule %q (line %d): duplicate of rule at line %d", rule.Name, rule.Line, first)
			continue
		}
		seen[rule.Name] = rule.Line
	}
}

func (l *Linter) lintRule(rule *Rule) {
	if len(rule.Steps) == 0 {
		l.findings.Warnf("rule %q (line %d): has no commands", rule.Name, rule.Line)
		return
	}

	bound := make(map[string]bool)
	captures := false
	stopped := false

	for _, step := range rule.Steps {
		if stopped {
			l.findings.Warnf("rule %q (line %d): command after stop never runs", rule.Name, stepLine(step))
			break
		}

		for _, expr := range stepExprs(step) {
			l.lintExpr(rule, expr, bound, captures)
		}

		switch s := step.(type) {
		case *AssignStep:
			bound[s.Name] = true
		case *ConditionStep:
			if condBindsCaptures(s.Cond) {
				captures = true
			}
		case *StopStep:
			stopped = true
		}
	}
}

// lintExpr checks one expression tree: constant patterns must compile,
// variable references should have a plausible binding.
func (l *Linter) lintExpr(rule *Rule, expr Expression, bound map[string]bool, captures bool) {
	walkExpr(expr, func(e Expression) {
		switch x := e.(type) {
		case *MatchExpr:
			l.lintPattern(rule, x.Pattern)
		case *GrepExpr:
			l.lintPattern(rule, x.Pattern)
		case *GlobExpr:
			for _, pat := range x.Patterns {
				if lit, ok := pat.(*LiteralExpr); ok {
					if _, err := glob.Compile(lit.Value); err != nil {
						l.findings.Addf("rule %q (line %d): bad glob pattern %q: %v", rule.Name, x.Line, lit.Value, err)
					}
				}
			}
		case *VarExpr:
			if l.varUnbound(x.Name, bound, captures) {
				l.findings.Warnf("rule %q (line %d): $%s may be unbound, it resolves to the empty string", rule.Name, x.Line, x.Name)
			}
		}
	})
}

func (l *Linter) lintPattern(rule *Rule, pattern Expression) {
	lit, ok := pattern.(*LiteralExpr)
	if !ok {
		return
	}
	if _, err := regexp.Compile(lit.Value); err != nil {
		l.findings.Addf("rule %q: bad regex %q: %v", rule.Name, lit.Value, err)
	}
}

func (l *Linter) varUnbound(name string, bound map[string]bool, captures bool) bool {
	if IsBuiltinVar(name) || bound[name] {
		return false
	}
	if captures && (isDigits(name) || strings.HasPrefix(name, "match_")) {
		return false
	}
	return true
}

// Lint is a convenience function to lint a rule set.
func Lint(set *RuleSet) *LintResult {
	return NewLinter().Lint(set)
}

// ruleAlwaysStops reports whether the rule reaches `stop` without any
// condition in front of it, which makes every later rule unreachable.
func ruleAlwaysStops(rule *Rule) bool {
	for _, step := range rule.Steps {
		switch step.(type) {
		case *ConditionStep:
			return false
		case *StopStep:
			return true
		}
	}
	return false
}

// condBindsCaptures reports whether evaluating the condition can bind
// capture variables.
func condBindsCaptures(e Expression) bool {
	found := false
	walkExpr(e, func(expr Expression) {
		switch expr.(type) {
		case *MatchExpr, *GrepExpr:
			found = true
		}
	})
	return found
}

// stepExprs returns every expression a step evaluates.
func stepExprs(step Step) []Expression {
	switch s := step.(type) {
	case *ConditionStep:
		return []Expression{s.Cond}
	case *AssignStep:
		return []Expression{s.Value}
	case *CopyToStep:
		return []Expression{s.Dest}
	case *MoveToStep:
		return []Expression{s.Dest}
	case *InspectStep:
		if s.Value != nil {
			return []Expression{s.Value}
		}
	}
	return nil
}

func stepLine(step Step) int {
	switch s := step.(type) {
	case *ConditionStep:
		return s.Line
	case *AssignStep:
		return s.Line
	case *CopyToStep:
		return s.Line
	case *MoveToStep:
		return s.Line
	case *InspectStep:
		return s.Line
	case *StopStep:
		return s.Line
	}
	return 0
}

// walkExpr visits expr and every expression nested inside it.
func walkExpr(expr Expression, fn func(Expression)) {
	if expr == nil {
		return
	}
	fn(expr)

	switch x := expr.(type) {
	case *BinaryExpr:
		walkExpr(x.Left, fn)
		walkExpr(x.Right, fn)
	case *UnaryExpr:
		walkExpr(x.Operand, fn)
	case *IsExpr:
		walkExpr(x.Target, fn)
	case *GlobExpr:
		walkExpr(x.Target, fn)
		for _, pat := range x.Patterns {
			walkExpr(pat, fn)
		}
	case *MatchExpr:
		walkExpr(x.Target, fn)
		walkExpr(x.Pattern, fn)
	case *GrepExpr:
		walkExpr(x.Target, fn)
		walkExpr(x.Pattern, fn)
	case *ConcatExpr:
		for _, part := range x.Parts {
			walkExpr(part, fn)
		}
	case *EnvExpr:
		walkExpr(x.Name, fn)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
