// Package engine routes messages through a parsed rule set. A pass
// scans the rules in file order, evaluates conditions against the
// message, binds variables, and collects actions; the pending actions
// are then handed to an executor. The pass lifecycle is sequenced by a
// small state machine.
package engine

import (
	"context"

	perrors "github.com/plumbfile/plumb/internal/errors"
	"github.com/plumbfile/plumb/internal/rules"
)

// ActionKind identifies what a queued action does.
type ActionKind string

// Action kinds.
const (
	ActionCopy    ActionKind = "copyto"
	ActionMove    ActionKind = "moveto"
	ActionInspect ActionKind = "inspect"
)

// Action is one materialized action. Every expression it carried was
// evaluated at queue time, so executing it later needs no context.
type Action struct {
	Kind ActionKind
	// Source is the file being transferred (copyto/moveto).
	Source string
	// Dest is the transfer destination (copyto/moveto).
	Dest string
	// Value is the evaluated payload (inspect).
	Value string
	// All is the context snapshot (inspect all); nil otherwise.
	All map[string]string
	// Rule names the rule that queued the action.
	Rule string
	Line int
}

// Executor runs a batch of materialized actions. Implementations may
// group work internally (consolidating transfers to one destination)
// but report a single error covering the batch.
type Executor interface {
	Execute(ctx context.Context, actions []Action) error
}

// Engine evaluates one rule set against messages. An Engine is
// immutable after New and safe for concurrent passes; each pass gets
// its own Context.
type Engine struct {
	rules *rules.RuleSet
	env   EnvProvider
	stat  Stater
	vars  map[string]string
	trace bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnv sets the environment provider used by env lookups.
func WithEnv(env EnvProvider) Option {
	return func(e *Engine) { e.env = env }
}

// WithStater sets the filesystem status provider used by is and grep.
func WithStater(st Stater) Option {
	return func(e *Engine) { e.stat = st }
}

// WithVars pre-seeds the variable scope of every pass.
func WithVars(vars map[string]string) Option {
	return func(e *Engine) {
		if e.vars == nil {
			e.vars = make(map[string]string, len(vars))
		}
		for k, v := range vars {
			e.vars[k] = v
		}
	}
}

// WithTrace records a per-step account of each pass in the Result.
func WithTrace() Option {
	return func(e *Engine) { e.trace = true }
}

// New creates an Engine for a parsed rule set.
func New(set *rules.RuleSet, opts ...Option) *Engine {
	e := &Engine{
		rules: set,
		env:   OSEnv(),
		stat:  OSStater(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of scanning one message.
type Result struct {
	Message *Message
	// Actions is the pending list, in collection order.
	Actions []Action
	// Stopped reports that the scan ended on a stop command rather
	// than by running out of rules.
	Stopped bool
	// Matched names the rules whose conditions all passed.
	Matched []string
	// Trace is the per-step account; non-nil only with WithTrace.
	Trace *Trace
}

// Trace is a per-rule account of one pass, for diagnostics.
type Trace struct {
	Rules []RuleTrace
}

// RuleTrace records how far one rule got.
type RuleTrace struct {
	Name string
	Line int
	// Steps holds one entry per step reached, in order.
	Steps []StepTrace
	// Abandoned reports that a condition failed before the rule ended.
	Abandoned bool
}

// StepTrace records the outcome of one step.
type StepTrace struct {
	Line int
	// Kind is one of condition, assign, copyto, moveto, inspect, stop.
	Kind string
	// Text is the step as written.
	Text string
	// Passed is the condition outcome; meaningless for other kinds.
	Passed bool
	// Bound holds the variables this step bound, if any.
	Bound map[string]string
	// Action is a copy of the queued action, for action steps.
	Action *Action
}

func (rt *RuleTrace) record(st StepTrace) {
	if rt == nil {
		return
	}
	rt.Steps = append(rt.Steps, st)
}

// Scan runs one full pass over the rule set without executing
// anything. The returned Result holds the pending actions in
// collection order. Scanning never fails on rule content; the only
// error is cancellation.
func (e *Engine) Scan(ctx context.Context, msg *Message) (*Result, error) {
	ec := NewContext(msg, e.env, e.stat)
	for k, v := range e.vars {
		ec.Set(k, v)
	}
	ev := &evaluator{ctx: ec}

	res := &Result{Message: msg}
	if e.trace {
		res.Trace = &Trace{}
	}

	for _, rule := range e.rules.Rules {
		if err := ctx.Err(); err != nil {
			return nil, perrors.Wrap(err, perrors.KindCanceled, "engine.Scan", "routing canceled")
		}
		stopped, matched := scanRule(ev, rule, res.Trace)
		if matched {
			res.Matched = append(res.Matched, rule.Name)
		}
		if stopped {
			res.Stopped = true
			break
		}
	}
	res.Actions = ec.Pending()
	return res, nil
}

// scanRule runs one rule's steps in order. The first false condition
// abandons the rest of the rule; actions already queued stay queued.
func scanRule(ev *evaluator, rule *rules.Rule, tr *Trace) (stopped, matched bool) {
	var rt *RuleTrace
	if tr != nil {
		tr.Rules = append(tr.Rules, RuleTrace{Name: rule.Name, Line: rule.Line})
		rt = &tr.Rules[len(tr.Rules)-1]
	}

	for _, step := range rule.Steps {
		switch s := step.(type) {
		case *rules.ConditionStep:
			var before map[string]string
			if rt != nil {
				before = copyScope(ev.ctx.vars)
			}
			ok := ev.cond(s.Cond)
			rt.record(StepTrace{
				Line:   s.Line,
				Kind:   "condition",
				Text:   s.String(),
				Passed: ok,
				Bound:  scopeDiff(before, ev.ctx.vars),
			})
			if !ok {
				if rt != nil {
					rt.Abandoned = true
				}
				return false, false
			}

		case *rules.AssignStep:
			val := ev.value(s.Value)
			ev.ctx.Set(s.Name, val)
			rt.record(StepTrace{
				Line:  s.Line,
				Kind:  "assign",
				Text:  s.String(),
				Bound: map[string]string{s.Name: val},
			})

		case *rules.CopyToStep:
			a := materializeTransfer(ev, ActionCopy, s.Dest, rule.Name, s.Line)
			ev.ctx.queue(a)
			rt.record(StepTrace{Line: s.Line, Kind: "copyto", Text: s.String(), Action: &a})

		case *rules.MoveToStep:
			a := materializeTransfer(ev, ActionMove, s.Dest, rule.Name, s.Line)
			ev.ctx.queue(a)
			rt.record(StepTrace{Line: s.Line, Kind: "moveto", Text: s.String(), Action: &a})

		case *rules.InspectStep:
			a := Action{Kind: ActionInspect, Rule: rule.Name, Line: s.Line}
			if s.All {
				a.All = ev.ctx.Snapshot()
			} else {
				a.Value = ev.value(s.Value)
			}
			ev.ctx.queue(a)
			rt.record(StepTrace{Line: s.Line, Kind: "inspect", Text: s.String(), Action: &a})

		case *rules.StopStep:
			rt.record(StepTrace{Line: s.Line, Kind: "stop", Text: s.String()})
			return true, true
		}
	}
	return false, true
}

// materializeTransfer evaluates a transfer action against the current
// context: the source is the payload as it reads right now, so a later
// rebinding of data does not retroactively change a queued transfer.
func materializeTransfer(ev *evaluator, kind ActionKind, dest rules.Expression, ruleName string, line int) Action {
	return Action{
		Kind:   kind,
		Source: ev.ctx.ResolvePath(ev.ctx.Data()),
		Dest:   ev.ctx.ResolvePath(ev.value(dest)),
		Rule:   ruleName,
		Line:   line,
	}
}

// Route scans the message and hands any pending actions to the
// executor, driving the pass lifecycle machine along the way. A nil
// executor skips the execution phase (trace and dry scans).
func (e *Engine) Route(ctx context.Context, msg *Message, exec Executor) (*Result, error) {
	machine, err := NewPassMachine()
	if err != nil {
		return nil, perrors.InternalWrap(err, "engine.Route", "building pass machine")
	}
	machine.Start()

	res, err := e.Scan(ctx, msg)
	if err != nil {
		_ = machine.Send(EventAbort)
		return nil, err
	}

	pc := PassContext{Pending: len(res.Actions)}
	if exec == nil || ValidatePassEvent(pc, EventExecute) != nil {
		_ = machine.Send(EventHalt)
		return res, nil
	}

	_ = machine.Send(EventExecute)
	if err := exec.Execute(ctx, res.Actions); err != nil {
		_ = machine.Send(EventAbort)
		return res, perrors.ExecutionWrap(err, "engine.Route", "executing actions")
	}
	_ = machine.Send(EventFinish)
	return res, nil
}

func copyScope(vars map[string]string) map[string]string {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}

// scopeDiff returns the bindings present in after but absent or
// different in before. A nil before yields nil.
func scopeDiff(before, after map[string]string) map[string]string {
	if before == nil {
		return nil
	}
	var diff map[string]string
	for k, v := range after {
		if old, ok := before[k]; !ok || old != v {
			if diff == nil {
				diff = make(map[string]string)
			}
			diff[k] = v
		}
	}
	return diff
}
