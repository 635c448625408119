package engine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// PassContext is the context passed to the pass state machine.
type PassContext struct {
	Pending int
}

// Event names for the pass state machine.
const (
	EventExecute statekit.EventType = "EXECUTE"
	EventHalt    statekit.EventType = "HALT"
	EventFinish  statekit.EventType = "FINISH"
	EventAbort   statekit.EventType = "ABORT"
)

// Pass states.
const (
	StateScanning  = "scanning"
	StateExecuting = "executing"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// State IDs for the pass state machine.
var (
	StateIDScanning  = statekit.StateID(StateScanning)
	StateIDExecuting = statekit.StateID(StateExecuting)
	StateIDCompleted = statekit.StateID(StateCompleted)
	StateIDFailed    = statekit.StateID(StateFailed)
)

// PassMachine wraps the Statekit state machine sequencing one routing
// pass: scan the rules, execute the pending actions, finish. A pass
// with nothing queued halts straight to completed.
type PassMachine struct {
	interpreter *statekit.Interpreter[PassContext]
}

// NewPassMachine creates a new state machine for one routing pass.
func NewPassMachine() (*PassMachine, error) {
	machine, err := statekit.NewMachine[PassContext]("routing-pass").
		WithInitial(StateIDScanning).
		// Scanning state
		State(StateIDScanning).
		On(EventExecute).Target(StateIDExecuting).
		On(EventHalt).Target(StateIDCompleted).
		On(EventAbort).Target(StateIDFailed).
		Done().
		// Executing state
		State(StateIDExecuting).
		On(EventFinish).Target(StateIDCompleted).
		On(EventAbort).Target(StateIDFailed).
		Done().
		// Completed state (terminal)
		State(StateIDCompleted).
		Final().
		Done().
		// Failed state (terminal)
		State(StateIDFailed).
		Final().
		Done().
		Build()

	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)

	return &PassMachine{
		interpreter: interp,
	}, nil
}

// Guard implementations - guards take context by value (not pointer)

func guardHasPending(ctx PassContext, _ statekit.Event) bool {
	return ctx.Pending > 0
}

// ValidatePassEvent checks if an event is valid for the given pass
// context without sending it. EventExecute requires pending actions;
// EventHalt requires an empty queue.
func ValidatePassEvent(pc PassContext, event statekit.EventType) error {
	switch event {
	case EventExecute:
		if !guardHasPending(pc, statekit.Event{}) {
			return fmt.Errorf("cannot execute: no pending actions")
		}
	case EventHalt:
		if guardHasPending(pc, statekit.Event{}) {
			return fmt.Errorf("cannot halt: %d actions pending", pc.Pending)
		}
	case EventFinish, EventAbort:
	default:
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}

// Start starts the state machine interpreter.
func (m *PassMachine) Start() {
	m.interpreter.Start()
}

// Send sends an event to the interpreter.
func (m *PassMachine) Send(event statekit.EventType) error {
	if m.interpreter == nil {
		return fmt.Errorf("interpreter not started")
	}
	m.interpreter.Send(statekit.Event{Type: event})
	return nil
}

// CurrentState returns the current state.
func (m *PassMachine) CurrentState() statekit.StateID {
	if m.interpreter == nil {
		return ""
	}
	return m.interpreter.State().Value
}

// IsDone returns true if the machine is in a final state.
func (m *PassMachine) IsDone() bool {
	if m.interpreter == nil {
		return false
	}
	return m.interpreter.Done()
}
