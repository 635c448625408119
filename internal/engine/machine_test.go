package engine

import (
	"testing"

	"github.com/felixgeelhaar/statekit"
)

func TestNewPassMachine(t *testing.T) {
	machine, err := NewPassMachine()
	if err != nil {
		t.Fatalf("NewPassMachine() error = %v", err)
	}
	if machine == nil {
		t.Fatal("NewPassMachine() returned nil machine")
	}
}

func TestPassMachine_Start(t *testing.T) {
	machine, err := NewPassMachine()
	if err != nil {
		t.Fatalf("NewPassMachine() error = %v", err)
	}

	machine.Start()

	// Should start in scanning state
	if machine.CurrentState() != StateIDScanning {
		t.Errorf("CurrentState() = %v, want %v", machine.CurrentState(), StateIDScanning)
	}
}

func TestPassMachine_CurrentState_NotStarted(t *testing.T) {
	machine, err := NewPassMachine()
	if err != nil {
		t.Fatalf("NewPassMachine() error = %v", err)
	}

	state := machine.CurrentState()
	if state != "" {
		t.Errorf("CurrentState() = %v, want empty string before starting", state)
	}
}

func TestPassMachine_IsDone(t *testing.T) {
	machine, err := NewPassMachine()
	if err != nil {
		t.Fatalf("NewPassMachine() error = %v", err)
	}

	// Before starting
	if machine.IsDone() {
		t.Error("IsDone() = true before starting, want false")
	}

	machine.Start()

	// After starting in non-final state
	if machine.IsDone() {
		t.Error("IsDone() = true in scanning state, want false")
	}
}

func TestPassMachine_ExecutePath(t *testing.T) {
	machine, err := NewPassMachine()
	if err != nil {
		t.Fatalf("NewPassMachine() error = %v", err)
	}

	machine.Start()

	if err := machine.Send(EventExecute); err != nil {
		t.Fatalf("Send(EventExecute) error = %v", err)
	}
	if machine.CurrentState() != StateIDExecuting {
		t.Errorf("CurrentState() = %v, want %v", machine.CurrentState(), StateIDExecuting)
	}

	if err := machine.Send(EventFinish); err != nil {
		t.Fatalf("Send(EventFinish) error = %v", err)
	}
	if machine.CurrentState() != StateIDCompleted {
		t.Errorf("CurrentState() = %v, want %v", machine.CurrentState(), StateIDCompleted)
	}
	if !machine.IsDone() {
		t.Error("IsDone() = false in completed state, want true")
	}
}

func TestPassMachine_HaltPath(t *testing.T) {
	machine, err := NewPassMachine()
	if err != nil {
		t.Fatalf("NewPassMachine() error = %v", err)
	}

	machine.Start()

	if err := machine.Send(EventHalt); err != nil {
		t.Fatalf("Send(EventHalt) error = %v", err)
	}
	if machine.CurrentState() != StateIDCompleted {
		t.Errorf("CurrentState() = %v, want %v", machine.CurrentState(), StateIDCompleted)
	}
	if !machine.IsDone() {
		t.Error("IsDone() = false after halt, want true")
	}
}

func TestPassMachine_AbortPaths(t *testing.T) {
	t.Run("abort while scanning", func(t *testing.T) {
		machine, err := NewPassMachine()
		if err != nil {
			t.Fatalf("NewPassMachine() error = %v", err)
		}
		machine.Start()

		if err := machine.Send(EventAbort); err != nil {
			t.Fatalf("Send(EventAbort) error = %v", err)
		}
		if machine.CurrentState() != StateIDFailed {
			t.Errorf("CurrentState() = %v, want %v", machine.CurrentState(), StateIDFailed)
		}
		if !machine.IsDone() {
			t.Error("IsDone() = false in failed state, want true")
		}
	})

	t.Run("abort while executing", func(t *testing.T) {
		machine, err := NewPassMachine()
		if err != nil {
			t.Fatalf("NewPassMachine() error = %v", err)
		}
		machine.Start()

		_ = machine.Send(EventExecute)
		if err := machine.Send(EventAbort); err != nil {
			t.Fatalf("Send(EventAbort) error = %v", err)
		}
		if machine.CurrentState() != StateIDFailed {
			t.Errorf("CurrentState() = %v, want %v", machine.CurrentState(), StateIDFailed)
		}
	})
}

func TestValidatePassEvent(t *testing.T) {
	tests := []struct {
		name    string
		pc      PassContext
		event   string
		wantErr bool
	}{
		{"execute with pending", PassContext{Pending: 3}, string(EventExecute), false},
		{"execute without pending", PassContext{Pending: 0}, string(EventExecute), true},
		{"halt without pending", PassContext{Pending: 0}, string(EventHalt), false},
		{"halt with pending", PassContext{Pending: 1}, string(EventHalt), true},
		{"finish", PassContext{}, string(EventFinish), false},
		{"abort", PassContext{Pending: 2}, string(EventAbort), false},
		{"unknown event", PassContext{}, "EXPLODE", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassEvent(tt.pc, statekit.EventType(tt.event))
			hasErr := err != nil
			if hasErr != tt.wantErr {
				t.Errorf("ValidatePassEvent(%v, %s) hasErr = %v, want %v", tt.pc, tt.event, hasErr, tt.wantErr)
			}
		})
	}
}

func TestGuardHasPending(t *testing.T) {
	if guardHasPending(PassContext{Pending: 0}, statekit.Event{}) {
		t.Error("guardHasPending() = true with empty queue, want false")
	}
	if !guardHasPending(PassContext{Pending: 1}, statekit.Event{}) {
		t.Error("guardHasPending() = false with pending actions, want true")
	}
}
