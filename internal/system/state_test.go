package system

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestValidateTransition(t *testing.T) {
	valid := [][2]SystemState{
		{StateInitializing, StateRunning},
		{StateRunning, StateStopping},
		{StateStopping, StateStopped},
		{StateStopped, StateInitializing},
		{StateError, StateInitializing},
	}
	for _, tr := range valid {
		if err := ValidateTransition(tr[0], tr[1]); err != nil {
			t.Errorf("%s -> %s rejected: %v", tr[0], tr[1], err)
		}
	}

	invalid := [][2]SystemState{
		{StateInitializing, StateStopped},
		{StateRunning, StateInitializing},
		{StateStopped, StateRunning},
		{StateStopped, StateError},
	}
	for _, tr := range invalid {
		if err := ValidateTransition(tr[0], tr[1]); err == nil {
			t.Errorf("%s -> %s accepted", tr[0], tr[1])
		}
	}
}

func TestSetStateGuardsTransitions(t *testing.T) {
	lm := &LifecycleManager{currentState: StateRunning, logger: zap.NewNop()}

	lm.setState(StateInitializing)
	if lm.getStatusInternal().State != StateRunning {
		t.Fatalf("invalid transition applied, state %s", lm.getStatusInternal().State)
	}

	lm.setState(StateRunning) // same state is a no-op
	if lm.getStatusInternal().State != StateRunning {
		t.Fatalf("state %s after no-op", lm.getStatusInternal().State)
	}

	lm.setState(StateStopping)
	if lm.getStatusInternal().State != StateStopping {
		t.Fatalf("valid transition refused, state %s", lm.getStatusInternal().State)
	}
}

func TestSetErrorRecordsCause(t *testing.T) {
	lm := &LifecycleManager{currentState: StateRunning, logger: zap.NewNop()}
	lm.setError(errors.New("driver init failed"))

	status := lm.getStatusInternal()
	if status.State != StateError {
		t.Errorf("state %s, want ERROR", status.State)
	}
	if status.Error != "driver init failed" {
		t.Errorf("error %q", status.Error)
	}
}

func TestStatusSubscription(t *testing.T) {
	lm := &LifecycleManager{currentState: StateInitializing, logger: zap.NewNop()}

	ch := lm.SubscribeStatus()
	lm.broadcastStatus()

	select {
	case status := <-ch:
		if status.State != StateInitializing {
			t.Errorf("status state %s", status.State)
		}
	default:
		t.Fatal("no status delivered to subscriber")
	}

	lm.UnsubscribeStatus(ch)
	if _, open := <-ch; open {
		t.Fatal("channel still open after unsubscribe")
	}

	// Broadcasting with no listeners left must not panic.
	lm.broadcastStatus()
}
