package engine

import (
	"testing"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
	"go.uber.org/zap"
)

type recordingObserver struct {
	name      string
	order     *[]string
	bursts    int
	logs      []string
	registers []radarapi.RegisterValue
}

func (o *recordingObserver) OnBurstReady() {
	o.bursts++
	if o.order != nil {
		*o.order = append(*o.order, o.name)
	}
}

func (o *recordingObserver) OnLogMessage(_ radarapi.LogLevel, _, _ string, _ int, message string) {
	o.logs = append(o.logs, message)
}

func (o *recordingObserver) OnRegisterSet(address, value uint32) {
	o.registers = append(o.registers, radarapi.RegisterValue{Address: address, Value: value})
}

func TestObserverDispatchOrder(t *testing.T) {
	h := newObserverHub(zap.NewNop())
	var order []string
	a := &recordingObserver{name: "a", order: &order}
	b := &recordingObserver{name: "b", order: &order}

	if err := h.add(a); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if err := h.add(b); err != nil {
		t.Fatalf("add b: %v", err)
	}

	h.notifyBurstReady()
	h.notifyBurstReady()

	want := []string{"a", "b", "a", "b"}
	if len(order) != len(want) {
		t.Fatalf("dispatch order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dispatch order %v, want %v", order, want)
		}
	}
}

func TestObserverAddIdempotent(t *testing.T) {
	h := newObserverHub(zap.NewNop())
	a := &recordingObserver{name: "a"}

	h.add(a)
	if err := h.add(a); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}

	h.notifyBurstReady()
	if a.bursts != 1 {
		t.Errorf("observer notified %d times per burst after duplicate add", a.bursts)
	}
}

func TestObserverRemoveUnknown(t *testing.T) {
	h := newObserverHub(zap.NewNop())
	err := h.remove(&recordingObserver{name: "ghost"})
	if radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Errorf("code %v, want RC_BAD_INPUT", radarapi.CodeOf(err))
	}
}

// reentrantObserver removes itself from inside its own callback.
type reentrantObserver struct {
	hub    *observerHub
	bursts int
}

func (o *reentrantObserver) OnBurstReady() {
	o.bursts++
	o.hub.remove(o)
}
func (o *reentrantObserver) OnLogMessage(radarapi.LogLevel, string, string, int, string) {}
func (o *reentrantObserver) OnRegisterSet(uint32, uint32)                                {}

func TestObserverReentrantRemove(t *testing.T) {
	h := newObserverHub(zap.NewNop())
	o := &reentrantObserver{hub: h}
	tail := &recordingObserver{name: "tail"}

	h.add(o)
	h.add(tail)

	// Must not deadlock, and the round still reaches the tail.
	h.notifyBurstReady()
	if tail.bursts != 1 {
		t.Errorf("tail notified %d times, want 1", tail.bursts)
	}

	h.notifyBurstReady()
	if o.bursts != 1 {
		t.Errorf("removed observer notified again (%d total)", o.bursts)
	}
}

type panickyObserver struct{}

func (panickyObserver) OnBurstReady()                                               { panic("boom") }
func (panickyObserver) OnLogMessage(radarapi.LogLevel, string, string, int, string) {}
func (panickyObserver) OnRegisterSet(uint32, uint32)                                {}

func TestObserverPanicDoesNotAbortDispatch(t *testing.T) {
	h := newObserverHub(zap.NewNop())
	tail := &recordingObserver{name: "tail"}

	h.add(panickyObserver{})
	h.add(tail)

	h.notifyBurstReady()
	if tail.bursts != 1 {
		t.Errorf("tail notified %d times after panicking observer, want 1", tail.bursts)
	}
}

func TestObserverLogLevelFilter(t *testing.T) {
	h := newObserverHub(zap.NewNop())
	a := &recordingObserver{name: "a"}
	h.add(a)

	if err := h.setLevel(radarapi.LogWrn); err != nil {
		t.Fatalf("setLevel: %v", err)
	}
	h.notifyLog(radarapi.LogErr, "f.go", "fn", 1, "err")
	h.notifyLog(radarapi.LogWrn, "f.go", "fn", 2, "wrn")
	h.notifyLog(radarapi.LogInf, "f.go", "fn", 3, "inf")

	if len(a.logs) != 2 || a.logs[0] != "err" || a.logs[1] != "wrn" {
		t.Errorf("logs = %v, want [err wrn]", a.logs)
	}

	if err := h.setLevel(radarapi.LogOff); err != nil {
		t.Fatalf("setLevel off: %v", err)
	}
	h.notifyLog(radarapi.LogErr, "f.go", "fn", 4, "silenced")
	if len(a.logs) != 2 {
		t.Errorf("LOG_OFF still dispatched: %v", a.logs)
	}

	if err := h.setLevel(radarapi.LogUndefined); radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Errorf("undefined level: code %v", radarapi.CodeOf(err))
	}
}
