package engine

import (
	"fmt"
	"sync"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
	"go.uber.org/zap"
)

// observerHub is the thread-safe observer registry. Dispatch iterates
// a snapshot of the registration-ordered list, so an observer may add
// or remove observers from within its own callback without deadlock;
// such changes take effect from the next dispatch round.
type observerHub struct {
	logger *zap.Logger

	mu        sync.Mutex
	observers []radarapi.Observer
	level     radarapi.LogLevel
}

func newObserverHub(logger *zap.Logger) *observerHub {
	return &observerHub{
		logger: logger,
		level:  radarapi.LogInf,
	}
}

// add registers an observer. Adding the same observer twice is
// idempotent: it stays registered once and is not re-ordered.
func (h *observerHub) add(obs radarapi.Observer) error {
	if obs == nil {
		return fmt.Errorf("nil observer: %w", radarapi.RCBadInput)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, o := range h.observers {
		if o == obs {
			return nil
		}
	}
	h.observers = append(h.observers, obs)
	return nil
}

func (h *observerHub) remove(obs radarapi.Observer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, o := range h.observers {
		if o == obs {
			h.observers = append(h.observers[:i], h.observers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("observer not registered: %w", radarapi.RCBadInput)
}

func (h *observerHub) setLevel(level radarapi.LogLevel) error {
	if level < radarapi.LogOff || level > radarapi.LogDbg {
		return fmt.Errorf("log level %d: %w", level, radarapi.RCBadInput)
	}
	h.mu.Lock()
	h.level = level
	h.mu.Unlock()
	return nil
}

func (h *observerHub) snapshot() []radarapi.Observer {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]radarapi.Observer, len(h.observers))
	copy(out, h.observers)
	return out
}

func (h *observerHub) notifyBurstReady() {
	for _, obs := range h.snapshot() {
		h.invoke(func() { obs.OnBurstReady() })
	}
}

func (h *observerHub) notifyRegisterSet(address, value uint32) {
	for _, obs := range h.snapshot() {
		h.invoke(func() { obs.OnRegisterSet(address, value) })
	}
}

func (h *observerHub) notifyLog(level radarapi.LogLevel, file, function string, line int, message string) {
	h.mu.Lock()
	configured := h.level
	h.mu.Unlock()
	if configured == radarapi.LogOff || level > configured {
		return
	}
	for _, obs := range h.snapshot() {
		h.invoke(func() { obs.OnLogMessage(level, file, function, line, message) })
	}
}

// invoke shields dispatch from observer failures: a panicking callback
// must not abort delivery to the remaining observers or corrupt core
// state.
func (h *observerHub) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Observer callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
