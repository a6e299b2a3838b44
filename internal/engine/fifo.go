package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// Burst is one complete acquisition cycle owned by the FIFO until a
// consumer pops it.
type Burst struct {
	Format  radarapi.BurstFormat
	Payload []byte
}

// burstFifo is the bounded queue between the acquisition producer and
// the application consumer. It has its own lock so pushes and blocking
// pops never contend with the engine mutex.
type burstFifo struct {
	mu       sync.Mutex
	queue    []*Burst
	capacity int
	mode     radarapi.FifoMode
	dropped  uint64

	// notify wakes at most one blocked consumer per push.
	notify chan struct{}
}

func newBurstFifo(capacity int) *burstFifo {
	if capacity <= 0 {
		capacity = 16
	}
	return &burstFifo{
		capacity: capacity,
		mode:     radarapi.FifoDropOld,
		notify:   make(chan struct{}, 1),
	}
}

func (f *burstFifo) setMode(mode radarapi.FifoMode) error {
	if mode != radarapi.FifoDropNew && mode != radarapi.FifoDropOld {
		return fmt.Errorf("fifo mode %d: %w", mode, radarapi.RCBadInput)
	}
	f.mu.Lock()
	f.mode = mode
	f.mu.Unlock()
	return nil
}

// push admits a burst, applying the overflow policy when full. The
// return value reports whether the burst was admitted.
func (f *burstFifo) push(b *Burst) bool {
	f.mu.Lock()
	if len(f.queue) >= f.capacity {
		if f.mode == radarapi.FifoDropNew {
			f.dropped++
			f.mu.Unlock()
			return false
		}
		// DROP_OLD: evict the head to admit the newest.
		f.queue = f.queue[1:]
		f.dropped++
	}
	f.queue = append(f.queue, b)
	f.mu.Unlock()

	f.signal()
	return true
}

func (f *burstFifo) signal() {
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

func (f *burstFifo) ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) > 0
}

func (f *burstFifo) length() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

func (f *burstFifo) droppedCount() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

func (f *burstFifo) drain() {
	f.mu.Lock()
	f.queue = nil
	f.mu.Unlock()
}

// pop removes and returns the head burst, blocking up to timeout.
func (f *burstFifo) pop(timeout time.Duration) (*Burst, error) {
	b, _, err := f.popMax(timeout, -1)
	return b, err
}

// popMax is pop with the caller-buffer contract: if the head payload
// exceeds maxBytes (>= 0), it stays queued and the required size is
// returned with RC_BAD_INPUT. A negative maxBytes means unbounded.
func (f *burstFifo) popMax(timeout time.Duration, maxBytes int) (*Burst, int, error) {
	deadline := time.Now().Add(timeout)
	for {
		f.mu.Lock()
		if len(f.queue) > 0 {
			head := f.queue[0]
			if maxBytes >= 0 && len(head.Payload) > maxBytes {
				need := len(head.Payload)
				f.mu.Unlock()
				// The head stays queued; hand the wakeup token to the
				// next blocked consumer.
				f.signal()
				return nil, need, fmt.Errorf("buffer smaller than %d byte payload: %w",
					need, radarapi.RCBadInput)
			}
			f.queue[0] = nil
			f.queue = f.queue[1:]
			remaining := len(f.queue)
			f.mu.Unlock()
			if remaining > 0 {
				// Each push signals at most once, so a consumed token
				// must be re-armed while bursts remain for other
				// blocked consumers.
				f.signal()
			}
			return head, len(head.Payload), nil
		}
		f.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, 0, fmt.Errorf("no burst within %v: %w", timeout, radarapi.RCTimeout)
		}
		timer := time.NewTimer(remaining)
		select {
		case <-f.notify:
			timer.Stop()
		case <-timer.C:
			// Re-check once; a push may have raced the timer.
		}
	}
}
