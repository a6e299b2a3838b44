package engine

import (
	"fmt"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// powerFSM tracks the sensor power state. Transitions:
//
//	OFF        --TurnOn-------------> IDLE
//	IDLE       --StartDataStreaming-> ACTIVE   (needs an active slot)
//	ACTIVE     --StopDataStreaming--> IDLE
//	IDLE/ACTIVE--GoSleep------------> SLEEP
//	SLEEP      --WakeUp-------------> IDLE
//	any        --TurnOff------------> OFF
//
// Anything else is RC_BAD_STATE with no side effect. The engine mutex
// guards the FSM; it is not self-locking.
type powerFSM struct {
	state radarapi.State
}

func newPowerFSM() *powerFSM {
	return &powerFSM{state: radarapi.StateOff}
}

func (p *powerFSM) current() radarapi.State { return p.state }

// to moves to target if the current state is one of from.
func (p *powerFSM) to(target radarapi.State, from ...radarapi.State) error {
	for _, s := range from {
		if p.state == s {
			p.state = target
			return nil
		}
	}
	return fmt.Errorf("cannot reach %s from %s: %w", target, p.state, radarapi.RCBadState)
}

// force sets the state unconditionally. Used for transitions that are
// legal from every state (TurnOff) and for moves whose preconditions
// the engine already checked.
func (p *powerFSM) force(s radarapi.State) { p.state = s }

// in reports whether the current state is one of the given states.
func (p *powerFSM) in(states ...radarapi.State) bool {
	for _, s := range states {
		if p.state == s {
			return true
		}
	}
	return false
}
