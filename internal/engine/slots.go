package engine

import (
	"fmt"
	"math/bits"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// configSlot is one activatable parameter bundle. The slot manager is
// not self-locking; the engine mutex guards all access.
type configSlot struct {
	active bool
	params *paramStore
}

type slotManager struct {
	slots       []*configSlot
	numChannels int
}

func newSlotManager(numSlots, numChannels int) *slotManager {
	m := &slotManager{
		slots:       make([]*configSlot, numSlots),
		numChannels: numChannels,
	}
	for i := range m.slots {
		m.slots[i] = &configSlot{params: newParamStore()}
	}
	return m
}

func (m *slotManager) count() int { return len(m.slots) }

func (m *slotManager) slot(id int) (*configSlot, error) {
	if id < 0 || id >= len(m.slots) {
		return nil, fmt.Errorf("slot %d out of range [0, %d): %w", id, len(m.slots), radarapi.RCBadInput)
	}
	return m.slots[id], nil
}

func (m *slotManager) activeSlots() []int {
	var active []int
	for i, s := range m.slots {
		if s.active {
			active = append(active, i)
		}
	}
	return active
}

// activate runs the cross-parameter compatibility check and marks the
// slot active. Validation precedes mutation; a failing slot is left
// untouched.
func (m *slotManager) activate(id int) error {
	s, err := m.slot(id)
	if err != nil {
		return err
	}
	if err := validateSlotConfig(s.params); err != nil {
		return err
	}
	s.active = true
	return nil
}

// deactivate clears the active flag. Deactivating an inactive slot is
// a no-op and still succeeds.
func (m *slotManager) deactivate(id int) error {
	s, err := m.slot(id)
	if err != nil {
		return err
	}
	s.active = false
	return nil
}

// clearActivations drops every active flag. Parameter values persist;
// only SLEEP is required to preserve a running configuration, and the
// stored values remain editable after the next TurnOn.
func (m *slotManager) clearActivations() {
	for _, s := range m.slots {
		s.active = false
	}
}

// validateSlotConfig is the final compatibility check before a slot may
// drive acquisition.
func validateSlotConfig(p *paramStore) error {
	burstPeriod := p.main[radarapi.MainParamBurstPeriodUs]
	chirpPeriod := p.main[radarapi.MainParamChirpPeriodUs]
	chirps := p.main[radarapi.MainParamChirpsPerBurst]
	samples := p.main[radarapi.MainParamSamplesPerChirp]
	lower := p.main[radarapi.MainParamLowerFreqMHz]
	upper := p.main[radarapi.MainParamUpperFreqMHz]
	txMask := p.main[radarapi.MainParamTxAntennaMask]
	rxMask := p.main[radarapi.MainParamRxAntennaMask]

	switch {
	case burstPeriod == 0 || chirpPeriod == 0:
		return fmt.Errorf("burst and chirp periods must be set: %w", radarapi.RCBadInput)
	case chirps == 0 || samples == 0:
		return fmt.Errorf("chirps per burst and samples per chirp must be set: %w", radarapi.RCBadInput)
	case uint64(burstPeriod) < uint64(chirps)*uint64(chirpPeriod):
		return fmt.Errorf("burst period %dus shorter than %d chirps of %dus: %w",
			burstPeriod, chirps, chirpPeriod, radarapi.RCBadInput)
	case upper <= lower:
		return fmt.Errorf("upper frequency %dMHz not above lower %dMHz: %w",
			upper, lower, radarapi.RCBadInput)
	case txMask == 0 || rxMask == 0:
		return fmt.Errorf("antenna masks must be non-zero: %w", radarapi.RCBadInput)
	}
	return nil
}

// channelCount is the number of active RX channels for a slot.
func channelCount(p *paramStore) int {
	return bits.OnesCount32(p.main[radarapi.MainParamRxAntennaMask])
}
