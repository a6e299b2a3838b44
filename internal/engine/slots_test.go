package engine

import (
	"testing"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// validParams fills a store with a configuration that passes the
// activation check.
func validParams(t *testing.T) *paramStore {
	t.Helper()
	p := newParamStore()
	for id, v := range map[radarapi.MainParam]uint32{
		radarapi.MainParamBurstPeriodUs:   2000,
		radarapi.MainParamChirpPeriodUs:   100,
		radarapi.MainParamChirpsPerBurst:  4,
		radarapi.MainParamSamplesPerChirp: 16,
		radarapi.MainParamLowerFreqMHz:    58_000,
		radarapi.MainParamUpperFreqMHz:    63_500,
		radarapi.MainParamTxAntennaMask:   0x1,
		radarapi.MainParamRxAntennaMask:   0x7,
	} {
		if err := p.setMain(id, v); err != nil {
			t.Fatalf("setMain(%d, %d): %v", id, v, err)
		}
	}
	return p
}

func TestActivateValidatesConfig(t *testing.T) {
	breakages := map[string]func(*paramStore){
		"zero burst period": func(p *paramStore) {
			delete(p.main, radarapi.MainParamBurstPeriodUs)
		},
		"zero chirps": func(p *paramStore) {
			delete(p.main, radarapi.MainParamChirpsPerBurst)
		},
		"zero samples": func(p *paramStore) {
			delete(p.main, radarapi.MainParamSamplesPerChirp)
		},
		"chirps overrun burst period": func(p *paramStore) {
			p.main[radarapi.MainParamChirpPeriodUs] = 600 // 4 x 600 > 2000
		},
		"inverted band": func(p *paramStore) {
			p.main[radarapi.MainParamUpperFreqMHz] = 57_500
			p.main[radarapi.MainParamLowerFreqMHz] = 60_000
		},
		"no tx antennas": func(p *paramStore) {
			delete(p.main, radarapi.MainParamTxAntennaMask)
		},
		"no rx antennas": func(p *paramStore) {
			delete(p.main, radarapi.MainParamRxAntennaMask)
		},
	}

	for name, corrupt := range breakages {
		t.Run(name, func(t *testing.T) {
			m := newSlotManager(2, 4)
			m.slots[0].params = validParams(t)
			corrupt(m.slots[0].params)

			err := m.activate(0)
			if got := radarapi.CodeOf(err); got != radarapi.RCBadInput {
				t.Fatalf("activate = %v (code %v), want RC_BAD_INPUT", err, got)
			}
			if m.slots[0].active {
				t.Error("slot marked active despite failed validation")
			}
		})
	}
}

func TestActivateDeactivateLifecycle(t *testing.T) {
	m := newSlotManager(3, 4)
	m.slots[1].params = validParams(t)

	if err := m.activate(1); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got := m.activeSlots(); len(got) != 1 || got[0] != 1 {
		t.Errorf("activeSlots = %v, want [1]", got)
	}

	// Re-activating and deactivating are both idempotent.
	if err := m.activate(1); err != nil {
		t.Errorf("second activate: %v", err)
	}
	if err := m.deactivate(1); err != nil {
		t.Errorf("deactivate: %v", err)
	}
	if err := m.deactivate(1); err != nil {
		t.Errorf("deactivate of inactive slot: %v", err)
	}
	if got := m.activeSlots(); len(got) != 0 {
		t.Errorf("activeSlots = %v after deactivation", got)
	}
}

func TestSlotIndexBounds(t *testing.T) {
	m := newSlotManager(2, 4)
	for _, id := range []int{-1, 2, 99} {
		if got := radarapi.CodeOf(m.activate(id)); got != radarapi.RCBadInput {
			t.Errorf("activate(%d) code %v, want RC_BAD_INPUT", id, got)
		}
		if got := radarapi.CodeOf(m.deactivate(id)); got != radarapi.RCBadInput {
			t.Errorf("deactivate(%d) code %v, want RC_BAD_INPUT", id, got)
		}
	}
}

func TestClearActivationsPreservesValues(t *testing.T) {
	m := newSlotManager(2, 4)
	m.slots[0].params = validParams(t)
	if err := m.activate(0); err != nil {
		t.Fatalf("activate: %v", err)
	}

	m.clearActivations()
	if m.slots[0].active {
		t.Error("slot still active after clearActivations")
	}
	if v, err := m.slots[0].params.getMain(radarapi.MainParamSamplesPerChirp); err != nil || v != 16 {
		t.Errorf("samples per chirp = %d (%v) after clearActivations, want 16", v, err)
	}
}

func TestChannelCountFollowsRxMask(t *testing.T) {
	p := newParamStore()
	cases := map[uint32]int{0x1: 1, 0x3: 2, 0x7: 3, 0xf: 4, 0x5: 2}
	for mask, want := range cases {
		p.main[radarapi.MainParamRxAntennaMask] = mask
		if got := channelCount(p); got != want {
			t.Errorf("channelCount(mask 0x%x) = %d, want %d", mask, got, want)
		}
	}
}
