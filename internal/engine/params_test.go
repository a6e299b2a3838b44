package engine

import (
	"testing"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

func TestParamStoreRoundTrip(t *testing.T) {
	p := newParamStore()

	if err := p.setMain(radarapi.MainParamChirpsPerBurst, 16); err != nil {
		t.Fatalf("setMain: %v", err)
	}
	v, err := p.getMain(radarapi.MainParamChirpsPerBurst)
	if err != nil {
		t.Fatalf("getMain: %v", err)
	}
	if v != 16 {
		t.Errorf("got %d, want 16", v)
	}
}

func TestParamStoreOutOfRangeLeavesValue(t *testing.T) {
	p := newParamStore()
	if err := p.setMain(radarapi.MainParamTxPower, 50); err != nil {
		t.Fatalf("setMain: %v", err)
	}

	err := p.setMain(radarapi.MainParamTxPower, 101)
	if radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Fatalf("code %v, want RC_BAD_INPUT", radarapi.CodeOf(err))
	}
	if v, _ := p.getMain(radarapi.MainParamTxPower); v != 50 {
		t.Errorf("stored value changed to %d on failed set", v)
	}
}

func TestParamStoreUnsetReadsDefault(t *testing.T) {
	p := newParamStore()
	v, err := p.getMain(radarapi.MainParamTxAntennaMask)
	if err != nil {
		t.Fatalf("getMain unset: %v", err)
	}
	if v != 0 {
		t.Errorf("unset param = %d, want documented default 0", v)
	}
}

func TestParamStoreUnknownIDs(t *testing.T) {
	p := newParamStore()

	if _, err := p.getMain(radarapi.MainParam(99)); radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Errorf("getMain unknown: code %v", radarapi.CodeOf(err))
	}
	if err := p.setMain(radarapi.MainParamUndefined, 1); radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Errorf("setMain undefined: code %v", radarapi.CodeOf(err))
	}
	if _, err := MainParamRange(radarapi.MainParam(99)); radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Errorf("range unknown: code %v", radarapi.CodeOf(err))
	}
	if _, err := ChannelParamRange(radarapi.ChannelParam(42)); radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Errorf("channel range unknown: code %v", radarapi.CodeOf(err))
	}
}

func TestChannelParamBounds(t *testing.T) {
	p := newParamStore()
	const channels = 4

	if err := p.setChannel(2, radarapi.ChannelParamVgaDb, 30, channels); err != nil {
		t.Fatalf("setChannel: %v", err)
	}
	if v, _ := p.getChannel(2, radarapi.ChannelParamVgaDb, channels); v != 30 {
		t.Errorf("got %d, want 30", v)
	}

	// Same param on another channel stays independent.
	if v, _ := p.getChannel(1, radarapi.ChannelParamVgaDb, channels); v != 0 {
		t.Errorf("channel 1 inherited value %d", v)
	}

	if err := p.setChannel(4, radarapi.ChannelParamVgaDb, 1, channels); radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Errorf("out-of-range channel: code %v", radarapi.CodeOf(err))
	}
	if err := p.setChannel(0, radarapi.ChannelParamVgaDb, 61, channels); radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Errorf("out-of-range value: code %v", radarapi.CodeOf(err))
	}
}

func TestVendorParams(t *testing.T) {
	ranges := map[radarapi.VendorParam]Range{
		radarapi.VendorParam(1): {Min: 0, Max: 63},
	}
	p := newParamStore()

	if err := p.setVendor(1, 63, ranges); err != nil {
		t.Fatalf("setVendor: %v", err)
	}
	if v, _ := p.getVendor(1, ranges); v != 63 {
		t.Errorf("got %d, want 63", v)
	}
	if err := p.setVendor(1, 64, ranges); radarapi.CodeOf(err) != radarapi.RCBadInput {
		t.Errorf("out-of-range vendor value: code %v", radarapi.CodeOf(err))
	}
	if err := p.setVendor(9, 1, ranges); radarapi.CodeOf(err) != radarapi.RCUnsupported {
		t.Errorf("unknown vendor param: code %v, want RC_UNSUPPORTED", radarapi.CodeOf(err))
	}
}
