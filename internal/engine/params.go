package engine

import (
	"fmt"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// Range bounds the legal values of one parameter, inclusive.
type Range struct {
	Min uint32 `json:"min"`
	Max uint32 `json:"max"`
}

func (r Range) contains(v uint32) bool { return v >= r.Min && v <= r.Max }

// Main and channel parameter ranges are global constants of the API,
// independent of any slot or power state. Vendor parameter ranges come
// from the driver profile.
var mainParamRanges = map[radarapi.MainParam]Range{
	radarapi.MainParamAfterburstPowerMode: {0, 3},
	radarapi.MainParamInterchirpPowerMode: {0, 3},
	radarapi.MainParamBurstPeriodUs:       {1, 10_000_000},
	radarapi.MainParamChirpPeriodUs:       {1, 100_000},
	radarapi.MainParamChirpsPerBurst:      {1, 255},
	radarapi.MainParamSamplesPerChirp:     {1, 65535},
	radarapi.MainParamLowerFreqMHz:        {57_000, 71_000},
	radarapi.MainParamUpperFreqMHz:        {57_000, 71_000},
	radarapi.MainParamTxAntennaMask:       {0, 255},
	radarapi.MainParamRxAntennaMask:       {0, 255},
	radarapi.MainParamTxPower:             {0, 100},
	radarapi.MainParamAdcSamplingHz:       {1_000, 25_000_000},
}

var channelParamRanges = map[radarapi.ChannelParam]Range{
	radarapi.ChannelParamVgaDb:       {0, 60},
	radarapi.ChannelParamHpGainDb:    {0, 30},
	radarapi.ChannelParamHpCutoffKHz: {10, 1_000},
}

// MainParamRange reports the global range for a main parameter.
func MainParamRange(id radarapi.MainParam) (Range, error) {
	r, ok := mainParamRanges[id]
	if !ok {
		return Range{}, fmt.Errorf("unknown main param %d: %w", id, radarapi.RCBadInput)
	}
	return r, nil
}

// ChannelParamRange reports the global range for a channel parameter.
func ChannelParamRange(id radarapi.ChannelParam) (Range, error) {
	r, ok := channelParamRanges[id]
	if !ok {
		return Range{}, fmt.Errorf("unknown channel param %d: %w", id, radarapi.RCBadInput)
	}
	return r, nil
}

type channelKey struct {
	channel int
	id      radarapi.ChannelParam
}

// paramStore holds the parameter values of one configuration slot.
// Unset parameters read as 0 per the API contract.
type paramStore struct {
	main    map[radarapi.MainParam]uint32
	channel map[channelKey]uint32
	vendor  map[radarapi.VendorParam]uint32
}

func newParamStore() *paramStore {
	return &paramStore{
		main:    make(map[radarapi.MainParam]uint32),
		channel: make(map[channelKey]uint32),
		vendor:  make(map[radarapi.VendorParam]uint32),
	}
}

func (p *paramStore) getMain(id radarapi.MainParam) (uint32, error) {
	if _, ok := mainParamRanges[id]; !ok {
		return 0, fmt.Errorf("unknown main param %d: %w", id, radarapi.RCBadInput)
	}
	return p.main[id], nil
}

func (p *paramStore) setMain(id radarapi.MainParam, value uint32) error {
	r, ok := mainParamRanges[id]
	if !ok {
		return fmt.Errorf("unknown main param %d: %w", id, radarapi.RCBadInput)
	}
	if !r.contains(value) {
		return fmt.Errorf("main param %d value %d outside [%d, %d]: %w",
			id, value, r.Min, r.Max, radarapi.RCBadInput)
	}
	p.main[id] = value
	return nil
}

func (p *paramStore) getChannel(channel int, id radarapi.ChannelParam, numChannels int) (uint32, error) {
	if channel < 0 || channel >= numChannels {
		return 0, fmt.Errorf("channel %d out of range: %w", channel, radarapi.RCBadInput)
	}
	if _, ok := channelParamRanges[id]; !ok {
		return 0, fmt.Errorf("unknown channel param %d: %w", id, radarapi.RCBadInput)
	}
	return p.channel[channelKey{channel, id}], nil
}

func (p *paramStore) setChannel(channel int, id radarapi.ChannelParam, value uint32, numChannels int) error {
	if channel < 0 || channel >= numChannels {
		return fmt.Errorf("channel %d out of range: %w", channel, radarapi.RCBadInput)
	}
	r, ok := channelParamRanges[id]
	if !ok {
		return fmt.Errorf("unknown channel param %d: %w", id, radarapi.RCBadInput)
	}
	if !r.contains(value) {
		return fmt.Errorf("channel param %d value %d outside [%d, %d]: %w",
			id, value, r.Min, r.Max, radarapi.RCBadInput)
	}
	p.channel[channelKey{channel, id}] = value
	return nil
}

func (p *paramStore) getVendor(id radarapi.VendorParam, ranges map[radarapi.VendorParam]Range) (uint32, error) {
	if _, ok := ranges[id]; !ok {
		return 0, fmt.Errorf("vendor param %d not provided by this driver: %w", id, radarapi.RCUnsupported)
	}
	return p.vendor[id], nil
}

func (p *paramStore) setVendor(id radarapi.VendorParam, value uint32, ranges map[radarapi.VendorParam]Range) error {
	r, ok := ranges[id]
	if !ok {
		return fmt.Errorf("vendor param %d not provided by this driver: %w", id, radarapi.RCUnsupported)
	}
	if !r.contains(value) {
		return fmt.Errorf("vendor param %d value %d outside [%d, %d]: %w",
			id, value, r.Min, r.Max, radarapi.RCBadInput)
	}
	p.vendor[id] = value
	return nil
}
