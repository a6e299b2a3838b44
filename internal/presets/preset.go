package presets

import (
	"fmt"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// Preset is a named acquisition configuration that can be applied to a
// sensor slot in one step. Parameters are keyed by their wire names so
// preset files stay readable.
type Preset struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Main        map[string]uint32 `json:"main"`
	Channels    []ChannelSettings `json:"channels,omitempty"`
	Vendor      []VendorSetting   `json:"vendor,omitempty"`
}

type ChannelSettings struct {
	Channel int               `json:"channel"`
	Params  map[string]uint32 `json:"params"`
}

type VendorSetting struct {
	ID    uint32 `json:"id"`
	Value uint32 `json:"value"`
}

var mainParamNames = map[string]radarapi.MainParam{
	"afterburst_power_mode": radarapi.MainParamAfterburstPowerMode,
	"interchirp_power_mode": radarapi.MainParamInterchirpPowerMode,
	"burst_period_us":       radarapi.MainParamBurstPeriodUs,
	"chirp_period_us":       radarapi.MainParamChirpPeriodUs,
	"chirps_per_burst":      radarapi.MainParamChirpsPerBurst,
	"samples_per_chirp":     radarapi.MainParamSamplesPerChirp,
	"lower_freq_mhz":        radarapi.MainParamLowerFreqMHz,
	"upper_freq_mhz":        radarapi.MainParamUpperFreqMHz,
	"tx_antenna_mask":       radarapi.MainParamTxAntennaMask,
	"rx_antenna_mask":       radarapi.MainParamRxAntennaMask,
	"tx_power":              radarapi.MainParamTxPower,
	"adc_sampling_hz":       radarapi.MainParamAdcSamplingHz,
}

var channelParamNames = map[string]radarapi.ChannelParam{
	"vga_db":        radarapi.ChannelParamVgaDb,
	"hp_gain_db":    radarapi.ChannelParamHpGainDb,
	"hp_cutoff_khz": radarapi.ChannelParamHpCutoffKHz,
}

// MainParamByName resolves a main parameter wire name.
func MainParamByName(name string) (radarapi.MainParam, bool) {
	id, ok := mainParamNames[name]
	return id, ok
}

// ChannelParamByName resolves a channel parameter wire name.
func ChannelParamByName(name string) (radarapi.ChannelParam, bool) {
	id, ok := channelParamNames[name]
	return id, ok
}

// Apply writes every parameter of the preset into the given slot. The
// slot must be configurable; a failing parameter aborts the apply and
// may leave the slot partially written, so callers should not activate
// a slot whose apply failed.
func (p *Preset) Apply(sensor radarapi.Sensor, slot int) error {
	for name, value := range p.Main {
		id, ok := mainParamNames[name]
		if !ok {
			return fmt.Errorf("preset %s: unknown main param %q: %w", p.Name, name, radarapi.RCBadInput)
		}
		if err := sensor.SetMainParam(slot, id, value); err != nil {
			return fmt.Errorf("preset %s: main param %q: %w", p.Name, name, err)
		}
	}
	for _, ch := range p.Channels {
		for name, value := range ch.Params {
			id, ok := channelParamNames[name]
			if !ok {
				return fmt.Errorf("preset %s: unknown channel param %q: %w", p.Name, name, radarapi.RCBadInput)
			}
			if err := sensor.SetChannelParam(slot, ch.Channel, id, value); err != nil {
				return fmt.Errorf("preset %s: channel %d param %q: %w", p.Name, ch.Channel, name, err)
			}
		}
	}
	for _, v := range p.Vendor {
		if err := sensor.SetVendorParam(slot, radarapi.VendorParam(v.ID), v.Value); err != nil {
			return fmt.Errorf("preset %s: vendor param %d: %w", p.Name, v.ID, err)
		}
	}
	return nil
}
