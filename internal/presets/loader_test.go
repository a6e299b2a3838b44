package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinKickass/OpenRadarCore/internal/hwsim"
	"github.com/KevinKickass/OpenRadarCore/radarapi"
	"go.uber.org/zap"
)

const shortRangePreset = `{
  "name": "short-range",
  "description": "short range presence detection",
  "main": {
    "burst_period_us": 5000,
    "chirp_period_us": 200,
    "chirps_per_burst": 8,
    "samples_per_chirp": 64,
    "lower_freq_mhz": 58000,
    "upper_freq_mhz": 63500,
    "tx_antenna_mask": 1,
    "rx_antenna_mask": 3,
    "tx_power": 40
  },
  "channels": [
    {"channel": 0, "params": {"vga_db": 20, "hp_cutoff_khz": 100}},
    {"channel": 1, "params": {"vga_db": 24}}
  ],
  "vendor": [
    {"id": 1, "value": 12}
  ]
}`

func writePreset(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadValidPreset(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "short-range", shortRangePreset)

	l, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	p, err := l.Load("short-range")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "short-range" {
		t.Errorf("name %q", p.Name)
	}
	if p.Main["chirps_per_burst"] != 8 {
		t.Errorf("chirps_per_burst = %d", p.Main["chirps_per_burst"])
	}
	if len(p.Channels) != 2 || p.Channels[1].Params["vga_db"] != 24 {
		t.Errorf("channels %+v", p.Channels)
	}

	// Cached load returns the same instance.
	again, err := l.Load("short-range")
	if err != nil {
		t.Fatalf("cached Load: %v", err)
	}
	if again != p {
		t.Error("cache miss on second load")
	}
}

func TestLoadRejectsInvalidPresets(t *testing.T) {
	cases := map[string]string{
		"missing name":       `{"main": {"tx_power": 1}}`,
		"missing main":       `{"name": "x"}`,
		"empty main":         `{"name": "x", "main": {}}`,
		"unknown main param": `{"name": "x", "main": {"warp_factor": 9}}`,
		"negative value":     `{"name": "x", "main": {"tx_power": -1}}`,
		"not json":           `{{{`,
		"unknown top field":  `{"name": "x", "main": {"tx_power": 1}, "extra": true}`,
	}

	dir := t.TempDir()
	l, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			writePreset(t, dir, "bad", content)
			defer l.ClearCache()
			if _, err := l.Load("bad"); err == nil {
				t.Error("invalid preset accepted")
			}
		})
	}
}

func TestLoadSearchPathOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writePreset(t, second, "short-range", shortRangePreset)

	l, err := NewLoader([]string{first, second})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	if _, err := l.Load("short-range"); err != nil {
		t.Fatalf("Load from second path: %v", err)
	}
	if _, err := l.Load("nope"); err == nil {
		t.Error("missing preset loaded")
	}
}

func TestList(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writePreset(t, first, "a", shortRangePreset)
	writePreset(t, second, "a", shortRangePreset)
	writePreset(t, second, "b", shortRangePreset)

	l, err := NewLoader([]string{first, second})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	names, err := l.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("List = %v, want two names", names)
	}
}

func TestApplyPresetToSensor(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "short-range", shortRangePreset)

	l, err := NewLoader([]string{dir})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	p, err := l.Load("short-range")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sensor, err := hwsim.NewSensor(nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSensor: %v", err)
	}
	if err := p.Apply(sensor, 0); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if v, err := sensor.GetMainParam(0, radarapi.MainParamSamplesPerChirp); err != nil || v != 64 {
		t.Errorf("samples_per_chirp = %d (%v), want 64", v, err)
	}
	if v, err := sensor.GetChannelParam(0, 1, radarapi.ChannelParamVgaDb); err != nil || v != 24 {
		t.Errorf("channel 1 vga_db = %d (%v), want 24", v, err)
	}
	if v, err := sensor.GetVendorParam(0, hwsim.VendorParamRxMixerGain); err != nil || v != 12 {
		t.Errorf("vendor rx mixer gain = %d (%v), want 12", v, err)
	}

	// The applied slot passes activation.
	if err := sensor.ActivateConfig(0); err != nil {
		t.Errorf("ActivateConfig after apply: %v", err)
	}
}

func TestApplyUnknownParamName(t *testing.T) {
	p := &Preset{Name: "x", Main: map[string]uint32{"warp_factor": 9}}
	sensor, err := hwsim.NewSensor(nil, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSensor: %v", err)
	}
	err = p.Apply(sensor, 0)
	if got := radarapi.CodeOf(err); got != radarapi.RCBadInput {
		t.Fatalf("Apply = %v (code %v), want RC_BAD_INPUT", err, got)
	}
}
