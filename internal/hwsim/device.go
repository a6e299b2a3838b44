// Package hwsim provides a simulated radar transport: a register file
// and a deterministic sample source standing in for the SPI/I2C link
// to real silicon. It backs the tests and the daemon's default driver.
package hwsim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/KevinKickass/OpenRadarCore/internal/engine"
	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// Register addresses of the simulated chip.
const (
	RegChipID   uint32 = 0x0000
	RegChipRev  uint32 = 0x0004
	RegControl  uint32 = 0x0010
	RegStatus   uint32 = 0x0014
	RegFifoStat uint32 = 0x0018
	RegChirpCfg uint32 = 0x0020
	RegTxGain   uint32 = 0x0024
	RegRxGain   uint32 = 0x0028
	RegPllFreq  uint32 = 0x002c
	RegAdcClock uint32 = 0x0030
	RegTestReg  uint32 = 0x00f0
)

const (
	chipID  = 0x52444152 // "RADR"
	chipRev = 0x00010002
)

// Vendor parameters of the simulated driver.
const (
	VendorParamRxMixerGain radarapi.VendorParam = 1
	VendorParamTestTonePos radarapi.VendorParam = 2
)

// Device is an in-memory radar chip. Safe for concurrent use; the
// acquisition goroutines read samples while the application pokes
// registers.
type Device struct {
	mu      sync.Mutex
	regs    map[uint32]uint32
	counter uint32
	maxVal  uint32
}

func New() *Device {
	return &Device{
		regs: map[uint32]uint32{
			RegChipID:   chipID,
			RegChipRev:  chipRev,
			RegControl:  0,
			RegStatus:   1,
			RegFifoStat: 0,
			RegChirpCfg: 0,
			RegTxGain:   0x20,
			RegRxGain:   0x20,
			RegPllFreq:  60_000,
			RegAdcClock: 2_000_000,
			RegTestReg:  0,
		},
		maxVal: 0x0fff,
	}
}

// Profile describes the simulated hardware to the engine.
func (d *Device) Profile() engine.Profile {
	return engine.Profile{
		Name:                "ORC-SIM60",
		Vendor:              "OpenRadarCore",
		DeviceID:            chipID,
		DriverVersion:       radarapi.Version{Major: 0, Minor: 9, Patch: 1},
		MaxSamplingRateHz:   4_000_000,
		NumSlots:            4,
		NumChannels:         4,
		FifoDepth:           32,
		MaxSampleValue:      0x0fff,
		BitsPerSample:       16,
		ChannelsInterleaved: true,
		VendorRanges: map[radarapi.VendorParam]engine.Range{
			VendorParamRxMixerGain: {Min: 0, Max: 63},
			VendorParamTestTonePos: {Min: 0, Max: 4095},
		},
	}
}

func (d *Device) ReadRegister(address uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.regs[address]
	if !ok {
		return 0, fmt.Errorf("no register at 0x%04x: %w", address, radarapi.RCBadInput)
	}
	return v, nil
}

func (d *Device) WriteRegister(address, value uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.regs[address]; !ok {
		return fmt.Errorf("no register at 0x%04x: %w", address, radarapi.RCBadInput)
	}
	if address == RegChipID || address == RegChipRev {
		return fmt.Errorf("register 0x%04x is read-only: %w", address, radarapi.RCBadInput)
	}
	d.regs[address] = value
	return nil
}

func (d *Device) AllRegisters() ([]radarapi.RegisterValue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]radarapi.RegisterValue, 0, len(d.regs))
	for addr, val := range d.regs {
		out = append(out, radarapi.RegisterValue{Address: addr, Value: val})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

// ReadSamples produces a deterministic ramp bounded by the ADC range.
// A ramp keeps burst payloads reproducible for integrity checks.
func (d *Device) ReadSamples(count int) ([]uint32, error) {
	if count <= 0 {
		return nil, fmt.Errorf("sample count %d: %w", count, radarapi.RCBadInput)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]uint32, count)
	for i := range out {
		out[i] = d.counter % (d.maxVal + 1)
		d.counter++
	}
	return out, nil
}
