// Package engine implements the radar driver core behind both public
// bindings: the power state machine, the slot configuration store, the
// burst FIFO, the observer hub and the register gateway, glued to a
// Transport that stands for the silicon.
package engine

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
	"go.uber.org/zap"
)

// APIVersion is the radar API contract version this driver implements.
var APIVersion = radarapi.Version{Major: 1, Minor: 0, Patch: 0, Build: 0}

// Profile carries the hardware constants a Transport vendor provides
// at construction.
type Profile struct {
	Name              string
	Vendor            string
	DeviceID          uint32
	DriverVersion     radarapi.Version
	MaxSamplingRateHz uint64

	NumSlots       int
	NumChannels    int
	FifoDepth      int
	MaxSampleValue uint32
	BitsPerSample  uint8

	ChannelsInterleaved bool
	BigEndian           bool

	// VendorRanges declares the vendor parameter set of this driver.
	// Parameters outside this map are RC_UNSUPPORTED.
	VendorRanges map[radarapi.VendorParam]Range
}

// RegulatoryPolicy is the opaque country rule lookup. The sensor must
// not operate where the policy refuses the configured country code.
type RegulatoryPolicy interface {
	Allowed(countryCode string) bool
}

type allowAllPolicy struct{}

func (allowAllPolicy) Allowed(string) bool { return true }

// AllowAll is the default policy when no regulatory table is wired.
var AllowAll RegulatoryPolicy = allowAllPolicy{}

// Engine is one radar sensor instance. It implements radarapi.Sensor
// and radarapi.BufferedBurstReader. The engine mutex guards the state
// machine, slots and country code; the FIFO and observer hub carry
// their own locks so the producer and a blocked ReadBurst never touch
// the engine mutex.
type Engine struct {
	logger    *zap.Logger
	profile   Profile
	transport Transport
	policy    RegulatoryPolicy

	hub     *observerHub
	fifo    *burstFifo
	gateway *registerGateway

	seq atomic.Uint32

	mu          sync.Mutex
	fsm         *powerFSM
	slots       *slotManager
	producers   []*producer
	poweredAt   time.Time
	countryCode string
}

// New builds a sensor engine over the given transport.
func New(profile Profile, transport Transport, policy RegulatoryPolicy, logger *zap.Logger) (*Engine, error) {
	if transport == nil {
		return nil, fmt.Errorf("nil transport: %w", radarapi.RCBadInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = AllowAll
	}
	if profile.NumSlots <= 0 {
		profile.NumSlots = 4
	}
	if profile.NumChannels <= 0 {
		profile.NumChannels = 1
	}
	hub := newObserverHub(logger)
	e := &Engine{
		logger:    logger,
		profile:   profile,
		transport: transport,
		policy:    policy,
		hub:       hub,
		fifo:      newBurstFifo(profile.FifoDepth),
		gateway:   newRegisterGateway(transport, hub, logger),
		fsm:       newPowerFSM(),
		slots:     newSlotManager(profile.NumSlots, profile.NumChannels),
	}
	return e, nil
}

// Feedback.

func (e *Engine) AddObserver(obs radarapi.Observer) error    { return e.hub.add(obs) }
func (e *Engine) RemoveObserver(obs radarapi.Observer) error { return e.hub.remove(obs) }

// Power management.

func (e *Engine) GetRadarState() (radarapi.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fsm.current(), nil
}

func (e *Engine) TurnOn() error {
	e.mu.Lock()
	if !e.fsm.in(radarapi.StateOff) {
		from := e.fsm.current()
		e.mu.Unlock()
		return fmt.Errorf("turn on from %s: %w", from, radarapi.RCBadState)
	}
	if !e.policy.Allowed(e.countryCode) {
		code := e.countryCode
		e.mu.Unlock()
		return fmt.Errorf("operation not permitted in %q: %w", code, radarapi.RCUnsupported)
	}
	e.fsm.force(radarapi.StateIdle)
	e.poweredAt = time.Now()
	e.mu.Unlock()

	e.logger.Info("Radar turned on", zap.String("sensor", e.profile.Name))
	e.driverLog(radarapi.LogInf, "radar turned on")
	return nil
}

// TurnOff is legal from every state. It forcibly stops streaming,
// clears all slot activations and drains the FIFO.
func (e *Engine) TurnOff() error {
	e.mu.Lock()
	e.stopProducersLocked()
	e.slots.clearActivations()
	e.fsm.force(radarapi.StateOff)
	e.mu.Unlock()

	e.fifo.drain()
	e.logger.Info("Radar turned off", zap.String("sensor", e.profile.Name))
	e.driverLog(radarapi.LogInf, "radar turned off")
	return nil
}

func (e *Engine) GoSleep() error {
	e.mu.Lock()
	if !e.fsm.in(radarapi.StateIdle, radarapi.StateActive) {
		from := e.fsm.current()
		e.mu.Unlock()
		return fmt.Errorf("sleep from %s: %w", from, radarapi.RCBadState)
	}
	// Leaving ACTIVE stops acquisition; configuration persists.
	e.stopProducersLocked()
	e.fsm.force(radarapi.StateSleep)
	e.mu.Unlock()

	e.logger.Info("Radar sleeping", zap.String("sensor", e.profile.Name))
	return nil
}

func (e *Engine) WakeUp() error {
	e.mu.Lock()
	if err := e.fsm.to(radarapi.StateIdle, radarapi.StateSleep); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	e.logger.Info("Radar awake", zap.String("sensor", e.profile.Name))
	return nil
}

// Configuration.

func (e *Engine) SetFifoMode(mode radarapi.FifoMode) error {
	if err := e.fifo.setMode(mode); err != nil {
		return err
	}
	e.logger.Info("FIFO mode set", zap.Stringer("mode", mode))
	return nil
}

func (e *Engine) GetNumConfigSlots() (int, error) {
	return e.slots.count(), nil
}

func (e *Engine) ActivateConfig(slot int) error {
	e.mu.Lock()
	if err := e.requireConfigurableLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.slots.activate(slot); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	e.logger.Info("Config slot activated", zap.Int("slot", slot))
	e.driverLog(radarapi.LogInf, fmt.Sprintf("config slot %d activated", slot))
	return nil
}

func (e *Engine) DeactivateConfig(slot int) error {
	e.mu.Lock()
	if err := e.requireConfigurableLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	if err := e.slots.deactivate(slot); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	e.logger.Info("Config slot deactivated", zap.Int("slot", slot))
	return nil
}

func (e *Engine) GetActiveConfigs() ([]int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slots.activeSlots(), nil
}

func (e *Engine) GetMainParam(slot int, id radarapi.MainParam) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.slots.slot(slot)
	if err != nil {
		return 0, err
	}
	return s.params.getMain(id)
}

func (e *Engine) SetMainParam(slot int, id radarapi.MainParam, value uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.mutableSlotLocked(slot)
	if err != nil {
		return err
	}
	return s.params.setMain(id, value)
}

func (e *Engine) GetMainParamRange(id radarapi.MainParam) (uint32, uint32, error) {
	r, err := MainParamRange(id)
	if err != nil {
		return 0, 0, err
	}
	return r.Min, r.Max, nil
}

func (e *Engine) GetChannelParam(slot, channel int, id radarapi.ChannelParam) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.slots.slot(slot)
	if err != nil {
		return 0, err
	}
	return s.params.getChannel(channel, id, e.profile.NumChannels)
}

func (e *Engine) SetChannelParam(slot, channel int, id radarapi.ChannelParam, value uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.mutableSlotLocked(slot)
	if err != nil {
		return err
	}
	return s.params.setChannel(channel, id, value, e.profile.NumChannels)
}

func (e *Engine) GetChannelParamRange(id radarapi.ChannelParam) (uint32, uint32, error) {
	r, err := ChannelParamRange(id)
	if err != nil {
		return 0, 0, err
	}
	return r.Min, r.Max, nil
}

func (e *Engine) GetVendorParam(slot int, id radarapi.VendorParam) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.slots.slot(slot)
	if err != nil {
		return 0, err
	}
	return s.params.getVendor(id, e.profile.VendorRanges)
}

func (e *Engine) SetVendorParam(slot int, id radarapi.VendorParam, value uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.mutableSlotLocked(slot)
	if err != nil {
		return err
	}
	return s.params.setVendor(id, value, e.profile.VendorRanges)
}

// VendorParamRange reports the range of a driver vendor parameter.
func (e *Engine) VendorParamRange(id radarapi.VendorParam) (Range, error) {
	r, ok := e.profile.VendorRanges[id]
	if !ok {
		return Range{}, fmt.Errorf("vendor param %d not provided by this driver: %w", id, radarapi.RCUnsupported)
	}
	return r, nil
}

// requireConfigurableLocked enforces the uniform freeze policy:
// configuration never changes while the radar is ACTIVE.
func (e *Engine) requireConfigurableLocked() error {
	if e.fsm.in(radarapi.StateActive) {
		return fmt.Errorf("configuration frozen while streaming: %w", radarapi.RCBadState)
	}
	return nil
}

// mutableSlotLocked resolves a slot for a parameter write. Writes are
// rejected while streaming and on active slots.
func (e *Engine) mutableSlotLocked(slot int) (*configSlot, error) {
	if err := e.requireConfigurableLocked(); err != nil {
		return nil, err
	}
	s, err := e.slots.slot(slot)
	if err != nil {
		return nil, err
	}
	if s.active {
		return nil, fmt.Errorf("slot %d is active, deactivate before writing: %w", slot, radarapi.RCBadState)
	}
	return s, nil
}

// Running.

func (e *Engine) StartDataStreaming() error {
	e.mu.Lock()
	if !e.fsm.in(radarapi.StateIdle) {
		from := e.fsm.current()
		e.mu.Unlock()
		return fmt.Errorf("start streaming from %s: %w", from, radarapi.RCBadState)
	}
	active := e.slots.activeSlots()
	if len(active) == 0 {
		e.mu.Unlock()
		return fmt.Errorf("no active config slot: %w", radarapi.RCBadState)
	}

	poweredAt := e.poweredAt
	sinceOn := func() uint32 {
		return uint32(time.Since(poweredAt) / time.Millisecond)
	}
	for _, slot := range active {
		s := e.slots.slots[slot]
		stream := e.buildStreamLocked(slot, s)
		p := &producer{
			logger:    e.logger,
			transport: e.transport,
			fifo:      e.fifo,
			hub:       e.hub,
			stream:    stream,
			nextSeq:   func() uint32 { return e.seq.Add(1) - 1 },
			sinceOn:   sinceOn,
		}
		e.producers = append(e.producers, p)
	}
	e.fsm.force(radarapi.StateActive)
	for _, p := range e.producers {
		p.start()
	}
	e.mu.Unlock()

	e.logger.Info("Data streaming started", zap.Ints("slots", active))
	e.driverLog(radarapi.LogInf, "data streaming started")
	return nil
}

func (e *Engine) StopDataStreaming() error {
	e.mu.Lock()
	if !e.fsm.in(radarapi.StateActive) {
		from := e.fsm.current()
		e.mu.Unlock()
		return fmt.Errorf("stop streaming from %s: %w", from, radarapi.RCBadState)
	}
	e.stopProducersLocked()
	e.fsm.force(radarapi.StateIdle)
	e.mu.Unlock()

	e.logger.Info("Data streaming stopped")
	e.driverLog(radarapi.LogInf, "data streaming stopped")
	return nil
}

func (e *Engine) IsBurstReady() (bool, error) {
	return e.fifo.ready(), nil
}

func (e *Engine) ReadBurst(timeout time.Duration) (radarapi.BurstFormat, []byte, error) {
	b, err := e.fifo.pop(timeout)
	if err != nil {
		return radarapi.BurstFormat{}, nil, err
	}
	return b.Format, b.Payload, nil
}

// ReadBurstInto implements the caller-owned buffer contract: an
// undersized buffer fails RC_BAD_INPUT, reports the required size and
// leaves the head burst queued.
func (e *Engine) ReadBurstInto(buf []byte, timeout time.Duration) (radarapi.BurstFormat, int, error) {
	b, n, err := e.fifo.popMax(timeout, len(buf))
	if err != nil {
		return radarapi.BurstFormat{}, n, err
	}
	copy(buf, b.Payload)
	return b.Format, n, nil
}

// DroppedBursts counts bursts lost to FIFO overflow since creation.
func (e *Engine) DroppedBursts() uint64 { return e.fifo.droppedCount() }

// PendingBursts is the current FIFO backlog.
func (e *Engine) PendingBursts() int { return e.fifo.length() }

// buildStreamLocked freezes the acquisition plan for one slot.
func (e *Engine) buildStreamLocked(slot int, s *configSlot) slotStream {
	p := s.params
	chirps := p.main[radarapi.MainParamChirpsPerBurst]
	samples := p.main[radarapi.MainParamSamplesPerChirp]
	channels := channelCount(p)

	format := radarapi.BurstFormat{
		MaxSampleValue:        e.profile.MaxSampleValue,
		BitsPerSample:         e.profile.BitsPerSample,
		SamplesPerChirp:       uint16(samples),
		ChannelsCount:         uint8(channels),
		ChirpsPerBurst:        uint8(chirps),
		ConfigID:              uint8(slot),
		IsChannelsInterleaved: e.profile.ChannelsInterleaved,
		IsBigEndian:           e.profile.BigEndian,
	}
	return slotStream{
		slot:    slot,
		period:  time.Duration(p.main[radarapi.MainParamBurstPeriodUs]) * time.Microsecond,
		samples: int(samples) * int(chirps) * channels,
		format:  format,
	}
}

func (e *Engine) stopProducersLocked() {
	for _, p := range e.producers {
		p.stop()
	}
	e.producers = nil
}

// Miscellaneous.

func (e *Engine) SetCountryCode(code string) error {
	if len(code) != 2 || !isAlpha(code[0]) || !isAlpha(code[1]) {
		return fmt.Errorf("country code %q is not ISO 3166-1 alpha-2: %w", code, radarapi.RCBadInput)
	}
	code = string([]byte{upper(code[0]), upper(code[1])})

	e.mu.Lock()
	e.countryCode = code
	allowed := e.policy.Allowed(code)
	powered := !e.fsm.in(radarapi.StateOff)
	if !allowed && powered {
		e.stopProducersLocked()
		e.slots.clearActivations()
		e.fsm.force(radarapi.StateOff)
	}
	e.mu.Unlock()

	if !allowed {
		if powered {
			e.fifo.drain()
			e.logger.Warn("Radar forced off, country not permitted", zap.String("country", code))
		}
		return fmt.Errorf("operation not permitted in %q: %w", code, radarapi.RCUnsupported)
	}
	e.logger.Info("Country code set", zap.String("country", code))
	return nil
}

func (e *Engine) GetSensorInfo() (radarapi.SensorInfo, error) {
	e.mu.Lock()
	state := e.fsm.current()
	e.mu.Unlock()

	return radarapi.SensorInfo{
		Name:              truncate(e.profile.Name, radarapi.MaxSensorNameLen),
		Vendor:            truncate(e.profile.Vendor, radarapi.MaxVendorNameLen),
		DeviceID:          e.profile.DeviceID,
		DriverVersion:     e.profile.DriverVersion,
		APIVersion:        APIVersion,
		MaxSamplingRateHz: e.profile.MaxSamplingRateHz,
		State:             state,
	}, nil
}

func (e *Engine) SetLogLevel(level radarapi.LogLevel) error {
	return e.hub.setLevel(level)
}

func (e *Engine) GetAllRegisters() ([]radarapi.RegisterValue, error) {
	return e.gateway.all()
}

func (e *Engine) GetRegister(address uint32) (uint32, error) {
	return e.gateway.get(address)
}

func (e *Engine) SetRegister(address, value uint32) error {
	return e.gateway.set(address, value)
}

// driverLog mirrors a driver log message to the log observers with the
// caller position, the way the C API reports file/function/line.
func (e *Engine) driverLog(level radarapi.LogLevel, message string) {
	pc, file, line, ok := runtime.Caller(1)
	function := "?"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			function = fn.Name()
		}
	}
	e.hub.notifyLog(level, file, function, line, message)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
