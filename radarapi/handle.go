package radarapi

import (
	"sync"
	"time"
)

// Factory builds the concrete Sensor behind a handle. The chip id
// differentiates sensors when multiple are attached.
type Factory func(id int32) (Sensor, error)

// Handle is the opaque per-instance token of the C-style binding.
type Handle struct {
	id     int32
	sensor Sensor

	// Sensors without the BufferedBurstReader extension cannot peek.
	// A burst popped for a too-small caller buffer is parked here so
	// the retry still receives it.
	mu           sync.Mutex
	stashed      bool
	stashFormat  BurstFormat
	stashPayload []byte
}

// Sensor exposes the object-style binding behind the handle.
func (h *Handle) Sensor() Sensor { return h.sensor }

// module is the process-wide driver context. No handle may be created
// before Init or survive past Deinit.
var module struct {
	mu      sync.Mutex
	inited  bool
	factory Factory
	handles map[int32]*Handle
}

// Init initializes the radar module with a driver factory. Must be
// called before any other function of this binding.
func Init(factory Factory) ReturnCode {
	module.mu.Lock()
	defer module.mu.Unlock()
	if module.inited {
		return RCBadState
	}
	if factory == nil {
		return RCBadInput
	}
	module.inited = true
	module.factory = factory
	module.handles = make(map[int32]*Handle)
	return RCOK
}

// Deinit tears the module down. Handles still alive are force
// destroyed, which turns their sensors off first.
func Deinit() ReturnCode {
	module.mu.Lock()
	defer module.mu.Unlock()
	if !module.inited {
		return RCBadState
	}
	for id, h := range module.handles {
		h.sensor.TurnOff()
		delete(module.handles, id)
	}
	module.inited = false
	module.factory = nil
	module.handles = nil
	return RCOK
}

// Create builds a radar instance for the given chip id. Returns nil if
// the module is not initialized, the id is already in use, or the
// driver fails to construct.
func Create(id int32) *Handle {
	module.mu.Lock()
	defer module.mu.Unlock()
	if !module.inited {
		return nil
	}
	if _, exists := module.handles[id]; exists {
		return nil
	}
	sensor, err := module.factory(id)
	if err != nil {
		return nil
	}
	h := &Handle{id: id, sensor: sensor}
	module.handles[id] = h
	return h
}

// Destroy forces the sensor off and releases the handle.
func Destroy(h *Handle) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	module.mu.Lock()
	defer module.mu.Unlock()
	if !module.inited {
		return RCBadState
	}
	if _, exists := module.handles[h.id]; !exists {
		return RCBadInput
	}
	h.sensor.TurnOff()
	delete(module.handles, h.id)
	return RCOK
}

// Power management.

func GetState(h *Handle, state *State) ReturnCode {
	if h == nil || state == nil {
		return RCBadInput
	}
	s, err := h.sensor.GetRadarState()
	if err != nil {
		return CodeOf(err)
	}
	*state = s
	return RCOK
}

func TurnOn(h *Handle) ReturnCode  { return do(h, Sensor.TurnOn) }
func GoSleep(h *Handle) ReturnCode { return do(h, Sensor.GoSleep) }
func WakeUp(h *Handle) ReturnCode  { return do(h, Sensor.WakeUp) }

// TurnOff also discards a burst parked on the handle; OFF drains all
// queued data.
func TurnOff(h *Handle) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	if err := h.sensor.TurnOff(); err != nil {
		return CodeOf(err)
	}
	h.mu.Lock()
	h.stashed = false
	h.stashPayload = nil
	h.mu.Unlock()
	return RCOK
}

func do(h *Handle, op func(Sensor) error) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	if err := op(h.sensor); err != nil {
		return CodeOf(err)
	}
	return RCOK
}

// Configuration.

func SetFifoMode(h *Handle, mode FifoMode) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.SetFifoMode(mode))
}

func GetNumConfigSlots(h *Handle, numSlots *int8) ReturnCode {
	if h == nil || numSlots == nil {
		return RCBadInput
	}
	n, err := h.sensor.GetNumConfigSlots()
	if err != nil {
		return CodeOf(err)
	}
	*numSlots = int8(n)
	return RCOK
}

func ActivateConfig(h *Handle, slot int8) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.ActivateConfig(int(slot)))
}

func DeactivateConfig(h *Handle, slot int8) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.DeactivateConfig(int(slot)))
}

func IsActiveConfig(h *Handle, slot int8, isActive *bool) ReturnCode {
	if h == nil || isActive == nil {
		return RCBadInput
	}
	numSlots, err := h.sensor.GetNumConfigSlots()
	if err != nil {
		return CodeOf(err)
	}
	if int(slot) < 0 || int(slot) >= numSlots {
		return RCBadInput
	}
	active, err := h.sensor.GetActiveConfigs()
	if err != nil {
		return CodeOf(err)
	}
	*isActive = false
	for _, s := range active {
		if s == int(slot) {
			*isActive = true
			break
		}
	}
	return RCOK
}

func GetMainParam(h *Handle, slot uint32, id MainParam, value *uint32) ReturnCode {
	if h == nil || value == nil {
		return RCBadInput
	}
	v, err := h.sensor.GetMainParam(int(slot), id)
	if err != nil {
		return CodeOf(err)
	}
	*value = v
	return RCOK
}

func SetMainParam(h *Handle, slot uint32, id MainParam, value uint32) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.SetMainParam(int(slot), id, value))
}

func GetMainParamRange(h *Handle, id MainParam, minValue, maxValue *uint32) ReturnCode {
	if h == nil || minValue == nil || maxValue == nil {
		return RCBadInput
	}
	lo, hi, err := h.sensor.GetMainParamRange(id)
	if err != nil {
		return CodeOf(err)
	}
	*minValue, *maxValue = lo, hi
	return RCOK
}

func GetChannelParam(h *Handle, slot uint32, channel uint8, id ChannelParam, value *uint32) ReturnCode {
	if h == nil || value == nil {
		return RCBadInput
	}
	v, err := h.sensor.GetChannelParam(int(slot), int(channel), id)
	if err != nil {
		return CodeOf(err)
	}
	*value = v
	return RCOK
}

func SetChannelParam(h *Handle, slot uint32, channel uint8, id ChannelParam, value uint32) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.SetChannelParam(int(slot), int(channel), id, value))
}

func GetChannelParamRange(h *Handle, id ChannelParam, minValue, maxValue *uint32) ReturnCode {
	if h == nil || minValue == nil || maxValue == nil {
		return RCBadInput
	}
	lo, hi, err := h.sensor.GetChannelParamRange(id)
	if err != nil {
		return CodeOf(err)
	}
	*minValue, *maxValue = lo, hi
	return RCOK
}

func GetVendorParam(h *Handle, slot uint32, id VendorParam, value *uint32) ReturnCode {
	if h == nil || value == nil {
		return RCBadInput
	}
	v, err := h.sensor.GetVendorParam(int(slot), id)
	if err != nil {
		return CodeOf(err)
	}
	*value = v
	return RCOK
}

func SetVendorParam(h *Handle, slot uint32, id VendorParam, value uint32) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.SetVendorParam(int(slot), id, value))
}

// Running.

func StartDataStreaming(h *Handle) ReturnCode { return do(h, Sensor.StartDataStreaming) }
func StopDataStreaming(h *Handle) ReturnCode  { return do(h, Sensor.StopDataStreaming) }

func IsBurstReady(h *Handle, isReady *bool) ReturnCode {
	if h == nil || isReady == nil {
		return RCBadInput
	}
	h.mu.Lock()
	stashed := h.stashed
	h.mu.Unlock()
	if stashed {
		*isReady = true
		return RCOK
	}
	ready, err := h.sensor.IsBurstReady()
	if err != nil {
		return CodeOf(err)
	}
	*isReady = ready
	return RCOK
}

// ReadBurst pops the head burst into the caller-owned buffer. On entry
// *readBytes holds the buffer capacity actually usable; on success it
// is rewritten with the payload length. A buffer smaller than the head
// payload fails RC_BAD_INPUT without consuming the burst, and
// *readBytes reports the required size.
func ReadBurst(h *Handle, format *BurstFormat, buffer []byte, readBytes *uint32, timeout time.Duration) ReturnCode {
	if h == nil || format == nil || readBytes == nil {
		return RCBadInput
	}
	capacity := int(*readBytes)
	if capacity > len(buffer) {
		capacity = len(buffer)
	}
	if br, ok := h.sensor.(BufferedBurstReader); ok {
		f, n, err := br.ReadBurstInto(buffer[:capacity], timeout)
		if err != nil {
			if CodeOf(err) == RCBadInput && n > 0 {
				*readBytes = uint32(n)
			}
			return CodeOf(err)
		}
		*format = f
		*readBytes = uint32(n)
		return RCOK
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stashed {
		f, payload, err := h.sensor.ReadBurst(timeout)
		if err != nil {
			return CodeOf(err)
		}
		h.stashed = true
		h.stashFormat = f
		h.stashPayload = payload
	}
	if len(h.stashPayload) > capacity {
		*readBytes = uint32(len(h.stashPayload))
		return RCBadInput
	}
	copy(buffer, h.stashPayload)
	*format = h.stashFormat
	*readBytes = uint32(len(h.stashPayload))
	h.stashed = false
	h.stashPayload = nil
	return RCOK
}

// Feedback.

func AddObserver(h *Handle, obs Observer) ReturnCode {
	if h == nil || obs == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.AddObserver(obs))
}

func RemoveObserver(h *Handle, obs Observer) ReturnCode {
	if h == nil || obs == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.RemoveObserver(obs))
}

// Miscellaneous.

func SetCountryCode(h *Handle, countryCode string) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.SetCountryCode(countryCode))
}

func GetSensorInfo(h *Handle, info *SensorInfo) ReturnCode {
	if h == nil || info == nil {
		return RCBadInput
	}
	si, err := h.sensor.GetSensorInfo()
	if err != nil {
		return CodeOf(err)
	}
	*info = si
	return RCOK
}

func SetLogLevel(h *Handle, level LogLevel) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.SetLogLevel(level))
}

// GetAllRegisters fills up to *count address/value pairs. If the device
// exposes more registers than the caller provided room for, the result
// is truncated and still RC_OK; *count is rewritten with the number of
// pairs produced.
func GetAllRegisters(h *Handle, addresses, values []uint32, count *uint32) ReturnCode {
	if h == nil || count == nil {
		return RCBadInput
	}
	regs, err := h.sensor.GetAllRegisters()
	if err != nil {
		return CodeOf(err)
	}
	capacity := int(*count)
	if capacity > len(addresses) {
		capacity = len(addresses)
	}
	if capacity > len(values) {
		capacity = len(values)
	}
	n := 0
	for _, r := range regs {
		if n >= capacity {
			break
		}
		addresses[n] = r.Address
		values[n] = r.Value
		n++
	}
	*count = uint32(n)
	return RCOK
}

func GetRegister(h *Handle, address uint32, value *uint32) ReturnCode {
	if h == nil || value == nil {
		return RCBadInput
	}
	v, err := h.sensor.GetRegister(address)
	if err != nil {
		return CodeOf(err)
	}
	*value = v
	return RCOK
}

func SetRegister(h *Handle, address, value uint32) ReturnCode {
	if h == nil {
		return RCBadInput
	}
	return CodeOf(h.sensor.SetRegister(address, value))
}
