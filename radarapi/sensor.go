package radarapi

import "time"

// Observer receives radar sensor events. Implementations are invoked
// in registration order; they may add or remove observers from within
// a callback.
type Observer interface {
	// OnBurstReady is invoked once per burst admitted to the FIFO.
	OnBurstReady()
	// OnLogMessage is invoked for driver log messages at or below the
	// configured log level.
	OnLogMessage(level LogLevel, file, function string, line int, message string)
	// OnRegisterSet is invoked synchronously after a register write
	// has been confirmed by the transport.
	OnRegisterSet(address, value uint32)
}

// Sensor is the object-style binding of the radar driver contract.
// All methods are safe for concurrent use. Failures carry a ReturnCode
// recoverable through CodeOf; nil means RC_OK.
type Sensor interface {
	// Feedback.
	AddObserver(obs Observer) error
	RemoveObserver(obs Observer) error

	// Power management.
	GetRadarState() (State, error)
	TurnOn() error
	TurnOff() error
	GoSleep() error
	WakeUp() error

	// Configuration.
	SetFifoMode(mode FifoMode) error
	GetNumConfigSlots() (int, error)
	ActivateConfig(slot int) error
	DeactivateConfig(slot int) error
	GetActiveConfigs() ([]int, error)
	GetMainParam(slot int, id MainParam) (uint32, error)
	SetMainParam(slot int, id MainParam, value uint32) error
	GetMainParamRange(id MainParam) (min, max uint32, err error)
	GetChannelParam(slot, channel int, id ChannelParam) (uint32, error)
	SetChannelParam(slot, channel int, id ChannelParam, value uint32) error
	GetChannelParamRange(id ChannelParam) (min, max uint32, err error)
	GetVendorParam(slot int, id VendorParam) (uint32, error)
	SetVendorParam(slot int, id VendorParam, value uint32) error

	// Running. ReadBurst is the only blocking call: it waits until a
	// burst is available or timeout elapses (RC_TIMEOUT). Ownership of
	// the returned payload transfers to the caller.
	StartDataStreaming() error
	StopDataStreaming() error
	IsBurstReady() (bool, error)
	ReadBurst(timeout time.Duration) (BurstFormat, []byte, error)

	// Miscellaneous.
	SetCountryCode(code string) error
	GetSensorInfo() (SensorInfo, error)
	SetLogLevel(level LogLevel) error
	GetAllRegisters() ([]RegisterValue, error)
	GetRegister(address uint32) (uint32, error)
	SetRegister(address, value uint32) error
}

// BufferedBurstReader is an optional Sensor extension with the C-style
// caller-owned buffer semantics: an undersized buffer fails with
// RC_BAD_INPUT and leaves the head burst queued.
type BufferedBurstReader interface {
	// ReadBurstInto pops the head burst into buf and returns its
	// format and payload length.
	ReadBurstInto(buf []byte, timeout time.Duration) (BurstFormat, int, error)
}
