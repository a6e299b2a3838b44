package radarapi

// State is the power mode of a radar sensor. The numeric values are
// part of the wire/API contract and must not be reordered.
type State uint16

const (
	StateUndefined State = 0
	// StateActive: radar is emitting and collecting burst data.
	StateActive State = 1
	// StateIdle: powered on, not emitting, fully configurable.
	StateIdle State = 2
	// StateSleep: configuration persists, power consumption reduced.
	StateSleep State = 3
	// StateOff: powered off, slot activation cleared.
	StateOff State = 4
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateIdle:
		return "IDLE"
	case StateSleep:
		return "SLEEP"
	case StateOff:
		return "OFF"
	}
	return "UNDEFINED"
}

// FifoMode controls how the internal burst FIFO behaves on overflow.
type FifoMode uint16

const (
	FifoUndefined FifoMode = 0
	// FifoDropNew: a new burst is ignored when the FIFO is full.
	FifoDropNew FifoMode = 1
	// FifoDropOld: the oldest burst is evicted to admit a new one.
	FifoDropOld FifoMode = 2
)

func (m FifoMode) String() string {
	switch m {
	case FifoDropNew:
		return "DROP_NEW"
	case FifoDropOld:
		return "DROP_OLD"
	}
	return "UNDEFINED"
}

// LogLevel filters driver log messages dispatched to observers.
type LogLevel uint32

const (
	LogUndefined LogLevel = 0
	LogOff       LogLevel = 1
	LogErr       LogLevel = 2
	LogWrn       LogLevel = 3
	LogInf       LogLevel = 4
	LogDbg       LogLevel = 5
)

func (l LogLevel) String() string {
	switch l {
	case LogOff:
		return "OFF"
	case LogErr:
		return "ERR"
	case LogWrn:
		return "WRN"
	case LogInf:
		return "INF"
	case LogDbg:
		return "DBG"
	}
	return "UNDEFINED"
}

// MainParam identifies a main radar characteristic. A configuration
// slot holds exactly one value per MainParam.
type MainParam uint32

const (
	MainParamUndefined MainParam = iota
	// Power mode for after the burst period.
	MainParamAfterburstPowerMode
	// Power mode for the period between chirps.
	MainParamInterchirpPowerMode
	// Duration between the start times of two consecutive bursts.
	MainParamBurstPeriodUs
	// Duration between the start times of two consecutive chirps.
	MainParamChirpPeriodUs
	// Amount of chirps within the burst.
	MainParamChirpsPerBurst
	// The number of ADC sample values captured for each chirp.
	MainParamSamplesPerChirp
	// The lower frequency at which TX antennas start emitting.
	MainParamLowerFreqMHz
	// The upper frequency at which TX antennas stop emitting.
	MainParamUpperFreqMHz
	// Bit mask of enabled TX antennas.
	MainParamTxAntennaMask
	// Bit mask of enabled RX antennas.
	MainParamRxAntennaMask
	// Power for TX antennas.
	MainParamTxPower
	// ADC sampling frequency.
	MainParamAdcSamplingHz
)

// ChannelParam identifies a per-channel parameter.
type ChannelParam uint32

const (
	ChannelParamUndefined ChannelParam = iota
	// Variable Gain Amplifier setting in dB.
	ChannelParamVgaDb
	// High Phase filter gain in dB.
	ChannelParamHpGainDb
	// High Phase filter cut-off frequency in kHz.
	ChannelParamHpCutoffKHz
)

// VendorParam identifies a vendor specific parameter. The value space
// is owned by the concrete driver.
type VendorParam uint32

const (
	MaxSensorNameLen = 32
	MaxVendorNameLen = 32
)

// Version is a semantic version holder.
type Version struct {
	Major uint8 `json:"major"`
	Minor uint8 `json:"minor"`
	Patch uint8 `json:"patch"`
	Build uint8 `json:"build"`
}

// SensorInfo is a read-only snapshot of the sensor hardware and driver.
// It is regenerated on every query and never cached across state
// changes.
type SensorInfo struct {
	Name              string  `json:"name"`
	Vendor            string  `json:"vendor"`
	DeviceID          uint32  `json:"device_id"`
	DriverVersion     Version `json:"driver_version"`
	APIVersion        Version `json:"api_version"`
	MaxSamplingRateHz uint64  `json:"max_sampling_rate_hz"`
	State             State   `json:"state"`
}

// BurstFormat describes the layout of one burst of radar data.
type BurstFormat struct {
	// SequenceNumber strictly increases per produced burst and wraps
	// at the uint32 limit. Gaps indicate bursts lost to FIFO overflow.
	SequenceNumber uint32 `json:"sequence_number"`
	// MaxSampleValue is the maximum value the ADC sampler produces.
	MaxSampleValue  uint32 `json:"max_sample_value"`
	BitsPerSample   uint8  `json:"bits_per_sample"`
	SamplesPerChirp uint16 `json:"samples_per_chirp"`
	ChannelsCount   uint8  `json:"channels_count"`
	ChirpsPerBurst  uint8  `json:"chirps_per_burst"`
	// ConfigID is the configuration slot that produced this burst.
	ConfigID uint8 `json:"config_id"`
	// IsChannelsInterleaved: samples of all channels are interleaved
	// rather than stored as per-channel blocks.
	IsChannelsInterleaved bool `json:"is_channels_interleaved"`
	// IsBigEndian: sample words are big endian on the wire.
	IsBigEndian bool `json:"is_big_endian"`
	// BurstDataCRC is the CRC-32 over the payload bytes only.
	BurstDataCRC uint32 `json:"burst_data_crc"`
	// TimestampMs counts milliseconds since the radar was turned on.
	TimestampMs uint32 `json:"timestamp_ms"`
}

// RegisterValue is one address/value pair from the sensor register map.
type RegisterValue struct {
	Address uint32 `json:"address"`
	Value   uint32 `json:"value"`
}
