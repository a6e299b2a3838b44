package interfaces

import (
	"context"

	"github.com/KevinKickass/OpenRadarCore/internal/config"
	"github.com/KevinKickass/OpenRadarCore/internal/presets"
	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// SystemStatus represents the current system state
type SystemStatus struct {
	State            string `json:"state"`
	SensorCount      int    `json:"sensor_count"`
	StreamingSensors int    `json:"streaming_sensors"`
	NATSConnected    bool   `json:"nats_connected"`
}

// BurstCounter exposes FIFO statistics a driver may provide beyond the
// sensor API.
type BurstCounter interface {
	DroppedBursts() uint64
	PendingBursts() int
}

type LifecycleManager interface {
	Config() *config.Config
	Sensor(id int32) (radarapi.Sensor, bool)
	SensorIDs() []int32
	PresetLoader() *presets.Loader
	GetCurrentStatus() SystemStatus
	// NotifyStateChange fans a power state change out to every event
	// surface (WebSocket clients and, when connected, NATS).
	NotifyStateChange(id int32, state, previous radarapi.State)
	Shutdown(ctx context.Context) error
}
