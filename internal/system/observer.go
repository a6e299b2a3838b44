package system

import (
	"github.com/KevinKickass/OpenRadarCore/internal/api/websocket"
	"github.com/KevinKickass/OpenRadarCore/internal/interfaces"
	"github.com/KevinKickass/OpenRadarCore/internal/nats"
	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// sensorObserver bridges driver callbacks onto the WebSocket hub and
// the NATS publisher. One observer is registered per attached sensor.
type sensorObserver struct {
	id        int32
	sensor    radarapi.Sensor
	wsHub     *websocket.Hub
	publisher *nats.Publisher
}

func (o *sensorObserver) OnBurstReady() {
	pending := 0
	var dropped uint64
	if bc, ok := o.sensor.(interfaces.BurstCounter); ok {
		pending = bc.PendingBursts()
		dropped = bc.DroppedBursts()
	}
	o.wsHub.Broadcast(websocket.NewBurstReadyMessage(o.id, pending, dropped))
}

func (o *sensorObserver) OnLogMessage(level radarapi.LogLevel, file, function string, line int, message string) {
	o.wsHub.Broadcast(websocket.NewDriverLogMessage(o.id, level, file, function, line, message))
}

func (o *sensorObserver) OnRegisterSet(address, value uint32) {
	o.wsHub.Broadcast(websocket.NewRegisterSetMessage(o.id, address, value))
	o.publisher.PublishRegisterSet(o.id, address, value)
}
