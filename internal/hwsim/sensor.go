package hwsim

import (
	"github.com/KevinKickass/OpenRadarCore/internal/engine"
	"github.com/KevinKickass/OpenRadarCore/radarapi"
	"go.uber.org/zap"
)

// NewSensor wires a fresh simulated device into a driver engine.
func NewSensor(policy engine.RegulatoryPolicy, logger *zap.Logger) (*engine.Engine, error) {
	dev := New()
	return engine.New(dev.Profile(), dev, policy, logger)
}

// Factory adapts NewSensor to the C-style binding's driver factory.
// The chip id selects among attached sensors; the simulator accepts
// any id.
func Factory(policy engine.RegulatoryPolicy, logger *zap.Logger) radarapi.Factory {
	return func(id int32) (radarapi.Sensor, error) {
		return NewSensor(policy, logger.With(zap.Int32("radar_id", id)))
	}
}
