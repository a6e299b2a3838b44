package engine

import (
	"fmt"

	"github.com/KevinKickass/OpenRadarCore/radarapi"
	"go.uber.org/zap"
)

// Transport is the collaborator that talks to the silicon. Register
// access must complete within a short access latency; ReadSamples is
// invoked from the acquisition goroutines while streaming.
type Transport interface {
	ReadRegister(address uint32) (uint32, error)
	WriteRegister(address, value uint32) error
	// AllRegisters returns the full register map snapshot in address
	// order.
	AllRegisters() ([]radarapi.RegisterValue, error)
	// ReadSamples produces the next count ADC sample values.
	ReadSamples(count int) ([]uint32, error)
}

// registerGateway passes register access through to the transport and
// tells observers about confirmed writes.
type registerGateway struct {
	transport Transport
	hub       *observerHub
	logger    *zap.Logger
}

func newRegisterGateway(transport Transport, hub *observerHub, logger *zap.Logger) *registerGateway {
	return &registerGateway{transport: transport, hub: hub, logger: logger}
}

func (g *registerGateway) get(address uint32) (uint32, error) {
	value, err := g.transport.ReadRegister(address)
	if err != nil {
		return 0, fmt.Errorf("read register 0x%04x: %w", address, wrapTransportErr(err))
	}
	return value, nil
}

func (g *registerGateway) set(address, value uint32) error {
	if err := g.transport.WriteRegister(address, value); err != nil {
		return fmt.Errorf("write register 0x%04x: %w", address, wrapTransportErr(err))
	}
	g.logger.Debug("Register written",
		zap.Uint32("address", address),
		zap.Uint32("value", value))
	// Synchronous, after the write is confirmed.
	g.hub.notifyRegisterSet(address, value)
	return nil
}

func (g *registerGateway) all() ([]radarapi.RegisterValue, error) {
	regs, err := g.transport.AllRegisters()
	if err != nil {
		return nil, fmt.Errorf("read register map: %w", wrapTransportErr(err))
	}
	return regs, nil
}

// wrapTransportErr keeps an existing ReturnCode, otherwise the failure
// is reported as a plain driver error.
func wrapTransportErr(err error) error {
	if c := radarapi.CodeOf(err); c != radarapi.RCError {
		return err
	}
	return fmt.Errorf("%v: %w", err, radarapi.RCError)
}
