package nats

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRadarCore/internal/wire"
	"github.com/KevinKickass/OpenRadarCore/radarapi"
)

// Publisher fans sensor events out to a NATS cluster. Subjects are
// built as <prefix>.sensor.<id>.<kind>; burst frames go out as the
// binary wire format, everything else as JSON.
type Publisher struct {
	conn    *nats.Conn
	prefix  string
	logger  *zap.Logger
	mutex   sync.Mutex
	enabled bool
}

func NewPublisher(subjectPrefix string, logger *zap.Logger) *Publisher {
	return &Publisher{
		prefix:  subjectPrefix,
		logger:  logger,
		enabled: false,
	}
}

// Connect dials the NATS server with automatic reconnects. A failed
// connect leaves the publisher disabled; publishing stays a no-op.
func (p *Publisher) Connect(natsURL string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	opts := []nats.Option{
		nats.Name("open-radar-core"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			p.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			p.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			p.logger.Info("NATS connection closed")
		}),
	}

	var err error
	p.conn, err = nats.Connect(natsURL, opts...)
	if err != nil {
		p.enabled = false
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p.enabled = true
	p.logger.Info("NATS connected", zap.String("url", natsURL))
	return nil
}

func (p *Publisher) subject(sensorID int32, kind string) string {
	return fmt.Sprintf("%s.sensor.%d.%s", p.prefix, sensorID, kind)
}

// PublishBurst publishes one burst frame: the packed wire header
// followed by the payload.
func (p *Publisher) PublishBurst(sensorID int32, format radarapi.BurstFormat, payload []byte) error {
	frame := wire.AppendHeader(make([]byte, 0, wire.HeaderSize+len(payload)), format)
	frame = append(frame, payload...)
	return p.publishRaw(p.subject(sensorID, "burst"), frame)
}

// PublishState publishes a power state change.
func (p *Publisher) PublishState(sensorID int32, state radarapi.State) error {
	return p.publishJSON(p.subject(sensorID, "state"), map[string]string{
		"state": state.String(),
	})
}

// PublishRegisterSet mirrors a confirmed register write.
func (p *Publisher) PublishRegisterSet(sensorID int32, address, value uint32) error {
	return p.publishJSON(p.subject(sensorID, "register"), map[string]uint32{
		"address": address,
		"value":   value,
	})
}

func (p *Publisher) publishJSON(subject string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}
	return p.publishRaw(subject, jsonData)
}

func (p *Publisher) publishRaw(subject string, data []byte) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.enabled || p.conn == nil {
		// NATS is optional; without a connection events are dropped.
		return nil
	}

	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Disconnect closes the NATS connection.
func (p *Publisher) Disconnect() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
		p.enabled = false
		p.logger.Info("NATS disconnected")
	}
}

// IsConnected reports whether a live server connection exists.
func (p *Publisher) IsConnected() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.enabled && p.conn != nil && p.conn.IsConnected()
}
