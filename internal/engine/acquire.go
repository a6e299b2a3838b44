package engine

import (
	"sync"
	"time"

	"github.com/KevinKickass/OpenRadarCore/internal/wire"
	"github.com/KevinKickass/OpenRadarCore/radarapi"
	"go.uber.org/zap"
)

// slotStream is the immutable acquisition plan for one active slot,
// snapshotted at StartDataStreaming. Configuration is frozen while
// ACTIVE, which is what makes the snapshot safe to read without the
// engine mutex.
type slotStream struct {
	slot    int
	period  time.Duration
	samples int
	format  radarapi.BurstFormat // template; seq/crc/timestamp set per burst
}

// producer drives burst acquisition for one slot. One goroutine per
// active slot, all feeding the shared FIFO; sequence numbers come from
// the engine-wide counter so they stay strictly increasing across
// slots and streaming sessions.
type producer struct {
	logger    *zap.Logger
	transport Transport
	fifo      *burstFifo
	hub       *observerHub
	stream    slotStream
	nextSeq   func() uint32
	sinceOn   func() uint32 // milliseconds since TurnOn

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func (p *producer) start() {
	p.stopChan = make(chan struct{})
	p.wg.Add(1)
	go p.run()
	p.logger.Info("Acquisition started",
		zap.Int("slot", p.stream.slot),
		zap.Duration("burst_period", p.stream.period))
}

func (p *producer) stop() {
	close(p.stopChan)
	p.wg.Wait()
	p.logger.Info("Acquisition stopped", zap.Int("slot", p.stream.slot))
}

func (p *producer) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.stream.period)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.produceBurst()
		}
	}
}

func (p *producer) produceBurst() {
	samples, err := p.transport.ReadSamples(p.stream.samples)
	if err != nil {
		p.logger.Error("Sample acquisition failed",
			zap.Int("slot", p.stream.slot),
			zap.Error(err))
		return
	}

	format := p.stream.format
	format.SequenceNumber = p.nextSeq()
	format.TimestampMs = p.sinceOn()

	payload, err := wire.PackSamples(format, samples)
	if err != nil {
		p.logger.Error("Burst encoding failed",
			zap.Int("slot", p.stream.slot),
			zap.Error(err))
		return
	}
	format.BurstDataCRC = wire.Checksum(payload)

	if !p.fifo.push(&Burst{Format: format, Payload: payload}) {
		// DROP_NEW rejection; the consumer sees the loss as a
		// sequence number gap.
		p.logger.Warn("Burst dropped, FIFO full",
			zap.Int("slot", p.stream.slot),
			zap.Uint32("sequence", format.SequenceNumber))
		return
	}
	p.hub.notifyBurstReady()
}
