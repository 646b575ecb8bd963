package processing

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const DEFAULT_QUEUE_SIZE = 20

// FlagButtonEdge is set by the board on the frame that carries a falling edge
// of the button input. BoardTick is the edge timestamp in that case.
const FlagButtonEdge uint16 = 1 << 0

var ErrReadingOutOfRange = errors.New("reading out of range")

// DataPacket is the little-endian frame body sent by the board, followed on the
// wire by StopSequence.
type DataPacket struct {
	PacketNumber uint32
	BoardTick    uint32
	Reading      uint16
	Flags        uint16
}

var (
	PacketSize   = binary.Size(DataPacket{})
	StopSequence = []byte{'\r', '\n'}
	FrameSize    = PacketSize + len(StopSequence)
)

// EdgeHandler receives button edges in frame order. It runs on the processor
// goroutine and must not block.
type EdgeHandler func(tick uint32)

// Processor decodes board frames, keeps the sample store current and forwards
// button edges.
type Processor struct {
	MessageQueue <-chan []byte
	logger       *zap.Logger
	dataStore    *DataSampleStore
	onEdge       EdgeHandler
	metrics      Metrics

	lastPacketNumber uint32
	seenPacket       bool
}

func NewProcessor(messageQueue <-chan []byte, logger *zap.Logger, dataStore *DataSampleStore, onEdge EdgeHandler, metrics Metrics) *Processor {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Processor{
		MessageQueue: messageQueue,
		logger:       logger,
		dataStore:    dataStore,
		onEdge:       onEdge,
		metrics:      metrics,
	}
}

func (p *Processor) Run(ctx context.Context) error {
	for {
		select {
		case packet, ok := <-p.MessageQueue:
			if !ok {
				p.logger.Info("[processor] message queue closed")
				return nil
			}

			err := p.ProcessPacket(packet)
			p.metrics.ObservePacket(err)
			if err != nil {
				p.logger.Warn(
					"[processor] error decoding byte packet",
					zap.Error(err),
					zap.Int("packetLength", len(packet)),
					zap.Binary("rawBytes", packet),
				)
			}
		case <-ctx.Done():
			p.logger.Info("[processor] received shutdown signal")
			return nil
		}
	}
}

func (p *Processor) ProcessPacket(packet []byte) error {
	var decoded DataPacket
	if len(packet) < PacketSize {
		return fmt.Errorf("short packet: %d bytes, want %d", len(packet), PacketSize)
	}
	if err := binary.Read(bytes.NewReader(packet[:PacketSize]), binary.LittleEndian, &decoded); err != nil {
		return err
	}

	if p.seenPacket && decoded.PacketNumber != p.lastPacketNumber+1 {
		p.logger.Warn(
			"[processor] packet sequence gap",
			zap.Uint32("expected", p.lastPacketNumber+1),
			zap.Uint32("got", decoded.PacketNumber),
		)
	}
	p.lastPacketNumber = decoded.PacketNumber
	p.seenPacket = true

	if decoded.Flags&FlagButtonEdge != 0 && p.onEdge != nil {
		p.onEdge(decoded.BoardTick)
	}

	reading := Reading(decoded.Reading)
	if reading > MaxReading {
		return fmt.Errorf("packet %d: %w: %d", decoded.PacketNumber, ErrReadingOutOfRange, decoded.Reading)
	}
	p.dataStore.UpdateSampleStore(reading)

	return nil
}
