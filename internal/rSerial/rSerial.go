// r in rserial stands for "robust"
package rserial

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

const DefaultReadTimeout = 5 * time.Millisecond

type rserial struct {
	serial.Port
	MessageQueue  chan<- []byte // channels are all implicitly passed as pointers
	tempBuff      []byte
	logger        *zap.Logger
	portName      string
	stopSequence  []byte
	rawPacketSize int
	readTimeout   time.Duration
	writeMu       sync.Mutex
}

type OutOfSyncError struct {
	ByteSequence []byte
}

func (e *OutOfSyncError) Error() string {
	return fmt.Sprintf("[rserial] incorrect stop sequence detected: %v", e.ByteSequence)
}

// Open opens portName and returns a reader that frames rawPacketSize-byte
// packets terminated by stopSequence onto messageQueue.
func Open(portName string, baudrate int, messageQueue chan<- []byte, logger *zap.Logger, rawPacketSize int, stopSequence []byte) (*rserial, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}

	return newRSerial(port, portName, messageQueue, logger, rawPacketSize, stopSequence), nil
}

func newRSerial(port serial.Port, portName string, messageQueue chan<- []byte, logger *zap.Logger, rawPacketSize int, stopSequence []byte) *rserial {
	return &rserial{
		Port:          port,
		MessageQueue:  messageQueue,
		tempBuff:      make([]byte, rawPacketSize),
		logger:        logger,
		portName:      portName,
		stopSequence:  stopSequence,
		rawPacketSize: rawPacketSize,
		readTimeout:   DefaultReadTimeout,
	}
}

// SetFrameReadTimeout changes the per-read timeout applied when Run starts.
func (r *rserial) SetFrameReadTimeout(timeout time.Duration) {
	if timeout > 0 {
		r.readTimeout = timeout
	}
}

func (r *rserial) initialize(ctx context.Context) {
	if err := r.SetReadTimeout(r.readTimeout); err != nil {
		r.logger.Warn("[rserial] could not set read timeout", zap.Error(err), zap.String("portName", r.portName))
	}
	if err := r.ResetInputBuffer(); err != nil {
		r.logger.Warn("[rserial] could not reset input buffer", zap.Error(err), zap.String("portName", r.portName))
	}
	r.sync(ctx)
}

// Run reads frames until ctx is cancelled, then closes the message queue.
func (r *rserial) Run(ctx context.Context) error {
	defer close(r.MessageQueue)

	r.initialize(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("[rserial] exiting from rserial read loop", zap.String("portName", r.portName))
			return nil
		default:
			err := r.ReadPacket(ctx)
			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				continue
			}

			var oosError *OutOfSyncError
			if errors.As(err, &oosError) {
				r.logger.Warn("[rserial] error while attempting to read packet from serial", zap.Error(err), zap.String("portName", r.portName), zap.Binary("payload", oosError.ByteSequence))
				r.sync(ctx)
			} else {
				r.logger.Warn("[rserial] error while attempting to read packet from serial", zap.Error(err), zap.String("portName", r.portName))
				r.backoff(ctx)
			}
		}
	}
}

// ReadPacket reads one frame and queues a copy of it.
func (r *rserial) ReadPacket(ctx context.Context) error {
	count := 0
	for count < r.rawPacketSize {
		n, err := r.Read(r.tempBuff[count:])
		if err != nil {
			return err
		}
		if n == 0 {
			// read timeout with nothing pending
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		count += n
	}

	// validate that the packet is valid by checking the last bytes of the packet
	packet := make([]byte, r.rawPacketSize)
	copy(packet, r.tempBuff)
	if !bytes.Equal(packet[r.rawPacketSize-len(r.stopSequence):], r.stopSequence) {
		return &OutOfSyncError{
			ByteSequence: packet,
		}
	}

	select {
	case r.MessageQueue <- packet:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *rserial) sync(ctx context.Context) {
	r.logger.Warn("[rserial] resyncing serial port", zap.String("portName", r.portName))
	onebyte := make([]byte, 1)
	last := r.stopSequence[len(r.stopSequence)-1]

	for {
		if ctx.Err() != nil {
			return
		}
		n, err := r.Read(onebyte)
		if err != nil {
			r.logger.Warn("[rserial] error while resyncing serial port", zap.Error(err), zap.String("portName", r.portName))
			r.backoff(ctx)
			continue
		}
		if n == 1 && onebyte[0] == last {
			return
		}
	}
}

// backoff pauses after a hard read error so a vanished port doesn't spin the loop.
func (r *rserial) backoff(ctx context.Context) {
	t := time.NewTimer(100 * r.readTimeout)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// LED returns an indicator that drives the board's LED with "L1\n" and "L0\n"
// commands. Write failures are logged and otherwise ignored.
func (r *rserial) LED() *BoardLED {
	return &BoardLED{r: r}
}

type BoardLED struct {
	r *rserial
}

func (l *BoardLED) High() { l.r.writeCommand([]byte("L1\n")) }
func (l *BoardLED) Low() { l.r.writeCommand([]byte("L0\n")) }

func (r *rserial) writeCommand(cmd []byte) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := r.Write(cmd); err != nil {
		r.logger.Warn("[rserial] error writing command", zap.Error(err), zap.String("portName", r.portName), zap.ByteString("command", bytes.TrimSpace(cmd)))
	}
}
