package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mud-protocol/tuxp-go/pkg/log"
)

// Framing constants.
const (
	// ReadChunkSize is the largest chunk read from the source at once.
	ReadChunkSize = Capacity

	// MaxLogFrameDataSize is the maximum frame data size to include in logs.
	// Larger chunks are truncated in log events.
	MaxLogFrameDataSize = Capacity
)

// ErrMessageEmpty indicates an attempt to write an empty frame.
var ErrMessageEmpty = errors.New("message is empty")

// FrameWriter sends complete frames to a radio.
type FrameWriter struct {
	s  Sender
	mu sync.Mutex

	// Logging support (optional)
	logger    log.Logger
	sessionID string
	role      log.Role
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(s Sender) *FrameWriter {
	return &FrameWriter{s: s}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (fw *FrameWriter) SetLogger(logger log.Logger, sessionID string, role log.Role) {
	fw.logger = logger
	fw.sessionID = sessionID
	fw.role = role
}

// WriteFrame sends a frame to an address.
// Thread-safe: can be called from multiple goroutines.
func (fw *FrameWriter) WriteFrame(to Address, data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if err := fw.s.Send(to, data); err != nil {
		return fmt.Errorf("failed to send frame to %s: %w", to, err)
	}

	if fw.logger != nil {
		fw.logger.Log(makeFrameEvent(fw.sessionID, fw.role, to.String(), data, log.DirectionOut))
	}
	return nil
}

// FrameReader extracts frames from a byte source.
type FrameReader struct {
	r     io.Reader
	reasm *Reassembler
	chunk [ReadChunkSize]byte

	// Logging support (optional)
	logger    log.Logger
	sessionID string
	role      log.Role
}

// NewFrameReader creates a frame reader over r.
// A radio Receiver can be passed as ReceiveFunc(radio.Receive).
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:     r,
		reasm: NewReassembler(),
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (fr *FrameReader) SetLogger(logger log.Logger, sessionID string, role log.Role) {
	fr.logger = logger
	fr.sessionID = sessionID
	fr.role = role
}

// Reset discards buffered bytes.
func (fr *FrameReader) Reset() {
	fr.reasm.Reset()
}

// Buffered returns the number of bytes waiting for the rest of a frame.
func (fr *FrameReader) Buffered() int {
	return fr.reasm.Len()
}

// NextBuffered returns a complete frame that is already buffered, without
// reading from the source.
func (fr *FrameReader) NextBuffered() ([]byte, error) {
	buffered := fr.reasm.Len()
	frame, err := fr.reasm.Next()
	if err != nil && !errors.Is(err, ErrWaitingForData) {
		fr.logReassembly(err, buffered)
	}
	return frame, err
}

// ReadFrame returns the next complete frame.
//
// A frame already buffered is returned without reading. Otherwise one read
// is made from the source. ErrWaitingForData means no complete frame is
// available yet; the other reassembly signals report lost data.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	if buffered := fr.reasm.Len(); buffered > 0 {
		frame, err := fr.reasm.Next()
		if err == nil {
			return frame, nil
		}
		if !errors.Is(err, ErrWaitingForData) {
			fr.logReassembly(err, buffered)
			return nil, err
		}
	}

	n, readErr := fr.r.Read(fr.chunk[:])
	if n == 0 {
		if readErr != nil {
			return nil, readErr
		}
		return nil, ErrWaitingForData
	}

	if fr.logger != nil {
		fr.logger.Log(makeFrameEvent(fr.sessionID, fr.role, "", fr.chunk[:n], log.DirectionIn))
	}

	buffered := fr.reasm.Len()
	frame, err := fr.reasm.Feed(fr.chunk[:n])
	if err != nil {
		if !errors.Is(err, ErrWaitingForData) {
			dropped := buffered + n
			if errors.Is(err, ErrProtocolDataTooLarge) {
				dropped = n
			}
			fr.logReassembly(err, dropped)
		}
		if errors.Is(err, ErrWaitingForData) && readErr != nil {
			return nil, readErr
		}
		return nil, err
	}
	return frame, nil
}

func (fr *FrameReader) logReassembly(err error, dropped int) {
	if fr.logger == nil {
		return
	}

	var signal log.ReassemblySignal
	switch {
	case errors.Is(err, ErrAbandonMalformedData):
		signal = log.SignalAbandon
	case errors.Is(err, ErrBufferOverflow):
		signal = log.SignalOverflow
	case errors.Is(err, ErrProtocolDataTooLarge):
		signal = log.SignalTooLarge
	default:
		return
	}

	fr.logger.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  fr.sessionID,
		Direction:  log.DirectionIn,
		Layer:      log.LayerRadio,
		Category:   log.CategoryReassembly,
		LocalRole:  fr.role,
		Reassembly: &log.ReassemblyEvent{Signal: signal, Dropped: dropped},
	})
}

// makeFrameEvent creates a log event for raw radio bytes.
func makeFrameEvent(sessionID string, role log.Role, peer string, data []byte, direction log.Direction) log.Event {
	frameData := data
	truncated := false

	if len(data) > MaxLogFrameDataSize {
		frameData = data[:MaxLogFrameDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp:   time.Now(),
		SessionID:   sessionID,
		Direction:   direction,
		Layer:       log.LayerRadio,
		Category:    log.CategoryMessage,
		LocalRole:   role,
		PeerAddress: peer,
		Frame: &log.FrameEvent{
			Size:      len(data),
			Data:      append([]byte(nil), frameData...),
			Truncated: truncated,
		},
	}
}

// Framer combines frame reading and writing on one radio.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a framer for a radio.
func NewFramer(radio interface {
	Sender
	Receiver
}) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(ReceiveFunc(radio.Receive)),
		FrameWriter: NewFrameWriter(radio),
	}
}

// SetLogger configures logging for both reader and writer.
// Pass nil to disable logging.
func (f *Framer) SetLogger(logger log.Logger, sessionID string, role log.Role) {
	f.FrameReader.SetLogger(logger, sessionID, role)
	f.FrameWriter.SetLogger(logger, sessionID, role)
}
