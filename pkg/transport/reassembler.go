package transport

import (
	"errors"
	"fmt"

	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// Capacity is the size of the reassembly buffer.
const Capacity = 128

// Reassembly signals.
var (
	// ErrWaitingForData indicates no complete frame is buffered yet.
	ErrWaitingForData = errors.New("waiting for data")

	// ErrAbandonMalformedData indicates buffered bytes without a frame start.
	// The buffer has been cleared.
	ErrAbandonMalformedData = errors.New("abandoned malformed data")

	// ErrBufferOverflow indicates the buffer could not take the chunk.
	// The buffer has been cleared.
	ErrBufferOverflow = errors.New("reassembly buffer overflow")

	// ErrProtocolDataTooLarge indicates a single chunk larger than Capacity.
	ErrProtocolDataTooLarge = wire.ErrProtocolDataTooLarge
)

// Reassembler extracts delimited frames from a byte stream.
// It is not safe for concurrent use.
type Reassembler struct {
	buf [Capacity]byte
	n   int
}

// NewReassembler creates an empty reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Len returns the number of buffered bytes.
func (r *Reassembler) Len() int {
	return r.n
}

// Reset discards all buffered bytes.
func (r *Reassembler) Reset() {
	r.n = 0
}

// Feed appends a chunk and returns the first complete frame, if any.
// The returned frame is a copy and stays valid after further calls.
func (r *Reassembler) Feed(data []byte) ([]byte, error) {
	if len(data) > Capacity {
		return nil, fmt.Errorf("%w: chunk of %d bytes", ErrProtocolDataTooLarge, len(data))
	}
	if r.n+len(data) > Capacity {
		r.Reset()
		return nil, ErrBufferOverflow
	}
	r.n += copy(r.buf[r.n:], data)
	return r.Next()
}

// Next returns a further buffered frame without consuming new input.
func (r *Reassembler) Next() ([]byte, error) {
	if r.n == 0 {
		return nil, ErrWaitingForData
	}

	start := r.findStart()
	if start < 0 {
		if r.pendingStart() {
			// Keep a trailing delimiter, the rest of its frame is still in flight.
			r.buf[0] = wire.Delimiter
			r.n = 1
			return nil, ErrWaitingForData
		}
		r.Reset()
		return nil, ErrAbandonMalformedData
	}

	end := r.findEnd(start)
	if end < 0 {
		return nil, ErrWaitingForData
	}

	frame := make([]byte, end-start+1)
	copy(frame, r.buf[start:end+1])

	if end == r.n-1 {
		r.Reset()
	} else {
		r.n = copy(r.buf[:], r.buf[end+1:r.n])
	}
	return frame, nil
}

// findStart returns the index of the first unescaped delimiter that is not
// followed by another delimiter, or -1.
func (r *Reassembler) findStart() int {
	for i := 0; i < r.n-1; i++ {
		if r.buf[i] != wire.Delimiter || r.escaped(i) {
			continue
		}
		if r.buf[i+1] == wire.Delimiter {
			continue
		}
		return i
	}
	return -1
}

// findEnd returns the index of the first unescaped delimiter after start, or -1.
func (r *Reassembler) findEnd(start int) int {
	for i := start + 1; i < r.n; i++ {
		if r.buf[i] == wire.Delimiter && !r.escaped(i) {
			return i
		}
	}
	return -1
}

// pendingStart reports whether the buffer ends in an unescaped delimiter.
func (r *Reassembler) pendingStart() bool {
	last := r.n - 1
	return r.buf[last] == wire.Delimiter && !r.escaped(last)
}

// escaped reports whether the byte at i is preceded by an odd run of escape markers.
func (r *Reassembler) escaped(i int) bool {
	run := 0
	for j := i - 1; j >= 0 && r.buf[j] == wire.EscapeMarker; j-- {
		run++
	}
	return run%2 == 1
}
