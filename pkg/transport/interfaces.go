package transport

import (
	"encoding/hex"
	"fmt"
)

// AddressSize is the size of a radio address in bytes.
const AddressSize = 3

// Address is a radio address: two address bytes followed by the channel.
// The second byte doubles as the LAN id of an addressed thing.
type Address [AddressSize]byte

// AddressFromBytes copies an address out of b.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, fmt.Errorf("address of %d bytes", len(b))
	}
	copy(a[:], b)
	return a, nil
}

// LanID returns the LAN id carried by the address.
func (a Address) LanID() byte {
	return a[1]
}

// Channel returns the radio channel.
func (a Address) Channel() byte {
	return a[2]
}

// Bytes returns the address as a slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// String returns the address as hex.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("address %q: %w", text, err)
	}
	addr, err := AddressFromBytes(b)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// ParseAddress parses a hex address such as "efef1f".
func ParseAddress(s string) (Address, error) {
	var a Address
	err := a.UnmarshalText([]byte(s))
	return a, err
}

// Sender delivers a complete frame to a radio address.
type Sender interface {
	Send(to Address, data []byte) error
}

// Receiver reads whatever bytes the radio has buffered.
// It returns 0 and a nil error when nothing is available.
type Receiver interface {
	Receive(buf []byte) (int, error)
}

// Radio is the capability the thing runtime drives.
type Radio interface {
	Sender
	Receiver

	// Initialize brings the radio up and returns its current address.
	Initialize() (Address, error)

	// Configure puts the radio into point to point mode.
	Configure() error

	// ChangeAddress moves the radio to addr. When persist is set the address
	// survives a power cycle of the radio module.
	ChangeAddress(addr Address, persist bool) error
}

// ReceiveFunc adapts a Receive method to io.Reader.
type ReceiveFunc func(buf []byte) (int, error)

// Read implements io.Reader.
func (f ReceiveFunc) Read(p []byte) (int, error) {
	return f(p)
}

// FrameReadWriter provides frame I/O on a radio.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame returns the next complete frame.
	ReadFrame() ([]byte, error)

	// WriteFrame sends a frame to an address.
	WriteFrame(to Address, data []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ FrameReadWriter = (*Framer)(nil)
)
