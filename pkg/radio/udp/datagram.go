package udp

import (
	"errors"
	"fmt"

	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

const (
	// HeaderSize is the size of the to and from addresses.
	HeaderSize = 2 * transport.AddressSize

	// MaxDatagramSize bounds a datagram on the emulated air.
	MaxDatagramSize = 512

	// BroadcastChannel as the channel of a target reaches every channel.
	BroadcastChannel = 0xFF
)

// Control targets.
var (
	JoinAddress  = transport.Address{0xFE, 0xFE, 0xFE}
	LeaveAddress = transport.Address{0xFD, 0xFD, 0xFD}
)

var (
	ErrShortDatagram    = errors.New("datagram shorter than its header")
	ErrDatagramTooLarge = errors.New("datagram too large")
	ErrClosed           = errors.New("radio closed")
)

// Datagram is one transmission on the emulated air.
type Datagram struct {
	To      transport.Address
	From    transport.Address
	Payload []byte
}

// Marshal returns the wire form of the datagram.
func (d Datagram) Marshal() ([]byte, error) {
	if HeaderSize+len(d.Payload) > MaxDatagramSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrDatagramTooLarge, HeaderSize+len(d.Payload))
	}
	buf := make([]byte, 0, HeaderSize+len(d.Payload))
	buf = append(buf, d.To[:]...)
	buf = append(buf, d.From[:]...)
	return append(buf, d.Payload...), nil
}

// ParseDatagram decodes a datagram. The payload aliases b.
func ParseDatagram(b []byte) (Datagram, error) {
	if len(b) < HeaderSize {
		return Datagram{}, fmt.Errorf("%w: %d bytes", ErrShortDatagram, len(b))
	}
	var d Datagram
	copy(d.To[:], b[:transport.AddressSize])
	copy(d.From[:], b[transport.AddressSize:HeaderSize])
	d.Payload = b[HeaderSize:]
	return d, nil
}

// IsControl reports whether the datagram manages routes.
func (d Datagram) IsControl() bool {
	return d.To == JoinAddress || d.To == LeaveAddress
}

// Reaches reports whether a datagram sent to target is heard on addr.
func Reaches(target, addr transport.Address) bool {
	if target == addr {
		return true
	}
	return target.Channel() == BroadcastChannel &&
		target[0] == addr[0] && target[1] == addr[1]
}
