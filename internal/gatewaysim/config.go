package gatewaysim

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// Gateway errors.
var (
	ErrInvalidConfig        = errors.New("invalid gateway config")
	ErrAddressPoolExhausted = errors.New("address pool exhausted")
	ErrUnknownThing         = errors.New("unknown thing")
	ErrRegistrationRefused  = errors.New("registration code refused")
	ErrUnexpectedFrame      = errors.New("unexpected frame")
	ErrNotAllocated         = errors.New("thing is not allocated")
)

// Link is the radio the gateway talks through.
type Link interface {
	transport.Sender
	transport.Receiver
}

// Config configures a Gateway.
type Config struct {
	// Link sends and receives frames. It must receive frames sent to the
	// DAC service address and to every uplink address.
	Link Link

	// UplinkAddressHigh and UplinkAddressLow are the first two bytes of
	// the uplink addresses things answer to.
	UplinkAddressHigh byte
	UplinkAddressLow  byte

	// UplinkChannelBegin and UplinkChannelEnd bound the uplink channels.
	UplinkChannelBegin int
	UplinkChannelEnd   int

	// AddressHigh and Channel are the first and last byte of allocated
	// addresses. The middle byte is the LAN id.
	AddressHigh byte
	Channel     byte

	// FirstLanID is the LAN id handed to the first thing.
	FirstLanID byte

	// RegistrationCodes maps thing ids to the registration code they must
	// present. Nil accepts any code.
	RegistrationCodes map[string]string

	// AutoConfigure sends Configured as soon as an Allocation is
	// acknowledged.
	AutoConfigure bool

	// Approve decides the answer to IsConfigured. Nil approves every
	// allocated thing.
	Approve func(thingID string) bool

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// ProtocolLogger captures structured protocol events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with the addressing plan of the reference
// gateway. Link still has to be set.
func DefaultConfig() Config {
	return Config{
		UplinkAddressHigh:  0x00,
		UplinkAddressLow:   0x00,
		UplinkChannelBegin: 0x17,
		UplinkChannelEnd:   0x17,
		AddressHigh:        0x00,
		Channel:            0x17,
		FirstLanID:         0x01,
		AutoConfigure:      true,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Link == nil {
		return fmt.Errorf("%w: link is required", ErrInvalidConfig)
	}
	if c.UplinkChannelBegin < 0 || c.UplinkChannelEnd > 0xFF || c.UplinkChannelBegin > c.UplinkChannelEnd {
		return fmt.Errorf("%w: uplink channels %d..%d", ErrInvalidConfig, c.UplinkChannelBegin, c.UplinkChannelEnd)
	}
	if c.UplinkAddressHigh == wire.NoReplace {
		// A two-byte value led by NoReplace cannot be carried in an Allocation.
		return fmt.Errorf("%w: uplink address high byte 0x%02x", ErrInvalidConfig, c.UplinkAddressHigh)
	}
	if c.FirstLanID == 0xFF {
		return fmt.Errorf("%w: first LAN id 0xff", ErrInvalidConfig)
	}
	return nil
}

// UplinkAddresses returns every address a thing may answer to.
func (c *Config) UplinkAddresses() []transport.Address {
	addrs := make([]transport.Address, 0, c.UplinkChannelEnd-c.UplinkChannelBegin+1)
	for ch := c.UplinkChannelBegin; ch <= c.UplinkChannelEnd; ch++ {
		addrs = append(addrs, transport.Address{c.UplinkAddressHigh, c.UplinkAddressLow, byte(ch)})
	}
	return addrs
}
