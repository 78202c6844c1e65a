package commissioning

import (
	"errors"

	"github.com/mud-protocol/tuxp-go/pkg/transport"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// DAC protocol names.
var (
	NameIntroduction  = wire.NewName(0xF8, 0x03, 0x00)
	NameAllocation    = wire.NewName(0xF8, 0x03, 0x03)
	NameAllocated     = wire.NewName(0xF8, 0x03, 0x08)
	NameConfigured    = wire.NewName(0xF8, 0x03, 0x09)
	NameIsConfigured  = wire.NewName(0xF8, 0x03, 0x0A)
	NameNotConfigured = wire.NewName(0xF8, 0x03, 0x0B)
)

// DAC attribute names.
const (
	// AttrThingID carries the thing id in an Introduction.
	AttrThingID byte = 0x01

	// AttrClientAddress carries the address the thing is listening on.
	AttrClientAddress byte = 0x02

	// AttrUplinkChannelBegin is the first uplink channel of an Allocation.
	AttrUplinkChannelBegin byte = 0x04

	// AttrUplinkChannelEnd is the last uplink channel of an Allocation.
	AttrUplinkChannelEnd byte = 0x05

	// AttrUplinkAddress is the two address bytes of the uplink.
	AttrUplinkAddress byte = 0x06

	// AttrAllocatedAddress is the radio address allocated to the thing.
	AttrAllocatedAddress byte = 0x07
)

// Well-known radio addresses.
var (
	// ServiceAddress is where the DAC service listens.
	ServiceAddress = transport.Address{0xEF, 0xEF, 0x1F}

	// ClientAddress is where unconfigured things listen.
	ClientAddress = transport.Address{0xEF, 0xEE, 0x1F}

	// DefaultAddress is the factory address of a radio module.
	DefaultAddress = transport.Address{0x00, 0x00, 0xFF}
)

// UplinkAddressSize is the size of the uplink address attribute.
const UplinkAddressSize = 2

// Message errors.
var (
	// ErrInvalidMessage indicates a frame that is not a well-formed DAC message.
	ErrInvalidMessage = errors.New("invalid DAC message")

	// ErrLackOfAllocationParameters indicates an Allocation missing a field.
	ErrLackOfAllocationParameters = errors.New("lack of allocation parameters")

	// ErrIllegalAllocatedAddress indicates an allocated address of the wrong width.
	ErrIllegalAllocatedAddress = errors.New("illegal allocated address")

	// ErrIllegalUplinkChannel indicates an uplink channel range that does
	// not fit a radio channel byte.
	ErrIllegalUplinkChannel = errors.New("illegal uplink channel")
)

// Introduction announces a thing to the DAC service.
type Introduction struct {
	ThingID          string
	ClientAddress    transport.Address
	RegistrationCode string
}

// Allocation assigns a radio address and uplink to a thing.
type Allocation struct {
	UplinkChannelBegin int
	UplinkChannelEnd   int
	UplinkAddressHigh  byte
	UplinkAddressLow   byte
	Address            transport.Address
}

// Allocated acknowledges an Allocation.
type Allocated struct {
	ThingID string
}

// Configured tells an allocated thing to move to its address.
type Configured struct{}

// IsConfigured asks the DAC service whether the allocation was confirmed.
type IsConfigured struct {
	ClientAddress transport.Address
	ThingID       string
}

// NotConfigured tells an allocated thing to start over.
type NotConfigured struct{}
