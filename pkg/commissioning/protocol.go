package commissioning

import (
	"fmt"

	"github.com/mud-protocol/tuxp-go/pkg/transport"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// ToProtocol builds the protocol for a DAC message.
func ToProtocol(msg interface{}) (*wire.Protocol, error) {
	switch m := msg.(type) {
	case *Introduction:
		p := wire.New(NameIntroduction)
		if err := p.AddChars(AttrThingID, m.ThingID); err != nil {
			return nil, err
		}
		if err := p.AddBytes(AttrClientAddress, m.ClientAddress.Bytes()); err != nil {
			return nil, err
		}
		if err := p.SetText(m.RegistrationCode); err != nil {
			return nil, err
		}
		return p, nil

	case *Allocation:
		p := wire.New(NameAllocation)
		if err := p.AddInt(AttrUplinkChannelBegin, m.UplinkChannelBegin); err != nil {
			return nil, err
		}
		if err := p.AddInt(AttrUplinkChannelEnd, m.UplinkChannelEnd); err != nil {
			return nil, err
		}
		if err := p.AddBytes(AttrUplinkAddress, []byte{m.UplinkAddressHigh, m.UplinkAddressLow}); err != nil {
			return nil, err
		}
		if err := p.AddBytes(AttrAllocatedAddress, m.Address.Bytes()); err != nil {
			return nil, err
		}
		return p, nil

	case *Allocated:
		p := wire.New(NameAllocated)
		if err := p.SetText(m.ThingID); err != nil {
			return nil, err
		}
		return p, nil

	case *Configured:
		return wire.New(NameConfigured), nil

	case *IsConfigured:
		p := wire.New(NameIsConfigured)
		if err := p.AddBytes(AttrClientAddress, m.ClientAddress.Bytes()); err != nil {
			return nil, err
		}
		if err := p.SetText(m.ThingID); err != nil {
			return nil, err
		}
		return p, nil

	case *NotConfigured:
		return wire.New(NameNotConfigured), nil

	default:
		return nil, fmt.Errorf("%w: unknown message type %T", ErrInvalidMessage, msg)
	}
}

// EncodeMessage serializes a DAC message to its frame.
func EncodeMessage(msg interface{}) ([]byte, error) {
	p, err := ToProtocol(msg)
	if err != nil {
		return nil, err
	}
	return wire.Marshal(p)
}

// DecodeMessage parses a frame into the matching DAC message type.
func DecodeMessage(frame []byte) (interface{}, error) {
	name, ok := wire.FrameName(frame)
	if !ok {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, wire.ErrNotValidProtocol)
	}

	// Configured and NotConfigured only count in their bare form.
	switch name {
	case NameConfigured:
		if !wire.IsBareProtocol(frame, name) {
			return nil, fmt.Errorf("%w: Configured is not bare", ErrInvalidMessage)
		}
		return &Configured{}, nil
	case NameNotConfigured:
		if !wire.IsBareProtocol(frame, name) {
			return nil, fmt.Errorf("%w: NotConfigured is not bare", ErrInvalidMessage)
		}
		return &NotConfigured{}, nil
	}

	p, err := wire.Parse(frame)
	if err != nil {
		return nil, err
	}
	return FromProtocol(p)
}

// FromProtocol converts a parsed protocol into the matching DAC message type.
func FromProtocol(p *wire.Protocol) (interface{}, error) {
	switch p.Name {
	case NameIntroduction:
		id, ok := p.Chars(AttrThingID)
		if !ok {
			return nil, fmt.Errorf("%w: Introduction without thing id", ErrInvalidMessage)
		}
		addr, err := addressAttribute(p, AttrClientAddress)
		if err != nil {
			return nil, err
		}
		code, _ := p.Text()
		return &Introduction{ThingID: id, ClientAddress: addr, RegistrationCode: code}, nil

	case NameAllocation:
		return ParseAllocation(p)

	case NameAllocated:
		id, ok := p.Text()
		if !ok {
			return nil, fmt.Errorf("%w: Allocated without thing id", ErrInvalidMessage)
		}
		return &Allocated{ThingID: id}, nil

	case NameConfigured:
		return &Configured{}, nil

	case NameIsConfigured:
		addr, err := addressAttribute(p, AttrClientAddress)
		if err != nil {
			return nil, err
		}
		id, ok := p.Text()
		if !ok {
			return nil, fmt.Errorf("%w: IsConfigured without thing id", ErrInvalidMessage)
		}
		return &IsConfigured{ClientAddress: addr, ThingID: id}, nil

	case NameNotConfigured:
		return &NotConfigured{}, nil

	default:
		return nil, fmt.Errorf("%w: protocol %s", ErrInvalidMessage, p.Name)
	}
}

// ParseAllocation extracts the allocation fields of an Allocation protocol.
func ParseAllocation(p *wire.Protocol) (*Allocation, error) {
	if p.Name != NameAllocation {
		return nil, fmt.Errorf("%w: protocol %s", ErrInvalidMessage, p.Name)
	}

	begin, ok := p.Int(AttrUplinkChannelBegin)
	if !ok {
		return nil, fmt.Errorf("%w: uplink channel begin", ErrLackOfAllocationParameters)
	}
	end, ok := p.Int(AttrUplinkChannelEnd)
	if !ok {
		return nil, fmt.Errorf("%w: uplink channel end", ErrLackOfAllocationParameters)
	}
	if begin < 0 || end > 0xFF || begin > end {
		return nil, fmt.Errorf("%w: %w: %d..%d", ErrLackOfAllocationParameters, ErrIllegalUplinkChannel, begin, end)
	}
	uplink, ok := p.Bytes(AttrUplinkAddress)
	if !ok || len(uplink) != UplinkAddressSize {
		return nil, fmt.Errorf("%w: uplink address", ErrLackOfAllocationParameters)
	}
	allocated, ok := p.Bytes(AttrAllocatedAddress)
	if !ok {
		return nil, fmt.Errorf("%w: allocated address", ErrLackOfAllocationParameters)
	}
	if len(allocated) != transport.AddressSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrIllegalAllocatedAddress, len(allocated))
	}

	addr, _ := transport.AddressFromBytes(allocated)
	return &Allocation{
		UplinkChannelBegin: begin,
		UplinkChannelEnd:   end,
		UplinkAddressHigh:  uplink[0],
		UplinkAddressLow:   uplink[1],
		Address:            addr,
	}, nil
}

func addressAttribute(p *wire.Protocol, name byte) (transport.Address, error) {
	b, ok := p.Bytes(name)
	if !ok {
		return transport.Address{}, fmt.Errorf("%w: missing address attribute 0x%02x", ErrInvalidMessage, name)
	}
	addr, err := transport.AddressFromBytes(b)
	if err != nil {
		return transport.Address{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return addr, nil
}
