package thing

import (
	"fmt"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// maxThingIDSize is the longest thing id an Introduction can carry.
const maxThingIDSize = wire.MaxAttributeSize

// doDac moves to the client address and sends the message of the current
// DAC state to the service.
func (t *Thing) doDac() error {
	if err := t.changeAddress(commissioning.ClientAddress, false); err != nil {
		return err
	}

	switch t.info.State {
	case commissioning.StateInitial:
		if err := t.introduce(); err != nil {
			return fmt.Errorf("%w: %w", ErrDacIntroduction, err)
		}
		return nil

	case commissioning.StateAllocated:
		msg := &commissioning.IsConfigured{
			ClientAddress: commissioning.ClientAddress,
			ThingID:       t.info.ThingID,
		}
		if err := t.sendDac(msg); err != nil {
			return fmt.Errorf("%w: %w", ErrDacIsConfigured, err)
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", ErrInvalidDacState, t.info.State)
	}
}

// introduce sends the Introduction and waits for an Allocation. The
// INTRODUCTING state is not persisted; a restart introduces again.
func (t *Thing) introduce() error {
	code, err := t.config.Identity.RegistrationCode()
	if err != nil {
		return fmt.Errorf("registration code: %w", err)
	}

	msg := &commissioning.Introduction{
		ThingID:          t.info.ThingID,
		ClientAddress:    commissioning.ClientAddress,
		RegistrationCode: code,
	}
	if err := t.sendDac(msg); err != nil {
		return err
	}

	next := t.info.Clone()
	next.State = commissioning.StateIntroducting
	t.setInfo(next)
	return nil
}

// sendDac encodes a DAC message and sends it to the service address.
func (t *Thing) sendDac(msg interface{}) error {
	frame, err := commissioning.EncodeMessage(msg)
	if err != nil {
		return err
	}
	return t.send(commissioning.ServiceAddress, frame)
}

// processDac applies a frame received while the thing is not operational.
func (t *Thing) processDac(frame []byte) error {
	switch t.info.State {
	case commissioning.StateIntroducting:
		if !wire.IsProtocol(frame, commissioning.NameAllocation) {
			return fmt.Errorf("%w: %s while %s", ErrNotSuitableDacProtocol, frameName(frame), t.info.State)
		}
		p, err := wire.Parse(frame)
		if err != nil {
			return err
		}
		if err := t.processAllocation(p); err != nil {
			return fmt.Errorf("%w: %w", ErrDacAllocation, err)
		}
		return nil

	case commissioning.StateAllocated:
		switch {
		case wire.IsBareProtocol(frame, commissioning.NameNotConfigured):
			return t.processNotConfigured()
		case wire.IsBareProtocol(frame, commissioning.NameConfigured):
			return t.processConfigured()
		default:
			return fmt.Errorf("%w: %s while %s", ErrNotSuitableDacProtocol, frameName(frame), t.info.State)
		}

	default:
		return fmt.Errorf("%w: %s", ErrInvalidDacState, t.info.State)
	}
}

// processAllocation stores the allocation and acknowledges it.
func (t *Thing) processAllocation(p *wire.Protocol) error {
	alloc, err := commissioning.ParseAllocation(p)
	if err != nil {
		return err
	}

	ack, err := commissioning.EncodeMessage(&commissioning.Allocated{ThingID: t.info.ThingID})
	if err != nil {
		return err
	}

	next := t.info.Clone()
	next.ApplyAllocation(alloc)
	next.State = commissioning.StateAllocated
	if err := t.save(next); err != nil {
		return err
	}
	t.debugLog("allocation accepted",
		"address", alloc.Address,
		"uplink_begin", alloc.UplinkChannelBegin,
		"uplink_end", alloc.UplinkChannelEnd)

	return t.send(commissioning.ServiceAddress, ack)
}

// processNotConfigured drops the allocation and restarts the device.
func (t *Thing) processNotConfigured() error {
	next := t.info.Clone()
	next.ClearAllocation()
	next.State = commissioning.StateInitial
	if err := t.save(next); err != nil {
		return err
	}

	t.debugLog("allocation refused, resetting")
	t.config.Resetter.Reset()
	return nil
}

// processConfigured moves to the allocated address and goes operational.
func (t *Thing) processConfigured() error {
	t.frames.Reset()

	if t.info.Address == nil {
		return fmt.Errorf("%w: ALLOCATED without an address", ErrInvalidDacState)
	}
	if err := t.changeAddress(*t.info.Address, true); err != nil {
		return err
	}
	if err := t.configureProtocols(); err != nil {
		return err
	}

	next := t.info.Clone()
	next.State = commissioning.StateConfigured
	if err := t.save(next); err != nil {
		return err
	}
	t.debugLog("thing is operational", "thing_id", t.info.ThingID, "address", t.current)
	return nil
}

func frameName(frame []byte) string {
	if name, ok := wire.FrameName(frame); ok {
		return name.String()
	}
	return fmt.Sprintf("% x", frame)
}
