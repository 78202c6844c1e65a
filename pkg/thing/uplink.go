package thing

import (
	"context"
	"fmt"

	"github.com/mud-protocol/tuxp-go/pkg/lan"
	"github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/tinyid"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// chooseUplink picks the address answers, notifications and reports go to.
// With a channel range, the channel is drawn uniformly from [begin, end].
func (t *Thing) chooseUplink() transport.Address {
	begin, end := t.info.UplinkChannelBegin, t.info.UplinkChannelEnd
	channel := begin
	if end > begin {
		channel = begin + t.config.IntN(end-begin+1)
	}
	return transport.Address{t.info.UplinkAddressHigh, t.info.UplinkAddressLow, byte(channel)}
}

// Notify sends an event to the uplink.
func (t *Thing) Notify(ctx context.Context, id tinyid.ID, event *wire.Protocol) error {
	return t.sendEnvelope(ctx, id, event, lan.MarshalNotification, false)
}

// NotifyWithAck sends an event that asks the gateway for an acknowledgement.
func (t *Thing) NotifyWithAck(ctx context.Context, id tinyid.ID, event *wire.Protocol) error {
	return t.sendEnvelope(ctx, id, event, lan.MarshalNotification, true)
}

// Report sends data to the uplink.
func (t *Thing) Report(ctx context.Context, id tinyid.ID, data *wire.Protocol) error {
	return t.sendEnvelope(ctx, id, data, lan.MarshalReport, false)
}

// ReportWithAck sends data that asks the gateway for an acknowledgement.
func (t *Thing) ReportWithAck(ctx context.Context, id tinyid.ID, data *wire.Protocol) error {
	return t.sendEnvelope(ctx, id, data, lan.MarshalReport, true)
}

type envelopeMarshaler func(id tinyid.ID, p *wire.Protocol, ackRequired bool) ([]byte, error)

func (t *Thing) sendEnvelope(ctx context.Context, id tinyid.ID, p *wire.Protocol, marshal envelopeMarshaler, ack bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.IsOperational() {
		return ErrNotAThingYet
	}

	frame, err := marshal(id, p, ack)
	if err != nil {
		return fmt.Errorf("envelope %s: %w", p.Name, err)
	}
	return t.send(t.chooseUplink(), frame)
}

// send writes a frame to the radio and logs it.
func (t *Thing) send(to transport.Address, frame []byte) error {
	if err := t.sender.WriteFrame(to, frame); err != nil {
		return err
	}
	t.logMessage(log.DirectionOut, to.String(), frame)
	return nil
}
