package commissioning_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

func introductionFrame() []byte {
	frame := []byte{0xFF, 0xF8, 0x03, 0x00, 0x02, 0x80, 0x01}
	frame = append(frame, "SL-LE01-C980AFE"...)
	frame = append(frame, 0xFE, 0x02, 0xFB, 0xEF, 0xEE, 0x1F, 0xFE)
	frame = append(frame, "1234567890AB"...)
	return append(frame, 0xFF)
}

// TestEncodeIntroduction verifies the exact bytes a thing sends to the DAC service.
func TestEncodeIntroduction(t *testing.T) {
	got, err := commissioning.EncodeMessage(&commissioning.Introduction{
		ThingID:          "SL-LE01-C980AFE",
		ClientAddress:    commissioning.ClientAddress,
		RegistrationCode: "1234567890AB",
	})
	if err != nil {
		t.Fatalf("EncodeMessage failed: %v", err)
	}
	if want := introductionFrame(); !bytes.Equal(got, want) {
		t.Errorf("Introduction =\n%x\nwant\n%x", got, want)
	}
}

// TestEncodeBareMessages verifies Configured and NotConfigured are bare frames.
func TestEncodeBareMessages(t *testing.T) {
	tests := []struct {
		name string
		msg  interface{}
		want []byte
	}{
		{"configured", &commissioning.Configured{}, []byte{0xFF, 0xF8, 0x03, 0x09, 0xFF}},
		{"not configured", &commissioning.NotConfigured{}, []byte{0xFF, 0xF8, 0x03, 0x0B, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := commissioning.EncodeMessage(tt.msg)
			if err != nil {
				t.Fatalf("EncodeMessage failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %x, want %x", got, tt.want)
			}
		})
	}
}

// TestMessageRoundTrip verifies every DAC message decodes to what was encoded.
func TestMessageRoundTrip(t *testing.T) {
	addr := transport.Address{0x00, 0x2A, 0x1F}
	tests := []struct {
		name string
		msg  interface{}
	}{
		{"introduction", &commissioning.Introduction{ThingID: "SL-LE01-C980AFE", ClientAddress: commissioning.ClientAddress, RegistrationCode: "abc"}},
		{"allocation", &commissioning.Allocation{UplinkChannelBegin: 31, UplinkChannelEnd: 35, UplinkAddressHigh: 0xEF, UplinkAddressLow: 0xED, Address: addr}},
		{"allocation single channel", &commissioning.Allocation{UplinkChannelBegin: 7, UplinkChannelEnd: 7, UplinkAddressHigh: 0x00, UplinkAddressLow: 0xFF, Address: transport.Address{0xFF, 0xFE, 0xFD}}},
		{"allocated", &commissioning.Allocated{ThingID: "SL-LE01-C980AFE"}},
		{"configured", &commissioning.Configured{}},
		{"is configured", &commissioning.IsConfigured{ClientAddress: commissioning.ClientAddress, ThingID: "SL-LE01-C980AFE"}},
		{"not configured", &commissioning.NotConfigured{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := commissioning.EncodeMessage(tt.msg)
			if err != nil {
				t.Fatalf("EncodeMessage failed: %v", err)
			}
			got, err := commissioning.DecodeMessage(frame)
			if err != nil {
				t.Fatalf("DecodeMessage failed: %v", err)
			}
			if !equalMessages(got, tt.msg) {
				t.Errorf("round trip = %#v, want %#v", got, tt.msg)
			}
		})
	}
}

func equalMessages(a, b interface{}) bool {
	switch x := a.(type) {
	case *commissioning.Introduction:
		y, ok := b.(*commissioning.Introduction)
		return ok && *x == *y
	case *commissioning.Allocation:
		y, ok := b.(*commissioning.Allocation)
		return ok && *x == *y
	case *commissioning.Allocated:
		y, ok := b.(*commissioning.Allocated)
		return ok && *x == *y
	case *commissioning.IsConfigured:
		y, ok := b.(*commissioning.IsConfigured)
		return ok && *x == *y
	case *commissioning.Configured:
		_, ok := b.(*commissioning.Configured)
		return ok
	case *commissioning.NotConfigured:
		_, ok := b.(*commissioning.NotConfigured)
		return ok
	}
	return false
}

// TestParseAllocationErrors verifies missing and malformed allocation fields.
func TestParseAllocationErrors(t *testing.T) {
	build := func(skip byte, allocated []byte, uplink []byte) *wire.Protocol {
		p := wire.New(commissioning.NameAllocation)
		if skip != commissioning.AttrUplinkChannelBegin {
			_ = p.AddInt(commissioning.AttrUplinkChannelBegin, 1)
		}
		if skip != commissioning.AttrUplinkChannelEnd {
			_ = p.AddInt(commissioning.AttrUplinkChannelEnd, 3)
		}
		if skip != commissioning.AttrUplinkAddress {
			_ = p.AddBytes(commissioning.AttrUplinkAddress, uplink)
		}
		if skip != commissioning.AttrAllocatedAddress {
			_ = p.AddBytes(commissioning.AttrAllocatedAddress, allocated)
		}
		return p
	}

	good := []byte{0x00, 0x05, 0x1F}
	uplink := []byte{0xEF, 0xED}

	tests := []struct {
		name string
		p    *wire.Protocol
		want error
	}{
		{"no begin", build(commissioning.AttrUplinkChannelBegin, good, uplink), commissioning.ErrLackOfAllocationParameters},
		{"no end", build(commissioning.AttrUplinkChannelEnd, good, uplink), commissioning.ErrLackOfAllocationParameters},
		{"no uplink", build(commissioning.AttrUplinkAddress, good, uplink), commissioning.ErrLackOfAllocationParameters},
		{"short uplink", build(0, good, []byte{0xEF}), commissioning.ErrLackOfAllocationParameters},
		{"no address", build(commissioning.AttrAllocatedAddress, good, uplink), commissioning.ErrLackOfAllocationParameters},
		{"short address", build(0, []byte{0x00, 0x05}, uplink), commissioning.ErrIllegalAllocatedAddress},
		{"long address", build(0, []byte{0x00, 0x05, 0x1F, 0x00}, uplink), commissioning.ErrIllegalAllocatedAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := commissioning.ParseAllocation(tt.p)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseAllocation error = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestParseAllocationUplinkChannels verifies the uplink channel range
// must fit a radio channel byte.
func TestParseAllocationUplinkChannels(t *testing.T) {
	build := func(begin, end int) *wire.Protocol {
		p := wire.New(commissioning.NameAllocation)
		require.NoError(t, p.AddInt(commissioning.AttrUplinkChannelBegin, begin))
		require.NoError(t, p.AddInt(commissioning.AttrUplinkChannelEnd, end))
		require.NoError(t, p.AddBytes(commissioning.AttrUplinkAddress, []byte{0xEF, 0xED}))
		require.NoError(t, p.AddBytes(commissioning.AttrAllocatedAddress, []byte{0x00, 0x05, 0x1F}))
		return p
	}

	tests := []struct {
		name       string
		begin, end int
		valid      bool
	}{
		{"single channel", 0x17, 0x17, true},
		{"range", 0x10, 0x1F, true},
		{"full byte", 0x00, 0xFF, true},
		{"begin above byte", 300, 300, false},
		{"end above byte", 0x10, 256, false},
		{"negative begin", -1, 0x10, false},
		{"negative end", 0x00, -1, false},
		{"begin after end", 0x20, 0x10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc, err := commissioning.ParseAllocation(build(tt.begin, tt.end))
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.begin, alloc.UplinkChannelBegin)
				assert.Equal(t, tt.end, alloc.UplinkChannelEnd)
				return
			}
			assert.ErrorIs(t, err, commissioning.ErrIllegalUplinkChannel)
			assert.ErrorIs(t, err, commissioning.ErrLackOfAllocationParameters)
			assert.Nil(t, alloc)
		})
	}
}

// TestAllocationWithAmbiguousUplink verifies an uplink address that would
// read back as one byte is refused instead of sent.
func TestAllocationWithAmbiguousUplink(t *testing.T) {
	alloc := &commissioning.Allocation{
		UplinkChannelBegin: 0x17,
		UplinkChannelEnd:   0x17,
		UplinkAddressHigh:  0xFC,
		UplinkAddressLow:   0x10,
		Address:            transport.Address{0x00, 0x05, 0x1F},
	}
	_, err := commissioning.EncodeMessage(alloc)
	assert.ErrorIs(t, err, wire.ErrAmbiguousValue)

	alloc.UplinkAddressHigh, alloc.UplinkAddressLow = 0x10, 0xFC
	frame, err := commissioning.EncodeMessage(alloc)
	require.NoError(t, err)
	msg, err := commissioning.DecodeMessage(frame)
	require.NoError(t, err)
	assert.Equal(t, alloc, msg)
}

// TestDecodeMessageErrors verifies frames that are not DAC messages.
func TestDecodeMessageErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"not a frame", []byte{0x01, 0x02}},
		{"other namespace", []byte{0xFF, 0xF7, 0x01, 0x00, 0xFF}},
		{"configured with attributes", []byte{0xFF, 0xF8, 0x03, 0x09, 0x00, 0x00, 0xFF}},
		{"allocated without text", []byte{0xFF, 0xF8, 0x03, 0x08, 0x00, 0x00, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := commissioning.DecodeMessage(tt.frame); !errors.Is(err, commissioning.ErrInvalidMessage) {
				t.Errorf("DecodeMessage error = %v, want ErrInvalidMessage", err)
			}
		})
	}

	if _, err := commissioning.EncodeMessage("hello"); !errors.Is(err, commissioning.ErrInvalidMessage) {
		t.Errorf("EncodeMessage error = %v, want ErrInvalidMessage", err)
	}
}
