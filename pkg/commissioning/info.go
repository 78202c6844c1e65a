package commissioning

import (
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// Unset allocation values.
const (
	NoUplinkChannel     = -1
	NoUplinkAddressByte = 0xFF
)

// ThingInfo is the commissioning record a thing persists across restarts.
type ThingInfo struct {
	ThingID            string
	State              DacState
	UplinkChannelBegin int
	UplinkChannelEnd   int
	UplinkAddressHigh  byte
	UplinkAddressLow   byte

	// Address is the allocated radio address, nil until allocated.
	Address *transport.Address
}

// NewThingInfo returns the record of a fresh device.
func NewThingInfo() *ThingInfo {
	info := &ThingInfo{}
	info.ClearAllocation()
	return info
}

// ClearAllocation drops the allocation fields.
func (i *ThingInfo) ClearAllocation() {
	i.UplinkChannelBegin = NoUplinkChannel
	i.UplinkChannelEnd = NoUplinkChannel
	i.UplinkAddressHigh = NoUplinkAddressByte
	i.UplinkAddressLow = NoUplinkAddressByte
	i.Address = nil
}

// ApplyAllocation copies the allocation fields of a.
func (i *ThingInfo) ApplyAllocation(a *Allocation) {
	i.UplinkChannelBegin = a.UplinkChannelBegin
	i.UplinkChannelEnd = a.UplinkChannelEnd
	i.UplinkAddressHigh = a.UplinkAddressHigh
	i.UplinkAddressLow = a.UplinkAddressLow
	addr := a.Address
	i.Address = &addr
}

// Allocation returns the allocation fields, or nil if there is no address.
func (i *ThingInfo) Allocation() *Allocation {
	if i.Address == nil {
		return nil
	}
	return &Allocation{
		UplinkChannelBegin: i.UplinkChannelBegin,
		UplinkChannelEnd:   i.UplinkChannelEnd,
		UplinkAddressHigh:  i.UplinkAddressHigh,
		UplinkAddressLow:   i.UplinkAddressLow,
		Address:            *i.Address,
	}
}

// Clone returns a deep copy.
func (i *ThingInfo) Clone() *ThingInfo {
	if i == nil {
		return nil
	}
	c := *i
	if i.Address != nil {
		addr := *i.Address
		c.Address = &addr
	}
	return &c
}
