package main

import (
	"context"
	"log"

	"github.com/mud-protocol/tuxp-go/pkg/thing"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// Demo protocols of the sample node.
var (
	ledAction    = wire.NewName(0xF7, 0x01, 0x00) // attr 01: 0 off, otherwise on
	ledQuery     = wire.NewName(0xF7, 0x01, 0x01) // answered by a ledState notification
	ledState     = wire.NewName(0xF7, 0x01, 0x02) // attr 01: 0 or 1
	consoleEvent = wire.NewName(0xF7, 0x02, 0x00) // text only
	uptimeData   = wire.NewName(0xF7, 0x03, 0x00) // attr 01: seconds since boot
)

const attrValue = 0x01

// Error codes answered by the led action.
const (
	codeOK           = 0
	codeMissingValue = 1
)

// registerDemo registers the demo handlers. It runs every time the thing
// becomes CONFIGURED, so earlier registrations are dropped first.
func (n *node) registerDemo(t *thing.Thing) error {
	t.UnregisterActionHandler(ledAction)
	t.UnregisterActionHandler(ledQuery)
	t.UnregisterDataHandler(uptimeData)

	t.RegisterActionHandler(ledAction, n.handleLED, false)
	t.RegisterActionHandler(ledQuery, n.handleLEDQuery, true)
	t.RegisterDataHandler(uptimeData, n.fillUptime, n.config.UptimeInterval)
	return nil
}

// handleLED switches the led.
func (n *node) handleLED(action *wire.Protocol) int {
	v, ok := action.Int(attrValue)
	if !ok {
		return codeMissingValue
	}
	n.led = v != 0
	log.Printf("LED %s", onOff(n.led))
	return codeOK
}

// handleLEDQuery reports the led state as a notification. Queries send no
// answer of their own.
func (n *node) handleLEDQuery(*wire.Protocol) int {
	event := wire.New(ledState)
	state := 0
	if n.led {
		state = 1
	}
	if err := event.AddInt(attrValue, state); err != nil {
		return codeMissingValue
	}
	id, err := n.requestID()
	if err == nil {
		err = n.thing.Notify(context.Background(), id, event)
	}
	if err != nil {
		n.warnLog("led state notification failed", "error", err)
	}
	return codeOK
}

// fillUptime is the data handler of uptimeData.
func (n *node) fillUptime(data *wire.Protocol) error {
	seconds := (n.clock.Milliseconds() - n.bootedAt) / 1000
	return data.AddInt(attrValue, int(seconds))
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
