package gatewaysim

import (
	"github.com/mud-protocol/tuxp-go/pkg/lan"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// EventType identifies gateway events.
type EventType uint8

const (
	// EventIntroduced is emitted when an Allocation was sent.
	EventIntroduced EventType = iota

	// EventRefused is emitted when an Introduction is refused.
	EventRefused

	// EventAllocated is emitted when a thing acknowledged its Allocation.
	EventAllocated

	// EventConfigured is emitted when Configured was sent.
	EventConfigured

	// EventNotConfigured is emitted when NotConfigured was sent.
	EventNotConfigured

	// EventNotification is emitted for every LAN notification.
	EventNotification

	// EventReport is emitted for every LAN report.
	EventReport

	// EventAnswer is emitted for every answer to an execution.
	EventAnswer
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventIntroduced:
		return "INTRODUCED"
	case EventRefused:
		return "REFUSED"
	case EventAllocated:
		return "ALLOCATED"
	case EventConfigured:
		return "CONFIGURED"
	case EventNotConfigured:
		return "NOT_CONFIGURED"
	case EventNotification:
		return "NOTIFICATION"
	case EventReport:
		return "REPORT"
	case EventAnswer:
		return "ANSWER"
	default:
		return "UNKNOWN"
	}
}

// Event is a gateway event.
type Event struct {
	Type EventType

	// ThingID is set for DAC events.
	ThingID string

	// Address is the allocated address for DAC events.
	Address transport.Address

	// Envelope is set for notifications and reports.
	Envelope *lan.Envelope

	// Answer is set for answers.
	Answer *lan.Answer
}

// EventHandler handles gateway events.
type EventHandler func(Event)
