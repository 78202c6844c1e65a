package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one run of a thing or gateway runtime (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this is a thing or a gateway.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// PeerAddress is the radio address of the peer as hex.
	PeerAddress string `cbor:"7,keyasint,omitempty"`

	// ThingID is the thing identifier once one is known.
	ThingID string `cbor:"8,keyasint,omitempty"`

	// LanID is the thing's LAN id once it is addressed.
	LanID *uint8 `cbor:"9,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Radio layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // DAC state
	Reassembly  *ReassemblyEvent  `cbor:"13,keyasint,omitempty"` // Stream reassembly
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerRadio is the byte stream to and from the radio.
	LayerRadio Layer = 0
	// LayerWire is the protocol and envelope encoding layer.
	LayerWire Layer = 1
	// LayerThing is the commissioning and dispatch runtime.
	LayerThing Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerRadio:
		return "RADIO"
	case LayerWire:
		return "WIRE"
	case LayerThing:
		return "THING"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a frame or decoded protocol.
	CategoryMessage Category = 0
	// CategoryReassembly indicates a reassembly signal.
	CategoryReassembly Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryReassembly:
		return "REASSEMBLY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local endpoint is a thing or a gateway.
type Role uint8

const (
	// RoleThing indicates a thing node.
	RoleThing Role = 0
	// RoleGateway indicates a gateway or DAC service.
	RoleGateway Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleThing:
		return "THING"
	case RoleGateway:
		return "GATEWAY"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw bytes at the radio layer.
type FrameEvent struct {
	// Size is the number of bytes sent or received.
	Size int `cbor:"1,keyasint"`

	// Data is the raw bytes (may be truncated).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded protocol or LAN envelope.
type MessageEvent struct {
	// Kind is the envelope kind, or MessageKindProtocol for plain frames.
	Kind MessageKind `cbor:"1,keyasint"`

	// Protocol is the protocol name as "ns0ns1:local" hex.
	Protocol string `cbor:"2,keyasint"`

	// TinyID is the correlation id of LAN envelopes.
	TinyID []byte `cbor:"3,keyasint,omitempty"`

	// ErrorCode is the code carried by an Error answer.
	ErrorCode *int `cbor:"4,keyasint,omitempty"`

	// Attributes is the number of attributes of the protocol.
	Attributes int `cbor:"5,keyasint,omitempty"`

	// Text is the text payload, if any.
	Text string `cbor:"6,keyasint,omitempty"`

	// AckRequired marks notifications and reports that request an ack.
	AckRequired bool `cbor:"7,keyasint,omitempty"`

	// HandlerTime is how long the action handler ran (answers only).
	// Stored as nanoseconds.
	HandlerTime *time.Duration `cbor:"8,keyasint,omitempty"`
}

// MessageKind distinguishes plain protocols from LAN envelopes.
type MessageKind uint8

const (
	// MessageKindProtocol is a plain protocol frame such as a DAC message.
	MessageKindProtocol MessageKind = 0
	// MessageKindExecution is a LAN execution.
	MessageKindExecution MessageKind = 1
	// MessageKindNotification is a LAN notification.
	MessageKindNotification MessageKind = 2
	// MessageKindReport is a LAN report.
	MessageKindReport MessageKind = 3
	// MessageKindResponse is a LAN response answer.
	MessageKindResponse MessageKind = 4
	// MessageKindError is a LAN error answer.
	MessageKindError MessageKind = 5
)

// String returns the message kind name.
func (m MessageKind) String() string {
	switch m {
	case MessageKindProtocol:
		return "PROTOCOL"
	case MessageKindExecution:
		return "EXECUTION"
	case MessageKindNotification:
		return "NOTIFICATION"
	case MessageKindReport:
		return "REPORT"
	case MessageKindResponse:
		return "RESPONSE"
	case MessageKindError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures commissioning lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityDac indicates a DAC state change.
	StateEntityDac StateEntity = 0
	// StateEntityAddress indicates a radio address change.
	StateEntityAddress StateEntity = 1
	// StateEntityRadio indicates a radio initialization or configuration.
	StateEntityRadio StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityDac:
		return "DAC"
	case StateEntityAddress:
		return "ADDRESS"
	case StateEntityRadio:
		return "RADIO"
	default:
		return "UNKNOWN"
	}
}

// ReassemblyEvent captures data loss while extracting frames from the
// radio byte stream.
type ReassemblyEvent struct {
	// Signal is what the reassembler reported.
	Signal ReassemblySignal `cbor:"1,keyasint"`

	// Dropped is the number of buffered bytes that were discarded.
	Dropped int `cbor:"2,keyasint,omitempty"`
}

// ReassemblySignal indicates the reassembly outcome.
type ReassemblySignal uint8

const (
	// SignalAbandon indicates buffered bytes without a frame start.
	SignalAbandon ReassemblySignal = 0
	// SignalOverflow indicates the accumulator filled up.
	SignalOverflow ReassemblySignal = 1
	// SignalTooLarge indicates a single chunk larger than the accumulator.
	SignalTooLarge ReassemblySignal = 2
)

// String returns the signal name.
func (s ReassemblySignal) String() string {
	switch s {
	case SignalAbandon:
		return "ABANDON"
	case SignalOverflow:
		return "OVERFLOW"
	case SignalTooLarge:
		return "TOO_LARGE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
