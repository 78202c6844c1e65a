package wire

// Reserved wire bytes.
const (
	// Delimiter begins and ends every frame.
	Delimiter byte = 0xFF

	// UnitSeparator terminates an attribute value.
	UnitSeparator byte = 0xFE

	// EscapeMarker precedes a reserved byte carried as data.
	EscapeMarker byte = 0xFD

	// NoReplace prefixes a value whose escaped form is a single byte.
	NoReplace byte = 0xFC

	// BytesType marks a byte-sequence attribute value.
	BytesType byte = 0xFB

	// ByteType marks a single-byte attribute value.
	ByteType byte = 0xFA
)

// Size limits.
const (
	// MaxFrameSize is the maximum size of a serialized frame.
	MaxFrameSize = 64

	// MaxAttributeSize is the maximum unescaped size of an attribute value.
	MaxAttributeSize = 16

	// MaxEscapedAttributeSize is the largest escaped attribute value,
	// including a leading type marker.
	MaxEscapedAttributeSize = 2*MaxAttributeSize + 1

	// MaxTextSize is the maximum size of the text payload.
	MaxTextSize = 32

	// MaxAttributes is the maximum number of attributes per protocol.
	MaxAttributes = 8

	// BareFrameSize is the size of a frame that carries only a name.
	BareFrameSize = 5

	// EmptyFrameSize is the size of a frame with a zero attribute count and no text.
	EmptyFrameSize = 7
)

// Flag byte layout (frame offset 5).
const (
	// TextFlag signals a trailing text payload.
	TextFlag byte = 0x80

	// ChildCountMask selects the child element count. Children are not supported.
	ChildCountMask byte = 0x7F
)

// Frame offsets.
const (
	offsetNamespace0 = 1
	offsetNamespace1 = 2
	offsetLocal      = 3
	offsetCount      = 4
	offsetFlags      = 5
)

// isReserved reports whether b must be escaped inside a variable-length value.
// The no-replace marker is not escaped.
func isReserved(b byte) bool {
	switch b {
	case Delimiter, UnitSeparator, EscapeMarker, BytesType, ByteType:
		return true
	}
	return false
}

// isEscapable reports whether b may follow an escape marker.
func isEscapable(b byte) bool {
	return b >= ByteType
}
