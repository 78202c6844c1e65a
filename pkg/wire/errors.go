package wire

import "errors"

// Codec errors.
var (
	// ErrNotValidProtocol indicates the data is not a delimited frame.
	ErrNotValidProtocol = errors.New("not a valid protocol frame")

	// ErrMalformedData indicates a frame whose structure cannot be parsed.
	ErrMalformedData = errors.New("malformed protocol data")

	// ErrFeatureNotImplemented indicates a frame declaring child elements.
	ErrFeatureNotImplemented = errors.New("child elements not implemented")

	// ErrAttributeTooLarge indicates an attribute value over MaxAttributeSize.
	ErrAttributeTooLarge = errors.New("attribute data too large")

	// ErrAmbiguousValue indicates a two-byte value led by NoReplace, which
	// reads back as a wrapped single byte.
	ErrAmbiguousValue = errors.New("ambiguous attribute value")

	// ErrTextTooLarge indicates a text payload over MaxTextSize.
	ErrTextTooLarge = errors.New("text data too large")

	// ErrTooManyAttributes indicates more than MaxAttributes attributes.
	ErrTooManyAttributes = errors.New("too many attributes")

	// ErrProtocolDataTooLarge indicates a frame over MaxFrameSize.
	ErrProtocolDataTooLarge = errors.New("protocol data too large")

	// ErrProtocolChangeClosed indicates a change to a protocol whose text is set.
	ErrProtocolChangeClosed = errors.New("protocol change closed")
)
