package wire

import "fmt"

// Escape byte-stuffs an attribute value. Every reserved byte is preceded by
// EscapeMarker. An escaped result of exactly one byte is prefixed with
// NoReplace so a reader cannot mistake it for the start of a typed value.
// A two-byte value led by NoReplace is rejected with ErrAmbiguousValue.
func Escape(data []byte) ([]byte, error) {
	if len(data) > MaxAttributeSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrAttributeTooLarge, len(data), MaxAttributeSize)
	}
	if ambiguous(data) {
		return nil, fmt.Errorf("%w: %x", ErrAmbiguousValue, data)
	}

	out := stuff(data)
	if len(out) == 1 {
		return []byte{NoReplace, out[0]}, nil
	}
	return out, nil
}

// Unescape reverses Escape.
//
// Escaped reserved bytes are collapsed first. A result of one byte is
// returned as is. A leading literal BytesType marker is stripped, and the
// NoReplace wrapping of a one-byte payload behind it is removed. A two-byte
// result led by a literal ByteType or NoReplace marker collapses to its
// trailing byte. Anything else is returned unchanged.
//
// Markers are only honoured when they appear unescaped in data, so
// Unescape(Escape(x)) == x for every x Escape accepts.
func Unescape(data []byte) ([]byte, error) {
	if len(data) > MaxEscapedAttributeSize {
		return nil, fmt.Errorf("%w: escaped size %d", ErrAttributeTooLarge, len(data))
	}

	out := collapse(data)
	switch {
	case len(out) <= 1:
		// Single bytes are ambiguous; the caller decides from context.
	case data[0] == BytesType:
		body := data[1:]
		if len(body) == 2 && body[0] == NoReplace {
			out = body[1:]
		} else {
			out = collapse(body)
		}
	case len(out) == 2 && (data[0] == ByteType || data[0] == NoReplace):
		out = out[1:]
	}

	if len(out) > MaxAttributeSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrAttributeTooLarge, len(out), MaxAttributeSize)
	}
	return out, nil
}

// EscapeText byte-stuffs a text payload. Text is never wrapped with NoReplace.
func EscapeText(text []byte) ([]byte, error) {
	if len(text) > MaxTextSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTextTooLarge, len(text), MaxTextSize)
	}
	return stuff(text), nil
}

// UnescapeText reverses EscapeText.
func UnescapeText(data []byte) ([]byte, error) {
	out := collapse(data)
	if len(out) > MaxTextSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrTextTooLarge, len(out), MaxTextSize)
	}
	return out, nil
}

// stuff inserts EscapeMarker before every reserved byte.
func stuff(data []byte) []byte {
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		if isReserved(b) {
			out = append(out, EscapeMarker)
		}
		out = append(out, b)
	}
	return out
}

// collapse removes EscapeMarker in front of escapable bytes.
func collapse(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == EscapeMarker && i+1 < len(data) && isEscapable(data[i+1]) {
			i++
		}
		out = append(out, data[i])
	}
	return out
}

// ambiguous reports whether data would unescape as a wrapped single byte.
func ambiguous(data []byte) bool {
	return len(data) == 2 && data[0] == NoReplace
}
