package wire

import (
	"fmt"
)

// ValidFrame reports whether data is delimited like a protocol frame.
func ValidFrame(data []byte) bool {
	return len(data) >= BareFrameSize &&
		data[0] == Delimiter &&
		data[len(data)-1] == Delimiter
}

// FrameName returns the protocol name carried by a frame.
func FrameName(data []byte) (Name, bool) {
	if !ValidFrame(data) {
		return Name{}, false
	}
	return NewName(data[offsetNamespace0], data[offsetNamespace1], data[offsetLocal]), true
}

// IsProtocol reports whether data is a frame of the named protocol.
func IsProtocol(data []byte, name Name) bool {
	n, ok := FrameName(data)
	return ok && n == name
}

// IsBareProtocol reports whether data is a bare frame of the named protocol.
func IsBareProtocol(data []byte, name Name) bool {
	return len(data) == BareFrameSize && IsProtocol(data, name)
}

// Marshal serializes a protocol to its frame.
func Marshal(p *Protocol) ([]byte, error) {
	if len(p.attrs) > MaxAttributes {
		return nil, ErrTooManyAttributes
	}

	if p.IsBare() {
		return []byte{
			Delimiter,
			p.Name.Namespace[0], p.Name.Namespace[1], p.Name.Local,
			Delimiter,
		}, nil
	}

	var flags byte
	if p.hasText {
		flags = TextFlag
	}

	buf := make([]byte, 0, MaxFrameSize)
	buf = append(buf,
		Delimiter,
		p.Name.Namespace[0], p.Name.Namespace[1], p.Name.Local,
		byte(len(p.attrs)), flags,
	)

	for _, a := range p.attrs {
		enc, err := encodeValue(a.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute 0x%02x: %w", a.Name, err)
		}
		buf = append(buf, a.Name)
		buf = append(buf, enc...)
		buf = append(buf, UnitSeparator)
		if len(buf) > MaxFrameSize {
			return nil, fmt.Errorf("%w: attribute 0x%02x exceeds %d bytes", ErrProtocolDataTooLarge, a.Name, MaxFrameSize)
		}
	}

	if p.hasText {
		text, err := EscapeText([]byte(p.text))
		if err != nil {
			return nil, err
		}
		buf = append(buf, text...)
		buf = append(buf, Delimiter)
	} else {
		// The last separator becomes the terminator.
		buf[len(buf)-1] = Delimiter
	}

	if len(buf) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrProtocolDataTooLarge, len(buf), MaxFrameSize)
	}
	return buf, nil
}

// encodeValue returns the marker and escaped payload of a value.
func encodeValue(v Value) ([]byte, error) {
	switch v.kind {
	case KindByte:
		if isEscapable(v.b) {
			return []byte{ByteType, EscapeMarker, v.b}, nil
		}
		return []byte{ByteType, v.b}, nil
	case KindRBS:
		if isEscapable(v.b) {
			return []byte{EscapeMarker, v.b}, nil
		}
		return []byte{v.b}, nil
	case KindBytes:
		esc, err := Escape(v.data)
		if err != nil {
			return nil, err
		}
		return append([]byte{BytesType}, esc...), nil
	case KindChars:
		return Escape(v.data)
	default:
		return nil, fmt.Errorf("%w: value without kind", ErrMalformedData)
	}
}

// Parse decodes a frame into a protocol.
func Parse(data []byte) (*Protocol, error) {
	if !ValidFrame(data) {
		return nil, ErrNotValidProtocol
	}
	if len(data) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrProtocolDataTooLarge, len(data), MaxFrameSize)
	}

	name, _ := FrameName(data)
	p := New(name)

	if len(data) == BareFrameSize {
		return p, nil
	}
	if len(data) < EmptyFrameSize {
		return nil, fmt.Errorf("%w: frame of %d bytes", ErrMalformedData, len(data))
	}

	flags := data[offsetFlags]
	if flags&ChildCountMask != 0 {
		return nil, fmt.Errorf("%w: %d children", ErrFeatureNotImplemented, flags&ChildCountMask)
	}

	count := int(data[offsetCount])
	hasText := flags&TextFlag != 0
	if count > MaxAttributes {
		return nil, fmt.Errorf("%w: %d", ErrTooManyAttributes, count)
	}

	if count == 0 && !hasText {
		if len(data) != EmptyFrameSize {
			return nil, fmt.Errorf("%w: trailing data after empty header", ErrMalformedData)
		}
		return p, nil
	}

	last := len(data) - 1
	pos := offsetFlags
	for i := 0; i < count; i++ {
		pos++
		if pos >= last {
			return nil, fmt.Errorf("%w: missing attribute %d of %d", ErrMalformedData, i+1, count)
		}
		attrName := data[pos]

		start := pos + 1
		end, escapes := findValueEnd(data, start)
		if end < 0 {
			return nil, fmt.Errorf("%w: attribute 0x%02x not terminated", ErrMalformedData, attrName)
		}

		v, err := decodeValue(data[start:end], escapes)
		if err != nil {
			return nil, fmt.Errorf("attribute 0x%02x: %w", attrName, err)
		}
		p.attrs = append(p.attrs, Attribute{Name: attrName, Value: v})
		pos = end
	}

	if !hasText {
		if pos != last {
			return nil, fmt.Errorf("%w: trailing data after attributes", ErrMalformedData)
		}
		return p, nil
	}

	if pos >= last {
		return nil, fmt.Errorf("%w: text flag set without text", ErrMalformedData)
	}
	text, err := UnescapeText(data[pos+1 : last])
	if err != nil {
		return nil, err
	}
	p.text = string(text)
	p.hasText = true

	return p, nil
}

// ValueEnd returns the index of the unescaped separator or terminator that
// ends the value starting at start, or -1 if there is none.
func ValueEnd(data []byte, start int) int {
	end, _ := findValueEnd(data, start)
	return end
}

// findValueEnd returns the index of the separator or terminator ending the
// value that starts at start, and the number of escapes inside the value.
// It returns -1 when the value is not terminated or contains a bad escape.
func findValueEnd(data []byte, start int) (int, int) {
	last := len(data) - 1
	escapes := 0
	for i := start; i <= last; {
		switch data[i] {
		case EscapeMarker:
			if i+1 >= last || !isEscapable(data[i+1]) {
				return -1, escapes
			}
			escapes++
			i += 2
		case UnitSeparator, Delimiter:
			return i, escapes
		default:
			i++
		}
	}
	return -1, escapes
}

// decodeValue classifies and unescapes a raw attribute value.
func decodeValue(raw []byte, escapes int) (Value, error) {
	if len(raw) > MaxEscapedAttributeSize {
		return Value{}, fmt.Errorf("%w: escaped size %d", ErrAttributeTooLarge, len(raw))
	}

	if len(raw) > 0 && raw[0] == ByteType {
		switch {
		case len(raw) == 2 && escapes == 0:
			return ByteValue(raw[1]), nil
		case len(raw) == 3 && escapes == 1 && raw[1] == EscapeMarker:
			return ByteValue(raw[2]), nil
		default:
			return Value{}, fmt.Errorf("%w: byte value of %d bytes", ErrMalformedData, len(raw))
		}
	}

	if len(raw) > 0 && raw[0] == BytesType {
		data, err := Unescape(raw)
		if err != nil {
			return Value{}, err
		}
		if len(raw) == 1 {
			// A lone marker is an empty byte sequence.
			data = nil
		}
		return BytesValue(data), nil
	}

	data, err := Unescape(raw)
	if err != nil {
		return Value{}, err
	}
	if len(data) == 1 && raw[0] != NoReplace {
		return RBSValue(data[0]), nil
	}
	return CharsValue(string(data)), nil
}
