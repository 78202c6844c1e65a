package wire

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Name identifies a protocol: a two-byte namespace plus a local name.
type Name struct {
	Namespace [2]byte
	Local     byte
}

// NewName creates a protocol name.
func NewName(ns0, ns1, local byte) Name {
	return Name{Namespace: [2]byte{ns0, ns1}, Local: local}
}

// EmptyName is the name of a protocol that has not been parsed yet.
var EmptyName = NewName(0xFF, 0xFF, 0xFF)

// String returns the name as "ns0ns1:local" in hex.
func (n Name) String() string {
	return fmt.Sprintf("%02x%02x:%02x", n.Namespace[0], n.Namespace[1], n.Local)
}

// Kind identifies the type of an attribute value.
type Kind uint8

const (
	// KindByte is a single byte carried with the ByteType marker.
	KindByte Kind = iota + 1
	// KindBytes is a byte sequence carried with the BytesType marker.
	KindBytes
	// KindChars is text without a marker; numbers are carried as chars.
	KindChars
	// KindRBS is a raw single byte without a marker.
	KindRBS
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindByte:
		return "BYTE"
	case KindBytes:
		return "BYTES"
	case KindChars:
		return "CHARS"
	case KindRBS:
		return "RBS"
	default:
		return "UNKNOWN"
	}
}

// Value is a typed attribute value. The zero Value has no kind.
type Value struct {
	kind Kind
	b    byte
	data []byte
}

// ByteValue returns a byte-typed value.
func ByteValue(b byte) Value {
	return Value{kind: KindByte, b: b}
}

// BytesValue returns a bytes-typed value. The slice is copied.
func BytesValue(data []byte) Value {
	return Value{kind: KindBytes, data: bytes.Clone(data)}
}

// CharsValue returns a chars-typed value.
func CharsValue(s string) Value {
	return Value{kind: KindChars, data: []byte(s)}
}

// RBSValue returns a raw single-byte value.
func RBSValue(b byte) Value {
	return Value{kind: KindRBS, b: b}
}

// Kind returns the value kind.
func (v Value) Kind() Kind {
	return v.kind
}

// Byte returns the byte of a KindByte value.
func (v Value) Byte() (byte, bool) {
	if v.kind != KindByte {
		return 0, false
	}
	return v.b, true
}

// Bytes returns a copy of the data of a KindBytes value.
func (v Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return bytes.Clone(v.data), true
}

// Chars returns the text of a KindChars value.
func (v Value) Chars() (string, bool) {
	if v.kind != KindChars {
		return "", false
	}
	return string(v.data), true
}

// RBS returns the byte of a KindRBS value.
func (v Value) RBS() (byte, bool) {
	if v.kind != KindRBS {
		return 0, false
	}
	return v.b, true
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindByte, KindRBS:
		return v.b == o.b
	default:
		return bytes.Equal(v.data, o.data)
	}
}

// String returns a readable form of the value.
func (v Value) String() string {
	switch v.kind {
	case KindByte:
		return fmt.Sprintf("byte(0x%02x)", v.b)
	case KindRBS:
		return fmt.Sprintf("rbs(0x%02x)", v.b)
	case KindBytes:
		return fmt.Sprintf("bytes(%x)", v.data)
	case KindChars:
		return strconv.Quote(string(v.data))
	default:
		return "<none>"
	}
}

// Attribute is a named attribute value.
type Attribute struct {
	Name  byte
	Value Value
}

// Protocol is a named protocol unit with ordered attributes and optional text.
// Setting the text closes the protocol to further changes.
type Protocol struct {
	Name Name

	attrs   []Attribute
	text    string
	hasText bool
}

// New creates an empty protocol with the given name.
func New(name Name) *Protocol {
	return &Protocol{Name: name}
}

// Attributes returns the attributes in insertion order.
func (p *Protocol) Attributes() []Attribute {
	out := make([]Attribute, len(p.attrs))
	copy(out, p.attrs)
	return out
}

// Len returns the number of attributes.
func (p *Protocol) Len() int {
	return len(p.attrs)
}

// IsBare reports whether the protocol has neither attributes nor text.
func (p *Protocol) IsBare() bool {
	return len(p.attrs) == 0 && !p.hasText
}

// Text returns the text payload and whether one is set.
func (p *Protocol) Text() (string, bool) {
	return p.text, p.hasText
}

// SetText sets the text payload. It can be set once.
func (p *Protocol) SetText(text string) error {
	if p.hasText {
		return ErrProtocolChangeClosed
	}
	if len(text) > MaxTextSize {
		return fmt.Errorf("%w: %d > %d", ErrTextTooLarge, len(text), MaxTextSize)
	}
	p.text = text
	p.hasText = true
	return nil
}

// Add appends an attribute.
func (p *Protocol) Add(name byte, v Value) error {
	if p.hasText {
		return ErrProtocolChangeClosed
	}
	if len(p.attrs) >= MaxAttributes {
		return ErrTooManyAttributes
	}
	if v.kind == KindBytes || v.kind == KindChars {
		if len(v.data) > MaxAttributeSize {
			return fmt.Errorf("%w: %d > %d", ErrAttributeTooLarge, len(v.data), MaxAttributeSize)
		}
		if ambiguous(v.data) {
			return fmt.Errorf("%w: %x", ErrAmbiguousValue, v.data)
		}
	}
	p.attrs = append(p.attrs, Attribute{Name: name, Value: v})
	return nil
}

// AddByte appends a byte-typed attribute.
func (p *Protocol) AddByte(name, b byte) error {
	return p.Add(name, ByteValue(b))
}

// AddBytes appends a bytes-typed attribute.
func (p *Protocol) AddBytes(name byte, data []byte) error {
	return p.Add(name, BytesValue(data))
}

// AddChars appends a chars-typed attribute.
func (p *Protocol) AddChars(name byte, s string) error {
	return p.Add(name, CharsValue(s))
}

// AddInt appends an integer as its decimal text.
func (p *Protocol) AddInt(name byte, i int) error {
	return p.Add(name, CharsValue(strconv.Itoa(i)))
}

// AddFloat appends a float as decimal text with two fractional digits.
func (p *Protocol) AddFloat(name byte, f float64) error {
	return p.Add(name, CharsValue(strconv.FormatFloat(f, 'f', 2, 64)))
}

// AddRBS appends a raw single-byte attribute.
func (p *Protocol) AddRBS(name, b byte) error {
	return p.Add(name, RBSValue(b))
}

// Attribute returns the first attribute value with the given name.
func (p *Protocol) Attribute(name byte) (Value, bool) {
	for _, a := range p.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return Value{}, false
}

// Byte returns a byte-typed attribute.
func (p *Protocol) Byte(name byte) (byte, bool) {
	v, ok := p.Attribute(name)
	if !ok {
		return 0, false
	}
	return v.Byte()
}

// Bytes returns a bytes-typed attribute.
func (p *Protocol) Bytes(name byte) ([]byte, bool) {
	v, ok := p.Attribute(name)
	if !ok {
		return nil, false
	}
	return v.Bytes()
}

// Chars returns a chars-typed attribute.
func (p *Protocol) Chars(name byte) (string, bool) {
	v, ok := p.Attribute(name)
	if !ok {
		return "", false
	}
	return v.Chars()
}

// Int returns a chars-typed attribute parsed as a decimal integer.
func (p *Protocol) Int(name byte) (int, bool) {
	s, ok := p.Chars(name)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}

// Float returns a chars-typed attribute parsed as a decimal float.
func (p *Protocol) Float(name byte) (float64, bool) {
	s, ok := p.Chars(name)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// RBS returns a raw single-byte attribute.
func (p *Protocol) RBS(name byte) (byte, bool) {
	v, ok := p.Attribute(name)
	if !ok {
		return 0, false
	}
	return v.RBS()
}

// Equal reports whether two protocols have the same name, attributes and text.
func (p *Protocol) Equal(o *Protocol) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Name != o.Name || p.hasText != o.hasText || p.text != o.text {
		return false
	}
	if len(p.attrs) != len(o.attrs) {
		return false
	}
	for i := range p.attrs {
		if p.attrs[i].Name != o.attrs[i].Name || !p.attrs[i].Value.Equal(o.attrs[i].Value) {
			return false
		}
	}
	return true
}

// String returns a readable form of the protocol.
func (p *Protocol) String() string {
	var sb strings.Builder
	sb.WriteString(p.Name.String())
	sb.WriteString("{")
	for i, a := range p.attrs {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%02x=%s", a.Name, a.Value)
	}
	if p.hasText {
		if len(p.attrs) > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "text=%q", p.text)
	}
	sb.WriteString("}")
	return sb.String()
}
