package lan

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/mud-protocol/tuxp-go/pkg/tinyid"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// Kind identifies an envelope.
type Kind uint8

const (
	KindExecution Kind = iota + 1
	KindNotification
	KindReport
	KindResponse
	KindError
)

// String returns the envelope kind name.
func (k Kind) String() string {
	switch k {
	case KindExecution:
		return "EXECUTION"
	case KindNotification:
		return "NOTIFICATION"
	case KindReport:
		return "REPORT"
	case KindResponse:
		return "RESPONSE"
	case KindError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Envelope names.
var (
	ExecutionName    = wire.NewName(0xF8, 0x04, 0x05)
	NotificationName = wire.NewName(0xF8, 0x02, 0x05)
	ReportName       = wire.NewName(0xF8, 0x0A, 0x05)
	AnswerName       = wire.NewName(0xF8, 0x02, 0x07)
)

// Attribute names used by envelopes.
const (
	AttrTinyID      byte = 0x06
	AttrAckRequired byte = 0x01
	AttrErrorCode   byte = 0x08
)

const (
	prefixSize = 6

	// ackRequiredValue is the raw value of the ack attribute.
	ackRequiredValue byte = 0x02
)

var (
	executionPrefix    = []byte{0xFF, 0xF8, 0x04, 0x05, 0x01, 0x01}
	notificationPrefix = []byte{0xFF, 0xF8, 0x02, 0x05, 0x01, 0x01}
	reportPrefix       = []byte{0xFF, 0xF8, 0x0A, 0x05, 0x01, 0x01}
	responsePrefix     = []byte{0xFF, 0xF8, 0x02, 0x07, 0x01, 0x00}
	errorPrefix        = []byte{0xFF, 0xF8, 0x02, 0x07, 0x02, 0x00}
)

// minBodyEnvelopeSize is the prefix, the TinyId attribute, a bare body and
// the terminator.
const minBodyEnvelopeSize = prefixSize + 2 + tinyid.Size + 1 + 3 + 1

// Answer is the outcome of an execution. Code is 0 for a Response.
type Answer struct {
	ID   tinyid.ID
	Code int
}

// NewResponse returns the successful answer to a request.
func NewResponse(req tinyid.ID) Answer {
	id, _ := tinyid.DeriveAnswer(req, tinyid.KindResponse)
	return Answer{ID: id}
}

// NewError returns the error answer to a request.
func NewError(req tinyid.ID, code int) Answer {
	id, _ := tinyid.DeriveAnswer(req, tinyid.KindError)
	return Answer{ID: id, Code: code}
}

// IsError reports whether the answer is an Error.
func (a Answer) IsError() bool {
	return a.ID.IsError()
}

// Envelope is a parsed execution, notification or report.
type Envelope struct {
	Kind        Kind
	ID          tinyid.ID
	AckRequired bool
	Body        *wire.Protocol
}

// MarshalExecution wraps an action protocol into an execution envelope.
func MarshalExecution(id tinyid.ID, action *wire.Protocol) ([]byte, error) {
	return marshalWithBody(executionPrefix, id, action, false)
}

// MarshalNotification wraps an event protocol into a notification envelope.
func MarshalNotification(id tinyid.ID, event *wire.Protocol, ackRequired bool) ([]byte, error) {
	return marshalWithBody(notificationPrefix, id, event, ackRequired)
}

// MarshalReport wraps a data protocol into a report envelope.
func MarshalReport(id tinyid.ID, data *wire.Protocol, ackRequired bool) ([]byte, error) {
	return marshalWithBody(reportPrefix, id, data, ackRequired)
}

func marshalWithBody(prefix []byte, id tinyid.ID, inner *wire.Protocol, ackRequired bool) ([]byte, error) {
	innerFrame, err := wire.Marshal(inner)
	if err != nil {
		return nil, err
	}
	escaped, err := wire.Escape(id[:])
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, wire.MaxFrameSize)
	buf = append(buf, prefix...)
	if ackRequired {
		buf[4] = 0x02
	}
	buf = append(buf, AttrTinyID, wire.BytesType)
	buf = append(buf, escaped...)
	buf = append(buf, wire.UnitSeparator)
	if ackRequired {
		buf = append(buf, AttrAckRequired, ackRequiredValue, wire.UnitSeparator)
	}
	// The inner frame already ends with the terminator.
	buf = append(buf, innerFrame[1:]...)

	if len(buf) > wire.MaxFrameSize {
		return nil, fmt.Errorf("%w: envelope of %d bytes", wire.ErrProtocolDataTooLarge, len(buf))
	}
	return buf, nil
}

// MarshalAnswer encodes a Response or Error envelope.
func MarshalAnswer(a Answer) ([]byte, error) {
	escaped, err := wire.Escape(a.ID[:])
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, wire.MaxFrameSize)
	switch a.ID.Kind() {
	case tinyid.KindResponse:
		buf = append(buf, responsePrefix...)
		buf = append(buf, AttrTinyID, wire.BytesType)
		buf = append(buf, escaped...)
	case tinyid.KindError:
		buf = append(buf, errorPrefix...)
		buf = append(buf, AttrTinyID, wire.BytesType)
		buf = append(buf, escaped...)
		buf = append(buf, wire.UnitSeparator, AttrErrorCode)
		buf = append(buf, strconv.Itoa(a.Code)...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnswerKind, a.ID.Kind())
	}
	buf = append(buf, wire.Delimiter)

	if len(buf) > wire.MaxFrameSize {
		return nil, fmt.Errorf("%w: answer of %d bytes", wire.ErrProtocolDataTooLarge, len(buf))
	}
	return buf, nil
}

// Classify returns the kind of a LAN envelope frame. Answers are told apart
// by the kind of their TinyId, as ParseAnswer does.
func Classify(frame []byte) (Kind, bool) {
	name, ok := wire.FrameName(frame)
	if !ok {
		return 0, false
	}
	switch name {
	case ExecutionName:
		return KindExecution, true
	case NotificationName:
		return KindNotification, true
	case ReportName:
		return KindReport, true
	case AnswerName:
		if !IsAnswer(frame) {
			return 0, false
		}
		id, _, err := parseTinyID(frame)
		if err != nil {
			return 0, false
		}
		switch id.Kind() {
		case tinyid.KindResponse:
			return KindResponse, true
		case tinyid.KindError:
			return KindError, true
		}
	}
	return 0, false
}

// IsExecution reports whether frame is an execution envelope.
func IsExecution(frame []byte) bool {
	return wire.IsProtocol(frame, ExecutionName)
}

// IsNotification reports whether frame is a notification envelope.
func IsNotification(frame []byte) bool {
	return wire.IsProtocol(frame, NotificationName)
}

// IsReport reports whether frame is a report envelope.
func IsReport(frame []byte) bool {
	return wire.IsProtocol(frame, ReportName)
}

// IsAnswer reports whether frame is a Response or Error envelope.
func IsAnswer(frame []byte) bool {
	return len(frame) >= prefixSize+2+tinyid.Size+1 && wire.IsProtocol(frame, AnswerName)
}

// ParseExecution extracts the request TinyId and the action protocol from an
// execution envelope.
func ParseExecution(frame []byte) (tinyid.ID, *wire.Protocol, error) {
	if !IsExecution(frame) {
		return tinyid.ID{}, nil, fmt.Errorf("%w: expected execution", ErrNotEnvelope)
	}
	env, err := parseWithBody(frame, KindExecution)
	if err != nil {
		return tinyid.ID{}, nil, err
	}
	return env.ID, env.Body, nil
}

// ParseEnvelope parses an execution, notification or report envelope.
func ParseEnvelope(frame []byte) (*Envelope, error) {
	kind, ok := Classify(frame)
	if !ok || kind == KindResponse || kind == KindError {
		return nil, fmt.Errorf("%w: expected execution, notification or report", ErrNotEnvelope)
	}
	return parseWithBody(frame, kind)
}

func parseWithBody(frame []byte, kind Kind) (*Envelope, error) {
	if len(frame) > wire.MaxFrameSize {
		return nil, fmt.Errorf("%w: envelope of %d bytes", wire.ErrProtocolDataTooLarge, len(frame))
	}
	if len(frame) < minBodyEnvelopeSize {
		return nil, fmt.Errorf("%w: envelope of %d bytes", wire.ErrMalformedData, len(frame))
	}

	count := frame[4]
	children := frame[5] & wire.ChildCountMask
	hasText := frame[5]&wire.TextFlag != 0

	ackRequired := false
	switch {
	case count == 1:
	case count == 2 && kind != KindExecution:
		ackRequired = true
	default:
		return nil, fmt.Errorf("%w: %d envelope attributes", wire.ErrMalformedData, count)
	}
	if children != 1 || hasText {
		return nil, fmt.Errorf("%w: envelope header %02x", wire.ErrMalformedData, frame[5])
	}

	id, next, err := parseTinyID(frame)
	if err != nil {
		return nil, err
	}
	if frame[next-1] != wire.UnitSeparator {
		return nil, fmt.Errorf("%w: envelope without body", wire.ErrMalformedData)
	}

	if ackRequired {
		ack := []byte{AttrAckRequired, ackRequiredValue, wire.UnitSeparator}
		if !bytes.HasPrefix(frame[next:], ack) {
			return nil, fmt.Errorf("%w: missing ack attribute", wire.ErrMalformedData)
		}
		next += len(ack)
	}

	// Re-wrap the inlined body as a standalone frame.
	inner := make([]byte, 0, len(frame)-next+1)
	inner = append(inner, wire.Delimiter)
	inner = append(inner, frame[next:]...)
	if len(inner) < wire.BareFrameSize {
		return nil, fmt.Errorf("%w: body of %d bytes", wire.ErrMalformedData, len(inner))
	}

	body, err := wire.Parse(inner)
	if err != nil {
		return nil, fmt.Errorf("parse %s body: %w", kind, err)
	}
	return &Envelope{Kind: kind, ID: id, AckRequired: ackRequired, Body: body}, nil
}

// parseTinyID reads the TinyId attribute that follows the header. It returns
// the id and the index just past the byte that terminates it.
func parseTinyID(frame []byte) (tinyid.ID, int, error) {
	pos := prefixSize
	if frame[pos] != AttrTinyID || frame[pos+1] != wire.BytesType {
		return tinyid.ID{}, 0, fmt.Errorf("%w: missing tiny id attribute", wire.ErrMalformedData)
	}
	start := pos + 2
	end := wire.ValueEnd(frame, start)
	if end < 0 {
		return tinyid.ID{}, 0, fmt.Errorf("%w: tiny id not terminated", wire.ErrMalformedData)
	}

	raw, err := wire.Unescape(frame[start:end])
	if err != nil {
		return tinyid.ID{}, 0, err
	}
	id, ok := tinyid.FromBytes(raw)
	if !ok {
		return tinyid.ID{}, 0, fmt.Errorf("%w: tiny id of %d bytes", wire.ErrMalformedData, len(raw))
	}
	return id, end + 1, nil
}

// ParseAnswer parses a Response or Error envelope. The kind is taken from
// the TinyId.
func ParseAnswer(frame []byte) (Answer, error) {
	if !IsAnswer(frame) {
		return Answer{}, fmt.Errorf("%w: expected answer", ErrNotEnvelope)
	}
	if len(frame) > wire.MaxFrameSize {
		return Answer{}, fmt.Errorf("%w: answer of %d bytes", wire.ErrProtocolDataTooLarge, len(frame))
	}

	id, next, err := parseTinyID(frame)
	if err != nil {
		return Answer{}, err
	}
	end := next - 1

	switch id.Kind() {
	case tinyid.KindResponse:
		if end != len(frame)-1 {
			return Answer{}, fmt.Errorf("%w: trailing data after response", wire.ErrMalformedData)
		}
		return Answer{ID: id}, nil
	case tinyid.KindError:
	default:
		return Answer{}, fmt.Errorf("%w: %s", ErrUnknownAnswerKind, id.Kind())
	}

	if frame[end] != wire.UnitSeparator || next >= len(frame)-1 || frame[next] != AttrErrorCode {
		return Answer{}, fmt.Errorf("%w: missing error code", wire.ErrMalformedData)
	}
	code, err := strconv.Atoi(string(frame[next+1 : len(frame)-1]))
	if err != nil {
		return Answer{}, fmt.Errorf("%w: error code: %v", wire.ErrMalformedData, err)
	}
	return Answer{ID: id, Code: code}, nil
}
