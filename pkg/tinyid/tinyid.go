package tinyid

import (
	"encoding/hex"
	"fmt"
)

// Size is the encoded length of an ID.
const Size = 5

// MaxPassedMilliseconds is the exclusive upper bound of the time of day
// accepted by FromPassedMilliseconds.
const MaxPassedMilliseconds = 86399999

const (
	msPerHour   = 3600000
	msPerMinute = 60000
	msPerSecond = 1000
	msPerDay    = 24 * msPerHour
)

// Kind is the message kind carried in the top two bits of byte 1.
type Kind uint8

const (
	KindRequest  Kind = 0
	KindResponse Kind = 1
	KindError    Kind = 2
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "REQUEST"
	case KindResponse:
		return "RESPONSE"
	case KindError:
		return "ERROR"
	default:
		return fmt.Sprintf("KIND(%d)", uint8(k))
	}
}

// IsAnswer reports whether k is a Response or Error kind.
func (k Kind) IsAnswer() bool {
	return k == KindResponse || k == KindError
}

// ID is a packed correlation identifier.
type ID [Size]byte

// New packs an identifier from its fields.
func New(lan int, kind Kind, hours, minutes, seconds, milliseconds int) (ID, error) {
	var id ID

	if lan < 0 || lan > 255 {
		return id, fmt.Errorf("%w: %d", ErrLanIDOverflow, lan)
	}
	if kind > KindError {
		return id, fmt.Errorf("%w: %d", ErrInvalidKind, kind)
	}
	if hours < 0 || hours > 23 {
		return id, fmt.Errorf("%w: %d", ErrInvalidHours, hours)
	}
	if minutes < 0 || minutes > 59 {
		return id, fmt.Errorf("%w: %d", ErrInvalidMinutes, minutes)
	}
	if seconds < 0 || seconds > 59 {
		return id, fmt.Errorf("%w: %d", ErrInvalidSeconds, seconds)
	}
	if milliseconds < 0 || milliseconds > 999 {
		return id, fmt.Errorf("%w: %d", ErrInvalidMilliseconds, milliseconds)
	}

	id[0] = byte(lan)
	id[1] = byte(kind)<<6 | byte(hours)
	id[2] = byte(minutes)
	id[3] = byte(seconds)<<2 | byte(milliseconds>>8)
	id[4] = byte(milliseconds & 0xFF)
	return id, nil
}

// TimeOfDay maps a monotonic millisecond clock onto the range accepted by
// FromPassedMilliseconds. The clock wraps at midnight and the last
// millisecond of the day is folded into the one before it.
func TimeOfDay(ms int64) int64 {
	passed := ms % msPerDay
	if passed < 0 {
		passed += msPerDay
	}
	return min(passed, MaxPassedMilliseconds-1)
}

// FromPassedMilliseconds packs an identifier from the milliseconds passed
// since midnight.
func FromPassedMilliseconds(lan int, kind Kind, passed int64) (ID, error) {
	if lan < 0 || lan > 255 {
		return ID{}, fmt.Errorf("%w: %d", ErrLanIDOverflow, lan)
	}
	if passed < 0 || passed >= MaxPassedMilliseconds {
		return ID{}, fmt.Errorf("%w: %d", ErrInvalidPassedTime, passed)
	}

	remained := passed
	hours := remained / msPerHour
	remained %= msPerHour
	minutes := remained / msPerMinute
	remained %= msPerMinute
	seconds := remained / msPerSecond
	ms := remained % msPerSecond

	return New(lan, kind, int(hours), int(minutes), int(seconds), int(ms))
}

// FromBytes copies an identifier out of data.
func FromBytes(data []byte) (ID, bool) {
	var id ID
	if len(data) != Size {
		return id, false
	}
	copy(id[:], data)
	return id, true
}

// DeriveAnswer returns the answer identifier for a request. Only the kind
// changes.
func DeriveAnswer(req ID, kind Kind) (ID, error) {
	if !kind.IsAnswer() {
		return ID{}, fmt.Errorf("%w: %s", ErrNotAnswerKind, kind)
	}
	answer := req
	answer[1] = byte(kind)<<6 | req.Hours()
	return answer, nil
}

// IsAnswerOf reports whether answer carries an answer kind and the same LAN
// id and time of day as req.
func IsAnswerOf(answer, req ID) bool {
	if !answer.Kind().IsAnswer() {
		return false
	}
	return answer[0] == req[0] &&
		answer.Hours() == req.Hours() &&
		answer[2] == req[2] &&
		answer[3] == req[3] &&
		answer[4] == req[4]
}

// Kind returns the message kind. The reserved value 3 reads as KindError.
func (id ID) Kind() Kind {
	k := Kind(id[1] >> 6)
	if k > KindError {
		return KindError
	}
	return k
}

// IsRequest reports whether id is a request identifier.
func (id ID) IsRequest() bool { return id.Kind() == KindRequest }

// IsResponse reports whether id is a response identifier.
func (id ID) IsResponse() bool { return id.Kind() == KindResponse }

// IsError reports whether id is an error identifier.
func (id ID) IsError() bool { return id.Kind() == KindError }

// LanID returns the originating node's LAN id.
func (id ID) LanID() byte { return id[0] }

// Hours returns the hour of day.
func (id ID) Hours() byte { return id[1] & 0x3F }

// Minutes returns the minute of the hour.
func (id ID) Minutes() byte { return id[2] }

// Seconds returns the second of the minute.
func (id ID) Seconds() byte { return id[3] >> 2 }

// Milliseconds returns the millisecond of the second.
func (id ID) Milliseconds() int {
	return int(id[3]&0x03)<<8 | int(id[4])
}

// PassedMilliseconds returns the time of day in milliseconds since midnight.
func (id ID) PassedMilliseconds() int64 {
	return int64(id.Hours())*msPerHour +
		int64(id.Minutes())*msPerMinute +
		int64(id.Seconds())*msPerSecond +
		int64(id.Milliseconds())
}

// Bytes returns the encoded identifier.
func (id ID) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, id[:])
	return out
}

// String returns the identifier as hex.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}
