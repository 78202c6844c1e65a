package lan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mud-protocol/tuxp-go/pkg/tinyid"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

var fixtureID = tinyid.ID{0x00, 0x0B, 0x17, 0xD3, 0xE5}

var executionFixture = []byte{
	0xFF, 0xF8, 0x04, 0x05, 0x01, 0x01, 0x06, 0xFB, 0x00, 0x0B, 0x17, 0xD3, 0xE5, 0xFE,
	0xF7, 0x01, 0x00, 0x01, 0x00, 0x01, 0x31, 0x34, 0xFF,
}

func lightAction(t *testing.T) *wire.Protocol {
	t.Helper()
	p := wire.New(wire.NewName(0xF7, 0x01, 0x00))
	require.NoError(t, p.AddInt(0x01, 14))
	return p
}

func TestMarshalExecutionFixture(t *testing.T) {
	frame, err := MarshalExecution(fixtureID, lightAction(t))
	require.NoError(t, err)
	assert.Equal(t, executionFixture, frame)

	kind, ok := Classify(frame)
	assert.True(t, ok)
	assert.Equal(t, KindExecution, kind)
	assert.True(t, IsExecution(frame))
	assert.False(t, IsAnswer(frame))
}

func TestParseExecutionFixture(t *testing.T) {
	id, action, err := ParseExecution(executionFixture)
	require.NoError(t, err)
	assert.Equal(t, fixtureID, id)
	assert.True(t, action.Equal(lightAction(t)), "got %s", action)

	i, ok := action.Int(0x01)
	assert.True(t, ok)
	assert.Equal(t, 14, i)
}

func TestExecutionEscapedTinyID(t *testing.T) {
	// 511 ms puts 0xFF in byte 4, and the lan id is 0xFE.
	id, err := tinyid.New(0xFE, tinyid.KindRequest, 1, 2, 3, 511)
	require.NoError(t, err)
	require.Equal(t, byte(0xFF), id[4])

	frame, err := MarshalExecution(id, lightAction(t))
	require.NoError(t, err)

	got, action, err := ParseExecution(frame)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, lightAction(t).Name, action.Name)
}

func TestExecutionBareAction(t *testing.T) {
	bare := wire.New(wire.NewName(0xF7, 0x02, 0x01))

	frame, err := MarshalExecution(fixtureID, bare)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFE, 0xF7, 0x02, 0x01, 0xFF}, frame[len(frame)-5:])

	_, action, err := ParseExecution(frame)
	require.NoError(t, err)
	assert.True(t, action.IsBare())
	assert.Equal(t, bare.Name, action.Name)
}

func TestParseExecutionErrors(t *testing.T) {
	withText := append([]byte(nil), executionFixture...)
	withText[5] = 0x81
	assert.ErrorIs(t, func() error { _, _, err := ParseExecution(withText); return err }(), wire.ErrMalformedData)

	twoAttrs := append([]byte(nil), executionFixture...)
	twoAttrs[4] = 0x02
	assert.ErrorIs(t, func() error { _, _, err := ParseExecution(twoAttrs); return err }(), wire.ErrMalformedData)

	noChild := append([]byte(nil), executionFixture...)
	noChild[5] = 0x00
	assert.ErrorIs(t, func() error { _, _, err := ParseExecution(noChild); return err }(), wire.ErrMalformedData)

	_, _, err := ParseExecution([]byte{0xFF, 0xF8, 0x02, 0x07, 0xFF})
	assert.ErrorIs(t, err, ErrNotEnvelope)
}

func TestAnswers(t *testing.T) {
	tests := []struct {
		name   string
		answer Answer
		want   []byte
	}{
		{
			name:   "response",
			answer: NewResponse(fixtureID),
			want:   []byte{0xFF, 0xF8, 0x02, 0x07, 0x01, 0x00, 0x06, 0xFB, 0x00, 0x4B, 0x17, 0xD3, 0xE5, 0xFF},
		},
		{
			name:   "error",
			answer: NewError(fixtureID, 3),
			want: []byte{
				0xFF, 0xF8, 0x02, 0x07, 0x02, 0x00, 0x06, 0xFB, 0x00, 0x8B, 0x17, 0xD3, 0xE5,
				0xFE, 0x08, 0x33, 0xFF,
			},
		},
		{
			name:   "negative error",
			answer: NewError(fixtureID, -12),
			want: []byte{
				0xFF, 0xF8, 0x02, 0x07, 0x02, 0x00, 0x06, 0xFB, 0x00, 0x8B, 0x17, 0xD3, 0xE5,
				0xFE, 0x08, 0x2D, 0x31, 0x32, 0xFF,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := MarshalAnswer(tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, frame)
			assert.True(t, IsAnswer(frame))

			got, err := ParseAnswer(frame)
			require.NoError(t, err)
			assert.Equal(t, tt.answer, got)
			assert.True(t, tinyid.IsAnswerOf(got.ID, fixtureID))
		})
	}
}

func TestAnswerErrors(t *testing.T) {
	_, err := MarshalAnswer(Answer{ID: fixtureID})
	assert.ErrorIs(t, err, ErrUnknownAnswerKind)

	// A request TinyId inside an answer frame.
	frame := []byte{0xFF, 0xF8, 0x02, 0x07, 0x01, 0x00, 0x06, 0xFB, 0x00, 0x0B, 0x17, 0xD3, 0xE5, 0xFF}
	_, err = ParseAnswer(frame)
	assert.ErrorIs(t, err, ErrUnknownAnswerKind)

	// An error without its code attribute.
	frame = []byte{0xFF, 0xF8, 0x02, 0x07, 0x02, 0x00, 0x06, 0xFB, 0x00, 0x8B, 0x17, 0xD3, 0xE5, 0xFF}
	_, err = ParseAnswer(frame)
	assert.ErrorIs(t, err, wire.ErrMalformedData)

	// A short tiny id.
	frame = []byte{0xFF, 0xF8, 0x02, 0x07, 0x01, 0x00, 0x06, 0xFB, 0x00, 0x4B, 0x17, 0xD3, 0xFF, 0xFF}
	_, err = ParseAnswer(frame)
	assert.Error(t, err)
}

func TestNotificationAndReport(t *testing.T) {
	event := wire.New(wire.NewName(0xF7, 0x03, 0x00))
	require.NoError(t, event.AddFloat(0x01, 21.5))

	for _, ack := range []bool{false, true} {
		notification, err := MarshalNotification(fixtureID, event, ack)
		require.NoError(t, err)
		report, err := MarshalReport(fixtureID, event, ack)
		require.NoError(t, err)

		assert.Equal(t, []byte{0xFF, 0xF8, 0x02, 0x05}, notification[:4])
		assert.Equal(t, []byte{0xFF, 0xF8, 0x0A, 0x05}, report[:4])
		assert.True(t, IsNotification(notification))
		assert.True(t, IsReport(report))

		if ack {
			assert.Equal(t, byte(0x02), notification[4])
			assert.Equal(t, []byte{0xFE, 0x01, 0x02, 0xFE}, notification[13:17])
		} else {
			assert.Equal(t, byte(0x01), notification[4])
		}

		for _, frame := range [][]byte{notification, report} {
			env, err := ParseEnvelope(frame)
			require.NoError(t, err)
			assert.Equal(t, fixtureID, env.ID)
			assert.Equal(t, ack, env.AckRequired)
			assert.True(t, env.Body.Equal(event), "got %s", env.Body)
		}
	}
}

func TestEnvelopeTooLarge(t *testing.T) {
	data := wire.New(wire.NewName(0xF7, 0x03, 0x00))
	require.NoError(t, data.AddChars(0x01, "0123456789abcdef"))
	require.NoError(t, data.AddChars(0x02, "0123456789abcdef"))
	require.NoError(t, data.AddChars(0x03, "0123456789"))

	// The inner frame fits but the envelope does not.
	inner, err := wire.Marshal(data)
	require.NoError(t, err)
	require.LessOrEqual(t, len(inner), wire.MaxFrameSize)

	_, err = MarshalReport(fixtureID, data, false)
	assert.ErrorIs(t, err, wire.ErrProtocolDataTooLarge)
}

func TestClassify(t *testing.T) {
	response, err := MarshalAnswer(NewResponse(fixtureID))
	require.NoError(t, err)
	errFrame, err := MarshalAnswer(NewError(fixtureID, 1))
	require.NoError(t, err)

	kind, ok := Classify(response)
	assert.True(t, ok)
	assert.Equal(t, KindResponse, kind)

	kind, ok = Classify(errFrame)
	assert.True(t, ok)
	assert.Equal(t, KindError, kind)

	_, ok = Classify([]byte{0xFF, 0xF8, 0x03, 0x09, 0xFF})
	assert.False(t, ok)

	_, err = ParseEnvelope(response)
	assert.ErrorIs(t, err, ErrNotEnvelope)
}

func TestClassifyAnswerByTinyIDKind(t *testing.T) {
	frameWith := func(prefix []byte, id tinyid.ID) []byte {
		escaped, err := wire.Escape(id[:])
		require.NoError(t, err)
		frame := append([]byte(nil), prefix...)
		frame = append(frame, AttrTinyID, wire.BytesType)
		frame = append(frame, escaped...)
		return append(frame, wire.Delimiter)
	}

	responseID := NewResponse(fixtureID).ID
	errorID := NewError(fixtureID, 1).ID
	// 0xFF as LAN id is escaped inside the attribute.
	escapedErrorID := tinyid.ID{0xFF, byte(tinyid.KindError)<<6 | 0x0B, 0x17, 0xD3, 0xE5}

	tests := []struct {
		name  string
		frame []byte
		want  Kind
		ok    bool
	}{
		{"error id behind a response header", frameWith(responsePrefix, errorID), KindError, true},
		{"response id behind an error header", frameWith(errorPrefix, responseID), KindResponse, true},
		{"escaped error id", frameWith(responsePrefix, escapedErrorID), KindError, true},
		{"request id", frameWith(responsePrefix, fixtureID), 0, false},
		{"truncated", responsePrefix, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := Classify(tt.frame)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, kind)
			}
		})
	}

	// Classify agrees with ParseAnswer on an escaped TinyId.
	frame, err := MarshalAnswer(Answer{ID: escapedErrorID, Code: 3})
	require.NoError(t, err)
	kind, ok := Classify(frame)
	require.True(t, ok)
	assert.Equal(t, KindError, kind)
	answer, err := ParseAnswer(frame)
	require.NoError(t, err)
	assert.True(t, answer.IsError())
	assert.Equal(t, 3, answer.Code)
}
