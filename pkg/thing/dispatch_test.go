package thing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mud-protocol/tuxp-go/pkg/lan"
	"github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/tinyid"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

var (
	lightName = wire.NewName(0xF7, 0x01, 0x00)
	uplink    = transport.Address{0x00, 0x00, 0x17}
)

func lightAction(t *testing.T, level int) *wire.Protocol {
	t.Helper()
	p := wire.New(lightName)
	require.NoError(t, p.AddInt(0x01, level))
	return p
}

func requestID(t *testing.T) tinyid.ID {
	t.Helper()
	id, err := tinyid.New(int(allocatedAddress.LanID()), tinyid.KindRequest, 11, 23, 52, 997)
	require.NoError(t, err)
	return id
}

func TestDispatchResponse(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	var got *wire.Protocol
	th.RegisterActionHandler(lightName, func(action *wire.Protocol) int {
		got = action
		return 0
	}, false)

	id := requestID(t)
	require.NoError(t, h.gw.Execute(allocatedAddress, id, lightAction(t, 14)))
	require.NoError(t, h.work(t, th))

	require.NotNil(t, got)
	level, ok := got.Int(0x01)
	assert.True(t, ok)
	assert.Equal(t, 14, level)

	sent, ok := h.radio.LastSent()
	require.True(t, ok)
	assert.Equal(t, uplink, sent.To)
	want, err := lan.MarshalAnswer(lan.NewResponse(id))
	require.NoError(t, err)
	assert.Equal(t, want, sent.Data)

	h.pollGateway(t)
	answers := h.gw.Answers()
	require.Len(t, answers, 1)
	assert.False(t, answers[0].IsError())
	assert.True(t, tinyid.IsAnswerOf(answers[0].ID, id))
	assert.Zero(t, h.gw.Pending())
}

func TestDispatchError(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)
	th.RegisterActionHandler(lightName, func(*wire.Protocol) int { return -12 }, false)

	id := requestID(t)
	require.NoError(t, h.gw.Execute(allocatedAddress, id, lightAction(t, 14)))
	require.NoError(t, h.work(t, th))

	sent, ok := h.radio.LastSent()
	require.True(t, ok)
	answer, err := lan.ParseAnswer(sent.Data)
	require.NoError(t, err)
	assert.True(t, answer.IsError())
	assert.Equal(t, -12, answer.Code)

	// The answer is logged with the handler time.
	var logged *log.MessageEvent
	for _, ev := range h.events.events {
		if ev.Message != nil && ev.Message.Kind == log.MessageKindError {
			logged = ev.Message
		}
	}
	require.NotNil(t, logged)
	require.NotNil(t, logged.ErrorCode)
	assert.Equal(t, -12, *logged.ErrorCode)
	assert.NotNil(t, logged.HandlerTime)
}

func TestDispatchQuery(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	calls := 0
	th.RegisterActionHandler(lightName, func(*wire.Protocol) int { calls++; return 0 }, true)

	require.NoError(t, h.gw.Execute(allocatedAddress, requestID(t), lightAction(t, 1)))
	require.NoError(t, h.work(t, th))

	assert.Equal(t, 1, calls)
	assert.Empty(t, h.radio.Sent(), "queries are not answered")
}

func TestDispatchUnknownProtocol(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	require.NoError(t, h.gw.Execute(allocatedAddress, requestID(t), lightAction(t, 1)))
	err := h.work(t, th)
	assert.ErrorIs(t, err, ErrProcessReceivedData)
	assert.ErrorIs(t, err, ErrUnknownProtocolName)
	assert.Empty(t, h.radio.Sent())

	th.RegisterActionHandler(lightName, nil, false)
	require.NoError(t, h.gw.Execute(allocatedAddress, requestID(t), lightAction(t, 1)))
	err = h.work(t, th)
	assert.ErrorIs(t, err, ErrNoRegisteredProcessor)
}

func TestDispatchPlainProtocol(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	var got *wire.Protocol
	th.RegisterActionHandler(lightName, func(p *wire.Protocol) int { got = p; return 5 }, false)

	frame, err := wire.Marshal(lightAction(t, 3))
	require.NoError(t, err)
	require.NoError(t, h.gwLink.Send(allocatedAddress, frame))
	require.NoError(t, h.work(t, th))

	require.NotNil(t, got)
	assert.Empty(t, h.radio.Sent(), "only executions are answered")
}

func TestDispatchSeveralFramesInOneRead(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	levels := []int{}
	th.RegisterActionHandler(lightName, func(p *wire.Protocol) int {
		l, _ := p.Int(0x01)
		levels = append(levels, l)
		return 0
	}, false)

	id := requestID(t)
	for _, level := range []int{1, 2, 3} {
		require.NoError(t, h.gw.Execute(allocatedAddress, id, lightAction(t, level)))
	}
	require.NoError(t, h.work(t, th))

	assert.Equal(t, []int{1, 2, 3}, levels)
	assert.Len(t, h.radio.Sent(), 3)
}

func TestUnregisterActionHandler(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	first, second := 0, 0
	th.RegisterActionHandler(lightName, func(*wire.Protocol) int { first++; return 0 }, false)
	th.RegisterActionHandler(lightName, func(*wire.Protocol) int { second++; return 0 }, false)

	require.NoError(t, h.gw.Execute(allocatedAddress, requestID(t), lightAction(t, 1)))
	require.NoError(t, h.work(t, th))
	assert.Zero(t, first, "registering a name again replaces the handler")
	assert.Equal(t, 1, second)

	assert.True(t, th.UnregisterActionHandler(lightName))
	assert.False(t, th.UnregisterActionHandler(lightName))
}

func TestReceiveInterval(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	calls := 0
	th.RegisterActionHandler(lightName, func(*wire.Protocol) int { calls++; return 0 }, true)

	// The first cycle reads immediately.
	require.NoError(t, th.DoPeriodicWork(h.ctx))

	require.NoError(t, h.gw.Execute(allocatedAddress, requestID(t), lightAction(t, 1)))
	h.clock.Advance(DefaultReceiveInterval / 2)
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Zero(t, calls)
	assert.NotZero(t, h.radio.Pending())

	h.clock.Advance(DefaultReceiveInterval / 2)
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Equal(t, 1, calls)

	th.SetReceiveInterval(0)
	require.NoError(t, h.gw.Execute(allocatedAddress, requestID(t), lightAction(t, 1)))
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Equal(t, 2, calls)
}

func TestBufferedFramesDrainWhileRateLimited(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	calls := 0
	th.RegisterActionHandler(lightName, func(*wire.Protocol) int { calls++; return 0 }, true)

	unknown, err := lan.MarshalExecution(requestID(t), wire.New(wire.NewName(0xF7, 0x09, 0x00)))
	require.NoError(t, err)
	known, err := lan.MarshalExecution(requestID(t), lightAction(t, 1))
	require.NoError(t, err)
	h.radio.Inject(append(append([]byte(nil), unknown...), known...))

	// The first frame fails and leaves the second one buffered.
	err = th.DoPeriodicWork(h.ctx)
	assert.ErrorIs(t, err, ErrUnknownProtocolName)
	assert.Zero(t, calls)
	assert.Zero(t, h.radio.Pending())

	// No read is due, but the buffered frame is still processed.
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Equal(t, 1, calls)
}

func TestFrameSplitAcrossReads(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	calls := 0
	th.RegisterActionHandler(lightName, func(*wire.Protocol) int { calls++; return 0 }, true)

	frame, err := lan.MarshalExecution(requestID(t), lightAction(t, 1))
	require.NoError(t, err)

	h.radio.Inject(frame[:5])
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Zero(t, calls)

	h.radio.Inject(frame[5:])
	require.NoError(t, h.work(t, th))
	assert.Equal(t, 1, calls)
}

func TestLostDataIsNotAnError(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	h.radio.Inject([]byte{0x01, 0x02, 0x03})
	require.NoError(t, th.DoPeriodicWork(h.ctx))

	var signals []log.ReassemblySignal
	for _, ev := range h.events.events {
		if ev.Reassembly != nil {
			signals = append(signals, ev.Reassembly.Signal)
		}
	}
	assert.Equal(t, []log.ReassemblySignal{log.SignalAbandon}, signals)
}
