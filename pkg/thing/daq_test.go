package thing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mud-protocol/tuxp-go/internal/radiosim"
	"github.com/mud-protocol/tuxp-go/pkg/lan"
	"github.com/mud-protocol/tuxp-go/pkg/tinyid"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

var temperatureName = wire.NewName(0xF7, 0x03, 0x00)

func TestDataAcquisitionIntervals(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	value := 20
	th.RegisterDataHandler(temperatureName, func(data *wire.Protocol) error {
		value++
		return data.AddInt(0x01, value)
	}, 5*time.Second)

	// 11:23:52.997 into the day.
	h.clock.Set(int64(11*time.Hour+23*time.Minute+52*time.Second+997*time.Millisecond) / int64(time.Millisecond))

	// A handler fires on the first cycle.
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	require.Len(t, h.radio.Sent(), 1)

	sent, _ := h.radio.LastSent()
	assert.Equal(t, uplink, sent.To)
	env, err := lan.ParseEnvelope(sent.Data)
	require.NoError(t, err)
	assert.Equal(t, lan.KindReport, env.Kind)
	assert.False(t, env.AckRequired)
	assert.Equal(t, allocatedAddress.LanID(), env.ID.LanID())
	assert.True(t, env.ID.IsRequest())
	assert.Equal(t, byte(11), env.ID.Hours())
	assert.Equal(t, byte(23), env.ID.Minutes())
	assert.Equal(t, byte(52), env.ID.Seconds())
	assert.Equal(t, 997, env.ID.Milliseconds())
	got, _ := env.Body.Int(0x01)
	assert.Equal(t, 21, got)

	// Not due yet.
	h.clock.Advance(4 * time.Second)
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Len(t, h.radio.Sent(), 1)

	h.clock.Advance(time.Second)
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Len(t, h.radio.Sent(), 2)

	h.pollGateway(t)
	require.Len(t, h.gw.Reports(), 2)
	last, _ := h.gw.Reports()[1].Body.Int(0x01)
	assert.Equal(t, 22, last)
}

func TestDataAcquisitionAtClockZero(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	fired := 0
	th.RegisterDataHandler(temperatureName, func(*wire.Protocol) error { fired++; return nil }, time.Second)

	// The first firing does not wait for the clock to move.
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Equal(t, 1, fired)

	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Equal(t, 1, fired)
}

func TestDataAcquisitionOnlyWhenOperational(t *testing.T) {
	h := newHarness(t, allocatedInfo())
	th := h.newThing(t)
	require.NoError(t, th.BecomeThing(h.ctx))
	h.radio.ClearSent()

	fired := 0
	th.RegisterDataHandler(temperatureName, func(*wire.Protocol) error { fired++; return nil }, time.Second)
	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Zero(t, fired)
	assert.Empty(t, h.radio.Sent())
}

func TestDataAcquisitionErrors(t *testing.T) {
	boom := errors.New("sensor offline")

	t.Run("handler", func(t *testing.T) {
		h := newHarness(t, configuredInfo())
		th := h.resume(t)
		th.RegisterDataHandler(temperatureName, func(*wire.Protocol) error { return boom }, time.Second)

		err := th.DoPeriodicWork(h.ctx)
		assert.ErrorIs(t, err, ErrDataAcquisition)
		assert.ErrorIs(t, err, ErrAcquireData)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, h.radio.Sent())
	})

	t.Run("nil handler", func(t *testing.T) {
		h := newHarness(t, configuredInfo())
		th := h.resume(t)
		th.RegisterDataHandler(temperatureName, nil, time.Second)

		assert.ErrorIs(t, th.DoPeriodicWork(h.ctx), ErrNoRegisteredProcessor)
	})

	t.Run("report send", func(t *testing.T) {
		h := newHarness(t, configuredInfo())
		th := h.resume(t)
		th.RegisterDataHandler(temperatureName, func(*wire.Protocol) error { return nil }, time.Second)

		h.radio.SetFailures(radiosim.Failures{Send: boom})
		assert.ErrorIs(t, th.DoPeriodicWork(h.ctx), boom)
	})
}

func TestDataAtLastMillisecondOfDay(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)
	th.RegisterDataHandler(temperatureName, func(*wire.Protocol) error { return nil }, time.Second)

	h.clock.Set(tinyid.MaxPassedMilliseconds)
	require.NoError(t, th.DoPeriodicWork(h.ctx))

	sent, ok := h.radio.LastSent()
	require.True(t, ok)
	env, err := lan.ParseEnvelope(sent.Data)
	require.NoError(t, err)
	assert.Equal(t, byte(23), env.ID.Hours())
	assert.Equal(t, byte(59), env.ID.Minutes())
	assert.Equal(t, byte(59), env.ID.Seconds())
	assert.Equal(t, 998, env.ID.Milliseconds())
}

func TestDataClockWrapsAtMidnight(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)
	th.RegisterDataHandler(temperatureName, func(*wire.Protocol) error { return nil }, time.Second)

	// Two days and one second after boot.
	h.clock.Set(int64(48*time.Hour+time.Second) / int64(time.Millisecond))
	require.NoError(t, th.DoPeriodicWork(h.ctx))

	sent, _ := h.radio.LastSent()
	env, err := lan.ParseEnvelope(sent.Data)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), env.ID.PassedMilliseconds())
}

func TestUnregisterDataHandler(t *testing.T) {
	h := newHarness(t, configuredInfo())
	th := h.resume(t)

	th.RegisterDataHandler(temperatureName, func(*wire.Protocol) error { return nil }, time.Second)
	assert.True(t, th.UnregisterDataHandler(temperatureName))
	assert.False(t, th.UnregisterDataHandler(temperatureName))

	require.NoError(t, th.DoPeriodicWork(h.ctx))
	assert.Empty(t, h.radio.Sent())
}
