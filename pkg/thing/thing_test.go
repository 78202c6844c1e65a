package thing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mud-protocol/tuxp-go/internal/gatewaysim"
	"github.com/mud-protocol/tuxp-go/internal/radiosim"
	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/persistence"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

const (
	testThingID = "SL-LE01-C980AFE"
	testCode    = "1234567890AB"
)

var allocatedAddress = transport.Address{0x00, 0x01, 0x17}

// mockIdentity is a testify mock of the Identity capability.
type mockIdentity struct {
	mock.Mock
}

func (m *mockIdentity) GenerateThingID() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockIdentity) RegistrationCode() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// recordingLogger collects protocol events.
type recordingLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recordingLogger) Log(ev log.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingLogger) stateChanges(entity log.StateEntity) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var states []string
	for _, ev := range r.events {
		if ev.StateChange != nil && ev.StateChange.Entity == entity {
			states = append(states, ev.StateChange.NewState)
		}
	}
	return states
}

// harness wires a Thing to a simulated air, clock and gateway.
type harness struct {
	ctx      context.Context
	air      *radiosim.Air
	radio    *radiosim.Radio
	clock    *radiosim.ManualClock
	resetter *radiosim.Resetter
	store    *persistence.MemoryStore
	identity *mockIdentity
	events   *recordingLogger

	gwLink *radiosim.Radio
	gw     *gatewaysim.Gateway

	config Config
}

func newHarness(t *testing.T, stored *commissioning.ThingInfo) *harness {
	t.Helper()

	h := &harness{
		ctx:      context.Background(),
		air:      radiosim.NewAir(),
		clock:    radiosim.NewManualClock(0),
		resetter: &radiosim.Resetter{},
		store:    persistence.NewMemoryStore(stored),
		identity: &mockIdentity{},
		events:   &recordingLogger{},
	}
	h.radio = h.air.NewRadio(commissioning.DefaultAddress)

	gwConfig := gatewaysim.DefaultConfig()
	h.gwLink = h.air.NewRadio(commissioning.ServiceAddress)
	h.gwLink.Listen(gwConfig.UplinkAddresses()...)
	gwConfig.Link = h.gwLink
	gw, err := gatewaysim.New(gwConfig)
	require.NoError(t, err)
	h.gw = gw

	h.config = DefaultConfig()
	h.config.Persistence = h.store
	h.config.Radio = h.radio
	h.config.Identity = h.identity
	h.config.Clock = h.clock
	h.config.Resetter = h.resetter
	h.config.ProtocolLogger = h.events

	t.Cleanup(func() { h.identity.AssertExpectations(t) })
	return h
}

func (h *harness) newThing(t *testing.T) *Thing {
	t.Helper()
	th, err := New(h.config)
	require.NoError(t, err)
	return th
}

// pollGateway lets the gateway handle everything sent to it.
func (h *harness) pollGateway(t *testing.T) {
	t.Helper()
	_, err := h.gw.Poll(h.ctx)
	require.NoError(t, err)
}

// work advances the clock past the receive interval and runs one cycle.
func (h *harness) work(t *testing.T, th *Thing) error {
	t.Helper()
	h.clock.Advance(DefaultReceiveInterval)
	return th.DoPeriodicWork(h.ctx)
}

// commission takes a fresh thing through the whole DAC exchange.
func (h *harness) commission(t *testing.T) *Thing {
	t.Helper()

	h.identity.On("GenerateThingID").Return(testThingID, nil).Once()
	h.identity.On("RegistrationCode").Return(testCode, nil).Once()

	th := h.newThing(t)
	require.NoError(t, th.BecomeThing(h.ctx))
	h.pollGateway(t)
	require.NoError(t, h.work(t, th))
	h.pollGateway(t)
	require.NoError(t, h.work(t, th))
	require.True(t, th.IsOperational())
	return th
}

func configuredInfo() *commissioning.ThingInfo {
	info := commissioning.NewThingInfo()
	info.ThingID = testThingID
	info.State = commissioning.StateConfigured
	info.ApplyAllocation(&commissioning.Allocation{
		UplinkChannelBegin: 0x17,
		UplinkChannelEnd:   0x17,
		UplinkAddressHigh:  0x00,
		UplinkAddressLow:   0x00,
		Address:            allocatedAddress,
	})
	return info
}

func allocatedInfo() *commissioning.ThingInfo {
	info := configuredInfo()
	info.State = commissioning.StateAllocated
	return info
}

// resume starts a thing from a CONFIGURED record.
func (h *harness) resume(t *testing.T) *Thing {
	t.Helper()
	th := h.newThing(t)
	require.NoError(t, th.BecomeThing(h.ctx))
	require.True(t, th.IsOperational())
	h.radio.ClearSent()
	return th
}
