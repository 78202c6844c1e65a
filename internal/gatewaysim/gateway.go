package gatewaysim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/lan"
	"github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/tinyid"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// Thing is what the gateway knows about a commissioned thing.
type Thing struct {
	ThingID    string
	Address    transport.Address
	Allocated  bool
	Configured bool
}

// Gateway is the DAC service and LAN peer of a radio network.
// It is safe for concurrent use.
type Gateway struct {
	mu sync.RWMutex

	config Config
	frames *transport.FrameReader
	sender *transport.FrameWriter

	things    map[string]*Thing
	nextLanID int

	pending       map[tinyid.ID]wire.Name
	answers       []lan.Answer
	notifications []*lan.Envelope
	reports       []*lan.Envelope

	eventHandlers []EventHandler

	sessionID      string
	logger         *slog.Logger
	protocolLogger log.Logger
}

// New creates a gateway.
func New(config Config) (*Gateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	g := &Gateway{
		config:         config,
		frames:         transport.NewFrameReader(transport.ReceiveFunc(config.Link.Receive)),
		sender:         transport.NewFrameWriter(config.Link),
		things:         make(map[string]*Thing),
		nextLanID:      int(config.FirstLanID),
		pending:        make(map[tinyid.ID]wire.Name),
		sessionID:      uuid.NewString(),
		logger:         config.Logger,
		protocolLogger: config.ProtocolLogger,
	}
	if g.protocolLogger != nil {
		g.frames.SetLogger(g.protocolLogger, g.sessionID, log.RoleGateway)
		g.sender.SetLogger(g.protocolLogger, g.sessionID, log.RoleGateway)
	}
	return g, nil
}

// OnEvent registers a handler called after each gateway event.
func (g *Gateway) OnEvent(handler EventHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.eventHandlers = append(g.eventHandlers, handler)
}

// UplinkAddresses returns every address things answer to.
func (g *Gateway) UplinkAddresses() []transport.Address {
	return g.config.UplinkAddresses()
}

// Poll processes every frame the link has buffered. It returns the number
// of frames handled. A frame that cannot be handled does not stop the poll;
// its error is joined into the result.
func (g *Gateway) Poll(ctx context.Context) (int, error) {
	g.mu.Lock()
	var (
		events  []Event
		errs    []error
		handled int
	)
	for ctx.Err() == nil {
		frame, err := g.frames.ReadFrame()
		if errors.Is(err, transport.ErrWaitingForData) {
			break
		}
		if errors.Is(err, transport.ErrAbandonMalformedData) ||
			errors.Is(err, transport.ErrBufferOverflow) ||
			errors.Is(err, transport.ErrProtocolDataTooLarge) {
			g.warnLog("radio data dropped", "error", err)
			continue
		}
		if err != nil {
			errs = append(errs, err)
			break
		}

		handled++
		evs, err := g.handleFrame(frame)
		events = append(events, evs...)
		if err != nil {
			g.warnLog("frame not handled", "frame", fmt.Sprintf("% x", frame), "error", err)
			errs = append(errs, err)
		}
	}
	handlers := slices.Clone(g.eventHandlers)
	g.mu.Unlock()

	for _, e := range events {
		for _, h := range handlers {
			h(e)
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return handled, errors.Join(errs...)
}

// handleFrame must be called with g.mu held.
func (g *Gateway) handleFrame(frame []byte) ([]Event, error) {
	if kind, ok := lan.Classify(frame); ok {
		return g.handleLan(kind, frame)
	}

	name, ok := wire.FrameName(frame)
	if !ok || name.Namespace != commissioning.NameIntroduction.Namespace {
		return nil, fmt.Errorf("%w: % x", ErrUnexpectedFrame, frame)
	}

	msg, err := commissioning.DecodeMessage(frame)
	if err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case *commissioning.Introduction:
		return g.handleIntroduction(m)
	case *commissioning.Allocated:
		return g.handleAllocated(m)
	case *commissioning.IsConfigured:
		return g.handleIsConfigured(m)
	default:
		return nil, fmt.Errorf("%w: %s sent to the DAC service", ErrUnexpectedFrame, name)
	}
}

func (g *Gateway) handleIntroduction(m *commissioning.Introduction) ([]Event, error) {
	if want, ok := g.config.RegistrationCodes[m.ThingID]; g.config.RegistrationCodes != nil && (!ok || want != m.RegistrationCode) {
		g.debugLog("introduction refused", "thing_id", m.ThingID)
		return []Event{{Type: EventRefused, ThingID: m.ThingID}},
			fmt.Errorf("%w: %s", ErrRegistrationRefused, m.ThingID)
	}

	th, ok := g.things[m.ThingID]
	if !ok {
		if g.nextLanID >= 0xFF {
			return nil, ErrAddressPoolExhausted
		}
		th = &Thing{
			ThingID: m.ThingID,
			Address: transport.Address{g.config.AddressHigh, byte(g.nextLanID), g.config.Channel},
		}
		g.nextLanID++
		g.things[m.ThingID] = th
	}
	th.Allocated = false
	th.Configured = false

	alloc := &commissioning.Allocation{
		UplinkChannelBegin: g.config.UplinkChannelBegin,
		UplinkChannelEnd:   g.config.UplinkChannelEnd,
		UplinkAddressHigh:  g.config.UplinkAddressHigh,
		UplinkAddressLow:   g.config.UplinkAddressLow,
		Address:            th.Address,
	}
	if err := g.sendDac(m.ClientAddress, alloc); err != nil {
		return nil, err
	}
	g.debugLog("allocation sent", "thing_id", m.ThingID, "address", th.Address)
	return []Event{{Type: EventIntroduced, ThingID: th.ThingID, Address: th.Address}}, nil
}

func (g *Gateway) handleAllocated(m *commissioning.Allocated) ([]Event, error) {
	th, ok := g.things[m.ThingID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownThing, m.ThingID)
	}
	th.Allocated = true
	events := []Event{{Type: EventAllocated, ThingID: th.ThingID, Address: th.Address}}

	if !g.config.AutoConfigure {
		return events, nil
	}
	if err := g.sendDac(commissioning.ClientAddress, &commissioning.Configured{}); err != nil {
		return events, err
	}
	th.Configured = true
	return append(events, Event{Type: EventConfigured, ThingID: th.ThingID, Address: th.Address}), nil
}

func (g *Gateway) handleIsConfigured(m *commissioning.IsConfigured) ([]Event, error) {
	th, ok := g.things[m.ThingID]
	approved := ok && th.Allocated && (g.config.Approve == nil || g.config.Approve(m.ThingID))

	if !approved {
		if err := g.sendDac(m.ClientAddress, &commissioning.NotConfigured{}); err != nil {
			return nil, err
		}
		delete(g.things, m.ThingID)
		g.debugLog("allocation revoked", "thing_id", m.ThingID)
		return []Event{{Type: EventNotConfigured, ThingID: m.ThingID}}, nil
	}

	if err := g.sendDac(m.ClientAddress, &commissioning.Configured{}); err != nil {
		return nil, err
	}
	th.Configured = true
	return []Event{{Type: EventConfigured, ThingID: th.ThingID, Address: th.Address}}, nil
}

func (g *Gateway) handleLan(kind lan.Kind, frame []byte) ([]Event, error) {
	switch kind {
	case lan.KindResponse, lan.KindError:
		answer, err := lan.ParseAnswer(frame)
		if err != nil {
			return nil, err
		}
		for id := range g.pending {
			if tinyid.IsAnswerOf(answer.ID, id) {
				delete(g.pending, id)
				break
			}
		}
		g.answers = append(g.answers, answer)
		return []Event{{Type: EventAnswer, Answer: &answer}}, nil

	case lan.KindNotification, lan.KindReport:
		env, err := lan.ParseEnvelope(frame)
		if err != nil {
			return nil, err
		}
		if kind == lan.KindReport {
			g.reports = append(g.reports, env)
			return []Event{{Type: EventReport, Envelope: env}}, nil
		}
		g.notifications = append(g.notifications, env)
		return []Event{{Type: EventNotification, Envelope: env}}, nil

	default:
		return nil, fmt.Errorf("%w: %s received by the gateway", ErrUnexpectedFrame, kind)
	}
}

// Configure tells an allocated thing to go operational. The thing listens
// on the client address until then.
func (g *Gateway) Configure(thingID string) error {
	g.mu.Lock()
	th, ok := g.things[thingID]
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownThing, thingID)
	}
	if !th.Allocated {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotAllocated, thingID)
	}
	if err := g.sendDac(commissioning.ClientAddress, &commissioning.Configured{}); err != nil {
		g.mu.Unlock()
		return err
	}
	th.Configured = true
	ev := Event{Type: EventConfigured, ThingID: th.ThingID, Address: th.Address}
	handlers := slices.Clone(g.eventHandlers)
	g.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

// Execute sends an execution to a radio address.
func (g *Gateway) Execute(to transport.Address, id tinyid.ID, action *wire.Protocol) error {
	frame, err := lan.MarshalExecution(id, action)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.sender.WriteFrame(to, frame); err != nil {
		return err
	}
	g.pending[id] = action.Name
	g.debugLog("execution sent", "to", to, "protocol", action.Name, "tiny_id", id)
	return nil
}

// ExecuteOn sends an execution to a commissioned thing. The TinyId is taken
// from the time of day of at.
func (g *Gateway) ExecuteOn(thingID string, action *wire.Protocol, at time.Time) (tinyid.ID, error) {
	th, ok := g.Thing(thingID)
	if !ok {
		return tinyid.ID{}, fmt.Errorf("%w: %s", ErrUnknownThing, thingID)
	}

	midnight := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	id, err := tinyid.FromPassedMilliseconds(int(th.Address.LanID()), tinyid.KindRequest, at.Sub(midnight).Milliseconds())
	if err != nil {
		return tinyid.ID{}, err
	}
	return id, g.Execute(th.Address, id, action)
}

// Thing returns what the gateway knows about a thing.
func (g *Gateway) Thing(thingID string) (Thing, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	th, ok := g.things[thingID]
	if !ok {
		return Thing{}, false
	}
	return *th, true
}

// Things returns every known thing ordered by LAN id.
func (g *Gateway) Things() []Thing {
	g.mu.RLock()
	defer g.mu.RUnlock()

	things := make([]Thing, 0, len(g.things))
	for _, th := range g.things {
		things = append(things, *th)
	}
	slices.SortFunc(things, func(a, b Thing) int {
		return int(a.Address.LanID()) - int(b.Address.LanID())
	})
	return things
}

// Answers returns the answers received so far.
func (g *Gateway) Answers() []lan.Answer {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.answers)
}

// Notifications returns the notifications received so far.
func (g *Gateway) Notifications() []*lan.Envelope {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.notifications)
}

// Reports returns the reports received so far.
func (g *Gateway) Reports() []*lan.Envelope {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.reports)
}

// Pending returns the number of executions without an answer.
func (g *Gateway) Pending() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.pending)
}

func (g *Gateway) sendDac(to transport.Address, msg interface{}) error {
	frame, err := commissioning.EncodeMessage(msg)
	if err != nil {
		return err
	}
	return g.sender.WriteFrame(to, frame)
}

func (g *Gateway) debugLog(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Debug(msg, args...)
	}
}

func (g *Gateway) warnLog(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Warn(msg, args...)
	}
}
