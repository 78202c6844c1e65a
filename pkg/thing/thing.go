package thing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// Thing is the runtime of a radio node. It walks the DAC exchange until it
// is CONFIGURED and then serves executions and reports data.
//
// A Thing is not safe for concurrent use. Drive it from one goroutine and
// call DoPeriodicWork regularly.
type Thing struct {
	config Config

	info    *commissioning.ThingInfo
	current transport.Address

	frames *transport.FrameReader
	sender *transport.FrameWriter

	registry registry

	receiveInterval int64 // ms
	received        bool
	lastReceive     int64

	sessionID      string
	logger         *slog.Logger
	protocolLogger log.Logger
}

// New creates a Thing. Every capability of config is required.
func New(config Config) (*Thing, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.IntN == nil {
		config.IntN = DefaultConfig().IntN
	}

	t := &Thing{
		config:          config,
		info:            commissioning.NewThingInfo(),
		current:         commissioning.DefaultAddress,
		frames:          transport.NewFrameReader(transport.ReceiveFunc(config.Radio.Receive)),
		sender:          transport.NewFrameWriter(config.Radio),
		receiveInterval: config.ReceiveInterval.Milliseconds(),
		sessionID:       uuid.NewString(),
		logger:          config.Logger,
		protocolLogger:  config.ProtocolLogger,
	}

	if t.protocolLogger != nil {
		t.frames.SetLogger(t.protocolLogger, t.sessionID, log.RoleThing)
		t.sender.SetLogger(t.protocolLogger, t.sessionID, log.RoleThing)
	}
	return t, nil
}

// SessionID identifies this runtime in protocol logs.
func (t *Thing) SessionID() string {
	return t.sessionID
}

// BecomeThing loads the stored record, brings the radio up and either
// resumes operation or runs the next DAC step.
func (t *Thing) BecomeThing(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.frames.Reset()

	info, err := t.config.Persistence.Load()
	if err != nil {
		return fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	if info == nil {
		info = commissioning.NewThingInfo()
	}
	t.info = info

	addr, err := t.config.Radio.Initialize()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitializeRadio, err)
	}
	t.current = addr
	t.debugLog("radio initialized", "address", addr, "state", t.info.State)
	t.logState(log.StateEntityRadio, "", "INITIALIZED", addr.String())

	if t.info.State == commissioning.StateConfigured {
		if t.info.Address == nil {
			return fmt.Errorf("%w: CONFIGURED without an address", ErrInvalidDacState)
		}
		if err := t.changeAddress(*t.info.Address, true); err != nil {
			return err
		}
		if err := t.configureProtocols(); err != nil {
			return err
		}
		t.debugLog("thing is operational", "thing_id", t.info.ThingID, "address", t.current)
		return nil
	}

	if t.info.ThingID == "" {
		id, err := t.config.Identity.GenerateThingID()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrGenerateThingID, err)
		}
		if len(id) > maxThingIDSize {
			return fmt.Errorf("%w: %d > %d bytes", ErrThingIDTooLong, len(id), maxThingIDSize)
		}

		if err := t.config.Radio.Configure(); err != nil {
			return fmt.Errorf("%w: %w", ErrConfigureRadio, err)
		}
		t.logState(log.StateEntityRadio, "INITIALIZED", "CONFIGURED", "")

		next := t.info.Clone()
		next.ThingID = id
		next.State = commissioning.StateInitial
		if err := t.save(next); err != nil {
			return err
		}
		t.debugLog("thing id generated", "thing_id", id)
	}

	return t.doDac()
}

// IsOperational reports whether the thing is CONFIGURED.
func (t *Thing) IsOperational() bool {
	return t.info.State == commissioning.StateConfigured
}

// State returns the current DAC state.
func (t *Thing) State() commissioning.DacState {
	return t.info.State
}

// Info returns a copy of the commissioning record.
func (t *Thing) Info() commissioning.ThingInfo {
	return *t.info.Clone()
}

// CurrentAddress returns the address the radio is listening on.
func (t *Thing) CurrentAddress() transport.Address {
	return t.current
}

// LanID returns the LAN id carried by the current address.
func (t *Thing) LanID() byte {
	return t.current.LanID()
}

// SetReceiveInterval changes the minimum time between two radio reads.
func (t *Thing) SetReceiveInterval(d time.Duration) {
	t.receiveInterval = d.Milliseconds()
}

// DoPeriodicWork receives and processes pending frames and, once the thing
// is operational, fires the data handlers that are due.
func (t *Thing) DoPeriodicWork(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.receiveAndProcess(); err != nil {
		return fmt.Errorf("%w: %w", ErrProcessReceivedData, err)
	}

	if !t.IsOperational() {
		return nil
	}

	if err := t.acquireData(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrDataAcquisition, err)
	}
	return nil
}

// ResetToUnconfigured drops the allocation and stores the record as INITIAL.
// The thing id is kept. The device is not restarted.
func (t *Thing) ResetToUnconfigured() error {
	info, err := t.config.Persistence.Load()
	if err != nil {
		return fmt.Errorf("%w: load: %w", ErrPersistence, err)
	}
	if info == nil {
		info = commissioning.NewThingInfo()
	}
	t.info = info

	next := t.info.Clone()
	next.ClearAllocation()
	next.State = commissioning.StateInitial
	return t.save(next)
}

// receiveAndProcess reads from the radio when the receive interval has
// elapsed and processes every complete frame.
func (t *Thing) receiveAndProcess() error {
	frame, err := t.receive()
	for {
		switch {
		case err == nil:
		case errors.Is(err, transport.ErrWaitingForData):
			return nil
		case errors.Is(err, transport.ErrAbandonMalformedData),
			errors.Is(err, transport.ErrBufferOverflow),
			errors.Is(err, transport.ErrProtocolDataTooLarge):
			// Lost data is not retried.
			t.warnLog("radio data dropped", "error", err)
			return nil
		default:
			return err
		}
		if frame == nil {
			return nil
		}

		if err := t.processFrame(frame); err != nil {
			t.logError(err, "process frame")
			return err
		}
		frame, err = t.frames.NextBuffered()
	}
}

// receive reads one chunk when the receive interval has elapsed. A frame
// left in the buffer is still returned between reads.
func (t *Thing) receive() ([]byte, error) {
	now := t.config.Clock.Milliseconds()
	if t.received && now-t.lastReceive < t.receiveInterval {
		if t.frames.Buffered() == 0 {
			return nil, nil
		}
		return t.frames.NextBuffered()
	}

	t.received = true
	t.lastReceive = now
	return t.frames.ReadFrame()
}

// processFrame hands a frame to the DAC state machine or, once operational,
// to the dispatcher.
func (t *Thing) processFrame(frame []byte) error {
	t.logMessage(log.DirectionIn, "", frame)
	if t.IsOperational() {
		return t.dispatch(frame)
	}
	return t.processDac(frame)
}

func (t *Thing) changeAddress(addr transport.Address, persist bool) error {
	if t.current == addr {
		return nil
	}
	if err := t.config.Radio.ChangeAddress(addr, persist); err != nil {
		return fmt.Errorf("%w: to %s: %w", ErrChangeRadioAddress, addr, err)
	}
	t.logState(log.StateEntityAddress, t.current.String(), addr.String(), "")
	t.debugLog("radio address changed", "from", t.current, "to", addr, "persist", persist)
	t.current = addr
	return nil
}

func (t *Thing) configureProtocols() error {
	if t.config.ProtocolConfigurer == nil {
		return nil
	}
	if err := t.config.ProtocolConfigurer(t); err != nil {
		return fmt.Errorf("%w: %w", ErrConfigureProtocols, err)
	}
	return nil
}

// save stores next and adopts it. On failure the in-memory record is kept.
func (t *Thing) save(next *commissioning.ThingInfo) error {
	if err := t.config.Persistence.Save(next.Clone()); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	t.setInfo(next)
	return nil
}

// setInfo adopts next and logs a state transition.
func (t *Thing) setInfo(next *commissioning.ThingInfo) {
	old := t.info.State
	t.info = next
	if old != next.State {
		t.logState(log.StateEntityDac, old.String(), next.State.String(), "")
		t.debugLog("DAC state changed", "from", old, "to", next.State)
	}
}
