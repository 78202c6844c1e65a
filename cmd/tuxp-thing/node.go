package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/mud-protocol/tuxp-go/cmd/tuxp-thing/interactive"
	tuxplog "github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/thing"
	"github.com/mud-protocol/tuxp-go/pkg/tinyid"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)


// nodeConfig collects what a node is built from.
type nodeConfig struct {
	Radio            transport.Radio
	Store            thing.Persistence
	Identity         thing.Identity
	Clock            thing.Clock
	RegistrationCode string

	ReceiveInterval time.Duration
	TickInterval    time.Duration
	DacRetry        time.Duration

	Demo           bool
	UptimeInterval time.Duration

	Logger         *slog.Logger
	ProtocolLogger tuxplog.Logger
}

// node drives a Thing. The Thing is only touched from the goroutine
// running Run; other goroutines go through do.
type node struct {
	config nodeConfig
	thing  *thing.Thing
	clock  thing.Clock

	commands chan func()

	restart     bool
	lastStart   int64
	operational bool
	led         bool
	bootedAt    int64
}

var _ interactive.Node = (*node)(nil)

// newNode creates the node and its Thing.
func newNode(config nodeConfig) (*node, error) {
	if config.Clock == nil {
		config.Clock = monotonicClock()
	}
	n := &node{
		config:   config,
		clock:    config.Clock,
		commands: make(chan func()),
	}
	n.bootedAt = n.clock.Milliseconds()

	tc := thing.DefaultConfig()
	tc.Persistence = config.Store
	tc.Radio = config.Radio
	tc.Identity = config.Identity
	tc.Clock = config.Clock
	tc.Resetter = thing.ResetterFunc(n.requestRestart)
	tc.ReceiveInterval = config.ReceiveInterval
	tc.Logger = config.Logger
	tc.ProtocolLogger = config.ProtocolLogger
	if config.Demo {
		tc.ProtocolConfigurer = n.registerDemo
	}

	t, err := thing.New(tc)
	if err != nil {
		return nil, err
	}
	n.thing = t
	return n, nil
}

// monotonicClock returns a clock counting milliseconds since it was made.
func monotonicClock() thing.Clock {
	start := time.Now()
	return thing.ClockFunc(func() int64 {
		return time.Since(start).Milliseconds()
	})
}

// Run starts the thing and drives it until ctx is canceled. Only the first
// start failing is fatal; later restarts are retried.
func (n *node) Run(ctx context.Context) error {
	if err := n.start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(n.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-n.commands:
			fn()
		case <-ticker.C:
			n.step(ctx)
		}
	}
}

// step runs one round of periodic work and restarts the DAC exchange when
// the gateway refused the thing or did not answer in time.
func (n *node) step(ctx context.Context) {
	if err := n.thing.DoPeriodicWork(ctx); err != nil && ctx.Err() == nil {
		n.warnLog("periodic work failed", "error", err)
	}

	switch {
	case n.restart:
		n.restart = false
		log.Println("Gateway did not configure this thing, restarting")
		_ = n.start(ctx)
	case !n.thing.IsOperational() && n.config.DacRetry > 0 &&
		n.clock.Milliseconds()-n.lastStart >= n.config.DacRetry.Milliseconds():
		n.debugLog("no DAC progress, restarting", "state", n.thing.State())
		_ = n.start(ctx)
	}

	if op := n.thing.IsOperational(); op != n.operational {
		n.operational = op
		if op {
			log.Printf("Thing %s operational at %s", n.thing.Info().ThingID, n.thing.CurrentAddress())
		}
	}
}

// start runs BecomeThing.
func (n *node) start(ctx context.Context) error {
	n.lastStart = n.clock.Milliseconds()
	if err := n.thing.BecomeThing(ctx); err != nil {
		n.warnLog("become thing failed", "error", err)
		return err
	}
	n.debugLog("thing started", "state", n.thing.State(), "address", n.thing.CurrentAddress())
	return nil
}

// requestRestart is the Resetter of the thing. It runs on the loop
// goroutine, inside DoPeriodicWork, so the restart is deferred to step.
func (n *node) requestRestart() {
	n.restart = true
}

// do runs fn on the loop goroutine and returns its error.
func (n *node) do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	select {
	case n.commands <- func() { done <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestID returns a REQUEST TinyId for the current time of day.
func (n *node) requestID() (tinyid.ID, error) {
	return tinyid.FromPassedMilliseconds(int(n.thing.LanID()), tinyid.KindRequest, tinyid.TimeOfDay(n.clock.Milliseconds()))
}

// Status implements interactive.Node.
func (n *node) Status(ctx context.Context) (interactive.Status, error) {
	var st interactive.Status
	err := n.do(ctx, func() error {
		st = interactive.Status{
			Info:             n.thing.Info(),
			Address:          n.thing.CurrentAddress(),
			Operational:      n.thing.IsOperational(),
			SessionID:        n.thing.SessionID(),
			RegistrationCode: n.config.RegistrationCode,
			LED:              n.led,
			Uptime:           time.Duration(n.clock.Milliseconds()-n.bootedAt) * time.Millisecond,
		}
		return nil
	})
	return st, err
}

// Notify implements interactive.Node.
func (n *node) Notify(ctx context.Context, text string, ack bool) error {
	return n.do(ctx, func() error {
		event := wire.New(consoleEvent)
		if err := event.SetText(text); err != nil {
			return err
		}
		id, err := n.requestID()
		if err != nil {
			return err
		}
		if ack {
			return n.thing.NotifyWithAck(ctx, id, event)
		}
		return n.thing.Notify(ctx, id, event)
	})
}

// Report implements interactive.Node.
func (n *node) Report(ctx context.Context) error {
	return n.do(ctx, func() error {
		data := wire.New(uptimeData)
		if err := n.fillUptime(data); err != nil {
			return err
		}
		id, err := n.requestID()
		if err != nil {
			return err
		}
		return n.thing.Report(ctx, id, data)
	})
}

// Reset implements interactive.Node. The allocation is dropped and the DAC
// exchange starts over.
func (n *node) Reset(ctx context.Context) error {
	return n.do(ctx, func() error {
		if err := n.thing.ResetToUnconfigured(); err != nil {
			return err
		}
		return n.start(ctx)
	})
}

// SetReceiveInterval implements interactive.Node.
func (n *node) SetReceiveInterval(ctx context.Context, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("negative interval %v", d)
	}
	return n.do(ctx, func() error {
		n.thing.SetReceiveInterval(d)
		return nil
	})
}

func (n *node) debugLog(msg string, args ...any) {
	if n.config.Logger != nil {
		n.config.Logger.Debug(msg, args...)
	}
}

func (n *node) warnLog(msg string, args ...any) {
	if n.config.Logger != nil {
		n.config.Logger.Warn(msg, args...)
	}
}
