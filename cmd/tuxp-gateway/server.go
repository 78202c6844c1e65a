package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"time"

	"github.com/mud-protocol/tuxp-go/cmd/tuxp-gateway/interactive"
	"github.com/mud-protocol/tuxp-go/internal/gatewaysim"
	"github.com/mud-protocol/tuxp-go/pkg/persistence"
)

// errNoStateFile is returned by Save when the allocation table is not
// persisted.
var errNoStateFile = errors.New("no state file configured")

// server polls the gateway and keeps its allocation table on disk.
type server struct {
	*gatewaysim.Gateway

	store  *persistence.GatewayStateStore
	poll   time.Duration
	logger *slog.Logger
}

var _ interactive.Gateway = (*server)(nil)

// newServer creates the gateway and restores the saved allocation table.
// A nil store keeps the table in memory only.
func newServer(config gatewaysim.Config, store *persistence.GatewayStateStore, poll time.Duration) (*server, error) {
	gw, err := gatewaysim.New(config)
	if err != nil {
		return nil, err
	}
	s := &server{
		Gateway: gw,
		store:   store,
		poll:    poll,
		logger:  config.Logger,
	}

	if store != nil {
		state, err := store.Load()
		if err != nil {
			return nil, err
		}
		if err := gw.Restore(state); err != nil {
			return nil, err
		}
		if state != nil {
			log.Printf("Restored %d thing(s)", len(state.Things))
		}
	}

	gw.OnEvent(s.handleEvent)
	return s, nil
}

// Run polls the link until ctx is canceled.
func (s *server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Poll(ctx); err != nil && ctx.Err() == nil {
				s.warnLog("poll failed", "error", err)
			}
		}
	}
}

// Save writes the allocation table.
func (s *server) Save() error {
	if s.store == nil {
		return errNoStateFile
	}
	return s.store.Save(s.Snapshot())
}

func (s *server) handleEvent(e gatewaysim.Event) {
	switch e.Type {
	case gatewaysim.EventIntroduced, gatewaysim.EventAllocated,
		gatewaysim.EventConfigured, gatewaysim.EventNotConfigured:
		log.Printf("[%s] %s %s", e.Type, e.ThingID, e.Address)
		s.persist()
	case gatewaysim.EventRefused:
		log.Printf("[%s] %s presented a wrong registration code", e.Type, e.ThingID)
	case gatewaysim.EventNotification, gatewaysim.EventReport:
		log.Printf("[%s] %s from lan %d: %s", e.Type, e.Envelope.ID, e.Envelope.ID.LanID(), e.Envelope.Body)
	case gatewaysim.EventAnswer:
		if e.Answer.Code != 0 {
			log.Printf("[%s] %s failed with code %d", e.Type, e.Answer.ID, e.Answer.Code)
			return
		}
		log.Printf("[%s] %s ok", e.Type, e.Answer.ID)
	}
}

// persist saves the table after a DAC event. Failures are logged; the
// table is saved again on the next event.
func (s *server) persist() {
	if s.store == nil {
		return
	}
	if err := s.Save(); err != nil {
		s.warnLog("save allocation table failed", "error", err)
	}
}

func (s *server) warnLog(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
