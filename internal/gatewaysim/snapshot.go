package gatewaysim

import (
	"fmt"

	"github.com/mud-protocol/tuxp-go/pkg/persistence"
)

// Snapshot returns the allocation table in its persisted form.
func (g *Gateway) Snapshot() *persistence.GatewayState {
	state := &persistence.GatewayState{}
	g.mu.RLock()
	state.NextLanID = g.nextLanID
	g.mu.RUnlock()

	for _, th := range g.Things() {
		state.Things = append(state.Things, persistence.ThingRecord{
			ThingID:    th.ThingID,
			Address:    th.Address,
			Allocated:  th.Allocated,
			Configured: th.Configured,
		})
	}
	return state
}

// Restore replaces the allocation table with a saved one. Executions that
// were pending are forgotten.
func (g *Gateway) Restore(state *persistence.GatewayState) error {
	if state == nil {
		return nil
	}

	things := make(map[string]*Thing, len(state.Things))
	next := max(state.NextLanID, int(g.config.FirstLanID))
	for _, rec := range state.Things {
		if rec.ThingID == "" {
			return fmt.Errorf("%w: record without thing id", ErrInvalidConfig)
		}
		things[rec.ThingID] = &Thing{
			ThingID:    rec.ThingID,
			Address:    rec.Address,
			Allocated:  rec.Allocated,
			Configured: rec.Configured,
		}
		next = max(next, int(rec.Address.LanID())+1)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.things = things
	g.nextLanID = next
	clear(g.pending)
	return nil
}
