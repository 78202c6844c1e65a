package thing

import (
	"context"
	"fmt"

	"github.com/mud-protocol/tuxp-go/pkg/tinyid"
	"github.com/mud-protocol/tuxp-go/pkg/wire"
)

// acquireData fires every data handler whose interval has elapsed and
// reports what it produced.
func (t *Thing) acquireData(ctx context.Context) error {
	for _, entry := range t.registry.data {
		now := t.config.Clock.Milliseconds()
		if !entry.due(now) {
			continue
		}

		data := wire.New(entry.name)
		if entry.handler == nil {
			return fmt.Errorf("%w: %s", ErrNoRegisteredProcessor, entry.name)
		}
		if err := entry.handler(data); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAcquireData, entry.name, err)
		}
		entry.fired = true
		entry.lastFired = now

		id, err := tinyid.FromPassedMilliseconds(int(t.LanID()), tinyid.KindRequest, tinyid.TimeOfDay(now))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMakeTinyID, err)
		}
		if err := t.Report(ctx, id, data); err != nil {
			return err
		}
	}
	return nil
}
