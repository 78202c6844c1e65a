package thing

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/log"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// DefaultReceiveInterval is the minimum time between two radio reads.
const DefaultReceiveInterval = 1000 * time.Millisecond

// Persistence loads and saves the commissioning record.
type Persistence interface {
	// Load returns the stored record, or nil and no error on a fresh device.
	Load() (*commissioning.ThingInfo, error)

	// Save stores the record.
	Save(info *commissioning.ThingInfo) error
}

// Identity provides the thing id and registration code of this device.
type Identity interface {
	GenerateThingID() (string, error)
	RegistrationCode() (string, error)
}

// Clock is a monotonic millisecond clock.
type Clock interface {
	Milliseconds() int64
}

// Resetter restarts the device.
type Resetter interface {
	Reset()
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

// Milliseconds implements Clock.
func (f ClockFunc) Milliseconds() int64 { return f() }

// ResetterFunc adapts a function to Resetter.
type ResetterFunc func()

// Reset implements Resetter.
func (f ResetterFunc) Reset() { f() }

// Config configures a Thing.
type Config struct {
	// Persistence stores the commissioning record.
	Persistence Persistence

	// Radio moves frames to and from the air.
	Radio transport.Radio

	// Identity generates the thing id and supplies the registration code.
	Identity Identity

	// Clock drives receive rate limiting and data acquisition.
	Clock Clock

	// Resetter is called after the DAC service refuses the allocation.
	Resetter Resetter

	// ProtocolConfigurer registers the operational handlers. It is called
	// whenever the thing becomes CONFIGURED. Optional.
	ProtocolConfigurer func(*Thing) error

	// ReceiveInterval is the minimum time between two radio reads.
	ReceiveInterval time.Duration

	// IntN returns a uniform random number in [0, n). It picks the uplink
	// channel. Defaults to math/rand/v2.
	IntN func(n int) int

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger captures structured protocol events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with sensible defaults. The capabilities
// still have to be set.
func DefaultConfig() Config {
	return Config{
		ReceiveInterval: DefaultReceiveInterval,
		IntN:            rand.IntN,
	}
}

// Validate checks every required capability is present.
func (c *Config) Validate() error {
	missing := ""
	switch {
	case c.Persistence == nil:
		missing = "persistence"
	case c.Radio == nil:
		missing = "radio"
	case c.Identity == nil:
		missing = "identity"
	case c.Clock == nil:
		missing = "clock"
	case c.Resetter == nil:
		missing = "resetter"
	}
	if missing != "" {
		return fmt.Errorf("%w: %s", ErrMissingCapability, missing)
	}
	if c.ReceiveInterval < 0 {
		return fmt.Errorf("negative receive interval %v", c.ReceiveInterval)
	}
	return nil
}
