package thing

import (
	"errors"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
)

// Configuration errors.
var (
	// ErrMissingCapability indicates a required collaborator was not configured.
	ErrMissingCapability = errors.New("missing capability")
)

// Collaborator failures.
var (
	ErrInitializeRadio    = errors.New("failed to initialize radio")
	ErrConfigureRadio     = errors.New("failed to configure radio")
	ErrChangeRadioAddress = errors.New("failed to change radio address")
	ErrPersistence        = errors.New("failed to persist thing info")
	ErrGenerateThingID    = errors.New("failed to generate thing id")
	ErrConfigureProtocols = errors.New("failed to configure thing protocols")
)

// DAC step failures.
var (
	ErrDacIntroduction = errors.New("DAC introduction failed")
	ErrDacIsConfigured = errors.New("DAC is-configured query failed")
	ErrDacAllocation   = errors.New("DAC allocation failed")
)

// Periodic work failures.
var (
	ErrProcessReceivedData = errors.New("failed to process received data")
	ErrAcquireData         = errors.New("failed to acquire data")
	ErrMakeTinyID          = errors.New("failed to make tiny id")
	ErrDataAcquisition     = errors.New("data acquisition failed")
)

// Runtime errors.
var (
	ErrNotAThingYet           = errors.New("not a thing yet")
	ErrUnknownProtocolName    = errors.New("unknown protocol name")
	ErrNoRegisteredProcessor  = errors.New("no registered processor")
	ErrNotSuitableDacProtocol = errors.New("not a suitable DAC protocol")
	ErrInvalidDacState        = errors.New("invalid DAC state")
	ErrThingIDTooLong         = errors.New("thing id too long")
)

// Allocation errors, shared with the commissioning package.
var (
	ErrLackOfAllocationParameters = commissioning.ErrLackOfAllocationParameters
	ErrIllegalAllocatedAddress    = commissioning.ErrIllegalAllocatedAddress
	ErrIllegalUplinkChannel       = commissioning.ErrIllegalUplinkChannel
)
