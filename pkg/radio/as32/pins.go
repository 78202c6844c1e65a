package as32

import (
	"fmt"

	"go.bug.st/serial"
)

// Mode is the operating mode selected by the MD0 and MD1 pins.
type Mode uint8

const (
	// ModeTransmit is normal operation, MD0 and MD1 low.
	ModeTransmit Mode = iota
	// ModeConfig accepts configuration commands, MD0 and MD1 high.
	ModeConfig
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeTransmit:
		return "TRANSMIT"
	case ModeConfig:
		return "CONFIG"
	default:
		return "UNKNOWN"
	}
}

// ModePins switches the module between its modes.
type ModePins interface {
	SetMode(m Mode) error
}

// SerialPins drives MD0 through DTR and MD1 through RTS.
type SerialPins struct {
	Port serial.Port
}

// SetMode implements ModePins.
func (p SerialPins) SetMode(m Mode) error {
	high := m == ModeConfig
	if err := p.Port.SetDTR(high); err != nil {
		return fmt.Errorf("set MD0: %w", err)
	}
	if err := p.Port.SetRTS(high); err != nil {
		return fmt.Errorf("set MD1: %w", err)
	}
	return nil
}

// NopPins is used when the mode pins are switched outside this program.
type NopPins struct{}

// SetMode implements ModePins.
func (NopPins) SetMode(Mode) error { return nil }
