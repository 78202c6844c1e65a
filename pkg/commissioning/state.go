package commissioning

import (
	"fmt"
)

// DacState is the commissioning state of a thing.
type DacState uint8

// DAC states. The numeric values are the persisted state bytes.
const (
	StateNone DacState = iota
	StateInitial
	StateIntroducting
	StateAllocating
	StateAllocated
	StateConfigured
)

var stateNames = map[DacState]string{
	StateNone:         "NONE",
	StateInitial:      "INITIAL",
	StateIntroducting: "INTRODUCTING",
	StateAllocating:   "ALLOCATING",
	StateAllocated:    "ALLOCATED",
	StateConfigured:   "CONFIGURED",
}

// String returns the state name.
func (s DacState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
}

// Valid reports whether s is a known state.
func (s DacState) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

// HasAllocation reports whether a thing in this state holds an allocation.
func (s DacState) HasAllocation() bool {
	return s == StateAllocated || s == StateConfigured
}

// MarshalText implements encoding.TextMarshaler.
func (s DacState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown DAC state %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *DacState) UnmarshalText(text []byte) error {
	state, err := ParseDacState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// ParseDacState returns the state with the given name.
func ParseDacState(name string) (DacState, error) {
	for state, n := range stateNames {
		if n == name {
			return state, nil
		}
	}
	return StateNone, fmt.Errorf("unknown DAC state %q", name)
}
