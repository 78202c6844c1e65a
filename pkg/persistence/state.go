package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
	"github.com/mud-protocol/tuxp-go/pkg/transport"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ThingState is the JSON form of a thing's commissioning record.
type ThingState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// ThingID is the generated thing id.
	ThingID string `json:"thing_id"`

	// State is the DAC state name.
	State commissioning.DacState `json:"state"`

	// Allocation is present once the thing is ALLOCATED or CONFIGURED.
	Allocation *AllocationState `json:"allocation,omitempty"`
}

// AllocationState is the JSON form of an allocation.
type AllocationState struct {
	UplinkChannelBegin int               `json:"uplink_channel_begin"`
	UplinkChannelEnd   int               `json:"uplink_channel_end"`
	UplinkAddressHigh  byte              `json:"uplink_address_high"`
	UplinkAddressLow   byte              `json:"uplink_address_low"`
	Address            transport.Address `json:"address"`
}

// NewThingState converts a commissioning record.
func NewThingState(info *commissioning.ThingInfo) *ThingState {
	state := &ThingState{
		ThingID: info.ThingID,
		State:   info.State,
	}
	if alloc := info.Allocation(); alloc != nil {
		state.Allocation = &AllocationState{
			UplinkChannelBegin: alloc.UplinkChannelBegin,
			UplinkChannelEnd:   alloc.UplinkChannelEnd,
			UplinkAddressHigh:  alloc.UplinkAddressHigh,
			UplinkAddressLow:   alloc.UplinkAddressLow,
			Address:            alloc.Address,
		}
	}
	return state
}

// ThingInfo converts the state back to a commissioning record.
func (s *ThingState) ThingInfo() *commissioning.ThingInfo {
	info := commissioning.NewThingInfo()
	info.ThingID = s.ThingID
	info.State = s.State
	if a := s.Allocation; a != nil {
		info.ApplyAllocation(&commissioning.Allocation{
			UplinkChannelBegin: a.UplinkChannelBegin,
			UplinkChannelEnd:   a.UplinkChannelEnd,
			UplinkAddressHigh:  a.UplinkAddressHigh,
			UplinkAddressLow:   a.UplinkAddressLow,
			Address:            a.Address,
		})
	}
	return info
}

// JSONStore persists a thing's commissioning record to a JSON file.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

// NewJSONStore creates a store writing to path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the file the store writes.
func (s *JSONStore) Path() string {
	return s.path
}

// Save persists the record to disk.
func (s *JSONStore) Save(info *commissioning.ThingInfo) error {
	return s.SaveState(NewThingState(info))
}

// Load reads the record from disk.
// Returns nil, nil if the file doesn't exist (fresh device).
func (s *JSONStore) Load() (*commissioning.ThingInfo, error) {
	state, err := s.LoadState()
	if err != nil || state == nil {
		return nil, err
	}
	return state.ThingInfo(), nil
}

// SaveState persists the state to disk.
func (s *JSONStore) SaveState(state *ThingState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path, func(now time.Time) any {
		state.Version = StateVersion
		if state.SavedAt.IsZero() {
			state.SavedAt = now
		}
		return state
	})
}

// LoadState reads the state from disk.
// Returns nil, nil if the file doesn't exist.
func (s *JSONStore) LoadState() (*ThingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &ThingState{}
	found, err := readJSON(s.path, state)
	if !found {
		return nil, err
	}
	return state, nil
}

// Clear removes the state file.
func (s *JSONStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(s.path)
}

// GatewayState contains the allocation table of a gateway.
type GatewayState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// NextLanID is the LAN id the next new thing receives.
	NextLanID int `json:"next_lan_id"`

	// Things contains every thing the gateway allocated.
	Things []ThingRecord `json:"things,omitempty"`
}

// ThingRecord contains what a gateway knows about one thing.
type ThingRecord struct {
	// ThingID is the id the thing introduced itself with.
	ThingID string `json:"thing_id"`

	// Address is the allocated radio address.
	Address transport.Address `json:"address"`

	// Allocated is set once the thing acknowledged the allocation.
	Allocated bool `json:"allocated,omitempty"`

	// Configured is set once the thing was told to go operational.
	Configured bool `json:"configured,omitempty"`
}

// GatewayStateStore manages persistence of gateway state to a JSON file.
type GatewayStateStore struct {
	mu   sync.Mutex
	path string
}

// NewGatewayStateStore creates a new gateway state store.
func NewGatewayStateStore(path string) *GatewayStateStore {
	return &GatewayStateStore{path: path}
}

// Save persists the gateway state to disk.
func (s *GatewayStateStore) Save(state *GatewayState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path, func(now time.Time) any {
		state.Version = StateVersion
		if state.SavedAt.IsZero() {
			state.SavedAt = now
		}
		return state
	})
}

// Load reads the gateway state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *GatewayStateStore) Load() (*GatewayState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &GatewayState{}
	found, err := readJSON(s.path, state)
	if !found {
		return nil, err
	}
	return state, nil
}

// Clear removes the state file.
func (s *GatewayStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(s.path)
}

func writeJSON(path string, stamp func(now time.Time) any) error {
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(stamp(time.Now()), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// readJSON decodes path into v. found is false when the file is missing or
// cannot be decoded.
func readJSON(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

func removeFile(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
