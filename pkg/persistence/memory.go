package persistence

import (
	"sync"

	"github.com/mud-protocol/tuxp-go/pkg/commissioning"
)

// MemoryStore keeps the commissioning record in memory.
type MemoryStore struct {
	mu      sync.Mutex
	info    *commissioning.ThingInfo
	saves   int
	loadErr error
	saveErr error
}

// NewMemoryStore creates a store holding info. Pass nil for a fresh device.
func NewMemoryStore(info *commissioning.ThingInfo) *MemoryStore {
	return &MemoryStore{info: info.Clone()}
}

// Load returns a copy of the stored record.
func (s *MemoryStore) Load() (*commissioning.ThingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.info.Clone(), nil
}

// Save stores a copy of info.
func (s *MemoryStore) Save(info *commissioning.ThingInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.info = info.Clone()
	s.saves++
	return nil
}

// Saves returns the number of successful saves.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// SetErrors makes Load and Save fail. Pass nil to clear.
func (s *MemoryStore) SetErrors(load, save error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = load
	s.saveErr = save
}
