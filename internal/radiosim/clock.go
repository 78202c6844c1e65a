package radiosim

import (
	"sync"
	"time"
)

// ManualClock is a millisecond clock that only moves when told to.
type ManualClock struct {
	mu sync.Mutex
	ms int64
}

// NewManualClock creates a clock reading ms.
func NewManualClock(ms int64) *ManualClock {
	return &ManualClock{ms: ms}
}

// Milliseconds returns the current reading.
func (c *ManualClock) Milliseconds() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.ms += d.Milliseconds()
	c.mu.Unlock()
}

// Set sets the reading.
func (c *ManualClock) Set(ms int64) {
	c.mu.Lock()
	c.ms = ms
	c.mu.Unlock()
}

// Resetter counts device resets.
type Resetter struct {
	mu    sync.Mutex
	count int

	// OnReset is called after each reset when set.
	OnReset func()
}

// Reset records a reset.
func (r *Resetter) Reset() {
	r.mu.Lock()
	r.count++
	fn := r.OnReset
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Count returns the number of resets.
func (r *Resetter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
