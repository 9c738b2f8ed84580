// Package clock provides the monotonic simulation clock shared by every
// timed combat component.
package clock

import (
	"sync"
	"time"
)

// Clock reports elapsed simulation time since start.
//
// Invariant: successive calls to Now never decrease.
type Clock interface {
	Now() time.Duration
}

// Manual is a Clock advanced explicitly by the owner. The simulation uses it
// as its frame clock and tests use it to step through cooldown windows.
// It is safe for concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Duration
}

// NewManual returns a Manual clock positioned at start.
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual time.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d and returns the new time.
//
// Precondition: d >= 0 (negative values are ignored).
// Postcondition: Now() increases by max(d, 0).
func (m *Manual) Advance(d time.Duration) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.now += d
	}
	return m.now
}
