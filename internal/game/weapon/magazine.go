package weapon

import (
	"errors"
	"fmt"
)

// Magazine tracks the loaded rounds and the reserve for one weapon.
// Invariant: 0 <= Loaded <= Capacity; Reserve >= 0.
type Magazine struct {
	// Loaded is the number of rounds in the magazine.
	Loaded int
	// Capacity is the maximum number of rounds the magazine can hold.
	Capacity int
	// Reserve is the ammunition carried outside the magazine.
	Reserve int
}

// NewMagazine returns a fully loaded Magazine backed by reserve spare rounds.
//
// Precondition:  capacity > 0 and reserve >= 0 (panics otherwise).
// Postcondition: Loaded == Capacity == capacity; Reserve == reserve.
func NewMagazine(capacity, reserve int) *Magazine {
	if capacity <= 0 {
		panic(fmt.Sprintf("weapon: NewMagazine: capacity must be > 0, got %d", capacity))
	}
	if reserve < 0 {
		panic(fmt.Sprintf("weapon: NewMagazine: reserve must be >= 0, got %d", reserve))
	}
	return &Magazine{
		Loaded:   capacity,
		Capacity: capacity,
		Reserve:  reserve,
	}
}

// IsEmpty returns true when Loaded <= 0.
func (m *Magazine) IsEmpty() bool {
	return m.Loaded <= 0
}

// IsFull returns true when Loaded >= Capacity.
func (m *Magazine) IsFull() bool {
	return m.Loaded >= m.Capacity
}

// Consume removes n rounds from the magazine.
//
// Precondition:  n > 0 (panics if n <= 0).
// Postcondition: on success Loaded decreases by n; returns error if Loaded < n.
func (m *Magazine) Consume(n int) error {
	if n <= 0 {
		panic(fmt.Sprintf("weapon: Magazine.Consume: n must be > 0, got %d", n))
	}
	if m.Loaded < n {
		return errors.New("weapon: Magazine.Consume: insufficient rounds loaded")
	}
	m.Loaded -= n
	return nil
}

// Refill moves rounds from the reserve into the magazine.
//
// Postcondition: moved == min(Capacity-Loaded, Reserve); Loaded+Reserve is
// unchanged.
func (m *Magazine) Refill() (moved int) {
	moved = min(m.Capacity-m.Loaded, m.Reserve)
	if moved <= 0 {
		return 0
	}
	m.Loaded += moved
	m.Reserve -= moved
	return moved
}

// Fill restores Loaded to Capacity without touching the reserve. Used when
// a weapon is re-armed on enable.
//
// Postcondition: Loaded == Capacity.
func (m *Magazine) Fill() {
	m.Loaded = m.Capacity
}

// AddReserve adds n spare rounds. Non-positive n is ignored.
func (m *Magazine) AddReserve(n int) {
	if n > 0 {
		m.Reserve += n
	}
}
