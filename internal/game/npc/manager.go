package npc

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/zombiex/internal/game/entity"
)

// Manager tracks every spawned enemy by handle in spawn order.
// All methods are safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	enemies map[entity.Handle]*Enemy
	order   []entity.Handle
}

// NewManager creates an empty enemy Manager.
func NewManager() *Manager {
	return &Manager{enemies: make(map[entity.Handle]*Enemy)}
}

// Add registers e.
//
// Precondition: e must be non-nil.
// Postcondition: Returns an error if e's handle is already tracked.
func (m *Manager) Add(e *Enemy) error {
	if e == nil {
		return fmt.Errorf("npc.Manager.Add: enemy must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.enemies[e.Handle()]; exists {
		return fmt.Errorf("npc.Manager.Add: enemy %s already tracked", e.Handle())
	}
	m.enemies[e.Handle()] = e
	m.order = append(m.order, e.Handle())
	return nil
}

// Remove deletes an enemy by handle.
//
// Postcondition: Returns an error if the enemy is not found.
func (m *Manager) Remove(h entity.Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enemies[h]; !ok {
		return fmt.Errorf("npc enemy %s not found", h)
	}
	delete(m.enemies, h)
	for i, id := range m.order {
		if id == h {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the enemy with the given handle.
//
// Postcondition: Returns (e, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(h entity.Handle) (*Enemy, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.enemies[h]
	return e, ok
}

// All returns a snapshot of every tracked enemy in spawn order.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) All() []*Enemy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Enemy, 0, len(m.order))
	for _, h := range m.order {
		out = append(out, m.enemies[h])
	}
	return out
}

// Dead returns a snapshot of tracked enemies that have died.
func (m *Manager) Dead() []*Enemy {
	var out []*Enemy
	for _, e := range m.All() {
		if e.Dead() {
			out = append(out, e)
		}
	}
	return out
}

// LiveCount returns the number of tracked enemies still alive.
func (m *Manager) LiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.enemies {
		if !e.Dead() {
			n++
		}
	}
	return n
}

// Count returns the number of tracked enemies.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.enemies)
}
