package entity

import (
	"fmt"
	"sync"
)

// Registry is the sole owner of combatant lifetime. Components keep Handles
// and resolve them here on every use.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[Handle]Combatant
	order   []Handle
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[Handle]Combatant)}
}

// Register adds c under its handle.
//
// Precondition: c must be non-nil with a non-zero handle.
// Postcondition: returns an error if the handle is already registered.
func (r *Registry) Register(c Combatant) error {
	if c == nil {
		return fmt.Errorf("entity.Registry.Register: combatant must not be nil")
	}
	h := c.Handle()
	if h.IsZero() {
		return fmt.Errorf("entity.Registry.Register: handle must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[h]; ok {
		return fmt.Errorf("entity.Registry.Register: handle %q already registered", h)
	}
	r.entries[h] = c
	r.order = append(r.order, h)
	return nil
}

// Remove deletes the combatant with handle h.
//
// Postcondition: returns an error if h is not registered.
func (r *Registry) Remove(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[h]; !ok {
		return fmt.Errorf("combatant %q not found", h)
	}
	delete(r.entries, h)
	for i, oh := range r.order {
		if oh == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get resolves h regardless of liveness.
func (r *Registry) Get(h Handle) (Combatant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.entries[h]
	return c, ok
}

// Live resolves h only when it refers to a registered combatant that is not
// dead.
func (r *Registry) Live(h Handle) (Combatant, bool) {
	c, ok := r.Get(h)
	if !ok || c.Dead() {
		return nil, false
	}
	return c, true
}

// All returns a snapshot of every registered combatant in registration order.
//
// Postcondition: returns a non-nil slice (may be empty).
func (r *Registry) All() []Combatant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Combatant, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.entries[h])
	}
	return out
}

// Count returns the number of registered combatants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// LiveCount returns the number of registered combatants that are alive.
func (r *Registry) LiveCount() int {
	n := 0
	for _, c := range r.All() {
		if !c.Dead() {
			n++
		}
	}
	return n
}
