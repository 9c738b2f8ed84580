// Package entity provides living combatants, the damage capability shared by
// every target type, and the registry that owns combatant lifetime.
package entity

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jakecoffman/cp"
)

// Handle identifies a combatant in a Registry. The zero Handle refers to
// nothing.
type Handle string

// NewHandle returns a fresh unique Handle.
func NewHandle() Handle {
	return Handle(uuid.New().String())
}

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool {
	return h == ""
}

// Damageable is implemented by anything that can receive a hit.
type Damageable interface {
	// ApplyDamage applies amount at point. normal points from the hit
	// surface toward the attacker.
	ApplyDamage(amount float64, point, normal cp.Vector)
}

// Combatant is a registered, damageable participant in the simulation.
type Combatant interface {
	Damageable
	Handle() Handle
	Dead() bool
	Position() cp.Vector
}

// Locator reports a world position. Physics bodies implement it.
type Locator interface {
	Position() cp.Vector
}

// StaticLocator is a Locator fixed at one point.
type StaticLocator cp.Vector

// Position returns the fixed point.
func (s StaticLocator) Position() cp.Vector {
	return cp.Vector(s)
}

// Entity is the living base shared by players and enemies: health
// accounting, the dead flag and death notification.
//
// Invariant: once dead, health changes are ignored until Revive.
type Entity struct {
	handle         Handle
	startingHealth float64
	health         float64
	dead           bool
	locator        Locator
	onDeath        []func()
	onDamaged      []func(amount float64)
}

// New returns a live Entity with health == startingHealth positioned at the
// origin.
//
// Precondition: startingHealth > 0 (panics otherwise).
func New(startingHealth float64) *Entity {
	return NewWithHandle(NewHandle(), startingHealth)
}

// NewWithHandle is New with a caller-chosen handle, used when the physics
// body is created before the entity.
//
// Precondition: h is non-zero and startingHealth > 0 (panics otherwise).
func NewWithHandle(h Handle, startingHealth float64) *Entity {
	if h.IsZero() {
		panic("entity.NewWithHandle: handle must not be zero")
	}
	if startingHealth <= 0 {
		panic(fmt.Sprintf("entity.New: startingHealth must be > 0, got %v", startingHealth))
	}
	return &Entity{
		handle:         h,
		startingHealth: startingHealth,
		health:         startingHealth,
		locator:        StaticLocator{},
	}
}

// Handle returns the entity's registry handle.
func (e *Entity) Handle() Handle { return e.handle }

// Health returns current health.
func (e *Entity) Health() float64 { return e.health }

// StartingHealth returns the health restored by Revive.
func (e *Entity) StartingHealth() float64 { return e.startingHealth }

// Dead reports whether the entity has died.
func (e *Entity) Dead() bool { return e.dead }

// Position returns the current world position from the attached locator.
func (e *Entity) Position() cp.Vector { return e.locator.Position() }

// SetLocator attaches the source of the entity's position.
//
// Precondition: l must not be nil.
func (e *Entity) SetLocator(l Locator) {
	if l == nil {
		panic("entity.SetLocator: locator must not be nil")
	}
	e.locator = l
}

// SetStartingHealth sets both starting and current health.
//
// Precondition: health > 0 (values <= 0 are ignored).
func (e *Entity) SetStartingHealth(health float64) {
	if health <= 0 {
		return
	}
	e.startingHealth = health
	e.health = health
}

// OnDeath registers fn to run once when the entity dies. Listeners run in
// registration order.
func (e *Entity) OnDeath(fn func()) {
	e.onDeath = append(e.onDeath, fn)
}

// OnDamaged registers fn to run after every damage application that lands
// on a live entity, including the killing blow.
func (e *Entity) OnDamaged(fn func(amount float64)) {
	e.onDamaged = append(e.onDamaged, fn)
}

// Revive returns the entity to life at starting health. Death listeners stay
// registered.
//
// Postcondition: Dead() == false; Health() == StartingHealth().
func (e *Entity) Revive() {
	e.dead = false
	e.health = e.startingHealth
}

// ApplyDamage subtracts amount from health and kills the entity when health
// reaches zero. Ignored when dead.
func (e *Entity) ApplyDamage(amount float64, _, _ cp.Vector) {
	if e.dead {
		return
	}
	e.health -= amount
	for _, fn := range e.onDamaged {
		fn(amount)
	}
	if e.health <= 0 {
		e.Die()
	}
}

// RestoreHealth adds amount to health up to starting health. Ignored when
// dead.
func (e *Entity) RestoreHealth(amount float64) {
	if e.dead || amount <= 0 {
		return
	}
	e.health = min(e.health+amount, e.startingHealth)
}

// Die marks the entity dead and notifies listeners. Subsequent calls are
// no-ops.
func (e *Entity) Die() {
	if e.dead {
		return
	}
	e.dead = true
	if e.health > 0 {
		e.health = 0
	}
	for _, fn := range e.onDeath {
		fn()
	}
}

// Category is a collision category bit used to filter spatial queries.
type Category uint

// Combatant categories.
const (
	CategoryPlayer Category = 1 << iota
	CategoryEnemy
	CategoryWall
)
