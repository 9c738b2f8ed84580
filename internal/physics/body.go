package physics

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/cory-johannsen/zombiex/internal/game/entity"
)

// Body is a combatant's kinematic circle. It satisfies entity.Locator and is
// the collision volume other combatants contact.
type Body struct {
	world    *World
	handle   entity.Handle
	category entity.Category
	radius   float64
	body     *cp.Body
	// shape is nil once colliders are disabled.
	shape *cp.Shape
	nav   *Navigator
}

// Handle returns the owning combatant's handle.
func (b *Body) Handle() entity.Handle { return b.handle }

// Category returns the collision category.
func (b *Body) Category() entity.Category { return b.category }

// Radius returns the collider radius.
func (b *Body) Radius() float64 { return b.radius }

// Position returns the body's center.
func (b *Body) Position() cp.Vector { return b.body.Position() }

// Velocity returns the body's current velocity.
func (b *Body) Velocity() cp.Vector { return b.body.Velocity() }

// SetPosition teleports the body. The collider is re-added so spatial
// queries see the new position before the next Step.
func (b *Body) SetPosition(p cp.Vector) {
	b.body.SetPosition(p)
	if b.shape != nil {
		b.world.space.RemoveShape(b.shape)
		b.world.space.AddShape(b.shape)
	}
}

// ClosestPoint returns the point on the collider's surface nearest p. With
// colliders disabled it returns the body's center.
func (b *Body) ClosestPoint(p cp.Vector) cp.Vector {
	if b.shape == nil {
		return b.Position()
	}
	return b.shape.PointQuery(p).Point
}

// CollidersEnabled reports whether the body still blocks and can be queried.
func (b *Body) CollidersEnabled() bool { return b.shape != nil }

// DisableColliders removes the collider from the space. Idempotent.
func (b *Body) DisableColliders() {
	if b.shape == nil {
		return
	}
	b.world.space.RemoveShape(b.shape)
	b.shape.UserData = nil
	b.shape = nil
}

// Navigator returns the body's movement controller.
func (b *Body) Navigator() *Navigator { return b.nav }

func (b *Body) clamp(bounds Bounds) {
	p := b.Position()
	c := cp.Vector{
		X: clamp(p.X, b.radius, bounds.Width-b.radius),
		Y: clamp(p.Y, b.radius, bounds.Height-b.radius),
	}
	if c != p {
		b.SetPosition(c)
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}
