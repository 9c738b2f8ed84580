// Package physics is the top-down collision world backing the combat core.
// It answers spatial and ray queries, reports combatant overlaps and moves
// kinematic bodies toward navigator destinations.
package physics

import (
	"fmt"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zombiex/internal/game/entity"
)

// wallCategory marks static geometry in shape filters.
const wallCategory = uint(entity.CategoryWall)

// Bounds is the playable rectangle [0,Width] x [0,Height].
type Bounds struct {
	Width  float64
	Height float64
}

// Contains reports whether p lies inside the bounds.
func (b Bounds) Contains(p cp.Vector) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= b.Width && p.Y <= b.Height
}

// Contact is an overlap between two combatant bodies. From is the body whose
// collider was used as the query volume.
type Contact struct {
	From *Body
	To   *Body
}

// World wraps a Chipmunk space with no gravity.
//
// Concurrency: not safe for concurrent use; owned by the simulation goroutine.
type World struct {
	space  *cp.Space
	bounds Bounds
	bodies map[entity.Handle]*Body
	order  []*Body
	logger *zap.Logger
}

// NewWorld creates a world enclosed by boundary walls.
//
// Precondition: bounds.Width and bounds.Height must be > 0.
func NewWorld(bounds Bounds, logger *zap.Logger) (*World, error) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return nil, fmt.Errorf("physics.NewWorld: bounds must be positive, got %vx%v", bounds.Width, bounds.Height)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})
	w := &World{
		space:  space,
		bounds: bounds,
		bodies: make(map[entity.Handle]*Body),
		logger: logger.Named("physics"),
	}
	corners := []cp.Vector{
		{X: 0, Y: 0},
		{X: bounds.Width, Y: 0},
		{X: bounds.Width, Y: bounds.Height},
		{X: 0, Y: bounds.Height},
	}
	for i := range corners {
		w.AddWall(corners[i], corners[(i+1)%len(corners)], 0.5)
	}
	return w, nil
}

// Bounds returns the playable rectangle.
func (w *World) Bounds() Bounds { return w.bounds }

// AddWall adds a static segment of the given thickness.
func (w *World) AddWall(a, b cp.Vector, thickness float64) {
	shape := cp.NewSegment(w.space.StaticBody, a, b, thickness)
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, wallCategory, cp.ALL_CATEGORIES))
	w.space.AddShape(shape)
}

// AddCombatant adds a kinematic circle for h at pos.
//
// Precondition: h is non-zero and not already present; radius > 0.
// Postcondition: the body is visible to queries immediately.
func (w *World) AddCombatant(h entity.Handle, pos cp.Vector, radius float64, category entity.Category) (*Body, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("physics.AddCombatant: handle must not be zero")
	}
	if radius <= 0 {
		return nil, fmt.Errorf("physics.AddCombatant: radius must be > 0, got %v", radius)
	}
	if _, exists := w.bodies[h]; exists {
		return nil, fmt.Errorf("physics.AddCombatant: %s already present", h)
	}

	cpBody := cp.NewKinematicBody()
	cpBody.SetPosition(pos)
	shape := cp.NewCircle(cpBody, radius, cp.Vector{})
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, uint(category), cp.ALL_CATEGORIES))

	b := &Body{
		world:    w,
		handle:   h,
		category: category,
		radius:   radius,
		body:     cpBody,
		shape:    shape,
	}
	shape.UserData = b
	b.nav = newNavigator(b)

	w.space.AddBody(cpBody)
	w.space.AddShape(shape)

	w.bodies[h] = b
	w.order = append(w.order, b)
	w.logger.Debug("combatant added",
		zap.String("handle", string(h)),
		zap.Uint("category", uint(category)),
		zap.Float64("x", pos.X),
		zap.Float64("y", pos.Y),
	)
	return b, nil
}

// Body returns the body registered for h.
func (w *World) Body(h entity.Handle) (*Body, bool) {
	b, ok := w.bodies[h]
	return b, ok
}

// Remove deletes h's body and shape from the world.
func (w *World) Remove(h entity.Handle) error {
	b, ok := w.bodies[h]
	if !ok {
		return fmt.Errorf("physics.Remove: %s not present", h)
	}
	b.DisableColliders()
	w.space.RemoveBody(b.body)
	delete(w.bodies, h)
	for i, o := range w.order {
		if o == b {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return nil
}

// QueryInRadius returns the handles of combatants in category whose collider
// intersects the circle. Results are deduplicated and keep the order the
// space reports them in.
func (w *World) QueryInRadius(center cp.Vector, radius float64, category entity.Category) []entity.Handle {
	var out []entity.Handle
	seen := make(map[entity.Handle]bool)
	w.circleQuery(center, radius, uint(category), func(b *Body) {
		if seen[b.handle] {
			return
		}
		seen[b.handle] = true
		out = append(out, b.handle)
	})
	return out
}

// circleQuery calls fn for every combatant body in mask whose collider
// reaches within radius of center. Candidates come from the space's bounding
// box index and are confirmed against the collider surface.
func (w *World) circleQuery(center cp.Vector, radius float64, mask uint, fn func(*Body)) {
	filter := cp.NewShapeFilter(cp.NO_GROUP, cp.ALL_CATEGORIES, mask)
	w.space.BBQuery(cp.NewBBForCircle(center, radius), filter, func(shape *cp.Shape, _ interface{}) {
		b, ok := shape.UserData.(*Body)
		if !ok {
			return
		}
		if shape.PointQuery(center).Distance > radius {
			return
		}
		fn(b)
	}, nil)
}

// Raycast returns the first intersection along dir within maxDistance
// against every collider. The handle is zero when a wall was hit.
func (w *World) Raycast(origin, dir cp.Vector, maxDistance float64) (cp.Vector, cp.Vector, entity.Handle, bool) {
	return w.raycast(origin, dir, maxDistance, cp.ALL_CATEGORIES)
}

// MaskedRay casts rays that only see colliders in mask.
type MaskedRay struct {
	world *World
	mask  uint
}

// RayMask returns a ray caster restricted to the given categories. Walls are
// always included.
func (w *World) RayMask(mask entity.Category) MaskedRay {
	return MaskedRay{world: w, mask: uint(mask) | wallCategory}
}

// Raycast behaves like World.Raycast restricted to the mask.
func (r MaskedRay) Raycast(origin, dir cp.Vector, maxDistance float64) (cp.Vector, cp.Vector, entity.Handle, bool) {
	return r.world.raycast(origin, dir, maxDistance, r.mask)
}

func (w *World) raycast(origin, dir cp.Vector, maxDistance float64, mask uint) (cp.Vector, cp.Vector, entity.Handle, bool) {
	if maxDistance <= 0 || dir.Length() == 0 {
		return cp.Vector{}, cp.Vector{}, "", false
	}
	dir = dir.Normalize()
	filter := cp.NewShapeFilter(cp.NO_GROUP, cp.ALL_CATEGORIES, mask)
	// A segment query skips shapes that contain its start, so a collider
	// overlapping the origin is hit point-blank.
	if inside := w.space.PointQueryNearest(origin, 0, filter); inside != nil && inside.Shape != nil && inside.Distance < 0 {
		var h entity.Handle
		if b, ok := inside.Shape.UserData.(*Body); ok {
			h = b.handle
		}
		return origin, dir.Neg(), h, true
	}
	end := origin.Add(dir.Mult(maxDistance))
	info := w.space.SegmentQueryFirst(origin, end, 0, filter)
	if info.Shape == nil {
		return cp.Vector{}, cp.Vector{}, "", false
	}
	var h entity.Handle
	if b, ok := info.Shape.UserData.(*Body); ok {
		h = b.handle
	}
	return info.Point, info.Normal, h, true
}

// Contacts reports every overlap between a body in from and a body in to.
// Bodies without colliders never appear.
func (w *World) Contacts(from, to entity.Category) []Contact {
	var out []Contact
	for _, b := range w.order {
		if b.category != from || b.shape == nil {
			continue
		}
		self := b
		w.circleQuery(b.Position(), b.radius, uint(to), func(other *Body) {
			if other != self {
				out = append(out, Contact{From: self, To: other})
			}
		})
	}
	return out
}

// Step steers every navigator, integrates the space by dt and keeps bodies
// inside the bounds.
func (w *World) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	seconds := dt.Seconds()
	for _, b := range w.order {
		b.nav.steer(seconds)
	}
	w.space.Step(seconds)
	for _, b := range w.order {
		b.clamp(w.bounds)
	}
}
