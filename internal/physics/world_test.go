package physics_test

import (
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/zombiex/internal/game/entity"
	"github.com/cory-johannsen/zombiex/internal/physics"
)

func newWorld(t require.TestingT) *physics.World {
	w, err := physics.NewWorld(physics.Bounds{Width: 100, Height: 100}, nil)
	require.NoError(t, err)
	return w
}

func add(t require.TestingT, w *physics.World, pos cp.Vector, radius float64, cat entity.Category) *physics.Body {
	b, err := w.AddCombatant(entity.NewHandle(), pos, radius, cat)
	require.NoError(t, err)
	return b
}

func TestNewWorld_RejectsEmptyBounds(t *testing.T) {
	_, err := physics.NewWorld(physics.Bounds{}, nil)
	assert.Error(t, err)
}

func TestAddCombatant_RejectsDuplicatesAndZeroHandle(t *testing.T) {
	w := newWorld(t)
	b := add(t, w, cp.Vector{X: 10, Y: 10}, 0.5, entity.CategoryEnemy)

	_, err := w.AddCombatant(b.Handle(), cp.Vector{X: 20, Y: 20}, 0.5, entity.CategoryEnemy)
	assert.Error(t, err)
	_, err = w.AddCombatant("", cp.Vector{X: 20, Y: 20}, 0.5, entity.CategoryEnemy)
	assert.Error(t, err)
	_, err = w.AddCombatant(entity.NewHandle(), cp.Vector{X: 20, Y: 20}, 0, entity.CategoryEnemy)
	assert.Error(t, err)
}

func TestQueryInRadius_FiltersByCategoryAndDistance(t *testing.T) {
	w := newWorld(t)
	near := add(t, w, cp.Vector{X: 65, Y: 50}, 0.5, entity.CategoryPlayer)
	add(t, w, cp.Vector{X: 55, Y: 50}, 0.5, entity.CategoryEnemy)
	add(t, w, cp.Vector{X: 90, Y: 90}, 0.5, entity.CategoryPlayer)

	got := w.QueryInRadius(cp.Vector{X: 50, Y: 50}, 20, entity.CategoryPlayer)
	assert.Equal(t, []entity.Handle{near.Handle()}, got)
}

func TestQueryInRadius_SkipsDisabledColliders(t *testing.T) {
	w := newWorld(t)
	b := add(t, w, cp.Vector{X: 50, Y: 55}, 0.5, entity.CategoryPlayer)
	b.DisableColliders()
	b.DisableColliders()
	assert.Empty(t, w.QueryInRadius(cp.Vector{X: 50, Y: 50}, 20, entity.CategoryPlayer))
	assert.False(t, b.CollidersEnabled())
}

func TestRaycast_HitsCombatantWithHandle(t *testing.T) {
	w := newWorld(t)
	target := add(t, w, cp.Vector{X: 20, Y: 50}, 1, entity.CategoryEnemy)

	point, normal, h, ok := w.Raycast(cp.Vector{X: 10, Y: 50}, cp.Vector{X: 1}, 50)
	require.True(t, ok)
	assert.Equal(t, target.Handle(), h)
	assert.InDelta(t, 19, point.X, 1e-6)
	assert.InDelta(t, 50, point.Y, 1e-6)
	assert.InDelta(t, -1, normal.X, 1e-6)
}

func TestRaycast_OriginInsideColliderHitsPointBlank(t *testing.T) {
	w := newWorld(t)
	target := add(t, w, cp.Vector{X: 20, Y: 50}, 1, entity.CategoryEnemy)

	origin := cp.Vector{X: 19.7, Y: 50}
	point, normal, h, ok := w.Raycast(origin, cp.Vector{X: 1}, 50)
	require.True(t, ok)
	assert.Equal(t, target.Handle(), h)
	assert.Equal(t, origin, point)
	assert.InDelta(t, -1, normal.X, 1e-9)
}

func TestRayMask_OriginInsideMaskedOutColliderPassesThrough(t *testing.T) {
	w := newWorld(t)
	add(t, w, cp.Vector{X: 10, Y: 50}, 1, entity.CategoryPlayer)
	enemy := add(t, w, cp.Vector{X: 20, Y: 50}, 1, entity.CategoryEnemy)

	_, _, h, ok := w.RayMask(entity.CategoryEnemy).Raycast(cp.Vector{X: 10, Y: 50}, cp.Vector{X: 1}, 50)
	require.True(t, ok)
	assert.Equal(t, enemy.Handle(), h)
}

func TestRaycast_WallHitHasZeroHandle(t *testing.T) {
	w := newWorld(t)
	point, _, h, ok := w.Raycast(cp.Vector{X: 10, Y: 50}, cp.Vector{Y: 1}, 100)
	require.True(t, ok)
	assert.True(t, h.IsZero())
	assert.InDelta(t, 99.5, point.Y, 1e-6)
}

func TestRaycast_MissBeyondRange(t *testing.T) {
	w := newWorld(t)
	add(t, w, cp.Vector{X: 40, Y: 50}, 1, entity.CategoryEnemy)
	_, _, _, ok := w.Raycast(cp.Vector{X: 10, Y: 50}, cp.Vector{X: 1}, 10)
	assert.False(t, ok)
}

func TestRayMask_IgnoresOtherCategories(t *testing.T) {
	w := newWorld(t)
	add(t, w, cp.Vector{X: 15, Y: 50}, 1, entity.CategoryPlayer)
	enemy := add(t, w, cp.Vector{X: 30, Y: 50}, 1, entity.CategoryEnemy)

	_, _, h, ok := w.RayMask(entity.CategoryEnemy).Raycast(cp.Vector{X: 10, Y: 50}, cp.Vector{X: 1}, 50)
	require.True(t, ok)
	assert.Equal(t, enemy.Handle(), h)
}

func TestContacts_ReportsOverlapsUntilDisabled(t *testing.T) {
	w := newWorld(t)
	enemy := add(t, w, cp.Vector{X: 50, Y: 50}, 0.5, entity.CategoryEnemy)
	player := add(t, w, cp.Vector{X: 50.8, Y: 50}, 0.5, entity.CategoryPlayer)
	add(t, w, cp.Vector{X: 50.4, Y: 50.4}, 0.5, entity.CategoryEnemy)

	contacts := w.Contacts(entity.CategoryEnemy, entity.CategoryPlayer)
	require.Len(t, contacts, 2)
	assert.Equal(t, enemy, contacts[0].From)
	assert.Equal(t, player, contacts[0].To)

	player.DisableColliders()
	assert.Empty(t, w.Contacts(entity.CategoryEnemy, entity.CategoryPlayer))
}

func TestSetPosition_QueriesSeeTeleportBeforeStep(t *testing.T) {
	w := newWorld(t)
	b := add(t, w, cp.Vector{X: 10, Y: 10}, 0.5, entity.CategoryPlayer)
	enemy := add(t, w, cp.Vector{X: 80, Y: 80}, 0.5, entity.CategoryEnemy)

	b.SetPosition(cp.Vector{X: 80.6, Y: 80})
	assert.Equal(t, []entity.Handle{b.Handle()}, w.QueryInRadius(cp.Vector{X: 80, Y: 80}, 2, entity.CategoryPlayer))
	assert.Empty(t, w.QueryInRadius(cp.Vector{X: 10, Y: 10}, 2, entity.CategoryPlayer))
	contacts := w.Contacts(entity.CategoryEnemy, entity.CategoryPlayer)
	require.Len(t, contacts, 1)
	assert.Equal(t, enemy, contacts[0].From)
}

func TestQueryInRadius_ConfirmsAgainstColliderSurface(t *testing.T) {
	w := newWorld(t)
	// The circle's bounding box corner overlaps the query box but the
	// collider itself is out of reach.
	add(t, w, cp.Vector{X: 57.5, Y: 57.5}, 0.5, entity.CategoryPlayer)
	assert.Empty(t, w.QueryInRadius(cp.Vector{X: 50, Y: 50}, 10, entity.CategoryPlayer))

	edge := add(t, w, cp.Vector{X: 60.4, Y: 50}, 0.5, entity.CategoryPlayer)
	assert.Equal(t, []entity.Handle{edge.Handle()}, w.QueryInRadius(cp.Vector{X: 50, Y: 50}, 10, entity.CategoryPlayer))
}

func TestNavigator_HaltsAtStoppingDistance(t *testing.T) {
	w := newWorld(t)
	b := add(t, w, cp.Vector{X: 10, Y: 10}, 0.5, entity.CategoryEnemy)
	nav := b.Navigator()
	nav.SetSpeed(2)
	nav.SetStoppingDistance(0.9)
	nav.SetStoppingDistance(-1)
	assert.Equal(t, 0.9, nav.StoppingDistance())
	nav.SetDestination(cp.Vector{X: 20, Y: 10})

	for i := 0; i < 20; i++ {
		w.Step(time.Second)
	}
	assert.InDelta(t, 19.1, b.Position().X, 1e-6)
}

func TestClosestPoint_OnColliderSurface(t *testing.T) {
	w := newWorld(t)
	b := add(t, w, cp.Vector{X: 50.8, Y: 50}, 0.5, entity.CategoryPlayer)

	p := b.ClosestPoint(cp.Vector{X: 50, Y: 50})
	assert.InDelta(t, 50.3, p.X, 1e-6)
	assert.InDelta(t, 50, p.Y, 1e-6)

	b.DisableColliders()
	assert.Equal(t, b.Position(), b.ClosestPoint(cp.Vector{X: 50, Y: 50}))
}

func TestNavigator_MovesTowardDestinationAtSpeed(t *testing.T) {
	w := newWorld(t)
	b := add(t, w, cp.Vector{X: 10, Y: 10}, 0.5, entity.CategoryEnemy)
	nav := b.Navigator()
	nav.SetSpeed(2)
	nav.SetDestination(cp.Vector{X: 20, Y: 10})

	w.Step(time.Second)
	assert.InDelta(t, 12, b.Position().X, 1e-6)

	nav.SetMovementEnabled(false)
	w.Step(time.Second)
	assert.InDelta(t, 12, b.Position().X, 1e-6)

	nav.SetMovementEnabled(true)
	for i := 0; i < 10; i++ {
		w.Step(time.Second)
	}
	assert.InDelta(t, 20, b.Position().X, 1e-6, "arrives without overshooting")
}

func TestNavigator_DisableIsPermanent(t *testing.T) {
	w := newWorld(t)
	b := add(t, w, cp.Vector{X: 10, Y: 10}, 0.5, entity.CategoryEnemy)
	nav := b.Navigator()
	nav.SetSpeed(5)
	nav.Disable()
	nav.SetMovementEnabled(true)
	nav.SetDestination(cp.Vector{X: 30, Y: 10})

	w.Step(time.Second)
	assert.Equal(t, cp.Vector{X: 10, Y: 10}, b.Position())
	assert.False(t, nav.MovementEnabled())
}

func TestRemove_DropsBody(t *testing.T) {
	w := newWorld(t)
	b := add(t, w, cp.Vector{X: 60, Y: 50}, 0.5, entity.CategoryPlayer)
	require.NoError(t, w.Remove(b.Handle()))
	assert.Error(t, w.Remove(b.Handle()))
	_, ok := w.Body(b.Handle())
	assert.False(t, ok)
	assert.Empty(t, w.QueryInRadius(cp.Vector{X: 50, Y: 50}, 20, entity.CategoryPlayer))
}

func TestProperty_Step_KeepsBodiesInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := newWorld(t)
		b := add(t, w, cp.Vector{X: 50, Y: 50}, 0.5, entity.CategoryEnemy)
		nav := b.Navigator()
		nav.SetSpeed(rapid.Float64Range(0, 40).Draw(t, "speed"))
		nav.SetDestination(cp.Vector{
			X: rapid.Float64Range(-200, 300).Draw(t, "x"),
			Y: rapid.Float64Range(-200, 300).Draw(t, "y"),
		})
		for i := 0; i < 20; i++ {
			w.Step(500 * time.Millisecond)
			p := b.Position()
			if p.X < 0.5-1e-9 || p.Y < 0.5-1e-9 || p.X > 99.5+1e-9 || p.Y > 99.5+1e-9 {
				t.Fatalf("body escaped bounds: %v", p)
			}
		}
	})
}
