package entity_test

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/zombiex/internal/game/entity"
)

func TestNew_StartsAliveAtFullHealth(t *testing.T) {
	e := entity.New(100)
	assert.False(t, e.Dead())
	assert.Equal(t, 100.0, e.Health())
	assert.False(t, e.Handle().IsZero())
}

func TestNew_NonPositiveHealthPanics(t *testing.T) {
	assert.Panics(t, func() { entity.New(0) })
}

func TestApplyDamage_KillsAtZeroAndNotifiesOnce(t *testing.T) {
	e := entity.New(30)
	deaths := 0
	e.OnDeath(func() { deaths++ })

	e.ApplyDamage(20, cp.Vector{}, cp.Vector{})
	assert.False(t, e.Dead())
	e.ApplyDamage(10, cp.Vector{}, cp.Vector{})
	assert.True(t, e.Dead())
	e.ApplyDamage(10, cp.Vector{}, cp.Vector{})
	e.Die()
	assert.Equal(t, 1, deaths)
	assert.Equal(t, 0.0, e.Health())
}

func TestRevive_RestoresStartingHealth(t *testing.T) {
	e := entity.New(50)
	e.Die()
	e.Revive()
	assert.False(t, e.Dead())
	assert.Equal(t, 50.0, e.Health())
}

func TestRestoreHealth_CapsAtStarting(t *testing.T) {
	e := entity.New(50)
	e.ApplyDamage(30, cp.Vector{}, cp.Vector{})
	e.RestoreHealth(100)
	assert.Equal(t, 50.0, e.Health())
}

func TestSetLocator_DrivesPosition(t *testing.T) {
	e := entity.New(10)
	e.SetLocator(entity.StaticLocator{X: 3, Y: 4})
	assert.Equal(t, cp.Vector{X: 3, Y: 4}, e.Position())
}

func TestRegistry_LiveFiltersDead(t *testing.T) {
	r := entity.NewRegistry()
	a := entity.New(10)
	b := entity.New(10)
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(b))
	assert.Error(t, r.Register(a))

	_, ok := r.Live(a.Handle())
	assert.True(t, ok)
	a.Die()
	_, ok = r.Live(a.Handle())
	assert.False(t, ok)
	_, ok = r.Get(a.Handle())
	assert.True(t, ok)
	assert.Equal(t, 1, r.LiveCount())
}

func TestRegistry_RemoveAndOrder(t *testing.T) {
	r := entity.NewRegistry()
	es := []*entity.Entity{entity.New(1), entity.New(1), entity.New(1)}
	for _, e := range es {
		require.NoError(t, r.Register(e))
	}
	require.NoError(t, r.Remove(es[1].Handle()))
	assert.Error(t, r.Remove(es[1].Handle()))

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, es[0].Handle(), all[0].Handle())
	assert.Equal(t, es[2].Handle(), all[1].Handle())
	_, ok := r.Live("")
	assert.False(t, ok)
}

func TestProperty_Entity_HealthNeverAboveStarting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Float64Range(1, 500).Draw(t, "start")
		e := entity.New(start)
		ops := rapid.SliceOf(rapid.Float64Range(-50, 50)).Draw(t, "ops")
		for _, v := range ops {
			if v < 0 {
				e.ApplyDamage(-v, cp.Vector{}, cp.Vector{})
			} else {
				e.RestoreHealth(v)
			}
			if e.Health() > start {
				t.Fatalf("health %v exceeds starting %v", e.Health(), start)
			}
			if e.Dead() != (e.Health() <= 0) {
				t.Fatalf("dead=%v but health=%v", e.Dead(), e.Health())
			}
		}
	})
}

func TestOnDamaged_ReportsLandedHitsOnly(t *testing.T) {
	e := entity.New(10)
	var landed []float64
	e.OnDamaged(func(amount float64) { landed = append(landed, amount) })
	e.ApplyDamage(4, cp.Vector{}, cp.Vector{})
	e.ApplyDamage(6, cp.Vector{}, cp.Vector{})
	e.ApplyDamage(1, cp.Vector{}, cp.Vector{})
	assert.Equal(t, []float64{4, 6}, landed)
}
