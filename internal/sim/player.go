package sim

import (
	"github.com/jakecoffman/cp"

	"github.com/cory-johannsen/zombiex/internal/game/entity"
	"github.com/cory-johannsen/zombiex/internal/game/weapon"
	"github.com/cory-johannsen/zombiex/internal/physics"
)

// muzzleGap keeps the muzzle just outside the player's own collider so the
// ray never starts inside it.
const muzzleGap = 0.05

// Player is the armed combatant enemies hunt.
type Player struct {
	*entity.Entity
	body   *physics.Body
	facing cp.Vector
	gun    *weapon.Controller
}

func newPlayer(h entity.Handle, health float64, body *physics.Body) *Player {
	p := &Player{
		Entity: entity.NewWithHandle(h, health),
		body:   body,
		facing: cp.Vector{X: 1},
	}
	p.SetLocator(body)
	return p
}

// Body returns the player's physics body.
func (p *Player) Body() *physics.Body { return p.body }

// Weapon returns the player's weapon controller.
func (p *Player) Weapon() *weapon.Controller { return p.gun }

// Facing returns the unit aim direction.
func (p *Player) Facing() cp.Vector { return p.facing }

// AimAt turns the player toward point. Aiming at the player's own position is
// ignored.
func (p *Player) AimAt(point cp.Vector) {
	d := point.Sub(p.Position())
	if d.Length() == 0 {
		return
	}
	p.facing = d.Normalize()
}

// muzzle adapts a Player to weapon.Muzzle.
type muzzle struct{ p *Player }

func (m muzzle) Position() cp.Vector {
	return m.p.Position().Add(m.p.facing.Mult(m.p.body.Radius() + muzzleGap))
}

func (m muzzle) Forward() cp.Vector { return m.p.facing }
