package sim

import (
	"math"

	"github.com/cory-johannsen/zombiex/internal/game/npc"
	"github.com/cory-johannsen/zombiex/internal/game/weapon"
)

// AutoFire aims the player's weapon at the nearest live enemy in range and
// pulls the trigger every frame, reloading whenever the weapon runs dry.
type AutoFire struct {
	player  *Player
	enemies *npc.Manager
}

// NewAutoFire returns a driver for player against the enemies in m.
func NewAutoFire(player *Player, m *npc.Manager) *AutoFire {
	return &AutoFire{player: player, enemies: m}
}

// Tick runs one frame of the driver and reports whether a shot was fired.
func (a *AutoFire) Tick() bool {
	gun := a.player.Weapon()
	if a.player.Dead() || gun == nil {
		return false
	}
	if gun.State() == weapon.StateEmpty {
		gun.Reload()
		return false
	}
	target, ok := a.nearest(gun.Def().FireDistance)
	if !ok {
		return false
	}
	a.player.AimAt(target.Position())
	return gun.Fire()
}

func (a *AutoFire) nearest(maxRange float64) (*npc.Enemy, bool) {
	origin := a.player.Position()
	best := math.Inf(1)
	var out *npc.Enemy
	for _, e := range a.enemies.All() {
		if e.Dead() {
			continue
		}
		d := e.Position().Sub(origin).Length()
		if d <= maxRange && d < best {
			best, out = d, e
		}
	}
	return out, out != nil
}
