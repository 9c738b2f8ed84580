package weapon

import (
	"fmt"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zombiex/internal/game/clock"
	"github.com/cory-johannsen/zombiex/internal/game/effects"
	"github.com/cory-johannsen/zombiex/internal/game/entity"
	"github.com/cory-johannsen/zombiex/internal/game/schedule"
)

// State is the weapon's fire/reload state.
type State int

const (
	// StateReady accepts Fire and Reload.
	StateReady State = iota
	// StateEmpty is entered when the last loaded round is fired.
	StateEmpty
	// StateReloading rejects Fire and Reload until the reload completes.
	StateReloading
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateEmpty:
		return "empty"
	case StateReloading:
		return "reloading"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RayCaster resolves the first intersection along a ray. A zero handle with
// ok true means static geometry was hit.
type RayCaster interface {
	Raycast(origin, dir cp.Vector, maxDistance float64) (point, normal cp.Vector, h entity.Handle, ok bool)
}

// Muzzle is the transform shots leave from.
type Muzzle interface {
	Position() cp.Vector
	// Forward is the unit firing direction.
	Forward() cp.Vector
}

// Shot describes one resolved shot.
type Shot struct {
	Origin cp.Vector
	Impact cp.Vector
	// Target is the damaged combatant, zero on a miss or a wall hit.
	Target entity.Handle
	Damage float64
}

// Deps are the collaborators a Controller consumes.
type Deps struct {
	Registry  *entity.Registry
	Ray       RayCaster
	Muzzle    Muzzle
	Sink      effects.Sink
	Clock     clock.Clock
	Scheduler *schedule.Scheduler
	Logger    *zap.Logger
	// Owner identifies the weapon to the effects sink.
	Owner entity.Handle
	// OnShot, when set, is called after every resolved shot.
	OnShot func(Shot)
	// OnReloaded, when set, is called with the rounds moved when a reload
	// completes.
	OnReloaded func(moved int)
}

// Controller is the hit-scan fire/reload state machine.
//
// Invariant: 0 <= MagAmmo() <= Capacity(); Reserve() >= 0; at most one reload
// task is in flight; State() == StateEmpty iff MagAmmo() == 0 and no reload
// is running.
//
// Concurrency: all methods must be called from the simulation goroutine.
type Controller struct {
	def    *Def
	mag    *Magazine
	state  State
	deps   Deps
	logger *zap.Logger

	fireInterval time.Duration
	reloadTime   time.Duration
	tracerFor    time.Duration

	lastFire time.Duration
	hasFired bool
	reload   *schedule.Task
}

// NewController creates an armed controller for def.
//
// Precondition: def must be valid; deps.Registry, Ray, Muzzle, Clock and
// Scheduler must be non-nil. Nil Sink and Logger fall back to no-ops.
// Postcondition: State() == StateReady with a full magazine and
// def.StartingReserve spare rounds.
func NewController(def *Def, deps Deps) (*Controller, error) {
	if def == nil {
		return nil, fmt.Errorf("weapon.NewController: def is required")
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("weapon.NewController: %w", err)
	}
	if deps.Registry == nil || deps.Ray == nil || deps.Muzzle == nil || deps.Clock == nil || deps.Scheduler == nil {
		return nil, fmt.Errorf("weapon.NewController: registry, ray, muzzle, clock and scheduler are required")
	}
	if deps.Sink == nil {
		deps.Sink = effects.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Owner.IsZero() {
		deps.Owner = entity.NewHandle()
	}
	c := &Controller{
		def:          def,
		mag:          NewMagazine(def.MagazineCapacity, def.StartingReserve),
		deps:         deps,
		logger:       deps.Logger.Named("weapon").With(zap.String("weapon", def.ID)),
		fireInterval: def.FireIntervalDuration(),
		reloadTime:   def.ReloadDuration(),
		tracerFor:    def.TracerVisibleFor(),
	}
	c.Enable()
	return c, nil
}

// Def returns the weapon definition.
func (c *Controller) Def() *Def { return c.def }

// State returns the current state.
func (c *Controller) State() State { return c.state }

// MagAmmo returns the rounds loaded.
func (c *Controller) MagAmmo() int { return c.mag.Loaded }

// Capacity returns the magazine capacity.
func (c *Controller) Capacity() int { return c.mag.Capacity }

// Reserve returns the spare rounds.
func (c *Controller) Reserve() int { return c.mag.Reserve }

// AddReserve adds spare rounds (ammo pickup). Non-positive n is ignored.
func (c *Controller) AddReserve(n int) { c.mag.AddReserve(n) }

// Enable re-arms the weapon: the magazine is filled, the state is Ready and
// the fire cooldown is cleared. A reload in flight is abandoned.
func (c *Controller) Enable() {
	c.cancelReload()
	c.mag.Fill()
	c.state = StateReady
	c.lastFire = 0
	c.hasFired = false
}

// Disable abandons any reload in flight. Counters are left untouched.
func (c *Controller) Disable() {
	if c.cancelReload() && c.state == StateReloading {
		c.state = c.settledState()
	}
}

// Fire resolves one shot when the weapon is Ready and the fire interval has
// elapsed since the previous shot. It reports whether a shot was fired.
func (c *Controller) Fire() bool {
	if c.state != StateReady {
		return false
	}
	now := c.deps.Clock.Now()
	if c.hasFired && now < c.lastFire+c.fireInterval {
		return false
	}
	c.lastFire = now
	c.hasFired = true
	c.shoot()
	return true
}

func (c *Controller) shoot() {
	origin := c.deps.Muzzle.Position()
	dir := c.deps.Muzzle.Forward()

	shot := Shot{Origin: origin, Impact: origin.Add(dir.Mult(c.def.FireDistance))}
	if point, normal, h, ok := c.deps.Ray.Raycast(origin, dir, c.def.FireDistance); ok {
		shot.Impact = point
		if target, found := c.deps.Registry.Get(h); found {
			shot.Target = h
			shot.Damage = c.def.Damage
			target.ApplyDamage(c.def.Damage, point, normal)
		}
	}

	if err := c.mag.Consume(1); err == nil && c.mag.IsEmpty() {
		c.state = StateEmpty
	}

	c.playShotEffects(shot)
	if c.deps.OnShot != nil {
		c.deps.OnShot(shot)
	}
}

// playShotEffects starts the cosmetic sequence. The tracer is hidden by a
// scheduled task and never touches weapon state.
func (c *Controller) playShotEffects(shot Shot) {
	owner := c.deps.Owner
	facing := c.deps.Muzzle.Forward()
	c.deps.Sink.PlayEffectAt(owner, effects.EffectMuzzleFlash, shot.Origin, facing)
	c.deps.Sink.PlayEffectAt(owner, effects.EffectShellEject, shot.Origin, facing)
	c.deps.Sink.PlayOneShotSound(owner, effects.SoundShot)
	c.deps.Sink.SetLine(owner, effects.LineTracer, shot.Origin, shot.Impact, true)
	c.deps.Scheduler.After(c.tracerFor, func() {
		c.deps.Sink.SetLine(owner, effects.LineTracer, shot.Origin, shot.Impact, false)
	})
}

// Reload starts the timed reload sequence.
//
// Postcondition: returns false and changes nothing when already reloading,
// when the reserve is empty or when the magazine is full. Otherwise the
// state is Reloading until the reload time elapses, after which
// min(Capacity-MagAmmo, Reserve) rounds move from the reserve to the
// magazine and the state returns to Ready.
func (c *Controller) Reload() bool {
	if reason := c.reloadRejection(); reason != "" {
		c.logger.Debug("reload rejected",
			zap.String("reason", reason),
			zap.Stringer("state", c.state),
			zap.Int("reserve", c.mag.Reserve),
			zap.Int("mag_ammo", c.mag.Loaded),
			zap.Int("mag_capacity", c.mag.Capacity),
		)
		return false
	}
	c.state = StateReloading
	c.deps.Sink.PlayOneShotSound(c.deps.Owner, effects.SoundReload)
	c.reload = c.deps.Scheduler.After(c.reloadTime, c.completeReload)
	return true
}

func (c *Controller) reloadRejection() string {
	switch {
	case c.state == StateReloading:
		return "already reloading"
	case c.mag.Reserve <= 0:
		return "no reserve ammo"
	case c.mag.IsFull():
		return "magazine full"
	default:
		return ""
	}
}

func (c *Controller) completeReload() {
	c.reload = nil
	moved := c.mag.Refill()
	c.state = StateReady
	c.logger.Debug("reload complete",
		zap.Int("moved", moved),
		zap.Int("mag_ammo", c.mag.Loaded),
		zap.Int("reserve", c.mag.Reserve),
	)
	if c.deps.OnReloaded != nil {
		c.deps.OnReloaded(moved)
	}
}

func (c *Controller) cancelReload() bool {
	if c.reload == nil {
		return false
	}
	c.deps.Scheduler.Cancel(c.reload)
	c.reload = nil
	return true
}

func (c *Controller) settledState() State {
	if c.mag.IsEmpty() {
		return StateEmpty
	}
	return StateReady
}
