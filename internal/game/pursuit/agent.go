// Package pursuit implements the enemy perception and pursuit agent: periodic
// target acquisition, path requests toward the target and contact damage.
package pursuit

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

// SpatialQuery finds combatants inside a circle. Results are returned in
// provider order; the agent never re-sorts them.
type SpatialQuery interface {
	QueryInRadius(center cp.Vector, radius float64, category entity.Category) []entity.Handle
}

// Navigator moves the agent toward a destination. Route computation is the
// navigator's concern.
type Navigator interface {
	SetDestination(point cp.Vector)
	SetMovementEnabled(enabled bool)
	SetSpeed(speed float64)
	// Disable stops navigation permanently.
	Disable()
}

// Body is the agent's own physical presence.
type Body interface {
	entity.Locator
	// DisableColliders removes every collision volume so the body no longer
	// blocks or gets targeted.
	DisableColliders()
}

// Shape is a contacted combatant's collision volume.
type Shape interface {
	ClosestPoint(p cp.Vector) cp.Vector
}

// Config holds the agent's tunables.
type Config struct {
	// PerceptionRadius is the scan radius used when no target is held.
	PerceptionRadius float64
	// PerceptionInterval is the cadence of PerceptionTick.
	PerceptionInterval time.Duration
	// Damage is applied per contact attack.
	Damage float64
	// AttackCooldown is the minimum time between contact attacks.
	AttackCooldown time.Duration
	// Speed is the navigator movement speed.
	Speed float64
	// TargetCategory filters scan candidates.
	TargetCategory entity.Category
}

// DefaultConfig returns the stock zombie tunables.
func DefaultConfig() Config {
	return Config{
		PerceptionRadius:   20,
		PerceptionInterval: 250 * time.Millisecond,
		Damage:             20,
		AttackCooldown:     500 * time.Millisecond,
		Speed:              2,
		TargetCategory:     entity.CategoryPlayer,
	}
}

// Validate checks the config invariants.
func (c Config) Validate() error {
	if c.PerceptionRadius <= 0 {
		return fmt.Errorf("perception radius must be > 0, got %v", c.PerceptionRadius)
	}
	if c.PerceptionInterval <= 0 {
		return fmt.Errorf("perception interval must be > 0, got %s", c.PerceptionInterval)
	}
	if c.Damage < 0 {
		return fmt.Errorf("damage must be >= 0, got %v", c.Damage)
	}
	if c.AttackCooldown < 0 {
		return fmt.Errorf("attack cooldown must be >= 0, got %s", c.AttackCooldown)
	}
	return nil
}

// Deps are the collaborators an Agent consumes.
type Deps struct {
	Registry *entity.Registry
	Query    SpatialQuery
	Nav      Navigator
	Body     Body
	Sink     effects.Sink
	Clock    clock.Clock
	Logger   *zap.Logger
	// Handle, when set, becomes the agent's identity. A fresh one is
	// generated otherwise.
	Handle entity.Handle
}

// Agent is a living enemy that hunts combatants of the target category.
// It implements entity.Combatant.
//
// Invariant: the target handle is only trusted after resolving it through the
// registry as live; it is never cleared on the target's death.
//
// Concurrency: all methods must be called from the simulation goroutine. The
// target handle is written by PerceptionTick and read by OnContact on that
// same goroutine.
type Agent struct {
	*entity.Entity

	cfg      Config
	registry *entity.Registry
	query    SpatialQuery
	nav      Navigator
	body     Body
	sink     effects.Sink
	clk      clock.Clock
	logger   *zap.Logger

	target      entity.Handle
	lastAttack  time.Duration
	hasAttacked bool
	perception  *schedule.Task
}

// NewAgent creates a live agent with startingHealth.
//
// Precondition: cfg must be valid; deps.Registry, Query, Nav, Body and Clock
// must be non-nil. Nil Sink and Logger fall back to no-ops.
// Postcondition: the agent's position follows deps.Body and death triggers
// teardown exactly once.
func NewAgent(startingHealth float64, cfg Config, deps Deps) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pursuit.NewAgent: %w", err)
	}
	if startingHealth <= 0 {
		return nil, fmt.Errorf("pursuit.NewAgent: starting health must be > 0, got %v", startingHealth)
	}
	if deps.Registry == nil || deps.Query == nil || deps.Nav == nil || deps.Body == nil || deps.Clock == nil {
		return nil, fmt.Errorf("pursuit.NewAgent: registry, query, nav, body and clock are required")
	}
	if deps.Sink == nil {
		deps.Sink = effects.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Handle.IsZero() {
		deps.Handle = entity.NewHandle()
	}
	a := &Agent{
		Entity:   entity.NewWithHandle(deps.Handle, startingHealth),
		cfg:      cfg,
		registry: deps.Registry,
		query:    deps.Query,
		nav:      deps.Nav,
		body:     deps.Body,
		sink:     deps.Sink,
		clk:      deps.Clock,
	}
	a.logger = deps.Logger.Named("pursuit").With(zap.String("agent", string(a.Handle())))
	a.Entity.SetLocator(deps.Body)
	a.Entity.OnDeath(a.onDeath)
	a.nav.SetSpeed(cfg.Speed)
	return a, nil
}

// Config returns the agent's current tunables.
func (a *Agent) Config() Config { return a.cfg }

// SetDamage changes the contact damage.
func (a *Agent) SetDamage(damage float64) {
	if damage >= 0 {
		a.cfg.Damage = damage
	}
}

// SetSpeed changes the movement speed and forwards it to the navigator.
func (a *Agent) SetSpeed(speed float64) {
	if speed < 0 {
		return
	}
	a.cfg.Speed = speed
	a.nav.SetSpeed(speed)
}

// Target returns the stored target handle, which may refer to a dead or
// removed combatant.
func (a *Agent) Target() entity.Handle { return a.target }

// HasTarget reports whether the stored target resolves to a live combatant.
// Evaluated on every call.
func (a *Agent) HasTarget() bool {
	_, ok := a.liveTarget()
	return ok
}

func (a *Agent) liveTarget() (entity.Combatant, bool) {
	if a.target.IsZero() {
		return nil, false
	}
	return a.registry.Live(a.target)
}

// Start registers the recurring perception task on s. The task checks
// liveness first and unregisters itself for good once the agent is dead.
//
// Postcondition: PerceptionTick runs on the next s.Advance and then every
// PerceptionInterval while alive.
func (a *Agent) Start(s *schedule.Scheduler) {
	if a.perception != nil && s.Active(a.perception) {
		return
	}
	a.perception = s.Every(a.cfg.PerceptionInterval, func() bool {
		if a.Dead() {
			a.logger.Debug("perception stopped")
			return false
		}
		a.PerceptionTick()
		return true
	})
}

// Update is the per-frame hook; it publishes HasTarget to the animator.
func (a *Agent) Update() {
	a.sink.SetAnimationFlag(a.Handle(), effects.FlagHasTarget, a.HasTarget())
}

// PerceptionTick re-evaluates the target. With a live target it resumes
// movement toward the target's current position. Without one it stops and
// scans; the first live candidate in provider order becomes the target.
func (a *Agent) PerceptionTick() {
	if t, ok := a.liveTarget(); ok {
		a.nav.SetMovementEnabled(true)
		a.nav.SetDestination(t.Position())
		return
	}

	a.nav.SetMovementEnabled(false)
	for _, h := range a.query.QueryInRadius(a.Position(), a.cfg.PerceptionRadius, a.cfg.TargetCategory) {
		if h == a.Handle() {
			continue
		}
		if _, ok := a.registry.Live(h); !ok {
			continue
		}
		a.target = h
		a.logger.Debug("target acquired", zap.String("target", string(h)))
		return
	}
}

// OnContact is called every frame while other overlaps the agent. A hit is
// dispatched only when the cooldown has elapsed and other is the tracked
// target. The cooldown timestamp is shared across all contacts and is
// updated only when a hit is dispatched.
func (a *Agent) OnContact(other entity.Combatant, shape Shape) {
	if a.Dead() || other == nil {
		return
	}
	now := a.clk.Now()
	if a.hasAttacked && now < a.lastAttack+a.cfg.AttackCooldown {
		return
	}
	if a.target.IsZero() || other.Handle() != a.target {
		return
	}

	a.lastAttack = now
	a.hasAttacked = true

	self := a.Position()
	point := other.Position()
	if shape != nil {
		point = shape.ClosestPoint(self)
	}
	normal := self.Sub(other.Position())
	other.ApplyDamage(a.cfg.Damage, point, normal)
}

// ApplyDamage plays the hit reaction while alive and then applies the damage
// to the living base.
func (a *Agent) ApplyDamage(amount float64, point, normal cp.Vector) {
	if !a.Dead() {
		a.sink.PlayEffectAt(a.Handle(), effects.EffectHit, point, normal)
		a.sink.PlayOneShotSound(a.Handle(), effects.SoundHit)
	}
	a.Entity.ApplyDamage(amount, point, normal)
}

func (a *Agent) onDeath() {
	a.body.DisableColliders()
	a.nav.SetMovementEnabled(false)
	a.nav.Disable()
	a.sink.TriggerAnimation(a.Handle(), effects.TriggerDie)
	a.sink.PlayOneShotSound(a.Handle(), effects.SoundDeath)
	a.logger.Debug("agent died")
}
