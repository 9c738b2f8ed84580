package npc

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zombiex/internal/game/clock"
	"github.com/cory-johannsen/zombiex/internal/game/effects"
	"github.com/cory-johannsen/zombiex/internal/game/entity"
	"github.com/cory-johannsen/zombiex/internal/game/pursuit"
	"github.com/cory-johannsen/zombiex/internal/game/schedule"
	"github.com/cory-johannsen/zombiex/internal/physics"
)

// contactOverlap is how far inside contact range a pursuing enemy halts,
// so the overlap survives float rounding without the enemy swallowing its
// target.
const contactOverlap = 0.1

// Profile overrides template values at spawn time. Zero fields keep the
// template's value.
type Profile struct {
	Health float64
	Damage float64
	Speed  float64
	Skin   string
}

// ProfileFunc resolves the spawn profile for a template in a wave.
type ProfileFunc func(templateID string, wave int) Profile

// SpawnerDeps are the collaborators a Spawner wires into every enemy.
type SpawnerDeps struct {
	World     *physics.World
	Registry  *entity.Registry
	Manager   *Manager
	Scheduler *schedule.Scheduler
	Sink      effects.Sink
	Clock     clock.Clock
	Logger    *zap.Logger
	// Profiles is optional.
	Profiles ProfileFunc
	// PerceptionInterval is used by templates that leave it unset.
	PerceptionInterval time.Duration
	// TargetRadius is the collider radius of the combatants enemies chase.
	// Enemies halt just inside contact range of a target this size.
	TargetRadius float64
	// OnSpawn, when set, is called for every enemy after it is registered.
	OnSpawn func(*Enemy)
}

// Spawner creates enemies from templates and places them in the world.
//
// Concurrency: must be used from the simulation goroutine.
type Spawner struct {
	templates map[string]*Template
	ids       []string
	deps      SpawnerDeps
	logger    *zap.Logger
	next      int
}

// NewSpawner indexes templates by ID.
//
// Precondition: at least one template; World, Registry, Manager, Scheduler
// and Clock are non-nil.
func NewSpawner(templates []*Template, deps SpawnerDeps) (*Spawner, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("npc.NewSpawner: at least one template is required")
	}
	if deps.World == nil || deps.Registry == nil || deps.Manager == nil || deps.Scheduler == nil || deps.Clock == nil {
		return nil, fmt.Errorf("npc.NewSpawner: world, registry, manager, scheduler and clock are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Spawner{
		templates: make(map[string]*Template, len(templates)),
		deps:      deps,
		logger:    deps.Logger.Named("spawner"),
	}
	for _, t := range templates {
		if _, exists := s.templates[t.ID]; exists {
			return nil, fmt.Errorf("npc.NewSpawner: template %q registered twice", t.ID)
		}
		s.templates[t.ID] = t
		s.ids = append(s.ids, t.ID)
	}
	sort.Strings(s.ids)
	return s, nil
}

// Manager returns the manager tracking every spawned enemy.
func (s *Spawner) Manager() *Manager { return s.deps.Manager }

// Templates returns the registered templates in ID order.
func (s *Spawner) Templates() []*Template {
	out := make([]*Template, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.templates[id])
	}
	return out
}

// Template returns the template registered as id.
func (s *Spawner) Template(id string) (*Template, error) {
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return t, nil
}

// Spawn creates one enemy from templateID at pos, applies the wave's profile
// and starts its perception task.
//
// Postcondition: on success the enemy is present in the world, the registry
// and the manager.
func (s *Spawner) Spawn(templateID string, wave int, pos cp.Vector) (*Enemy, error) {
	tmpl, err := s.Template(templateID)
	if err != nil {
		return nil, err
	}

	h := entity.NewHandle()
	body, err := s.deps.World.AddCombatant(h, pos, tmpl.ColliderRadius(), entity.CategoryEnemy)
	if err != nil {
		return nil, fmt.Errorf("spawning %q: %w", templateID, err)
	}
	e, err := NewEnemy(tmpl, body, tmpl.AgentConfig(s.deps.PerceptionInterval), pursuit.Deps{
		Registry: s.deps.Registry,
		Query:    s.deps.World,
		Sink:     s.deps.Sink,
		Clock:    s.deps.Clock,
		Logger:   s.deps.Logger,
	})
	if err != nil {
		_ = s.deps.World.Remove(h)
		return nil, fmt.Errorf("spawning %q: %w", templateID, err)
	}
	e.wave = wave
	body.Navigator().SetStoppingDistance(max(tmpl.ColliderRadius()+s.deps.TargetRadius-contactOverlap, 0))

	p := s.profile(tmpl, wave)
	e.Setup(p.Health, p.Damage, p.Speed, p.Skin)

	if err := s.deps.Registry.Register(e); err != nil {
		_ = s.deps.World.Remove(h)
		return nil, fmt.Errorf("spawning %q: %w", templateID, err)
	}
	if err := s.deps.Manager.Add(e); err != nil {
		_ = s.deps.Registry.Remove(h)
		_ = s.deps.World.Remove(h)
		return nil, fmt.Errorf("spawning %q: %w", templateID, err)
	}
	e.Start(s.deps.Scheduler)

	s.logger.Debug("enemy spawned",
		zap.String("template", templateID),
		zap.String("handle", string(h)),
		zap.Int("wave", wave),
		zap.Float64("health", e.StartingHealth()),
	)
	if s.deps.OnSpawn != nil {
		s.deps.OnSpawn(e)
	}
	return e, nil
}

func (s *Spawner) profile(tmpl *Template, wave int) Profile {
	p := Profile{Health: tmpl.Health, Damage: tmpl.Damage, Speed: tmpl.Speed, Skin: tmpl.Skin}
	if s.deps.Profiles == nil {
		return p
	}
	o := s.deps.Profiles(tmpl.ID, wave)
	if o.Health > 0 {
		p.Health = o.Health
	}
	if o.Damage > 0 {
		p.Damage = o.Damage
	}
	if o.Speed > 0 {
		p.Speed = o.Speed
	}
	if o.Skin != "" {
		p.Skin = o.Skin
	}
	return p
}

// SpawnWave spawns count enemies along the arena edge, cycling through the
// templates in ID order.
//
// Postcondition: returns every enemy spawned before the first failure.
func (s *Spawner) SpawnWave(wave, count int) ([]*Enemy, error) {
	positions := EdgePositions(s.deps.World.Bounds(), count, 2)
	out := make([]*Enemy, 0, count)
	for _, pos := range positions {
		id := s.ids[s.next%len(s.ids)]
		s.next++
		e, err := s.Spawn(id, wave, pos)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	s.logger.Info("wave spawned", zap.Int("wave", wave), zap.Int("enemies", len(out)))
	return out, nil
}

// Despawn removes e from the world, the registry and the manager.
func (s *Spawner) Despawn(e *Enemy) error {
	if err := s.deps.Manager.Remove(e.Handle()); err != nil {
		return err
	}
	_ = s.deps.Registry.Remove(e.Handle())
	_ = s.deps.World.Remove(e.Handle())
	return nil
}

// EdgePositions returns count points spread evenly along the perimeter of
// bounds, inset from the walls.
func EdgePositions(bounds physics.Bounds, count int, inset float64) []cp.Vector {
	if count <= 0 {
		return nil
	}
	w := math.Max(bounds.Width-2*inset, 0)
	h := math.Max(bounds.Height-2*inset, 0)
	perimeter := 2 * (w + h)
	out := make([]cp.Vector, 0, count)
	for i := 0; i < count; i++ {
		d := perimeter * float64(i) / float64(count)
		var p cp.Vector
		switch {
		case d < w:
			p = cp.Vector{X: d, Y: 0}
		case d < w+h:
			p = cp.Vector{X: w, Y: d - w}
		case d < 2*w+h:
			p = cp.Vector{X: w - (d - w - h), Y: h}
		default:
			p = cp.Vector{X: 0, Y: h - (d - 2*w - h)}
		}
		out = append(out, p.Add(cp.Vector{X: inset, Y: inset}))
	}
	return out
}
