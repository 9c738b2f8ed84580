// Package sim hosts the combat simulation: one goroutine advancing the clock,
// the scheduler, enemy agents, contacts and physics at a fixed frame rate.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zombiex/internal/game/clock"
	"github.com/cory-johannsen/zombiex/internal/game/effects"
	"github.com/cory-johannsen/zombiex/internal/game/entity"
	"github.com/cory-johannsen/zombiex/internal/game/npc"
	"github.com/cory-johannsen/zombiex/internal/game/schedule"
	"github.com/cory-johannsen/zombiex/internal/game/weapon"
	"github.com/cory-johannsen/zombiex/internal/journal"
	"github.com/cory-johannsen/zombiex/internal/observability"
	"github.com/cory-johannsen/zombiex/internal/physics"
)

// DefaultPlayerHealth is used when Config.PlayerHealth is unset.
const DefaultPlayerHealth = 100

// Config holds the host's tunables.
type Config struct {
	Arena physics.Bounds
	// FrameInterval is the simulated time per frame and the wall-clock
	// ticker period used by Start.
	FrameInterval time.Duration
	// PerceptionInterval applies to templates that leave it unset.
	PerceptionInterval time.Duration
	Waves              npc.WaveConfig
	// EnemyTemplate restricts waves to one template; empty uses all.
	EnemyTemplate string
	AutoFire      bool
	// Duration ends Start after this much simulated time; zero never ends.
	Duration time.Duration
	// TracerDuration overrides the weapon's tracer duration when positive.
	TracerDuration time.Duration
	PlayerHealth   float64
	// WaveAmmo is added to the player's reserve each time a wave is cleared.
	WaveAmmo int
	// WaveHeal is restored to the player each time a wave is cleared.
	WaveHeal float64
	// SessionID tags journal events; generated when empty.
	SessionID string
	// Epoch is the wall time of simulated time zero; now when unset.
	Epoch time.Time
}

// Validate checks the Config invariants.
func (c Config) Validate() error {
	var errs []error
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		errs = append(errs, fmt.Errorf("arena must be positive, got %vx%v", c.Arena.Width, c.Arena.Height))
	}
	if c.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("frame interval must be > 0, got %s", c.FrameInterval))
	}
	if c.PerceptionInterval <= 0 {
		errs = append(errs, fmt.Errorf("perception interval must be > 0, got %s", c.PerceptionInterval))
	}
	if err := c.Waves.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must not be negative, got %s", c.Duration))
	}
	if c.WaveAmmo < 0 || c.WaveHeal < 0 {
		errs = append(errs, fmt.Errorf("wave rewards must not be negative, got ammo=%d heal=%v", c.WaveAmmo, c.WaveHeal))
	}
	if c.PlayerHealth < 0 {
		errs = append(errs, fmt.Errorf("player health must not be negative, got %v", c.PlayerHealth))
	}
	return errors.Join(errs...)
}

// Deps are the content and outputs the host wires together.
type Deps struct {
	Templates []*npc.Template
	Weapon    *weapon.Def
	// Profiles is optional.
	Profiles npc.ProfileFunc
	// Sink defaults to effects.Nop.
	Sink effects.Sink
	// Journal is optional.
	Journal *journal.Publisher
	// Metrics is optional.
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// Host owns every simulation object and drives them from one goroutine.
//
// Concurrency: Frame, Start and the accessors must not be called
// concurrently. Stop is safe from any goroutine.
type Host struct {
	cfg      Config
	clk      *clock.Manual
	sched    *schedule.Scheduler
	world    *physics.World
	registry *entity.Registry
	enemies  *npc.Manager
	spawner  *npc.Spawner
	waves    *npc.WaveManager
	player   *Player
	driver   *AutoFire
	sink     effects.Sink
	journal  *journal.Publisher
	metrics  *observability.Metrics
	logger   *zap.Logger

	// attacker is the enemy whose contact is being dispatched.
	attacker entity.Handle
	frames   uint64
	started  bool

	stopOnce sync.Once
	stop     chan struct{}
}

// New builds the arena, the player and the wave machinery. Nothing spawns
// until the first wave starts.
func New(cfg Config, deps Deps) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim.New: %w", err)
	}
	if deps.Weapon == nil {
		return nil, errors.New("sim.New: weapon definition is required")
	}
	if deps.Sink == nil {
		deps.Sink = effects.Nop{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.SessionID == "" {
		cfg.SessionID = string(entity.NewHandle())
	}
	if cfg.Epoch.IsZero() {
		cfg.Epoch = time.Now()
	}
	if cfg.PlayerHealth == 0 {
		cfg.PlayerHealth = DefaultPlayerHealth
	}
	templates, err := selectTemplates(deps.Templates, cfg.EnemyTemplate)
	if err != nil {
		return nil, fmt.Errorf("sim.New: %w", err)
	}

	h := &Host{
		cfg:      cfg,
		clk:      clock.NewManual(0),
		registry: entity.NewRegistry(),
		enemies:  npc.NewManager(),
		sink:     deps.Sink,
		journal:  deps.Journal,
		metrics:  deps.Metrics,
		logger:   deps.Logger.Named("sim").With(zap.String("session", cfg.SessionID)),
		stop:     make(chan struct{}),
	}
	h.sched = schedule.New(h.clk)

	if h.world, err = physics.NewWorld(cfg.Arena, deps.Logger); err != nil {
		return nil, fmt.Errorf("sim.New: %w", err)
	}
	if err := h.addPlayer(deps.Weapon, deps.Logger); err != nil {
		return nil, fmt.Errorf("sim.New: %w", err)
	}

	h.spawner, err = npc.NewSpawner(templates, npc.SpawnerDeps{
		World:              h.world,
		Registry:           h.registry,
		Manager:            h.enemies,
		Scheduler:          h.sched,
		Sink:               deps.Sink,
		Clock:              h.clk,
		Logger:             deps.Logger,
		Profiles:           deps.Profiles,
		PerceptionInterval: cfg.PerceptionInterval,
		TargetRadius:       h.player.Body().Radius(),
		OnSpawn:            h.watchEnemy,
	})
	if err != nil {
		return nil, fmt.Errorf("sim.New: %w", err)
	}
	if h.waves, err = npc.NewWaveManager(h.spawner, h.sched, cfg.Waves, deps.Logger); err != nil {
		return nil, fmt.Errorf("sim.New: %w", err)
	}
	h.waves.OnCleared = h.rewardWave
	if cfg.AutoFire {
		h.driver = NewAutoFire(h.player, h.enemies)
	}
	return h, nil
}

func selectTemplates(all []*npc.Template, id string) ([]*npc.Template, error) {
	if len(all) == 0 {
		return nil, errors.New("at least one enemy template is required")
	}
	if id == "" {
		return all, nil
	}
	for _, t := range all {
		if t.ID == id {
			return []*npc.Template{t}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", npc.ErrUnknownTemplate, id)
}

func (h *Host) addPlayer(def *weapon.Def, logger *zap.Logger) error {
	if h.cfg.TracerDuration > 0 {
		override := *def
		override.TracerDuration = h.cfg.TracerDuration.String()
		def = &override
	}
	handle := entity.NewHandle()
	center := cp.Vector{X: h.cfg.Arena.Width / 2, Y: h.cfg.Arena.Height / 2}
	body, err := h.world.AddCombatant(handle, center, npc.DefaultRadius, entity.CategoryPlayer)
	if err != nil {
		return err
	}
	p := newPlayer(handle, h.cfg.PlayerHealth, body)
	gun, err := weapon.NewController(def, weapon.Deps{
		Registry:   h.registry,
		Ray:        h.world.RayMask(entity.CategoryEnemy),
		Muzzle:     muzzle{p},
		Sink:       h.sink,
		Clock:      h.clk,
		Scheduler:  h.sched,
		Logger:     logger,
		Owner:      handle,
		OnShot:     h.recordShot,
		OnReloaded: func(int) { h.metrics.Reloaded(def.ID) },
	})
	if err != nil {
		return err
	}
	p.gun = gun
	p.OnDamaged(func(amount float64) {
		h.publish(journal.KindHit, h.attacker, p.Handle(), amount)
	})
	p.OnDeath(func() {
		gun.Disable()
		h.publish(journal.KindKill, h.attacker, p.Handle(), 0)
		h.logger.Info("player died", zap.Duration("sim_time", h.clk.Now()))
	})
	if err := h.registry.Register(p); err != nil {
		return err
	}
	h.player = p
	return nil
}

func (h *Host) watchEnemy(e *npc.Enemy) {
	shooter := h.player.Handle()
	e.OnDamaged(func(amount float64) {
		h.publish(journal.KindHit, shooter, e.Handle(), amount)
	})
	e.OnDeath(func() {
		h.metrics.Killed(e.Template().ID)
		h.publish(journal.KindKill, shooter, e.Handle(), 0)
	})
}

// rewardWave resupplies a surviving player once a wave is cleared.
func (h *Host) rewardWave(wave int) {
	if h.player.Dead() {
		return
	}
	gun := h.player.Weapon()
	gun.AddReserve(h.cfg.WaveAmmo)
	h.player.RestoreHealth(h.cfg.WaveHeal)
	h.logger.Debug("wave reward",
		zap.Int("wave", wave),
		zap.Int("reserve", gun.Reserve()),
		zap.Float64("player_health", h.player.Health()),
	)
}

func (h *Host) recordShot(s weapon.Shot) {
	h.metrics.Shot(h.player.Weapon().Def().ID, !s.Target.IsZero())
	h.publish(journal.KindShot, h.player.Handle(), s.Target, s.Damage)
}

func (h *Host) publish(kind journal.Kind, actor, target entity.Handle, amount float64) {
	if h.journal == nil {
		return
	}
	h.journal.Publish(journal.Event{
		SessionID:  h.cfg.SessionID,
		Kind:       kind,
		ActorID:    string(actor),
		TargetID:   string(target),
		Amount:     amount,
		OccurredAt: h.cfg.Epoch.Add(h.clk.Now()),
	})
}

// SessionID returns the journal session identifier.
func (h *Host) SessionID() string { return h.cfg.SessionID }

// Player returns the player.
func (h *Host) Player() *Player { return h.player }

// Enemies returns the enemy manager.
func (h *Host) Enemies() *npc.Manager { return h.enemies }

// Waves returns the wave manager.
func (h *Host) Waves() *npc.WaveManager { return h.waves }

// World returns the physics world.
func (h *Host) World() *physics.World { return h.world }

// Registry returns the combatant registry.
func (h *Host) Registry() *entity.Registry { return h.registry }

// Now returns the simulated time.
func (h *Host) Now() time.Duration { return h.clk.Now() }

// Frames returns the number of frames run.
func (h *Host) Frames() uint64 { return h.frames }

// Begin spawns the opening wave. It is idempotent and called by Start.
func (h *Host) Begin() error {
	if h.started {
		return nil
	}
	h.started = true
	return h.waves.Start()
}

// Frame advances the simulation by dt: clock, scheduled tasks, the fire
// driver, per-frame enemy updates, contact dispatch, physics and wave pacing.
func (h *Host) Frame(dt time.Duration) {
	h.clk.Advance(dt)
	h.sched.Advance()
	if h.driver != nil {
		h.driver.Tick()
	}
	for _, e := range h.enemies.All() {
		if !e.Dead() {
			e.Update()
		}
	}
	h.dispatchContacts()
	h.world.Step(dt)
	h.waves.Tick()
	h.frames++
}

// dispatchContacts delivers every enemy/player overlap to the enemy.
func (h *Host) dispatchContacts() {
	for _, c := range h.world.Contacts(entity.CategoryEnemy, entity.CategoryPlayer) {
		e, ok := h.enemies.Get(c.From.Handle())
		if !ok {
			continue
		}
		other, ok := h.registry.Get(c.To.Handle())
		if !ok {
			continue
		}
		h.attacker = e.Handle()
		e.OnContact(other, c.To)
		h.attacker = ""
	}
}

// Start spawns the opening wave and runs frames on a wall-clock ticker until
// Stop is called, the configured duration elapses or the player dies.
func (h *Host) Start() error {
	if err := h.Begin(); err != nil {
		return fmt.Errorf("starting first wave: %w", err)
	}
	h.logger.Info("simulation started",
		zap.Duration("frame_interval", h.cfg.FrameInterval),
		zap.Int("enemies", h.enemies.Count()),
	)
	ticker := time.NewTicker(h.cfg.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-h.stop:
			h.logSummary("stopped")
			return nil
		case <-ticker.C:
			h.Frame(h.cfg.FrameInterval)
			if h.player.Dead() {
				h.logSummary("player dead")
				return nil
			}
			if h.cfg.Duration > 0 && h.clk.Now() >= h.cfg.Duration {
				h.logSummary("duration elapsed")
				return nil
			}
		}
	}
}

// Stop ends Start. Safe to call more than once.
func (h *Host) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

func (h *Host) logSummary(reason string) {
	gun := h.player.Weapon()
	h.logger.Info("simulation finished",
		zap.String("reason", reason),
		zap.Uint64("frames", h.frames),
		zap.Duration("sim_time", h.clk.Now()),
		zap.Int("wave", h.waves.Wave()),
		zap.Int("enemies_alive", h.enemies.LiveCount()),
		zap.Float64("player_health", h.player.Health()),
		zap.Int("mag_ammo", gun.MagAmmo()),
		zap.Int("reserve", gun.Reserve()),
	)
}
