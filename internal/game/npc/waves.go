package npc

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/zombiex/internal/game/schedule"
)

// WaveConfig controls wave pacing.
//
// Invariant: First >= 1; Size >= 1; Growth >= 0; Delay >= 0.
type WaveConfig struct {
	// First is the number of the opening wave.
	First int
	// Size is the enemy count of the opening wave.
	Size int
	// Growth is added to the enemy count for each later wave.
	Growth int
	// Delay is the pause between clearing a wave and spawning the next. A
	// template's RespawnDelay, when longer, takes precedence.
	Delay time.Duration
}

// Validate checks the WaveConfig invariants.
func (c WaveConfig) Validate() error {
	if c.First < 1 || c.Size < 1 || c.Growth < 0 || c.Delay < 0 {
		return fmt.Errorf("invalid wave config: first=%d size=%d growth=%d delay=%s", c.First, c.Size, c.Growth, c.Delay)
	}
	return nil
}

// WaveManager spawns successive waves once the previous one is cleared.
//
// Invariant: at most one pending wave task exists.
//
// Concurrency: Start and Tick must be called from the simulation goroutine.
type WaveManager struct {
	spawner *Spawner
	sched   *schedule.Scheduler
	cfg     WaveConfig
	logger  *zap.Logger

	wave    int
	pending *schedule.Task
	// OnWave, when set, is called after each wave spawns.
	OnWave func(wave int, enemies []*Enemy)
	// OnCleared, when set, is called once when every enemy of a wave is dead.
	OnCleared func(wave int)
}

// NewWaveManager creates a manager that has not spawned anything yet.
func NewWaveManager(spawner *Spawner, sched *schedule.Scheduler, cfg WaveConfig, logger *zap.Logger) (*WaveManager, error) {
	if spawner == nil || sched == nil {
		return nil, fmt.Errorf("npc.NewWaveManager: spawner and scheduler are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaveManager{
		spawner: spawner,
		sched:   sched,
		cfg:     cfg,
		logger:  logger.Named("waves"),
	}, nil
}

// Wave returns the number of the most recently spawned wave, 0 before Start.
func (w *WaveManager) Wave() int { return w.wave }

// Pending reports whether the next wave is scheduled.
func (w *WaveManager) Pending() bool { return w.sched.Active(w.pending) }

// Start spawns the opening wave.
func (w *WaveManager) Start() error {
	return w.spawn(w.cfg.First)
}

// Tick schedules the next wave when every tracked enemy is dead. Corpses of
// the cleared wave are despawned when the next wave spawns.
func (w *WaveManager) Tick() {
	if w.wave == 0 || w.Pending() || w.spawner.Manager().LiveCount() > 0 {
		return
	}
	next := w.wave + 1
	delay := w.delay()
	w.logger.Debug("wave cleared", zap.Int("wave", w.wave), zap.Duration("next_in", delay))
	if w.OnCleared != nil {
		w.OnCleared(w.wave)
	}
	w.pending = w.sched.After(delay, func() {
		for _, e := range w.spawner.Manager().Dead() {
			if err := w.spawner.Despawn(e); err != nil {
				w.logger.Warn("despawn failed", zap.String("handle", string(e.Handle())), zap.Error(err))
			}
		}
		if err := w.spawn(next); err != nil {
			w.logger.Error("wave spawn failed", zap.Int("wave", next), zap.Error(err))
		}
	})
}

// delay is the longest of the configured delay and the template delays.
func (w *WaveManager) delay() time.Duration {
	d := w.cfg.Delay
	for _, t := range w.spawner.Templates() {
		d = max(d, t.RespawnDuration())
	}
	return d
}

func (w *WaveManager) spawn(wave int) error {
	count := w.cfg.Size + (wave-w.cfg.First)*w.cfg.Growth
	enemies, err := w.spawner.SpawnWave(wave, count)
	w.wave = wave
	if w.OnWave != nil && len(enemies) > 0 {
		w.OnWave(wave, enemies)
	}
	return err
}
