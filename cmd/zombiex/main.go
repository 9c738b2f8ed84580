// Package main provides the headless combat simulation binary: one player
// with a hit-scan weapon against successive waves of pursuing enemies.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/cory-johannsen/zombiex/internal/config"
	"github.com/cory-johannsen/zombiex/internal/game/effects"
	"github.com/cory-johannsen/zombiex/internal/game/npc"
	"github.com/cory-johannsen/zombiex/internal/game/weapon"
	"github.com/cory-johannsen/zombiex/internal/journal"
	"github.com/cory-johannsen/zombiex/internal/observability"
	"github.com/cory-johannsen/zombiex/internal/physics"
	"github.com/cory-johannsen/zombiex/internal/scripting"
	"github.com/cory-johannsen/zombiex/internal/server"
	"github.com/cory-johannsen/zombiex/internal/sim"
	"github.com/cory-johannsen/zombiex/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file (defaults and ZOMBIEX_ env when empty)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		provider, err := observability.NewMeterProvider(os.Stderr, cfg.Metrics.Interval)
		if err != nil {
			logger.Fatal("creating meter provider", zap.Error(err))
		}
		defer func() {
			if err := provider.Shutdown(context.Background()); err != nil {
				logger.Warn("shutting down meter provider", zap.Error(err))
			}
		}()
		otel.SetMeterProvider(provider)
		if metrics, err = observability.NewMetrics(observability.Meter()); err != nil {
			logger.Fatal("creating metrics", zap.Error(err))
		}
	}

	templates, weaponDef, err := loadContent(cfg)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("enemy_templates", len(templates)),
		zap.String("weapon", weaponDef.ID),
	)

	var profiles npc.ProfileFunc
	if cfg.Content.ScriptsDir != "" {
		scripts := scripting.NewManager(logger)
		if err := scripts.Load(cfg.Content.ScriptsDir, cfg.Content.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
		defer scripts.Close()
		profiles = func(templateID string, wave int) npc.Profile {
			p := scripts.SpawnProfile(templateID, wave)
			return npc.Profile{Health: p.Health, Damage: p.Damage, Speed: p.Speed, Skin: p.Skin}
		}
		logger.Info("scripts loaded", zap.String("dir", cfg.Content.ScriptsDir))
	}

	lifecycle := server.NewLifecycle(logger)

	var pub *journal.Publisher
	if cfg.Database.Enabled {
		dbStart := time.Now()
		if err := postgres.Migrate(cfg.Database.DSN()); err != nil {
			logger.Fatal("migrating database", zap.Error(err))
		}
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)

		pub = journal.NewPublisher(cfg.Journal.BufferSize)
		pub.OnDrop = metrics.JournalDropped
		svc, err := journal.NewService(pub, postgres.NewJournalRepository(pool.DB()), journal.ServiceConfig{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
		}, logger)
		if err != nil {
			logger.Fatal("creating journal service", zap.Error(err))
		}
		lifecycle.Add("journal", svc)
	}

	host, err := sim.New(sim.Config{
		Arena:              physics.Bounds{Width: cfg.Simulation.ArenaWidth, Height: cfg.Simulation.ArenaHeight},
		FrameInterval:      cfg.Simulation.FrameInterval(),
		PerceptionInterval: cfg.Simulation.PerceptionInterval,
		Waves: npc.WaveConfig{
			First:  cfg.Simulation.Wave,
			Size:   max(cfg.Simulation.Enemies, 1),
			Growth: cfg.Simulation.WaveGrowth,
			Delay:  cfg.Simulation.WaveDelay,
		},
		EnemyTemplate:  cfg.Simulation.EnemyTemplate,
		AutoFire:       cfg.Simulation.AutoFire,
		Duration:       cfg.Simulation.Duration,
		TracerDuration: cfg.Weapon.TracerDuration,
		WaveAmmo:       cfg.Simulation.WaveAmmo,
		WaveHeal:       cfg.Simulation.WaveHeal,
	}, sim.Deps{
		Templates: templates,
		Weapon:    weaponDef,
		Profiles:  profiles,
		Sink:      effects.NewLogSink(logger),
		Journal:   pub,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("creating simulation", zap.Error(err))
	}
	if cfg.Metrics.Enabled {
		if err := observability.RegisterLiveEnemies(observability.Meter(), host.Enemies().LiveCount); err != nil {
			logger.Fatal("registering live enemy gauge", zap.Error(err))
		}
	}
	lifecycle.Add("simulation", host)

	logger.Info("zombiex ready",
		zap.String("session", host.SessionID()),
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("simulation exited with error", zap.Error(err))
	}
	if pub != nil {
		logger.Info("journal closed", zap.Int64("dropped", pub.Dropped()))
	}
}

// loadContent reads enemy templates and the player weapon, falling back to
// the built-in zombie and rifle when a directory is not configured.
func loadContent(cfg config.Config) ([]*npc.Template, *weapon.Def, error) {
	templates := []*npc.Template{npc.DefaultZombie()}
	if cfg.Content.EnemiesDir != "" {
		loaded, err := npc.LoadTemplates(cfg.Content.EnemiesDir)
		if err != nil {
			return nil, nil, err
		}
		if len(loaded) == 0 {
			return nil, nil, fmt.Errorf("no enemy templates in %q", cfg.Content.EnemiesDir)
		}
		templates = loaded
	}

	defs := []*weapon.Def{weapon.DefaultRifle()}
	if cfg.Content.WeaponsDir != "" {
		loaded, err := weapon.LoadDefs(cfg.Content.WeaponsDir)
		if err != nil {
			return nil, nil, err
		}
		defs = loaded
	}
	catalog, err := weapon.NewCatalog(defs...)
	if err != nil {
		return nil, nil, err
	}
	def, err := catalog.Get(cfg.Weapon.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("selecting player weapon: %w (available: %v)", err, catalog.IDs())
	}
	return templates, def, nil
}
