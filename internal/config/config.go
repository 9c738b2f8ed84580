// Package config provides Viper-based configuration loading for the zombiex
// simulation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds the frame driver and arena settings.
type SimulationConfig struct {
	// TickRate is the number of simulation frames per second.
	TickRate int `mapstructure:"tick_rate"`
	// PerceptionInterval is the default enemy target re-acquisition period.
	PerceptionInterval time.Duration `mapstructure:"perception_interval"`
	ArenaWidth         float64       `mapstructure:"arena_width"`
	ArenaHeight        float64       `mapstructure:"arena_height"`
	// Enemies is the size of the first wave.
	Enemies int `mapstructure:"enemies"`
	// Wave is the number of the first wave.
	Wave int `mapstructure:"wave"`
	// WaveGrowth is how many enemies each later wave adds.
	WaveGrowth int `mapstructure:"wave_growth"`
	// WaveDelay is the pause between clearing a wave and spawning the next.
	WaveDelay time.Duration `mapstructure:"wave_delay"`
	// EnemyTemplate is the template ID waves spawn from.
	EnemyTemplate string `mapstructure:"enemy_template"`
	// AutoFire lets the player weapon aim and fire at the nearest enemy.
	AutoFire bool `mapstructure:"auto_fire"`
	// Duration stops the simulation after this long; zero runs until signalled.
	Duration time.Duration `mapstructure:"duration"`
	// WaveAmmo and WaveHeal are granted to a surviving player on each cleared wave.
	WaveAmmo int     `mapstructure:"wave_ammo"`
	WaveHeal float64 `mapstructure:"wave_heal"`
}

// FrameInterval returns the wall-clock length of one frame.
//
// Precondition: TickRate > 0.
func (s SimulationConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(s.TickRate)
}

// WeaponConfig selects the player weapon.
type WeaponConfig struct {
	// ID is the weapon definition the player is armed with.
	ID string `mapstructure:"id"`
	// TracerDuration overrides the definition's tracer duration when positive.
	TracerDuration time.Duration `mapstructure:"tracer_duration"`
}

// ContentConfig locates data files. An empty directory disables that source
// and built-in defaults are used.
type ContentConfig struct {
	EnemiesDir string `mapstructure:"enemies_dir"`
	WeaponsDir string `mapstructure:"weapons_dir"`
	ScriptsDir string `mapstructure:"scripts_dir"`
	// ScriptInstructionLimit bounds each Lua hook call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns on the combat journal.
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JournalConfig tunes the combat journal pipeline.
type JournalConfig struct {
	// BufferSize is the publisher queue length; events beyond it are dropped.
	BufferSize    int           `mapstructure:"buffer_size"`
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// MetricsConfig toggles OpenTelemetry instruments.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Interval is how often collected metrics are exported.
	Interval time.Duration `mapstructure:"interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Weapon     WeaponConfig     `mapstructure:"weapon"`
	Content    ContentConfig    `mapstructure:"content"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Journal    JournalConfig    `mapstructure:"journal"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateWeapon(c.Weapon); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 0, got %d", c.Content.ScriptInstructionLimit))
	}
	if c.Metrics.Enabled && c.Metrics.Interval <= 0 {
		errs = append(errs, "metrics.interval must be positive")
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
		if err := validateJournal(c.Journal); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickRate < 1 || s.TickRate > 1000 {
		errs = append(errs, fmt.Sprintf("simulation.tick_rate must be 1-1000, got %d", s.TickRate))
	}
	if s.PerceptionInterval <= 0 {
		errs = append(errs, "simulation.perception_interval must be positive")
	}
	if s.ArenaWidth <= 0 || s.ArenaHeight <= 0 {
		errs = append(errs, fmt.Sprintf("simulation arena must be positive, got %vx%v", s.ArenaWidth, s.ArenaHeight))
	}
	if s.Enemies < 0 {
		errs = append(errs, fmt.Sprintf("simulation.enemies must be >= 0, got %d", s.Enemies))
	}
	if s.Wave < 1 {
		errs = append(errs, fmt.Sprintf("simulation.wave must be >= 1, got %d", s.Wave))
	}
	if s.WaveGrowth < 0 {
		errs = append(errs, fmt.Sprintf("simulation.wave_growth must be >= 0, got %d", s.WaveGrowth))
	}
	if s.WaveDelay < 0 {
		errs = append(errs, "simulation.wave_delay must not be negative")
	}
	if s.EnemyTemplate == "" {
		errs = append(errs, "simulation.enemy_template must not be empty")
	}
	if s.Duration < 0 {
		errs = append(errs, "simulation.duration must not be negative")
	}
	if s.WaveAmmo < 0 {
		errs = append(errs, fmt.Sprintf("simulation.wave_ammo must be >= 0, got %d", s.WaveAmmo))
	}
	if s.WaveHeal < 0 {
		errs = append(errs, fmt.Sprintf("simulation.wave_heal must be >= 0, got %v", s.WaveHeal))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateWeapon(w WeaponConfig) error {
	var errs []string
	if w.ID == "" {
		errs = append(errs, "weapon.id must not be empty")
	}
	if w.TracerDuration < 0 {
		errs = append(errs, "weapon.tracer_duration must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateJournal(j JournalConfig) error {
	var errs []string
	if j.BufferSize < 1 {
		errs = append(errs, fmt.Sprintf("journal.buffer_size must be >= 1, got %d", j.BufferSize))
	}
	if j.BatchSize < 1 {
		errs = append(errs, fmt.Sprintf("journal.batch_size must be >= 1, got %d", j.BatchSize))
	}
	if j.FlushInterval <= 0 {
		errs = append(errs, "journal.flush_interval must be positive")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and the
// environment only.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with ZOMBIEX_ prefix
	v.SetEnvPrefix("ZOMBIEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a viper instance seeded with every default.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.tick_rate", 60)
	v.SetDefault("simulation.perception_interval", "250ms")
	v.SetDefault("simulation.arena_width", 60.0)
	v.SetDefault("simulation.arena_height", 40.0)
	v.SetDefault("simulation.enemies", 5)
	v.SetDefault("simulation.wave", 1)
	v.SetDefault("simulation.wave_growth", 2)
	v.SetDefault("simulation.wave_delay", "3s")
	v.SetDefault("simulation.enemy_template", "zombie")
	v.SetDefault("simulation.auto_fire", true)
	v.SetDefault("simulation.duration", "0s")
	v.SetDefault("simulation.wave_ammo", 50)
	v.SetDefault("simulation.wave_heal", 25.0)

	v.SetDefault("weapon.id", "rifle")
	v.SetDefault("weapon.tracer_duration", "30ms")

	v.SetDefault("content.enemies_dir", "")
	v.SetDefault("content.weapons_dir", "")
	v.SetDefault("content.scripts_dir", "")
	v.SetDefault("content.script_instruction_limit", 100000)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "zombiex")
	v.SetDefault("database.password", "zombiex")
	v.SetDefault("database.name", "zombiex")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("journal.buffer_size", 1024)
	v.SetDefault("journal.batch_size", 128)
	v.SetDefault("journal.flush_interval", "1s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.interval", "10s")
}
