// Package npc provides enemy templates, live enemies built on the pursuit
// agent, and the spawner that places them in the arena.
package npc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/zombiex/internal/game/entity"
	"github.com/cory-johannsen/zombiex/internal/game/pursuit"
)

// ErrUnknownTemplate is returned when a template ID is not registered.
var ErrUnknownTemplate = errors.New("unknown enemy template")

// Template defines a reusable enemy archetype loaded from YAML.
type Template struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Health      float64 `yaml:"health"`
	Damage      float64 `yaml:"damage"`
	Speed       float64 `yaml:"speed"`
	Skin        string  `yaml:"skin"`
	// Radius is the collider radius; zero uses DefaultRadius.
	Radius           float64 `yaml:"radius"`
	PerceptionRadius float64 `yaml:"perception_radius"`
	// PerceptionInterval and AttackCooldown are Go duration strings. An empty
	// PerceptionInterval uses the simulation default.
	PerceptionInterval string `yaml:"perception_interval"`
	AttackCooldown     string `yaml:"attack_cooldown"`
	// RespawnDelay is the pause before the next wave once every enemy spawned
	// from this template is dead. Empty means the simulation default.
	RespawnDelay string `yaml:"respawn_delay"`
}

// DefaultRadius is the collider radius used when a template leaves it unset.
const DefaultRadius = 0.5

// DefaultZombie returns the stock zombie template.
func DefaultZombie() *Template {
	return &Template{
		ID:                 "zombie",
		Name:               "Zombie",
		Description:        "A slow, relentless walker.",
		Health:             100,
		Damage:             20,
		Speed:              2,
		Skin:               "#5a7d3a",
		Radius:             DefaultRadius,
		PerceptionRadius:   20,
		PerceptionInterval: "250ms",
		AttackCooldown:     "500ms",
	}
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Health > 0,
// Damage, Speed and Radius are non-negative, PerceptionRadius > 0 and every
// duration parses; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.Health <= 0 {
		return fmt.Errorf("npc template %q: health must be > 0", t.ID)
	}
	if t.Damage < 0 || t.Speed < 0 || t.Radius < 0 {
		return fmt.Errorf("npc template %q: damage, speed and radius must be >= 0", t.ID)
	}
	if t.PerceptionRadius <= 0 {
		return fmt.Errorf("npc template %q: perception_radius must be > 0", t.ID)
	}
	for name, value := range map[string]string{
		"perception_interval": t.PerceptionInterval,
		"attack_cooldown":     t.AttackCooldown,
		"respawn_delay":       t.RespawnDelay,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("npc template %q: %s %q is not a valid duration: %w", t.ID, name, value, err)
		} else if d < 0 {
			return fmt.Errorf("npc template %q: %s must not be negative", t.ID, name)
		}
	}
	return nil
}

// AgentConfig converts the template into pursuit tunables. Unset durations
// fall back to defaultInterval and pursuit.DefaultConfig.
//
// Precondition: Validate returned nil.
func (t *Template) AgentConfig(defaultInterval time.Duration) pursuit.Config {
	cfg := pursuit.DefaultConfig()
	cfg.PerceptionRadius = t.PerceptionRadius
	cfg.Damage = t.Damage
	cfg.Speed = t.Speed
	cfg.TargetCategory = entity.CategoryPlayer
	if defaultInterval > 0 {
		cfg.PerceptionInterval = defaultInterval
	}
	if d, err := time.ParseDuration(t.PerceptionInterval); err == nil && d > 0 {
		cfg.PerceptionInterval = d
	}
	if d, err := time.ParseDuration(t.AttackCooldown); err == nil {
		cfg.AttackCooldown = d
	}
	return cfg
}

// ColliderRadius returns Radius or DefaultRadius when unset.
func (t *Template) ColliderRadius() float64 {
	if t.Radius > 0 {
		return t.Radius
	}
	return DefaultRadius
}

// RespawnDuration returns the parsed RespawnDelay, or 0 when unset.
func (t *Template) RespawnDuration() time.Duration {
	d, err := time.ParseDuration(t.RespawnDelay)
	if err != nil {
		return 0
	}
	return d
}

// LoadTemplateFromBytes parses a single enemy template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
