// Package weapon provides hit-scan weapon definitions and the fire/reload
// state machine that drives them.
package weapon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownWeapon is returned when a catalog lookup misses.
var ErrUnknownWeapon = errors.New("unknown weapon")

// Def defines the static properties of a hit-scan weapon loaded from YAML.
type Def struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	Damage           float64 `yaml:"damage"`
	FireDistance     float64 `yaml:"fire_distance"`
	MagazineCapacity int     `yaml:"magazine_capacity"`
	StartingReserve  int     `yaml:"starting_reserve"`
	// FireInterval, ReloadTime and TracerDuration are Go duration strings
	// (e.g. "120ms", "1.8s"). An empty TracerDuration uses DefaultTracerDuration.
	FireInterval   string `yaml:"fire_interval"`
	ReloadTime     string `yaml:"reload_time"`
	TracerDuration string `yaml:"tracer_duration"`
}

// DefaultTracerDuration is how long the shot tracer stays visible.
const DefaultTracerDuration = 30 * time.Millisecond

// DefaultRifle returns the stock rifle definition.
func DefaultRifle() *Def {
	return &Def{
		ID:               "rifle",
		Name:             "Rifle",
		Damage:           25,
		FireDistance:     50,
		MagazineCapacity: 25,
		StartingReserve:  100,
		FireInterval:     "120ms",
		ReloadTime:       "1.8s",
		TracerDuration:   "30ms",
	}
}

// Validate checks that the Def satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid; otherwise the error
// lists every violation.
func (d *Def) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if d.Damage < 0 {
		errs = append(errs, fmt.Errorf("Damage must be >= 0, got %v", d.Damage))
	}
	if d.FireDistance <= 0 {
		errs = append(errs, fmt.Errorf("FireDistance must be > 0, got %v", d.FireDistance))
	}
	if d.MagazineCapacity <= 0 {
		errs = append(errs, fmt.Errorf("MagazineCapacity must be > 0, got %d", d.MagazineCapacity))
	}
	if d.StartingReserve < 0 {
		errs = append(errs, fmt.Errorf("StartingReserve must be >= 0, got %d", d.StartingReserve))
	}
	for _, f := range []struct {
		name     string
		value    string
		optional bool
	}{
		{"FireInterval", d.FireInterval, false},
		{"ReloadTime", d.ReloadTime, false},
		{"TracerDuration", d.TracerDuration, true},
	} {
		if f.value == "" && f.optional {
			continue
		}
		dur, err := time.ParseDuration(f.value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q is not a valid duration: %w", f.name, f.value, err))
			continue
		}
		if dur < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", f.name, dur))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon validation failed: %v", errs)
	}
	return nil
}

// FireIntervalDuration returns the parsed fire interval.
//
// Precondition: Validate returned nil.
func (d *Def) FireIntervalDuration() time.Duration {
	v, _ := time.ParseDuration(d.FireInterval)
	return v
}

// ReloadDuration returns the parsed reload time.
//
// Precondition: Validate returned nil.
func (d *Def) ReloadDuration() time.Duration {
	v, _ := time.ParseDuration(d.ReloadTime)
	return v
}

// TracerVisibleFor returns how long the tracer stays visible.
func (d *Def) TracerVisibleFor() time.Duration {
	if d.TracerDuration == "" {
		return DefaultTracerDuration
	}
	v, err := time.ParseDuration(d.TracerDuration)
	if err != nil {
		return DefaultTracerDuration
	}
	return v
}

// LoadDefFromBytes parses and validates a single weapon definition.
func LoadDefFromBytes(data []byte) (*Def, error) {
	var d Def
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing weapon YAML: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadDefs reads all *.yaml files from dir, parses each as a Def, validates
// it, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid Defs or the first encountered error.
func LoadDefs(dir string) ([]*Def, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadDefs: cannot read directory %q: %w", dir, err)
	}

	var defs []*Def
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadDefs: cannot read file %q: %w", path, err)
		}
		d, err := LoadDefFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("LoadDefs: invalid weapon in %q: %w", path, err)
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// Catalog holds weapon definitions indexed by ID.
type Catalog struct {
	defs map[string]*Def
}

// NewCatalog indexes defs by ID.
//
// Postcondition: returns an error if two defs share an ID.
func NewCatalog(defs ...*Def) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*Def, len(defs))}
	for _, d := range defs {
		if _, exists := c.defs[d.ID]; exists {
			return nil, fmt.Errorf("weapon: Catalog: weapon ID %q already registered", d.ID)
		}
		c.defs[d.ID] = d
	}
	return c, nil
}

// Get returns the Def for id or ErrUnknownWeapon.
func (c *Catalog) Get(id string) (*Def, error) {
	d, ok := c.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWeapon, id)
	}
	return d, nil
}

// IDs returns every registered ID in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
