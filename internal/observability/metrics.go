package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/cory-johannsen/zombiex/internal/observability"

// Meter returns the global meter for the simulation. It is a no-op until a
// provider is installed.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// Metrics holds the combat counters. A nil *Metrics discards everything.
type Metrics struct {
	shots   metric.Int64Counter
	hits    metric.Int64Counter
	reloads metric.Int64Counter
	kills   metric.Int64Counter
	dropped metric.Int64Counter
}

// NewMetrics creates the instruments on m.
//
// Precondition: m must be non-nil.
func NewMetrics(m metric.Meter) (*Metrics, error) {
	var (
		out Metrics
		err error
	)
	out.shots, err = m.Int64Counter(
		"zombiex.weapon.shots",
		metric.WithDescription("Shots fired by player weapons"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shots counter: %w", err)
	}
	out.hits, err = m.Int64Counter(
		"zombiex.weapon.hits",
		metric.WithDescription("Shots that damaged a combatant"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating hits counter: %w", err)
	}
	out.reloads, err = m.Int64Counter(
		"zombiex.weapon.reloads",
		metric.WithDescription("Completed weapon reloads"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating reloads counter: %w", err)
	}
	out.kills, err = m.Int64Counter(
		"zombiex.enemy.kills",
		metric.WithDescription("Enemies killed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kills counter: %w", err)
	}
	out.dropped, err = m.Int64Counter(
		"zombiex.journal.dropped",
		metric.WithDescription("Journal events dropped due to a full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return &out, nil
}

// RegisterLiveEnemies reports the value of count as the live enemy gauge on
// every collection.
func RegisterLiveEnemies(m metric.Meter, count func() int) error {
	gauge, err := m.Int64ObservableGauge(
		"zombiex.enemy.live",
		metric.WithDescription("Enemies currently alive"),
	)
	if err != nil {
		return fmt.Errorf("creating live enemies gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			o.ObserveInt64(gauge, int64(count()))
			return nil
		},
		gauge,
	)
	if err != nil {
		return fmt.Errorf("registering live enemies callback: %w", err)
	}
	return nil
}

// Shot counts one shot from weapon.
func (m *Metrics) Shot(weapon string, hit bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("weapon", weapon))
	m.shots.Add(context.Background(), 1, attrs)
	if hit {
		m.hits.Add(context.Background(), 1, attrs)
	}
}

// Reloaded counts one completed reload.
func (m *Metrics) Reloaded(weapon string) {
	if m == nil {
		return
	}
	m.reloads.Add(context.Background(), 1, metric.WithAttributes(attribute.String("weapon", weapon)))
}

// Killed counts one enemy death.
func (m *Metrics) Killed(template string) {
	if m == nil {
		return
	}
	m.kills.Add(context.Background(), 1, metric.WithAttributes(attribute.String("template", template)))
}

// JournalDropped counts one dropped journal event.
func (m *Metrics) JournalDropped() {
	if m == nil {
		return
	}
	m.dropped.Add(context.Background(), 1)
}
