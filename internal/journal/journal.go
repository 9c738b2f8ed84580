// Package journal carries combat events from the simulation tick to durable
// storage without ever blocking the tick.
package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Kind classifies a combat event.
type Kind string

const (
	// KindShot is a resolved weapon shot, hit or miss.
	KindShot Kind = "shot"
	// KindHit is damage landing on a combatant.
	KindHit Kind = "hit"
	// KindKill is a combatant dying.
	KindKill Kind = "kill"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindShot, KindHit, KindKill:
		return true
	default:
		return false
	}
}

// Event is one journal row.
type Event struct {
	SessionID string
	Kind      Kind
	// ActorID is the shooter or attacker; empty when unknown.
	ActorID string
	// TargetID is the damaged or killed combatant; empty for a miss.
	TargetID   string
	Amount     float64
	OccurredAt time.Time
}

// Store persists batches of events.
type Store interface {
	Record(ctx context.Context, events []Event) error
}

// Publisher is a bounded, non-blocking event queue.
//
// Concurrency: Publish is safe from any goroutine. Events published after
// Close are dropped.
type Publisher struct {
	mu      sync.RWMutex
	ch      chan Event
	closed  bool
	dropped atomic.Int64
	// OnDrop, when set, is called for every dropped event.
	OnDrop func()
}

// NewPublisher returns a Publisher buffering up to size events.
//
// Precondition: size > 0 (panics otherwise).
func NewPublisher(size int) *Publisher {
	if size <= 0 {
		panic("journal.NewPublisher: size must be > 0")
	}
	return &Publisher{ch: make(chan Event, size)}
}

// Publish enqueues e and reports whether it was accepted. A full queue drops
// the event and counts it.
func (p *Publisher) Publish(e Event) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.closed {
		select {
		case p.ch <- e:
			return true
		default:
		}
	}
	p.dropped.Add(1)
	if p.OnDrop != nil {
		p.OnDrop()
	}
	return false
}

// Dropped returns the number of rejected events.
func (p *Publisher) Dropped() int64 { return p.dropped.Load() }

// Len returns the number of queued events.
func (p *Publisher) Len() int { return len(p.ch) }

// Close stops accepting events. Queued events stay readable. Idempotent.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
}

// Events returns the receive side of the queue.
func (p *Publisher) Events() <-chan Event { return p.ch }
