package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/zombiex/internal/journal"
)

// JournalRepository persists combat events. It implements journal.Store.
type JournalRepository struct {
	db *pgxpool.Pool
}

// NewJournalRepository creates a JournalRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewJournalRepository(db *pgxpool.Pool) *JournalRepository {
	return &JournalRepository{db: db}
}

// Record inserts events in one transaction.
//
// Postcondition: either every event is stored or none is.
func (r *JournalRepository) Record(ctx context.Context, events []journal.Event) error {
	if len(events) == 0 {
		return nil
	}
	for _, e := range events {
		if !e.Kind.Valid() {
			return fmt.Errorf("recording journal: invalid kind %q", e.Kind)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(
			`INSERT INTO combat_events (session_id, kind, actor_id, target_id, amount, occurred_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.SessionID, string(e.Kind), e.ActorID, e.TargetID, e.Amount, e.OccurredAt,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range events {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert combat event: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Events returns a session's events in insertion order.
func (r *JournalRepository) Events(ctx context.Context, sessionID string) ([]journal.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT session_id, kind, actor_id, target_id, amount, occurred_at
		 FROM combat_events WHERE session_id = $1 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying combat events: %w", err)
	}
	defer rows.Close()

	var out []journal.Event
	for rows.Next() {
		var (
			e    journal.Event
			kind string
		)
		if err := rows.Scan(&e.SessionID, &kind, &e.ActorID, &e.TargetID, &e.Amount, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning combat event: %w", err)
		}
		e.Kind = journal.Kind(kind)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating combat events: %w", err)
	}
	return out, nil
}

// Summary returns the number of events per kind for a session. Kinds with no
// events are absent.
func (r *JournalRepository) Summary(ctx context.Context, sessionID string) (map[journal.Kind]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT kind, COUNT(*) FROM combat_events WHERE session_id = $1 GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal summary: %w", err)
	}
	defer rows.Close()

	out := make(map[journal.Kind]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scanning journal summary: %w", err)
		}
		out[journal.Kind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal summary: %w", err)
	}
	return out, nil
}
