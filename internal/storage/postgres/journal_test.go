package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/zombiex/internal/journal"
	"github.com/cory-johannsen/zombiex/internal/storage/postgres"
	"github.com/cory-johannsen/zombiex/internal/testutil"
)

func uniqueSession(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func event(session string, kind journal.Kind, amount float64) journal.Event {
	return journal.Event{
		SessionID:  session,
		Kind:       kind,
		ActorID:    "player",
		TargetID:   "zombie-1",
		Amount:     amount,
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestJournalRepository_RecordAndEvents(t *testing.T) {
	repo := postgres.NewJournalRepository(testutil.NewPool(t))
	ctx := context.Background()
	session := uniqueSession("record")

	in := []journal.Event{
		event(session, journal.KindShot, 25),
		event(session, journal.KindHit, 25),
		event(session, journal.KindKill, 0),
	}
	require.NoError(t, repo.Record(ctx, in))

	got, err := repo.Events(ctx, session)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range in {
		assert.Equal(t, in[i].Kind, got[i].Kind)
		assert.Equal(t, in[i].Amount, got[i].Amount)
		assert.Equal(t, in[i].ActorID, got[i].ActorID)
		assert.True(t, in[i].OccurredAt.Equal(got[i].OccurredAt))
	}
}

func TestJournalRepository_RecordEmptyIsNoop(t *testing.T) {
	repo := postgres.NewJournalRepository(testutil.NewPool(t))
	assert.NoError(t, repo.Record(context.Background(), nil))
}

func TestJournalRepository_RejectsInvalidKindAtomically(t *testing.T) {
	repo := postgres.NewJournalRepository(testutil.NewPool(t))
	ctx := context.Background()
	session := uniqueSession("invalid")

	err := repo.Record(ctx, []journal.Event{
		event(session, journal.KindShot, 25),
		event(session, journal.Kind("heal"), 10),
	})
	require.Error(t, err)

	got, err := repo.Events(ctx, session)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJournalRepository_Summary(t *testing.T) {
	repo := postgres.NewJournalRepository(testutil.NewPool(t))
	ctx := context.Background()
	session := uniqueSession("summary")
	other := uniqueSession("other")

	require.NoError(t, repo.Record(ctx, []journal.Event{
		event(session, journal.KindShot, 25),
		event(session, journal.KindShot, 25),
		event(session, journal.KindHit, 25),
		event(other, journal.KindKill, 0),
	}))

	got, err := repo.Summary(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, map[journal.Kind]int{journal.KindShot: 2, journal.KindHit: 1}, got)
}

func TestPropertyJournalSummaryMatchesRecorded(t *testing.T) {
	repo := postgres.NewJournalRepository(testutil.NewPool(t))
	kinds := []journal.Kind{journal.KindShot, journal.KindHit, journal.KindKill}

	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		session := uniqueSession("prop")
		picks := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 20).Draw(rt, "kinds")

		want := make(map[journal.Kind]int)
		events := make([]journal.Event, 0, len(picks))
		for _, i := range picks {
			events = append(events, event(session, kinds[i], 1))
			want[kinds[i]]++
		}
		require.NoError(rt, repo.Record(ctx, events))

		got, err := repo.Summary(ctx, session)
		require.NoError(rt, err)
		require.Equal(rt, want, got)
	})
}

func TestJournalRepository_ServesJournalService(t *testing.T) {
	repo := postgres.NewJournalRepository(testutil.NewPool(t))
	session := uniqueSession("service")

	pub := journal.NewPublisher(16)
	svc, err := journal.NewService(pub, repo, journal.ServiceConfig{BatchSize: 2}, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		pub.Publish(event(session, journal.KindShot, float64(i)))
	}
	pub.Close()
	require.NoError(t, svc.Start())

	got, err := repo.Summary(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, 5, got[journal.KindShot])
}
