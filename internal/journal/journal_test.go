package journal_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/zombiex/internal/journal"
)

type memStore struct {
	mu      sync.Mutex
	batches [][]journal.Event
	err     error
}

func (m *memStore) Record(_ context.Context, events []journal.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	cp := make([]journal.Event, len(events))
	copy(cp, events)
	m.batches = append(m.batches, cp)
	return nil
}

func (m *memStore) events() []journal.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []journal.Event
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}

func shot(i int) journal.Event {
	return journal.Event{SessionID: "s1", Kind: journal.KindShot, ActorID: "p", Amount: float64(i)}
}

func TestKind_Valid(t *testing.T) {
	assert.True(t, journal.KindShot.Valid())
	assert.True(t, journal.KindHit.Valid())
	assert.True(t, journal.KindKill.Valid())
	assert.False(t, journal.Kind("heal").Valid())
}

func TestNewPublisher_PanicsOnNonPositiveSize(t *testing.T) {
	assert.Panics(t, func() { journal.NewPublisher(0) })
}

func TestPublisher_DropsWhenFull(t *testing.T) {
	p := journal.NewPublisher(2)
	drops := 0
	p.OnDrop = func() { drops++ }

	assert.True(t, p.Publish(shot(1)))
	assert.True(t, p.Publish(shot(2)))
	assert.False(t, p.Publish(shot(3)))
	assert.Equal(t, int64(1), p.Dropped())
	assert.Equal(t, 1, drops)
	assert.Equal(t, 2, p.Len())
}

func TestPublisher_DropsAfterClose(t *testing.T) {
	p := journal.NewPublisher(4)
	p.Close()
	p.Close()
	assert.False(t, p.Publish(shot(1)))
	assert.Equal(t, int64(1), p.Dropped())
}

func TestProperty_PublisherAccountsForEveryEvent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(1, 16).Draw(rt, "size")
		n := rapid.IntRange(0, 64).Draw(rt, "n")
		p := journal.NewPublisher(size)
		accepted := 0
		for i := 0; i < n; i++ {
			if p.Publish(shot(i)) {
				accepted++
			}
		}
		require.Equal(rt, n, accepted+int(p.Dropped()))
		require.Equal(rt, min(n, size), accepted)
	})
}

func TestNewService_RequiresCollaborators(t *testing.T) {
	_, err := journal.NewService(nil, &memStore{}, journal.ServiceConfig{}, nil)
	assert.Error(t, err)
	_, err = journal.NewService(journal.NewPublisher(1), nil, journal.ServiceConfig{}, nil)
	assert.Error(t, err)
}

func TestService_FlushesOnBatchSize(t *testing.T) {
	pub := journal.NewPublisher(16)
	store := &memStore{}
	svc, err := journal.NewService(pub, store, journal.ServiceConfig{BatchSize: 3, FlushInterval: time.Hour}, zap.NewNop())
	require.NoError(t, err)

	go func() { _ = svc.Start() }()
	for i := 0; i < 3; i++ {
		pub.Publish(shot(i))
	}
	assert.Eventually(t, func() bool { return len(store.events()) == 3 }, time.Second, 5*time.Millisecond)
	svc.Stop()
}

func TestService_FlushesOnInterval(t *testing.T) {
	pub := journal.NewPublisher(16)
	store := &memStore{}
	svc, err := journal.NewService(pub, store, journal.ServiceConfig{BatchSize: 100, FlushInterval: 10 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)

	go func() { _ = svc.Start() }()
	pub.Publish(shot(1))
	assert.Eventually(t, func() bool { return len(store.events()) == 1 }, time.Second, 5*time.Millisecond)
	svc.Stop()
}

func TestService_StopDrainsPendingEvents(t *testing.T) {
	pub := journal.NewPublisher(16)
	store := &memStore{}
	svc, err := journal.NewService(pub, store, journal.ServiceConfig{BatchSize: 100, FlushInterval: time.Hour}, zap.NewNop())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		pub.Publish(shot(i))
	}
	done := make(chan error, 1)
	go func() { done <- svc.Start() }()
	svc.Stop()
	require.NoError(t, <-done)

	got := store.events()
	require.Len(t, got, 5)
	for i, e := range got {
		assert.Equal(t, float64(i), e.Amount, "order must be preserved")
	}
}

func TestService_ReturnsWhenPublisherClosed(t *testing.T) {
	pub := journal.NewPublisher(4)
	store := &memStore{}
	svc, err := journal.NewService(pub, store, journal.ServiceConfig{}, zap.NewNop())
	require.NoError(t, err)

	pub.Publish(shot(7))
	pub.Close()
	require.NoError(t, svc.Start())
	assert.Len(t, store.events(), 1)
	svc.Stop()
}

func TestService_LogsStoreFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	pub := journal.NewPublisher(4)
	store := &memStore{err: errors.New("connection refused")}
	svc, err := journal.NewService(pub, store, journal.ServiceConfig{}, zap.New(core))
	require.NoError(t, err)

	pub.Publish(shot(1))
	pub.Close()
	require.NoError(t, svc.Start())

	entries := logs.FilterMessage("journal flush failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["events"])
}
