package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/zombiex/internal/game/clock"
	"github.com/cory-johannsen/zombiex/internal/game/schedule"
)

func TestAfter_RunsOnceWhenDue(t *testing.T) {
	clk := clock.NewManual(0)
	s := schedule.New(clk)
	calls := 0
	task := s.After(100*time.Millisecond, func() { calls++ })

	assert.Equal(t, 0, s.Advance())
	clk.Advance(99 * time.Millisecond)
	s.Advance()
	assert.Equal(t, 0, calls)

	clk.Advance(time.Millisecond)
	assert.Equal(t, 1, s.Advance())
	assert.Equal(t, 1, calls)
	assert.False(t, s.Active(task))

	clk.Advance(time.Second)
	s.Advance()
	assert.Equal(t, 1, calls)
}

func TestAfter_CancelPreventsRun(t *testing.T) {
	clk := clock.NewManual(0)
	s := schedule.New(clk)
	calls := 0
	task := s.After(10*time.Millisecond, func() { calls++ })
	s.Cancel(task)
	s.Cancel(task)
	clk.Advance(time.Second)
	s.Advance()
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, s.Pending())
}

func TestEvery_RunsImmediatelyThenOnInterval(t *testing.T) {
	clk := clock.NewManual(0)
	s := schedule.New(clk)
	var at []time.Duration
	s.Every(250*time.Millisecond, func() bool {
		at = append(at, clk.Now())
		return true
	})

	s.Advance()
	for i := 0; i < 10; i++ {
		clk.Advance(50 * time.Millisecond)
		s.Advance()
	}
	assert.Equal(t, []time.Duration{0, 250 * time.Millisecond, 500 * time.Millisecond}, at)
}

func TestEvery_FalseUnregistersPermanently(t *testing.T) {
	clk := clock.NewManual(0)
	s := schedule.New(clk)
	calls := 0
	task := s.Every(time.Second, func() bool {
		calls++
		return calls < 2
	})
	for i := 0; i < 5; i++ {
		s.Advance()
		clk.Advance(time.Second)
	}
	assert.Equal(t, 2, calls)
	assert.False(t, s.Active(task))
	assert.Equal(t, 0, s.Pending())
}

func TestEvery_RunsOncePerAdvanceAfterLongGap(t *testing.T) {
	clk := clock.NewManual(0)
	s := schedule.New(clk)
	calls := 0
	s.Every(100*time.Millisecond, func() bool {
		calls++
		return true
	})
	s.Advance()
	clk.Advance(time.Second)
	s.Advance()
	assert.Equal(t, 2, calls)
}

func TestEvery_ZeroIntervalPanics(t *testing.T) {
	s := schedule.New(clock.NewManual(0))
	assert.Panics(t, func() { s.Every(0, func() bool { return true }) })
}

func TestAdvance_TiesRunInRegistrationOrder(t *testing.T) {
	clk := clock.NewManual(0)
	s := schedule.New(clk)
	var order []string
	s.After(time.Second, func() { order = append(order, "a") })
	s.After(time.Second, func() { order = append(order, "b") })
	s.After(500*time.Millisecond, func() { order = append(order, "c") })
	clk.Advance(time.Second)
	require.Equal(t, 3, s.Advance())
	assert.Equal(t, []string{"c", "a", "b"}, order)
}

func TestAdvance_TaskScheduledFromCallbackWaitsForItsDelay(t *testing.T) {
	clk := clock.NewManual(0)
	s := schedule.New(clk)
	hidden := false
	s.After(0, func() {
		s.After(30*time.Millisecond, func() { hidden = true })
	})
	s.Advance()
	assert.False(t, hidden)
	clk.Advance(30 * time.Millisecond)
	s.Advance()
	assert.True(t, hidden)
}

func TestProperty_After_NeverRunsEarly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clk := clock.NewManual(0)
		s := schedule.New(clk)
		delay := time.Duration(rapid.Int64Range(0, 5000).Draw(t, "delay")) * time.Millisecond
		var ranAt time.Duration = -1
		s.After(delay, func() { ranAt = clk.Now() })
		steps := rapid.SliceOfN(rapid.Int64Range(1, 500), 1, 50).Draw(t, "steps")
		for _, st := range steps {
			clk.Advance(time.Duration(st) * time.Millisecond)
			s.Advance()
		}
		if ranAt >= 0 && ranAt < delay {
			t.Fatalf("task ran at %v before its delay %v", ranAt, delay)
		}
		if ranAt < 0 && clk.Now() >= delay {
			t.Fatalf("task never ran although clock reached %v (delay %v)", clk.Now(), delay)
		}
	})
}
