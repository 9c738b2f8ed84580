// Package schedule provides the cooperative task scheduler that drives every
// timed combat sequence from the single simulation loop.
package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/cory-johannsen/zombiex/internal/game/clock"
)

// Task is a handle to a scheduled one-shot or recurring callback.
type Task struct {
	seq       uint64
	due       time.Duration
	interval  time.Duration
	fn        func() bool
	cancelled bool
	done      bool
}

// Scheduler runs callbacks when the clock reaches their due time. Callbacks
// run synchronously inside Advance, on the caller's goroutine.
//
// Invariant: a cancelled or finished task never runs again.
type Scheduler struct {
	clk   clock.Clock
	mu    sync.Mutex
	seq   uint64
	tasks []*Task
}

// New returns an empty Scheduler reading time from clk.
//
// Precondition: clk must not be nil.
func New(clk clock.Clock) *Scheduler {
	if clk == nil {
		panic("schedule.New: clock must not be nil")
	}
	return &Scheduler{clk: clk}
}

// After schedules fn to run once when d has elapsed.
//
// Postcondition: fn runs on the first Advance at or after now+d unless the
// returned Task is cancelled first.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	return s.add(d, 0, func() bool {
		fn()
		return false
	})
}

// Every schedules fn to run on the next Advance and then every interval
// afterwards for as long as fn returns true. Returning false unregisters the
// task permanently.
//
// Precondition: interval > 0.
func (s *Scheduler) Every(interval time.Duration, fn func() bool) *Task {
	if interval <= 0 {
		panic(fmt.Sprintf("schedule.Every: interval must be > 0, got %s", interval))
	}
	return s.add(0, interval, fn)
}

func (s *Scheduler) add(delay, interval time.Duration, fn func() bool) *Task {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &Task{
		seq:      s.seq,
		due:      s.clk.Now() + delay,
		interval: interval,
		fn:       fn,
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Cancel stops t from running again. Safe to call multiple times and on
// tasks that already finished.
func (s *Scheduler) Cancel(t *Task) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.cancelled = true
}

// Active reports whether t will still run.
func (s *Scheduler) Active(t *Task) bool {
	if t == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !t.cancelled && !t.done
}

// Pending returns the number of tasks that will still run.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled && !t.done {
			n++
		}
	}
	return n
}

// Advance runs every task due at the current clock time, earliest first and
// in registration order for ties. A recurring task runs at most once per
// Advance and is rescheduled at now+interval.
//
// Postcondition: returns the number of callbacks invoked.
func (s *Scheduler) Advance() int {
	now := s.clk.Now()
	ran := make(map[*Task]bool)
	count := 0
	for {
		t := s.nextDue(now, ran)
		if t == nil {
			break
		}
		ran[t] = true
		again := t.fn()
		count++

		s.mu.Lock()
		if t.interval > 0 && again && !t.cancelled {
			t.due = now + t.interval
		} else {
			t.done = true
		}
		s.mu.Unlock()
	}
	s.compact()
	return count
}

func (s *Scheduler) nextDue(now time.Duration, ran map[*Task]bool) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next *Task
	for _, t := range s.tasks {
		if t.cancelled || t.done || t.due > now || ran[t] {
			continue
		}
		if next == nil || t.due < next.due || (t.due == next.due && t.seq < next.seq) {
			next = t
		}
	}
	return next
}

func (s *Scheduler) compact() {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.cancelled && !t.done {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}
