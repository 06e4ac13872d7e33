// Package sched runs callbacks on simulated time. Nothing here touches the
// wall clock: time moves only when the owner calls Advance.
package sched

import (
	"sort"
	"sync"
	"time"
)

type Timer struct {
	s        *Scheduler
	deadline time.Duration
	seq      uint64
	fn       func()
	pending  bool
}

// Cancel stops the timer. It reports whether the timer was still pending.
func (t *Timer) Cancel() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := t.pending
	t.pending = false
	return was
}

func (t *Timer) Pending() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.pending
}

func (t *Timer) Deadline() time.Duration { return t.deadline }

type Scheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*Timer
}

func New() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// After schedules fn to run once d of simulated time has elapsed.
// Callbacks may schedule further timers.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &Timer{s: s, deadline: s.now + d, seq: s.seq, fn: fn, pending: true}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d, firing due timers in deadline order
// (ties in scheduling order). While a callback runs, Now reports its
// deadline. It returns the number of callbacks run.
func (s *Scheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	fired := 0
	for {
		t := s.nextDue(target)
		if t == nil {
			break
		}
		t.pending = false
		s.now = t.deadline
		s.mu.Unlock()
		t.fn()
		fired++
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
	return fired
}

// Len returns the number of pending timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compact()
	return len(s.timers)
}

func (s *Scheduler) nextDue(target time.Duration) *Timer {
	s.compact()
	if len(s.timers) == 0 {
		return nil
	}
	sort.Slice(s.timers, func(i, j int) bool {
		if s.timers[i].deadline != s.timers[j].deadline {
			return s.timers[i].deadline < s.timers[j].deadline
		}
		return s.timers[i].seq < s.timers[j].seq
	})
	t := s.timers[0]
	if t.deadline > target {
		return nil
	}
	s.timers = s.timers[1:]
	return t
}

func (s *Scheduler) compact() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if t.pending {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.timers); i++ {
		s.timers[i] = nil
	}
	s.timers = live
}
