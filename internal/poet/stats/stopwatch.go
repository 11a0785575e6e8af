// Package stats implements run timing and the problem/task statistics
// report emitted alongside a certificate run (spec §6, "-s/--stats";
// supplemented from the original timing/statistics utilities, which the
// distilled spec names as a flag but does not detail).
package stats

import (
	"fmt"
	"sync"
	"time"
)

// Stopwatch is a named collection of timers that can be started, paused,
// resumed, and stopped independently. Safe for concurrent use: every
// method holds the mutex.
type Stopwatch struct {
	mu     sync.Mutex
	timers map[string]*timerState
}

type timerState struct {
	running bool
	start   time.Time
	elapsed time.Duration
}

// NewStopwatch returns an empty Stopwatch.
func NewStopwatch() *Stopwatch {
	return &Stopwatch{timers: make(map[string]*timerState)}
}

// HasTime reports whether a timer with this name exists: created by Start
// or SetTime and not removed by Stop.
func (s *Stopwatch) HasTime(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[name]
	return ok
}

// GetTime returns the timer's current elapsed duration, including the
// running interval if it has not been paused. Panics if no timer with
// this name exists (a caller bug, not a runtime condition).
func (s *Stopwatch) GetTime(name string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTimeLocked(name)
}

func (s *Stopwatch) getTimeLocked(name string) time.Duration {
	ts, ok := s.timers[name]
	if !ok {
		panic(fmt.Sprintf("stats: timer %q was never started", name))
	}
	if !ts.running {
		return ts.elapsed
	}
	return ts.elapsed + time.Since(ts.start)
}

// SetTime overwrites the timer's elapsed duration and marks it paused.
func (s *Stopwatch) SetTime(name string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[name] = &timerState{elapsed: d}
}

// Start begins or resumes the named timer.
func (s *Stopwatch) Start(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.timers[name]
	if !ok {
		s.timers[name] = &timerState{running: true, start: time.Now()}
		return
	}
	if ts.running {
		panic(fmt.Sprintf("stats: timer %q is already running", name))
	}
	ts.running = true
	ts.start = time.Now()
}

// Pause freezes the named timer and returns its elapsed duration so far.
func (s *Stopwatch) Pause(name string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.timers[name]
	if !ok || !ts.running {
		panic(fmt.Sprintf("stats: timer %q is not running", name))
	}
	elapsed := s.getTimeLocked(name)
	ts.running = false
	ts.elapsed = elapsed
	return elapsed
}

// Stop removes the named timer and returns its final elapsed duration.
func (s *Stopwatch) Stop(name string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := s.getTimeLocked(name)
	delete(s.timers, name)
	return elapsed
}
