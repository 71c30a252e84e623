// Package simclock implements the single logical clock and cooperative
// event scheduler that drives the whole simulation. Every other package
// suspends by scheduling a future callback through a Scheduler rather than
// blocking a goroutine, so the simulation stays single-threaded and
// deterministic.
package simclock

import (
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// EventHandler is the signature every scheduled continuation must have.
// ctx is whatever the caller wants back (a *Router, an *Application, ...),
// data is the event payload.
type EventHandler func(sched *Scheduler, ctx any, data any)

// Scheduler wraps an evtm.EventManager with the run_until(T) contract that
// the simulation needs: drive events up to and including time T, then stop.
type Scheduler struct {
	em      *evtm.EventManager
	endMs   float64
	ended   bool
	started bool
}

// New creates a Scheduler with its clock at zero.
func New() *Scheduler {
	return &Scheduler{em: evtm.New()}
}

// NowMs returns the current simulated time in milliseconds.
func (s *Scheduler) NowMs() float64 {
	return s.em.CurrentSeconds() * 1000.0
}

// Now returns the current simulated time as a vrtime.Time, for callers
// that want the vector-time tie-break semantics directly (trace records).
func (s *Scheduler) Now() vrtime.Time {
	return s.em.CurrentTime()
}

// Ended reports whether the simulation has reached its run_until horizon.
// Tasks poll this at every suspension point and exit instead of
// rescheduling themselves once it is true.
func (s *Scheduler) Ended() bool {
	return s.ended
}

// Schedule arranges for fn to run at the current simulated time (zero
// delay), carrying ctx and data through unchanged. Ties at the same simulated time are
// broken in Schedule call order, matching the FCFS tie-break the spec
// requires of same-time events.
func (s *Scheduler) Schedule(ctx any, data any, fn EventHandler) {
	wrapped := func(evtMgr *evtm.EventManager, context any, payload any) any {
		fn(s, context, payload)
		return nil
	}
	s.em.Schedule(ctx, data, wrapped, vrtime.SecondsToTime(0.0))
}

// After arranges for fn to run delayMs milliseconds from now.
func (s *Scheduler) After(delayMs float64, ctx any, data any, fn EventHandler) {
	wrapped := func(evtMgr *evtm.EventManager, context any, payload any) any {
		fn(s, context, payload)
		return nil
	}
	s.em.Schedule(ctx, data, wrapped, vrtime.SecondsToTime(delayMs/1000.0))
}

// RunUntil processes every scheduled event with time <= endMs and then
// stops, per the spec's run_until(T) operation. It may be called more
// than once (e.g. by tests driving the simulation in slices); the end
// horizon only ever grows.
func (s *Scheduler) RunUntil(endMs float64) {
	if endMs > s.endMs || !s.started {
		s.endMs = endMs
	}
	s.started = true
	s.ended = false
	s.em.Run(s.endMs / 1000.0)
	s.ended = true
}
