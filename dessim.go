// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dessim

import (
	"container/heap"
	"math"

	"github.com/joeycumines/logiface"
)

type (
	// Event is a scheduled occurrence. Process runs with the clock set to the
	// event's fire time, and may read or mutate any simulation state,
	// including scheduling further events (at zero delay if needed).
	Event interface {
		Process(sim *Simulation)
	}

	// Simulation is a discrete-event simulation: a clock and an event queue.
	// Instances must be created with [New]. Not safe for concurrent use; the
	// kernel is single-threaded by design.
	Simulation struct {
		logger *logiface.Logger[logiface.Event]
		queue  eventQueue
		t      float64
		seq    uint64
	}

	// Handle identifies a scheduled event, allowing cancellation. Handles are
	// only valid for the Simulation that issued them.
	Handle struct {
		item *queueItem
	}

	// Option configures a Simulation, see New.
	Option func(s *Simulation)
)

// WithLogger configures structured logging for the simulation. The kernel
// emits dispatch traces at debug level. A nil logger disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// New initializes an empty Simulation with the clock at zero.
func New(options ...Option) *Simulation {
	s := Simulation{}
	for _, o := range options {
		o(&s)
	}
	return &s
}

// Now returns the current simulated time, in seconds.
func (s *Simulation) Now() float64 {
	return s.t
}

// Pending returns the number of events still in the queue, including
// cancelled ones that have not yet been drained.
func (s *Simulation) Pending() int {
	return len(s.queue)
}

// Schedule enqueues ev to fire after delay (simulated seconds, relative to
// the current clock). Events scheduled for the same instant fire in
// scheduling order. A negative or NaN delay is a programmer error and
// panics.
func (s *Simulation) Schedule(delay float64, ev Event) *Handle {
	if delay < 0 || math.IsNaN(delay) {
		panic(`dessim: schedule with negative delay`)
	}
	item := &queueItem{
		fireAt: s.t + delay,
		seq:    s.seq,
		event:  ev,
	}
	s.seq++
	heap.Push(&s.queue, item)
	return &Handle{item: item}
}

// Run dispatches events in (fire time, insertion order) order until the
// queue is empty or the next event would fire after maxT. The clock never
// advances past maxT; the first event beyond it is left unprocessed.
// Cancelled events still advance the clock to their fire time, but their
// processing is skipped.
//
// Run returns the number of events processed (cancelled events excluded).
func (s *Simulation) Run(maxT float64) int {
	var processed int
	for len(s.queue) > 0 {
		item := s.queue[0]
		if item.fireAt > maxT {
			break
		}
		heap.Pop(&s.queue)
		s.t = item.fireAt
		if item.cancelled {
			continue
		}
		s.logger.Debug().
			Float64(`t`, s.t).
			Uint64(`seq`, item.seq).
			Log(`dispatch`)
		item.event.Process(s)
		processed++
	}
	return processed
}

// Cancel marks the event so that it is discarded at dispatch. The event
// stays in the queue; cancelling is idempotent, and cancelling after the
// event has fired has no effect.
func (h *Handle) Cancel() {
	h.item.cancelled = true
}

// Cancelled reports whether the event has been cancelled.
func (h *Handle) Cancelled() bool {
	return h.item.cancelled
}
