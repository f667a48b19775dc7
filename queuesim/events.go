// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package queuesim

import (
	"fmt"

	"github.com/joeycumines/go-dessim"
)

// Every event carries the owning *Sim: the kernel dispatches against the
// bare Simulation, and the model state hangs off the event itself.
type (
	// arrival is the next job entering the system. Each arrival schedules
	// its successor, so exactly one arrival is ever pending.
	arrival struct {
		s   *Sim
		job int
	}

	// completion is a FIFO job finishing service at a queue.
	completion struct {
		s     *Sim
		job   int
		queue int
	}

	// rrSlice is the end of a Round-Robin time slice. remaining is the
	// service left after this slice; zero means the job completes here.
	rrSlice struct {
		s         *Sim
		job       int
		queue     int
		remaining float64
	}

	// monitor samples per-server queue lengths and reschedules itself.
	monitor struct {
		s        *Sim
		interval float64
	}
)

func (e *arrival) Process(*dessim.Simulation) {
	s := e.s
	s.arrivals[e.job] = s.Now()
	i := s.placeQueue()

	if s.cfg.UseRR {
		s.arriveRR(e.job, i)
	} else {
		s.arriveFIFO(e.job, i)
	}

	s.Schedule(s.interarrival(), &arrival{s: s, job: e.job + 1})
}

func (s *Sim) arriveFIFO(job, i int) {
	if s.running[i].job == idleJob {
		s.running[i] = runSlot{job: job}
		s.Schedule(s.service(), &completion{s: s, job: job, queue: i})
	} else {
		s.waiters[i] = append(s.waiters[i], waiter{job: job})
	}
}

// arriveRR samples the job's full service requirement once, here; it is
// carried through preemptions and never resampled.
func (s *Sim) arriveRR(job, i int) {
	svc := s.service()
	if s.running[i].job == idleJob {
		s.startSlice(job, i, svc)
	} else {
		s.waiters[i] = append(s.waiters[i], waiter{job: job, remaining: svc})
	}
}

// startSlice puts the job in service at queue i and schedules the end of
// its slice: after remaining if it fits the quantum, else after one quantum
// with the difference carried in the event.
func (s *Sim) startSlice(job, i int, remaining float64) {
	slice := remaining
	left := 0.0
	if remaining > s.cfg.Quantum {
		slice = s.cfg.Quantum
		left = remaining - s.cfg.Quantum
	}
	s.running[i] = runSlot{job: job, remaining: left}
	s.Schedule(slice, &rrSlice{s: s, job: job, queue: i, remaining: left})
}

func (e *completion) Process(*dessim.Simulation) {
	s := e.s
	i := e.queue
	if s.running[i].job != e.job {
		panic(fmt.Sprintf(`queuesim: completion of job %d but job %d is running on queue %d`,
			e.job, s.running[i].job, i))
	}
	s.completions[e.job] = s.Now()

	if len(s.waiters[i]) > 0 {
		next := s.waiters[i][0]
		s.waiters[i] = s.waiters[i][1:]
		s.running[i] = runSlot{job: next.job}
		s.Schedule(s.service(), &completion{s: s, job: next.job, queue: i})
	} else {
		s.running[i] = runSlot{job: idleJob}
	}
}

func (e *rrSlice) Process(*dessim.Simulation) {
	s := e.s
	i := e.queue
	if s.running[i].job != e.job {
		panic(fmt.Sprintf(`queuesim: slice end for job %d but job %d is running on queue %d`,
			e.job, s.running[i].job, i))
	}

	if e.remaining == 0 {
		s.completions[e.job] = s.Now()
		if len(s.waiters[i]) > 0 {
			next := s.waiters[i][0]
			s.waiters[i] = s.waiters[i][1:]
			s.startSlice(next.job, i, next.remaining)
		} else {
			s.running[i] = runSlot{job: idleJob}
		}
		return
	}

	if len(s.waiters[i]) == 0 {
		// nobody waiting: the job keeps the server for another slice
		s.startSlice(e.job, i, e.remaining)
		return
	}
	s.waiters[i] = append(s.waiters[i], waiter{job: e.job, remaining: e.remaining})
	next := s.waiters[i][0]
	s.waiters[i] = s.waiters[i][1:]
	s.startSlice(next.job, i, next.remaining)
}

func (e *monitor) Process(*dessim.Simulation) {
	s := e.s
	lengths := make([]int, s.cfg.N)
	for i := range lengths {
		lengths[i] = s.queueLen(i)
	}
	s.queueSizeLog = append(s.queueSizeLog, lengths)
	s.Schedule(e.interval, e)
}
