// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package queuesim simulates a system of n servers with one queue each,
// under the supermarket placement model: an arriving job samples d queues
// uniformly and joins the shortest. Service is either FIFO or Round-Robin
// with a fixed quantum. Interarrival and service times are exponential, or
// Weibull when a shape parameter is configured.
package queuesim

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-dessim"
	"github.com/joeycumines/go-dessim/workload"
	"github.com/joeycumines/logiface"
)

var (
	// ErrNotPositive is returned by Config.Validate when a required rate or
	// bound is zero or negative.
	ErrNotPositive = errors.New(`queuesim: parameter must be positive`)

	// ErrSampleSize is returned by Config.Validate when d exceeds n.
	ErrSampleSize = errors.New(`queuesim: sample size d cannot exceed server count n`)
)

type (
	// Config parametrizes a queue simulation. The zero value is not valid;
	// populate and Validate before NewSim.
	Config struct {
		// Lambd is the per-server arrival rate; the global arrival process
		// has rate Lambd * N.
		Lambd float64
		// Mu is the per-server service rate.
		Mu float64
		// MaxT bounds the simulated time.
		MaxT float64
		// N is the number of servers (each with its own queue).
		N int
		// D is the supermarket sample size, in [1, N].
		D int
		// UseRR selects Round-Robin service; FIFO otherwise.
		UseRR bool
		// Quantum is the Round-Robin time slice.
		Quantum float64
		// MonitorInterval is the queue-length sampling period; the first
		// sample is taken at t = 0.
		MonitorInterval float64
		// Shape, if positive, switches interarrival and service times to
		// Weibull variates with this shape (and unchanged means).
		Shape float64
	}

	// runSlot is a server's in-service job. remaining is only meaningful
	// under Round-Robin, where it holds the service left after the current
	// slice.
	runSlot struct {
		job       int
		remaining float64
	}

	// waiter is a queued job; remaining carries the pre-sampled service time
	// under Round-Robin (unused for FIFO).
	waiter struct {
		job       int
		remaining float64
	}

	// Sim is the simulation state. Create with NewSim, drive with Run.
	Sim struct {
		*dessim.Simulation

		cfg          Config
		logger       *logiface.Logger[logiface.Event]
		src          *workload.Source
		interarrival workload.Generator
		service      workload.Generator

		running      []runSlot // job == idleJob when the server is idle
		waiters      [][]waiter
		arrivals     map[int]float64
		completions  map[int]float64
		queueSizeLog [][]int
	}

	// SimOption configures a Sim, see NewSim.
	SimOption func(s *Sim)
)

const idleJob = -1

// Validate checks the configuration, returning the first problem found.
func (c *Config) Validate() error {
	for _, v := range [...]struct {
		name  string
		value float64
	}{
		{`lambd`, c.Lambd},
		{`mu`, c.Mu},
		{`max-t`, c.MaxT},
		{`n`, float64(c.N)},
		{`d`, float64(c.D)},
		{`quantum`, c.Quantum},
		{`monitor-interval`, c.MonitorInterval},
	} {
		if v.value <= 0 {
			return fmt.Errorf(`%w: %s`, ErrNotPositive, v.name)
		}
	}
	if c.D > c.N {
		return ErrSampleSize
	}
	return nil
}

// Unstable reports whether the configured system has no steady state
// (arrival rate at or above service rate). The simulation still runs, but
// queues grow without bound.
func (c *Config) Unstable() bool {
	return c.Lambd >= c.Mu
}

// WithLogger configures structured logging for the model and kernel.
func WithLogger(logger *logiface.Logger[logiface.Event]) SimOption {
	return func(s *Sim) {
		s.logger = logger
	}
}

// NewSim builds a simulation from a validated Config, drawing all randomness
// from src. The first arrival and the monitor are scheduled; call Run to
// execute.
func NewSim(cfg Config, src *workload.Source, options ...SimOption) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := Sim{
		cfg:         cfg,
		src:         src,
		running:     make([]runSlot, cfg.N),
		waiters:     make([][]waiter, cfg.N),
		arrivals:    make(map[int]float64),
		completions: make(map[int]float64),
	}
	for _, o := range options {
		o(&s)
	}
	s.Simulation = dessim.New(dessim.WithLogger(s.logger))
	for i := range s.running {
		s.running[i].job = idleJob
	}
	// the arrival process compounds over all n servers
	if cfg.Shape > 0 {
		s.interarrival = src.Weibull(cfg.Shape, 1/(cfg.Lambd*float64(cfg.N)))
		s.service = src.Weibull(cfg.Shape, 1/cfg.Mu)
	} else {
		s.interarrival = src.Exponential(1 / (cfg.Lambd * float64(cfg.N)))
		s.service = src.Exponential(1 / cfg.Mu)
	}
	s.Schedule(s.interarrival(), &arrival{s: &s, job: 0})
	s.Schedule(0, &monitor{s: &s, interval: cfg.MonitorInterval})
	return &s, nil
}

// Run executes the simulation up to the configured time bound.
func (s *Sim) Run() {
	s.Simulation.Run(s.cfg.MaxT)
}

// queueLen counts the jobs at server i, including the one in service.
func (s *Sim) queueLen(i int) int {
	n := len(s.waiters[i])
	if s.running[i].job != idleJob {
		n++
	}
	return n
}

// placeQueue picks the destination queue for an arrival: uniform for d = 1,
// otherwise the shortest of d distinct sampled queues (ties to the earliest
// sampled).
func (s *Sim) placeQueue() int {
	if s.cfg.D == 1 {
		return s.src.Intn(s.cfg.N)
	}
	sample := s.src.Sample(s.cfg.N, s.cfg.D)
	best := sample[0]
	bestLen := s.queueLen(best)
	for _, i := range sample[1:] {
		if l := s.queueLen(i); l < bestLen {
			best, bestLen = i, l
		}
	}
	return best
}

// MeanTimeInSystem returns the average completion - arrival delta over
// completed jobs, or 0 if nothing completed.
func (s *Sim) MeanTimeInSystem() float64 {
	if len(s.completions) == 0 {
		return 0
	}
	var sum float64
	for job, done := range s.completions {
		sum += done - s.arrivals[job]
	}
	return sum / float64(len(s.completions))
}

// Completions returns the number of completed jobs.
func (s *Sim) Completions() int {
	return len(s.completions)
}

// Snapshots returns the monitoring log: one per-server queue-length vector
// per sampling instant, in time order.
func (s *Sim) Snapshots() [][]int {
	return s.queueSizeLog
}

// TheoreticalMM1 is the closed-form expected time in system for a stable
// M/M/1 queue, 1 / (mu * (1 - lambd/mu)).
func TheoreticalMM1(lambd, mu float64) float64 {
	return 1 / (mu * (1 - lambd/mu))
}
