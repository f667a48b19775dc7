// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package workload provides the random variate sources the simulation models
// draw from: exponential and Weibull interarrival/service/lifetime
// generators, plus the uniform sampling used for queue placement.
//
// All randomness for a simulation flows through a single seeded [Source], so
// a fixed seed reproduces the exact event stream.
package workload

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

type (
	// Source is a seeded stream of random variates. Not safe for concurrent
	// use, which suits the single-threaded simulation kernel.
	Source struct {
		rng *rand.Rand
	}

	// Generator produces one variate per call.
	Generator func() float64
)

// NewSource returns a Source seeded for reproducible runs.
func NewSource(seed uint64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// NewSourceFromTime returns a Source seeded from the wall clock, for runs
// where repeatability is not required.
func NewSourceFromTime() *Source {
	return NewSource(uint64(time.Now().UnixNano()))
}

// Exponential returns a generator of Exp(1/mean) variates.
func (s *Source) Exponential(mean float64) Generator {
	if mean <= 0 {
		panic(`workload: exponential mean must be positive`)
	}
	dist := distuv.Exponential{Rate: 1 / mean, Src: s.rng}
	return dist.Rand
}

// Weibull returns a generator of Weibull variates with the given shape whose
// mean equals mean: the scale is mean / Γ(1 + 1/shape).
func (s *Source) Weibull(shape, mean float64) Generator {
	if shape <= 0 || mean <= 0 {
		panic(`workload: weibull shape and mean must be positive`)
	}
	dist := distuv.Weibull{
		K:      shape,
		Lambda: mean / math.Gamma(1+1/shape),
		Src:    s.rng,
	}
	return dist.Rand
}

// Intn returns a uniform int in [0, n).
func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}

// Sample returns d distinct indices drawn uniformly from [0, n), in draw
// order, via a partial Fisher-Yates shuffle. Panics if d > n.
func (s *Source) Sample(n, d int) []int {
	if d > n {
		panic(`workload: sample size exceeds population`)
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out := make([]int, d)
	for i := 0; i < d; i++ {
		j := i + s.rng.Intn(n-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = idx[i]
	}
	return out
}
