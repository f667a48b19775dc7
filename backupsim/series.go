// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package backupsim

type (
	// Point is one sample of a time-keyed counter.
	Point struct {
		T     float64
		Value float64
	}

	// series accumulates values keyed by simulated time, preserving the
	// order in which instants were first touched (which, with a
	// monotonically advancing clock, is time order).
	series struct {
		times  []float64
		values map[float64]float64
	}
)

// add accumulates delta at instant t.
func (s *series) add(t, delta float64) {
	if s.values == nil {
		s.values = make(map[float64]float64)
	}
	if _, ok := s.values[t]; !ok {
		s.times = append(s.times, t)
	}
	s.values[t] += delta
}

// set overwrites the value at instant t.
func (s *series) set(t, v float64) {
	if s.values == nil {
		s.values = make(map[float64]float64)
	}
	if _, ok := s.values[t]; !ok {
		s.times = append(s.times, t)
	}
	s.values[t] = v
}

// points returns the samples in time order.
func (s *series) points() []Point {
	out := make([]Point, 0, len(s.times))
	for _, t := range s.times {
		out = append(out, Point{T: t, Value: s.values[t]})
	}
	return out
}
