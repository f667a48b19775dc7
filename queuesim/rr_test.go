// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package queuesim

import (
	"testing"

	"github.com/joeycumines/go-dessim"
	"github.com/joeycumines/go-dessim/workload"
)

// rrHarness builds a Sim without the stochastic arrival process, so tests
// can drive the Round-Robin state machine with hand-placed jobs.
func rrHarness(t *testing.T, quantum float64) *Sim {
	t.Helper()
	sim, err := NewSim(Config{
		Lambd: 1e-12, Mu: 1, MaxT: 1e6, N: 1, D: 1,
		UseRR: true, Quantum: quantum, MonitorInterval: 1e6,
	}, workload.NewSource(1))
	if err != nil {
		t.Fatal(err)
	}
	return sim
}

// inject places a job directly, bypassing placement and sampling.
type inject struct {
	s       *Sim
	job     int
	service float64
}

func (e *inject) Process(*dessim.Simulation) {
	s := e.s
	s.arrivals[e.job] = s.Now()
	if s.running[0].job == idleJob {
		s.startSlice(e.job, 0, e.service)
	} else {
		s.waiters[0] = append(s.waiters[0], waiter{job: e.job, remaining: e.service})
	}
}

// A lone job longer than the quantum keeps resuming on the idle server and
// completes after exactly its sampled service time.
func TestRR_LoneJobResumes(t *testing.T) {
	sim := rrHarness(t, 1)
	sim.Schedule(0, &inject{s: sim, job: 100, service: 3.5})
	sim.Simulation.Run(1e6)

	done, ok := sim.completions[100]
	if !ok {
		t.Fatal(`job never completed`)
	}
	if done != 3.5 {
		t.Errorf(`completed at %v, want 3.5 (no service lost or invented across slices)`, done)
	}
	if sim.running[0].job != idleJob {
		t.Error(`server not idle after the only job completed`)
	}
}

// Two jobs interleave slice by slice; each still receives exactly its
// sampled service, and the shorter one (by total demand) finishes first.
func TestRR_Interleaving(t *testing.T) {
	sim := rrHarness(t, 1)
	sim.Schedule(0, &inject{s: sim, job: 1, service: 2})
	sim.Schedule(0, &inject{s: sim, job: 2, service: 4})
	sim.Simulation.Run(1e6)

	// slices: j1[0,1) j2[1,2) j1[2,3)=done j2[3,6)=done
	if got := sim.completions[1]; got != 3 {
		t.Errorf(`job 1 completed at %v, want 3`, got)
	}
	if got := sim.completions[2]; got != 6 {
		t.Errorf(`job 2 completed at %v, want 6`, got)
	}
}

// A job whose service is an exact multiple of the quantum must complete at
// the end of its final slice, not be rescheduled for a zero-length slice.
func TestRR_ExactQuantumMultiple(t *testing.T) {
	sim := rrHarness(t, 1)
	sim.Schedule(0, &inject{s: sim, job: 7, service: 2})
	sim.Simulation.Run(1e6)

	if got := sim.completions[7]; got != 2 {
		t.Errorf(`completed at %v, want 2`, got)
	}
}

// A quantum larger than every service degenerates to FIFO: no preemption
// events, identical completion schedule.
func TestRR_LargeQuantumIsFIFO(t *testing.T) {
	sim := rrHarness(t, 100)
	sim.Schedule(0, &inject{s: sim, job: 1, service: 2})
	sim.Schedule(0, &inject{s: sim, job: 2, service: 3})
	sim.Simulation.Run(1e6)

	if got := sim.completions[1]; got != 2 {
		t.Errorf(`job 1 completed at %v, want 2`, got)
	}
	if got := sim.completions[2]; got != 5 {
		t.Errorf(`job 2 completed at %v, want 5`, got)
	}
}

// Preempted jobs requeue behind arrivals already waiting, and the server is
// never double-booked.
func TestRR_RequeueOrder(t *testing.T) {
	sim := rrHarness(t, 1)
	sim.Schedule(0, &inject{s: sim, job: 1, service: 2.5})
	sim.Schedule(0.5, &inject{s: sim, job: 2, service: 1})
	sim.Schedule(0.5, &inject{s: sim, job: 3, service: 1})
	sim.Simulation.Run(1e6)

	// slices: j1[0,1) -> waiters [2 3 1]; j2[1,2)=done; j3[2,3)=done;
	// j1[3,4) -> waiters empty, resume; j1[4,4.5)=done
	if got := sim.completions[2]; got != 2 {
		t.Errorf(`job 2 completed at %v, want 2`, got)
	}
	if got := sim.completions[3]; got != 3 {
		t.Errorf(`job 3 completed at %v, want 3`, got)
	}
	if got := sim.completions[1]; got != 4.5 {
		t.Errorf(`job 1 completed at %v, want 4.5`, got)
	}
}
