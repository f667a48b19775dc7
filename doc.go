// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package dessim implements a minimal discrete-event simulation kernel: a
// simulated clock driving a priority-ordered event queue.
//
// A [Simulation] owns the clock and the queue. Events implement [Event] and
// are enqueued with [Simulation.Schedule], which returns a [Handle] that can
// cancel the event without removing it from the queue. [Simulation.Run]
// drains the queue in (fire time, insertion order) order, so two events
// scheduled for the same instant fire in the order they were scheduled.
//
// The kernel is single-threaded: all state is mutated by the event currently
// being dispatched, and Process may schedule further events, including at
// zero delay.
//
// Concrete simulations live in the sibling packages queuesim and backupsim.
package dessim
