// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package dessim

// queueItem is a scheduled event. seq is assigned at enqueue and breaks ties
// between items sharing a fire time, keeping dispatch order deterministic.
type queueItem struct {
	event     Event
	fireAt    float64
	seq       uint64
	cancelled bool
}

// eventQueue is a min-heap of queue items, keyed by (fireAt, seq).
type eventQueue []*queueItem

// Implement heap.Interface for eventQueue
func (h eventQueue) Len() int { return len(h) }
func (h eventQueue) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].seq < h[j].seq
}
func (h eventQueue) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventQueue) Push(x any) {
	*h = append(*h, x.(*queueItem))
}

func (h *eventQueue) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}
