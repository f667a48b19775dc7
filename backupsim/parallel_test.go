// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package backupsim

import (
	"testing"

	"github.com/joeycumines/go-dessim/workload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In parallel mode a fast uploader spreads across several slower peers at
// once, and partial bandwidth commitments never double-book a block or a
// peer.
func TestSim_ParallelFanOut(t *testing.T) {
	const century = 100 * 365 * 24 * 3600
	// one fast node and three slow peers; the fast node's upload capacity
	// covers all three download sides simultaneously
	specs := []NodeSpec{{
		Name: `fast`, N: 4, K: 2,
		DataSize: 1 << 20, StorageSize: 8 << 20,
		UploadSpeed: 8192, DownloadSpeed: 8192,
		AverageUptime: century, AverageDowntime: 3600,
		AverageLifetime: century, AverageRecoverTime: 3600,
	}}
	for _, name := range [...]string{`slow-x`, `slow-y`, `slow-z`} {
		specs = append(specs, NodeSpec{
			Name: name, N: 4, K: 2,
			DataSize: 1 << 20, StorageSize: 8 << 20,
			UploadSpeed: 1024, DownloadSpeed: 1024,
			AverageUptime: century, AverageDowntime: 3600,
			AverageLifetime: century, AverageRecoverTime: 3600,
		})
	}

	sim, err := NewSim(specs, workload.NewSource(1), WithParallelTransfers(true))
	require.NoError(t, err)
	sim.Run(24 * 3600)

	checkBookkeeping(t, sim)
	// fixpoint: with three possible hosts each, every node places one block
	// per peer and hosts one block per owner
	for _, n := range sim.Nodes() {
		assert.Equal(t, 3, n.RemoteBlocksHeld(), `%s`, n.Name())
		assert.Equal(t, 3, n.BackedUpBlocks(), `%s`, n.Name())
	}

	// no peer ever holds two blocks of the same owner
	for _, v := range sim.Nodes() {
		hosts := map[NodeID]int{}
		for _, p := range v.backedUp {
			if p != NoNode {
				hosts[p]++
				assert.Equal(t, 1, hosts[p], `%s has two blocks on %s`, v.Name(), sim.Node(p).Name())
			}
		}
	}
}

// Serial mode keeps one transfer per direction per node, even when more
// work is available.
func TestSim_SerialOneAtATime(t *testing.T) {
	const century = 100 * 365 * 24 * 3600
	specs := twoNodeSpecs(century, century)
	sim, err := NewSim(specs, workload.NewSource(1))
	require.NoError(t, err)
	sim.Run(100) // transfers in flight

	for _, n := range sim.Nodes() {
		assert.LessOrEqual(t, len(n.currentUploads), 1, `%s uploads`, n.Name())
		assert.LessOrEqual(t, len(n.currentDownloads), 1, `%s downloads`, n.Name())
	}
}

// After a holder fails and the re-upload nudge has fired, no owner still
// points at the failed holder and the holder stores nothing for others.
func TestSim_ReplacementAfterFailure(t *testing.T) {
	const century = 100 * 365 * 24 * 3600
	specs := make([]NodeSpec, 3)
	for i, name := range [...]string{`owner`, `host`, `spare`} {
		specs[i] = NodeSpec{
			Name: name, N: 4, K: 2,
			DataSize: 1 << 20, StorageSize: 8 << 20,
			UploadSpeed: 4096, DownloadSpeed: 4096,
			AverageUptime: century, AverageDowntime: 3600,
			AverageLifetime: century, AverageRecoverTime: century,
		}
	}
	sim, err := NewSim(specs, workload.NewSource(4))
	require.NoError(t, err)
	sim.Run(7200) // everyone fully cross-replicated

	host := sim.Node(1)
	require.NotZero(t, host.RemoteBlocksHeld(), `precondition: host holds something`)

	(&fail{s: sim, node: host.ID()}).Process(nil)
	sim.Run(24 * 3600)

	checkBookkeeping(t, sim)
	owner := sim.Node(0)
	for block, held := range owner.local {
		if !held {
			continue
		}
		// a backed-up block may only sit on a survivor; the failed node
		// (recover time is a century) holds none
		if p := owner.backedUp[block]; p != NoNode {
			assert.NotEqual(t, host.ID(), p, `block %d still points at the failed host`, block)
		}
	}
	assert.Zero(t, host.RemoteBlocksHeld())
}
