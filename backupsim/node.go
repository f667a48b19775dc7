// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package backupsim

import (
	"errors"
	"fmt"
)

var (
	// ErrBadNodeSpec is returned when a node specification is internally
	// inconsistent (k > n, storage too small for the node's own blocks, and
	// so on).
	ErrBadNodeSpec = errors.New(`backupsim: invalid node spec`)
)

type (
	// NodeID indexes a node in the simulation's arena. Relationships between
	// nodes (who backs up what, for whom) are stored as NodeIDs rather than
	// pointers, keeping the peer graph cycle-free.
	NodeID int

	// NodeSpec is the configuration of one node: erasure-coding parameters,
	// capacities, and lifecycle means (all durations in seconds, sizes in
	// bytes, speeds in bytes per second).
	NodeSpec struct {
		Name string

		// N is the number of blocks the node's data is encoded into; any K
		// of them suffice to recover it.
		N int
		K int

		DataSize    int64
		StorageSize int64

		UploadSpeed   float64
		DownloadSpeed float64

		AverageUptime      float64
		AverageDowntime    float64
		AverageLifetime    float64
		AverageRecoverTime float64

		// ArrivalTime is when the node first comes online.
		ArrivalTime float64
	}

	// Node is the runtime state of one peer.
	Node struct {
		spec NodeSpec
		id   NodeID

		online bool
		failed bool

		blockSize int64
		// freeSpace is the storage left for other nodes' blocks; space for
		// the node's own n blocks is reserved up front and never offered.
		freeSpace int64

		// local[b] reports whether block b of the node's own data is held
		// locally.
		local []bool
		// backedUp[b] is the peer storing block b of this node's data, or
		// NoNode.
		backedUp []NodeID
		// remote maps owner -> block id for blocks of others held here; at
		// most one block per owner.
		remote map[NodeID]int

		availUp   float64
		availDown float64

		currentUploads   []*transferComplete
		currentDownloads []*transferComplete

		successfulTransfers int
	}
)

// NoNode is the absent-peer sentinel.
const NoNode NodeID = -1

// Validate checks the spec for internal consistency.
func (sp *NodeSpec) Validate() error {
	switch {
	case sp.N <= 0 || sp.K <= 0:
		return fmt.Errorf(`%w: %s: n and k must be positive`, ErrBadNodeSpec, sp.Name)
	case sp.K > sp.N:
		return fmt.Errorf(`%w: %s: k (%d) exceeds n (%d)`, ErrBadNodeSpec, sp.Name, sp.K, sp.N)
	case sp.DataSize <= 0:
		return fmt.Errorf(`%w: %s: data size must be positive`, ErrBadNodeSpec, sp.Name)
	case sp.StorageSize < 0:
		return fmt.Errorf(`%w: %s: negative storage size`, ErrBadNodeSpec, sp.Name)
	case sp.UploadSpeed <= 0 || sp.DownloadSpeed <= 0:
		return fmt.Errorf(`%w: %s: speeds must be positive`, ErrBadNodeSpec, sp.Name)
	case sp.AverageUptime <= 0 || sp.AverageDowntime <= 0 ||
		sp.AverageLifetime <= 0 || sp.AverageRecoverTime <= 0:
		return fmt.Errorf(`%w: %s: lifecycle means must be positive`, ErrBadNodeSpec, sp.Name)
	case sp.ArrivalTime < 0:
		return fmt.Errorf(`%w: %s: negative arrival time`, ErrBadNodeSpec, sp.Name)
	}
	blockSize := sp.DataSize / int64(sp.K)
	if free := sp.StorageSize - blockSize*int64(sp.N); free < 0 {
		return fmt.Errorf(`%w: %s: storage %d too small for its own %d blocks of %d bytes`,
			ErrBadNodeSpec, sp.Name, sp.StorageSize, sp.N, blockSize)
	}
	return nil
}

// newNode builds runtime state from a validated spec. Nodes start offline
// with all their own blocks local and nothing backed up.
func newNode(id NodeID, sp NodeSpec) *Node {
	blockSize := sp.DataSize / int64(sp.K)
	n := &Node{
		spec:      sp,
		id:        id,
		blockSize: blockSize,
		freeSpace: sp.StorageSize - blockSize*int64(sp.N),
		local:     make([]bool, sp.N),
		backedUp:  make([]NodeID, sp.N),
		remote:    make(map[NodeID]int),
		availUp:   sp.UploadSpeed,
		availDown: sp.DownloadSpeed,
	}
	for i := range n.local {
		n.local[i] = true
	}
	for i := range n.backedUp {
		n.backedUp[i] = NoNode
	}
	return n
}

// Name returns the node's configured name.
func (n *Node) Name() string { return n.spec.Name }

// ID returns the node's arena index.
func (n *Node) ID() NodeID { return n.id }

// Online reports whether the node is currently online.
func (n *Node) Online() bool { return n.online }

// Failed reports whether the node is currently recovering from a failure.
func (n *Node) Failed() bool { return n.failed }

// FreeSpace returns the bytes still offered to other nodes' blocks.
func (n *Node) FreeSpace() int64 { return n.freeSpace }

// BlockSize returns the node's block size in bytes.
func (n *Node) BlockSize() int64 { return n.blockSize }

// LocalBlocks returns how many of the node's own blocks are held locally.
func (n *Node) LocalBlocks() int {
	var c int
	for _, ok := range n.local {
		if ok {
			c++
		}
	}
	return c
}

// BackedUpBlocks returns how many of the node's blocks have a remote copy.
func (n *Node) BackedUpBlocks() int {
	var c int
	for _, p := range n.backedUp {
		if p != NoNode {
			c++
		}
	}
	return c
}

// RemoteBlocksHeld returns how many blocks of other nodes are stored here.
func (n *Node) RemoteBlocksHeld() int { return len(n.remote) }

// SuccessfulTransfers returns the node's completed-transfer count (both
// directions).
func (n *Node) SuccessfulTransfers() int { return n.successfulTransfers }

// findBlockToBackUp returns a block held locally with no remote copy and no
// backup already in flight, or -1.
func (n *Node) findBlockToBackUp() int {
	for b, held := range n.local {
		if held && n.backedUp[b] == NoNode && !n.pendingBackupOf(b) {
			return b
		}
	}
	return -1
}

// pendingBackupOf reports an in-flight backup of the node's own block b.
func (n *Node) pendingBackupOf(block int) bool {
	for _, t := range n.currentUploads {
		if !t.restore && t.block == block {
			return true
		}
	}
	return false
}

// pendingBackupTo reports an in-flight backup from this node onto peer.
func (n *Node) pendingBackupTo(peer NodeID) bool {
	for _, t := range n.currentUploads {
		if !t.restore && t.downloader == peer {
			return true
		}
	}
	return false
}

// pendingRestoreOf reports an in-flight restore of the node's own block b.
func (n *Node) pendingRestoreOf(block int) bool {
	for _, t := range n.currentDownloads {
		if t.restore && t.block == block {
			return true
		}
	}
	return false
}

// holdsBlockOf reports whether this node already stores a block owned by
// owner.
func (n *Node) holdsBlockOf(owner NodeID) bool {
	_, ok := n.remote[owner]
	return ok
}

// backsUpTo reports whether any of this node's blocks is stored on peer.
func (n *Node) backsUpTo(peer NodeID) bool {
	for _, p := range n.backedUp {
		if p == peer {
			return true
		}
	}
	return false
}

func (n *Node) String() string { return n.spec.Name }
