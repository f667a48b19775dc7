// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package backupsim simulates a peer-to-peer backup system. Each node
// erasure-codes its data into n blocks (any k recover it) and trades storage
// with peers: it pushes its own blocks out for safekeeping and hosts at most
// one block per fellow owner. Nodes churn between online and offline, and
// occasionally fail outright, losing local data and everything held for
// others; transfers are bandwidth-accounted and cancelled when either
// endpoint disconnects.
//
// Peer selection is tit-for-tat: when choosing whom to serve, a node prefers
// peers that have completed more transfers overall (with any peer), breaking
// ties toward peers holding fewer of their own blocks (the needier first).
package backupsim

import (
	"sort"

	"github.com/joeycumines/go-dessim"
	"github.com/joeycumines/go-dessim/units"
	"github.com/joeycumines/go-dessim/workload"
	"github.com/joeycumines/logiface"
)

// bandwidthLogInterval is the cadence of waste sampling: one simulated day.
const bandwidthLogInterval = 24 * 3600

// reuploadDelay is how long after a failure purges a remote copy its owner
// waits before looking for a new host.
const reuploadDelay = 3600

type (
	// Sim is the backup simulation state. Create with NewSim.
	Sim struct {
		*dessim.Simulation

		logger   *logiface.Logger[logiface.Event]
		src      *workload.Source
		parallel bool

		nodes []*Node

		transferCounts series
		failureEvents  series
		onlineNodes    series
		upBWWasted     series
		dwBWWasted     series

		onlineCount int
		dataLoss    int
	}

	// Option configures a Sim, see NewSim.
	Option func(s *Sim)
)

// WithLogger configures structured logging for the model and kernel.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(s *Sim) {
		s.logger = logger
	}
}

// WithParallelTransfers lets nodes run multiple uploads and downloads at
// once, splitting their capacity, instead of one per direction.
func WithParallelTransfers(parallel bool) Option {
	return func(s *Sim) {
		s.parallel = parallel
	}
}

// NewSim builds a simulation over the given node specs, drawing all
// randomness from src. Each node's first Online fires at its arrival time
// and its first Fail an exponential lifetime sample after that; call Run to
// execute.
func NewSim(specs []NodeSpec, src *workload.Source, options ...Option) (*Sim, error) {
	s := Sim{src: src}
	for _, o := range options {
		o(&s)
	}
	s.Simulation = dessim.New(dessim.WithLogger(s.logger))
	for i, sp := range specs {
		if err := sp.Validate(); err != nil {
			return nil, err
		}
		s.nodes = append(s.nodes, newNode(NodeID(i), sp))
	}
	s.Schedule(0, &bandwidthLog{s: &s})
	for _, n := range s.nodes {
		s.Schedule(n.spec.ArrivalTime, &online{s: &s, node: n.id})
		s.Schedule(n.spec.ArrivalTime+s.exp(n.spec.AverageLifetime), &fail{s: &s, node: n.id})
	}
	return &s, nil
}

// Run executes the simulation up to maxT (simulated seconds).
func (s *Sim) Run(maxT float64) {
	s.Simulation.Run(maxT)
}

// Node returns the runtime state of the node at id, for inspection.
func (s *Sim) Node(id NodeID) *Node { return s.nodes[id] }

// Nodes returns the node arena.
func (s *Sim) Nodes() []*Node { return s.nodes }

// DataLossEvents counts restores that completed with the owner still below
// its recovery threshold k.
func (s *Sim) DataLossEvents() int { return s.dataLoss }

// OnlineCount returns how many nodes are currently online.
func (s *Sim) OnlineCount() int { return s.onlineCount }

// TransferCounts returns completed (non-cancelled) transfers per instant.
func (s *Sim) TransferCounts() []Point { return s.transferCounts.points() }

// FailureEvents returns node failures per instant.
func (s *Sim) FailureEvents() []Point { return s.failureEvents.points() }

// OnlineNodes returns the online-count deltas per instant.
func (s *Sim) OnlineNodes() []Point { return s.onlineNodes.points() }

// BandwidthWaste returns the sampled per-node average committed bandwidth
// (capacity minus currently available), upload and download sides.
func (s *Sim) BandwidthWaste() (up, down []Point) {
	return s.upBWWasted.points(), s.dwBWWasted.points()
}

func (s *Sim) exp(mean float64) float64 {
	return s.src.Exponential(mean)()
}

// registerBWWaste samples committed bandwidth, averaged over online nodes.
func (s *Sim) registerBWWaste(t float64) {
	var up, down float64
	var online int
	for _, n := range s.nodes {
		if !n.online {
			continue
		}
		online++
		up += n.spec.UploadSpeed - n.availUp
		down += n.spec.DownloadSpeed - n.availDown
	}
	if online > 0 {
		up /= float64(online)
		down /= float64(online)
	}
	s.upBWWasted.set(t, up)
	s.dwBWWasted.set(t, down)
}

// scheduleTransfer commits bandwidth on both endpoints and enqueues the
// completion event. restore rebuilds the downloader's own block; backup
// stores the uploader's block on the downloader.
func (s *Sim) scheduleTransfer(uploader, downloader NodeID, block int, restore bool) {
	u, d := s.nodes[uploader], s.nodes[downloader]
	if u == d {
		panic(`backupsim: transfer endpoints must be distinct`)
	}
	blockSize := u.blockSize
	if restore {
		blockSize = d.blockSize
	}
	speed := u.availUp
	if d.availDown < speed {
		speed = d.availDown
	}
	if speed <= 0 {
		s.logger.Debug().
			Str(`uploader`, u.Name()).
			Str(`downloader`, d.Name()).
			Log(`no available bandwidth for transfer`)
		return
	}
	u.availUp -= speed
	d.availDown -= speed

	ev := &transferComplete{
		s:          s,
		uploader:   uploader,
		downloader: downloader,
		block:      block,
		restore:    restore,
		speed:      speed,
	}
	delay := float64(blockSize) / speed
	ev.handle = s.Schedule(delay, ev)
	u.currentUploads = append(u.currentUploads, ev)
	d.currentDownloads = append(d.currentDownloads, ev)

	s.logger.Debug().
		Str(`uploader`, u.Name()).
		Str(`downloader`, d.Name()).
		Int(`block`, block).
		Bool(`restore`, restore).
		Str(`eta`, units.FormatTimespan(delay)).
		Log(`scheduled transfer`)
}

// hasUpCapacity reports whether p can source one more upload.
func (s *Sim) hasUpCapacity(p *Node) bool {
	if !s.parallel && len(p.currentUploads) > 0 {
		return false
	}
	return p.availUp > 0
}

// hasDownCapacity reports whether p can sink one more download.
func (s *Sim) hasDownCapacity(p *Node) bool {
	if !s.parallel && len(p.currentDownloads) > 0 {
		return false
	}
	return p.availDown > 0
}

// rankPeers orders the owners of blocks v holds by descending completed
// transfers, then by ascending count of their own local blocks, so
// cooperative and needy peers are served first. NodeID breaks remaining
// ties, keeping runs reproducible.
func (s *Sim) rankPeers(v *Node) []NodeID {
	owners := make([]NodeID, 0, len(v.remote))
	for id := range v.remote {
		owners = append(owners, id)
	}
	sort.Slice(owners, func(i, j int) bool {
		a, b := s.nodes[owners[i]], s.nodes[owners[j]]
		if a.successfulTransfers != b.successfulTransfers {
			return a.successfulTransfers > b.successfulTransfers
		}
		if al, bl := a.LocalBlocks(), b.LocalBlocks(); al != bl {
			return al < bl
		}
		return owners[i] < owners[j]
	})
	return owners
}

// scheduleNextUpload attempts to source one transfer from v: first serving
// a held block back to an owner that lost it (tit-for-tat order), then
// pushing one of v's own un-replicated blocks to a fresh host. Reports
// whether a transfer was scheduled.
func (s *Sim) scheduleNextUpload(v *Node) bool {
	if !v.online {
		panic(`backupsim: upload selection on offline node`)
	}
	if !s.hasUpCapacity(v) {
		return false
	}

	for _, ownerID := range s.rankPeers(v) {
		block := v.remote[ownerID]
		owner := s.nodes[ownerID]
		if !owner.local[block] && owner.online && !owner.pendingRestoreOf(block) &&
			s.hasDownCapacity(owner) {
			s.scheduleTransfer(v.id, ownerID, block, true)
			return true
		}
	}

	block := v.findBlockToBackUp()
	if block < 0 {
		return false
	}
	for _, p := range s.nodes {
		if p.id == v.id || !p.online || v.backsUpTo(p.id) || v.pendingBackupTo(p.id) {
			continue
		}
		if p.uncommittedSpace(s) >= v.blockSize && s.hasDownCapacity(p) {
			s.scheduleTransfer(v.id, p.id, block, false)
			return true
		}
	}
	return false
}

// scheduleNextDownload mirrors scheduleNextUpload for v's download side:
// first restoring one of v's own missing blocks from its holder, then
// offering v's free space to a peer with an un-replicated block.
func (s *Sim) scheduleNextDownload(v *Node) bool {
	if !v.online {
		panic(`backupsim: download selection on offline node`)
	}
	if !s.hasDownCapacity(v) {
		return false
	}

	for block, held := range v.local {
		if held || v.backedUp[block] == NoNode || v.pendingRestoreOf(block) {
			continue
		}
		holder := s.nodes[v.backedUp[block]]
		if holder.online && s.hasUpCapacity(holder) {
			s.scheduleTransfer(holder.id, v.id, block, true)
			return true
		}
	}

	for _, p := range s.nodes {
		if p.id == v.id || !p.online || v.holdsBlockOf(p.id) || p.pendingBackupTo(v.id) {
			continue
		}
		if v.uncommittedSpace(s) < p.blockSize || !s.hasUpCapacity(p) {
			continue
		}
		if block := p.findBlockToBackUp(); block >= 0 {
			s.scheduleTransfer(p.id, v.id, block, false)
			return true
		}
	}
	return false
}

// scheduleNextUploads keeps sourcing transfers from v until nothing more
// can be scheduled; in serial mode a single attempt is made.
func (s *Sim) scheduleNextUploads(v *Node) {
	for {
		if !s.scheduleNextUpload(v) || !s.parallel {
			return
		}
	}
}

func (s *Sim) scheduleNextDownloads(v *Node) {
	for {
		if !s.scheduleNextDownload(v) || !s.parallel {
			return
		}
	}
}

// disconnect takes v offline and cancels every in-flight transfer it is an
// endpoint of, releasing the bandwidth the other endpoint had committed.
func (s *Sim) disconnect(v *Node) {
	if v.online {
		v.online = false
		s.onlineCount--
		s.onlineNodes.add(s.Now(), -1)
	}
	for _, t := range v.currentUploads {
		t.handle.Cancel()
		d := s.nodes[t.downloader]
		d.currentDownloads = removeTransfer(d.currentDownloads, t)
		d.releaseDown(t.speed)
	}
	v.currentUploads = nil
	for _, t := range v.currentDownloads {
		t.handle.Cancel()
		u := s.nodes[t.uploader]
		u.currentUploads = removeTransfer(u.currentUploads, t)
		u.releaseUp(t.speed)
	}
	v.currentDownloads = nil
}

func removeTransfer(list []*transferComplete, t *transferComplete) []*transferComplete {
	for i, x := range list {
		if x == t {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// uncommittedSpace is the free space not yet claimed by in-flight incoming
// backups, so parallel transfers cannot oversubscribe the node's storage.
func (n *Node) uncommittedSpace(s *Sim) int64 {
	free := n.freeSpace
	for _, t := range n.currentDownloads {
		if !t.restore {
			free -= s.nodes[t.uploader].blockSize
		}
	}
	return free
}

// releaseUp returns committed upload bandwidth, clamped to capacity.
func (n *Node) releaseUp(speed float64) {
	n.availUp += speed
	if n.availUp > n.spec.UploadSpeed {
		n.availUp = n.spec.UploadSpeed
	}
}

// releaseDown returns committed download bandwidth, clamped to capacity.
func (n *Node) releaseDown(speed float64) {
	n.availDown += speed
	if n.availDown > n.spec.DownloadSpeed {
		n.availDown = n.spec.DownloadSpeed
	}
}
