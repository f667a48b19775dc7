// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package backupsim

import (
	"fmt"
	"sort"

	"github.com/joeycumines/go-dessim"
	"github.com/joeycumines/go-dessim/units"
)

type (
	// online brings a node up: bandwidth resets to capacity, transfers are
	// (re)scheduled, and the next offline is drawn from the uptime mean.
	online struct {
		s    *Sim
		node NodeID
	}

	// offline is the end of an uptime period. A node that already failed
	// (or was never online) ignores it.
	offline struct {
		s    *Sim
		node NodeID
	}

	// fail loses the node's local data and everything it held for others,
	// then schedules its recovery.
	fail struct {
		s    *Sim
		node NodeID
	}

	// recovery is the online entry after a failure; it also draws the next
	// fail from the lifetime mean.
	recovery struct {
		s    *Sim
		node NodeID
	}

	// transferComplete finalises an in-flight block transfer: backup stores
	// the uploader's block on the downloader, restore rebuilds one of the
	// downloader's own blocks. speed is the bandwidth committed on both
	// endpoints for the transfer's duration.
	transferComplete struct {
		s          *Sim
		handle     *dessim.Handle
		uploader   NodeID
		downloader NodeID
		block      int
		speed      float64
		restore    bool
	}

	// delayedUpload nudges an owner to find a new host a while after a
	// failure purged one of its remote copies.
	delayedUpload struct {
		s    *Sim
		node NodeID
	}

	// bandwidthLog samples committed bandwidth once per simulated day.
	bandwidthLog struct {
		s *Sim
	}
)

// enterOnline is the shared Online/Recover entry: reset bandwidth, try to
// move data in both directions, and schedule the end of this uptime.
func (s *Sim) enterOnline(n *Node) {
	n.online = true
	s.onlineCount++
	s.onlineNodes.add(s.Now(), 1)

	n.availUp = n.spec.UploadSpeed
	n.availDown = n.spec.DownloadSpeed

	s.scheduleNextUploads(n)
	s.scheduleNextDownloads(n)

	s.registerBWWaste(s.Now())
	s.Schedule(s.exp(n.spec.AverageUptime), &offline{s: s, node: n.id})
}

func (e *online) Process(*dessim.Simulation) {
	s := e.s
	n := s.nodes[e.node]
	if n.online || n.failed {
		return
	}
	s.logger.Debug().
		Str(`node`, n.Name()).
		Str(`t`, units.FormatTimespan(s.Now())).
		Log(`node online`)
	s.enterOnline(n)
}

func (e *offline) Process(*dessim.Simulation) {
	s := e.s
	n := s.nodes[e.node]
	if n.failed || !n.online {
		return
	}
	s.disconnect(n)
	s.Schedule(s.exp(n.spec.AverageDowntime), &online{s: s, node: n.id})
}

func (e *fail) Process(*dessim.Simulation) {
	s := e.s
	n := s.nodes[e.node]
	s.logger.Info().
		Str(`node`, n.Name()).
		Str(`t`, units.FormatTimespan(s.Now())).
		Int(`blocks_lost`, n.LocalBlocks()).
		Log(`node fails`)

	s.disconnect(n)
	n.failed = true
	for b := range n.local {
		n.local[b] = false
	}
	s.failureEvents.add(s.Now(), 1)

	// purge everything held for others, nudging each owner that is online
	// with no upload in flight to re-replicate
	owners := make([]NodeID, 0, len(n.remote))
	for owner := range n.remote {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	for _, ownerID := range owners {
		owner := s.nodes[ownerID]
		owner.backedUp[n.remote[ownerID]] = NoNode
		if owner.online && len(owner.currentUploads) == 0 {
			s.Schedule(reuploadDelay, &delayedUpload{s: s, node: ownerID})
			s.registerBWWaste(s.Now())
		}
	}
	n.remote = make(map[NodeID]int)
	n.freeSpace = n.spec.StorageSize - n.blockSize*int64(n.spec.N)

	s.Schedule(s.exp(n.spec.AverageRecoverTime), &recovery{s: s, node: n.id})
}

func (e *recovery) Process(*dessim.Simulation) {
	s := e.s
	n := s.nodes[e.node]
	s.logger.Info().
		Str(`node`, n.Name()).
		Str(`t`, units.FormatTimespan(s.Now())).
		Log(`node recovers`)
	n.failed = false
	s.enterOnline(n)
	s.Schedule(s.exp(n.spec.AverageLifetime), &fail{s: s, node: n.id})
}

func (e *delayedUpload) Process(*dessim.Simulation) {
	s := e.s
	n := s.nodes[e.node]
	if n.online && len(n.currentUploads) == 0 {
		s.scheduleNextUpload(n)
	}
}

func (e *bandwidthLog) Process(*dessim.Simulation) {
	s := e.s
	s.registerBWWaste(s.Now())
	s.Schedule(bandwidthLogInterval, e)
}

func (e *transferComplete) Process(*dessim.Simulation) {
	s := e.s
	u, d := s.nodes[e.uploader], s.nodes[e.downloader]
	if !u.online || !d.online {
		panic(fmt.Sprintf(`backupsim: transfer %s -> %s completed with an offline endpoint`,
			u.Name(), d.Name()))
	}

	if e.restore {
		d.local[e.block] = true
		if d.LocalBlocks() < d.spec.K {
			s.dataLoss++
			s.logger.Warning().
				Str(`node`, d.Name()).
				Int(`local_blocks`, d.LocalBlocks()).
				Int(`k`, d.spec.K).
				Log(`restore completed below recovery threshold`)
		}
	} else {
		d.freeSpace -= u.blockSize
		if d.freeSpace < 0 {
			panic(fmt.Sprintf(`backupsim: negative free space on %s`, d.Name()))
		}
		u.backedUp[e.block] = d.id
		d.remote[u.id] = e.block
	}

	u.successfulTransfers++
	d.successfulTransfers++

	u.releaseUp(e.speed)
	d.releaseDown(e.speed)
	u.currentUploads = removeTransfer(u.currentUploads, e)
	d.currentDownloads = removeTransfer(d.currentDownloads, e)

	s.transferCounts.add(s.Now(), 1)
	s.registerBWWaste(s.Now())

	s.logger.Info().
		Str(`t`, units.FormatTimespan(s.Now())).
		Str(`uploader`, u.Name()).
		Str(`downloader`, d.Name()).
		Int(`block`, e.block).
		Bool(`restore`, e.restore).
		Log(`transfer complete`)
	for _, n := range [...]*Node{u, d} {
		s.logger.Debug().
			Str(`node`, n.Name()).
			Int(`local`, n.LocalBlocks()).
			Int(`backed_up`, n.BackedUpBlocks()).
			Int(`held`, n.RemoteBlocksHeld()).
			Log(`node state`)
	}

	s.scheduleNextUploads(u)
	s.scheduleNextDownloads(d)
}
