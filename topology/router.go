package topology

import (
	"slices"

	"github.com/martenwallewein/sapexf-simulation/simclock"
)

// Router is a border router: a globally unique id, its owning AS, and a
// map from neighbor router id to the outbound Link reaching it. Mutable
// only by topology build (spec.md 3).
type Router struct {
	ID      string
	ASId    string
	Model   string
	links   map[string]*Link // neighbor router id -> outbound link
	fwd     *forwardingScheduler
	topo    *Topology
}

func newRouter(id, asID, model string, topo *Topology) *Router {
	return &Router{
		ID:    id,
		ASId:  asID,
		Model: model,
		links: make(map[string]*Link),
		topo:  topo,
	}
}

// AddLink installs the outbound link to a neighbor router.
func (r *Router) AddLink(l *Link) {
	r.links[l.ToRouter] = l
}

// Neighbors returns the router ids directly reachable from this router.
func (r *Router) Neighbors() []string {
	out := make([]string, 0, len(r.links))
	for nbr := range r.links {
		out = append(out, nbr)
	}
	return out
}

// HandleBeacon implements the Router's branch of receive_packet for
// beacon packets (spec.md 4.3): admitted through the same forwarding
// scheduler as data/probe packets, then deferred to whichever
// BeaconHandler the topology was wired with (almost always a
// *beaconing.Protocol), which owns the loop-check/append/register/
// forward logic (spec.md 4.5).
func (r *Router) HandleBeacon(sched *simclock.Scheduler, b *Beacon) {
	if r.topo.beaconHandler == nil {
		return
	}
	nowMs := sched.NowMs()
	r.fwd.admit(sched, nowMs, func() {
		r.topo.beaconHandler.HandleBeacon(sched, r, b)
	})
}

// LinksSnapshot returns the router's outbound links. Named "snapshot" to
// flag to callers that iterate over it while it can concurrently change
// (spec.md 5's snapshot-before-iterating rule) - in practice links are
// only ever added at topology build time, before the scheduler runs, so
// no copy is required here, but the name documents the contract.
func (r *Router) LinksSnapshot() []*Link {
	out := make([]*Link, 0, len(r.links))
	for _, l := range r.links {
		out = append(out, l)
	}
	return out
}

// HandlePacket implements the Router's branch of receive_packet for
// data and probe packets (spec.md 4.3).
func (r *Router) HandlePacket(sched *simclock.Scheduler, pkt *DataPacket) {
	nowMs := sched.NowMs()
	r.fwd.admit(sched, nowMs, func() {
		r.route(sched, pkt)
	})
}

func (r *Router) route(sched *simclock.Scheduler, pkt *DataPacket) {
	idx := firstIndex(pkt.Path, r.ID)
	if idx < 0 {
		// Defensively dropped: this router isn't on the packet's path.
		r.reportLoss(pkt)
		return
	}

	if pkt.IsProbe {
		if idx == len(pkt.Path)-1 {
			r.reflectProbe(sched, pkt)
			return
		}
	} else if idx == len(pkt.Path)-1 {
		// Last router on the path: hand to a destination host in this AS.
		if host, ok := r.topo.hostFor(pkt.DstHost); ok && host.ASId == r.ASId {
			host.receive(sched, pkt, sched.NowMs())
			return
		}
	}

	r.forward(sched, pkt, idx)
}

// forward enqueues pkt toward the next hop in its path, counting a loss
// if that hop is unreachable (spec.md 4.3).
func (r *Router) forward(sched *simclock.Scheduler, pkt *DataPacket, idx int) {
	if idx+1 >= len(pkt.Path) {
		r.reportLoss(pkt)
		return
	}
	nextHop := pkt.Path[idx+1]
	link, ok := r.links[nextHop]
	if !ok {
		r.reportLoss(pkt)
		return
	}
	link.Enqueue(sched, pkt)
}

// reflectProbe swaps source/destination, reverses the path and probe
// direction, and enqueues toward the previous hop (spec.md 4.3).
func (r *Router) reflectProbe(sched *simclock.Scheduler, pkt *DataPacket) {
	if pkt.ProbeOutbound {
		pkt.SrcHost, pkt.DstHost = pkt.DstHost, pkt.SrcHost
		reversed := make([]string, len(pkt.Path))
		for i, h := range pkt.Path {
			reversed[len(pkt.Path)-1-i] = h
		}
		pkt.Path = reversed
		pkt.ProbeOutbound = false
		r.forward(sched, pkt, 0)
		return
	}
	// Already reflected and has arrived back at the origin router: hand
	// to the originating host for RTT accounting.
	if host, ok := r.topo.hostFor(pkt.DstHost); ok && host.ASId == r.ASId {
		host.receive(sched, pkt, sched.NowMs())
	}
}

func (r *Router) reportLoss(pkt *DataPacket) {
	if r.topo.Algorithm != nil {
		r.topo.Algorithm.UpdatePathFeedback(pkt.Path, 0, true, pkt.Size)
	}
	if host, ok := r.topo.hostFor(pkt.SrcHost); ok && host.Sink != nil && !pkt.IsProbe {
		host.Sink.Loss(pkt)
	}
}

// firstIndex returns the first occurrence of id in path (defensive
// tie-break for a path that - against the loop-free invariant - visits a
// router twice), or -1 if absent.
func firstIndex(path []string, id string) int {
	i := slices.Index(path, id)
	return i
}
