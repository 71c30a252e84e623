package topology

import "github.com/martenwallewein/sapexf-simulation/simclock"

// receive is called by the owning router once a data or probe packet
// addressed to this host arrives. It implements application step 5 and
// the probing RTT callback of spec.md 4.9.
func (h *Host) receive(sched *simclock.Scheduler, pkt *DataPacket, nowMs float64) {
	if pkt.IsProbe {
		if h.Selector != nil {
			h.Selector.UpdateProbeResult(pkt.ProbeID, nowMs-pkt.SendTime)
		}
		return
	}

	latency := nowMs - pkt.SendTime
	if h.Selector != nil {
		h.Selector.UpdatePathFeedback(pkt.Path, latency, false, pkt.Size)
	}
	if h.Sink != nil {
		h.Sink.Deliver(pkt, nowMs)
	}
}

// Send hands pkt to this host's attached border router, which is the
// first hop of pkt.Path. The host<->border-router attachment is treated
// as zero-delay, matching the spec's router-level (not host-level) path
// representation.
func (h *Host) Send(sched *simclock.Scheduler, topo *Topology, pkt *DataPacket) {
	r, ok := topo.Router(h.RouterId)
	if !ok {
		return
	}
	r.HandlePacket(sched, pkt)
}
