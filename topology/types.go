package topology

import (
	"fmt"

	"github.com/martenwallewein/sapexf-simulation/simclock"
)

// AS is an autonomous system: a routing domain identified by its
// ISD-AS string. Immutable after topology build.
type AS struct {
	ID      string
	Core    bool
	Routers []string // router ids owned by this AS
	Hosts   []string // host ids owned by this AS
}

// HopInfo is one entry in a beacon's accumulating hop list.
type HopInfo struct {
	ASId          string
	RouterId      string
	IngressIface  string
	EgressIface   string
	LatencyMs     float64
	BandwidthMbps float64
}

// Beacon is the in-flight path-construction message (spec.md 3). Segment
// types mirror the SCION PCB vocabulary.
type Beacon struct {
	OriginAS    string
	Timestamp   float64
	Hops        []HopInfo
	SegmentType string // "down", "core", "up"
	Path        []string
}

// Clone returns an independent deep copy, so that forwarding a beacon to
// several neighbors never lets one clone's append mutate another's.
func (b *Beacon) Clone() *Beacon {
	c := *b
	c.Hops = append([]HopInfo(nil), b.Hops...)
	c.Path = append([]string(nil), b.Path...)
	return &c
}

// ASSequence extracts the (deduplicated-by-construction) AS identifiers
// visited so far, in visitation order.
func (b *Beacon) ASSequence() []string {
	seq := make([]string, 0, len(b.Hops)+1)
	seq = append(seq, b.OriginAS)
	for _, h := range b.Hops {
		if len(seq) == 0 || seq[len(seq)-1] != h.ASId {
			seq = append(seq, h.ASId)
		}
	}
	return seq
}

// WireMsg is anything a Link can carry: it knows its own size (for the
// bandwidth/transmission-delay calculation) and how to present itself to
// the router at the far end.
type WireMsg interface {
	WireSize() int
	Deliver(sched *simclock.Scheduler, r *Router)
}

// WireSize implements WireMsg for Beacon; beacons are modeled as a fixed
// 64-byte control message (spec.md is silent on an exact size; this
// matches the 64-byte probe size used elsewhere for a lightweight
// control packet).
func (b *Beacon) WireSize() int { return 64 }

// Deliver implements WireMsg for Beacon.
func (b *Beacon) Deliver(sched *simclock.Scheduler, r *Router) {
	r.HandleBeacon(sched, b)
}

// DataPacket is the logical data/probe packet (spec.md 3). A single type
// serves both, distinguished by IsProbe/ProbeOutbound.
type DataPacket struct {
	SrcHost       string
	DstHost       string
	Path          []string // router-level path, ordered
	Size          int      // bytes
	ProbeID       string
	SendTime      float64 // ms, simulation time the packet was created
	IsProbe       bool
	ProbeOutbound bool // true heading toward DstHost, false reflected back to SrcHost
}

// WireSize implements WireMsg for DataPacket.
func (p *DataPacket) WireSize() int { return p.Size }

// Deliver implements WireMsg for DataPacket.
func (p *DataPacket) Deliver(sched *simclock.Scheduler, r *Router) {
	r.HandlePacket(sched, p)
}

// Host is a source/sink endpoint: identifier (AS,address), owning AS,
// attached border router, and a non-owning handle to the active
// path-selection algorithm.
type Host struct {
	ID       string // "<ASid>,<addr>"
	ASId     string
	RouterId string
	Selector PathSelector
	Sink     PacketSink
}

// FullID formats the (AS,address)-style host identifier used by traffic
// files: "AS,addr".
func FullID(asID, addr string) string {
	return fmt.Sprintf("%s,%s", asID, addr)
}

// SplitFullID splits a "AS,addr" host id back into its AS and address
// parts.
func SplitFullID(id string) (asID, addr string, ok bool) {
	for i := 0; i < len(id); i++ {
		if id[i] == ',' {
			return id[:i], id[i+1:], true
		}
	}
	return "", "", false
}
