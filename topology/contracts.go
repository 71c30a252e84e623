package topology

import "github.com/martenwallewein/sapexf-simulation/simclock"

// contracts.go declares the narrow interfaces Router, Host and Topology
// call out through. Keeping them here (rather than importing the
// beaconing or pathsel packages directly) avoids an import cycle: those
// packages import topology, and implement these interfaces against the
// concrete types they own.

// BeaconHandler receives a beacon that has just arrived at a router and
// is responsible for the propagation/registration/combination logic of
// the beaconing protocol (spec.md 4.5).
type BeaconHandler interface {
	HandleBeacon(sched *simclock.Scheduler, at *Router, b *Beacon)
}

// PathRegistrar is how the beaconing protocol records router-level path
// segments into whichever path-selection algorithm is active.
type PathRegistrar interface {
	// RegisterSegment appends path under (srcAS, dstAS) if it is not
	// already stored there, and returns whether it actually registered
	// something new.
	RegisterSegment(srcAS, dstAS string, path []string) bool

	// SegmentsFrom returns every router-level path stored for the given
	// (srcAS, dstAS) key, in registration order. Used by the combination
	// step to find up/down segments to combine.
	SegmentsFrom(srcAS, dstAS string) [][]string
}

// PathSelector is the subset of the path-selection contract (spec.md 4.7)
// that Hosts and Applications need a non-owning handle to.
type PathSelector interface {
	SelectPath(srcAS, dstAS string) ([]string, bool)
	UpdateProbeResult(probeID string, rttMs float64)
	UpdatePathFeedback(path []string, rttMs float64, isLoss bool, bytes int)
	MarkPathDown(path []string) [][2]string
	MarkPathUp(path []string) [][2]string
	IsPathAvailable(path []string) bool
	GetPathLatency(path []string) (float64, bool)
}

// PathEnumerator gives the probing task a read-only snapshot of every
// path currently on file, without requiring it to know about the
// algorithm's internal storage.
type PathEnumerator interface {
	AllStoredPaths() map[ASPair][][]string
}

// ASPair is the (src,dst) AS key the path store is indexed by.
type ASPair struct {
	Src, Dst string
}

// PacketSink is how a Host hands a data/probe packet addressed to it up
// to whatever owns the receiving end - almost always an *appsim.Application.
type PacketSink interface {
	Deliver(pkt *DataPacket, nowMs float64)
	Loss(pkt *DataPacket)
}
