// Package probing implements the periodic path-probing task of
// spec.md 4.9: for every router-level path currently on file, a
// 64-byte probe packet is sent from an arbitrary host of the source AS
// and the measured RTT is reported back to the active algorithm.
// Grounded on the teacher's (ITI-mrnes) per-device rngstream.RngStream
// usage (net.go) for host selection; probe ids come from a per-task
// counter.
package probing

import (
	"fmt"
	"sort"

	"github.com/iti/rngstream"

	"github.com/martenwallewein/sapexf-simulation/pathsel"
	"github.com/martenwallewein/sapexf-simulation/simclock"
	"github.com/martenwallewein/sapexf-simulation/topology"
	"github.com/martenwallewein/sapexf-simulation/trace"
)

// DefaultIntervalMs is the default probing period (spec.md 4.9).
const DefaultIntervalMs = 2000.0

// ProbeSize is the wire size of a probe packet in bytes (spec.md 4.9).
const ProbeSize = 64

// Task drives the periodic probing loop.
type Task struct {
	Topo       *topology.Topology
	Algorithm  pathsel.Algorithm
	IntervalMs float64
	Trace      *trace.Manager

	rng     *rngstream.RngStream
	nextID  int
}

// New constructs a probing Task. seedName seeds the task's own RNG
// stream, independent of any other device's, following the teacher's
// one-stream-per-actor convention.
func New(topo *topology.Topology, algo pathsel.Algorithm, tm *trace.Manager, seedName string) *Task {
	return &Task{
		Topo:       topo,
		Algorithm:  algo,
		IntervalMs: DefaultIntervalMs,
		Trace:      tm,
		rng:        rngstream.New(seedName),
	}
}

// Start schedules the first probing round.
func (t *Task) Start(sched *simclock.Scheduler) {
	sched.Schedule(t, nil, probeStep)
}

// probeStep sends one probe along every stored path, then reschedules
// itself after IntervalMs until the scheduler ends.
func probeStep(sched *simclock.Scheduler, ctx any, _ any) {
	t := ctx.(*Task)
	if sched.Ended() {
		return
	}

	for _, pair := range sortedPairs(t.Algorithm.AllStoredPaths()) {
		for _, path := range t.Algorithm.AllStoredPaths()[pair] {
			t.sendProbe(sched, pair, path)
		}
	}

	sched.After(t.IntervalMs, t, nil, probeStep)
}

// sendProbe picks an arbitrary host in pair.Src, builds a probe packet
// along path, registers it with the algorithm so the eventual RTT can
// be attributed, and hands it to the originating host.
func (t *Task) sendProbe(sched *simclock.Scheduler, pair topology.ASPair, path []string) {
	as, ok := t.Topo.ASes[pair.Src]
	if !ok || len(as.Hosts) == 0 || len(path) == 0 {
		return
	}
	hostIDs := append([]string(nil), as.Hosts...)
	sort.Strings(hostIDs)
	idx := t.rng.RandInt(0, len(hostIDs)-1)
	host, ok := t.Topo.Host(hostIDs[idx])
	if !ok {
		return
	}

	t.nextID++
	probeID := fmt.Sprintf("probe-%s-%s-%d", pair.Src, pair.Dst, t.nextID)
	t.Algorithm.RegisterProbe(probeID, path)

	pkt := &topology.DataPacket{
		SrcHost:       host.ID,
		DstHost:       host.ID,
		Path:          append([]string(nil), path...),
		Size:          ProbeSize,
		ProbeID:       probeID,
		SendTime:      sched.NowMs(),
		IsProbe:       true,
		ProbeOutbound: true,
	}
	t.Trace.Logf(sched.NowMs(), "probe-sent", fmt.Sprintf("%s along %v", probeID, path))
	host.Send(sched, t.Topo, pkt)
}

func sortedPairs(m map[topology.ASPair][][]string) []topology.ASPair {
	out := make([]topology.ASPair, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		return out[i].Dst < out[j].Dst
	})
	return out
}
