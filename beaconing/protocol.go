// Package beaconing implements the periodic beacon-origination,
// loop-free propagation, path-segment registration and up x down
// combination described in spec.md 4.5. It is grounded on the
// teacher's (ITI-mrnes) interface-delay and per-device task patterns,
// generalized from compute-pattern traffic to SCION-style PCB
// propagation.
package beaconing

import (
	"fmt"
	"slices"
	"sort"

	"github.com/martenwallewein/sapexf-simulation/simclock"
	"github.com/martenwallewein/sapexf-simulation/topology"
	"github.com/martenwallewein/sapexf-simulation/trace"
)

// DefaultIntervalMs is the default beacon-origination period
// (spec.md 4.5).
const DefaultIntervalMs = 1000.0

// Protocol implements topology.BeaconHandler. It owns no path state
// itself - segment storage and combination both write through
// Registrar, which is almost always the same object installed as the
// topology's active PathSelector (spec.md: "the path-selection
// algorithm owns the path store").
type Protocol struct {
	Topo       *topology.Topology
	Registrar  topology.PathRegistrar
	IntervalMs float64
	Trace      *trace.Manager
}

// New is a constructor.
func New(topo *topology.Topology, registrar topology.PathRegistrar, tm *trace.Manager) *Protocol {
	return &Protocol{Topo: topo, Registrar: registrar, IntervalMs: DefaultIntervalMs, Trace: tm}
}

// StartOrigination launches one beacon-origination task per border
// router of a core AS that has at least one inter-AS interface
// (spec.md 4.5 "Origination").
func (p *Protocol) StartOrigination(sched *simclock.Scheduler) {
	for _, as := range p.Topo.CoreASes() {
		for _, rid := range as.Routers {
			r, ok := p.Topo.Router(rid)
			if !ok || len(r.Neighbors()) == 0 {
				continue
			}
			task := &originationTask{protocol: p, router: r}
			sched.Schedule(task, nil, originationStep)
		}
	}
}

type originationTask struct {
	protocol *Protocol
	router   *topology.Router
}

// originationStep emits a fresh beacon on every outbound inter-AS link
// of the task's router, then reschedules itself after IntervalMs,
// polling Scheduler.Ended() to stop at simulation end (spec.md 4.11
// beacon task state machine).
func originationStep(sched *simclock.Scheduler, ctx any, _ any) {
	t := ctx.(*originationTask)
	if sched.Ended() {
		return
	}
	p := t.protocol
	r := t.router

	for _, l := range sortedLinks(r.LinksSnapshot()) {
		nbr, ok := p.Topo.Router(l.ToRouter)
		if !ok {
			continue
		}
		segType := "down"
		if nbrAS, ok := p.Topo.ASes[nbr.ASId]; ok && nbrAS.Core {
			segType = "core"
		}
		b := &topology.Beacon{
			OriginAS:    r.ASId,
			Timestamp:   sched.NowMs(),
			SegmentType: segType,
			Path:        []string{r.ID},
			Hops:        []topology.HopInfo{{ASId: r.ASId, RouterId: r.ID}},
		}
		p.Trace.Logf(sched.NowMs(), "beacon-origin",
			fmt.Sprintf("core router %s emits beacon toward %s", r.ID, l.ToRouter))
		l.Enqueue(sched, b)
	}

	sched.After(p.IntervalMs, t, nil, originationStep)
}

// HandleBeacon implements topology.BeaconHandler: the loop check,
// hop-append, registration and forward-to-non-loop-neighbors sequence
// of spec.md 4.5 "Propagation invariants".
func (p *Protocol) HandleBeacon(sched *simclock.Scheduler, at *topology.Router, b *topology.Beacon) {
	if slices.Contains(b.ASSequence(), at.ASId) {
		return
	}

	ingress := ""
	if len(b.Path) > 0 {
		ingress = fmt.Sprintf("%s~%s", b.Path[len(b.Path)-1], at.ID)
	}
	b.Hops = append(b.Hops, topology.HopInfo{ASId: at.ASId, RouterId: at.ID, IngressIface: ingress})
	b.Path = append(b.Path, at.ID)

	p.register(sched, at, b)

	for _, l := range sortedLinks(at.LinksSnapshot()) {
		if slices.Contains(b.Path, l.ToRouter) {
			continue
		}
		out := b.Clone()
		last := &out.Hops[len(out.Hops)-1]
		last.EgressIface = fmt.Sprintf("%s~%s", at.ID, l.ToRouter)
		last.LatencyMs = l.LatencyMs
		last.BandwidthMbps = l.BandwidthMbps
		l.Enqueue(sched, out)
	}
}

// register implements spec.md 4.5 "Registration" and "Combination".
func (p *Protocol) register(sched *simclock.Scheduler, at *topology.Router, b *topology.Beacon) {
	down := append([]string(nil), b.Path...)
	up := reversePath(down)

	newDown := p.Registrar.RegisterSegment(b.OriginAS, at.ASId, down)
	p.Registrar.RegisterSegment(at.ASId, b.OriginAS, up)
	if newDown {
		p.Trace.Logf(sched.NowMs(), "path-registered",
			fmt.Sprintf("%s -> %s via %v", b.OriginAS, at.ASId, down))
	}

	p.combine(sched, b.OriginAS, at.ASId, down)
}

// combine implements the up x down segment combination of spec.md 4.5:
// for every other leaf L' with a known (core, L') segment, concatenate
// the leaf-to-core direction of the just-registered segment with the
// core-to-leaf direction of the other one, de-duplicating the shared
// pivot router.
func (p *Protocol) combine(sched *simclock.Scheduler, core, leaf string, downToLeaf []string) {
	leafToCore := reversePath(downToLeaf)

	for _, otherLeaf := range p.otherLeavesOf(core, leaf) {
		for _, downToOther := range p.Registrar.SegmentsFrom(core, otherLeaf) {
			if len(downToOther) == 0 || len(leafToCore) == 0 || downToOther[0] != leafToCore[len(leafToCore)-1] {
				continue // no shared pivot router: beacon origins differ
			}
			combined := append(append([]string(nil), leafToCore...), downToOther[1:]...)
			if p.Registrar.RegisterSegment(leaf, otherLeaf, combined) {
				p.Trace.Logf(sched.NowMs(), "path-combined",
					fmt.Sprintf("%s -> %s via %v", leaf, otherLeaf, combined))
			}
			p.Registrar.RegisterSegment(otherLeaf, leaf, reversePath(combined))
		}
	}
}

// otherLeavesOf returns every non-core AS id other than leaf itself
// that the registrar already knows a (core, *) segment for.
func (p *Protocol) otherLeavesOf(core, leaf string) []string {
	seen := map[string]bool{}
	var out []string
	for _, as := range p.Topo.ASes {
		if as.ID == core || as.ID == leaf || as.Core {
			continue
		}
		if seen[as.ID] {
			continue
		}
		if segs := p.Registrar.SegmentsFrom(core, as.ID); len(segs) > 0 {
			seen[as.ID] = true
			out = append(out, as.ID)
		}
	}
	sort.Strings(out)
	return out
}

func reversePath(path []string) []string {
	out := make([]string, len(path))
	for i, v := range path {
		out[len(path)-1-i] = v
	}
	return out
}

func sortedLinks(links []*topology.Link) []*topology.Link {
	sort.Slice(links, func(i, j int) bool { return links[i].ToRouter < links[j].ToRouter })
	return links
}
