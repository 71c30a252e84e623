package beaconing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/martenwallewein/sapexf-simulation/beaconing"
	"github.com/martenwallewein/sapexf-simulation/pathsel"
	"github.com/martenwallewein/sapexf-simulation/simclock"
	"github.com/martenwallewein/sapexf-simulation/topology"
	"github.com/martenwallewein/sapexf-simulation/trace"
)

// triangleSpec builds three fully-meshed core ASes, spec.md 8 scenario
// S4's topology: every AS should eventually learn a path to every
// other AS, none of them revisiting an AS twice.
func triangleSpec() topology.TopologySpec {
	mk := func(nbrs ...string) topology.RouterSpec {
		ifaces := make([]topology.InterfaceSpec, len(nbrs))
		for i, n := range nbrs {
			ifaces[i] = topology.InterfaceSpec{ISDAS: n, NeighborRouter: "br1", LatencyMs: 5, BandwidthMbps: 100}
		}
		return topology.RouterSpec{Interfaces: ifaces}
	}
	return topology.TopologySpec{
		"1-ff00:0:1": {Core: true,
			BorderRouters: map[string]topology.RouterSpec{"br1": mk("1-ff00:0:2", "1-ff00:0:3")},
			Hosts:         map[string]topology.HostSpec{"h1": {Addr: "10.0.0.1"}},
		},
		"1-ff00:0:2": {Core: true,
			BorderRouters: map[string]topology.RouterSpec{"br1": mk("1-ff00:0:1", "1-ff00:0:3")},
			Hosts:         map[string]topology.HostSpec{"h1": {Addr: "10.0.1.1"}},
		},
		"1-ff00:0:3": {Core: true,
			BorderRouters: map[string]topology.RouterSpec{"br1": mk("1-ff00:0:1", "1-ff00:0:2")},
			Hosts:         map[string]topology.HostSpec{"h1": {Addr: "10.0.2.1"}},
		},
	}
}

func TestBeaconingRegistersLoopFreePathsBetweenEveryPair(t *testing.T) {
	topo, err := topology.Build(triangleSpec(), nil)
	require.NoError(t, err)

	store := pathsel.NewStore(topo)
	algo := pathsel.NewShortestPath(store)
	topo.SetAlgorithm(algo)

	tm := trace.New(false, false)
	proto := beaconing.New(topo, algo, tm)
	topo.SetBeaconHandler(proto)

	sched := simclock.New()
	proto.StartOrigination(sched)
	sched.RunUntil(50)

	ases := []string{"1-ff00:0:1", "1-ff00:0:2", "1-ff00:0:3"}
	for _, src := range ases {
		for _, dst := range ases {
			if src == dst {
				continue
			}
			segs := algo.SegmentsFrom(src, dst)
			require.NotEmpty(t, segs, "%s -> %s should have a registered segment", src, dst)
			for _, p := range segs {
				seen := map[string]bool{}
				for _, r := range p {
					require.False(t, seen[r], "%s -> %s path %v must not revisit a router", src, dst, p)
					seen[r] = true
				}
			}
		}
	}
}

func TestBeaconingRegistersReverseSegmentToo(t *testing.T) {
	topo, err := topology.Build(triangleSpec(), nil)
	require.NoError(t, err)
	store := pathsel.NewStore(topo)
	algo := pathsel.NewShortestPath(store)
	topo.SetAlgorithm(algo)

	tm := trace.New(false, false)
	proto := beaconing.New(topo, algo, tm)
	topo.SetBeaconHandler(proto)

	sched := simclock.New()
	proto.StartOrigination(sched)
	sched.RunUntil(50)

	fwd := algo.SegmentsFrom("1-ff00:0:1", "1-ff00:0:2")
	rev := algo.SegmentsFrom("1-ff00:0:2", "1-ff00:0:1")
	require.NotEmpty(t, fwd)
	require.NotEmpty(t, rev)
}
