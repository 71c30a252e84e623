package topology_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/martenwallewein/sapexf-simulation/topology"
)

// triangleSpec builds three core ASes (1-ff00:0:1, 1-ff00:0:2,
// 1-ff00:0:3) each fully meshed with the other two, one host apiece -
// spec.md 8 scenario S4's topology.
func triangleSpec() topology.TopologySpec {
	mk := func(nbr1, nbr2 string) topology.RouterSpec {
		return topology.RouterSpec{Interfaces: []topology.InterfaceSpec{
			{ISDAS: nbr1, NeighborRouter: "br1", LatencyMs: 5, BandwidthMbps: 100},
			{ISDAS: nbr2, NeighborRouter: "br1", LatencyMs: 5, BandwidthMbps: 100},
		}}
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

func TestBuildRequiresMutualInterfaceDeclaration(t *testing.T) {
	spec := topology.TopologySpec{
		"1-ff00:0:1": {
			BorderRouters: map[string]topology.RouterSpec{
				"br1": {Interfaces: []topology.InterfaceSpec{
					{ISDAS: "1-ff00:0:2", NeighborRouter: "br1", LatencyMs: 5, BandwidthMbps: 100},
				}},
			},
		},
		"1-ff00:0:2": {
			BorderRouters: map[string]topology.RouterSpec{
				"br1": {Interfaces: nil}, // one-sided: no back-reference
			},
		},
	}
	topo, err := topology.Build(spec, nil)
	require.NoError(t, err)
	require.Empty(t, topo.Links, "a one-sided interface declaration must not create a link")
}

func TestBuildCreatesLinkOnMutualDeclaration(t *testing.T) {
	topo, err := topology.Build(triangleSpec(), nil)
	require.NoError(t, err)
	require.Len(t, topo.Links, 6, "3 ASes fully meshed should yield 6 directed links")
}

func TestBuildRejectsHostsWithoutBorderRouter(t *testing.T) {
	spec := topology.TopologySpec{
		"1-ff00:0:1": {
			Hosts: map[string]topology.HostSpec{"h1": {Addr: "10.0.0.1"}},
		},
	}
	_, err := topology.Build(spec, nil)
	require.Error(t, err)
}

func TestDiscoverPathsFindsEverySimplePathWithoutRepeats(t *testing.T) {
	topo, err := topology.Build(triangleSpec(), nil)
	require.NoError(t, err)

	paths := topo.DiscoverPaths("1-ff00:0:1-br1", "1-ff00:0:2-br1")
	require.NotEmpty(t, paths)
	for _, p := range paths {
		seen := map[string]bool{}
		for _, r := range p {
			require.False(t, seen[r], "simple path must not repeat a router: %v", p)
			seen[r] = true
		}
		require.Equal(t, "1-ff00:0:1-br1", p[0])
		require.Equal(t, "1-ff00:0:2-br1", p[len(p)-1])
	}
}

// TestDiscoverPathsExcludesASRevisitedThroughADifferentRouter builds a
// topology where the only route from A to B threads through AS "X"
// twice, entering via one border router and leaving via the other:
// A -- X.br1 -- C -- X.br2 -- B. No router id repeats along that walk,
// but the AS sequence does (A, X, C, X, B), which spec.md 8's "no
// repeated AS in the sequence" property forbids. discover_paths must
// therefore report no path at all here, not the router-distinct one.
func TestDiscoverPathsExcludesASRevisitedThroughADifferentRouter(t *testing.T) {
	link := func(nbrAS, nbrRouter string) topology.RouterSpec {
		return topology.RouterSpec{Interfaces: []topology.InterfaceSpec{
			{ISDAS: nbrAS, NeighborRouter: nbrRouter, LatencyMs: 5, BandwidthMbps: 100},
		}}
	}
	twoLink := func(nbrAS1, nbrRouter1, nbrAS2, nbrRouter2 string) topology.RouterSpec {
		return topology.RouterSpec{Interfaces: []topology.InterfaceSpec{
			{ISDAS: nbrAS1, NeighborRouter: nbrRouter1, LatencyMs: 5, BandwidthMbps: 100},
			{ISDAS: nbrAS2, NeighborRouter: nbrRouter2, LatencyMs: 5, BandwidthMbps: 100},
		}}
	}
	spec := topology.TopologySpec{
		"A": {BorderRouters: map[string]topology.RouterSpec{"br": link("X", "br1")}},
		"X": {BorderRouters: map[string]topology.RouterSpec{
			"br1": twoLink("A", "br", "C", "br"),
			"br2": twoLink("C", "br", "B", "br"),
		}},
		"C": {BorderRouters: map[string]topology.RouterSpec{"br": twoLink("X", "br1", "X", "br2")}},
		"B": {BorderRouters: map[string]topology.RouterSpec{"br": link("X", "br2")}},
	}
	topo, err := topology.Build(spec, nil)
	require.NoError(t, err)

	paths := topo.DiscoverPaths("A-br", "B-br")
	require.Empty(t, paths, "the only router-level walk revisits AS X and must be excluded")
}

func TestSplitFullID(t *testing.T) {
	as, addr, ok := topology.SplitFullID("1-ff00:0:1,10.0.0.1")
	require.True(t, ok)
	require.Equal(t, "1-ff00:0:1", as)
	require.Equal(t, "10.0.0.1", addr)

	_, _, ok = topology.SplitFullID("no-comma-here")
	require.False(t, ok)
}

func TestCoreASesSortedDeterministic(t *testing.T) {
	topo, err := topology.Build(triangleSpec(), nil)
	require.NoError(t, err)
	ids := make([]string, 0)
	for _, as := range topo.CoreASes() {
		ids = append(ids, as.ID)
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	require.Equal(t, sorted, ids)
}
