package topology

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Topology is the graph of ASes/routers/hosts/links (spec.md 3). It owns
// every AS, router, host and link; the active path-selection algorithm
// and beacon handler are non-owning references handed in after they are
// constructed, to break the import cycle between this package and
// beaconing/pathsel (spec_full.md design notes).
type Topology struct {
	ASes    map[string]*AS
	Routers map[string]*Router
	Hosts   map[string]*Host
	Links   map[[2]string]*Link // (from router, to router) -> link

	Algorithm     PathSelector
	beaconHandler BeaconHandler

	profiles map[string]ForwardingProfile
}

// New creates an empty Topology.
func New() *Topology {
	return &Topology{
		ASes:     make(map[string]*AS),
		Routers:  make(map[string]*Router),
		Hosts:    make(map[string]*Host),
		Links:    make(map[[2]string]*Link),
		profiles: map[string]ForwardingProfile{"Default": DefaultForwardingProfile},
	}
}

// SetForwardingProfiles installs the model -> ForwardingProfile table
// loaded from an optional --device-exec file.
func (t *Topology) SetForwardingProfiles(table map[string]ForwardingProfile) {
	for k, v := range table {
		t.profiles[k] = v
	}
}

// SetAlgorithm installs the active path-selection algorithm and binds
// it as every host's non-owning reference (spec.md 3's Host data
// model). Only one algorithm is ever active per simulation run
// (spec.md design notes).
func (t *Topology) SetAlgorithm(ps PathSelector) {
	t.Algorithm = ps
	for _, h := range t.Hosts {
		h.Selector = ps
	}
}

// SetBeaconHandler installs the beaconing protocol implementation.
func (t *Topology) SetBeaconHandler(bh BeaconHandler) {
	t.beaconHandler = bh
}

// Router looks up a router by id.
func (t *Topology) Router(id string) (*Router, bool) {
	r, ok := t.Routers[id]
	return r, ok
}

// hostFor looks up a host by its "AS,addr" id.
func (t *Topology) hostFor(id string) (*Host, bool) {
	h, ok := t.Hosts[id]
	return h, ok
}

// Host looks up a host by its "AS,addr" id (exported accessor).
func (t *Topology) Host(id string) (*Host, bool) {
	return t.hostFor(id)
}

// CoreASes returns every core AS, in a stable (sorted) order so that
// beacon-origination task startup is deterministic across runs.
func (t *Topology) CoreASes() []*AS {
	out := make([]*AS, 0)
	for _, as := range t.ASes {
		if as.Core {
			out = append(out, as)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Build constructs a Topology from a parsed TopologySpec (spec.md
// section 4.4 / section 6). Links are created in both directions from
// declared interfaces; a router-to-router edge exists iff both endpoints
// declare each other with matching metrics.
func Build(spec TopologySpec, profiles map[string]ForwardingProfile) (*Topology, error) {
	t := New()
	t.SetForwardingProfiles(profiles)

	// Pass 1: ASes, routers, hosts.
	asIDs := sortedKeys(spec)
	for _, asID := range asIDs {
		asSpec := spec[asID]
		as := &AS{ID: asID, Core: asSpec.Core}
		t.ASes[asID] = as

		routerIDs := sortedRouterKeys(asSpec.BorderRouters)
		for _, rname := range routerIDs {
			rspec := asSpec.BorderRouters[rname]
			rid := fmt.Sprintf("%s-%s", asID, rname)
			model := rspec.Model
			if model == "" {
				model = "Default"
			}
			router := newRouter(rid, asID, model, t)
			profile, ok := t.profiles[model]
			if !ok {
				profile = DefaultForwardingProfile
			}
			router.fwd = newForwardingScheduler(profile)
			t.Routers[rid] = router
			as.Routers = append(as.Routers, rid)
		}

		if len(as.Routers) == 0 && len(asSpec.Hosts) > 0 {
			return nil, fmt.Errorf("config: AS %q declares hosts but no border routers", asID)
		}

		hostNames := sortedHostKeys(asSpec.Hosts)
		for _, hname := range hostNames {
			hspec := asSpec.Hosts[hname]
			if hspec.Addr == "" {
				return nil, fmt.Errorf("config: AS %q host %q has no address", asID, hname)
			}
			hid := FullID(asID, hspec.Addr)
			host := &Host{ID: hid, ASId: asID, RouterId: as.Routers[0]}
			t.Hosts[hid] = host
			as.Hosts = append(as.Hosts, hid)
		}
	}

	// Pass 2: links, requiring both endpoints to declare each other.
	for _, asID := range asIDs {
		asSpec := spec[asID]
		for rname, rspec := range asSpec.BorderRouters {
			localID := fmt.Sprintf("%s-%s", asID, rname)
			for _, iface := range rspec.Interfaces {
				remoteID := fmt.Sprintf("%s-%s", iface.ISDAS, iface.NeighborRouter)
				remoteAS, ok := spec[iface.ISDAS]
				if !ok {
					return nil, fmt.Errorf("config: router %q references unknown AS %q", localID, iface.ISDAS)
				}
				remoteRouterSpec, ok := remoteAS.BorderRouters[iface.NeighborRouter]
				if !ok {
					return nil, fmt.Errorf("config: router %q references unknown neighbor router %q", localID, remoteID)
				}
				if !declaresBack(remoteRouterSpec, asID, rname, iface) {
					continue // one-sided declaration: no link
				}
				if _, exists := t.Links[[2]string{localID, remoteID}]; exists {
					continue
				}
				dstRouter := t.Routers[remoteID]
				link := NewLink(localID, remoteID, iface.LatencyMs, iface.BandwidthMbps, dstRouter)
				t.Routers[localID].AddLink(link)
				t.Links[[2]string{localID, remoteID}] = link
			}
		}
	}

	return t, nil
}

// declaresBack reports whether remote's interfaces list contains a
// matching back-reference to (localAS, localRouter) with the same
// metrics, per the spec's link-existence rule.
func declaresBack(remote RouterSpec, localAS, localRouter string, fwd InterfaceSpec) bool {
	for _, iface := range remote.Interfaces {
		if iface.ISDAS == localAS && iface.NeighborRouter == localRouter &&
			iface.LatencyMs == fwd.LatencyMs && iface.BandwidthMbps == fwd.BandwidthMbps {
			return true
		}
	}
	return false
}

// DiscoverPaths computes, by graph traversal, every router-level path
// between src and dst routers that visits no AS twice - the
// use_graph_traversal=true branch
// of discover_paths (spec.md 4.7), built with the same gonum graph
// technique the teacher uses for shortest-path routes (routes.go).
func (t *Topology) DiscoverPaths(srcRouter, dstRouter string) [][]string {
	ids := sortedRouterIDs(t.Routers)
	idx := make(map[string]int64, len(ids))
	g := simple.NewUndirectedGraph()
	for i, id := range ids {
		idx[id] = int64(i)
		g.AddNode(simple.Node(int64(i)))
	}
	seen := make(map[[2]int64]bool)
	for _, l := range t.Links {
		a, b := idx[l.FromRouter], idx[l.ToRouter]
		key := [2]int64{a, b}
		if a > b {
			key = [2]int64{b, a}
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.SetEdge(simple.Edge{F: simple.Node(a), T: simple.Node(b)})
	}

	src, ok1 := idx[srcRouter]
	dst, ok2 := idx[dstRouter]
	if !ok1 || !ok2 {
		return nil
	}

	// AS, not router, is the unit of repetition spec.md 8's "no repeated
	// AS in the sequence" property forbids: an AS with more than one
	// border router must still be excluded from the rest of the walk
	// once visited through any of its routers.
	asOf := func(n int64) string { return t.Routers[ids[n]].ASId }

	var results [][]string
	visitedAS := map[string]bool{asOf(src): true}
	path := []int64{src}
	var walk func(cur int64)
	walk = func(cur int64) {
		if cur == dst {
			out := make([]string, len(path))
			for i, n := range path {
				out[i] = ids[n]
			}
			results = append(results, out)
			return
		}
		to := graph.NodesOf(g.From(cur))
		sort.Slice(to, func(i, j int) bool { return to[i].ID() < to[j].ID() })
		for _, n := range to {
			as := asOf(n.ID())
			if visitedAS[as] {
				continue
			}
			visitedAS[as] = true
			path = append(path, n.ID())
			walk(n.ID())
			path = path[:len(path)-1]
			visitedAS[as] = false
		}
	}
	walk(src)
	return results
}

func sortedKeys(spec TopologySpec) []string {
	out := make([]string, 0, len(spec))
	for k := range spec {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedRouterKeys(m map[string]RouterSpec) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedHostKeys(m map[string]HostSpec) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedRouterIDs(m map[string]*Router) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
