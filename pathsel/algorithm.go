// Package pathsel implements the path-selection contract of spec.md
// section 4.7: a shared path store with availability tracking (section
// 4.6), plus two concrete algorithms - ShortestPath (section 4.7's
// baseline) and Sapex (section 4.8, with UMCC shared-bottleneck
// detection from section 4.9.1). Grounded on the teacher's (ITI-mrnes)
// routes.go for the gonum-based route discovery technique, and on its
// general pattern of a small struct owning a map plus read/write
// accessor methods (net.go's IntrfcInit/FlowInit style).
package pathsel

import (
	"sort"
	"strings"

	"github.com/martenwallewein/sapexf-simulation/topology"
)

// rttWindow bounds how many recent probe/feedback RTT samples feed
// GetPathLatency (spec.md 4.7: "the mean of recent probe measurements").
const rttWindow = 10

// Algorithm is the full contract a concrete path-selection algorithm
// must satisfy: everything topology.PathRegistrar/PathSelector/
// PathEnumerator ask of it, plus the two methods that are internal to
// the path-selection framework rather than part of the narrow
// interfaces topology/beaconing/probing depend on.
type Algorithm interface {
	topology.PathRegistrar
	topology.PathSelector
	topology.PathEnumerator

	// DiscoverPaths populates the path store directly from the
	// topology graph (spec.md 4.7 discover_paths(use_graph_traversal
	// =true)), bypassing beaconing. No-op if useGraphTraversal is
	// false - in that mode paths only ever arrive via RegisterSegment.
	DiscoverPaths(useGraphTraversal bool)

	// RegisterProbe records which path a freshly emitted probe id
	// belongs to, so a later UpdateProbeResult can attribute the RTT.
	RegisterProbe(probeID string, path []string)
}

// Store is the shared path-store-and-availability implementation
// embedded by both ShortestPath and Sapex (spec.md 4.6).
type Store struct {
	Topo *topology.Topology

	paths       map[topology.ASPair][][]string
	unavailable map[string]bool
	rtt         map[string][]float64
	pending     map[string][]string // probe id -> path
}

// NewStore constructs an empty Store bound to topo (used for
// DiscoverPaths's graph traversal).
func NewStore(topo *topology.Topology) *Store {
	return &Store{
		Topo:        topo,
		paths:       make(map[topology.ASPair][][]string),
		unavailable: make(map[string]bool),
		rtt:         make(map[string][]float64),
		pending:     make(map[string][]string),
	}
}

func pathKey(path []string) string {
	return strings.Join(path, ">")
}

func clonePath(path []string) []string {
	return append([]string(nil), path...)
}

// RegisterSegment appends path under (srcAS, dstAS) if not already
// present (spec.md 4.5 "Registration": duplicates are not re-added).
func (s *Store) RegisterSegment(srcAS, dstAS string, path []string) bool {
	key := topology.ASPair{Src: srcAS, Dst: dstAS}
	pk := pathKey(path)
	for _, existing := range s.paths[key] {
		if pathKey(existing) == pk {
			return false
		}
	}
	s.paths[key] = append(s.paths[key], clonePath(path))
	return true
}

// SegmentsFrom returns every stored path for (srcAS, dstAS), in
// registration order.
func (s *Store) SegmentsFrom(srcAS, dstAS string) [][]string {
	stored := s.paths[topology.ASPair{Src: srcAS, Dst: dstAS}]
	out := make([][]string, len(stored))
	for i, p := range stored {
		out[i] = clonePath(p)
	}
	return out
}

// AllStoredPaths returns a read-only snapshot of the whole path store,
// for the probing task to iterate over (spec.md 4.9).
func (s *Store) AllStoredPaths() map[topology.ASPair][][]string {
	out := make(map[topology.ASPair][][]string, len(s.paths))
	for k, v := range s.paths {
		cp := make([][]string, len(v))
		for i, p := range v {
			cp[i] = clonePath(p)
		}
		out[k] = cp
	}
	return out
}

// MarkPathDown marks path unavailable and returns every (srcAS,dstAS)
// pair whose stored segments include it, so callers (the application
// event layer) can be notified (spec.md 4.10).
func (s *Store) MarkPathDown(path []string) [][2]string {
	s.unavailable[pathKey(path)] = true
	return s.pairsContaining(path)
}

// MarkPathUp clears path's unavailable flag and returns the affected
// pairs.
func (s *Store) MarkPathUp(path []string) [][2]string {
	delete(s.unavailable, pathKey(path))
	return s.pairsContaining(path)
}

func (s *Store) pairsContaining(path []string) [][2]string {
	pk := pathKey(path)
	var out [][2]string
	for key, stored := range s.paths {
		for _, p := range stored {
			if pathKey(p) == pk {
				out = append(out, [2]string{key.Src, key.Dst})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// IsPathAvailable reports whether path has not been marked down.
func (s *Store) IsPathAvailable(path []string) bool {
	return !s.unavailable[pathKey(path)]
}

// GetPathLatency returns the mean of the recent RTT samples recorded
// for path, or (0, false) if none have arrived yet.
func (s *Store) GetPathLatency(path []string) (float64, bool) {
	samples := s.rtt[pathKey(path)]
	if len(samples) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples)), true
}

// RegisterProbe records the path a freshly emitted probe belongs to.
func (s *Store) RegisterProbe(probeID string, path []string) {
	s.pending[probeID] = clonePath(path)
}

// UpdateProbeResult attributes a just-measured RTT back to the path
// RegisterProbe recorded it against, feeding the RTT window.
func (s *Store) UpdateProbeResult(probeID string, rttMs float64) {
	path, ok := s.pending[probeID]
	if !ok {
		return
	}
	delete(s.pending, probeID)
	s.recordRTT(path, rttMs)
}

// recordRTT appends to path's bounded RTT window.
func (s *Store) recordRTT(path []string, rttMs float64) {
	key := pathKey(path)
	window := append(s.rtt[key], rttMs)
	if len(window) > rttWindow {
		window = window[len(window)-rttWindow:]
	}
	s.rtt[key] = window
}

// UpdatePathFeedback is the Store's base handling of application-level
// feedback (spec.md 4.7): a non-loss sample feeds the RTT window used
// by GetPathLatency. Sapex overrides this to additionally update its
// own per-candidate bookkeeping, calling this base method first.
func (s *Store) UpdatePathFeedback(path []string, rttMs float64, isLoss bool, bytes int) {
	if !isLoss {
		s.recordRTT(path, rttMs)
	}
}

// DiscoverPaths populates the store from the topology graph directly,
// bypassing beaconing (spec.md 4.7 discover_paths(use_graph_traversal=
// true)): for every pair of distinct ASes with at least one router
// each, every router-level path that visits no AS twice, between some
// router of the source AS and some router of the destination AS, is
// registered.
func (s *Store) DiscoverPaths(useGraphTraversal bool) {
	if !useGraphTraversal || s.Topo == nil {
		return
	}
	asIDs := make([]string, 0, len(s.Topo.ASes))
	for id := range s.Topo.ASes {
		asIDs = append(asIDs, id)
	}
	sort.Strings(asIDs)

	for _, srcAS := range asIDs {
		for _, dstAS := range asIDs {
			if srcAS == dstAS {
				continue
			}
			src := s.Topo.ASes[srcAS]
			dst := s.Topo.ASes[dstAS]
			if len(src.Routers) == 0 || len(dst.Routers) == 0 {
				continue
			}
			for _, sr := range sortedStrings(src.Routers) {
				for _, dr := range sortedStrings(dst.Routers) {
					for _, p := range s.Topo.DiscoverPaths(sr, dr) {
						s.RegisterSegment(srcAS, dstAS, p)
					}
				}
			}
		}
	}
}

func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
