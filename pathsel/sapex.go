package pathsel

// Sapex scoring weights (spec.md 4.8): score = avg_latency +
// alpha*loss_rate + beta*(1/throughput_recent). The reference uses
// alpha=100 (ms per unit loss rate), beta=0, so throughput only feeds
// selection through UMCC's congestion check, never directly through
// the score.
const (
	sapexAlpha = 100.0
	sapexBeta  = 0.0
)

// Sapex is the reference scoring algorithm of spec.md 4.8, optionally
// combined with UMCC shared-bottleneck detection (spec.md 4.9.1) when
// UMCC is true.
type Sapex struct {
	*Store
	UMCC bool

	candidates map[string]*Candidate // path key -> candidate
}

// NewSapex constructs a Sapex algorithm over store.
func NewSapex(store *Store, umcc bool) *Sapex {
	return &Sapex{Store: store, UMCC: umcc, candidates: make(map[string]*Candidate)}
}

func (a *Sapex) candidateFor(path []string) *Candidate {
	key := pathKey(path)
	c, ok := a.candidates[key]
	if !ok {
		c = newCandidate(path)
		a.candidates[key] = c
	}
	return c
}

// UpdatePathFeedback overrides Store's base implementation to also
// fold the sample into this path's Sapex candidate, after letting the
// embedded Store update its shared RTT window (used by GetPathLatency
// regardless of which algorithm is active).
func (a *Sapex) UpdatePathFeedback(path []string, rttMs float64, isLoss bool, bytes int) {
	a.Store.UpdatePathFeedback(path, rttMs, isLoss, bytes)
	a.candidateFor(path).record(rttMs, isLoss, bytes)
}

// UpdateProbeResult overrides Store's base implementation so probe RTTs
// also seed this path's Sapex candidate (spec.md 4.8 step 1: "seed
// avg_latency from probe results if available, else a large sentinel").
// A probe carries only a round trip time, so it is added to the
// candidate's latency history alone: it informs AvgLatency without
// touching the send/loss counters or the throughput history.
func (a *Sapex) UpdateProbeResult(probeID string, rttMs float64) {
	path, ok := a.pending[probeID]
	if !ok {
		return
	}
	a.Store.UpdateProbeResult(probeID, rttMs)
	c := a.candidateFor(path)
	c.Latencies = appendBoundedF(c.Latencies, rttMs, historyWindow)
}

// score computes the Sapex reference score for c (spec.md 4.8 step 4).
func (a *Sapex) score(c *Candidate) float64 {
	s := c.AvgLatency() + sapexAlpha*c.LossRate()
	if sapexBeta != 0 {
		if tp, ok := c.recentThroughput(); ok && tp > 0 {
			s += sapexBeta * (1 / tp)
		}
	}
	return s
}

// SelectPath implements topology.PathSelector, following spec.md 4.8's
// four steps: refresh candidates for every stored path (seeding the
// sentinel latency for ones with no observations yet), filter
// unavailable paths, run UMCC if enabled, then return the minimum-
// score survivor.
func (a *Sapex) SelectPath(srcAS, dstAS string) ([]string, bool) {
	stored := a.SegmentsFrom(srcAS, dstAS)

	var available []*Candidate
	for _, p := range stored {
		c := a.candidateFor(p) // step 1: ensure a candidate exists
		if !a.IsPathAvailable(p) {
			continue // step 2
		}
		available = append(available, c)
	}
	if len(available) == 0 {
		return nil, false
	}

	suppressed := map[string]bool{}
	if a.UMCC { // step 3
		suppressed = suppressBottlenecks(available)
	}

	var best *Candidate
	var bestScore float64
	for _, c := range available { // step 4
		if suppressed[pathKey(c.Path)] {
			continue
		}
		s := a.score(c)
		if best == nil || s < bestScore || (s == bestScore && len(c.Path) < len(best.Path)) {
			best, bestScore = c, s
		}
	}
	if best == nil {
		return nil, false
	}
	return clonePath(best.Path), true
}
