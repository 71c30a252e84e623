package pathsel

import "sort"

// UMCC thresholds (spec.md 4.9.1): a candidate is congested once at
// least two of these three hold, measured against the recent-3 window
// and a baseline pooled from every candidate currently under
// consideration.
const (
	umccRTTFactor        = 1.5
	umccLossThreshold    = 0.05
	umccThroughputFactor = 0.7
)

// firstQuartile returns the nearest-rank first quartile of vs (vs is
// not mutated). Returns 0 for an empty input.
func firstQuartile(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vs...)
	sort.Float64s(sorted)
	idx := len(sorted) / 4
	return sorted[idx]
}

// baselines pools the retained latency and throughput histories of the
// given candidates and returns their first-quartile RTT and throughput
// baselines. Only the last historyWindow samples each candidate keeps
// are pooled; older samples, and candidates not passed in, do not
// contribute.
func baselines(candidates []*Candidate) (rttBaseline, throughputBaseline float64) {
	var rtts, throughputs []float64
	for _, c := range candidates {
		rtts = append(rtts, c.Latencies...)
		throughputs = append(throughputs, c.Throughput...)
	}
	return firstQuartile(rtts), firstQuartile(throughputs)
}

// detectCongestion flags each candidate congested when at least two of
// the three UMCC conditions hold against the pooled baseline (spec.md
// 4.9.1). A candidate with no recent samples at all for a condition
// cannot trigger it.
func detectCongestion(candidates []*Candidate) {
	rttBaseline, throughputBaseline := baselines(candidates)

	for _, c := range candidates {
		hits := 0
		if rttBaseline > 0 {
			if v, ok := c.recentLatency(); ok && v > rttBaseline*umccRTTFactor {
				hits++
			}
		}
		if v, ok := c.recentLossRate(); ok && v > umccLossThreshold {
			hits++
		}
		if throughputBaseline > 0 {
			if v, ok := c.recentThroughput(); ok && v < throughputBaseline*umccThroughputFactor {
				hits++
			}
		}
		c.Congested = hits >= 2
	}
}

// routerSet is the set of router ids a candidate's path visits.
func routerSet(c *Candidate) map[string]bool {
	out := make(map[string]bool, len(c.Path))
	for _, r := range c.Path {
		out[r] = true
	}
	return out
}

// sharedBottleneck computes I = (intersection of router ids across
// congested candidates) minus (union of router ids across
// non-congested candidates) (spec.md 4.9.1). A non-empty I names a
// shared-bottleneck interface set.
func sharedBottleneck(congested, rest []*Candidate) map[string]bool {
	if len(congested) == 0 {
		return nil
	}
	intersection := routerSet(congested[0])
	for _, c := range congested[1:] {
		cur := routerSet(c)
		for r := range intersection {
			if !cur[r] {
				delete(intersection, r)
			}
		}
	}
	for _, c := range rest {
		for r := range routerSet(c) {
			delete(intersection, r)
		}
	}
	return intersection
}

// suppressBottlenecks implements spec.md 4.9.1's full detection loop:
// flag congestion, compute the shared-bottleneck set, and for every
// path that crosses it, suppress all but the best-avg-latency
// representative - then repeat on the reduced candidate set until no
// further bottleneck is found. Returns the path keys to exclude from
// this selection round.
func suppressBottlenecks(candidates []*Candidate) map[string]bool {
	suppressed := make(map[string]bool)
	remaining := append([]*Candidate(nil), candidates...)

	for {
		if len(remaining) < 2 {
			return suppressed
		}
		detectCongestion(remaining)

		var congested, rest []*Candidate
		for _, c := range remaining {
			if c.Congested {
				congested = append(congested, c)
			} else {
				rest = append(rest, c)
			}
		}
		if len(congested) < 2 {
			return suppressed
		}

		bottleneck := sharedBottleneck(congested, rest)
		if len(bottleneck) == 0 {
			return suppressed
		}

		var affected, unaffected []*Candidate
		for _, c := range congested {
			crossed := false
			for _, r := range c.Path {
				if bottleneck[r] {
					crossed = true
					break
				}
			}
			if crossed {
				affected = append(affected, c)
			} else {
				unaffected = append(unaffected, c)
			}
		}
		if len(affected) < 2 {
			return suppressed
		}

		sort.SliceStable(affected, func(i, j int) bool {
			return affected[i].AvgLatency() < affected[j].AvgLatency()
		})
		for _, c := range affected[1:] {
			suppressed[pathKey(c.Path)] = true
		}

		next := append([]*Candidate(nil), rest...)
		next = append(next, unaffected...)
		next = append(next, affected[0])
		remaining = next
	}
}
