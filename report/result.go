// Package report aggregates per-application counters into the final
// RunResult and renders spec.md 6's "Logged output" summary block.
// Intentionally stdlib-only (fmt/io): it is a thin presentation
// adapter over data the simulation core already computed, with no
// domain logic of its own to ground in a third-party library.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/martenwallewein/sapexf-simulation/appsim"
)

// FlowResult is one flow's contribution to the final report.
type FlowResult struct {
	Name          string
	Sent          int
	Received      int
	Lost          int
	LossRate      float64
	AvgLatencyMs  float64
}

// RunResult is the simulator's aggregate outcome (spec.md 6's final
// summary block, spec.md 8 property 2: Sent = Received + Lost).
type RunResult struct {
	Sent         int
	Received     int
	Lost         int
	LossRate     float64
	AvgLatencyMs float64
	Flows        []FlowResult
}

// Aggregate builds a RunResult from the applications that ran during
// the simulation, in name order for deterministic output.
func Aggregate(apps []*appsim.Application) *RunResult {
	names := make([]string, len(apps))
	byName := make(map[string]*appsim.Application, len(apps))
	for i, a := range apps {
		names[i] = a.Name
		byName[a.Name] = a
	}
	sort.Strings(names)

	res := &RunResult{}
	var totalLatency float64
	var totalSamples int

	for _, name := range names {
		a := byName[name]
		fr := FlowResult{
			Name:     a.Name,
			Sent:     a.Sent,
			Received: a.Received,
			Lost:     a.Lost,
		}
		if fr.Sent > 0 {
			fr.LossRate = float64(fr.Lost) / float64(fr.Sent)
		}
		if len(a.Latencies) > 0 {
			var sum float64
			for _, l := range a.Latencies {
				sum += l
			}
			fr.AvgLatencyMs = sum / float64(len(a.Latencies))
			totalLatency += sum
			totalSamples += len(a.Latencies)
		}
		res.Flows = append(res.Flows, fr)
		res.Sent += fr.Sent
		res.Received += fr.Received
		res.Lost += fr.Lost
	}

	if res.Sent > 0 {
		res.LossRate = float64(res.Lost) / float64(res.Sent)
	}
	if totalSamples > 0 {
		res.AvgLatencyMs = totalLatency / float64(totalSamples)
	}
	return res
}

// WriteSummary renders the final block named in spec.md 6: total sent,
// received, lost, loss rate, average latency.
func WriteSummary(w io.Writer, r *RunResult) {
	fmt.Fprintf(w, "sent=%d received=%d lost=%d loss_rate=%.4f avg_latency_ms=%.3f\n",
		r.Sent, r.Received, r.Lost, r.LossRate, r.AvgLatencyMs)
	for _, f := range r.Flows {
		fmt.Fprintf(w, "  flow %s: sent=%d received=%d lost=%d loss_rate=%.4f avg_latency_ms=%.3f\n",
			f.Name, f.Sent, f.Received, f.Lost, f.LossRate, f.AvgLatencyMs)
	}
}
