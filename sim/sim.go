// Package sim wires together the scheduler, topology, path-selection
// algorithm, beaconing protocol, probing task and application/event
// layer into one runnable simulation, per spec.md 2's control flow:
// build topology -> launch beacon origination -> warm up -> start
// applications, probing and events -> drain -> report.
package sim

import (
	"fmt"

	"github.com/martenwallewein/sapexf-simulation/appsim"
	"github.com/martenwallewein/sapexf-simulation/beaconing"
	"github.com/martenwallewein/sapexf-simulation/internal/config"
	"github.com/martenwallewein/sapexf-simulation/pathsel"
	"github.com/martenwallewein/sapexf-simulation/probing"
	"github.com/martenwallewein/sapexf-simulation/report"
	"github.com/martenwallewein/sapexf-simulation/simclock"
	"github.com/martenwallewein/sapexf-simulation/topology"
	"github.com/martenwallewein/sapexf-simulation/trace"
)

// Config is everything a run needs beyond the already-parsed topology
// and traffic files.
type Config struct {
	Topo       *topology.Topology
	Traffic    *config.TrafficSpec
	Algorithm  string // "shortest" (default) or "sapex"
	UMCC       bool
	WarmupMs   float64
	SeedName   string
	Trace      *trace.Manager
}

// Run drives one complete simulation and returns its aggregate report.
// The traffic file's duration_ms describes the traffic-generation
// window that begins after WarmupMs elapses (spec.md 2: "after a
// warmup interval, applications start"), so the scheduler runs until
// WarmupMs+duration_ms and every flow/event time in the file is offset
// by WarmupMs.
func Run(cfg Config) (*report.RunResult, error) {
	if cfg.Topo == nil {
		return nil, fmt.Errorf("sim: nil topology")
	}
	tm := cfg.Trace
	if tm == nil {
		tm = trace.New(false, false)
	}

	sched := simclock.New()

	store := pathsel.NewStore(cfg.Topo)
	var algo pathsel.Algorithm
	switch cfg.Algorithm {
	case "sapex":
		algo = pathsel.NewSapex(store, cfg.UMCC)
	case "", "shortest":
		algo = pathsel.NewShortestPath(store)
	default:
		return nil, fmt.Errorf("sim: unknown algorithm %q", cfg.Algorithm)
	}
	cfg.Topo.SetAlgorithm(algo)

	proto := beaconing.New(cfg.Topo, algo, tm)
	cfg.Topo.SetBeaconHandler(proto)
	proto.StartOrigination(sched)

	probeName := cfg.SeedName
	if probeName == "" {
		probeName = "probe"
	}
	probeTask := probing.New(cfg.Topo, algo, tm, probeName)
	probeTask.Start(sched)

	registry := appsim.NewRegistry()

	var events []*appsim.Event
	if cfg.Traffic != nil {
		for _, e := range cfg.Traffic.Events {
			events = append(events, &appsim.Event{
				Kind:        e.Type,
				TimeMs:      cfg.WarmupMs + e.TimeMs,
				Path:        e.Path,
				Description: e.Description,
			})
		}
	}
	em := appsim.NewEventManager(algo, registry, tm, events)
	em.Start(sched)

	var apps []*appsim.Application
	var durationMs float64
	if cfg.Traffic != nil {
		durationMs = cfg.Traffic.DurationMs
		for _, f := range cfg.Traffic.Flows {
			srcAS, _, ok := topology.SplitFullID(f.Source)
			if !ok {
				return nil, fmt.Errorf("sim: malformed flow source %q", f.Source)
			}
			dstAS, _, ok := topology.SplitFullID(f.Destination)
			if !ok {
				return nil, fmt.Errorf("sim: malformed flow destination %q", f.Destination)
			}
			totalBytes := int(f.DataSizeKB * 1000)
			app := appsim.New(f.Name, f.Source, f.Destination, srcAS, dstAS,
				cfg.WarmupMs+f.StartTimeMs, totalBytes, cfg.Topo, algo, registry, tm)
			apps = append(apps, app)
			app.Start(sched)
		}
	}

	sched.RunUntil(cfg.WarmupMs + durationMs)

	return report.Aggregate(apps), nil
}
