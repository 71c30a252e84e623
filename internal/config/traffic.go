package config

import (
	"fmt"

	"github.com/martenwallewein/sapexf-simulation/topology"
)

// FlowSpec mirrors one entry of the traffic file's "flows" array
// (spec.md 6).
type FlowSpec struct {
	Name        string `json:"name" yaml:"name"`
	Source      string `json:"source" yaml:"source"`           // "AS,IP"
	Destination string `json:"destination" yaml:"destination"` // "AS,IP"
	StartTimeMs float64 `json:"start_time_ms" yaml:"start_time_ms"`
	DataSizeKB  float64 `json:"data_size_kb" yaml:"data_size_kb"`
}

// EventSpec mirrors one entry of the traffic file's optional "events"
// array (spec.md 6).
type EventSpec struct {
	Type        string   `json:"type" yaml:"type"`
	TimeMs      float64  `json:"time_ms" yaml:"time_ms"`
	Path        []string `json:"path" yaml:"path"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// TrafficSpec is the parsed traffic file (spec.md 6).
type TrafficSpec struct {
	DurationMs float64     `json:"duration_ms" yaml:"duration_ms"`
	Flows      []FlowSpec  `json:"flows" yaml:"flows"`
	Events     []EventSpec `json:"events,omitempty" yaml:"events,omitempty"`
}

// LoadTraffic reads and parses a traffic file, validating that every
// flow's source/destination names a host AS known to topo (spec.md 7's
// "unknown host AS" config error class).
func LoadTraffic(filename string, topo *topology.Topology) (*TrafficSpec, error) {
	data, err := readFile("read traffic", filename)
	if err != nil {
		return nil, err
	}

	var spec TrafficSpec
	if err := unmarshalByExt(filename, data, &spec); err != nil {
		return nil, wrap("parse traffic", filename, err)
	}

	if err := validateTraffic(&spec, topo); err != nil {
		return nil, wrap("validate traffic", filename, err)
	}
	return &spec, nil
}

func validateTraffic(spec *TrafficSpec, topo *topology.Topology) error {
	for _, f := range spec.Flows {
		srcAS, _, ok := topology.SplitFullID(f.Source)
		if !ok {
			return fmt.Errorf("flow %q has malformed source %q", f.Name, f.Source)
		}
		dstAS, _, ok := topology.SplitFullID(f.Destination)
		if !ok {
			return fmt.Errorf("flow %q has malformed destination %q", f.Name, f.Destination)
		}
		if _, ok := topo.ASes[srcAS]; !ok {
			return fmt.Errorf("flow %q references unknown host AS %q", f.Name, srcAS)
		}
		if _, ok := topo.ASes[dstAS]; !ok {
			return fmt.Errorf("flow %q references unknown host AS %q", f.Name, dstAS)
		}
		if _, ok := topo.Host(f.Source); !ok {
			return fmt.Errorf("flow %q references unknown host %q", f.Name, f.Source)
		}
		if _, ok := topo.Host(f.Destination); !ok {
			return fmt.Errorf("flow %q references unknown host %q", f.Name, f.Destination)
		}
	}
	for _, e := range spec.Events {
		if e.Type != "path_down" && e.Type != "path_up" {
			continue // unknown event types are ignored at runtime (spec.md 7), not a config error
		}
	}
	return nil
}
