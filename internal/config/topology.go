package config

import (
	"fmt"

	"github.com/martenwallewein/sapexf-simulation/topology"
)

// LoadTopology reads and parses a topology file (spec.md 6), then
// validates cross-references (unknown neighbor AS, dangling neighbor
// router, host without an address) before handing it to topology.Build, wrapping
// every failure as a *ConfigError.
func LoadTopology(filename string, profiles map[string]topology.ForwardingProfile) (*topology.Topology, error) {
	data, err := readFile("read topology", filename)
	if err != nil {
		return nil, err
	}

	var spec topology.TopologySpec
	if err := unmarshalByExt(filename, data, &spec); err != nil {
		return nil, wrap("parse topology", filename, err)
	}

	if err := validateTopology(spec); err != nil {
		return nil, wrap("validate topology", filename, err)
	}

	topo, err := topology.Build(spec, profiles)
	if err != nil {
		return nil, wrap("build topology", filename, err)
	}
	return topo, nil
}

// validateTopology checks the config-error conditions spec.md 7 names
// explicitly, ahead of topology.Build's own structural checks: every
// interface must reference an AS that exists, and every host must
// declare a non-empty address (an address without one is meaningless,
// since host ids are built from AS+addr).
func validateTopology(spec topology.TopologySpec) error {
	for asID, as := range spec {
		for rname, r := range as.BorderRouters {
			for _, iface := range r.Interfaces {
				remoteAS, ok := spec[iface.ISDAS]
				if !ok {
					return fmt.Errorf("router %s-%s references unknown AS %q", asID, rname, iface.ISDAS)
				}
				if _, ok := remoteAS.BorderRouters[iface.NeighborRouter]; !ok {
					return fmt.Errorf("router %s-%s references dangling neighbor router %q in AS %q",
						asID, rname, iface.NeighborRouter, iface.ISDAS)
				}
			}
		}
		for hname, h := range as.Hosts {
			if h.Addr == "" {
				return fmt.Errorf("AS %q host %q has no address", asID, hname)
			}
		}
	}
	return nil
}
