package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/martenwallewein/sapexf-simulation/internal/config"
	"github.com/martenwallewein/sapexf-simulation/topology"
)

const validTopologyJSON = `{
	"110": {
		"core": true,
		"border_routers": {"br": {"interfaces": [
			{"isd_as": "111", "neighbor_router": "br", "latency_ms": 10, "bandwidth_mbps": 100}
		]}}
	},
	"111": {
		"border_routers": {"br": {"interfaces": [
			{"isd_as": "110", "neighbor_router": "br", "latency_ms": 10, "bandwidth_mbps": 100}
		]}},
		"hosts": {"h1": {"addr": "10.0.0.1"}}
	}
}`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadTopologyValidFile(t *testing.T) {
	p := writeTemp(t, "topo.json", validTopologyJSON)
	topo, err := config.LoadTopology(p, nil)
	require.NoError(t, err)
	require.Contains(t, topo.ASes, "110")
	require.Contains(t, topo.ASes, "111")
}

func TestLoadTopologyMissingFileIsConfigError(t *testing.T) {
	_, err := config.LoadTopology(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.Error(t, err)
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLoadTopologyRejectsDanglingNeighbor(t *testing.T) {
	bad := `{
		"110": {"border_routers": {"br": {"interfaces": [
			{"isd_as": "999", "neighbor_router": "br", "latency_ms": 1, "bandwidth_mbps": 1}
		]}}}
	}`
	p := writeTemp(t, "topo.json", bad)
	_, err := config.LoadTopology(p, nil)
	require.Error(t, err)
}

func TestLoadTopologyRejectsMalformedJSON(t *testing.T) {
	p := writeTemp(t, "topo.json", `{not valid json`)
	_, err := config.LoadTopology(p, nil)
	require.Error(t, err)
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "parse topology", cfgErr.Op)
}

func TestLoadTopologyAcceptsYAMLByExtension(t *testing.T) {
	yamlSpec := "\"110\":\n  core: true\n  border_routers: {}\n"
	p := writeTemp(t, "topo.yaml", yamlSpec)
	topo, err := config.LoadTopology(p, nil)
	require.NoError(t, err)
	require.Contains(t, topo.ASes, "110")
}

func TestLoadTrafficRejectsUnknownHostAS(t *testing.T) {
	p := writeTemp(t, "topo.json", validTopologyJSON)
	topo, err := config.LoadTopology(p, nil)
	require.NoError(t, err)

	traffic := `{"duration_ms": 1000, "flows": [
		{"name": "f1", "source": "999,10.0.0.1", "destination": "111,10.0.0.1",
		 "start_time_ms": 0, "data_size_kb": 1}
	]}`
	tp := writeTemp(t, "traffic.json", traffic)
	_, err = config.LoadTraffic(tp, topo)
	require.Error(t, err)
}

func TestLoadTrafficIgnoresUnknownEventTypeAtLoadTime(t *testing.T) {
	p := writeTemp(t, "topo.json", validTopologyJSON)
	topo, err := config.LoadTopology(p, nil)
	require.NoError(t, err)

	traffic := `{"duration_ms": 1000, "flows": [], "events": [
		{"type": "wat", "time_ms": 10}
	]}`
	tp := writeTemp(t, "traffic.json", traffic)
	spec, err := config.LoadTraffic(tp, topo)
	require.NoError(t, err, "unknown event types are a runtime warning, not a config error")
	require.Len(t, spec.Events, 1)
}

func TestLoadDeviceExecBuildsProfileTable(t *testing.T) {
	devexec := `{"listname": "models", "entries": [
		{"model": "BigRouter", "service_time_ms": 0.01, "cores": 4}
	]}`
	p := writeTemp(t, "devexec.json", devexec)
	table, err := config.LoadDeviceExec(p)
	require.NoError(t, err)
	require.Equal(t, topology.ForwardingProfile{Cores: 4, ServiceTimeMs: 0.01}, table["BigRouter"])
	require.Equal(t, topology.DefaultForwardingProfile, table["Default"])
}
