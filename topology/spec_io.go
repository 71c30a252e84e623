package topology

// InterfaceSpec is one border router's declared interface to a neighbor,
// exactly as spec.md section 6 defines it.
type InterfaceSpec struct {
	ISDAS          string  `json:"isd_as" yaml:"isd_as"`
	NeighborRouter string  `json:"neighbor_router" yaml:"neighbor_router"`
	LatencyMs      float64 `json:"latency_ms" yaml:"latency_ms"`
	BandwidthMbps  float64 `json:"bandwidth_mbps" yaml:"bandwidth_mbps"`
}

// RouterSpec describes one border router's interfaces.
type RouterSpec struct {
	Interfaces []InterfaceSpec `json:"interfaces" yaml:"interfaces"`
	Model      string          `json:"model,omitempty" yaml:"model,omitempty"`
}

// HostSpec describes one attached host.
type HostSpec struct {
	Addr string `json:"addr" yaml:"addr"`
}

// ASSpec describes one autonomous system.
type ASSpec struct {
	Core          bool                  `json:"core" yaml:"core"`
	BorderRouters map[string]RouterSpec `json:"border_routers" yaml:"border_routers"`
	Hosts         map[string]HostSpec   `json:"hosts" yaml:"hosts"`
}

// TopologySpec is the wire shape of the topology file: an object keyed
// by AS id, nothing else at the top level (spec.md section 6).
type TopologySpec map[string]ASSpec

// DeviceExecEntry is one forwarding-time record, shaped like the
// teacher's DevExecDesc (desc-topo.go).
type DeviceExecEntry struct {
	Model         string  `json:"model" yaml:"model"`
	ServiceTimeMs float64 `json:"service_time_ms" yaml:"service_time_ms"`
	Cores         int     `json:"cores" yaml:"cores"`
}

// DeviceExecList is the optional --device-exec file's shape, mirroring
// the teacher's DevExecList.
type DeviceExecList struct {
	ListName string            `json:"listname" yaml:"listname"`
	Entries  []DeviceExecEntry `json:"entries" yaml:"entries"`
}

// ProfileTable builds the model -> ForwardingProfile lookup used at
// topology build time.
func (del *DeviceExecList) ProfileTable() map[string]ForwardingProfile {
	table := make(map[string]ForwardingProfile, len(del.Entries)+1)
	table["Default"] = DefaultForwardingProfile
	for _, e := range del.Entries {
		cores := e.Cores
		if cores <= 0 {
			cores = 1
		}
		table[e.Model] = ForwardingProfile{Cores: cores, ServiceTimeMs: e.ServiceTimeMs}
	}
	return table
}
