package config

import "github.com/martenwallewein/sapexf-simulation/topology"

// LoadDeviceExec reads an optional --device-exec file (mirroring the
// teacher's DevExecList shape) and returns the per-router-model
// ForwardingProfile table it describes.
func LoadDeviceExec(filename string) (map[string]topology.ForwardingProfile, error) {
	data, err := readFile("read device-exec", filename)
	if err != nil {
		return nil, err
	}
	var list topology.DeviceExecList
	if err := unmarshalByExt(filename, data, &list); err != nil {
		return nil, wrap("parse device-exec", filename, err)
	}
	return list.ProfileTable(), nil
}
