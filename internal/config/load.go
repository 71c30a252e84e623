package config

import (
	"encoding/json"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// unmarshalByExt dispatches to json.Unmarshal or yaml.Unmarshal based
// on filename's extension, defaulting to JSON - the wire format
// spec.md 6 specifies - for anything else, mirroring the teacher's
// ReadTopoCfgDict/ReadDevExecList extension dispatch.
func unmarshalByExt(filename string, data []byte, v any) error {
	switch path.Ext(filename) {
	case ".yaml", ".yml", ".YAML":
		return yaml.Unmarshal(data, v)
	default:
		return json.Unmarshal(data, v)
	}
}

func readFile(op, filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, wrap(op, filename, err)
	}
	return data, nil
}
