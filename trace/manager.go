// Package trace generalizes the teacher's (ITI-mrnes) TraceManager
// (trace.go) from per-network-device execution traces to the
// simulator's own event stream: an InUse-gated recorder that costs
// nothing when tracing is off, and dual JSON/YAML serialization by
// file extension exactly like the teacher's WriteToFile.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

// Record is one traced event.
type Record struct {
	TimeMs float64 `json:"time_ms" yaml:"time_ms"`
	Kind   string  `json:"kind" yaml:"kind"`
	Detail string  `json:"detail" yaml:"detail"`
}

// Manager is the trace store. Zero value has InUse=false and behaves as
// a no-op sink, so callers can always hold a non-nil *Manager.
type Manager struct {
	InUse   bool     `json:"in_use" yaml:"in_use"`
	Records []Record `json:"records" yaml:"records"`

	// Console, when true, additionally prints every logged event as
	// "[<time>.<ms>] <kind>: <detail>" (spec.md section 6 "Logged output").
	Console bool `json:"-" yaml:"-"`
}

// New is a constructor.
func New(active, console bool) *Manager {
	return &Manager{InUse: active, Console: console}
}

// Active reports whether the manager is recording.
func (m *Manager) Active() bool {
	return m != nil && m.InUse
}

// Logf records (if active) and optionally prints one event.
func (m *Manager) Logf(timeMs float64, kind, detail string) {
	if m == nil {
		return
	}
	if m.Console {
		fmt.Printf("[%.3f] %s: %s\n", timeMs, kind, detail)
	}
	if !m.InUse {
		return
	}
	m.Records = append(m.Records, Record{TimeMs: timeMs, Kind: kind, Detail: detail})
}

// WriteToFile serializes the trace to filename, choosing JSON or YAML by
// extension, mirroring the teacher's TraceManager.WriteToFile.
func (m *Manager) WriteToFile(filename string) error {
	if !m.InUse {
		return nil
	}
	var (
		bytes []byte
		err   error
	)
	switch path.Ext(filename) {
	case ".yaml", ".yml", ".YAML":
		bytes, err = yaml.Marshal(*m)
	default:
		bytes, err = json.MarshalIndent(*m, "", "\t")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bytes, 0o644)
}
