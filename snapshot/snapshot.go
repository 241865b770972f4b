// Package snapshot defines the on-disk document produced by the extract
// backend: one run of an instrumented program, holding the pre- and
// post-region values of every captured region in activation order. The
// same records round-trip through the JSON snapshot file and the sqlite
// capture database.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"kerndata/capture"
)

// #region records

// Snapshot is the top-level capture document for one run.
type Snapshot struct {
	RunID     string         `json:"run_id"`
	Label     string         `json:"label,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Regions   []RegionRecord `json:"regions"`
}

// RegionRecord is one region activation: its descriptor plus the declared
// (pre) and provided (post) variable sets, each 1-indexed independently.
type RegionRecord struct {
	Seq    int         `json:"seq"`
	Module string      `json:"module"`
	Region string      `json:"region"`
	Pre    []VarRecord `json:"pre"`
	Post   []VarRecord `json:"post"`
}

// VarRecord is one captured variable. Data holds the elements widened to
// float64 in flat row-major order; Kind names the original element kind so
// the exact Value can be rebuilt.
type VarRecord struct {
	Index int       `json:"index"`
	Name  string    `json:"name"`
	Kind  string    `json:"kind"`
	Dims  []int     `json:"dims,omitempty"`
	Data  []float64 `json:"data"`
}

// #endregion records

// #region conversions

// VarRecordOf captures a protocol value under its assigned index.
func VarRecordOf(index int, name string, v capture.Value) VarRecord {
	return VarRecord{
		Index: index,
		Name:  name,
		Kind:  v.Kind().String(),
		Dims:  v.Dims(),
		Data:  v.Floats(),
	}
}

// Value rebuilds the protocol value this record was captured from.
func (r VarRecord) Value() (capture.Value, error) {
	kind, ok := capture.KindOf(r.Kind)
	if !ok {
		return capture.Value{}, fmt.Errorf("variable %q: unknown kind %q", r.Name, r.Kind)
	}
	switch kind {
	case capture.Float32:
		data := make([]float32, len(r.Data))
		for i, x := range r.Data {
			data[i] = float32(x)
		}
		if len(r.Dims) == 0 {
			if len(data) != 1 {
				return capture.Value{}, fmt.Errorf("variable %q: scalar with %d elements", r.Name, len(data))
			}
			return capture.Float32Scalar(data[0]), nil
		}
		return capture.Float32Array(data, r.Dims...), nil
	case capture.Float64:
		data := make([]float64, len(r.Data))
		copy(data, r.Data)
		if len(r.Dims) == 0 {
			if len(data) != 1 {
				return capture.Value{}, fmt.Errorf("variable %q: scalar with %d elements", r.Name, len(data))
			}
			return capture.Float64Scalar(data[0]), nil
		}
		return capture.Float64Array(data, r.Dims...), nil
	default:
		data := make([]int32, len(r.Data))
		for i, x := range r.Data {
			data[i] = int32(x)
		}
		if len(r.Dims) == 0 {
			if len(data) != 1 {
				return capture.Value{}, fmt.Errorf("variable %q: scalar with %d elements", r.Name, len(data))
			}
			return capture.Int32Scalar(data[0]), nil
		}
		return capture.Int32Array(data, r.Dims...), nil
	}
}

// #endregion conversions

// #region io

// Load reads and parses a snapshot JSON file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return &s, nil
}

// WriteFile serializes the snapshot to an indented JSON file.
func (s *Snapshot) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// FindRegion returns the n-th activation (0-based) of module:region, or nil.
func (s *Snapshot) FindRegion(module, region string, occurrence int) *RegionRecord {
	seen := 0
	for i := range s.Regions {
		r := &s.Regions[i]
		if r.Module == module && r.Region == region {
			if seen == occurrence {
				return r
			}
			seen++
		}
	}
	return nil
}

// #endregion io
