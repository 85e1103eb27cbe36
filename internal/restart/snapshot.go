// Package restart serializes the composite model state so an interrupted
// run can be resumed. A snapshot carries the composite time and every
// core's clock and variable values; the engine captures and restores it,
// this package only handles the file format.
package restart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Version is bumped whenever the snapshot layout changes incompatibly.
const Version = 1

// Snapshot is the restorable state of one run.
type Snapshot struct {
	Version int
	Time    float64
	Cores   map[string]CoreState
}

// CoreState is the restorable state of a single core.
type CoreState struct {
	Time float64
	Vars map[string]cty.Value
}

// typedValue is the on-disk form of a cty value: its type and its value,
// both in cty's own JSON encodings.
type typedValue struct {
	Type  json.RawMessage `json:"type"`
	Value json.RawMessage `json:"value"`
}

type coreStateJSON struct {
	Time float64               `json:"time"`
	Vars map[string]typedValue `json:"vars"`
}

type snapshotJSON struct {
	Version int                      `json:"version"`
	Time    float64                  `json:"time"`
	Cores   map[string]coreStateJSON `json:"cores"`
}

// Save writes the snapshot atomically: a temp file in the target directory
// renamed over the destination.
func Save(path string, snap *Snapshot) error {
	doc := snapshotJSON{
		Version: Version,
		Time:    snap.Time,
		Cores:   make(map[string]coreStateJSON, len(snap.Cores)),
	}
	for name, core := range snap.Cores {
		state := coreStateJSON{
			Time: core.Time,
			Vars: make(map[string]typedValue, len(core.Vars)),
		}
		for varName, val := range core.Vars {
			enc, err := encodeValue(val)
			if err != nil {
				return fmt.Errorf("snapshot %s.%s: %w", name, varName, err)
			}
			state.Vars[varName] = enc
		}
		doc.Cores[name] = state
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".windsurf-restart-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a snapshot file, rejecting incompatible layouts.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("restart file: %w", err)
	}

	var doc snapshotJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("restart file %s: %w", path, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("restart file %s: snapshot version %d, this build reads version %d",
			path, doc.Version, Version)
	}

	snap := &Snapshot{
		Version: doc.Version,
		Time:    doc.Time,
		Cores:   make(map[string]CoreState, len(doc.Cores)),
	}
	for name, state := range doc.Cores {
		core := CoreState{
			Time: state.Time,
			Vars: make(map[string]cty.Value, len(state.Vars)),
		}
		for varName, enc := range state.Vars {
			val, err := decodeValue(enc)
			if err != nil {
				return nil, fmt.Errorf("restart file %s: %s.%s: %w", path, name, varName, err)
			}
			core.Vars[varName] = val
		}
		snap.Cores[name] = core
	}
	return snap, nil
}

func encodeValue(val cty.Value) (typedValue, error) {
	ty, err := ctyjson.MarshalType(val.Type())
	if err != nil {
		return typedValue{}, err
	}
	raw, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return typedValue{}, err
	}
	return typedValue{Type: ty, Value: raw}, nil
}

func decodeValue(enc typedValue) (cty.Value, error) {
	ty, err := ctyjson.UnmarshalType(enc.Type)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(enc.Value, ty)
}
