package config

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Model is the unified representation of one simulation run: the time
// window, the coupled cores, the state exchanged between them, and the
// scenario of forcing regimes to push them through.
type Model struct {
	Time     TimeSpan
	Models   map[string]*ModelDefinition
	Exchange []*Exchange
	Regimes  map[string]Regime
	Scenario []ScenarioEntry
	Output   *OutputSpec
	Restart  *RestartSpec
}

// TimeSpan is the simulated time window in seconds.
type TimeSpan struct {
	Start float64
	Stop  float64
}

// ModelDefinition configures one coupled core instance.
type ModelDefinition struct {
	// Name is the instance name used in exchange and regime references.
	Name string
	// Engine selects the registered core implementation.
	Engine string
	// ConfigFile is the core's own configuration file, passed through
	// untouched at Initialize.
	ConfigFile string
	// TimeStep caps the core's step in seconds; 0 lets the core choose.
	TimeStep float64
}

// VarRef names one variable of one configured core, written "model.var".
type VarRef struct {
	Model string
	Var   string
}

// String renders the reference back to its "model.var" form.
func (r VarRef) String() string {
	return r.Model + "." + r.Var
}

// ParseVarRef splits a "model.var" reference. The variable part keeps any
// further dots, matching the dotted field names of legacy cores.
func ParseVarRef(s string) (VarRef, error) {
	model, v, found := strings.Cut(s, ".")
	if !found || model == "" || v == "" {
		return VarRef{}, fmt.Errorf("invalid variable reference %q, expected \"model.var\"", s)
	}
	return VarRef{Model: model, Var: v}, nil
}

// Exchange maps one source variable onto one destination variable. The
// engine runs the mapping after every step of the source core.
type Exchange struct {
	From VarRef
	To   VarRef
}

// Regime is a named forcing condition: per-core parameter sets applied
// when the regime becomes active.
type Regime map[string]Params

// Params is a set of typed parameter values for a single core.
type Params map[string]cty.Value

// ScenarioEntry holds one regime for a fixed duration in seconds.
type ScenarioEntry struct {
	Regime   string
	Duration float64
}

// OutputSpec configures the snapshot store. An empty Variables list means
// every variable of every core.
type OutputSpec struct {
	File      string
	Interval  float64
	Variables []VarRef
}

// RestartSpec configures periodic restart snapshots. A final snapshot is
// always written on success when File is set.
type RestartSpec struct {
	File     string
	Interval float64
}
