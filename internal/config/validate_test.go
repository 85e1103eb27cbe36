package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func validModel() *Model {
	return &Model{
		Time: TimeSpan{Start: 0, Stop: 3600},
		Models: map[string]*ModelDefinition{
			"dune": {Name: "dune", Engine: "cdm", ConfigFile: "cdm.txt", TimeStep: 300},
			"wind": {Name: "wind", Engine: "constant", ConfigFile: "wind.json"},
		},
		Exchange: []*Exchange{
			{From: VarRef{"wind", "uw"}, To: VarRef{"dune", "uw"}},
		},
		Regimes: map[string]Regime{
			"calm":  {"wind": Params{"uw": cty.NumberFloatVal(4)}},
			"storm": {"wind": Params{"uw": cty.NumberFloatVal(20)}},
		},
		Scenario: []ScenarioEntry{
			{Regime: "calm", Duration: 1800},
			{Regime: "storm", Duration: 1800},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validModel().Validate())
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	m := validModel()
	m.Time.Stop = 0
	m.Exchange = append(m.Exchange, &Exchange{
		From: VarRef{"dune", "zb"},
		To:   VarRef{"dune", "zb"},
	})
	m.Scenario = append(m.Scenario, ScenarioEntry{Regime: "hurricane", Duration: -1})

	err := m.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "stop (0) must be after start (0)")
	assert.ErrorContains(t, err, "maps model \"dune\" onto itself")
	assert.ErrorContains(t, err, "unknown regime \"hurricane\"")
	assert.ErrorContains(t, err, "duration must be positive")
}

func TestValidate_Models(t *testing.T) {
	t.Run("empty set rejected", func(t *testing.T) {
		m := validModel()
		m.Models = nil
		assert.ErrorContains(t, m.Validate(), "at least one model")
	})

	t.Run("engine required", func(t *testing.T) {
		m := validModel()
		m.Models["dune"].Engine = ""
		assert.ErrorContains(t, m.Validate(), "models.dune: engine is required")
	})

	t.Run("negative timestep rejected", func(t *testing.T) {
		m := validModel()
		m.Models["dune"].TimeStep = -1
		assert.ErrorContains(t, m.Validate(), "timestep must not be negative")
	})
}

func TestValidate_ExchangeReferences(t *testing.T) {
	m := validModel()
	m.Exchange[0].To.Model = "nope"
	assert.ErrorContains(t, m.Validate(), "var_to references unknown model \"nope\"")
}

func TestValidate_RegimeReferences(t *testing.T) {
	m := validModel()
	m.Regimes["calm"]["ghost"] = Params{"x": cty.NumberIntVal(1)}
	assert.ErrorContains(t, m.Validate(), "regimes.calm: unknown model \"ghost\"")
}

func TestValidate_OutputAndRestart(t *testing.T) {
	m := validModel()
	m.Output = &OutputSpec{File: "", Interval: 0, Variables: []VarRef{{"nope", "zb"}}}
	m.Restart = &RestartSpec{File: "", Interval: -1}

	err := m.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "output: file is required")
	assert.ErrorContains(t, err, "output: interval must be positive")
	assert.ErrorContains(t, err, "output.variables[0]: unknown model \"nope\"")
	assert.ErrorContains(t, err, "restart: file is required")
	assert.ErrorContains(t, err, "restart: interval must not be negative")
}

func TestParseVarRef(t *testing.T) {
	ref, err := ParseVarRef("dune.zb")
	require.NoError(t, err)
	assert.Equal(t, VarRef{Model: "dune", Var: "zb"}, ref)
	assert.Equal(t, "dune.zb", ref.String())

	// Dotted field names stay with the variable part.
	ref, err = ParseVarRef("dune.veget.growthrate")
	require.NoError(t, err)
	assert.Equal(t, VarRef{Model: "dune", Var: "veget.growthrate"}, ref)

	for _, bad := range []string{"", "dune", "dune.", ".zb"} {
		_, err := ParseVarRef(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestScenarioOrDefault(t *testing.T) {
	m := validModel()
	assert.Equal(t, m.Scenario, m.ScenarioOrDefault())

	m.Scenario = nil
	def := m.ScenarioOrDefault()
	require.Len(t, def, 1)
	assert.Equal(t, "", def[0].Regime)
	assert.Equal(t, 3600.0, def[0].Duration)
}
