package jsonconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/coastalsim/windsurf/internal/config"
)

const fullConfig = `{
	"time": {"start": 0.0, "stop": 7200.0},
	"models": {
		"dune": {"engine": "cdm", "configfile": "cdm.txt", "timestep": 300.0},
		"wind": {"engine": "constant", "configfile": "wind.json"}
	},
	"exchange": [
		{"var_from": "wind.uw", "var_to": "dune.uw"}
	],
	"regimes": {
		"calm":  {"wind": {"uw": 4.0, "gusty": false}},
		"storm": {"wind": {"uw": 20.0, "direction": [270.0, 280.0]}}
	},
	"scenario": [
		{"regime": "calm", "duration": 3600.0},
		["storm", 3600.0]
	],
	"output": {
		"file": "out.db",
		"interval": 600.0,
		"variables": ["dune.zb"]
	},
	"restart": {"file": "restart.json", "interval": 3600.0}
}`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "windsurf.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_FullDocument(t *testing.T) {
	path := writeConfig(t, fullConfig)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, model.Validate())

	assert.Equal(t, 0.0, model.Time.Start)
	assert.Equal(t, 7200.0, model.Time.Stop)

	require.Contains(t, model.Models, "dune")
	assert.Equal(t, "cdm", model.Models["dune"].Engine)
	assert.Equal(t, "cdm.txt", model.Models["dune"].ConfigFile)
	assert.Equal(t, 300.0, model.Models["dune"].TimeStep)
	assert.Equal(t, 0.0, model.Models["wind"].TimeStep)

	require.Len(t, model.Exchange, 1)
	assert.Equal(t, config.VarRef{Model: "wind", Var: "uw"}, model.Exchange[0].From)
	assert.Equal(t, config.VarRef{Model: "dune", Var: "uw"}, model.Exchange[0].To)

	require.Contains(t, model.Regimes, "storm")
	storm := model.Regimes["storm"]["wind"]
	assert.Equal(t, cty.NumberFloatVal(20), storm["uw"])
	assert.Equal(t, cty.ListVal([]cty.Value{
		cty.NumberFloatVal(270), cty.NumberFloatVal(280),
	}), storm["direction"])
	assert.Equal(t, cty.BoolVal(false), model.Regimes["calm"]["wind"]["gusty"])

	// Both scenario entry forms land in the same shape.
	require.Len(t, model.Scenario, 2)
	assert.Equal(t, config.ScenarioEntry{Regime: "calm", Duration: 3600}, model.Scenario[0])
	assert.Equal(t, config.ScenarioEntry{Regime: "storm", Duration: 3600}, model.Scenario[1])

	require.NotNil(t, model.Output)
	assert.Equal(t, "out.db", model.Output.File)
	assert.Equal(t, 600.0, model.Output.Interval)
	assert.Equal(t, []config.VarRef{{Model: "dune", Var: "zb"}}, model.Output.Variables)

	require.NotNil(t, model.Restart)
	assert.Equal(t, "restart.json", model.Restart.File)
}

func TestLoad_MinimalDocument(t *testing.T) {
	path := writeConfig(t, `{
		"time": {"start": 0.0, "stop": 3600.0},
		"models": {
			"dune": {"engine": "cdm", "configfile": "cdm.txt"}
		}
	}`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, model.Validate())

	assert.Empty(t, model.Exchange)
	assert.Empty(t, model.Regimes)
	assert.Empty(t, model.Scenario)
	assert.Nil(t, model.Output)
	assert.Nil(t, model.Restart)
}

func TestLoad_MixedCaseReferences(t *testing.T) {
	// viper lowercases section keys; references must follow.
	path := writeConfig(t, `{
		"time": {"start": 0.0, "stop": 3600.0},
		"models": {
			"Dune": {"engine": "cdm", "configfile": "cdm.txt"},
			"Wind": {"engine": "constant", "configfile": "wind.json"}
		},
		"exchange": [{"var_from": "Wind.uw", "var_to": "Dune.uw"}],
		"regimes": {"Storm": {"Wind": {"uw": 20.0}}},
		"scenario": [{"regime": "Storm", "duration": 3600.0}]
	}`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, model.Validate())

	assert.Contains(t, model.Models, "dune")
	assert.Equal(t, "wind", model.Exchange[0].From.Model)
	assert.Equal(t, "storm", model.Scenario[0].Regime)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader().Load(ctx, filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorContains(t, err, "configuration file")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := writeConfig(t, `{"time": `)
		_, err := NewLoader().Load(ctx, path)
		assert.ErrorContains(t, err, "failed to parse")
	})

	t.Run("bad exchange reference", func(t *testing.T) {
		path := writeConfig(t, `{
			"time": {"start": 0, "stop": 1},
			"models": {"a": {"engine": "cdm", "configfile": "x"}},
			"exchange": [{"var_from": "nodot", "var_to": "a.x"}]
		}`)
		_, err := NewLoader().Load(ctx, path)
		assert.ErrorContains(t, err, "exchange[0].var_from")
	})

	t.Run("bad scenario pair", func(t *testing.T) {
		path := writeConfig(t, `{
			"time": {"start": 0, "stop": 1},
			"models": {"a": {"engine": "cdm", "configfile": "x"}},
			"scenario": [["calm"]]
		}`)
		_, err := NewLoader().Load(ctx, path)
		assert.ErrorContains(t, err, "pair form needs")
	})

	t.Run("non-numeric timestep", func(t *testing.T) {
		path := writeConfig(t, `{
			"time": {"start": 0, "stop": 1},
			"models": {"a": {"engine": "cdm", "configfile": "x", "timestep": "fast"}}
		}`)
		_, err := NewLoader().Load(ctx, path)
		assert.ErrorContains(t, err, "models.a.timestep: expected a number")
	})
}

func TestFromGo(t *testing.T) {
	val, err := FromGo(map[string]any{"a": 1.5, "b": []any{"x", 2.0}})
	require.NoError(t, err)
	assert.Equal(t, cty.ObjectVal(map[string]cty.Value{
		"a": cty.NumberFloatVal(1.5),
		"b": cty.TupleVal([]cty.Value{cty.StringVal("x"), cty.NumberFloatVal(2)}),
	}), val)

	val, err = FromGo([]any{})
	require.NoError(t, err)
	assert.Equal(t, cty.ListValEmpty(cty.Number), val)

	_, err = FromGo(struct{}{})
	assert.ErrorContains(t, err, "unsupported value type")
}
