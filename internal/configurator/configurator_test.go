package configurator_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/coastalsim/windsurf/internal/config"
	"github.com/coastalsim/windsurf/internal/configurator"
	"github.com/coastalsim/windsurf/internal/jsonconfig"
)

var engines = []string{"cdm", "constant"}

func runWizard(t *testing.T, script string) (string, string) {
	t.Helper()
	var prompts bytes.Buffer
	doc, err := configurator.New(strings.NewReader(script), &prompts, engines).Run()
	require.NoError(t, err)
	return doc, prompts.String()
}

func TestRun_FullSession(t *testing.T) {
	// Answers in question order: model cores, start, stop, the exchanges
	// for both orderings of the pair, regimes, then the storm regime's
	// cores and parameters.
	doc, _ := runWizard(t, `cdm
constant

0
3600
uw = uw


storm

constant

uw = 20

`)

	// The emitted document must load through the regular config path.
	path := filepath.Join(t.TempDir(), "windsurf.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	model, err := jsonconfig.NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, model.Validate())

	assert.Equal(t, 0.0, model.Time.Start)
	assert.Equal(t, 3600.0, model.Time.Stop)
	assert.Len(t, model.Models, 2)
	assert.Equal(t, "cdm", model.Models["cdm"].Engine)
	assert.Equal(t, "cdm.txt", model.Models["cdm"].ConfigFile)

	require.Len(t, model.Exchange, 1)
	assert.Equal(t, config.VarRef{Model: "cdm", Var: "uw"}, model.Exchange[0].From)
	assert.Equal(t, config.VarRef{Model: "constant", Var: "uw"}, model.Exchange[0].To)

	require.Contains(t, model.Regimes, "storm")
	uw := model.Regimes["storm"]["constant"]["uw"]
	assert.True(t, cty.NumberFloatVal(20).RawEquals(uw))
}

func TestRun_DefaultsOnEmptyInput(t *testing.T) {
	doc, prompts := runWizard(t, "")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

	models := parsed["models"].(map[string]any)
	assert.Len(t, models, 2)

	regimes := parsed["regimes"].(map[string]any)
	assert.Contains(t, regimes, "calm")
	assert.Contains(t, regimes, "storm")

	timeSection := parsed["time"].(map[string]any)
	assert.Equal(t, 3600.0, timeSection["stop"])

	assert.Empty(t, parsed["exchange"])
	assert.Contains(t, prompts, "Default: calm, storm")
}

func TestRun_SkipsUnsupportedCore(t *testing.T) {
	doc, prompts := runWizard(t, "xbeach\ncdm\n")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))

	models := parsed["models"].(map[string]any)
	assert.Len(t, models, 1)
	assert.Contains(t, models, "cdm")
	assert.Contains(t, prompts, `Skipping unsupported model core "xbeach"`)
}

func TestRun_Errors(t *testing.T) {
	t.Run("malformed exchange pair", func(t *testing.T) {
		_, err := configurator.New(strings.NewReader(`cdm
constant

0
3600
uwuw
`), &bytes.Buffer{}, engines).Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid answer "uwuw"`)
	})

	t.Run("non-numeric time", func(t *testing.T) {
		_, err := configurator.New(strings.NewReader("cdm\n\nsoon\n"), &bytes.Buffer{}, engines).Run()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `expected a number, got "soon"`)
	})
}
