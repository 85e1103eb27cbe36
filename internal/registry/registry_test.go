package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastalsim/windsurf/internal/config"
	"github.com/coastalsim/windsurf/internal/registry"
	"github.com/coastalsim/windsurf/internal/testutil"
)

func TestRegisterEngine_DuplicatePanics(t *testing.T) {
	r := registry.New()
	core := &testutil.FakeCore{}
	core.Register(r, "cdm")

	assert.Panics(t, func() { core.Register(r, "cdm") })
}

func TestNewModel(t *testing.T) {
	r := registry.New()
	core := &testutil.FakeCore{}
	core.Register(r, "cdm")

	m, err := r.NewModel("cdm")
	require.NoError(t, err)
	assert.Same(t, core, m.(*testutil.FakeCore))

	_, err = r.NewModel("xbeach")
	assert.ErrorContains(t, err, "engine 'xbeach' is not registered")
}

func TestEngines_Sorted(t *testing.T) {
	r := registry.New()
	(&testutil.FakeCore{}).Register(r, "cdm")
	(&testutil.FakeCore{}).Register(r, "aeolis")

	assert.Equal(t, []string{"aeolis", "cdm"}, r.Engines())
}

func TestValidate(t *testing.T) {
	r := registry.New()
	(&testutil.FakeCore{}).Register(r, "cdm")

	model := &config.Model{
		Models: map[string]*config.ModelDefinition{
			"dune":  {Name: "dune", Engine: "cdm"},
			"waves": {Name: "waves", Engine: "xbeach"},
		},
	}

	err := r.Validate(context.Background(), model)
	require.Error(t, err)
	assert.ErrorContains(t, err, "models.waves: engine 'xbeach' is not compiled into this binary")

	model.Models["waves"].Engine = "cdm"
	assert.NoError(t, r.Validate(context.Background(), model))
}
