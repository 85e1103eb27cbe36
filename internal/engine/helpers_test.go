package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestNextCrossing(t *testing.T) {
	// Fresh run: the boundary at t itself counts.
	assert.Equal(t, 0.0, nextCrossing(0, 200, 0, false))
	assert.Equal(t, 200.0, nextCrossing(0, 200, 1, false))
	assert.Equal(t, 400.0, nextCrossing(0, 200, 400, false))

	// Resumed run: strictly after t.
	assert.Equal(t, 600.0, nextCrossing(0, 200, 400, true))
	assert.Equal(t, 600.0, nextCrossing(0, 200, 450, true))

	// Offset start.
	assert.Equal(t, 1300.0, nextCrossing(1000, 300, 1200, false))

	assert.True(t, math.IsInf(nextCrossing(0, 0, 10, false), 1))
}

func TestFloatsRoundtrip(t *testing.T) {
	val := cty.ListVal([]cty.Value{cty.NumberFloatVal(1.5), cty.NumberFloatVal(-2)})
	field, err := floatsFromValue(val)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2}, field)

	back := valueFromFloats(field)
	assert.True(t, val.RawEquals(back))

	assert.True(t, cty.ListValEmpty(cty.Number).RawEquals(valueFromFloats(nil)))

	_, err = floatsFromValue(cty.TupleVal([]cty.Value{cty.StringVal("x")}))
	assert.ErrorContains(t, err, "non-numeric element")
}
