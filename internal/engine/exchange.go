package engine

import (
	"context"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/coastalsim/windsurf/internal/bmi"
	"github.com/coastalsim/windsurf/internal/config"
	"github.com/coastalsim/windsurf/internal/ctxlog"
	"github.com/coastalsim/windsurf/internal/regrid"
)

// exchangeFrom pushes every exchange whose source is the given core, so
// consumers always see the source's freshest state.
func (e *Engine) exchangeFrom(ctx context.Context, src *coreInstance) error {
	logger := ctxlog.FromContext(ctx)

	for _, ex := range e.bySource[src.name] {
		val, err := src.model.GetVar(ex.From.Var)
		if err != nil {
			return fmt.Errorf("exchange %s -> %s: %w", ex.From, ex.To, err)
		}

		dst := e.cores[ex.To.Model]
		out, err := e.convey(ex, src, dst, val)
		if err != nil {
			return fmt.Errorf("exchange %s -> %s: %w", ex.From, ex.To, err)
		}

		if err := dst.model.SetVar(ex.To.Var, out); err != nil {
			return fmt.Errorf("exchange %s -> %s: %w", ex.From, ex.To, err)
		}

		e.exchanges++
		if e.metrics != nil {
			e.metrics.Exchanges.Inc()
		}
		logger.Debug("Exchanged variable.", "from", ex.From.String(), "to", ex.To.String())
	}
	return nil
}

// convey adapts a value to the destination core. Scalars pass through;
// gridded fields are regridded when both cores expose grids and the grids
// differ.
func (e *Engine) convey(ex *config.Exchange, src, dst *coreInstance, val cty.Value) (cty.Value, error) {
	if !val.Type().IsListType() && !val.Type().IsTupleType() {
		return val, nil
	}

	srcGrid, ok := varGrid(src.model, ex.From.Var)
	if !ok {
		return val, nil
	}
	dstGrid, ok := varGrid(dst.model, ex.To.Var)
	if !ok || srcGrid.Equal(dstGrid) {
		return val, nil
	}

	mapping, err := e.mapping(ex, dstGrid, srcGrid)
	if err != nil {
		return cty.NilVal, err
	}

	field, err := floatsFromValue(val)
	if err != nil {
		return cty.NilVal, err
	}
	mapped, err := mapping.Apply(field)
	if err != nil {
		return cty.NilVal, err
	}
	return valueFromFloats(mapped), nil
}

// mapping returns the cached regrid mapping for an exchange, building it
// on first use.
func (e *Engine) mapping(ex *config.Exchange, dst, src regrid.Grid) (*regrid.Mapping, error) {
	key := ex.From.String() + " -> " + ex.To.String()
	if m, ok := e.mappings[key]; ok {
		return m, nil
	}
	m, err := regrid.NewMapping(dst, src)
	if err != nil {
		return nil, fmt.Errorf("building regrid mapping: %w", err)
	}
	e.mappings[key] = m
	return m, nil
}

// varGrid asks a core for a variable's grid, when it is a gridded core.
func varGrid(model bmi.Model, name string) (regrid.Grid, bool) {
	gridded, ok := model.(bmi.Gridded)
	if !ok {
		return regrid.Grid{}, false
	}
	return gridded.VarGrid(name)
}

// floatsFromValue flattens a cty list or tuple of numbers.
func floatsFromValue(val cty.Value) ([]float64, error) {
	out := make([]float64, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.Type() != cty.Number {
			return nil, fmt.Errorf("gridded field contains non-numeric element %s", elem.Type().FriendlyName())
		}
		f, _ := elem.AsBigFloat().Float64()
		out = append(out, f)
	}
	return out, nil
}

// valueFromFloats builds a cty number list from a flat field.
func valueFromFloats(field []float64) cty.Value {
	if len(field) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	elems := make([]cty.Value, len(field))
	for i, f := range field {
		elems[i] = cty.NumberFloatVal(f)
	}
	return cty.ListVal(elems)
}
