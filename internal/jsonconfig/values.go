package jsonconfig

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// FromGo converts a decoded JSON value into its cty equivalent.
// Homogeneous numeric lists become cty lists; mixed lists become tuples.
func FromGo(v any) (cty.Value, error) {
	switch t := v.(type) {
	case bool:
		return cty.BoolVal(t), nil
	case string:
		return cty.StringVal(t), nil
	case float64:
		return cty.NumberFloatVal(t), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return cty.NumberFloatVal(f), nil
	case []any:
		if len(t) == 0 {
			return cty.ListValEmpty(cty.Number), nil
		}
		elems := make([]cty.Value, len(t))
		allNumbers := true
		for i, raw := range t {
			elem, err := FromGo(raw)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = elem
			if elem.Type() != cty.Number {
				allNumbers = false
			}
		}
		if allNumbers {
			return cty.ListVal(elems), nil
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(t))
		for key, raw := range t {
			val, err := FromGo(raw)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", key, err)
			}
			attrs[key] = val
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value type %T", v)
	}
}

// asFloat widens any decoded JSON numeric representation to float64.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
