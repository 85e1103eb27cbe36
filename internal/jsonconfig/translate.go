package jsonconfig

import (
	"fmt"
	"strings"

	"github.com/coastalsim/windsurf/internal/config"
)

// translateModels converts the raw `models` section into model definitions.
func translateModels(raw any) (map[string]*config.ModelDefinition, error) {
	if raw == nil {
		return map[string]*config.ModelDefinition{}, nil
	}
	section, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("models: expected an object, got %T", raw)
	}

	out := make(map[string]*config.ModelDefinition, len(section))
	for name, entry := range section {
		props, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("models.%s: expected an object, got %T", name, entry)
		}
		def := &config.ModelDefinition{Name: name}
		var err error
		if def.Engine, err = stringField(props, "engine", "models."+name); err != nil {
			return nil, err
		}
		if def.ConfigFile, err = stringField(props, "configfile", "models."+name); err != nil {
			return nil, err
		}
		if def.TimeStep, err = floatField(props, "timestep", "models."+name); err != nil {
			return nil, err
		}
		out[name] = def
	}
	return out, nil
}

// translateExchange converts the raw `exchange` list of var_from/var_to pairs.
func translateExchange(raw any) ([]*config.Exchange, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("exchange: expected a list, got %T", raw)
	}

	out := make([]*config.Exchange, 0, len(entries))
	for i, entry := range entries {
		props, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("exchange[%d]: expected an object, got %T", i, entry)
		}
		fromStr, err := stringField(props, "var_from", fmt.Sprintf("exchange[%d]", i))
		if err != nil {
			return nil, err
		}
		toStr, err := stringField(props, "var_to", fmt.Sprintf("exchange[%d]", i))
		if err != nil {
			return nil, err
		}
		from, err := parseRef(fromStr, fmt.Sprintf("exchange[%d].var_from", i))
		if err != nil {
			return nil, err
		}
		to, err := parseRef(toStr, fmt.Sprintf("exchange[%d].var_to", i))
		if err != nil {
			return nil, err
		}
		out = append(out, &config.Exchange{From: from, To: to})
	}
	return out, nil
}

// translateRegimes converts the raw `regimes` section of per-model
// parameter sets.
func translateRegimes(raw any) (map[string]config.Regime, error) {
	if raw == nil {
		return map[string]config.Regime{}, nil
	}
	section, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("regimes: expected an object, got %T", raw)
	}

	out := make(map[string]config.Regime, len(section))
	for name, entry := range section {
		models, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("regimes.%s: expected an object, got %T", name, entry)
		}
		regime := make(config.Regime, len(models))
		for model, rawParams := range models {
			paramMap, ok := rawParams.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("regimes.%s.%s: expected an object, got %T", name, model, rawParams)
			}
			params := make(config.Params, len(paramMap))
			for key, val := range paramMap {
				ctyVal, err := FromGo(val)
				if err != nil {
					return nil, fmt.Errorf("regimes.%s.%s.%s: %w", name, model, key, err)
				}
				params[key] = ctyVal
			}
			regime[model] = params
		}
		out[name] = regime
	}
	return out, nil
}

// translateScenario converts the raw `scenario` list. Both the object form
// {"regime": ..., "duration": ...} and the legacy pair form [name, seconds]
// are accepted.
func translateScenario(raw any) ([]config.ScenarioEntry, error) {
	if raw == nil {
		return nil, nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("scenario: expected a list, got %T", raw)
	}

	out := make([]config.ScenarioEntry, 0, len(entries))
	for i, entry := range entries {
		switch e := entry.(type) {
		case map[string]any:
			regime, err := stringField(e, "regime", fmt.Sprintf("scenario[%d]", i))
			if err != nil {
				return nil, err
			}
			duration, err := floatField(e, "duration", fmt.Sprintf("scenario[%d]", i))
			if err != nil {
				return nil, err
			}
			out = append(out, config.ScenarioEntry{Regime: strings.ToLower(regime), Duration: duration})
		case []any:
			if len(e) != 2 {
				return nil, fmt.Errorf("scenario[%d]: pair form needs [regime, duration], got %d elements", i, len(e))
			}
			regime, ok := e[0].(string)
			if !ok {
				return nil, fmt.Errorf("scenario[%d]: regime must be a string, got %T", i, e[0])
			}
			duration, ok := asFloat(e[1])
			if !ok {
				return nil, fmt.Errorf("scenario[%d]: duration must be a number, got %T", i, e[1])
			}
			out = append(out, config.ScenarioEntry{Regime: strings.ToLower(regime), Duration: duration})
		default:
			return nil, fmt.Errorf("scenario[%d]: expected an object or [regime, duration] pair, got %T", i, entry)
		}
	}
	return out, nil
}

// translateOutput converts the optional `output` section.
func translateOutput(raw any) (*config.OutputSpec, error) {
	if raw == nil {
		return nil, nil
	}
	props, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("output: expected an object, got %T", raw)
	}

	spec := &config.OutputSpec{}
	var err error
	if spec.File, err = stringField(props, "file", "output"); err != nil {
		return nil, err
	}
	if spec.Interval, err = floatField(props, "interval", "output"); err != nil {
		return nil, err
	}
	if rawVars, ok := props["variables"]; ok {
		list, ok := rawVars.([]any)
		if !ok {
			return nil, fmt.Errorf("output.variables: expected a list, got %T", rawVars)
		}
		for i, rawRef := range list {
			s, ok := rawRef.(string)
			if !ok {
				return nil, fmt.Errorf("output.variables[%d]: expected a string, got %T", i, rawRef)
			}
			ref, err := parseRef(s, fmt.Sprintf("output.variables[%d]", i))
			if err != nil {
				return nil, err
			}
			spec.Variables = append(spec.Variables, ref)
		}
	}
	return spec, nil
}

// translateRestart converts the optional `restart` section.
func translateRestart(raw any) (*config.RestartSpec, error) {
	if raw == nil {
		return nil, nil
	}
	props, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("restart: expected an object, got %T", raw)
	}

	spec := &config.RestartSpec{}
	var err error
	if spec.File, err = stringField(props, "file", "restart"); err != nil {
		return nil, err
	}
	if spec.Interval, err = floatField(props, "interval", "restart"); err != nil {
		return nil, err
	}
	return spec, nil
}

// parseRef parses a "model.var" reference, lowercasing the model part to
// match viper's lowercased section keys.
func parseRef(s, where string) (config.VarRef, error) {
	ref, err := config.ParseVarRef(s)
	if err != nil {
		return config.VarRef{}, fmt.Errorf("%s: %w", where, err)
	}
	ref.Model = strings.ToLower(ref.Model)
	return ref, nil
}

// stringField reads an optional string property; absent means "".
func stringField(props map[string]any, key, where string) (string, error) {
	raw, ok := props[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s.%s: expected a string, got %T", where, key, raw)
	}
	return s, nil
}

// floatField reads an optional numeric property; absent means 0.
func floatField(props map[string]any, key, where string) (float64, error) {
	raw, ok := props[key]
	if !ok || raw == nil {
		return 0, nil
	}
	f, ok := asFloat(raw)
	if !ok {
		return 0, fmt.Errorf("%s.%s: expected a number, got %T", where, key, raw)
	}
	return f, nil
}
