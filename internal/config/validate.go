package config

import (
	"fmt"
	"strings"
)

// Validate checks the internal consistency of the model and reports every
// violation it finds, not just the first.
func (m *Model) Validate() error {
	var errs []string

	if m.Time.Stop <= m.Time.Start {
		errs = append(errs, fmt.Sprintf("time: stop (%g) must be after start (%g)", m.Time.Stop, m.Time.Start))
	}

	if len(m.Models) == 0 {
		errs = append(errs, "models: at least one model is required")
	}
	for name, def := range m.Models {
		if def.Engine == "" {
			errs = append(errs, fmt.Sprintf("models.%s: engine is required", name))
		}
		if def.TimeStep < 0 {
			errs = append(errs, fmt.Sprintf("models.%s: timestep must not be negative", name))
		}
	}

	for i, ex := range m.Exchange {
		if _, ok := m.Models[ex.From.Model]; !ok {
			errs = append(errs, fmt.Sprintf("exchange[%d]: var_from references unknown model %q", i, ex.From.Model))
		}
		if _, ok := m.Models[ex.To.Model]; !ok {
			errs = append(errs, fmt.Sprintf("exchange[%d]: var_to references unknown model %q", i, ex.To.Model))
		}
		if ex.From.Model == ex.To.Model {
			errs = append(errs, fmt.Sprintf("exchange[%d]: %s maps model %q onto itself", i, ex.From, ex.From.Model))
		}
	}

	for name, regime := range m.Regimes {
		for model := range regime {
			if _, ok := m.Models[model]; !ok {
				errs = append(errs, fmt.Sprintf("regimes.%s: unknown model %q", name, model))
			}
		}
	}

	for i, entry := range m.Scenario {
		if _, ok := m.Regimes[entry.Regime]; !ok {
			errs = append(errs, fmt.Sprintf("scenario[%d]: unknown regime %q", i, entry.Regime))
		}
		if entry.Duration <= 0 {
			errs = append(errs, fmt.Sprintf("scenario[%d]: duration must be positive, got %g", i, entry.Duration))
		}
	}

	if m.Output != nil {
		if m.Output.File == "" {
			errs = append(errs, "output: file is required")
		}
		if m.Output.Interval <= 0 {
			errs = append(errs, fmt.Sprintf("output: interval must be positive, got %g", m.Output.Interval))
		}
		for i, ref := range m.Output.Variables {
			if _, ok := m.Models[ref.Model]; !ok {
				errs = append(errs, fmt.Sprintf("output.variables[%d]: unknown model %q", i, ref.Model))
			}
		}
	}

	if m.Restart != nil {
		if m.Restart.File == "" {
			errs = append(errs, "restart: file is required")
		}
		if m.Restart.Interval < 0 {
			errs = append(errs, fmt.Sprintf("restart: interval must not be negative, got %g", m.Restart.Interval))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ScenarioOrDefault returns the configured scenario, or a single unnamed
// entry spanning the whole time window when no scenario is given.
func (m *Model) ScenarioOrDefault() []ScenarioEntry {
	if len(m.Scenario) > 0 {
		return m.Scenario
	}
	return []ScenarioEntry{{Regime: "", Duration: m.Time.Stop - m.Time.Start}}
}
