// Package jsonconfig implements config.Loader for the JSON configuration
// file format: a single document with time, models, exchange, regimes,
// scenario and the optional output/restart sections.
//
// Section keys are matched case-insensitively (viper lowercases them), so
// model and regime names referenced from other sections are lowercased
// during translation to keep references consistent.
package jsonconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/coastalsim/windsurf/internal/config"
	"github.com/coastalsim/windsurf/internal/ctxlog"
)

// Loader reads JSON configuration files into the format-agnostic model.
type Loader struct{}

// NewLoader creates a JSON configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading configuration file.", "path", path)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("configuration file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	model := &config.Model{
		Time: config.TimeSpan{
			Start: v.GetFloat64("time.start"),
			Stop:  v.GetFloat64("time.stop"),
		},
	}

	var err error
	if model.Models, err = translateModels(v.Get("models")); err != nil {
		return nil, err
	}
	if model.Exchange, err = translateExchange(v.Get("exchange")); err != nil {
		return nil, err
	}
	if model.Regimes, err = translateRegimes(v.Get("regimes")); err != nil {
		return nil, err
	}
	if model.Scenario, err = translateScenario(v.Get("scenario")); err != nil {
		return nil, err
	}
	if model.Output, err = translateOutput(v.Get("output")); err != nil {
		return nil, err
	}
	if model.Restart, err = translateRestart(v.Get("restart")); err != nil {
		return nil, err
	}

	logger.Debug("Configuration translated into unified model.",
		"models", len(model.Models),
		"exchanges", len(model.Exchange),
		"regimes", len(model.Regimes),
		"scenario_entries", len(model.Scenario),
	)
	return model, nil
}
