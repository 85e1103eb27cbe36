package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/coastalsim/windsurf/internal/config"
	"github.com/coastalsim/windsurf/internal/ctxlog"
	"github.com/coastalsim/windsurf/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	cfg      *Config
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Startup errors are configuration or wiring mistakes, so it panics; the
// entrypoint recovers and turns the panic into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, cores ...registry.Core) *App {
	logger := newLogger(appConfig.Verbosity, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load the configuration into the format-agnostic model first.
	model, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	if err := model.Validate(); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}
	logger.Debug("Configuration model validated.")

	// Create and populate the registry with the compiled-in cores.
	reg := registry.New()
	if len(cores) == 0 {
		cores = coreCores
	}
	for _, core := range cores {
		core.Register(reg)
	}
	logger.Debug("All model cores registered.", "count", len(cores))

	// Every engine the config names must be compiled into this binary.
	if err := reg.Validate(ctx, model); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		cfg:      appConfig,
		logger:   logger,
		registry: reg,
		model:    model,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
