package app

import (
	"context"
	"fmt"

	"github.com/coastalsim/windsurf/internal/ctxlog"
	"github.com/coastalsim/windsurf/internal/engine"
	"github.com/coastalsim/windsurf/internal/metrics"
	"github.com/coastalsim/windsurf/internal/output"
	"github.com/coastalsim/windsurf/internal/restart"
)

// Run executes the configured simulation from start (or restart snapshot)
// to the stop time.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	met := metrics.New()
	opts := []engine.Option{engine.WithMetrics(met)}

	var store *output.Store
	if a.model.Output != nil && a.model.Output.File != "" {
		store = output.NewStore(a.model.Output.File)
		opts = append(opts, engine.WithRecorder(store))
	}

	if a.model.Restart != nil && a.model.Restart.File != "" {
		file := a.model.Restart.File
		opts = append(opts, engine.WithSnapshotWriter(func(ctx context.Context, snap *restart.Snapshot) error {
			return restart.Save(file, snap)
		}))
	}

	eng, err := engine.New(a.model, a.registry, opts...)
	if err != nil {
		return fmt.Errorf("failed to assemble engine: %w", err)
	}
	a.logger.Debug("Engine assembled.")

	if store != nil {
		if err := store.Open(ctx, a.cfg.ConfigPath); err != nil {
			return fmt.Errorf("failed to open output store: %w", err)
		}
		a.logger.Debug("Output store opened.", "file", a.model.Output.File, "run_id", store.RunID())
	}

	// Everything below must fall through to the store close so the run row
	// gets its final status.
	fail := func(err error) error {
		if store != nil {
			if closeErr := store.Close(output.StatusFailed); closeErr != nil {
				a.logger.Warn("Closing output store failed.", "error", closeErr)
			}
		}
		return err
	}

	if a.cfg.StatusPort > 0 {
		stop := a.serveStatus(a.cfg.StatusPort, eng, met)
		defer stop()
	}

	if a.cfg.RestartPath != "" {
		snap, err := restart.Load(a.cfg.RestartPath)
		if err != nil {
			return fail(fmt.Errorf("failed to load restart snapshot: %w", err))
		}
		if err := eng.Initialize(ctx); err != nil {
			return fail(err)
		}
		if err := eng.RestoreState(ctx, snap); err != nil {
			return fail(fmt.Errorf("failed to restore state: %w", err))
		}
		a.logger.Info("Resumed from restart snapshot.", "path", a.cfg.RestartPath, "t", snap.Time)
	}

	runErr := eng.Run(ctx)

	// A failed run still leaves a snapshot behind so it can be resumed
	// once the cause is fixed.
	if a.model.Restart != nil && a.model.Restart.File != "" {
		if snap, err := eng.CaptureState(); err != nil {
			a.logger.Warn("Could not capture final restart snapshot.", "error", err)
		} else if err := restart.Save(a.model.Restart.File, snap); err != nil {
			a.logger.Warn("Could not save final restart snapshot.", "error", err)
		} else {
			a.logger.Debug("Final restart snapshot saved.", "file", a.model.Restart.File, "t", snap.Time)
		}
	}

	if err := eng.Finalize(ctx); err != nil {
		a.logger.Warn("Finalizing cores reported errors.", "error", err)
	}

	if store != nil {
		status := output.StatusCompleted
		if runErr != nil {
			status = output.StatusFailed
		}
		if err := store.Close(status); err != nil {
			a.logger.Warn("Closing output store failed.", "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("simulation failed: %w", runErr)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
