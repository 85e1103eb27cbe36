package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/coastalsim/windsurf/internal/config"
	"github.com/coastalsim/windsurf/internal/ctxlog"
)

// Run advances the composite model from its current time to the configured
// stop time, walking the scenario's regimes in order. Cores are initialized
// on demand; finalization stays with the caller so a failed run can still
// be snapshotted.
func (e *Engine) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if !e.initialized {
		if err := e.Initialize(ctx); err != nil {
			return err
		}
	}

	stop := e.cfg.Time.Stop
	e.scheduleEmissions()

	// A fresh run records the initial state; a restored run already has it.
	if !e.restored {
		if err := e.emit(ctx); err != nil {
			return err
		}
	}

	logger.Info("🌊 Simulation started.", "start", e.time(), "stop", stop)

	entryStart := e.cfg.Time.Start
	for i, entry := range e.cfg.ScenarioOrDefault() {
		regimeEnd := math.Min(entryStart+entry.Duration, stop)
		entryStart += entry.Duration

		// Entirely in the past after a restart.
		if regimeEnd <= e.time() {
			continue
		}

		if err := e.applyRegime(ctx, entry.Regime); err != nil {
			return fmt.Errorf("scenario[%d]: %w", i, err)
		}
		if err := e.runUntil(ctx, regimeEnd); err != nil {
			return err
		}
		if e.time() >= stop {
			break
		}
	}

	// A scenario shorter than the time window keeps its last regime active
	// to the end.
	if err := e.runUntil(ctx, stop); err != nil {
		return err
	}

	logger.Info("🏁 Simulation reached stop time.", "t", e.time())
	return nil
}

// runUntil steps the most-lagged core repeatedly until every core clock
// reaches the bound.
func (e *Engine) runUntil(ctx context.Context, bound float64) error {
	for e.time() < bound {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run aborted at t=%g: %w", e.time(), err)
		}

		core := e.laggingCore()
		if err := e.step(ctx, core, bound); err != nil {
			return err
		}
		if err := e.exchangeFrom(ctx, core); err != nil {
			return err
		}
		if err := e.emit(ctx); err != nil {
			return err
		}

		e.updateProgress()
		if e.callback != nil {
			e.callback(e.Progress())
		}
	}
	return nil
}

// step advances one core, clamping its preferred step to the bound so a
// regime change never lands mid-step.
func (e *Engine) step(ctx context.Context, core *coreInstance, bound float64) error {
	logger := ctxlog.FromContext(ctx)

	dt := core.def.TimeStep
	if dt <= 0 {
		dt = core.model.TimeStep()
	}
	if remaining := bound - core.clock; dt <= 0 || dt > remaining {
		dt = remaining
	}

	began := time.Now()
	if err := core.model.Update(ctx, dt); err != nil {
		return fmt.Errorf("model %q failed at t=%g: %w", core.name, core.clock, err)
	}

	advanced := core.model.CurrentTime()
	if advanced <= core.clock {
		return fmt.Errorf("model %q clock did not advance past t=%g", core.name, core.clock)
	}
	core.clock = advanced
	core.steps++

	if e.metrics != nil {
		e.metrics.CoreSteps.WithLabelValues(core.name).Inc()
		e.metrics.StepDuration.Observe(time.Since(began).Seconds())
		e.metrics.SimTime.Set(e.time())
	}
	logger.Debug("Stepped core.", "model", core.name, "dt", dt, "t", advanced)
	return nil
}

// applyRegime pushes a regime's per-core parameter sets into the cores.
// The empty regime name (default scenario) applies nothing.
func (e *Engine) applyRegime(ctx context.Context, name string) error {
	logger := ctxlog.FromContext(ctx)
	e.regime = name
	e.updateProgress()
	if name == "" {
		return nil
	}

	regime, ok := e.cfg.Regimes[name]
	if !ok {
		return fmt.Errorf("unknown regime %q", name)
	}
	logger.Info("Applying regime.", "regime", name, "t", e.time())

	models := make([]string, 0, len(regime))
	for model := range regime {
		models = append(models, model)
	}
	sort.Strings(models)

	for _, model := range models {
		core, ok := e.cores[model]
		if !ok {
			return fmt.Errorf("regime %q configures unknown model %q", name, model)
		}
		params := regime[model]
		keys := make([]string, 0, len(params))
		for key := range params {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if err := core.model.SetVar(key, params[key]); err != nil {
				return fmt.Errorf("regime %q: failed to set %s.%s: %w", name, model, key, err)
			}
			logger.Debug("Regime parameter applied.", "regime", name, "model", model, "param", key)
		}
	}
	return nil
}

// scheduleEmissions aligns the output and restart interval clocks with the
// current time, so a restored run resumes its cadence instead of
// re-emitting past intervals.
func (e *Engine) scheduleEmissions() {
	start := e.cfg.Time.Start
	t := e.time()

	if e.cfg.Output != nil {
		e.nextOutput = nextCrossing(start, e.cfg.Output.Interval, t, e.restored)
	}
	if e.cfg.Restart != nil && e.cfg.Restart.Interval > 0 {
		e.nextRestart = nextCrossing(start, e.cfg.Restart.Interval, t, e.restored)
	}
}

// nextCrossing returns the first interval boundary at or after t; strictly
// after when resuming, so the boundary the snapshot was taken on is not
// repeated.
func nextCrossing(start, interval, t float64, strictly bool) float64 {
	if interval <= 0 {
		return math.Inf(1)
	}
	k := math.Ceil((t - start) / interval)
	next := start + k*interval
	if strictly && next <= t {
		next += interval
	}
	return next
}

// emit writes output records and restart snapshots for every interval
// boundary the composite clock has crossed.
func (e *Engine) emit(ctx context.Context) error {
	t := e.time()

	if e.recorder != nil && e.cfg.Output != nil && t >= e.nextOutput {
		if err := e.record(ctx, t); err != nil {
			return err
		}
		e.nextOutput = nextCrossing(e.cfg.Time.Start, e.cfg.Output.Interval, t, true)
	}

	if e.snapshot != nil && e.cfg.Restart != nil && e.cfg.Restart.Interval > 0 && t >= e.nextRestart {
		snap, err := e.CaptureState()
		if err != nil {
			return err
		}
		if err := e.snapshot(ctx, snap); err != nil {
			return fmt.Errorf("restart snapshot at t=%g: %w", t, err)
		}
		e.nextRestart = nextCrossing(e.cfg.Time.Start, e.cfg.Restart.Interval, t, true)
	}
	return nil
}

// record captures the configured output variables, or everything every
// core exposes when the list is empty.
func (e *Engine) record(ctx context.Context, t float64) error {
	refs := e.cfg.Output.Variables
	if len(refs) == 0 {
		for _, name := range e.order {
			for _, varName := range e.cores[name].model.VarNames() {
				refs = append(refs, config.VarRef{Model: name, Var: varName})
			}
		}
	}

	for _, ref := range refs {
		core, ok := e.cores[ref.Model]
		if !ok {
			return fmt.Errorf("output variable %s references unknown model", ref)
		}
		val, err := core.model.GetVar(ref.Var)
		if err != nil {
			return fmt.Errorf("output variable %s: %w", ref, err)
		}
		if err := e.recorder.Record(ctx, t, ref, val); err != nil {
			return err
		}
	}

	ctxlog.FromContext(ctx).Debug("Output recorded.", "t", t, "variables", len(refs))
	return nil
}
