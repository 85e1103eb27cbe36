package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/coastalsim/windsurf/internal/bmi"
	"github.com/coastalsim/windsurf/internal/config"
	"github.com/coastalsim/windsurf/internal/ctxlog"
	"github.com/coastalsim/windsurf/internal/metrics"
	"github.com/coastalsim/windsurf/internal/registry"
	"github.com/coastalsim/windsurf/internal/regrid"
	"github.com/coastalsim/windsurf/internal/restart"
)

// Recorder receives variable values at every output interval crossing.
// The SQLite snapshot store implements it.
type Recorder interface {
	Record(ctx context.Context, simTime float64, ref config.VarRef, val cty.Value) error
}

// SnapshotWriter persists restart snapshots.
type SnapshotWriter func(ctx context.Context, snap *restart.Snapshot) error

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithRecorder attaches the output snapshot sink.
func WithRecorder(rec Recorder) Option {
	return func(e *Engine) { e.recorder = rec }
}

// WithSnapshotWriter attaches the restart snapshot sink.
func WithSnapshotWriter(w SnapshotWriter) Option {
	return func(e *Engine) { e.snapshot = w }
}

// WithMetrics attaches the Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCallback registers a hook invoked after every core step, with a
// consistent progress view. Meant for embedding the engine as a library.
func WithCallback(fn func(Progress)) Option {
	return func(e *Engine) { e.callback = fn }
}

// coreInstance pairs a core with its coupling clock.
type coreInstance struct {
	name  string
	def   *config.ModelDefinition
	model bmi.Model
	clock float64
	steps uint64
}

// Engine couples the configured model cores through simulated time.
type Engine struct {
	cfg      *config.Model
	cores    map[string]*coreInstance
	order    []string
	bySource map[string][]*config.Exchange
	mappings map[string]*regrid.Mapping

	recorder Recorder
	snapshot SnapshotWriter
	metrics  *metrics.Metrics
	callback func(Progress)

	initialized bool
	restored    bool
	regime      string
	exchanges   uint64
	nextOutput  float64
	nextRestart float64

	mu   sync.Mutex
	prog Progress
}

// New instantiates one core per configured model and wires the exchange
// routing. The configuration must already be validated.
func New(cfg *config.Model, reg *registry.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:      cfg,
		cores:    make(map[string]*coreInstance, len(cfg.Models)),
		bySource: make(map[string][]*config.Exchange),
		mappings: make(map[string]*regrid.Mapping),
	}

	for name, def := range cfg.Models {
		model, err := reg.NewModel(def.Engine)
		if err != nil {
			return nil, fmt.Errorf("models.%s: %w", name, err)
		}
		e.cores[name] = &coreInstance{name: name, def: def, model: model}
		e.order = append(e.order, name)
	}
	sort.Strings(e.order)

	for _, ex := range cfg.Exchange {
		e.bySource[ex.From.Model] = append(e.bySource[ex.From.Model], ex)
	}

	for _, opt := range opts {
		opt(e)
	}
	e.updateProgress()
	return e, nil
}

// Initialize loads every core with its own configuration file and aligns
// all clocks at the start of the time window.
func (e *Engine) Initialize(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for _, name := range e.order {
		core := e.cores[name]
		logger.Info("Loading model core.", "model", name, "engine", core.def.Engine, "configfile", core.def.ConfigFile)
		if err := core.model.Initialize(ctx, core.def.ConfigFile); err != nil {
			return fmt.Errorf("failed to initialize model %q: %w", name, err)
		}
		// Cores start their own clocks wherever they like; move them to
		// the window start so CurrentTime and the coupling clock agree.
		core.model.SetTime(e.cfg.Time.Start)
		core.clock = e.cfg.Time.Start
	}

	e.initialized = true
	e.updateProgress()
	return nil
}

// Finalize shuts every core down, keeping going past individual failures.
func (e *Engine) Finalize(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []error
	for _, name := range e.order {
		if err := e.cores[name].model.Finalize(ctx); err != nil {
			logger.Error("Core finalization failed.", "model", name, "error", err)
			errs = append(errs, fmt.Errorf("model %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// time returns the composite simulation time: the slowest core clock.
func (e *Engine) time() float64 {
	t := 0.0
	for i, name := range e.order {
		clock := e.cores[name].clock
		if i == 0 || clock < t {
			t = clock
		}
	}
	return t
}

// laggingCore picks the core to step next: smallest clock, name order as
// tiebreak so runs are reproducible.
func (e *Engine) laggingCore() *coreInstance {
	var pick *coreInstance
	for _, name := range e.order {
		core := e.cores[name]
		if pick == nil || core.clock < pick.clock {
			pick = core
		}
	}
	return pick
}

// CaptureState collects a restorable snapshot of every core.
func (e *Engine) CaptureState() (*restart.Snapshot, error) {
	snap := &restart.Snapshot{
		Version: restart.Version,
		Time:    e.time(),
		Cores:   make(map[string]restart.CoreState, len(e.cores)),
	}
	for _, name := range e.order {
		core := e.cores[name]
		state := restart.CoreState{
			Time: core.clock,
			Vars: make(map[string]cty.Value),
		}
		for _, varName := range core.model.VarNames() {
			val, err := core.model.GetVar(varName)
			if err != nil {
				return nil, fmt.Errorf("snapshot of %s.%s: %w", name, varName, err)
			}
			state.Vars[varName] = val
		}
		snap.Cores[name] = state
	}
	return snap, nil
}

// RestoreState pushes a restart snapshot into the initialized cores.
// Snapshot variables a core no longer exposes are skipped with a warning;
// snapshot cores missing from the configuration are an error.
func (e *Engine) RestoreState(ctx context.Context, snap *restart.Snapshot) error {
	logger := ctxlog.FromContext(ctx)
	if !e.initialized {
		return fmt.Errorf("cannot restore state before initialization")
	}

	for name, state := range snap.Cores {
		core, ok := e.cores[name]
		if !ok {
			return fmt.Errorf("restart snapshot has state for model %q, which is not configured", name)
		}
		core.model.SetTime(state.Time)
		core.clock = state.Time
		for varName, val := range state.Vars {
			if err := core.model.SetVar(varName, val); err != nil {
				if errors.Is(err, bmi.ErrUnknownVar) {
					logger.Warn("Skipping snapshot variable the core no longer exposes.", "model", name, "variable", varName)
					continue
				}
				return fmt.Errorf("restore of %s.%s: %w", name, varName, err)
			}
		}
	}

	e.restored = true
	e.updateProgress()
	logger.Info("State restored from snapshot.", "t", e.time())
	return nil
}

// CoreProgress is the externally visible state of one core.
type CoreProgress struct {
	Time  float64 `json:"time"`
	Steps uint64  `json:"steps"`
}

// Progress is a read-only view of the run, safe to expose while the engine
// is stepping on another goroutine.
type Progress struct {
	Time      float64                 `json:"time"`
	Start     float64                 `json:"start"`
	Stop      float64                 `json:"stop"`
	Regime    string                  `json:"regime,omitempty"`
	Exchanges uint64                  `json:"exchanges"`
	Cores     map[string]CoreProgress `json:"cores"`
}

// Progress returns the latest consistent progress view.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.prog
	out.Cores = make(map[string]CoreProgress, len(e.prog.Cores))
	for name, c := range e.prog.Cores {
		out.Cores[name] = c
	}
	return out
}

// updateProgress refreshes the shared progress copy. Called from the run
// goroutine after every state change.
func (e *Engine) updateProgress() {
	cores := make(map[string]CoreProgress, len(e.cores))
	for name, core := range e.cores {
		cores[name] = CoreProgress{Time: core.clock, Steps: core.steps}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.prog = Progress{
		Time:      e.time(),
		Start:     e.cfg.Time.Start,
		Stop:      e.cfg.Time.Stop,
		Regime:    e.regime,
		Exchanges: e.exchanges,
		Cores:     cores,
	}
}
