// Package cdm implements an in-process dune profile core in the manner of
// the classic coastal dune models: a 1D bed evolved by wind-driven sand
// flux, shadowed by a vegetation cover that relaxes toward equilibrium.
//
// The core is configured by a legacy "key = value" parameter file and
// registered under the engine name "cdm".
package cdm

import (
	"context"
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"

	"github.com/coastalsim/windsurf/internal/bmi"
	"github.com/coastalsim/windsurf/internal/ctxlog"
	"github.com/coastalsim/windsurf/internal/legacyparams"
	"github.com/coastalsim/windsurf/internal/regrid"
	"github.com/coastalsim/windsurf/internal/registry"
)

// EngineName is the identifier this core registers under.
const EngineName = "cdm"

// Module implements the registry.Core interface for this package.
type Module struct{}

// Register registers the dune core factory with the engine registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEngine(EngineName, func() bmi.Model { return New() })
}

// Core is a vegetation-aware 1D dune profile model. The zero value is not
// usable; construct with New and call Initialize before stepping.
type Core struct {
	params *legacyparams.File

	// discretization
	nx float64
	dx float64
	dt float64

	tmax float64
	t    float64

	// wind forcing
	uw        float64
	threshold float64

	// transport and vegetation parameters
	fluxScale  float64
	growthrate float64
	zmin       float64
	vegmax     float64

	x      []float64
	zb     []float64
	rhoveg []float64
}

// New returns an uninitialized dune core.
func New() *Core {
	return &Core{}
}

// Initialize parses the parameter file and allocates the model state.
func (c *Core) Initialize(ctx context.Context, configfile string) error {
	log := ctxlog.FromContext(ctx)

	params, err := legacyparams.Parse(configfile)
	if err != nil {
		return fmt.Errorf("loading dune core parameters: %w", err)
	}
	c.params = params

	nx := params.Int("nx", 0)
	if nx <= 0 {
		return fmt.Errorf("%s: 'nx' must be a positive integer", params.Name())
	}
	c.nx = float64(nx)
	c.dx = params.Float("dx", 1.0)
	if c.dx <= 0 {
		return fmt.Errorf("%s: 'dx' must be positive", params.Name())
	}
	c.dt = params.Float("dt", 60.0)
	if c.dt <= 0 {
		return fmt.Errorf("%s: 'dt' must be positive", params.Name())
	}
	c.tmax = params.Float("tmax", math.Inf(1))

	if mode := params.String("wind.mode", "constant"); mode != "constant" {
		return fmt.Errorf("%s: unsupported wind.mode %q", params.Name(), mode)
	}
	c.uw = params.Float("wind.uw", 0)
	c.threshold = params.Float("wind.threshold", 4.0)

	c.fluxScale = params.Float("transport.scale", 1e-6)
	c.growthrate = params.Float("veget.growthrate", 0)
	c.zmin = params.Float("veget.zmin", 1.0)
	c.vegmax = params.Float("veget.max", 1.0)

	c.x = make([]float64, nx)
	for i := range c.x {
		c.x[i] = float64(i) * c.dx
	}
	c.zb = make([]float64, nx)
	c.rhoveg = make([]float64, nx)
	c.t = 0

	if err := c.initSurface(); err != nil {
		return err
	}

	log.Debug("Dune core initialized.",
		"configfile", configfile, "nx", nx, "dx", c.dx, "dt", c.dt)
	return nil
}

// initSurface seeds the initial bed profile.
func (c *Core) initSurface() error {
	surface := c.params.String("init.surface", "plane")
	slope := c.params.Float("init.slope", 0)

	for i, xi := range c.x {
		c.zb[i] = slope * xi
	}

	switch surface {
	case "plane":
	case "dune":
		// Gaussian bump centered on the domain.
		height := c.params.Float("init.height", 1.0)
		center := c.x[len(c.x)-1] / 2
		width := c.x[len(c.x)-1] / 8
		if width == 0 {
			width = c.dx
		}
		for i, xi := range c.x {
			d := (xi - center) / width
			c.zb[i] += height * math.Exp(-d*d)
		}
	default:
		return fmt.Errorf("%s: unknown init.surface %q", c.params.Name(), surface)
	}
	return nil
}

// Update advances bed level and vegetation by dt seconds. A negative dt
// uses the core's own time step.
func (c *Core) Update(ctx context.Context, dt float64) error {
	if c.params == nil {
		return fmt.Errorf("dune core is not initialized")
	}
	if dt < 0 {
		dt = c.dt
	}

	// Saturated flux above the transport threshold, shadowed linearly by
	// the local vegetation cover. Zero-gradient at the upwind boundary.
	excess := c.uw - c.threshold
	if excess < 0 {
		excess = 0
	}
	q0 := c.fluxScale * excess * excess * excess

	q := make([]float64, len(c.zb))
	for i := range q {
		cover := c.rhoveg[i]
		if cover > 1 {
			cover = 1
		}
		q[i] = q0 * (1 - cover)
	}
	for i := range c.zb {
		qin := q[0]
		if i > 0 {
			qin = q[i-1]
		}
		c.zb[i] += (qin - q[i]) / c.dx * dt
	}

	// Vegetation relaxes toward its maximum above zmin and dies off below.
	for i := range c.rhoveg {
		if c.zb[i] >= c.zmin {
			c.rhoveg[i] += dt * c.growthrate * (c.vegmax - c.rhoveg[i])
		} else {
			c.rhoveg[i] -= dt * c.growthrate * c.rhoveg[i]
		}
		if c.rhoveg[i] < 0 {
			c.rhoveg[i] = 0
		}
		if c.rhoveg[i] > c.vegmax {
			c.rhoveg[i] = c.vegmax
		}
	}

	c.t += dt
	return nil
}

// Finalize releases the model state.
func (c *Core) Finalize(ctx context.Context) error {
	c.x, c.zb, c.rhoveg = nil, nil, nil
	return nil
}

func (c *Core) StartTime() float64   { return 0 }
func (c *Core) EndTime() float64     { return c.tmax }
func (c *Core) CurrentTime() float64 { return c.t }
func (c *Core) SetTime(t float64)    { c.t = t }
func (c *Core) TimeStep() float64    { return c.dt }

// VarNames lists the exposed variables, minus any the parameter file
// suppresses with dontsave.
func (c *Core) VarNames() []string {
	names := make([]string, 0, 4)
	for _, name := range []string{"rhoveg", "uw", "x", "zb"} {
		if c.params != nil && c.params.Suppressed(name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (c *Core) GetVar(name string) (cty.Value, error) {
	switch name {
	case "zb":
		return listValue(c.zb), nil
	case "rhoveg":
		return listValue(c.rhoveg), nil
	case "x":
		return listValue(c.x), nil
	case "uw":
		return cty.NumberFloatVal(c.uw), nil
	}
	return cty.NilVal, fmt.Errorf("cdm: %w: %q", bmi.ErrUnknownVar, name)
}

func (c *Core) SetVar(name string, val cty.Value) error {
	switch name {
	case "uw":
		f, err := scalar(val)
		if err != nil {
			return fmt.Errorf("cdm: setting uw: %w", err)
		}
		c.uw = f
		return nil
	case "zb":
		return c.setField(name, &c.zb, val)
	case "rhoveg":
		return c.setField(name, &c.rhoveg, val)
	case "x":
		return c.setField(name, &c.x, val)
	}
	return fmt.Errorf("cdm: %w: %q", bmi.ErrUnknownVar, name)
}

func (c *Core) setField(name string, field *[]float64, val cty.Value) error {
	floats, err := floats(val)
	if err != nil {
		return fmt.Errorf("cdm: setting %s: %w", name, err)
	}
	if len(floats) != len(*field) {
		return fmt.Errorf("cdm: setting %s: got %d values, grid has %d cells",
			name, len(floats), len(*field))
	}
	*field = floats
	return nil
}

// VarGrid implements bmi.Gridded for the profile variables.
func (c *Core) VarGrid(name string) (regrid.Grid, bool) {
	switch name {
	case "zb", "rhoveg", "x":
		return regrid.Grid{X: c.x}, true
	}
	return regrid.Grid{}, false
}

func listValue(vals []float64) cty.Value {
	if len(vals) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	elems := make([]cty.Value, len(vals))
	for i, v := range vals {
		elems[i] = cty.NumberFloatVal(v)
	}
	return cty.ListVal(elems)
}

func scalar(val cty.Value) (float64, error) {
	if val.Type() != cty.Number {
		return 0, fmt.Errorf("expected a number, got %s", val.Type().FriendlyName())
	}
	f, _ := val.AsBigFloat().Float64()
	return f, nil
}

func floats(val cty.Value) ([]float64, error) {
	ty := val.Type()
	if !ty.IsListType() && !ty.IsTupleType() {
		return nil, fmt.Errorf("expected a list of numbers, got %s", ty.FriendlyName())
	}
	out := make([]float64, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		f, err := scalar(elem)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
