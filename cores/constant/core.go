// Package constant implements a core that serves fixed variable values
// from a small JSON configfile. It computes nothing: each Update only
// advances the clock, and every variable keeps whatever value it was
// configured with or last set to. That makes it the natural forcing
// source for regimes and a convenient stand-in core in tests.
//
// The configfile has three optional sections:
//
//	{
//	  "timestep": 60,
//	  "values":   {"uw": 8.0, "zs": [0.0, 0.0, 0.0]},
//	  "grid":     {"x": [0.0, 10.0, 20.0]}
//	}
//
// Variable names are case-insensitive and normalized to lower case.
// List-valued variables live on the configured grid.
package constant

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/spf13/viper"
	"github.com/zclconf/go-cty/cty"

	"github.com/coastalsim/windsurf/internal/bmi"
	"github.com/coastalsim/windsurf/internal/ctxlog"
	"github.com/coastalsim/windsurf/internal/jsonconfig"
	"github.com/coastalsim/windsurf/internal/regrid"
	"github.com/coastalsim/windsurf/internal/registry"
)

// EngineName is the identifier this core registers under.
const EngineName = "constant"

// Module implements the registry.Core interface for this package.
type Module struct{}

// Register registers the constant core factory with the engine registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEngine(EngineName, func() bmi.Model { return New() })
}

// Core serves configured constant values.
type Core struct {
	dt   float64
	t    float64
	vars map[string]cty.Value
	grid regrid.Grid
}

// New returns an uninitialized constant core.
func New() *Core {
	return &Core{}
}

// Initialize reads the JSON configfile.
func (c *Core) Initialize(ctx context.Context, configfile string) error {
	log := ctxlog.FromContext(ctx)

	v := viper.New()
	v.SetConfigFile(configfile)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("loading constant core config: %w", err)
	}

	c.dt = v.GetFloat64("timestep")
	if c.dt < 0 {
		return fmt.Errorf("%s: 'timestep' must not be negative", configfile)
	}

	c.vars = map[string]cty.Value{}
	for name, raw := range v.GetStringMap("values") {
		val, err := jsonconfig.FromGo(raw)
		if err != nil {
			return fmt.Errorf("%s: values.%s: %w", configfile, name, err)
		}
		c.vars[name] = val
	}

	if err := c.readGrid(v, configfile); err != nil {
		return err
	}

	c.t = 0
	log.Debug("Constant core initialized.",
		"configfile", configfile, "variables", len(c.vars))
	return nil
}

func (c *Core) readGrid(v *viper.Viper, configfile string) error {
	c.grid = regrid.Grid{}
	if !v.IsSet("grid") {
		return nil
	}
	for _, axis := range []string{"x", "y"} {
		raw := v.Get("grid." + axis)
		if raw == nil {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%s: grid.%s must be an array of numbers", configfile, axis)
		}
		coords := make([]float64, len(list))
		for i, elem := range list {
			f, ok := asFloat(elem)
			if !ok {
				return fmt.Errorf("%s: grid.%s[%d] is not a number", configfile, axis, i)
			}
			coords[i] = f
		}
		if axis == "x" {
			c.grid.X = coords
		} else {
			c.grid.Y = coords
		}
	}
	if len(c.grid.X) == 0 && len(c.grid.Y) > 0 {
		return fmt.Errorf("%s: grid.y requires grid.x", configfile)
	}
	return nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Update advances the clock; the values stay put.
func (c *Core) Update(ctx context.Context, dt float64) error {
	if c.vars == nil {
		return fmt.Errorf("constant core is not initialized")
	}
	if dt < 0 {
		dt = c.dt
	}
	if dt <= 0 {
		return fmt.Errorf("constant core has no time step configured")
	}
	c.t += dt
	return nil
}

// Finalize drops the configured values.
func (c *Core) Finalize(ctx context.Context) error {
	c.vars = nil
	return nil
}

func (c *Core) StartTime() float64   { return 0 }
func (c *Core) EndTime() float64     { return math.Inf(1) }
func (c *Core) CurrentTime() float64 { return c.t }
func (c *Core) SetTime(t float64)    { c.t = t }
func (c *Core) TimeStep() float64    { return c.dt }

// VarNames lists the configured variables, sorted.
func (c *Core) VarNames() []string {
	names := make([]string, 0, len(c.vars))
	for name := range c.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Core) GetVar(name string) (cty.Value, error) {
	if val, ok := c.vars[name]; ok {
		return val, nil
	}
	return cty.NilVal, fmt.Errorf("constant: %w: %q", bmi.ErrUnknownVar, name)
}

// SetVar overwrites an existing variable or introduces a new one, so a
// regime can both retune and extend the served set.
func (c *Core) SetVar(name string, val cty.Value) error {
	if c.vars == nil {
		return fmt.Errorf("constant core is not initialized")
	}
	c.vars[name] = val
	return nil
}

// VarGrid implements bmi.Gridded: list-valued variables live on the
// configured grid, scalars are not gridded.
func (c *Core) VarGrid(name string) (regrid.Grid, bool) {
	if len(c.grid.X) == 0 {
		return regrid.Grid{}, false
	}
	val, ok := c.vars[name]
	if !ok {
		return regrid.Grid{}, false
	}
	if ty := val.Type(); !ty.IsListType() && !ty.IsTupleType() {
		return regrid.Grid{}, false
	}
	return c.grid, true
}
