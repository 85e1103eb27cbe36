// Package testutil provides shared helpers for engine and app tests,
// chiefly a scriptable in-memory model core.
package testutil

import (
	"context"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/coastalsim/windsurf/internal/bmi"
	"github.com/coastalsim/windsurf/internal/registry"
	"github.com/coastalsim/windsurf/internal/regrid"
)

// SetCall records one SetVar invocation on a FakeCore.
type SetCall struct {
	Time float64
	Name string
	Val  cty.Value
}

// FakeCore is a scriptable bmi.Model for tests. The zero value is usable;
// fields tune its behavior.
type FakeCore struct {
	Step  float64 // preferred time step reported by TimeStep
	Start float64
	Stop  float64

	Vars  map[string]cty.Value
	Grids map[string]regrid.Grid

	InitErr    error // returned from Initialize
	UpdateErr  error // returned from Update
	StuckClock bool  // if set, Update does not advance the clock

	Initialized bool
	Finalized   bool
	ConfigFile  string
	Updates     int
	SetCalls    []SetCall

	t float64
}

// Register wires a factory returning this exact instance, so tests keep a
// handle on the core the engine drives.
func (c *FakeCore) Register(r *registry.Registry, engine string) {
	r.RegisterEngine(engine, func() bmi.Model { return c })
}

func (c *FakeCore) Initialize(ctx context.Context, configfile string) error {
	if c.InitErr != nil {
		return c.InitErr
	}
	c.Initialized = true
	c.ConfigFile = configfile
	c.t = c.Start
	if c.Vars == nil {
		c.Vars = make(map[string]cty.Value)
	}
	return nil
}

func (c *FakeCore) Update(ctx context.Context, dt float64) error {
	if c.UpdateErr != nil {
		return c.UpdateErr
	}
	c.Updates++
	if c.StuckClock {
		return nil
	}
	if dt < 0 {
		dt = c.Step
	}
	c.t += dt
	return nil
}

func (c *FakeCore) Finalize(ctx context.Context) error {
	c.Finalized = true
	return nil
}

func (c *FakeCore) StartTime() float64   { return c.Start }
func (c *FakeCore) EndTime() float64     { return c.Stop }
func (c *FakeCore) CurrentTime() float64 { return c.t }
func (c *FakeCore) TimeStep() float64    { return c.Step }

func (c *FakeCore) SetTime(t float64) { c.t = t }

func (c *FakeCore) VarNames() []string {
	names := make([]string, 0, len(c.Vars))
	for name := range c.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *FakeCore) GetVar(name string) (cty.Value, error) {
	val, ok := c.Vars[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("%w: %s", bmi.ErrUnknownVar, name)
	}
	return val, nil
}

func (c *FakeCore) SetVar(name string, val cty.Value) error {
	if c.Vars == nil {
		c.Vars = make(map[string]cty.Value)
	}
	c.Vars[name] = val
	c.SetCalls = append(c.SetCalls, SetCall{Time: c.t, Name: name, Val: val})
	return nil
}

// VarGrid implements bmi.Gridded when grids are configured.
func (c *FakeCore) VarGrid(name string) (regrid.Grid, bool) {
	g, ok := c.Grids[name]
	return g, ok
}
