// Package bmi defines the Go contract for coupled model cores, following
// the Basic Model Interface convention: explicit initialize/update/finalize
// lifecycle, a model-owned clock, and named variable access.
//
// Gridded variables cross the interface as flat, row-major cty lists of
// numbers; scalars as plain cty values. A core that knows the grid its
// variables live on additionally implements Gridded so the engine can
// regrid values between cores with different discretizations.
package bmi

import (
	"context"
	"errors"

	"github.com/zclconf/go-cty/cty"

	"github.com/coastalsim/windsurf/internal/regrid"
)

// ErrUnknownVar is wrapped by cores when a variable name does not resolve.
var ErrUnknownVar = errors.New("unknown variable")

// Model is the lifecycle and state contract every coupled core implements.
type Model interface {
	// Initialize loads the core's own configuration file and allocates state.
	Initialize(ctx context.Context, configfile string) error

	// Update advances the core by dt seconds. A negative dt asks the core
	// to pick its own step.
	Update(ctx context.Context, dt float64) error

	// Finalize releases the core's resources. It must be safe to call
	// after a failed Initialize.
	Finalize(ctx context.Context) error

	StartTime() float64
	EndTime() float64
	CurrentTime() float64

	// SetTime moves the core's clock. The engine uses it to align cores
	// at the start of the time window and when restoring a snapshot.
	SetTime(t float64)

	// TimeStep reports the core's preferred step in seconds, 0 if it has
	// no preference.
	TimeStep() float64

	// VarNames lists the externally visible variables, sorted.
	VarNames() []string

	GetVar(name string) (cty.Value, error)
	SetVar(name string, val cty.Value) error
}

// Gridded is implemented by cores whose variables live on a rectilinear grid.
type Gridded interface {
	// VarGrid reports the grid of the named variable, false if the
	// variable is not gridded.
	VarGrid(name string) (regrid.Grid, bool)
}
