package app_test

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/coastalsim/windsurf/internal/app"
	"github.com/coastalsim/windsurf/internal/jsonconfig"
	"github.com/coastalsim/windsurf/internal/restart"
)

// writeFixtures lays out a complete two-core model configuration in a temp
// directory: a constant wind core forcing a cdm dune core.
func writeFixtures(t *testing.T) (configPath, dbPath, snapPath string) {
	t.Helper()
	dir := t.TempDir()

	windPath := filepath.Join(dir, "wind.json")
	require.NoError(t, os.WriteFile(windPath, []byte(`{
		"timestep": 100,
		"values": {"uw": 8.0}
	}`), 0644))

	dunePath := filepath.Join(dir, "dune.txt")
	require.NoError(t, os.WriteFile(dunePath, []byte(`
nx = 5
dx = 1.0
dt = 300.0
wind.threshold = 4.0
transport.scale = 1e-6
`), 0644))

	dbPath = filepath.Join(dir, "output.db")
	snapPath = filepath.Join(dir, "restart.json")

	configPath = filepath.Join(dir, "windsurf.json")
	doc := fmt.Sprintf(`{
		"time": {"start": 0, "stop": 600},
		"models": {
			"wind": {"engine": "constant", "configfile": %q},
			"dune": {"engine": "cdm", "configfile": %q}
		},
		"exchange": [
			{"var_from": "wind.uw", "var_to": "dune.uw"}
		],
		"regimes": {
			"storm": {"wind": {"uw": 20.0}}
		},
		"scenario": [
			{"regime": "storm", "duration": 600}
		],
		"output": {"file": %q, "interval": 300},
		"restart": {"file": %q, "interval": 300}
	}`, windPath, dunePath, dbPath, snapPath)
	require.NoError(t, os.WriteFile(configPath, []byte(doc), 0644))

	return configPath, dbPath, snapPath
}

func newTestApp(t *testing.T, cfg app.Config) (*app.App, *bytes.Buffer) {
	t.Helper()
	cfg.Verbosity = 10
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuf := &bytes.Buffer{}
	return app.NewApp(logBuf, appConfig, jsonconfig.NewLoader()), logBuf
}

func TestApp_FullRun(t *testing.T) {
	configPath, dbPath, snapPath := writeFixtures(t)
	testApp, logBuf := newTestApp(t, app.Config{ConfigPath: configPath})

	require.NoError(t, testApp.Run(context.Background()))
	assert.Contains(t, logBuf.String(), "Simulation reached stop time.")

	// The final restart snapshot sits at the stop time with the regime's
	// wind speed pushed through the exchange.
	snap, err := restart.Load(snapPath)
	require.NoError(t, err)
	assert.Equal(t, 600.0, snap.Time)
	require.Contains(t, snap.Cores, "dune")
	require.Contains(t, snap.Cores, "wind")
	assert.True(t, cty.NumberFloatVal(20.0).RawEquals(snap.Cores["dune"].Vars["uw"]))

	// The output store marks the run completed.
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM runs`).Scan(&status))
	assert.Equal(t, "completed", status)

	var rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&rows))
	assert.Greater(t, rows, 0)
}

func TestApp_RunResumesFromSnapshot(t *testing.T) {
	configPath, _, snapPath := writeFixtures(t)

	first, _ := newTestApp(t, app.Config{ConfigPath: configPath})
	require.NoError(t, first.Run(context.Background()))

	// Rewind the snapshot to mid-run, so the resumed run has real
	// stepping left to do.
	snap, err := restart.Load(snapPath)
	require.NoError(t, err)
	snap.Time = 300
	for name, state := range snap.Cores {
		state.Time = 300
		snap.Cores[name] = state
	}
	require.NoError(t, restart.Save(snapPath, snap))

	second, logBuf := newTestApp(t, app.Config{
		ConfigPath:  configPath,
		RestartPath: snapPath,
	})
	require.NoError(t, second.Run(context.Background()))
	assert.Contains(t, logBuf.String(), "Resumed from restart snapshot.")

	// The resumed run advanced from 300 back to the stop time.
	resumed, err := restart.Load(snapPath)
	require.NoError(t, err)
	assert.Equal(t, 600.0, resumed.Time)
}

func TestApp_RunMarksFailedRun(t *testing.T) {
	configPath, dbPath, _ := writeFixtures(t)

	// Break the dune core's parameter file after load-time validation.
	doc, err := os.ReadFile(configPath)
	require.NoError(t, err)
	broken := bytes.ReplaceAll(doc, []byte("dune.txt"), []byte("missing.txt"))
	require.NoError(t, os.WriteFile(configPath, broken, 0644))

	testApp, _ := newTestApp(t, app.Config{ConfigPath: configPath})
	require.Error(t, testApp.Run(context.Background()))

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM runs`).Scan(&status))
	assert.Equal(t, "failed", status)
}

func TestNewApp_PanicsOnMissingConfigFile(t *testing.T) {
	appConfig, err := app.NewConfig(app.Config{
		ConfigPath: filepath.Join(t.TempDir(), "nope.json"),
	})
	require.NoError(t, err)

	assert.Panics(t, func() {
		app.NewApp(&bytes.Buffer{}, appConfig, jsonconfig.NewLoader())
	})
}

func TestNewApp_PanicsOnUnknownEngine(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "windsurf.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{
		"time": {"start": 0, "stop": 600},
		"models": {
			"surf": {"engine": "xbeach", "configfile": "params.txt"}
		}
	}`), 0644))

	appConfig, err := app.NewConfig(app.Config{ConfigPath: configPath})
	require.NoError(t, err)

	assert.PanicsWithError(t, "registry validation failed:\n- models.surf: engine 'xbeach' is not compiled into this binary (available: [cdm constant])", func() {
		app.NewApp(&bytes.Buffer{}, appConfig, jsonconfig.NewLoader())
	})
}

func TestApp_RegistryExposesDefaultCores(t *testing.T) {
	configPath, _, _ := writeFixtures(t)
	testApp, _ := newTestApp(t, app.Config{ConfigPath: configPath})

	assert.Equal(t, []string{"cdm", "constant"}, testApp.Registry().Engines())
	assert.Len(t, testApp.Model().Models, 2)
}
