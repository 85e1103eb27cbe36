// Package output implements the SQLite-backed snapshot store: gridded and
// scalar state variables captured at the configured output interval, keyed
// by run and simulation time. Values are stored as cty JSON so a reader
// can reconstruct them without knowing the core that produced them.
package output

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	_ "modernc.org/sqlite"

	"github.com/coastalsim/windsurf/internal/config"
	"github.com/coastalsim/windsurf/internal/ctxlog"
)

//go:embed schema.sql
var schemaSQL string

// Run completion statuses recorded on Close.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store writes run snapshots to a SQLite database file.
type Store struct {
	mu    sync.Mutex
	path  string
	db    *sql.DB
	runID string
}

// NewStore creates a store for the given database path. Nothing touches
// the filesystem until Open.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// RunID returns the identifier of the current run, "" before Open.
func (s *Store) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Open creates the database schema and registers a new run row.
func (s *Store) Open(ctx context.Context, configPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return fmt.Errorf("output store already open")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open output store %s: %w", s.path, err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return fmt.Errorf("failed to create output schema: %w", err)
	}

	runID := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO runs (id, config_path, started_at) VALUES (?, ?, ?)`,
		runID, configPath, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to register run: %w", err)
	}

	s.db = db
	s.runID = runID
	ctxlog.FromContext(ctx).Info("Output store opened.", "path", s.path, "run_id", runID)
	return nil
}

// Record stores one variable value at the given simulation time. It
// implements the engine's Recorder interface.
func (s *Store) Record(ctx context.Context, simTime float64, ref config.VarRef, val cty.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return fmt.Errorf("output store is not open")
	}

	encoded, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", ref, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (run_id, sim_time, model, variable, value) VALUES (?, ?, ?, ?, ?)`,
		s.runID, simTime, ref.Model, ref.Var, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("failed to record %s at t=%g: %w", ref, simTime, err)
	}
	return nil
}

// Close stamps the run with its completion status and closes the database.
func (s *Store) Close(status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	_, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, status = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), status, s.runID,
	)
	closeErr := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("failed to finalize run record: %w", err)
	}
	return closeErr
}
