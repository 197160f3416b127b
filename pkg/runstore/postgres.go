package runstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	// Postgres driver registration
	_ "github.com/lib/pq"

	"github.com/pipewise/maestro/pkg/interfaces"
	"github.com/pipewise/maestro/pkg/workflow"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS workflow_runs (
	run_id       TEXT PRIMARY KEY,
	workflow     TEXT NOT NULL,
	status       TEXT NOT NULL,
	success      BOOLEAN NOT NULL,
	data         JSONB NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	failed_step  TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore persists finished workflow runs in Postgres so partial
// results survive the process and stay inspectable after failures
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a Postgres-backed run store over an existing
// connection pool
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to Postgres with the given DSN and returns a store over
// the new connection pool
func Open(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return NewPostgresStore(db), nil
}

// Migrate creates the runs table if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("failed to create workflow_runs table: %w", err)
	}
	return nil
}

// SaveRun upserts a finished run
func (s *PostgresStore) SaveRun(ctx context.Context, run *workflow.RunResult) error {
	data, err := json.Marshal(run.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal run results: %w", err)
	}

	errText := ""
	if run.Error != nil {
		errText = run.Error.Error()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO workflow_runs
			(run_id, workflow, status, success, data, error, failed_step, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			status = EXCLUDED.status,
			success = EXCLUDED.success,
			data = EXCLUDED.data,
			error = EXCLUDED.error,
			failed_step = EXCLUDED.failed_step,
			completed_at = EXCLUDED.completed_at`,
		run.RunID, run.Workflow, string(run.Status), run.Success,
		data, errText, run.FailedStep, run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.RunID, err)
	}

	return nil
}

// GetRun retrieves a run by its ID
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*workflow.RunResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, workflow, status, success, data, error, failed_step, started_at, completed_at
		FROM workflow_runs WHERE run_id = $1`, runID)

	var (
		run     workflow.RunResult
		status  string
		data    []byte
		errText string
	)
	err := row.Scan(&run.RunID, &run.Workflow, &status, &run.Success,
		&data, &errText, &run.FailedStep, &run.StartedAt, &run.CompletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	run.Status = workflow.Status(status)
	run.Data = make(map[string]*interfaces.Result)
	if err := json.Unmarshal(data, &run.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run results: %w", err)
	}
	if errText != "" {
		run.Error = errors.New(errText)
	}

	return &run, nil
}

// ListRuns returns the run IDs of every stored run for a workflow,
// newest first
func (s *PostgresStore) ListRuns(ctx context.Context, workflowName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id FROM workflow_runs
		WHERE workflow = $1 ORDER BY started_at DESC`, workflowName)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runIDs []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runIDs = append(runIDs, runID)
	}
	return runIDs, rows.Err()
}

// Close closes the underlying connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
