package store

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/isocompare/pkg/models"
)

// schema is executed once at startup. It is kept inline (rather than read
// from a file at runtime) since this service ships as a single static
// binary with no accompanying asset directory.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id             UUID PRIMARY KEY,
	graph1_name        TEXT NOT NULL,
	graph2_name        TEXT NOT NULL,
	status             TEXT NOT NULL,
	matched            BOOLEAN,
	matched_count      INTEGER,
	forced_matches     INTEGER,
	passes             INTEGER,
	error              TEXT,
	submitted_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at        TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS run_events (
	run_id     UUID NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	category   TEXT,
	message    TEXT NOT NULL,
	emitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS run_events_run_id_idx ON run_events (run_id);
`

// PostgresStore persists one row per run and one row per audited event.
// Nothing the isomorph engine itself needs lives here, it is purely
// host-level audit/history, wired as the store for the comparison host.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx.
func Connect(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	log.Println("connected to PostgreSQL for isocompare run store")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the run/run_events tables if they do not already exist.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema migrations: %w", err)
	}
	return nil
}

// CreateRun inserts the initial queued row for a freshly accepted run.
func (s *PostgresStore) CreateRun(ctx context.Context, report models.RunReport) error {
	const sql = `
		INSERT INTO runs (run_id, graph1_name, graph2_name, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, sql, report.RunID, report.Graph1Name, report.Graph2Name, report.Status, report.SubmittedAt)
	return err
}

// FinishRun updates a run's row with its terminal outcome.
func (s *PostgresStore) FinishRun(ctx context.Context, report models.RunReport) error {
	const sql = `
		UPDATE runs SET
			status = $2, matched = $3, matched_count = $4, forced_matches = $5,
			passes = $6, error = $7, finished_at = $8
		WHERE run_id = $1
	`
	_, err := s.pool.Exec(ctx, sql, report.RunID, report.Status, report.Matched,
		report.MatchedCount, report.ForcedMatches, report.Passes, report.Error, report.FinishedAt)
	return err
}

// SaveEvent appends one audit row for an emitted Progress/Warning/Status event.
func (s *PostgresStore) SaveEvent(ctx context.Context, ev models.RunEvent) error {
	const sql = `
		INSERT INTO run_events (run_id, seq, kind, category, message, emitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id, seq) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, sql, ev.RunID, ev.Seq, ev.Kind, ev.Category, ev.Message, ev.EmittedAt)
	return err
}

// GetRun fetches a run's persisted row and scans it into a RunReport.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (models.RunReport, bool, error) {
	const sql = `
		SELECT run_id, graph1_name, graph2_name, status, matched, matched_count,
		       forced_matches, passes, error, submitted_at, finished_at
		FROM runs WHERE run_id = $1
	`
	var r models.RunReport
	var matched *bool
	var matchedCount, forcedMatches, passes *int
	var errMsg *string
	err := s.pool.QueryRow(ctx, sql, runID).Scan(&r.RunID, &r.Graph1Name, &r.Graph2Name, &r.Status,
		&matched, &matchedCount, &forcedMatches, &passes, &errMsg, &r.SubmittedAt, &r.FinishedAt)
	if err != nil {
		return models.RunReport{}, false, nil
	}
	if matched != nil {
		r.Matched = *matched
	}
	if matchedCount != nil {
		r.MatchedCount = *matchedCount
	}
	if forcedMatches != nil {
		r.ForcedMatches = *forcedMatches
	}
	if passes != nil {
		r.Passes = *passes
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return r, true, nil
}

// ListRuns returns a page of runs ordered most-recent-first, mirroring the
// teacher's GetMixers pagination shape (page/limit, clamped, total count).
func (s *PostgresStore) ListRuns(ctx context.Context, page, limit int) ([]models.RunReport, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	const sql = `
		SELECT run_id, graph1_name, graph2_name, status, matched, matched_count,
		       forced_matches, passes, error, submitted_at, finished_at
		FROM runs ORDER BY submitted_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := s.pool.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []models.RunReport
	for rows.Next() {
		var r models.RunReport
		var matched *bool
		var matchedCount, forcedMatches, passes *int
		var errMsg *string
		if err := rows.Scan(&r.RunID, &r.Graph1Name, &r.Graph2Name, &r.Status, &matched,
			&matchedCount, &forcedMatches, &passes, &errMsg, &r.SubmittedAt, &r.FinishedAt); err != nil {
			return nil, 0, err
		}
		if matched != nil {
			r.Matched = *matched
		}
		if matchedCount != nil {
			r.MatchedCount = *matchedCount
		}
		if forcedMatches != nil {
			r.ForcedMatches = *forcedMatches
		}
		if passes != nil {
			r.Passes = *passes
		}
		if errMsg != nil {
			r.Error = *errMsg
		}
		runs = append(runs, r)
	}
	if runs == nil {
		runs = []models.RunReport{}
	}
	return runs, total, nil
}
