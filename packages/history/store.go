// Package history records verification runs in a SQLite database so results
// can be compared across runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/reqverify/packages/suite"
)

// DefaultPath is used when no history location is configured.
const DefaultPath = ".reqverify/history.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	base_url    TEXT NOT NULL,
	passed      INTEGER NOT NULL,
	failed      INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	p50_us      INTEGER NOT NULL,
	p95_us      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS scenario_results (
	run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	name          TEXT NOT NULL,
	passed        INTEGER NOT NULL,
	skipped       INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	failed_checks INTEGER NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);
`

// Run is a stored run summary.
type Run struct {
	ID        string
	StartedAt time.Time
	BaseURL   string
	Passed    int
	Failed    int
	Skipped   int
	Duration  time.Duration
	P50       time.Duration
	P95       time.Duration
}

// ScenarioRecord is a stored scenario outcome.
type ScenarioRecord struct {
	Name         string
	Passed       bool
	Skipped      bool
	Duration     time.Duration
	FailedChecks int
	Error        string
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database. path may be a file path or a
// sqlite:// / sqlite: connection string.
func Open(path string) (*Store, error) {
	dsn := parseConnectionString(path)
	if dsn == "" {
		return nil, errors.New("history path is empty")
	}
	if dir := filepath.Dir(dsn); dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// a single connection keeps :memory: databases coherent
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

func parseConnectionString(connStr string) string {
	connStr = strings.TrimSpace(connStr)
	if strings.HasPrefix(connStr, "sqlite://") {
		return strings.TrimPrefix(connStr, "sqlite://")
	}
	return strings.TrimPrefix(connStr, "sqlite:")
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a run and its scenario results and returns the new run id.
func (s *Store) Record(ctx context.Context, startedAt time.Time, run *suite.RunResult) (string, error) {
	if run == nil {
		return "", errors.New("nil run result")
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, base_url, passed, failed, skipped, duration_ms, p50_us, p95_us)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, startedAt.UTC().Format(time.RFC3339Nano), run.BaseURL,
		run.Passed, run.Failed, run.Skipped,
		run.Duration.Milliseconds(), run.Latency.P50.Microseconds(), run.Latency.P95.Microseconds(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, r := range run.Results {
		errText := ""
		if r.Error != nil {
			errText = r.Error.Error()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO scenario_results (run_id, position, name, passed, skipped, duration_ms, failed_checks, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, r.Name, r.Passed, r.Skipped, r.Duration.Milliseconds(), len(r.FailedChecks()), errText,
		)
		if err != nil {
			return "", fmt.Errorf("insert scenario %s: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return id, nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, base_url, passed, failed, skipped, duration_ms, p50_us, p95_us
		 FROM runs ORDER BY started_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                    Run
			startedAt            string
			durationMs, p50, p95 int64
		)
		if err := rows.Scan(&r.ID, &startedAt, &r.BaseURL, &r.Passed, &r.Failed, &r.Skipped, &durationMs, &p50, &p95); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("run %s has invalid start time: %w", r.ID, err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.P50 = time.Duration(p50) * time.Microsecond
		r.P95 = time.Duration(p95) * time.Microsecond
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Scenarios returns the scenario outcomes stored for a run, in run order.
func (s *Store) Scenarios(ctx context.Context, runID string) ([]ScenarioRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, passed, skipped, duration_ms, failed_checks, error
		 FROM scenario_results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out []ScenarioRecord
	for rows.Next() {
		var (
			rec        ScenarioRecord
			durationMs int64
		)
		if err := rows.Scan(&rec.Name, &rec.Passed, &rec.Skipped, &durationMs, &rec.FailedChecks, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}
