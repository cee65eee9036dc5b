package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	project       TEXT NOT NULL,
	architecture  TEXT NOT NULL,
	counters_json TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempt_outcomes (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	attempt_num  INTEGER NOT NULL,
	outcome      TEXT NOT NULL,
	instance     TEXT,
	param_count  INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_attempt_outcomes_run
ON attempt_outcomes(run_id, outcome);
`

// #endregion schema

// #region store

// Store persists search runs and per-attempt generation outcomes in
// SQLite. Every rejected attempt stays observable here even though it
// never surfaces as an error.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the history database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for tooling (e.g. cmd/inspect).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region run

// RunRecord identifies one search run.
type RunRecord struct {
	RunID        string
	Project      string
	Architecture string
	CreatedAt    time.Time
}

// BeginRun inserts a new run row and returns its record.
func (s *Store) BeginRun(project, architecture string) (RunRecord, error) {
	rec := RunRecord{
		RunID:        uuid.New().String(),
		Project:      project,
		Architecture: architecture,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, project, architecture, created_at) VALUES (?, ?, ?, ?)`,
		rec.RunID, rec.Project, rec.Architecture, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// SnapshotCounters stores the latest tuner counters for a run as JSON.
func (s *Store) SnapshotCounters(runID, countersJSON string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET counters_json = ? WHERE run_id = ?`, countersJSON, runID,
	)
	if err != nil {
		return fmt.Errorf("snapshot counters: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, project, architecture, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdStr string
		if err := rows.Scan(&rec.RunID, &rec.Project, &rec.Architecture, &createdStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// #endregion run

// #region attempts

// AttemptRecord is one generation-attempt outcome row.
type AttemptRecord struct {
	RunID      string
	AttemptNum int
	Outcome    string
	Instance   string
	ParamCount int
	CreatedAt  time.Time
}

// RecordAttempt persists a single attempt outcome.
func (s *Store) RecordAttempt(rec AttemptRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO attempt_outcomes (run_id, attempt_num, outcome, instance, param_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.AttemptNum, rec.Outcome, nullIfEmpty(rec.Instance),
		rec.ParamCount, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// ListAttempts returns the attempts of a run in order.
func (s *Store) ListAttempts(runID string, limit int) ([]AttemptRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, attempt_num, outcome, instance, param_count, created_at
		 FROM attempt_outcomes WHERE run_id = ? ORDER BY attempt_num ASC LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []AttemptRecord
	for rows.Next() {
		var rec AttemptRecord
		var instance sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.RunID, &rec.AttemptNum, &rec.Outcome, &instance, &rec.ParamCount, &createdStr); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if instance.Valid {
			rec.Instance = instance.String
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		attempts = append(attempts, rec)
	}
	return attempts, rows.Err()
}

// OutcomeCounts tallies attempts by outcome kind for a run.
func (s *Store) OutcomeCounts(runID string) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT outcome, COUNT(*) FROM attempt_outcomes WHERE run_id = ? GROUP BY outcome`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("outcome counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

// #endregion attempts

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
