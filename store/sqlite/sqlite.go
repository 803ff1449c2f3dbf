/*
Package sqlite provides a SQLite-backed archive of billing runs.

PURPOSE:
  Persists each completed (or aborted) billing run together with its report
  rows and warnings, so past periods can be listed and their reports
  re-downloaded without recomputation. In production the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  runs:         One row per billing run (status, weekly charge, error)
  report_rows:  The emitted pre/post-subsidy rows, ordered
  run_warnings: Unmatched-student warnings accumulated during the run

STAGED OUTPUT:
  A run aborted by an unknown category is stored with status "failed" and
  only its pre-subsidy rows - exactly what the pipeline produced before the
  hard stop. The post-subsidy stage simply has no rows for such runs.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened with WAL mode so
  readers don't block each other.

USAGE:
  store, err := sqlite.New("./data/billing.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - billing/engine.go: Produces the RunResult archived here
  - api/handlers.go:   Serves archived reports over HTTP
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ShearesWeb/chutney/billing"
)

// Report stages stored in report_rows.
const (
	StagePre  = "pre"
	StagePost = "post"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store archives billing runs in SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		weekly_charge TEXT NOT NULL,
		error TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS report_rows (
		run_id TEXT NOT NULL REFERENCES runs(id),
		stage TEXT NOT NULL,
		position INTEGER NOT NULL,
		matriculation TEXT NOT NULL,
		week_label TEXT NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_report_rows_run_stage
		ON report_rows(run_id, stage, position);

	CREATE TABLE IF NOT EXISTS run_warnings (
		run_id TEXT NOT NULL REFERENCES runs(id),
		matriculation TEXT NOT NULL,
		week INTEGER NOT NULL,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_run_warnings_run
		ON run_warnings(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUNS
// =============================================================================

// Run is one archived billing run.
type Run struct {
	ID           string
	Status       string
	WeeklyCharge string
	Error        string
	CreatedAt    time.Time
	Warnings     []billing.Warning
}

// SaveRun archives a run with its report rows and warnings atomically.
// Assigns a fresh run ID when none is set, and returns it.
func (s *Store) SaveRun(ctx context.Context, run Run, result *billing.RunResult) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, status, weekly_charge, error, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Status, run.WeeklyCharge, run.Error,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	if result != nil {
		if err := insertReport(ctx, tx, run.ID, StagePre, result.PreSubsidy); err != nil {
			return "", err
		}
		if err := insertReport(ctx, tx, run.ID, StagePost, result.PostSubsidy); err != nil {
			return "", err
		}
		for _, w := range result.Warnings {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO run_warnings (run_id, matriculation, week, message) VALUES (?, ?, ?, ?)`,
				run.ID, string(w.Matric), w.Week, w.Message,
			)
			if err != nil {
				return "", fmt.Errorf("failed to insert warning: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return run.ID, nil
}

func insertReport(ctx context.Context, tx *sql.Tx, runID, stage string, report *billing.Report) error {
	if report == nil {
		return nil
	}
	for i, row := range report.Rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO report_rows (run_id, stage, position, matriculation, week_label, amount)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			runID, stage, i, string(row.Matric), row.WeekLabel, row.Amount.StringFixed(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert report row: %w", err)
		}
	}
	return nil
}

// ListRuns returns all runs, newest first, with their warnings.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, weekly_charge, COALESCE(error, ''), created_at
		 FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := s.loadWarnings(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// GetRun returns a single run, or nil if it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, weekly_charge, COALESCE(error, ''), created_at
		 FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadWarnings(ctx, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var run Run
	var createdAt string
	if err := rows.Scan(&run.ID, &run.Status, &run.WeeklyCharge, &run.Error, &createdAt); err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse run timestamp: %w", err)
	}
	run.CreatedAt = t
	return run, nil
}

func (s *Store) loadWarnings(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT matriculation, week, message FROM run_warnings WHERE run_id = ?`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load warnings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w billing.Warning
		var matric string
		if err := rows.Scan(&matric, &w.Week, &w.Message); err != nil {
			return fmt.Errorf("failed to scan warning: %w", err)
		}
		w.Matric = billing.Matric(matric)
		run.Warnings = append(run.Warnings, w)
	}
	return rows.Err()
}

// =============================================================================
// REPORT ROWS
// =============================================================================

// ReportRows reconstructs one stored report stage for a run, preserving the
// original row order. Returns an empty report when the stage has no rows
// (e.g. the post stage of a failed run).
func (s *Store) ReportRows(ctx context.Context, runID, stage string) (*billing.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := &billing.Report{Columns: stageColumns(stage)}

	rows, err := s.db.QueryContext(ctx,
		`SELECT matriculation, week_label, amount FROM report_rows
		 WHERE run_id = ? AND stage = ? ORDER BY position`, runID, stage)
	if err != nil {
		return nil, fmt.Errorf("failed to load report rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var matric, weekLabel, amount string
		if err := rows.Scan(&matric, &weekLabel, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		a, err := billing.NewAmountFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		report.Rows = append(report.Rows, billing.ReportRow{
			Matric:    billing.Matric(matric),
			WeekLabel: weekLabel,
			Amount:    a,
		})
	}
	return report, rows.Err()
}

// RowCounts returns the number of stored pre- and post-subsidy rows for a run.
func (s *Store) RowCounts(ctx context.Context, runID string) (pre, post int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, COUNT(*) FROM report_rows WHERE run_id = ? GROUP BY stage`, runID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count report rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return 0, 0, fmt.Errorf("failed to scan row count: %w", err)
		}
		switch stage {
		case StagePre:
			pre = count
		case StagePost:
			post = count
		}
	}
	return pre, post, rows.Err()
}

func stageColumns(stage string) [3]string {
	if stage == StagePost {
		return [3]string{billing.ColMatriculation, billing.ColWeek, billing.ColAfterSubsidy}
	}
	return [3]string{billing.ColMatriculation, billing.ColWeek, billing.ColBeforeSubsidy}
}
