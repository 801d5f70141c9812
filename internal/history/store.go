// Package history journals every step attempt of every run in SQLite.
//
// An ExecutionContext keeps only the last result per step; the journal
// keeps all of them together with the suggestions and retry strategy that
// followed each failure. It is not plan storage.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/CodedAgent/codeagent/internal/models"
)

// Run statuses stored before a summary is available.
const (
	StatusRunning = "RUNNING"
)

// RunInfo is a run header plus attempt counts.
type RunInfo struct {
	RunID          string
	Prompt         string
	Workspace      string
	Status         string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Attempts       int
	FailedAttempts int
}

// Store manages the SQLite attempt journal
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// NewStore opens (creating if needed) the journal at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	// busy_timeout first so the remaining pragmas wait on locks
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return store, nil
}

// execWithRetry retries stmt with exponential backoff while the database is locked.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// StartRun writes the header for a new run.
func (s *Store) StartRun(ctx context.Context, runID, prompt, workspace string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, prompt, workspace, status, started_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET prompt = excluded.prompt, workspace = excluded.workspace`,
		runID, prompt, workspace, StatusRunning, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final status of a run.
func (s *Store) FinishRun(ctx context.Context, summary models.RunSummary) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE run_id = ?`,
		summary.Status(), time.Now().UTC(), summary.RunID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", summary.RunID)
	}
	return nil
}

// RecordAttempt journals one attempt. A run header is created on demand.
func (s *Store) RecordAttempt(ctx context.Context, record models.AttemptRecord) error {
	suggestions := "[]"
	if len(record.Suggestions) > 0 {
		data, err := json.Marshal(record.Suggestions)
		if err != nil {
			return fmt.Errorf("marshal suggestions: %w", err)
		}
		suggestions = string(data)
	}

	var strategy sql.NullString
	if record.Strategy != nil {
		data, err := json.Marshal(record.Strategy)
		if err != nil {
			return fmt.Errorf("marshal strategy: %w", err)
		}
		strategy = sql.NullString{String: string(data), Valid: true}
	}

	recordedAt := record.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO runs (run_id, status, started_at) VALUES (?, ?, ?)`,
		record.RunID, StatusRunning, recordedAt.UTC()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO attempts
		(run_id, step_id, action, attempt, success, output, error_message, duration_ms, suggestions, strategy, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.StepID,
		record.Action.String(),
		record.Attempt,
		record.Success,
		record.Output,
		record.ErrorMessage,
		int64(record.DurationMs),
		suggestions,
		strategy,
		recordedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attempt: %w", err)
	}
	return nil
}

const attemptColumns = `id, run_id, step_id, action, attempt, success, output, error_message, duration_ms, suggestions, strategy, recorded_at`

// GetRunAttempts returns every attempt of a run in recording order.
func (s *Store) GetRunAttempts(ctx context.Context, runID string) ([]models.AttemptRecord, error) {
	return s.queryAttempts(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE run_id = ? ORDER BY id`, runID)
}

// GetStepAttempts returns the most recent attempts at stepID across runs,
// newest first. A limit of 0 or less returns all of them.
func (s *Store) GetStepAttempts(ctx context.Context, stepID string, limit int) ([]models.AttemptRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.queryAttempts(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE step_id = ? ORDER BY id DESC LIMIT ?`, stepID, limit)
}

func (s *Store) queryAttempts(ctx context.Context, query string, args ...interface{}) ([]models.AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var records []models.AttemptRecord
	for rows.Next() {
		var (
			rec                               models.AttemptRecord
			action                            string
			output, errorMessage, suggestions sql.NullString
			strategy                          sql.NullString
			durationMs                        sql.NullInt64
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.StepID,
			&action,
			&rec.Attempt,
			&rec.Success,
			&output,
			&errorMessage,
			&durationMs,
			&suggestions,
			&strategy,
			&rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}

		rec.Action, _ = models.ParseActionType(action)
		rec.Output = output.String
		rec.ErrorMessage = errorMessage.String
		if durationMs.Valid && durationMs.Int64 > 0 {
			rec.DurationMs = uint64(durationMs.Int64)
		}
		if suggestions.Valid && suggestions.String != "" && suggestions.String != "[]" {
			if err := json.Unmarshal([]byte(suggestions.String), &rec.Suggestions); err != nil {
				return nil, fmt.Errorf("unmarshal suggestions: %w", err)
			}
		}
		if strategy.Valid {
			rec.Strategy = &models.RetryStrategy{}
			if err := json.Unmarshal([]byte(strategy.String), rec.Strategy); err != nil {
				return nil, fmt.Errorf("unmarshal strategy: %w", err)
			}
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempt rows: %w", err)
	}
	return records, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.prompt, r.workspace, r.status, r.started_at, r.finished_at,
			COUNT(a.id),
			COALESCE(SUM(CASE WHEN a.id IS NOT NULL AND NOT a.success THEN 1 ELSE 0 END), 0)
		FROM runs r
		LEFT JOIN attempts a ON a.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			run               RunInfo
			prompt, workspace sql.NullString
			finishedAt        sql.NullTime
		)
		if err := rows.Scan(&run.RunID, &prompt, &workspace, &run.Status, &run.StartedAt, &finishedAt,
			&run.Attempts, &run.FailedAttempts); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run.Prompt = prompt.String
		run.Workspace = workspace.String
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// CleanupOld deletes attempts and runs older than keepDays.
// A keepDays of 0 or less keeps everything.
func (s *Store) CleanupOld(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays)

	result, err := s.db.ExecContext(ctx, `DELETE FROM attempts WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup old attempts: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE started_at < ? AND run_id NOT IN (SELECT DISTINCT run_id FROM attempts)`,
		cutoff); err != nil {
		return deleted, fmt.Errorf("cleanup old runs: %w", err)
	}
	return deleted, nil
}
