// Package history records directory comparison runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// DefaultLimit is the number of runs returned by Recent when limit <= 0.
const DefaultLimit = 20

// Run is a single recorded comparison.
type Run struct {
	ID           int64
	Expected     string
	Actual       string
	Passed       bool
	Forgiven     bool
	Transformed  bool
	ChangedPaths []string
	ReportDir    string
	Duration     time.Duration
	Timestamp    time.Time
}

// ChangedCount returns the number of changed paths.
func (r *Run) ChangedCount() int {
	return len(r.ChangedPaths)
}

// Store manages the comparison history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the database at dbPath.
// ":memory:" opens an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return openAndInitStore(dbPath)
}

func openAndInitStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across queries.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// busy_timeout must be set first so later statements wait on locks
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

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
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

// Path returns the database path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts run and sets its ID. A zero Timestamp is set to now.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}

	changedJSON := "[]"
	if len(run.ChangedPaths) > 0 {
		data, err := json.Marshal(run.ChangedPaths)
		if err != nil {
			return fmt.Errorf("marshal changed paths: %w", err)
		}
		changedJSON = string(data)
	}

	query := `INSERT INTO comparison_runs
		(expected_dir, actual_dir, passed, forgiven, transformed, changed_count, changed_paths, report_dir, duration_ms, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		run.Expected,
		run.Actual,
		run.Passed,
		run.Forgiven,
		run.Transformed,
		run.ChangedCount(),
		changedJSON,
		run.ReportDir,
		run.Duration.Milliseconds(),
		run.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert comparison run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	run.ID = id
	return nil
}

// Recent returns up to limit runs, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Run, error) {
	return s.query(ctx, "", limit)
}

// RecentFor returns up to limit runs against the expected directory, most
// recent first.
func (s *Store) RecentFor(ctx context.Context, expected string, limit int) ([]*Run, error) {
	return s.query(ctx, expected, limit)
}

func (s *Store) query(ctx context.Context, expected string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, expected_dir, actual_dir, passed, forgiven, transformed, changed_paths, report_dir, duration_ms, timestamp
		FROM comparison_runs`
	args := []interface{}{}
	if expected != "" {
		query += ` WHERE expected_dir = ?`
		args = append(args, expected)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comparison runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var changedPaths, reportDir sql.NullString
		var durationMs sql.NullInt64
		if err := rows.Scan(
			&run.ID,
			&run.Expected,
			&run.Actual,
			&run.Passed,
			&run.Forgiven,
			&run.Transformed,
			&changedPaths,
			&reportDir,
			&durationMs,
			&run.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan comparison run: %w", err)
		}

		if changedPaths.Valid && changedPaths.String != "" {
			if err := json.Unmarshal([]byte(changedPaths.String), &run.ChangedPaths); err != nil {
				return nil, fmt.Errorf("unmarshal changed paths: %w", err)
			}
		}
		if reportDir.Valid {
			run.ReportDir = reportDir.String
		}
		if durationMs.Valid {
			run.Duration = time.Duration(durationMs.Int64) * time.Millisecond
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comparison runs: %w", err)
	}
	return runs, nil
}

// Prune removes runs older than keepDays and returns how many were deleted.
// keepDays <= 0 keeps everything.
func (s *Store) Prune(ctx context.Context, keepDays int) (int64, error) {
	if keepDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -keepDays)

	result, err := s.db.ExecContext(ctx, `DELETE FROM comparison_runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune comparison runs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return deleted, nil
}
