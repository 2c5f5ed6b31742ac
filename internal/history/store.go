package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"saitan/internal/archive"
)

//go:embed schema.sql
var schemaSQL string

// ledgerVersion is stored in the database header (PRAGMA user_version).
// A fresh file reads 0 and gets the schema; any other mismatch is refused.
const ledgerVersion = 1

// ErrSchemaMismatch reports a ledger written by an incompatible saitan.
var ErrSchemaMismatch = errors.New("history ledger version mismatch")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store persists archival runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Entry is one stored run.
type Entry struct {
	ID       string
	URL      string
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
}

// Outcome is one stored action result.
type Outcome struct {
	Action   string
	Status   string
	Value    string
	Kind     string
	Error    string
	Duration time.Duration
}

// Open initializes or connects to the ledger at path, creating parent
// directories as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	pragmas := url.Values{}
	pragmas.Add("_pragma", "journal_mode(WAL)")
	pragmas.Add("_pragma", "foreign_keys(1)")
	pragmas.Add("_pragma", "busy_timeout(5000)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+pragmas.Encode())
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read ledger version: %w", err)
	}
	switch version {
	case ledgerVersion:
		return nil
	case 0:
	default:
		return fmt.Errorf("%w: %s has version %d, want %d; move it aside to start a new ledger",
			ErrSchemaMismatch, s.path, version, ledgerVersion)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger setup: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create ledger tables: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", ledgerVersion)); err != nil {
		return fmt.Errorf("stamp ledger version: %w", err)
	}
	return tx.Commit()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a finished run and its results in one transaction.
func (s *Store) Record(ctx context.Context, run *archive.Run) error {
	if run == nil {
		return errors.New("history: nil run")
	}
	return retryOnBusy(ctx, func() error {
		return s.record(ctx, run)
	})
}

func (s *Store) record(ctx context.Context, run *archive.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, url, started_at, finished_at) VALUES (?, ?, ?, ?)",
		run.ID, run.URL, run.Started.UnixNano(), run.Finished.UnixNano(),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for position, result := range run.Results.Ordered() {
		errText := ""
		if result.Err != nil {
			errText = result.Err.Error()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (run_id, position, action, status, value, error_kind, error, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, position, string(result.Action), string(result.Status), result.Value,
			string(result.Kind), errText, result.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert result %s: %w", result.Action, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// List returns up to limit runs, newest first. A non-positive limit returns all runs.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := "SELECT id, url, started_at, finished_at FROM runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var started, finished int64
		if err := rows.Scan(&entry.ID, &entry.URL, &started, &finished); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		entry.Started = time.Unix(0, started)
		entry.Finished = time.Unix(0, finished)
		entries = append(entries, entry)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close runs: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range entries {
		outcomes, err := s.outcomes(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		entries[i].Outcomes = outcomes
	}
	return entries, nil
}

func (s *Store) outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT action, status, value, error_kind, error, duration_ms
		 FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var (
			outcome    Outcome
			durationMS int64
		)
		if err := rows.Scan(&outcome.Action, &outcome.Status, &outcome.Value, &outcome.Kind, &outcome.Error, &durationMS); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		outcome.Duration = time.Duration(durationMS) * time.Millisecond
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return outcomes, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			return lastErr
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
