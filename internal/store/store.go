// Package store persists ensemble case state in SQLite so that submission,
// monitoring, and export survive process restarts.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound reports a missing case record.
var ErrNotFound = errors.New("case not found")

// Store manages case persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the case database and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	versions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		versions = append(versions, entry.Name())
	}
	sort.Strings(versions)

	migrations := make([]migration, 0, len(versions))
	for _, name := range versions {
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, migration{
			version: strings.TrimSuffix(name, ".sql"),
			sql:     string(data),
		})
	}
	return migrations, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", m.version, err)
		}
		if applied > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version) VALUES (?)", m.version,
		); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}
	return tx.Commit()
}

// NewCase inserts a pending record for a case, assigning it a run id.
func (s *Store) NewCase(ctx context.Context, caseID string) (*CaseRecord, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	runID := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ensemble_cases (case_id, run_id, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		caseID, runID, StatusPending, timestamp, timestamp)
	if err != nil {
		return nil, fmt.Errorf("insert case %s: %w", caseID, err)
	}
	return s.GetByCaseID(ctx, caseID)
}

// GetByCaseID fetches one case record.
func (s *Store) GetByCaseID(ctx context.Context, caseID string) (*CaseRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, case_id, run_id, status, job_id, exported, COALESCE(error_message, ''), created_at, updated_at
         FROM ensemble_cases WHERE case_id = ?`, caseID)
	rec, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, caseID)
	}
	return rec, err
}

// List returns all case records ordered by case id.
func (s *Store) List(ctx context.Context) ([]*CaseRecord, error) {
	return s.query(ctx,
		`SELECT id, case_id, run_id, status, job_id, exported, COALESCE(error_message, ''), created_at, updated_at
         FROM ensemble_cases ORDER BY case_id`)
}

// ListByStatus returns case records in the given status, ordered by case id.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*CaseRecord, error) {
	return s.query(ctx,
		`SELECT id, case_id, run_id, status, job_id, exported, COALESCE(error_message, ''), created_at, updated_at
         FROM ensemble_cases WHERE status = ? ORDER BY case_id`, status)
}

// SetStatus moves a case to the given status, recording an optional error
// message.
func (s *Store) SetStatus(ctx context.Context, caseID string, status Status, errorMessage string) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.update(ctx, caseID,
		"UPDATE ensemble_cases SET status = ?, error_message = ?, updated_at = ? WHERE case_id = ?",
		status, nullableString(errorMessage), now(), caseID)
}

// SetJobID records the scheduler job id for a submitted case.
func (s *Store) SetJobID(ctx context.Context, caseID string, jobID int) error {
	return s.update(ctx, caseID,
		"UPDATE ensemble_cases SET job_id = ?, status = ?, updated_at = ? WHERE case_id = ?",
		jobID, StatusSubmitted, now(), caseID)
}

// SetExported marks whether a case's artifacts have been exported.
func (s *Store) SetExported(ctx context.Context, caseID string, exported bool) error {
	status := StatusDone
	if exported {
		status = StatusExported
	}
	return s.update(ctx, caseID,
		"UPDATE ensemble_cases SET exported = ?, status = ?, updated_at = ? WHERE case_id = ?",
		exported, status, now(), caseID)
}

func (s *Store) update(ctx context.Context, caseID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update case %s: %w", caseID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case %s: %w", caseID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, caseID)
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]*CaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var records []*CaseRecord
	for rows.Next() {
		rec, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*CaseRecord, error) {
	var rec CaseRecord
	var status string
	var createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.CaseID, &rec.RunID, &status, &rec.JobID,
		&rec.Exported, &rec.ErrorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return &rec, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
