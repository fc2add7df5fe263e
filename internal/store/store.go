// Package store persists completed-job audit records and per-printer
// impression counters to a local SQLite database through the
// sql.Open("sqlite", ...) driver, with connection-pool tuning, a pragma
// set, and a plain CREATE TABLE IF NOT
// EXISTS schema rather than a versioned auto-migration system — this
// package's schema is small and fixed.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists job history and impression counters across restarts.
type Store struct {
	db *sql.DB
}

// JobRecord is one completed job's audit trail entry.
type JobRecord struct {
	ID                   uint32
	Printer              string
	RequestingUser       string
	Format               string
	ImpressionsCompleted int
	State                string
	Created              time.Time
	Completed            time.Time
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists. An empty path opens an in-memory database,
// useful for tests.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 30000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id INTEGER NOT NULL,
			printer TEXT NOT NULL,
			requesting_user TEXT NOT NULL,
			format TEXT NOT NULL,
			impressions_completed INTEGER NOT NULL,
			state TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			completed_at INTEGER NOT NULL,
			PRIMARY KEY (printer, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_completed_at ON jobs(completed_at)`,
		`CREATE TABLE IF NOT EXISTS printer_counters (
			printer TEXT PRIMARY KEY,
			impressions_total INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
	}
	return nil
}

// RecordJob inserts a completed job's audit entry and bumps the
// printer's running impression counter in one transaction.
func (s *Store) RecordJob(r JobRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO jobs
			(id, printer, requesting_user, format, impressions_completed, state, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Printer, r.RequestingUser, r.Format, r.ImpressionsCompleted, r.State,
		r.Created.Unix(), r.Completed.Unix(),
	)
	if err != nil {
		return fmt.Errorf("inserting job record: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO printer_counters (printer, impressions_total) VALUES (?, ?)
		 ON CONFLICT(printer) DO UPDATE SET impressions_total = impressions_total + excluded.impressions_total`,
		r.Printer, r.ImpressionsCompleted,
	)
	if err != nil {
		return fmt.Errorf("updating impression counter: %w", err)
	}

	return tx.Commit()
}

// ImpressionsTotal returns a printer's running impression counter.
func (s *Store) ImpressionsTotal(printer string) (int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT impressions_total FROM printer_counters WHERE printer = ?`, printer,
	).Scan(&total)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying impression counter: %w", err)
	}
	return total, nil
}

// RecentJobs returns the most recently completed jobs for a printer, up
// to limit, newest first.
func (s *Store) RecentJobs(printer string, limit int) ([]JobRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, printer, requesting_user, format, impressions_completed, state, created_at, completed_at
		 FROM jobs WHERE printer = ? ORDER BY completed_at DESC LIMIT ?`,
		printer, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var r JobRecord
		var created, completed int64
		if err := rows.Scan(&r.ID, &r.Printer, &r.RequestingUser, &r.Format, &r.ImpressionsCompleted, &r.State, &created, &completed); err != nil {
			return nil, fmt.Errorf("scanning job record: %w", err)
		}
		r.Created = time.Unix(created, 0)
		r.Completed = time.Unix(completed, 0)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
