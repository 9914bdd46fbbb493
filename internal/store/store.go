package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations[v] upgrades a ledger from user_version v to v+1. schema.sql
// creates the version 0 table; append here, never edit a released step.
var migrations = []string{
	// 1: lookup index for LastOutputHash.
	`CREATE INDEX IF NOT EXISTS idx_sessions_target_input ON sessions(target, input_hash, seq)`,
	// 2: rendering options become part of the determinism key.
	`ALTER TABLE sessions ADD COLUMN options_hash TEXT NOT NULL DEFAULT ''`,
	// 3: re-key the lookup index on (target, input, options).
	`DROP INDEX IF EXISTS idx_sessions_target_input;
	 CREATE INDEX IF NOT EXISTS idx_sessions_key ON sessions(target, input_hash, options_hash, seq)`,
}

// schemaVersion is the user_version of a fully migrated ledger.
var schemaVersion = len(migrations)

// Store is the session ledger.
type Store struct {
	db *sql.DB
}

// Open opens the ledger at path, creating the file when missing and
// bringing its schema up to date. The directory must exist.
//
// Batch runs record from one goroutine, so the pool holds a single
// connection; WAL lets "extract history" read while another process writes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// dsn carries the connection settings as go-sqlite3 parameters so every
// pooled connection gets them, not only the first.
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_synchronous", "NORMAL")
	q.Set("_busy_timeout", "5000")
	return path + "?" + q.Encode()
}

// Close closes the ledger. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migrate creates the base table and applies every pending migration, each
// in its own transaction together with its user_version bump.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("ledger schema version %d is newer than this binary (%d)", version, schemaVersion)
	}

	for v := version; v < schemaVersion; v++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("step %d: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("step %d: set user_version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("step %d: %w", v+1, err)
		}
	}
	return nil
}
