// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY SQLITE?
// The whole app is one server with a few hundred participants at most.
// An embedded database means one binary and one file to back up, and
// ":memory:" gives every test its own throwaway database.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary
// builds without a C toolchain.
//
// ONE CONNECTION:
// SQLite allows a single writer at a time. We cap the pool at one
// connection, which serialises every statement issued by this process.
// Two requests marking the same period therefore cannot interleave inside
// ApplyMark; the conditional UPDATE there still guards against a second
// process sharing the file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps the sql.DB pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath, applies PRAGMAs and runs
// migrations.
//
// dbPath examples:
//   - "data/checkins.db" → file-based database, parent directory is created
//   - ":memory:"         → in-memory database, gone when closed
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating data directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// A ":memory:" database lives inside one connection. More than one open
	// connection would mean more than one empty database.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Callers defer it right after New.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. Every statement is idempotent.
//
// Dates are TEXT "YYYY-MM-DD": they compare correctly as strings, so
// "date BETWEEN ? AND ?" needs no date functions. Period outcomes are
// nullable integers: NULL = not checked, 1 = safe, 0 = failed.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL DEFAULT '',
			github_id     INTEGER UNIQUE,
			avatar_url    TEXT NOT NULL DEFAULT '',
			failed_at     TEXT,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// One row per user per day. The UNIQUE constraint is what makes the
	// lazy "create today's record" race-safe.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS check_ins (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			date       TEXT NOT NULL,
			morning    INTEGER CHECK (morning IN (0, 1)),
			afternoon  INTEGER CHECK (afternoon IN (0, 1)),
			evening    INTEGER CHECK (evening IN (0, 1)),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, date)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating check_ins table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE INDEX IF NOT EXISTS idx_check_ins_date ON check_ins(date);
	`)
	if err != nil {
		return fmt.Errorf("creating check_ins date index: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
