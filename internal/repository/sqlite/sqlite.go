// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. It is the default
// backend for local development and for tests (":memory:" gives each test a fresh DB).
// Production deployments that already run MongoDB can switch with STORE_DRIVER=mongo.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go translation
// of the SQLite C code.
//
// DATABASE/SQL OVERVIEW:
//   - sql.DB      : a connection pool (NOT a single connection!)
//   - sql.Row     : a single result row
//   - sql.Rows    : multiple result rows (must be closed!)
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The sqlite package's init() registers a database/sql driver named "sqlite".
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements repository.ContentRepository (see content.go).
type DB struct {
	conn *sql.DB
}

// New opens a SQLite database and runs migrations.
//
// dbPath examples:
//   - "data/content.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
//
// ONE CONNECTION:
// Every new connection to ":memory:" is a brand-new empty database, and SQLite
// serialises writers anyway. Capping the pool at one connection keeps tests and
// production on the same single database and avoids "database is locked" errors.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Ping forces a real connection so a bad path surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE ... IF NOT EXISTS is idempotent, so this is
// safe on every startup.
//
// TIMESTAMPS AS INTEGERS:
// created_at holds Unix nanoseconds in UTC. The duplicate check compares
// "created_at > ?" and listings sort on it; integers compare exactly, while
// formatted time strings with mixed offsets and fractional seconds do not.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contents (
			id          TEXT PRIMARY KEY,
			topic       TEXT NOT NULL,
			type        TEXT NOT NULL,
			content     TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT '',
			is_favorite INTEGER NOT NULL DEFAULT 0,
			created_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_contents_created_at ON contents(created_at);
		CREATE INDEX IF NOT EXISTS idx_contents_favorite ON contents(is_favorite, created_at);
		CREATE INDEX IF NOT EXISTS idx_contents_topic_type ON contents(topic, type, created_at);
	`)
	if err != nil {
		return fmt.Errorf("creating contents table: %w", err)
	}

	return nil
}
