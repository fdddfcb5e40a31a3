// Package sqlite provides a SQLite-backed page cache for novelsrc fetchers.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fwojciec/novelsrc"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// schemaVersion is stored in PRAGMA user_version. A cache written with a
// different version is dropped and recreated on Open.
const schemaVersion = 1

const schema = `
	CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		final_url TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL DEFAULT '',
		fetched_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at);
`

// DB is the cache database.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB returns a DB for the file at path. Use ":memory:" for a cache that
// lives only as long as the process.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open connects to the database and prepares the schema.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return novelsrc.WrapError(novelsrc.EINTERNAL, err, "open cache %s", db.path)
	}
	// One connection serializes writers from concurrent episode downloads.
	conn.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if db.path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return novelsrc.WrapError(novelsrc.EINTERNAL, err, "open cache %s: %s", db.path, p)
		}
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return novelsrc.WrapError(novelsrc.EINTERNAL, err, "open cache %s: schema", db.path)
	}

	db.db = conn
	return nil
}

// migrate creates the schema, discarding cached pages from other versions.
func migrate(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version != 0 && version != schemaVersion {
		if _, err := conn.Exec("DROP TABLE IF EXISTS pages"); err != nil {
			return err
		}
	}
	if _, err := conn.Exec(schema); err != nil {
		return err
	}
	// PRAGMA arguments cannot be bound.
	_, err := conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}
