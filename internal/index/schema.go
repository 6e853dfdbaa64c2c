// Package index provides the SQLite-backed scan catalog with optional
// FTS5 full-text search over header metadata.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS scans (
	path       TEXT PRIMARY KEY,
	checksum   TEXT NOT NULL DEFAULT '',
	version    TEXT NOT NULL DEFAULT '',
	date       TEXT NOT NULL DEFAULT '',
	channels   TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS channels (
	scan_path       TEXT NOT NULL,
	name            TEXT NOT NULL,
	data_offset     INTEGER NOT NULL DEFAULT 0,
	data_length     INTEGER NOT NULL DEFAULT 0,
	bytes_per_pixel INTEGER NOT NULL DEFAULT 0,
	lines           INTEGER NOT NULL DEFAULT 0,
	samples         INTEGER NOT NULL DEFAULT 0,
	UNIQUE(scan_path, name)
);

CREATE INDEX IF NOT EXISTS idx_channels_scan ON channels(scan_path);
`

// DB wraps a sql.DB with catalog-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite catalog and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
