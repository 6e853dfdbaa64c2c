//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback on the scans table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error {
	// Metadata is already stored in the scans table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT path, version, channels
		FROM scans
		WHERE path LIKE ? OR version LIKE ? OR date LIKE ? OR channels LIKE ?
		LIMIT ?
	`, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var namesJSON string
		if err := rows.Scan(&r.Path, &r.Version, &namesJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(namesJSON), &r.Channels)
		out = append(out, r)
	}
	return out, rows.Err()
}
