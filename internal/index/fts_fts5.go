//go:build sqlite_fts5

package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS scans_fts USING fts5(
			path,
			version,
			date,
			channels,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, version, date string, channels []string) error {
	_, _ = tx.Exec(`DELETE FROM scans_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO scans_fts (path, version, date, channels) VALUES (?, ?, ?, ?)`,
		path, version, date, strings.Join(channels, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, path string) {
	_, _ = tx.Exec(`DELETE FROM scans_fts WHERE path = ?`, path)
}

// Search performs an FTS5 full-text search over scan metadata.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.path, f.version, s.channels
		FROM scans_fts f
		JOIN scans s ON s.path = f.path
		WHERE scans_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
