package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ScanRow represents a row in the scans table.
type ScanRow struct {
	Path      string
	Checksum  string
	Version   string
	Date      string
	Channels  []string
	UpdatedAt time.Time
}

// ChannelRow represents one image channel of a cataloged scan.
type ChannelRow struct {
	Name          string
	DataOffset    int64
	DataLength    int64
	BytesPerPixel int64
	Lines         int64
	Samples       int64
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path     string
	Version  string
	Channels []string
}

// UpsertScan inserts or replaces a scan, its channels, and its FTS entry
// within a transaction.
func (db *DB) UpsertScan(row ScanRow, channels []ChannelRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		names = append(names, ch.Name)
	}
	namesJSON, _ := json.Marshal(names)

	_, err = tx.Exec(`
		INSERT INTO scans (path, checksum, version, date, channels, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			version    = excluded.version,
			date       = excluded.date,
			channels   = excluded.channels,
			updated_at = excluded.updated_at
	`, row.Path, row.Checksum, row.Version, row.Date, string(namesJSON), row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert scan: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Path, row.Version, row.Date, names); err != nil {
		return err
	}

	// Replace channels: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM channels WHERE scan_path = ?`, row.Path)
	if len(channels) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO channels
				(scan_path, name, data_offset, data_length, bytes_per_pixel, lines, samples)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare channel insert: %w", err)
		}
		defer stmt.Close()
		for _, ch := range channels {
			if _, err := stmt.Exec(row.Path, ch.Name, ch.DataOffset, ch.DataLength,
				ch.BytesPerPixel, ch.Lines, ch.Samples); err != nil {
				return fmt.Errorf("index: insert channel: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteScan removes a scan, its channels, and its FTS entry.
func (db *DB) DeleteScan(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM channels WHERE scan_path = ?`, path)
	_, _ = tx.Exec(`DELETE FROM scans WHERE path = ?`, path)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a scan, or empty string if
// not cataloged.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM scans WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetScan returns one cataloged scan and its channels, or (nil, nil, nil)
// when the path is not cataloged.
func (db *DB) GetScan(path string) (*ScanRow, []ChannelRow, error) {
	var row ScanRow
	var namesJSON string
	err := db.conn.QueryRow(`
		SELECT path, checksum, version, date, channels, updated_at
		FROM scans WHERE path = ?`, path).
		Scan(&row.Path, &row.Checksum, &row.Version, &row.Date, &namesJSON, &row.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("index: get scan: %w", err)
	}
	_ = json.Unmarshal([]byte(namesJSON), &row.Channels)

	rows, err := db.conn.Query(`
		SELECT name, data_offset, data_length, bytes_per_pixel, lines, samples
		FROM channels WHERE scan_path = ? ORDER BY name`, path)
	if err != nil {
		return nil, nil, fmt.Errorf("index: get channels: %w", err)
	}
	defer rows.Close()

	var channels []ChannelRow
	for rows.Next() {
		var ch ChannelRow
		if err := rows.Scan(&ch.Name, &ch.DataOffset, &ch.DataLength,
			&ch.BytesPerPixel, &ch.Lines, &ch.Samples); err != nil {
			return nil, nil, err
		}
		channels = append(channels, ch)
	}
	return &row, channels, rows.Err()
}

// ListScans returns a page of cataloged scans, optionally filtered to
// those carrying the named channel, plus the unpaged total.
func (db *DB) ListScans(limit, offset int, channel, sort string) ([]ScanRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	var args []any
	if channel != "" {
		where = `WHERE path IN (SELECT scan_path FROM channels WHERE name = ?)`
		args = append(args, channel)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM scans `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count scans: %w", err)
	}

	order := "updated_at DESC"
	switch sort {
	case "path":
		order = "path ASC"
	case "version":
		order = "version ASC, path ASC"
	}

	query := fmt.Sprintf(`
		SELECT path, checksum, version, date, channels, updated_at
		FROM scans %s ORDER BY %s LIMIT ? OFFSET ?`, where, order)
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list scans: %w", err)
	}
	defer rows.Close()

	var out []ScanRow
	for rows.Next() {
		var r ScanRow
		var namesJSON string
		if err := rows.Scan(&r.Path, &r.Checksum, &r.Version, &r.Date, &namesJSON, &r.UpdatedAt); err != nil {
			return nil, 0, err
		}
		_ = json.Unmarshal([]byte(namesJSON), &r.Channels)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// AllPaths returns every cataloged scan path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM scans`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every cataloged scan.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM scans`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
