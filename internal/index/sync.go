package index

import (
	"log/slog"
	"time"

	"golang.org/x/text/encoding"

	"github.com/nanofield/nanofield/internal/nanoscope"
	"github.com/nanofield/nanofield/internal/storage"
)

// Sync walks the scans directory and brings the catalog up to date:
//   - new/changed files have their headers parsed and are upserted
//   - files removed from disk are deleted from the catalog
//
// Files whose headers fail to parse (wrong version, truncated) are logged
// and skipped; one bad file never aborts the sync.
func Sync(db *DB, store storage.Provider, enc encoding.Encoding, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		if err := indexScan(db, store, enc, m.Path, m.Checksum); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteScan(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexScan parses the header of one scan file and upserts it.
func indexScan(db *DB, store storage.Provider, enc encoding.Encoding, path, checksum string) error {
	abs, err := store.Resolve(path)
	if err != nil {
		return err
	}
	doc, err := nanoscope.ReadHeader(abs, nanoscope.WithEncoding(enc))
	if err != nil {
		return err
	}

	row := ScanRow{
		Path:      path,
		Checksum:  checksum,
		Version:   globalString(doc, "Version"),
		Date:      globalString(doc, "Date"),
		UpdatedAt: time.Now().UTC(),
	}

	var channels []ChannelRow
	for _, name := range doc.ChannelNames() {
		cfg := doc.Channels[name]
		channels = append(channels, ChannelRow{
			Name:          name,
			DataOffset:    intOrZero(cfg, "Data offset"),
			DataLength:    intOrZero(cfg, "Data length"),
			BytesPerPixel: intOrZero(cfg, "Bytes/pixel"),
			Lines:         intOrZero(cfg, "Number of lines"),
			Samples:       intOrZero(cfg, "Samps/line"),
		})
	}
	return db.UpsertScan(row, channels)
}

func globalString(doc *nanoscope.Document, key string) string {
	if s, ok := doc.Globals[key].(string); ok {
		return s
	}
	return ""
}

// intOrZero records incomplete channel geometry as zero; completeness is
// validated at decode time, not catalog time.
func intOrZero(cfg nanoscope.ChannelConfig, key string) int64 {
	n, err := cfg.IntField(key)
	if err != nil {
		return 0
	}
	return n
}
