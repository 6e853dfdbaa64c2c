// Package scanservice coordinates storage, catalog, and decoding
// operations for the API and MCP layers.
package scanservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"golang.org/x/text/encoding"

	"github.com/nanofield/nanofield/internal/apperr"
	"github.com/nanofield/nanofield/internal/index"
	"github.com/nanofield/nanofield/internal/models"
	"github.com/nanofield/nanofield/internal/nanoscope"
	"github.com/nanofield/nanofield/internal/storage"
)

// ScanDetail is the full representation of one scan file.
type ScanDetail struct {
	Path      string               `json:"path"`
	Checksum  string               `json:"checksum"`
	Version   string               `json:"version"`
	Date      string               `json:"date,omitempty"`
	Channels  []models.ChannelInfo `json:"channels"`
	Globals   map[string]any       `json:"globals,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ScanListItem is a lightweight item in a list response.
type ScanListItem struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Version   string    `json:"version"`
	Channels  []string  `json:"channels"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChannelData is one decoded channel grid. Samples holds the raw
// signed 16-bit rows; Leveled replaces it when scanline flattening was
// requested.
type ChannelData struct {
	Name    string      `json:"name"`
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Samples [][]int16   `json:"samples,omitempty"`
	Leveled [][]float64 `json:"leveled,omitempty"`
}

// ChannelStats summarizes one decoded channel.
type ChannelStats struct {
	Name string  `json:"name"`
	Rows int     `json:"rows"`
	Cols int     `json:"cols"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Service coordinates storage, catalog, and decode operations.
type Service struct {
	store storage.Provider
	db    *index.DB
	enc   encoding.Encoding
}

// NewService creates a new scan service. enc is the header text encoding.
func NewService(store storage.Provider, db *index.DB, enc encoding.Encoding) *Service {
	return &Service{store: store, db: db, enc: enc}
}

// GetScan parses the scan header fresh from disk and enriches it with
// catalog bookkeeping (checksum, catalog timestamp).
func (s *Service) GetScan(_ context.Context, path string) (*ScanDetail, error) {
	doc, err := s.readHeader(path)
	if err != nil {
		return nil, err
	}

	detail := &ScanDetail{
		Path:     path,
		Version:  globalString(doc, "Version"),
		Date:     globalString(doc, "Date"),
		Channels: channelInfos(doc),
		Globals:  doc.Globals,
	}

	if row, _, dbErr := s.db.GetScan(path); dbErr == nil && row != nil {
		detail.Checksum = row.Checksum
		detail.UpdatedAt = row.UpdatedAt
	}
	return detail, nil
}

// ListScans returns a page of cataloged scans.
func (s *Service) ListScans(_ context.Context, limit, offset int, channel, sort string) ([]ScanListItem, int, error) {
	rows, total, err := s.db.ListScans(limit, offset, channel, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ScanListItem, 0, len(rows))
	for _, r := range rows {
		channels := r.Channels
		if channels == nil {
			channels = []string{}
		}
		items = append(items, ScanListItem{
			Path:      r.Path,
			Checksum:  r.Checksum,
			Version:   r.Version,
			Channels:  channels,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return items, total, nil
}

// Search queries the catalog's full-text index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// DecodeChannel decodes one channel of a scan. With flatten, every row is
// detrended with a least-squares polynomial of the given order and the
// result is returned as float64 rows instead of raw samples.
func (s *Service) DecodeChannel(_ context.Context, path, name string, flatten bool, order int) (*ChannelData, error) {
	grid, err := s.decode(path, name)
	if err != nil {
		return nil, err
	}

	data := &ChannelData{Name: name, Rows: grid.Rows, Cols: grid.Cols}
	if !flatten {
		data.Samples = make([][]int16, grid.Rows)
		for r := range data.Samples {
			data.Samples[r] = grid.Row(r)
		}
		return data, nil
	}

	data.Leveled = make([][]float64, grid.Rows)
	for r := range data.Leveled {
		row, err := nanoscope.FlattenRow(grid.Row(r), order)
		if err != nil {
			return nil, fmt.Errorf("scanservice: flatten row %d: %w", r, err)
		}
		data.Leveled[r] = row
	}
	return data, nil
}

// ChannelStatistics decodes a channel and reports min/max/mean, optionally
// after per-row flattening.
func (s *Service) ChannelStatistics(ctx context.Context, path, name string, flatten bool, order int) (*ChannelStats, error) {
	data, err := s.DecodeChannel(ctx, path, name, flatten, order)
	if err != nil {
		return nil, err
	}

	stats := &ChannelStats{Name: name, Rows: data.Rows, Cols: data.Cols}
	first := true
	var sum float64
	var count int
	visit := func(v float64) {
		if first {
			stats.Min, stats.Max = v, v
			first = false
		} else if v < stats.Min {
			stats.Min = v
		} else if v > stats.Max {
			stats.Max = v
		}
		sum += v
		count++
	}
	for _, row := range data.Samples {
		for _, v := range row {
			visit(float64(v))
		}
	}
	for _, row := range data.Leveled {
		for _, v := range row {
			visit(v)
		}
	}
	if count > 0 {
		stats.Mean = sum / float64(count)
	}
	return stats, nil
}

func (s *Service) readHeader(path string) (*nanoscope.Document, error) {
	abs, err := s.store.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalid, path)
	}
	doc, err := nanoscope.ReadHeader(abs, nanoscope.WithEncoding(s.enc))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) decode(path, name string) (*nanoscope.Grid, error) {
	doc, err := s.readHeader(path)
	if err != nil {
		return nil, err
	}
	f, err := s.store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
	}
	defer f.Close()
	return nanoscope.DecodeChannel(doc, name, f)
}

func globalString(doc *nanoscope.Document, key string) string {
	if s, ok := doc.Globals[key].(string); ok {
		return s
	}
	return ""
}

func channelInfos(doc *nanoscope.Document) []models.ChannelInfo {
	infos := make([]models.ChannelInfo, 0, len(doc.Channels))
	for _, name := range doc.ChannelNames() {
		cfg := doc.Channels[name]
		infos = append(infos, models.ChannelInfo{
			Name:          name,
			DataOffset:    intOrZero(cfg, "Data offset"),
			DataLength:    intOrZero(cfg, "Data length"),
			BytesPerPixel: intOrZero(cfg, "Bytes/pixel"),
			Lines:         intOrZero(cfg, "Number of lines"),
			Samples:       intOrZero(cfg, "Samps/line"),
		})
	}
	return infos
}

func intOrZero(cfg nanoscope.ChannelConfig, key string) int64 {
	n, err := cfg.IntField(key)
	if err != nil {
		return 0
	}
	return n
}
