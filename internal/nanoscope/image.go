package nanoscope

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// sampleSize is the byte width of one sample. The format always stores
// signed 16-bit little-endian integers; a header declaring any other
// "Bytes/pixel" is rejected rather than decoded at the wrong width.
const sampleSize = 2

// Grid is a decoded sample grid: Rows×Cols signed 16-bit samples in
// raw (uncalibrated) units, row-major.
type Grid struct {
	Rows int
	Cols int
	Data []int16
}

// At returns the sample at row r, column c.
func (g *Grid) At(r, c int) int16 {
	return g.Data[r*g.Cols+c]
}

// Row returns row r as a subslice of the grid's backing data.
func (g *Grid) Row(r int) []int16 {
	return g.Data[r*g.Cols : (r+1)*g.Cols]
}

// DecodeChannel decodes the named channel's sample grid from rs using the
// geometry stored in doc. The decoder seeks to the channel's data offset,
// reads exactly its data length, and reshapes the samples into
// rows×columns. It never caches: repeated calls re-seek and re-decode.
func DecodeChannel(doc *Document, name string, rs io.ReadSeeker) (*Grid, error) {
	switch name {
	case ChannelHeight, ChannelAmplitude, ChannelPhase:
	default:
		return nil, fmt.Errorf("nanoscope: channel %q: %w", name, ErrUnsupportedChannel)
	}
	cfg, ok := doc.Channels[name]
	if !ok {
		return nil, fmt.Errorf("nanoscope: channel %q: %w", name, ErrChannelNotPresent)
	}

	offset, err := cfg.IntField("Data offset")
	if err != nil {
		return nil, err
	}
	length, err := cfg.IntField("Data length")
	if err != nil {
		return nil, err
	}
	bpp, err := cfg.IntField("Bytes/pixel")
	if err != nil {
		return nil, err
	}
	rows, err := cfg.IntField("Number of lines")
	if err != nil {
		return nil, err
	}
	cols, err := cfg.IntField("Samps/line")
	if err != nil {
		return nil, err
	}

	if bpp != sampleSize {
		return nil, fmt.Errorf("nanoscope: channel %q declares %d bytes/pixel, only %d supported: %w",
			name, bpp, sampleSize, ErrMalformedConfig)
	}
	if length < 0 || offset < 0 || rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("nanoscope: channel %q has negative or zero geometry: %w",
			name, ErrMalformedConfig)
	}
	count := length / bpp
	if count*bpp != length || count != rows*cols {
		return nil, fmt.Errorf("nanoscope: channel %q: %d bytes / %d bytes per sample != %d×%d: %w",
			name, length, bpp, rows, cols, ErrShapeMismatch)
	}

	if _, err := rs.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("nanoscope: seek to %d: %w", offset, err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(rs, buf); err != nil {
		return nil, fmt.Errorf("nanoscope: read %d bytes at %d: %w", length, offset, err)
	}

	data := make([]int16, count)
	for i := range data {
		data[i] = int16(binary.LittleEndian.Uint16(buf[i*sampleSize:]))
	}
	return &Grid{Rows: int(rows), Cols: int(cols), Data: data}, nil
}

// DecodeChannel reopens the Document's source file in binary mode and
// decodes the named channel. The handle is released before returning,
// so decode calls for different channels may interleave freely.
func (d *Document) DecodeChannel(name string) (*Grid, error) {
	if d.path == "" {
		return nil, fmt.Errorf("nanoscope: document has no source file: %w", ErrChannelNotPresent)
	}
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("nanoscope: open %s: %w", d.path, err)
	}
	defer f.Close()
	return DecodeChannel(d, name, f)
}

// IntField reads an integer configuration value, accepting integral
// floats the tokenizer may have produced.
func (c ChannelConfig) IntField(key string) (int64, error) {
	v, ok := c[key]
	if !ok {
		return 0, fmt.Errorf("nanoscope: channel config missing %q: %w", key, ErrMalformedConfig)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		if n == math.Trunc(n) {
			return int64(n), nil
		}
	}
	return 0, fmt.Errorf("nanoscope: channel config %q = %v is not an integer: %w",
		key, v, ErrMalformedConfig)
}
