// Package testutil provides shared test helpers: temporary catalogs, scan
// directories, and a synthetic Nanoscope file builder.
package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nanofield/nanofield/internal/index"
	"github.com/nanofield/nanofield/internal/storage"
)

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "nanofield-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestScanDir creates a temporary scans directory with a storage.Provider.
func TestScanDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Channel describes one synthetic image channel for WriteScan.
type Channel struct {
	Name string
	Rows int
	Cols int
	// Data is optional; when nil a deterministic ramp is generated.
	Data []int16
}

// dataStart is where WriteScan places the first channel's binary payload.
const dataStart = 1024

// ScanBytes builds a complete synthetic Nanoscope file image: a cp1252
// text header describing the given channels followed by their int16
// little-endian payloads at sequential offsets starting at dataStart.
func ScanBytes(t *testing.T, channels ...Channel) []byte {
	t.Helper()

	var header bytes.Buffer
	header.WriteString("\\*File list\r\n")
	header.WriteString("\\Version: 0x05120130\r\n")
	header.WriteString("\\Date: 03:45:18 PM Thu Aug 27 2026\r\n")
	header.WriteString("\\*Ciao scan list\r\n")
	header.WriteString("\\Scan size: 2000 nm\r\n")
	header.WriteString("\\Lines: 256\r\n")

	offset := int64(dataStart)
	for _, ch := range channels {
		length := int64(ch.Rows) * int64(ch.Cols) * 2
		header.WriteString("\\*Ciao image list\r\n")
		fmt.Fprintf(&header, "\\Data offset: %d\r\n", offset)
		fmt.Fprintf(&header, "\\Data length: %d\r\n", length)
		header.WriteString("\\Bytes/pixel: 2\r\n")
		fmt.Fprintf(&header, "\\Number of lines: %d\r\n", ch.Rows)
		fmt.Fprintf(&header, "\\Samps/line: %d\r\n", ch.Cols)
		fmt.Fprintf(&header, "\\@2:Image Data: S [%s] \"%s\"\r\n", ch.Name, ch.Name)
		offset += length
	}
	header.WriteString("\\*File list end\r\n")

	if header.Len() > dataStart {
		t.Fatalf("synthetic header is %d bytes, exceeds data start %d", header.Len(), dataStart)
	}

	out := make([]byte, offset)
	copy(out, header.Bytes())

	pos := dataStart
	for _, ch := range channels {
		data := ch.Data
		if data == nil {
			data = make([]int16, ch.Rows*ch.Cols)
			for i := range data {
				data[i] = int16(i % 1000)
			}
		}
		if len(data) != ch.Rows*ch.Cols {
			t.Fatalf("channel %s: %d samples for %d×%d grid", ch.Name, len(data), ch.Rows, ch.Cols)
		}
		for _, v := range data {
			binary.LittleEndian.PutUint16(out[pos:], uint16(v))
			pos += 2
		}
	}
	return out
}

// WriteScan writes a synthetic scan file into dir and returns its name.
func WriteScan(t *testing.T, dir, name string, channels ...Channel) string {
	t.Helper()
	full := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, ScanBytes(t, channels...), 0o644); err != nil {
		t.Fatal(err)
	}
	return name
}
