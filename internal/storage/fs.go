package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nanofield/nanofield/internal/models"
)

// DefaultExtensions are the scan file suffixes recognized when the
// configuration does not override them. Nanoscope controllers write
// either .spm or numbered suffixes (.001, .002, ...).
var DefaultExtensions = []string{".spm", ".001", ".002", ".003"}

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to the scans directory
	exts []string
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist. An empty extension list selects
// DefaultExtensions.
func NewFS(root string, exts []string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return &FS{root: abs, exts: exts}, nil
}

// Accepts reports whether name carries one of the configured scan suffixes.
func (f *FS) Accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range f.exts {
		if ext == e {
			return true
		}
	}
	return false
}

// Resolve resolves a relative path against the scans root and rejects
// any result that escapes it (directory traversal).
func (f *FS) Resolve(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes scans root: %s", rel)
	}
	return abs, nil
}

// List walks dir (relative to root) and returns metadata for every scan file.
func (f *FS) List(dir string) ([]models.ScanMetadata, error) {
	base, err := f.Resolve(dir)
	if err != nil {
		return nil, err
	}
	var out []models.ScanMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !f.Accepts(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, models.ScanMetadata{
			Path:      rel,
			Checksum:  checksum(data),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Read returns the raw bytes of a scan file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.Resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Open opens a scan file for binary seeking reads.
func (f *FS) Open(path string) (io.ReadSeekCloser, error) {
	abs, err := f.Resolve(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return file, nil
}

func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
