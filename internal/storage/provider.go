// Package storage defines the scan-directory file-system abstraction.
package storage

import (
	"io"

	"github.com/nanofield/nanofield/internal/models"
)

// Provider is the interface for scan file access. Scan files are never
// written by the service; the surface is read-only.
type Provider interface {
	// List returns metadata for every scan file under dir (relative to the
	// scans root).
	List(dir string) ([]models.ScanMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Open opens the file at path for seeking binary reads. The caller
	// owns the returned handle.
	Open(path string) (io.ReadSeekCloser, error)
	// Resolve returns the absolute path for a root-relative path, rejecting
	// traversal outside the root.
	Resolve(path string) (string, error)
	// Accepts reports whether a file name looks like a scan file.
	Accepts(name string) bool
}
