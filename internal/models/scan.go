// Package models defines the domain types for nanofield.
package models

import "time"

// ScanMetadata is a lightweight representation of one scan file on disk,
// returned by storage list operations.
type ScanMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChannelInfo describes one image channel recorded in a scan header.
type ChannelInfo struct {
	Name          string `json:"name"`
	DataOffset    int64  `json:"data_offset"`
	DataLength    int64  `json:"data_length"`
	BytesPerPixel int64  `json:"bytes_per_pixel"`
	Lines         int64  `json:"lines"`
	Samples       int64  `json:"samples"`
}
