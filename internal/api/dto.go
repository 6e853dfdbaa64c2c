package api

import (
	"github.com/nanofield/nanofield/internal/scanservice"
)

// ScanDetail is the full scan response type (aliased from the domain layer).
type ScanDetail = scanservice.ScanDetail

// ScanListItem is a lightweight item in a list response (aliased from the domain layer).
type ScanListItem = scanservice.ScanListItem

// ChannelData is the decoded-grid response type (aliased from the domain layer).
type ChannelData = scanservice.ChannelData

// ScanListResponse wraps paginated scan listings.
type ScanListResponse struct {
	Scans []ScanListItem `json:"scans"`
	Total int            `json:"total"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path     string   `json:"path"`
	Version  string   `json:"version"`
	Channels []string `json:"channels"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
