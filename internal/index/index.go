package index

// ScanIndex defines the interface for catalog operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type ScanIndex interface {
	UpsertScan(row ScanRow, channels []ChannelRow) error
	DeleteScan(path string) error
	GetChecksum(path string) (string, error)
	GetScan(path string) (*ScanRow, []ChannelRow, error)
	ListScans(limit, offset int, channel, sort string) ([]ScanRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ScanIndex at compile time.
var _ ScanIndex = (*DB)(nil)
