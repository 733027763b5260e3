package index

// Catalog defines the node catalogue operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Catalog interface {
	Upsert(n NodeRow) error
	Delete(path string) error
	Get(path string) (*NodeRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	ExtensionStats(limit int) ([]ExtensionStat, error)
	Counts() (Counts, error)
	AllStamps() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)
