package index

import "context"

// Result is one search hit.
type Result struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Snippet  string `json:"snippet"`
}

// Searcher answers full-text queries over the projects of the current
// catalog. Consumers should depend on this interface rather than *DB.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Verify *DB satisfies Searcher at compile time.
var _ Searcher = (*DB)(nil)

const (
	defaultLimit = 20
	maxLimit     = 50
)

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	}
	return limit
}
