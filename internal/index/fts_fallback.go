//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback on nodes.path.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _ string) error {
	return nil
}

func ftsDelete(_ execer, _ string) {}

// Search performs a LIKE-based path search (fallback when FTS5 is not
// compiled in). Every query term must appear in the path; shorter paths
// rank first.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	where := make([]string, len(terms))
	args := make([]any, 0, len(terms)+1)
	for i, t := range terms {
		where[i] = "path LIKE ?"
		args = append(args, "%"+t+"%")
	}
	args = append(args, limit)

	rows, err := db.conn.Query(`
		SELECT path, kind, name, path
		FROM nodes
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY length(path), path
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}
