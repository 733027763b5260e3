//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS nodes_fts USING fts5(
			path UNINDEXED,
			name,
			terms,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, path, name string) error {
	_, _ = tx.Exec(`DELETE FROM nodes_fts WHERE path = ?`, path)
	_, err := tx.Exec(`INSERT INTO nodes_fts (path, name, terms) VALUES (?, ?, ?)`,
		path, name, strings.Join(searchTerms(path), " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx execer, path string) {
	_, _ = tx.Exec(`DELETE FROM nodes_fts WHERE path = ?`, path)
}

// Search performs an FTS5 prefix search over node names and path segments.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	terms := searchTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	match := make([]string, len(terms))
	for i, t := range terms {
		match[i] = `"` + t + `"*`
	}
	rows, err := db.conn.Query(`
		SELECT n.path,
		       n.kind,
		       n.name,
		       highlight(nodes_fts, 1, '<b>', '</b>')
		FROM nodes_fts
		JOIN nodes n ON n.path = nodes_fts.path
		WHERE nodes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, strings.Join(match, " "), limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()
	return scanResults(rows)
}
