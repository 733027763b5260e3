package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/models"
)

// NodeRow represents a row in the nodes table.
type NodeRow struct {
	Path      string
	Kind      models.Kind
	Name      string
	Parent    string
	Extension string
	Size      int64
	Depth     int
	Modified  time.Time
	// Stamp changes whenever the node's metadata changes; Sync skips rows
	// whose stamp is unchanged.
	Stamp string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string
	Kind    models.Kind
	Name    string
	Snippet string
}

// ExtensionStat counts files sharing an extension.
type ExtensionStat struct {
	Extension string
	Files     int
	Bytes     int64
}

// Counts summarises the catalogue.
type Counts struct {
	Files   int
	Folders int
	Bytes   int64
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Upsert inserts or replaces a node and its FTS entry within a transaction.
func (db *DB) Upsert(n NodeRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := upsert(tx, n); err != nil {
		return err
	}
	return tx.Commit()
}

func upsert(tx *sql.Tx, n NodeRow) error {
	var modified any
	if !n.Modified.IsZero() {
		modified = n.Modified.UTC()
	}
	_, err := tx.Exec(`
		INSERT INTO nodes (path, kind, name, parent, extension, size, depth, modified, stamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind      = excluded.kind,
			name      = excluded.name,
			parent    = excluded.parent,
			extension = excluded.extension,
			size      = excluded.size,
			depth     = excluded.depth,
			modified  = excluded.modified,
			stamp     = excluded.stamp
	`, n.Path, string(n.Kind), n.Name, n.Parent, n.Extension, n.Size, n.Depth, modified, n.Stamp)
	if err != nil {
		return fmt.Errorf("index: upsert node: %w", err)
	}
	// FTS upsert (no-op when FTS5 tag is absent).
	return ftsUpsert(tx, n.Path, n.Name)
}

// Delete removes a node and its FTS entry.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	remove(tx, path)
	return tx.Commit()
}

func remove(tx execer, path string) {
	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM nodes WHERE path = ?`, path)
}

// Get returns one node, or apperr.ErrNotFound.
func (db *DB) Get(path string) (*NodeRow, error) {
	var (
		n        NodeRow
		kind     string
		modified sql.NullTime
	)
	err := db.conn.QueryRow(`
		SELECT path, kind, name, parent, extension, size, depth, modified, stamp
		FROM nodes WHERE path = ?
	`, path).Scan(&n.Path, &kind, &n.Name, &n.Parent, &n.Extension, &n.Size, &n.Depth, &modified, &n.Stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: node %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get node: %w", err)
	}
	n.Kind = models.Kind(kind)
	if modified.Valid {
		n.Modified = modified.Time
	}
	return &n, nil
}

// ExtensionStats returns file counts per extension, most common first.
// Files without an extension are grouped under "".
func (db *DB) ExtensionStats(limit int) ([]ExtensionStat, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT extension, count(*), coalesce(sum(size), 0)
		FROM nodes
		WHERE kind = ?
		GROUP BY extension
		ORDER BY count(*) DESC, extension ASC
		LIMIT ?
	`, string(models.KindFile), limit)
	if err != nil {
		return nil, fmt.Errorf("index: extension stats: %w", err)
	}
	defer rows.Close()

	var out []ExtensionStat
	for rows.Next() {
		var s ExtensionStat
		if err := rows.Scan(&s.Extension, &s.Files, &s.Bytes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Counts returns node totals.
func (db *DB) Counts() (Counts, error) {
	var c Counts
	err := db.conn.QueryRow(`
		SELECT
			coalesce(sum(CASE WHEN kind = 'file' THEN 1 ELSE 0 END), 0),
			coalesce(sum(CASE WHEN kind = 'folder' THEN 1 ELSE 0 END), 0),
			coalesce(sum(size), 0)
		FROM nodes
	`).Scan(&c.Files, &c.Folders, &c.Bytes)
	if err != nil {
		return Counts{}, fmt.Errorf("index: counts: %w", err)
	}
	return c, nil
}

// AllStamps returns the stamp of every indexed node keyed by path.
func (db *DB) AllStamps() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, stamp FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("index: all stamps: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, s string
		if err := rows.Scan(&p, &s); err != nil {
			return nil, err
		}
		out[p] = s
	}
	return out, rows.Err()
}
