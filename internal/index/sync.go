package index

import (
	"database/sql"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"unicode"

	"github.com/starford/orrery/internal/models"
	"github.com/starford/orrery/internal/tree"
)

// SyncResult reports what a Sync changed.
type SyncResult struct {
	Upserted  int
	Deleted   int
	Unchanged int
}

// Sync brings the catalogue in line with a tree in one transaction:
//   - new/changed nodes are upserted
//   - nodes missing from the tree are deleted
//
// The root folder itself is not catalogued.
func Sync(db *DB, root *models.Folder, logger *slog.Logger) (SyncResult, error) {
	var res SyncResult
	stamps, err := db.AllStamps()
	if err != nil {
		return res, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return res, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	seen := make(map[string]struct{}, len(stamps))
	for _, row := range Rows(root) {
		seen[row.Path] = struct{}{}
		if s, ok := stamps[row.Path]; ok && s == row.Stamp {
			res.Unchanged++
			continue
		}
		if err := upsert(tx, row); err != nil {
			return res, err
		}
		res.Upserted++
	}

	// Remove stale entries.
	for p := range stamps {
		if _, ok := seen[p]; !ok {
			remove(tx, p)
			res.Deleted++
			logger.Debug("sync: removed stale", slog.String("path", p))
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("index: commit sync: %w", err)
	}
	logger.Info("sync: catalogue updated",
		slog.Int("upserted", res.Upserted),
		slog.Int("deleted", res.Deleted),
		slog.Int("unchanged", res.Unchanged))
	return res, nil
}

// Rows flattens a tree into catalogue rows, parents before children.
func Rows(root *models.Folder) []NodeRow {
	var out []NodeRow
	_ = tree.Walk(root, func(n models.Node, depth int) error {
		if depth == 0 {
			return nil
		}
		row := NodeRow{
			Path:   n.NodePath(),
			Kind:   n.Kind(),
			Name:   n.NodeName(),
			Parent: parentPath(n.NodePath()),
			Depth:  depth,
		}
		if f, ok := n.(*models.File); ok {
			row.Extension = f.Extension
			row.Size = f.Size
			row.Modified = f.LastModified
		}
		row.Stamp = stamp(row)
		out = append(out, row)
		return nil
	})
	return out
}

func parentPath(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return tree.RootPath
	}
	return dir
}

func stamp(r NodeRow) string {
	var mod int64
	if !r.Modified.IsZero() {
		mod = r.Modified.UnixNano()
	}
	return fmt.Sprintf("%s:%d:%d", r.Kind, r.Size, mod)
}

// searchTerms lower-cases s and splits it into letter/digit runs, so
// "internal/layout/spiral.go" yields internal, layout, spiral, go.
func searchTerms(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	var out []SearchResult
	for rows.Next() {
		var (
			r    SearchResult
			kind string
		)
		if err := rows.Scan(&r.Path, &kind, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		r.Kind = models.Kind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}
