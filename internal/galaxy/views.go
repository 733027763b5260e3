package galaxy

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"cogentcore.org/core/math32"
	"github.com/dustin/go-humanize"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/index"
	"github.com/starford/orrery/internal/layout"
	"github.com/starford/orrery/internal/models"
	"github.com/starford/orrery/internal/tree"
)

// NodeDetail is a node's metadata together with its layout record.
type NodeDetail struct {
	ID            string               `json:"id"`
	Path          string               `json:"path"`
	Name          string               `json:"name"`
	Kind          models.Kind          `json:"kind"`
	Extension     string               `json:"extension,omitempty"`
	Size          int64                `json:"size"`
	SizeHuman     string               `json:"size_human"`
	Modified      *time.Time           `json:"modified,omitempty"`
	ModifiedHuman string               `json:"modified_human,omitempty"`
	Children      int                  `json:"children"`
	Descendants   int                  `json:"descendants"`
	Core          *layout.CoreRecord   `json:"core,omitempty"`
	Folder        *layout.FolderRecord `json:"folder,omitempty"`
	Orbit         *layout.OrbitRecord  `json:"orbit,omitempty"`
}

// ExtensionCount counts files sharing an extension.
type ExtensionCount struct {
	Extension string `json:"extension"`
	Files     int    `json:"files"`
	Bytes     int64  `json:"bytes"`
}

// Summary is a one-screen description of the galaxy.
type Summary struct {
	Version    uint64           `json:"version"`
	LoadedAt   time.Time        `json:"loaded_at"`
	Strategy   string           `json:"strategy"`
	Folders    int              `json:"folders"`
	Files      int              `json:"files"`
	Bytes      int64            `json:"bytes"`
	BytesHuman string           `json:"bytes_human"`
	MaxDepth   int              `json:"max_depth"`
	Converged  bool             `json:"converged"`
	Extensions []ExtensionCount `json:"extensions"`
}

// System is a folder's star system: the star, its sub-systems and planets.
type System struct {
	Path       string                `json:"path"`
	Center     math32.Vector3        `json:"center"`
	Radius     float32               `json:"system_radius"`
	Subsystems []layout.FolderRecord `json:"subsystems"`
	Planets    []layout.OrbitRecord  `json:"planets"`
}

// Location is a node's world position at a simulation time.
type Location struct {
	Path     string         `json:"path"`
	Kind     models.Kind    `json:"kind"`
	Position math32.Vector3 `json:"position"`
	Time     float32        `json:"time"`
	System   string         `json:"system"`
}

// SearchHit is one search result.
type SearchHit struct {
	Path    string      `json:"path"`
	Kind    models.Kind `json:"kind"`
	Name    string      `json:"name"`
	Snippet string      `json:"snippet,omitempty"`
}

// Node returns the detail view of a node.
func (s *Service) Node(_ context.Context, path string) (*NodeDetail, error) {
	snap := s.Snapshot()
	path = normalize(path)
	n, ok := snap.Nodes[path]
	if !ok {
		return nil, fmt.Errorf("galaxy: node %s: %w", path, apperr.ErrNotFound)
	}
	d := &NodeDetail{ID: n.NodeID(), Path: n.NodePath(), Name: n.NodeName(), Kind: n.Kind()}
	switch n := n.(type) {
	case *models.File:
		d.Extension = n.Extension
		d.Size = n.Size
		if !n.LastModified.IsZero() {
			mod := n.LastModified
			d.Modified = &mod
			d.ModifiedHuman = humanize.Time(mod)
		}
		if o, ok := snap.Layout.Orbit(path); ok {
			d.Orbit = &o
		}
	case *models.Folder:
		d.Children = len(n.Children)
		d.Descendants = tree.Descendants(n)
		for _, f := range n.Files() {
			d.Size += f.Size
		}
		if path == tree.RootPath {
			core := snap.Layout.Core
			d.Core = &core
		} else if f, ok := snap.Layout.Folder(path); ok {
			d.Folder = &f
		}
	}
	d.SizeHuman = humanize.Bytes(uint64(max(d.Size, 0)))
	return d, nil
}

// Summary describes the current galaxy. Extension statistics come from the
// catalogue when one is configured.
func (s *Service) Summary(_ context.Context, topExtensions int) (*Summary, error) {
	snap := s.Snapshot()
	sum := &Summary{
		Version:    snap.Version,
		LoadedAt:   snap.LoadedAt,
		Strategy:   snap.Layout.Strategy,
		Folders:    snap.Folders,
		Files:      snap.Files,
		Bytes:      snap.Bytes,
		BytesHuman: humanize.Bytes(uint64(max(snap.Bytes, 0))),
		MaxDepth:   snap.MaxDepth,
		Converged:  snap.Layout.Stats.Converged,
	}
	if topExtensions <= 0 {
		topExtensions = 10
	}
	if s.db != nil {
		stats, err := s.db.ExtensionStats(topExtensions)
		if err != nil {
			return nil, err
		}
		for _, st := range stats {
			sum.Extensions = append(sum.Extensions, ExtensionCount{Extension: st.Extension, Files: st.Files, Bytes: st.Bytes})
		}
		return sum, nil
	}
	sum.Extensions = extensionCounts(snap, topExtensions)
	return sum, nil
}

func extensionCounts(snap *Snapshot, limit int) []ExtensionCount {
	by := map[string]*ExtensionCount{}
	for _, n := range snap.Nodes {
		f, ok := n.(*models.File)
		if !ok {
			continue
		}
		c, ok := by[f.Extension]
		if !ok {
			c = &ExtensionCount{Extension: f.Extension}
			by[f.Extension] = c
		}
		c.Files++
		c.Bytes += f.Size
	}
	out := make([]ExtensionCount, 0, len(by))
	for _, c := range by {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b ExtensionCount) int {
		if a.Files != b.Files {
			return b.Files - a.Files
		}
		return cmp.Compare(a.Extension, b.Extension)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Search finds nodes by name and path. Without a catalogue it scans the
// snapshot: every query word must appear in the path.
func (s *Service) Search(_ context.Context, query string, limit int) ([]SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.db != nil {
		rows, err := s.db.Search(query, limit)
		if err != nil {
			return nil, err
		}
		return hitsFromIndex(rows), nil
	}

	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return []SearchHit{}, nil
	}
	snap := s.Snapshot()
	out := []SearchHit{}
	for p, n := range snap.Nodes {
		if p == tree.RootPath {
			continue
		}
		lp := strings.ToLower(p)
		match := true
		for _, w := range words {
			if !strings.Contains(lp, w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, SearchHit{Path: p, Kind: n.Kind(), Name: n.NodeName(), Snippet: p})
		}
	}
	slices.SortFunc(out, func(a, b SearchHit) int {
		if len(a.Path) != len(b.Path) {
			return len(a.Path) - len(b.Path)
		}
		return cmp.Compare(a.Path, b.Path)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func hitsFromIndex(rows []index.SearchResult) []SearchHit {
	out := make([]SearchHit, len(rows))
	for i, r := range rows {
		out[i] = SearchHit{Path: r.Path, Kind: r.Kind, Name: r.Name, Snippet: r.Snippet}
	}
	return out
}

// System returns a folder's star system. "/" is the galactic core.
func (s *Service) System(_ context.Context, folder string) (*System, error) {
	snap := s.Snapshot()
	folder = normalize(folder)
	center, ok := snap.Layout.Center(folder)
	if !ok {
		return nil, fmt.Errorf("galaxy: system %s: %w", folder, apperr.ErrNotFound)
	}
	sys := &System{
		Path:       folder,
		Center:     center,
		Subsystems: []layout.FolderRecord{},
		Planets:    snap.Layout.FilesOf(folder),
	}
	if folder == tree.RootPath {
		sys.Radius = snap.Layout.Core.SystemRadius
	} else {
		f, _ := snap.Layout.Folder(folder)
		sys.Radius = f.SystemRadius
	}
	for _, f := range snap.Layout.Folders {
		if f.ParentPath == folder {
			sys.Subsystems = append(sys.Subsystems, f)
		}
	}
	if sys.Planets == nil {
		sys.Planets = []layout.OrbitRecord{}
	}
	return sys, nil
}

// Locate returns where a node is at simulation time t.
func (s *Service) Locate(_ context.Context, path string, t float32) (*Location, error) {
	snap := s.Snapshot()
	path = normalize(path)
	n, ok := snap.Nodes[path]
	if !ok {
		return nil, fmt.Errorf("galaxy: node %s: %w", path, apperr.ErrNotFound)
	}
	loc := &Location{Path: path, Kind: n.Kind(), Time: t}
	switch n.(type) {
	case *models.File:
		o, _ := snap.Layout.Orbit(path)
		loc.System = o.FolderPath
		loc.Position, ok = snap.Layout.FilePosition(path, t)
	case *models.Folder:
		loc.System = path
		loc.Position, ok = snap.Layout.Center(path)
	}
	if !ok {
		return nil, fmt.Errorf("galaxy: node %s has no position: %w", path, apperr.ErrNotFound)
	}
	return loc, nil
}

// normalize accepts "src/a.go", "/src/a.go" and "" (the root).
func normalize(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return tree.RootPath
	}
	return tree.RootPath + p
}
