package tree

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/models"
)

// FromEntries builds a tree from a flat storage listing. Entry paths are
// relative to the repository root; missing intermediate folders are created.
// Children are ordered folders first, then files, each group by name, so the
// result does not depend on listing order.
func FromEntries(entries []models.Entry) (*models.Folder, error) {
	root := NewRoot()
	folders := map[string]*models.Folder{RootPath: root}
	files := make(map[string]struct{})

	sorted := make([]models.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var ensure func(p string) (*models.Folder, error)
	ensure = func(p string) (*models.Folder, error) {
		if f, ok := folders[p]; ok {
			return f, nil
		}
		if _, isFile := files[p]; isFile {
			return nil, fmt.Errorf("%w: %w: %q is both file and folder", apperr.ErrMalformedTree, apperr.ErrDuplicatePath, p)
		}
		parent, err := ensure(path.Dir(p))
		if err != nil {
			return nil, err
		}
		f := NewFolder(parent, path.Base(p))
		folders[p] = f
		return f, nil
	}

	for _, e := range sorted {
		rel := strings.Trim(path.Clean("/"+strings.TrimSpace(e.Path)), "/")
		if rel == "" {
			continue
		}
		p := RootPath + rel
		if e.IsDir {
			if _, err := ensure(p); err != nil {
				return nil, err
			}
			continue
		}
		if _, dup := files[p]; dup {
			return nil, fmt.Errorf("%w: %w: %q", apperr.ErrMalformedTree, apperr.ErrDuplicatePath, p)
		}
		if _, isDir := folders[p]; isDir {
			return nil, fmt.Errorf("%w: %w: %q is both file and folder", apperr.ErrMalformedTree, apperr.ErrDuplicatePath, p)
		}
		parent, err := ensure(path.Dir(p))
		if err != nil {
			return nil, err
		}
		f := NewFile(parent, path.Base(p), e.Size)
		f.LastModified = e.ModTime
		files[p] = struct{}{}
	}

	SortChildren(root)
	return root, nil
}

// SortChildren orders every folder's children: folders first, then files,
// each group by name.
func SortChildren(root *models.Folder) {
	_ = Walk(root, func(n models.Node, _ int) error {
		f, ok := n.(*models.Folder)
		if !ok {
			return nil
		}
		sort.SliceStable(f.Children, func(i, j int) bool {
			a, b := f.Children[i], f.Children[j]
			if a.Kind() != b.Kind() {
				return a.Kind() == models.KindFolder
			}
			return a.NodeName() < b.NodeName()
		})
		return nil
	})
}
