// Package tree builds, validates and walks repository node trees.
package tree

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/checksum"
	"github.com/starford/orrery/internal/models"
)

// RootPath is the path of the single tree root.
const RootPath = "/"

// ChildPath constructs a child path from parent + name.
func ChildPath(parentPath, name string) string {
	if parentPath == RootPath {
		return RootPath + name
	}
	return parentPath + "/" + name
}

// NewRoot returns an empty root folder.
func NewRoot() *models.Folder {
	return &models.Folder{ID: checksum.ID(RootPath), Name: "", Path: RootPath}
}

// NewFolder creates a folder under parent and appends it to parent's children.
func NewFolder(parent *models.Folder, name string) *models.Folder {
	p := ChildPath(parent.Path, name)
	f := &models.Folder{ID: checksum.ID(p), Name: name, Path: p}
	parent.Children = append(parent.Children, f)
	return f
}

// NewFile creates a file under parent and appends it to parent's children.
func NewFile(parent *models.Folder, name string, size int64) *models.File {
	p := ChildPath(parent.Path, name)
	f := &models.File{
		ID:        checksum.ID(p),
		Name:      name,
		Path:      p,
		Extension: strings.TrimPrefix(path.Ext(name), "."),
		Size:      size,
	}
	parent.Children = append(parent.Children, f)
	return f
}

// Validate checks the tree invariants: exactly one root at "/", no cycles,
// unique paths, and every child path equal to ChildPath(parent, name).
// A nil root is an empty tree and is valid.
func Validate(root *models.Folder) error {
	if root == nil {
		return nil
	}
	if root.Path != RootPath {
		return fmt.Errorf("%w: root path is %q, want %q", apperr.ErrMalformedTree, root.Path, RootPath)
	}
	seen := make(map[string]struct{})
	onStack := make(map[*models.Folder]struct{})
	return validateFolder(root, seen, onStack)
}

func validateFolder(f *models.Folder, seen map[string]struct{}, onStack map[*models.Folder]struct{}) error {
	if _, ok := onStack[f]; ok {
		return fmt.Errorf("%w: cycle through %q", apperr.ErrMalformedTree, f.Path)
	}
	if _, dup := seen[f.Path]; dup {
		return fmt.Errorf("%w: %w: %q", apperr.ErrMalformedTree, apperr.ErrDuplicatePath, f.Path)
	}
	seen[f.Path] = struct{}{}
	onStack[f] = struct{}{}
	defer delete(onStack, f)

	for _, child := range f.Children {
		if child == nil {
			return fmt.Errorf("%w: nil child under %q", apperr.ErrMalformedTree, f.Path)
		}
		name := child.NodeName()
		if name == "" || strings.Contains(name, "/") {
			return fmt.Errorf("%w: invalid name %q under %q", apperr.ErrMalformedTree, name, f.Path)
		}
		if want := ChildPath(f.Path, name); child.NodePath() != want {
			return fmt.Errorf("%w: path %q, want %q", apperr.ErrMalformedTree, child.NodePath(), want)
		}
		switch c := child.(type) {
		case *models.Folder:
			if err := validateFolder(c, seen, onStack); err != nil {
				return err
			}
		case *models.File:
			if _, dup := seen[c.Path]; dup {
				return fmt.Errorf("%w: %w: %q", apperr.ErrMalformedTree, apperr.ErrDuplicatePath, c.Path)
			}
			if c.Size < 0 {
				return fmt.Errorf("%w: negative size for %q", apperr.ErrMalformedTree, c.Path)
			}
			seen[c.Path] = struct{}{}
		}
	}
	return nil
}

// Walk visits every node depth-first in child order, passing the node's
// depth (root = 0). Returning an error stops the walk.
func Walk(root *models.Folder, fn func(n models.Node, depth int) error) error {
	if root == nil {
		return nil
	}
	return walk(root, 0, fn)
}

func walk(n models.Node, depth int, fn func(models.Node, int) error) error {
	if err := fn(n, depth); err != nil {
		return err
	}
	if f, ok := n.(*models.Folder); ok {
		for _, c := range f.Children {
			if err := walk(c, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// FindByPath resolves a path in the tree.
func FindByPath(root *models.Folder, p string) models.Node {
	if root == nil {
		return nil
	}
	if p == RootPath {
		return root
	}
	var cur models.Node = root
	for _, part := range strings.Split(strings.Trim(p, "/"), "/") {
		f, ok := cur.(*models.Folder)
		if !ok {
			return nil
		}
		var next models.Node
		for _, c := range f.Children {
			if c.NodeName() == part {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// CountNodes counts all nodes in a tree, root included.
func CountNodes(root *models.Folder) int {
	n := 0
	_ = Walk(root, func(models.Node, int) error {
		n++
		return nil
	})
	return n
}

// Descendants returns the number of nodes strictly beneath f.
func Descendants(f *models.Folder) int {
	return CountNodes(f) - 1
}

// Flatten returns all nodes in a flat map keyed by path.
func Flatten(root *models.Folder) map[string]models.Node {
	result := make(map[string]models.Node)
	_ = Walk(root, func(n models.Node, _ int) error {
		result[n.NodePath()] = n
		return nil
	})
	return result
}
