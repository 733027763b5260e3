// Package parser converts an external repository manifest into a node tree.
//
// A manifest is YAML (or JSON, which YAML accepts) describing the tree:
//
//	name: my-repo
//	children:
//	  - name: src
//	    children:
//	      - name: main.go
//	        size: 1200
//	        modified: 2024-05-01T10:00:00Z
//	  - name: README.md
//	    size: 300
//
// An entry is a folder when it has a children key or type: folder.
package parser

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/models"
	"github.com/starford/orrery/internal/tree"
)

type manifestNode struct {
	Name     string          `yaml:"name"`
	Type     string          `yaml:"type"`
	Size     int64           `yaml:"size"`
	Modified time.Time       `yaml:"modified"`
	Children []*manifestNode `yaml:"children"`
}

func (n *manifestNode) isFolder() bool {
	return n.Type == string(models.KindFolder) || n.Children != nil
}

// Parse decodes a manifest and returns the validated tree. Empty input
// yields a nil tree and no error.
func Parse(data []byte) (*models.Folder, error) {
	var doc manifestNode
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parser: decode manifest: %w", err)
	}
	if doc.Name == "" && doc.Children == nil && doc.Type == "" {
		return nil, nil
	}
	if doc.Type == string(models.KindFile) {
		return nil, fmt.Errorf("%w: manifest root must be a folder", apperr.ErrMalformedTree)
	}

	root := tree.NewRoot()
	root.Name = doc.Name
	if err := build(root, doc.Children); err != nil {
		return nil, err
	}
	if err := tree.Validate(root); err != nil {
		return nil, err
	}
	return root, nil
}

func build(parent *models.Folder, children []*manifestNode) error {
	for _, c := range children {
		if c == nil || c.Name == "" {
			return fmt.Errorf("%w: unnamed entry under %q", apperr.ErrMalformedTree, parent.Path)
		}
		if c.isFolder() {
			if c.Type == string(models.KindFile) {
				return fmt.Errorf("%w: file %q has children", apperr.ErrMalformedTree, c.Name)
			}
			f := tree.NewFolder(parent, c.Name)
			if err := build(f, c.Children); err != nil {
				return err
			}
			continue
		}
		if c.Size < 0 {
			return fmt.Errorf("%w: negative size for %q", apperr.ErrMalformedTree, c.Name)
		}
		f := tree.NewFile(parent, c.Name, c.Size)
		f.LastModified = c.Modified
	}
	return nil
}
