// Package models defines the domain types for Orrery.
package models

import "time"

// Kind discriminates the two node variants.
type Kind string

// Node kinds.
const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Node is a repository tree node. It is implemented only by *File and
// *Folder; walkers switch over the two concrete types.
type Node interface {
	NodeID() string
	NodeName() string
	NodePath() string
	Kind() Kind
	isNode()
}

// File is a leaf of the repository tree, rendered as a planet.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Extension    string    `json:"extension"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Folder is an inner node of the repository tree, rendered as a star system.
// Children keeps the source order; files and folders may be mixed.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Children []Node `json:"-"`
}

func (f *File) NodeID() string   { return f.ID }
func (f *File) NodeName() string { return f.Name }
func (f *File) NodePath() string { return f.Path }
func (f *File) Kind() Kind       { return KindFile }
func (f *File) isNode()          {}

func (f *Folder) NodeID() string   { return f.ID }
func (f *Folder) NodeName() string { return f.Name }
func (f *Folder) NodePath() string { return f.Path }
func (f *Folder) Kind() Kind       { return KindFolder }
func (f *Folder) isNode()          {}

// Files returns the folder's direct file children in order.
func (f *Folder) Files() []*File {
	var out []*File
	for _, c := range f.Children {
		if file, ok := c.(*File); ok {
			out = append(out, file)
		}
	}
	return out
}

// Folders returns the folder's direct folder children in order.
func (f *Folder) Folders() []*Folder {
	var out []*Folder
	for _, c := range f.Children {
		if sub, ok := c.(*Folder); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Entry is a flat file-system listing item produced by a storage provider.
// Path is slash-separated and relative to the repository root.
type Entry struct {
	Path    string    `json:"path"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}
