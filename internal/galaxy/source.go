package galaxy

import (
	"fmt"
	"os"

	"github.com/starford/orrery/internal/models"
	"github.com/starford/orrery/internal/parser"
	"github.com/starford/orrery/internal/storage"
	"github.com/starford/orrery/internal/tree"
)

// Source loads a repository tree. A nil tree is an empty repository.
type Source interface {
	Load() (*models.Folder, error)
	Describe() string
}

// DirSource lists a repository directory through a storage provider.
type DirSource struct {
	Store storage.Provider
	Label string
}

// Load lists the whole repository and builds the tree.
func (s DirSource) Load() (*models.Folder, error) {
	entries, err := s.Store.List("")
	if err != nil {
		return nil, err
	}
	return tree.FromEntries(entries)
}

// Describe names the source for logs.
func (s DirSource) Describe() string {
	return "dir:" + s.Label
}

// ManifestSource reads a YAML or JSON manifest file.
type ManifestSource struct {
	Path string
}

// Load reads and parses the manifest.
func (s ManifestSource) Load() (*models.Folder, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("galaxy: read manifest: %w", err)
	}
	return parser.Parse(data)
}

// Describe names the source for logs.
func (s ManifestSource) Describe() string {
	return "manifest:" + s.Path
}
