// Package storage defines the repository file-system abstraction.
package storage

import "github.com/starford/orrery/internal/models"

// Provider is the interface for repository file operations.
type Provider interface {
	// List returns every file and directory under dir (relative to the
	// repository root), skipping ignored names.
	List(dir string) ([]models.Entry, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
}
