package galaxy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/starford/orrery/internal/apperr"
	"github.com/starford/orrery/internal/checksum"
	"github.com/starford/orrery/internal/models"
)

// FileContent is a repository file as served to the editor.
type FileContent struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Checksum string `json:"checksum"`
}

// errNoStore is returned when the galaxy was loaded from a manifest only.
var errNoStore = fmt.Errorf("galaxy: no repository on disk: %w", apperr.ErrNotFound)

// Read implements editor.Files.
func (s *Service) Read(path string) ([]byte, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	if _, ok := s.Snapshot().Nodes[normalize(path)].(*models.Folder); ok {
		return nil, fmt.Errorf("galaxy: read %s: not a file: %w", path, apperr.ErrNotFound)
	}
	data, err := s.store.Read(storePath(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("galaxy: read %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// Write implements editor.Files. Only files already in the galaxy can be
// written.
func (s *Service) Write(path string, content []byte) error {
	if s.store == nil {
		return errNoStore
	}
	if _, ok := s.Snapshot().Nodes[normalize(path)].(*models.File); !ok {
		return fmt.Errorf("galaxy: write %s: %w", path, apperr.ErrNotFound)
	}
	return s.store.Write(storePath(path), content)
}

// ReadFile returns a file with its checksum.
func (s *Service) ReadFile(_ context.Context, path string) (*FileContent, error) {
	data, err := s.Read(path)
	if err != nil {
		return nil, err
	}
	return &FileContent{Path: normalize(path), Content: string(data), Checksum: checksum.Sum(data)}, nil
}

// WriteFile writes content with optimistic concurrency: when ifMatch is set
// it must equal the checksum of the current content.
func (s *Service) WriteFile(_ context.Context, path string, content []byte, ifMatch string) (*FileContent, error) {
	existing, err := s.Read(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.Write(path, content); err != nil {
		return nil, err
	}
	return &FileContent{Path: normalize(path), Content: string(content), Checksum: checksum.Sum(content)}, nil
}

func storePath(p string) string {
	return strings.TrimPrefix(normalize(p), "/")
}
