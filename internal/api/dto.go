package api

import (
	"github.com/starford/orrery/internal/galaxy"
	"github.com/starford/orrery/internal/layout"
	"github.com/starford/orrery/internal/navigation"
)

// GalaxyResponse is the full layout of the current galaxy.
type GalaxyResponse struct {
	Version uint64         `json:"version" example:"3" validate:"required"`
	Layout  *layout.Layout `json:"layout" validate:"required"`
}

// NodeDetail is the node response type (aliased from the domain layer).
type NodeDetail = galaxy.NodeDetail

// ReloadResponse is returned after a forced reload.
type ReloadResponse struct {
	Version uint64 `json:"version" example:"4" validate:"required"`
	Folders int    `json:"folders" example:"12" validate:"required"`
	Files   int    `json:"files" example:"140" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []galaxy.SearchHit `json:"results" validate:"required"`
}

// InputRequest carries pointer deltas and key transitions. Keys are control
// names ("thrust", "brake", "boost", "roll_left", "roll_right") or their
// keyboard aliases ("w", "s", "shift", "q", "e").
type InputRequest struct {
	PointerDX  float32  `json:"pointer_dx" example:"4.5"`
	PointerDY  float32  `json:"pointer_dy" example:"-2"`
	Press      []string `json:"press,omitempty" example:"w"`
	Release    []string `json:"release,omitempty" example:"shift"`
	ReleaseAll bool     `json:"release_all,omitempty"`
}

// EnterSystemRequest is the request body for entering a star system.
type EnterSystemRequest struct {
	System string `json:"system" example:"/internal/layout" validate:"required"`
}

// ModeRequest is the request body for switching the camera mode.
type ModeRequest struct {
	Mode string `json:"mode" example:"fly" validate:"required" enums:"orbit,fly"`
}

// ZoomRequest is the request body for zooming the orbit camera.
type ZoomRequest struct {
	Percent float32 `json:"percent" example:"-10" validate:"required"`
}

// NavResponse reports whether a navigation command changed anything.
type NavResponse struct {
	Applied    bool             `json:"applied" validate:"required"`
	Navigation navigation.State `json:"navigation" validate:"required"`
}

// LandResponse is returned after a successful landing.
type LandResponse struct {
	Path string `json:"path" example:"/internal/layout/spiral.go" validate:"required"`
}

// FileContent is the editor file response type (aliased from the domain layer).
type FileContent = galaxy.FileContent

// UpdateFileRequest is the request body for writing a file.
type UpdateFileRequest struct {
	Content string `json:"content" example:"package layout\n" validate:"required"`
}

// OpenEditorRequest is the request body for opening a file in the editor.
type OpenEditorRequest struct {
	Path string `json:"path" example:"/go.mod" validate:"required"`
}

// SaveEditorRequest is the request body for saving the editor buffer.
type SaveEditorRequest struct {
	Content string `json:"content" validate:"required"`
}
