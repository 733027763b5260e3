// Package layout maps a repository tree onto galaxy coordinates: every
// folder becomes a star system with a position, every file a planet with an
// orbit around its folder.
package layout

import (
	"encoding/json"

	"cogentcore.org/core/math32"

	"github.com/starford/orrery/internal/tree"
)

// CoreRecord describes the root folder, drawn at the galactic centre.
type CoreRecord struct {
	ID               string         `json:"id"`
	Position         math32.Vector3 `json:"position"`
	TotalDescendants int            `json:"total_descendants"`
	VisualRadius     float32        `json:"visual_radius"`
	SystemRadius     float32        `json:"system_radius"`
}

// FolderRecord positions one star system.
type FolderRecord struct {
	ID               string         `json:"id"`
	Path             string         `json:"path"`
	ParentPath       string         `json:"parent_path"`
	Position         math32.Vector3 `json:"position"`
	Depth            int            `json:"depth"`
	TotalDescendants int            `json:"total_descendants"`
	VisualRadius     float32        `json:"visual_radius"`
	SystemRadius     float32        `json:"system_radius"`
	Angle            float32        `json:"angle"`
	Radius           float32        `json:"radius"`
}

// OrbitRecord is the orbit descriptor of one file around its folder.
type OrbitRecord struct {
	ID           string  `json:"id"`
	Path         string  `json:"path"`
	FolderPath   string  `json:"folder_path"`
	Extension    string  `json:"extension"`
	Radius       float32 `json:"radius"`
	AngularSpeed float32 `json:"angular_speed"`
	StartAngle   float32 `json:"start_angle"`
	BodyRadius   float32 `json:"body_radius"`
}

// Offset returns the planet position relative to its folder at time t.
// Orbits lie in the folder's horizontal plane.
func (o OrbitRecord) Offset(t float32) math32.Vector3 {
	a := o.StartAngle + o.AngularSpeed*t
	return math32.Vec3(o.Radius*math32.Cos(a), 0, o.Radius*math32.Sin(a))
}

// Stats reports how a layout was produced.
type Stats struct {
	Iterations int  `json:"iterations"`
	Converged  bool `json:"converged"`
}

// Layout is the full output of one layout run. Folders are in breadth-first
// order, so a parent always precedes its children.
type Layout struct {
	Strategy string         `json:"strategy"`
	Core     CoreRecord     `json:"core"`
	Folders  []FolderRecord `json:"folders"`
	Files    []OrbitRecord  `json:"files"`
	Stats    Stats          `json:"stats"`

	folderIdx map[string]int
	fileIdx   map[string]int
}

func newLayout(strategy string) *Layout {
	return &Layout{
		Strategy:  strategy,
		Folders:   []FolderRecord{},
		Files:     []OrbitRecord{},
		folderIdx: map[string]int{},
		fileIdx:   map[string]int{},
	}
}

// Empty reports whether the layout has no bodies at all.
func (l *Layout) Empty() bool {
	return l == nil || (len(l.Folders) == 0 && len(l.Files) == 0 && l.Core.ID == "")
}

func (l *Layout) addFolder(r FolderRecord) {
	l.folderIdx[r.Path] = len(l.Folders)
	l.Folders = append(l.Folders, r)
}

func (l *Layout) addFile(r OrbitRecord) {
	l.fileIdx[r.Path] = len(l.Files)
	l.Files = append(l.Files, r)
}

// UnmarshalJSON decodes a layout written by the layout command and rebuilds
// its path lookups.
func (l *Layout) UnmarshalJSON(data []byte) error {
	type plain Layout
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*l = Layout(p)
	if l.Folders == nil {
		l.Folders = []FolderRecord{}
	}
	if l.Files == nil {
		l.Files = []OrbitRecord{}
	}
	l.reindex()
	return nil
}

func (l *Layout) reindex() {
	l.folderIdx = make(map[string]int, len(l.Folders))
	for i, f := range l.Folders {
		l.folderIdx[f.Path] = i
	}
	l.fileIdx = make(map[string]int, len(l.Files))
	for i, f := range l.Files {
		l.fileIdx[f.Path] = i
	}
}

// Folder looks up a folder record by path.
func (l *Layout) Folder(path string) (FolderRecord, bool) {
	if l == nil {
		return FolderRecord{}, false
	}
	i, ok := l.folderIdx[path]
	if !ok {
		return FolderRecord{}, false
	}
	return l.Folders[i], true
}

// Orbit looks up a file's orbit descriptor by path.
func (l *Layout) Orbit(path string) (OrbitRecord, bool) {
	if l == nil {
		return OrbitRecord{}, false
	}
	i, ok := l.fileIdx[path]
	if !ok {
		return OrbitRecord{}, false
	}
	return l.Files[i], true
}

// Center returns the world position of a folder; the root is the origin.
func (l *Layout) Center(folderPath string) (math32.Vector3, bool) {
	if l == nil {
		return math32.Vector3{}, false
	}
	if folderPath == tree.RootPath {
		return l.Core.Position, true
	}
	f, ok := l.Folder(folderPath)
	return f.Position, ok
}

// FilePosition returns the world position of a planet at time t.
func (l *Layout) FilePosition(path string, t float32) (math32.Vector3, bool) {
	o, ok := l.Orbit(path)
	if !ok {
		return math32.Vector3{}, false
	}
	c, ok := l.Center(o.FolderPath)
	if !ok {
		return math32.Vector3{}, false
	}
	return c.Add(o.Offset(t)), true
}

// FilesOf returns the orbit records of a folder's direct files.
func (l *Layout) FilesOf(folderPath string) []OrbitRecord {
	if l == nil {
		return nil
	}
	var out []OrbitRecord
	for _, f := range l.Files {
		if f.FolderPath == folderPath {
			out = append(out, f)
		}
	}
	return out
}
