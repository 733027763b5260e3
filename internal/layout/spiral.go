package layout

import (
	"cogentcore.org/core/math32"

	"github.com/starford/orrery/internal/models"
)

const (
	twoPi       = 2 * math32.Pi
	goldenAngle = math32.Pi * 0.763932 // π(3-√5)

	// Vertical waves: y = A·(sin(i·w1 + d·p1) + ½·sin(i·w2 + d·p2 + ρ)) / 1.5
	waveIndex1 = 1.7
	waveDepth1 = 0.9
	waveIndex2 = 2.9
	waveDepth2 = 1.3
	wavePhase  = math32.Pi / 3
)

// Spiral is the deterministic closed-form placement. Re-running it on the
// same tree yields bit-identical coordinates.
type Spiral struct {
	cfg Config
}

// NewSpiral creates a spiral strategy.
func NewSpiral(cfg Config) *Spiral {
	return &Spiral{cfg: cfg}
}

func (s *Spiral) Name() string { return StrategySpiral }

type extent struct {
	descendants int
	visual      float32
	system      float32
}

type placed struct {
	folder *models.Folder
	depth  int
	angle  float32
	radius float32
	system float32
}

// Place lays out the tree breadth-first from the root.
func (s *Spiral) Place(root *models.Folder) *Layout {
	l := newLayout(s.Name())
	if root == nil {
		return l
	}
	ext := make(map[*models.Folder]extent)
	s.measure(root, ext)

	core := ext[root]
	l.Core = CoreRecord{
		ID:               root.ID,
		TotalDescendants: core.descendants,
		VisualRadius:     core.visual,
		SystemRadius:     core.system,
	}
	s.placeFiles(l, root, 0, 0, core.visual)

	queue := []placed{{folder: root, system: core.system}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		children := p.folder.Folders()
		n := len(children)
		if n == 0 {
			continue
		}
		d := p.depth + 1
		var maxSystem float32
		for _, c := range children {
			maxSystem = max(maxSystem, ext[c].system)
		}
		ring := s.ringRadius(p.radius, p.system, maxSystem, d, n)

		for i, c := range children {
			angle := wrapAngle(p.angle + float32(i)/float32(n)*twoPi + float32(d)*s.cfg.SpiralSkew)
			e := ext[c]
			l.addFolder(FolderRecord{
				ID:               c.ID,
				Path:             c.Path,
				ParentPath:       p.folder.Path,
				Position:         math32.Vec3(ring*math32.Cos(angle), s.vertical(i, d), ring*math32.Sin(angle)),
				Depth:            d,
				TotalDescendants: e.descendants,
				VisualRadius:     e.visual,
				SystemRadius:     e.system,
				Angle:            angle,
				Radius:           ring,
			})
			s.placeFiles(l, c, d, angle, e.visual)
			queue = append(queue, placed{folder: c, depth: d, angle: angle, radius: ring, system: e.system})
		}
	}
	l.Stats = Stats{Converged: true}
	return l
}

// ringRadius is the distance from the centre of the ring holding n sibling
// folders at depth d. Besides the spacing rule it is widened so that the
// chord between neighbours exceeds two system radii plus the margin, and so
// that the ring clears the parent's own system.
func (s *Spiral) ringRadius(parentRadius, parentSystem, maxSystem float32, d, n int) float32 {
	r := parentRadius + s.cfg.BaseSpacing + float32(d)*s.cfg.DepthSpacing
	r = max(r, parentRadius+parentSystem+maxSystem+s.cfg.SiblingMargin)
	if n >= 2 {
		chord := 2 * math32.Sin(math32.Pi/float32(n))
		r = max(r, (2*maxSystem+s.cfg.SiblingMargin)/chord)
	}
	return r
}

func (s *Spiral) vertical(i, d int) float32 {
	fi, fd := float32(i), float32(d)
	w := math32.Sin(fi*waveIndex1+fd*waveDepth1) + 0.5*math32.Sin(fi*waveIndex2+fd*waveDepth2+wavePhase)
	return s.cfg.VerticalAmplitude * w / 1.5
}

// placeFiles assigns orbits to the folder's direct files. Inner orbits are
// faster; direction alternates with depth.
func (s *Spiral) placeFiles(l *Layout, f *models.Folder, depth int, folderAngle, visual float32) {
	dir := float32(1)
	if depth%2 == 1 {
		dir = -1
	}
	for i, file := range f.Files() {
		k := float32(i + 1)
		l.addFile(OrbitRecord{
			ID:           file.ID,
			Path:         file.Path,
			FolderPath:   f.Path,
			Extension:    file.Extension,
			Radius:       visual*s.cfg.OrbitScale + k*s.cfg.OrbitStep,
			AngularSpeed: dir * s.cfg.OrbitSpeed / k,
			StartAngle:   wrapAngle(float32(i)*goldenAngle + folderAngle),
			BodyRadius:   planetRadius(s.cfg, file.Size),
		})
	}
}

// measure fills ext for f and every folder below it and returns the number
// of nodes beneath f.
func (s *Spiral) measure(f *models.Folder, ext map[*models.Folder]extent) int {
	count := 0
	var outer, body float32
	files := 0
	for _, c := range f.Children {
		count++
		switch n := c.(type) {
		case *models.Folder:
			count += s.measure(n, ext)
		case *models.File:
			files++
			body = max(body, planetRadius(s.cfg, n.Size))
		}
	}
	visual := starRadius(s.cfg, count)
	system := visual
	if files > 0 {
		outer = visual*s.cfg.OrbitScale + float32(files)*s.cfg.OrbitStep
		system = max(system, outer+body)
	}
	ext[f] = extent{descendants: count, visual: visual, system: system}
	return count
}

func starRadius(cfg Config, descendants int) float32 {
	return min(cfg.StarBaseRadius+cfg.StarGrowth*math32.Log(1+float32(descendants)), cfg.StarMaxRadius)
}

func planetRadius(cfg Config, size int64) float32 {
	if size < 0 {
		size = 0
	}
	return min(cfg.PlanetBaseRadius+cfg.PlanetGrowth*math32.Log(1+float32(size)/1024), cfg.PlanetMaxRadius)
}

func wrapAngle(a float32) float32 {
	a = math32.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}

// horizontal returns the distance of p from the galactic axis.
func horizontal(p math32.Vector3) float32 {
	return math32.Hypot(p.X, p.Z)
}
