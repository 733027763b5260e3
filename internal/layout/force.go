package layout

import (
	"math/rand/v2"

	"cogentcore.org/core/math32"

	"github.com/starford/orrery/internal/models"
	"github.com/starford/orrery/internal/tree"
)

const (
	coincident    = 1e-4
	maxPushRounds = 64
)

// Force is the spring-relaxation strategy. It starts from the spiral
// placement, relaxes, and then restores outward nesting and sibling
// separation.
type Force struct {
	cfg    Config
	spiral *Spiral
}

// NewForce creates a force-directed strategy.
func NewForce(cfg Config) *Force {
	return &Force{cfg: cfg, spiral: NewSpiral(cfg)}
}

func (f *Force) Name() string { return StrategyForce }

type body struct {
	pos    math32.Vector3
	vel    math32.Vector3
	parent int
	file   bool
	pinned bool
	index  int // into Layout.Folders or Layout.Files; -1 for the core
}

// Place relaxes the spiral seed. The run is bounded by MaxIterations.
func (f *Force) Place(root *models.Folder) *Layout {
	l := f.spiral.Place(root)
	l.Strategy = f.Name()
	if root == nil {
		return l
	}
	bodies := f.seed(l)
	iterations, converged := f.relax(bodies)
	f.writeBack(l, bodies)
	f.constrain(l)
	l.Stats = Stats{Iterations: iterations, Converged: converged}
	return l
}

func (f *Force) seed(l *Layout) []body {
	bodies := make([]body, 0, 1+len(l.Folders)+len(l.Files))
	bodies = append(bodies, body{pos: l.Core.Position, parent: -1, pinned: true, index: -1})
	byPath := map[string]int{tree.RootPath: 0}
	for i, r := range l.Folders {
		byPath[r.Path] = len(bodies)
		bodies = append(bodies, body{pos: r.Position, parent: byPath[r.ParentPath], index: i})
	}
	for i, o := range l.Files {
		p := byPath[o.FolderPath]
		bodies = append(bodies, body{pos: bodies[p].pos.Add(o.Offset(0)), parent: p, file: true, index: i})
	}
	return bodies
}

func (f *Force) relax(bodies []body) (int, bool) {
	c := f.cfg.Force
	rng := rand.New(rand.NewPCG(c.Seed, c.Seed^0x9e3779b97f4a7c15))
	forces := make([]math32.Vector3, len(bodies))

	for it := 1; it <= c.MaxIterations; it++ {
		clear(forces)
		for i := range bodies {
			for j := i + 1; j < len(bodies); j++ {
				delta := bodies[i].pos.Sub(bodies[j].pos)
				dist := delta.Length()
				var dir math32.Vector3
				if dist < coincident {
					dir = randomDirection(rng)
				} else {
					dir = delta.MulScalar(1 / dist)
				}
				dist = max(dist, c.MinDistance)
				push := dir.MulScalar(c.Repulsion / (dist * dist))
				forces[i] = forces[i].Add(push)
				forces[j] = forces[j].Sub(push)
			}
		}
		for i, b := range bodies {
			if b.parent < 0 {
				continue
			}
			delta := bodies[b.parent].pos.Sub(b.pos)
			dist := delta.Length()
			if dist < coincident {
				continue
			}
			ideal := c.IdealFolderDistance
			if b.file {
				ideal = c.IdealFileDistance
			}
			pull := delta.MulScalar(c.SpringStrength * (dist - ideal) / dist)
			forces[i] = forces[i].Add(pull)
			forces[b.parent] = forces[b.parent].Sub(pull)
		}

		var total float32
		for i := range bodies {
			b := &bodies[i]
			if b.pinned {
				continue
			}
			fc := forces[i]
			fc.X -= c.Centering * b.pos.X
			fc.Z -= c.Centering * b.pos.Z
			b.vel = b.vel.Add(fc).MulScalar(c.Damping)
			if v := b.vel.Length(); v > c.MaxStep {
				b.vel = b.vel.MulScalar(c.MaxStep / v)
			}
			if !finite(b.vel) {
				b.vel = math32.Vector3{}
			}
			b.pos = b.pos.Add(b.vel)
			total += b.vel.Length()
		}
		if total < c.Epsilon {
			return it, true
		}
	}
	return c.MaxIterations, false
}

// writeBack copies relaxed positions into the records. Files read back
// their horizontal distance and bearing from the folder as the orbit.
func (f *Force) writeBack(l *Layout, bodies []body) {
	for _, b := range bodies {
		if b.index < 0 || b.file {
			continue
		}
		l.Folders[b.index].Position = b.pos
	}
	for _, b := range bodies {
		if !b.file {
			continue
		}
		o := &l.Files[b.index]
		d := b.pos.Sub(bodies[b.parent].pos)
		visual := l.Core.VisualRadius
		if p := bodies[b.parent]; p.index >= 0 {
			visual = l.Folders[p.index].VisualRadius
		}
		o.Radius = max(horizontal(d), visual+o.BodyRadius+f.cfg.OrbitStep)
		o.StartAngle = wrapAngle(math32.Atan2(d.Z, d.X))
	}
}

// constrain walks folders breadth-first, so a parent is final before its
// children are checked. Children are pushed outward only, which never
// breaks a constraint already satisfied.
func (f *Force) constrain(l *Layout) {
	children := make(map[string][]int)
	for i, r := range l.Folders {
		children[r.ParentPath] = append(children[r.ParentPath], i)
	}
	parents := make([]string, 0, 1+len(l.Folders))
	parents = append(parents, tree.RootPath)
	for _, r := range l.Folders {
		parents = append(parents, r.Path)
	}
	for _, p := range parents {
		kids := children[p]
		if len(kids) == 0 {
			continue
		}
		center, _ := l.Center(p)
		parentDist := center.Length()
		for _, k := range kids {
			f.nest(&l.Folders[k], parentDist)
		}
		for j := 1; j < len(kids); j++ {
			f.separate(l, kids[:j], kids[j])
		}
	}
	for i := range l.Folders {
		r := &l.Folders[i]
		r.Radius = horizontal(r.Position)
		r.Angle = wrapAngle(math32.Atan2(r.Position.Z, r.Position.X))
	}
}

// nest moves r so its distance from the centre is at least BaseSpacing
// beyond its parent's, keeping its height and bearing.
func (f *Force) nest(r *FolderRecord, parentDist float32) {
	target := parentDist + f.cfg.BaseSpacing
	if r.Position.Length() >= target {
		return
	}
	y := r.Position.Y
	h := math32.Sqrt(max(target*target-y*y, 0))
	setHorizontal(r, h)
}

// separate pushes folder j outward until it clears every earlier sibling.
func (f *Force) separate(l *Layout, earlier []int, j int) {
	r := &l.Folders[j]
	for range maxPushRounds {
		worst := float32(-1)
		for _, i := range earlier {
			s := l.Folders[i]
			need := s.VisualRadius + r.VisualRadius + f.cfg.SiblingMargin
			if gap := need - r.Position.DistanceTo(s.Position); gap > worst {
				worst = gap
			}
		}
		if worst < 0 {
			return
		}
		setHorizontal(r, horizontal(r.Position)+worst+f.cfg.SiblingMargin)
	}
	// Beyond every earlier sibling by more than the required gap: the
	// triangle inequality then separates them.
	var farthest, need float32
	for _, i := range earlier {
		s := l.Folders[i]
		farthest = max(farthest, s.Position.Length())
		need = max(need, s.VisualRadius+r.VisualRadius+f.cfg.SiblingMargin)
	}
	setHorizontal(r, max(horizontal(r.Position), farthest+need+f.cfg.SiblingMargin))
}

// setHorizontal places r at horizontal distance h along its current bearing,
// or along its spiral angle when it sits on the axis.
func setHorizontal(r *FolderRecord, h float32) {
	cur := horizontal(r.Position)
	var dx, dz float32
	if cur < coincident {
		dx, dz = math32.Cos(r.Angle), math32.Sin(r.Angle)
	} else {
		dx, dz = r.Position.X/cur, r.Position.Z/cur
	}
	r.Position.X = dx * h
	r.Position.Z = dz * h
}

func randomDirection(rng *rand.Rand) math32.Vector3 {
	for {
		v := math32.Vec3(float32(rng.Float64()*2-1), float32(rng.Float64()*2-1), float32(rng.Float64()*2-1))
		if l := v.Length(); l > 0.1 && l <= 1 {
			return v.MulScalar(1 / l)
		}
	}
}

func finite(v math32.Vector3) bool {
	for _, c := range []float32{v.X, v.Y, v.Z} {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			return false
		}
	}
	return true
}
