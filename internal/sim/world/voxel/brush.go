package voxel

import (
	"math"

	"voxelforge.dev/internal/sim/world/logic/mathx"
)

// Shape selects the brush containment test.
type Shape uint8

const (
	Sphere Shape = iota
	Box
)

// Brush is one edit request expressed in a chunk's local grid coordinates.
// Strength is the signed iso delta at full weight: positive builds, negative
// breaks. With Falloff set, the delta fades linearly toward the brush edge.
type Brush struct {
	Shape       Shape
	Center      mathx.Vec3 // continuous grid coordinates
	Radius      float64    // sphere radius, in voxels
	HalfExtents mathx.Vec3 // box half extents, in voxels
	Rot         mathx.Mat3 // box orientation

	Strength float32
	Material Material
	Falloff  bool

	// OneBlockOnly constrains a break to voxels already holding Material,
	// anchoring the edit to a single material.
	OneBlockOnly bool

	// Preview writes only breaking progress: charge-up feedback that leaves
	// iso, material and inventory untouched.
	Preview  bool
	Progress float32

	// ForceReplace assigns Material even into solid voxels. Structure stamps
	// use it so wood overwrites the terrain it grows through.
	ForceReplace bool
}

// SphereBrush is the common case.
func SphereBrush(center mathx.Vec3, radius float64, strength float32, mat Material) Brush {
	return Brush{
		Shape:    Sphere,
		Center:   center,
		Radius:   radius,
		Strength: strength,
		Material: mat,
		Rot:      mathx.Identity3(),
	}
}

// BoxBrush builds an oriented box brush.
func BoxBrush(center, halfExtents mathx.Vec3, rot mathx.Mat3, strength float32, mat Material) Brush {
	return Brush{
		Shape:       Box,
		Center:      center,
		HalfExtents: halfExtents,
		Rot:         rot,
		Strength:    strength,
		Material:    mat,
	}
}

// weightAt tests containment of a grid point and returns the falloff weight.
func (b Brush) weightAt(x, y, z int) (float64, bool) {
	p := mathx.Vec3{X: float64(x), Y: float64(y), Z: float64(z)}
	switch b.Shape {
	case Sphere:
		d2 := p.Sub(b.Center).Len2()
		if d2 > b.Radius*b.Radius {
			return 0, false
		}
		if !b.Falloff {
			return 1, true
		}
		if b.Radius == 0 {
			return 1, true
		}
		return 1 - math.Sqrt(d2)/b.Radius, true
	case Box:
		d := b.Rot.ApplyInv(p.Sub(b.Center))
		ax, ay, az := math.Abs(d.X), math.Abs(d.Y), math.Abs(d.Z)
		if ax > b.HalfExtents.X || ay > b.HalfExtents.Y || az > b.HalfExtents.Z {
			return 0, false
		}
		if !b.Falloff {
			return 1, true
		}
		n := 0.0
		if b.HalfExtents.X > 0 {
			n = math.Max(n, ax/b.HalfExtents.X)
		}
		if b.HalfExtents.Y > 0 {
			n = math.Max(n, ay/b.HalfExtents.Y)
		}
		if b.HalfExtents.Z > 0 {
			n = math.Max(n, az/b.HalfExtents.Z)
		}
		return 1 - n, true
	}
	return 0, false
}

// Contains reports whether a continuous grid point falls inside the brush
// volume; decoration cleanup uses it after a committed edit.
func (b Brush) Contains(p mathx.Vec3) bool {
	switch b.Shape {
	case Sphere:
		return p.Sub(b.Center).Len2() <= b.Radius*b.Radius
	case Box:
		d := b.Rot.ApplyInv(p.Sub(b.Center))
		return math.Abs(d.X) <= b.HalfExtents.X &&
			math.Abs(d.Y) <= b.HalfExtents.Y &&
			math.Abs(d.Z) <= b.HalfExtents.Z
	}
	return false
}

// Delta is the per-material inventory change of one edit: positive counts
// are voxels broken out of that material, negative counts are voxels built.
type Delta map[Material]int

func (d Delta) add(m Material, n int) {
	if n == 0 {
		return
	}
	d[m] += n
	if d[m] == 0 {
		delete(d, m)
	}
}

// Merge folds o into d.
func (d Delta) Merge(o Delta) {
	for m, n := range o {
		d.add(m, n)
	}
}

// Apply runs the brush over the whole grid. Every voxel is tested; there is
// no spatial acceleration, which keeps boundary behavior trivially correct.
// The returned delta records 0.5-crossings only: a downward crossing counts
// the prior material broken, an upward crossing counts the new material
// built. Landing exactly on the threshold from above is not a break.
func Apply(g *Grid, b Brush) Delta {
	delta := Delta{}
	dim := g.dim
	for z := 0; z < dim; z++ {
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				w, ok := b.weightAt(x, y, z)
				if !ok {
					continue
				}
				i := g.Index(x, y, z)
				v := g.data[i]

				if b.Preview {
					v.BreakingProgress = b.Progress * float32(w)
					g.data[i] = v
					continue
				}

				if b.Strength > 0 && (v.Iso <= IsoSurface || b.ForceReplace) {
					v.Material = b.Material
				}
				if b.Strength < 0 && b.OneBlockOnly && v.Material != b.Material {
					continue
				}

				before := v.Iso
				v.Iso = mathx.Clamp01f(before + b.Strength*float32(w))
				if before >= IsoSurface && v.Iso < IsoSurface {
					delta.add(v.Material, 1)
				} else if before < IsoSurface && v.Iso >= IsoSurface {
					delta.add(v.Material, -1)
				}
				v.BreakingProgress = 0
				g.data[i] = v
			}
		}
	}
	return delta
}
