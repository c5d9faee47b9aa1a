// Package voxel holds the per-chunk density grid and the brush edit
// algorithm that mutates it.
package voxel

import "fmt"

// IsoSurface is the iso value of the material boundary. A voxel is solid
// when its iso value is at or above this threshold; its material is only
// meaningful while solid.
const IsoSurface = 0.5

// Material enumerates the terrain materials.
type Material uint8

const (
	Air Material = iota
	Dirt
	Grass
	Stone
	Sand
	Wood
	Leaves

	materialCount
)

var materialNames = [...]string{
	Air:    "AIR",
	Dirt:   "DIRT",
	Grass:  "GRASS",
	Stone:  "STONE",
	Sand:   "SAND",
	Wood:   "WOOD",
	Leaves: "LEAVES",
}

func (m Material) String() string {
	if int(m) < len(materialNames) {
		return materialNames[m]
	}
	return fmt.Sprintf("MATERIAL_%d", uint8(m))
}

// ParseMaterial resolves a config-file material name.
func ParseMaterial(name string) (Material, error) {
	for i, n := range materialNames {
		if n == name {
			return Material(i), nil
		}
	}
	return Air, fmt.Errorf("unknown material %q", name)
}

// Materials lists every material in palette order.
func Materials() []Material {
	out := make([]Material, materialCount)
	for i := range out {
		out[i] = Material(i)
	}
	return out
}

// Voxel is one sample of the density field. BreakingProgress is transient
// charge-up feedback for previewed edits and is never persisted.
type Voxel struct {
	Material         Material
	Iso              float32
	BreakingProgress float32
}

// Solid reports whether the voxel is at or above the material boundary.
func (v Voxel) Solid() bool { return v.Iso >= IsoSurface }

// Grid is a chunk's dense voxel field, dim^3 samples in x-major order.
// The top three rows on each axis are the border shared with the positive
// neighbor chunks.
type Grid struct {
	dim  int
	data []Voxel
}

func NewGrid(dim int) *Grid {
	if dim < 4 {
		panic(fmt.Sprintf("voxel grid dim %d too small", dim))
	}
	return &Grid{dim: dim, data: make([]Voxel, dim*dim*dim)}
}

func (g *Grid) Dim() int { return g.dim }

// Len is the total sample count.
func (g *Grid) Len() int { return len(g.data) }

func (g *Grid) Index(x, y, z int) int {
	return x + g.dim*(y+g.dim*z)
}

func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.dim && y < g.dim && z < g.dim
}

func (g *Grid) At(x, y, z int) Voxel {
	return g.data[g.Index(x, y, z)]
}

func (g *Grid) Set(x, y, z int, v Voxel) {
	g.data[g.Index(x, y, z)] = v
}

// AtClamped reads with coordinates clamped into range; used by the smoothing
// kernel at grid borders.
func (g *Grid) AtClamped(x, y, z int) Voxel {
	x = clampIndex(x, g.dim)
	y = clampIndex(y, g.dim)
	z = clampIndex(z, g.dim)
	return g.data[g.Index(x, y, z)]
}

func clampIndex(i, dim int) int {
	if i < 0 {
		return 0
	}
	if i >= dim {
		return dim - 1
	}
	return i
}

// Reset zeroes every sample so a pooled grid can be reused.
func (g *Grid) Reset() {
	for i := range g.data {
		g.data[i] = Voxel{}
	}
}

// IsoSnapshot copies the iso channel; the smoothing pass reads from it so
// already-smoothed neighbors do not feed back into the kernel.
func (g *Grid) IsoSnapshot(dst []float32) []float32 {
	if cap(dst) < len(g.data) {
		dst = make([]float32, len(g.data))
	}
	dst = dst[:len(g.data)]
	for i, v := range g.data {
		dst[i] = v.Iso
	}
	return dst
}
