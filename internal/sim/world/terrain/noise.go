// Package terrain holds the density-field collaborators: noise-driven
// density fill, surface extraction and the ground probe. The fill and
// extraction entry points are interfaces so a GPU-backed implementation can
// replace the CPU reference kernels without touching the pipeline.
package terrain

import (
	"math"

	"voxelforge.dev/internal/sim/world/logic/mathx"
)

// NoiseLayer is one octave stack of the density field.
type NoiseLayer struct {
	Name        string
	Octaves     int
	Lacunarity  float64
	Persistence float64
	Scale       float64 // world units per noise feature
	Weight      float64 // contribution of the centered noise term

	// Floor is the nominal surface height: density rises below it and falls
	// above it. HardFloor forces solid ground below that height.
	Floor     float64
	HardFloor float64

	Material string // base material name for voxels this layer solidifies
}

// floorGradient converts height above the layer floor into density; shared
// by the fill kernel and the ground probe so both see the same surface.
const floorGradient = 24.0

func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func lattice(seed int64, x, y, z int) float64 {
	return float64(mathx.Hash3(seed, x, y, z)>>11) / float64(1<<53)
}

// valueNoise3 samples smoothed lattice noise in [0,1).
func valueNoise3(seed int64, x, y, z float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	z0 := math.Floor(z)
	ix, iy, iz := int(x0), int(y0), int(z0)
	fx := fade(x - x0)
	fy := fade(y - y0)
	fz := fade(z - z0)

	c000 := lattice(seed, ix, iy, iz)
	c100 := lattice(seed, ix+1, iy, iz)
	c010 := lattice(seed, ix, iy+1, iz)
	c110 := lattice(seed, ix+1, iy+1, iz)
	c001 := lattice(seed, ix, iy, iz+1)
	c101 := lattice(seed, ix+1, iy, iz+1)
	c011 := lattice(seed, ix, iy+1, iz+1)
	c111 := lattice(seed, ix+1, iy+1, iz+1)

	return lerp(
		lerp(lerp(c000, c100, fx), lerp(c010, c110, fx), fy),
		lerp(lerp(c001, c101, fx), lerp(c011, c111, fx), fy),
		fz,
	)
}

// FractalNoise3 stacks octaves of value noise, normalized back to [0,1).
func FractalNoise3(seed int64, x, y, z float64, octaves int, lacunarity, persistence float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	sum := 0.0
	amp := 1.0
	freq := 1.0
	norm := 0.0
	for o := 0; o < octaves; o++ {
		sum += amp * valueNoise3(seed+int64(o)*1013, x*freq, y*freq, z*freq)
		norm += amp
		amp *= persistence
		freq *= lacunarity
	}
	return sum / norm
}

// layerDensity is the signed density contribution of one layer at a world
// position. Positive pushes toward solid.
func layerDensity(seed int64, l NoiseLayer, p mathx.Vec3) float64 {
	if p.Y < l.HardFloor {
		return 1
	}
	scale := l.Scale
	if scale <= 0 {
		scale = 1
	}
	n := FractalNoise3(seed, p.X/scale, p.Y/scale, p.Z/scale, l.Octaves, l.Lacunarity, l.Persistence)
	centered := n*2 - 1
	return centered*l.Weight + (l.Floor-p.Y)/floorGradient
}
