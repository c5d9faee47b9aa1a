package voxel

import (
	"math"

	"voxelforge.dev/internal/sim/world/logic/mathx"
)

// kernel1D is the separable 1-2-1 smoothing kernel; the 3D weights multiply
// out to a total of 64.
var kernel1D = [3]float32{1, 2, 1}

// Smooth blends each in-range voxel's iso value toward the 1-2-1 weighted
// average of its 3x3x3 neighborhood, read from a pre-edit snapshot so the
// pass has no read-after-write feedback. Strength scales the blend; with
// falloff it also fades toward the sphere edge. Threshold crossings are
// accounted like any other edit; a voxel surfacing out of air takes mat.
func Smooth(g *Grid, center mathx.Vec3, radius float64, strength float32, mat Material, falloff bool) Delta {
	delta := Delta{}
	snap := g.IsoSnapshot(nil)
	dim := g.dim
	r2 := radius * radius

	for z := 0; z < dim; z++ {
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				p := mathx.Vec3{X: float64(x), Y: float64(y), Z: float64(z)}
				d2 := p.Sub(center).Len2()
				if d2 > r2 {
					continue
				}
				w := float32(1)
				if falloff && radius > 0 {
					w = float32(1 - math.Sqrt(d2)/radius)
				}

				var sum float32
				for dz := -1; dz <= 1; dz++ {
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							k := kernel1D[dx+1] * kernel1D[dy+1] * kernel1D[dz+1]
							sx := clampIndex(x+dx, dim)
							sy := clampIndex(y+dy, dim)
							sz := clampIndex(z+dz, dim)
							sum += k * snap[g.Index(sx, sy, sz)]
						}
					}
				}
				avg := sum / 64

				i := g.Index(x, y, z)
				v := g.data[i]
				before := v.Iso
				v.Iso = mathx.Clamp01f(before + (avg-before)*strength*w)
				if before >= IsoSurface && v.Iso < IsoSurface {
					delta.add(v.Material, 1)
				} else if before < IsoSurface && v.Iso >= IsoSurface {
					if v.Material == Air {
						v.Material = mat
					}
					delta.add(v.Material, -1)
				}
				g.data[i] = v
			}
		}
	}
	return delta
}
