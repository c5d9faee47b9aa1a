package terrain

import (
	"fmt"

	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/voxel"
)

// DensityFiller fills a chunk grid from one noise layer. The pipeline calls
// it once per configured layer; contributions accumulate in the iso channel.
type DensityFiller interface {
	Fill(g *voxel.Grid, origin mathx.Vec3, voxelSize float64, layer NoiseLayer) error
}

// NoiseFiller is the CPU reference kernel. Deterministic for identical
// inputs, like the GPU dispatch it stands in for.
type NoiseFiller struct {
	Seed int64
}

func (f *NoiseFiller) Fill(g *voxel.Grid, origin mathx.Vec3, voxelSize float64, layer NoiseLayer) error {
	if voxelSize <= 0 {
		return fmt.Errorf("voxel size must be positive, got %v", voxelSize)
	}
	mat, err := voxel.ParseMaterial(layer.Material)
	if err != nil {
		return fmt.Errorf("layer %s: %w", layer.Name, err)
	}

	dim := g.Dim()
	for z := 0; z < dim; z++ {
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				p := mathx.Vec3{
					X: origin.X + float64(x)*voxelSize,
					Y: origin.Y + float64(y)*voxelSize,
					Z: origin.Z + float64(z)*voxelSize,
				}
				d := layerDensity(f.Seed, layer, p)

				v := g.At(x, y, z)
				v.Iso = mathx.Clamp01f(v.Iso + float32(d))
				if v.Solid() && v.Material == voxel.Air {
					v.Material = mat
				}
				g.Set(x, y, z, v)
			}
		}
	}
	return nil
}

// AssignSurfaceMaterials runs after the last layer: solid voxels directly
// under air become grass, the next few below become dirt, everything deeper
// keeps the layer's base material.
func AssignSurfaceMaterials(g *voxel.Grid) {
	const dirtDepth = 3
	dim := g.Dim()
	for z := 0; z < dim; z++ {
		for x := 0; x < dim; x++ {
			depth := -1
			for y := dim - 1; y >= 0; y-- {
				v := g.At(x, y, z)
				if !v.Solid() {
					depth = -1
					continue
				}
				if depth < 0 {
					// Top of a solid run. Only grass it when we actually saw
					// the air above inside this grid.
					if y+1 < dim {
						v.Material = voxel.Grass
						g.Set(x, y, z, v)
					}
					depth = 0
					continue
				}
				depth++
				if depth <= dirtDepth {
					v.Material = voxel.Dirt
					g.Set(x, y, z, v)
				}
			}
		}
	}
}
