package terrain

import (
	"errors"
	"fmt"

	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/voxel"
)

// ErrNoGround means the probed column has no solid surface inside the scan
// window. Callers treat it as "skip this placement", not as a fault.
var ErrNoGround = errors.New("no ground in column")

// Ground is the highest solid surface of a column.
type Ground struct {
	Height   float64
	Material voxel.Material
}

// GroundProbe answers world-space surface queries without owning any chunk's
// voxel data; structure placement uses it to find ground in columns whose
// chunks may not be loaded.
type GroundProbe interface {
	SurfaceAt(x, z float64) (Ground, error)
}

// NoiseProbe evaluates the configured noise layers analytically, so its
// answers agree with what the density fill will produce for the same column.
type NoiseProbe struct {
	Seed   int64
	Layers []NoiseLayer
	Step   float64 // scan step, normally one voxel
	MaxY   float64
	MinY   float64
}

func (p *NoiseProbe) SurfaceAt(x, z float64) (Ground, error) {
	if len(p.Layers) == 0 {
		return Ground{}, fmt.Errorf("ground probe has no noise layers")
	}
	step := p.Step
	if step <= 0 {
		return Ground{}, fmt.Errorf("ground probe step must be positive, got %v", step)
	}

	prevSolid := false
	for y := p.MaxY; y >= p.MinY; y -= step {
		iso := p.isoAt(x, y, z)
		solid := iso >= voxel.IsoSurface
		if solid && !prevSolid {
			return Ground{Height: y, Material: p.surfaceMaterial(x, y, z, step)}, nil
		}
		prevSolid = solid
	}
	return Ground{}, ErrNoGround
}

// isoAt accumulates all layers the same way NoiseFiller does.
func (p *NoiseProbe) isoAt(x, y, z float64) float32 {
	var iso float32
	for _, l := range p.Layers {
		d := layerDensity(p.Seed, l, mathx.Vec3{X: x, Y: y, Z: z})
		iso = mathx.Clamp01f(iso + float32(d))
	}
	return iso
}

// surfaceMaterial mirrors AssignSurfaceMaterials: the topmost solid voxel of
// a column is grass when there is air above it.
func (p *NoiseProbe) surfaceMaterial(x, y, z, step float64) voxel.Material {
	if p.isoAt(x, y+step, z) < voxel.IsoSurface {
		return voxel.Grass
	}
	return voxel.Dirt
}
