package structures

import (
	"voxelforge.dev/internal/sim/world/cell"
	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/voxel"
)

// StampClipped writes the portion of an instance overlapping one chunk into
// that chunk's cell. Other chunks are never touched; each primitive is
// rejected early against the chunk bounds. Returns whether anything landed.
// The caller owns the follow-up Upload on the cell.
func StampClipped(d *Discoverer, inst Instance, target grid.ChunkCoord, c *cell.Cell) bool {
	a := d.Archetypes[inst.Archetype]
	prims := a.Build(inst)

	cw := d.World
	vs := cw.VoxelSize()
	origin := cw.ChunkOrigin(target)
	// The grid extends two border rows past the chunk edge.
	extent := float64(cw.GridDim-1) * vs
	cmin := origin
	cmax := origin.Add(mathx.Vec3{X: extent, Y: extent, Z: extent})

	stamped := false
	for _, p := range prims {
		pmin, pmax := p.Bounds()
		if pmax.X < cmin.X || pmin.X > cmax.X ||
			pmax.Y < cmin.Y || pmin.Y > cmax.Y ||
			pmax.Z < cmin.Z || pmin.Z > cmax.Z {
			continue
		}
		if stampPrimitive(cw, target, c, p) {
			stamped = true
		}
	}
	return stamped
}

// stampPrimitive rasterizes one primitive as a run of sphere brushes along
// its axis. Solid parts carve terrain; foliage only fills air.
func stampPrimitive(cw grid.ChunkWorld, target grid.ChunkCoord, c *cell.Cell, p Primitive) bool {
	vs := cw.VoxelSize()
	step := p.Radius * 0.75
	if step < vs {
		step = vs
	}

	axis := p.B.Sub(p.A)
	length := axis.Len()
	samples := 1
	if p.Kind == Capsule && length > 0 {
		samples = int(length/step) + 1
	}

	applied := false
	for i := 0; i <= samples; i++ {
		t := 0.0
		if samples > 0 {
			t = float64(i) / float64(samples)
		}
		center := p.A.Add(axis.Scale(t))

		local := cw.LocalVoxel(target, center)
		rad := p.Radius / vs
		// Sphere entirely outside this grid: skip without touching voxels.
		if local.X+rad < 0 || local.Y+rad < 0 || local.Z+rad < 0 ||
			local.X-rad > float64(cw.GridDim-1) ||
			local.Y-rad > float64(cw.GridDim-1) ||
			local.Z-rad > float64(cw.GridDim-1) {
			continue
		}

		b := voxel.SphereBrush(local, rad, 1, p.Material)
		b.ForceReplace = p.ForceReplace
		c.ApplyBrush(b)
		applied = true
	}
	return applied
}
