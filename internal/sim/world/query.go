package world

import (
	"math"

	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/voxel"
)

// GetTerrainTypeAtWorld resolves the material at a world position. Loaded
// chunks answer from voxel data; everywhere else is air. Non-solid voxels
// report air, since material is only meaningful at or above the boundary.
func (w *World) GetTerrainTypeAtWorld(p mathx.Vec3) voxel.Material {
	c := w.cw.WorldToChunk(p)
	rec, ok := w.table.Get(c)
	if !ok {
		return voxel.Air
	}
	local := w.cw.LocalVoxel(c, p)
	g := rec.Cell.Grid()
	x := mathx.ClampInt(int(math.Floor(local.X)), 0, g.Dim()-1)
	y := mathx.ClampInt(int(math.Floor(local.Y)), 0, g.Dim()-1)
	z := mathx.ClampInt(int(math.Floor(local.Z)), 0, g.Dim()-1)
	v := g.At(x, y, z)
	if !v.Solid() {
		return voxel.Air
	}
	return v.Material
}

// SnapToGrid snaps a world position to the voxel lattice scaled by factor.
func (w *World) SnapToGrid(p mathx.Vec3, factor float64) mathx.Vec3 {
	return w.cw.SnapToGrid(p, factor)
}
