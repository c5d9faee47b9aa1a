// Package grid owns the pure coordinate math of the chunked world:
// world <-> chunk-index conversion, world <-> voxel-index conversion and
// grid snapping. It holds no state beyond the two configured dimensions.
package grid

import (
	"fmt"
	"math"

	"voxelforge.dev/internal/sim/world/logic/mathx"
)

// ChunkCoord identifies one cubic chunk of the world.
type ChunkCoord struct {
	X, Y, Z int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// Offset returns c shifted by (dx,dy,dz) chunks.
func (c ChunkCoord) Offset(dx, dy, dz int) ChunkCoord {
	return ChunkCoord{c.X + dx, c.Y + dy, c.Z + dz}
}

// Chebyshev returns the per-axis split distance used by streaming: the
// horizontal L-infinity distance and the absolute vertical distance.
func (c ChunkCoord) Chebyshev(o ChunkCoord) (horizontal, vertical int) {
	return mathx.Chebyshev2(c.X, c.Z, o.X, o.Z), mathx.AbsInt(c.Y - o.Y)
}

// ChunkWorld converts between world space, chunk indices and voxel indices.
// GridDim is the full per-axis voxel count of a chunk grid including the
// three-voxel border shared with the positive neighbors; the usable span is
// GridDim-3 voxels, so voxel row Span maps exactly onto the neighbor's row 0.
type ChunkWorld struct {
	ChunkEdge float64
	GridDim   int
}

func New(chunkEdge float64, gridDim int) (ChunkWorld, error) {
	if chunkEdge <= 0 {
		return ChunkWorld{}, fmt.Errorf("chunk edge must be positive, got %v", chunkEdge)
	}
	if gridDim < 4 {
		return ChunkWorld{}, fmt.Errorf("grid dim must be at least 4, got %d", gridDim)
	}
	return ChunkWorld{ChunkEdge: chunkEdge, GridDim: gridDim}, nil
}

// Span is the number of usable voxels per axis.
func (w ChunkWorld) Span() int { return w.GridDim - 3 }

// VoxelSize is the world-space edge length of one voxel.
func (w ChunkWorld) VoxelSize() float64 { return w.ChunkEdge / float64(w.Span()) }

func (w ChunkWorld) WorldToChunk(p mathx.Vec3) ChunkCoord {
	return ChunkCoord{
		X: int(math.Floor(p.X / w.ChunkEdge)),
		Y: int(math.Floor(p.Y / w.ChunkEdge)),
		Z: int(math.Floor(p.Z / w.ChunkEdge)),
	}
}

// ChunkOrigin is the minimum corner of the chunk in world space.
func (w ChunkWorld) ChunkOrigin(c ChunkCoord) mathx.Vec3 {
	return mathx.Vec3{
		X: float64(c.X) * w.ChunkEdge,
		Y: float64(c.Y) * w.ChunkEdge,
		Z: float64(c.Z) * w.ChunkEdge,
	}
}

// WorldToVoxel maps a world position to global voxel indices relative to the
// fixed world origin. Voxel i covers [i*size, (i+1)*size).
func (w ChunkWorld) WorldToVoxel(p mathx.Vec3) (int, int, int) {
	s := w.VoxelSize()
	return int(math.Floor(p.X / s)), int(math.Floor(p.Y / s)), int(math.Floor(p.Z / s))
}

// VoxelToWorld is the minimum corner of a global voxel.
func (w ChunkWorld) VoxelToWorld(x, y, z int) mathx.Vec3 {
	s := w.VoxelSize()
	return mathx.Vec3{X: float64(x) * s, Y: float64(y) * s, Z: float64(z) * s}
}

// VoxelChunk returns the chunk owning a global voxel index.
func (w ChunkWorld) VoxelChunk(x, y, z int) ChunkCoord {
	n := w.Span()
	return ChunkCoord{mathx.FloorDiv(x, n), mathx.FloorDiv(y, n), mathx.FloorDiv(z, n)}
}

// LocalVoxel expresses a world position in a chunk's continuous grid
// coordinates, where local index 0 sits at the chunk origin.
func (w ChunkWorld) LocalVoxel(c ChunkCoord, p mathx.Vec3) mathx.Vec3 {
	o := w.ChunkOrigin(c)
	s := w.VoxelSize()
	return mathx.Vec3{X: (p.X - o.X) / s, Y: (p.Y - o.Y) / s, Z: (p.Z - o.Z) / s}
}

// LocalVoxelWorld is the inverse of LocalVoxel for integer grid indices.
func (w ChunkWorld) LocalVoxelWorld(c ChunkCoord, x, y, z int) mathx.Vec3 {
	o := w.ChunkOrigin(c)
	s := w.VoxelSize()
	return mathx.Vec3{X: o.X + float64(x)*s, Y: o.Y + float64(y)*s, Z: o.Z + float64(z)*s}
}

// SnapToGrid snaps a world position to the nearest multiple of
// voxelSize*factor on every axis.
func (w ChunkWorld) SnapToGrid(p mathx.Vec3, factor float64) mathx.Vec3 {
	if factor <= 0 {
		factor = 1
	}
	step := w.VoxelSize() * factor
	return mathx.Vec3{
		X: math.Round(p.X/step) * step,
		Y: math.Round(p.Y/step) * step,
		Z: math.Round(p.Z/step) * step,
	}
}
