package terrain

import (
	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/voxel"
)

// Vertex carries what the renderer needs per corner: position, normal,
// material and the transient breaking progress of the source voxel.
type Vertex struct {
	Pos      mathx.Vec3
	Normal   mathx.Vec3
	Material voxel.Material
	Progress float32
}

// Mesh is a flat triangle list. Triangle ordering is not guaranteed stable
// across extractions.
type Mesh struct {
	Vertices []Vertex
}

func (m Mesh) TriangleCount() int { return len(m.Vertices) / 3 }

// SurfaceExtractor turns a filled grid into a triangle list. The production
// path is a GPU marching-cubes dispatch; FieldMesher below is the CPU
// reference implementation.
type SurfaceExtractor interface {
	Extract(g *voxel.Grid, origin mathx.Vec3, voxelSize float64, isoLevel float32) (Mesh, error)
}

// FieldMesher emits two triangles for every voxel face that crosses the iso
// threshold. Coarser than marching cubes but it honors the same contract:
// empty for uniform grids, deterministic for identical inputs.
type FieldMesher struct{}

var faceDirs = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// faceCorners holds the four quad corner offsets (in voxel units) for each
// face direction, wound so the normal points out of the solid voxel.
var faceCorners = [6][4][3]float64{
	{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	{{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}},
	{{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}},
	{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	{{1, 0, 1}, {1, 1, 1}, {0, 1, 1}, {0, 0, 1}},
	{{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
}

func (FieldMesher) Extract(g *voxel.Grid, origin mathx.Vec3, voxelSize float64, isoLevel float32) (Mesh, error) {
	var mesh Mesh
	dim := g.Dim()
	// The top two border rows belong to the positive neighbors; stopping at
	// dim-2 keeps shared faces from being emitted twice.
	for z := 0; z < dim-2; z++ {
		for y := 0; y < dim-2; y++ {
			for x := 0; x < dim-2; x++ {
				v := g.At(x, y, z)
				if v.Iso < isoLevel {
					continue
				}
				for fi, d := range faceDirs {
					nx, ny, nz := x+d[0], y+d[1], z+d[2]
					if g.InBounds(nx, ny, nz) && g.At(nx, ny, nz).Iso >= isoLevel {
						continue
					}
					normal := mathx.Vec3{X: float64(d[0]), Y: float64(d[1]), Z: float64(d[2])}
					var quad [4]Vertex
					for ci, c := range faceCorners[fi] {
						quad[ci] = Vertex{
							Pos: mathx.Vec3{
								X: origin.X + (float64(x)+c[0])*voxelSize,
								Y: origin.Y + (float64(y)+c[1])*voxelSize,
								Z: origin.Z + (float64(z)+c[2])*voxelSize,
							},
							Normal:   normal,
							Material: v.Material,
							Progress: v.BreakingProgress,
						}
					}
					mesh.Vertices = append(mesh.Vertices,
						quad[0], quad[1], quad[2],
						quad[0], quad[2], quad[3])
				}
			}
		}
	}
	return mesh, nil
}
