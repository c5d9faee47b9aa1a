// Package cell owns the per-chunk runtime resources: the voxel grid, the
// derived render mesh, the collision mesh and the cached decoration points.
// Cells are expensive to allocate and cheap to reset, so they are pooled.
package cell

import (
	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/terrain"
	"voxelforge.dev/internal/sim/world/voxel"
)

type Cell struct {
	grid   *voxel.Grid
	origin mathx.Vec3

	mesh        terrain.Mesh
	collider    terrain.Mesh
	hasMesh     bool
	hasCollider bool

	decorations []mathx.Vec3

	gridDirty bool
	uploads   uint64
}

// New allocates a cell and its grid. This is the expensive path; the pool
// calls it a bounded number of times per session.
func New(dim int) *Cell {
	return &Cell{grid: voxel.NewGrid(dim)}
}

// ResetFor relocates a pooled cell to a new chunk origin and clears every
// derived resource. The grid allocation is retained.
func (c *Cell) ResetFor(origin mathx.Vec3) {
	c.grid.Reset()
	c.origin = origin
	c.mesh = terrain.Mesh{}
	c.collider = terrain.Mesh{}
	c.hasMesh = false
	c.hasCollider = false
	c.decorations = c.decorations[:0]
	c.gridDirty = false
}

func (c *Cell) Grid() *voxel.Grid   { return c.grid }
func (c *Cell) Origin() mathx.Vec3  { return c.origin }
func (c *Cell) HasMesh() bool       { return c.hasMesh }
func (c *Cell) HasCollider() bool   { return c.hasCollider }
func (c *Cell) Mesh() terrain.Mesh  { return c.mesh }
func (c *Cell) Uploads() uint64     { return c.uploads }

// ApplyBrush mutates the grid and leaves it dirty; Upload must follow once
// per edit or batch.
func (c *Cell) ApplyBrush(b voxel.Brush) voxel.Delta {
	d := voxel.Apply(c.grid, b)
	c.gridDirty = true
	return d
}

// Smooth runs the smoothing kernel; same upload contract as ApplyBrush.
func (c *Cell) Smooth(center mathx.Vec3, radius float64, strength float32, mat voxel.Material, falloff bool) voxel.Delta {
	d := voxel.Smooth(c.grid, center, radius, strength, mat, falloff)
	c.gridDirty = true
	return d
}

// Upload pushes the edited grid to the mesh-extraction side. With a GPU
// backend this is the buffer update; here it just counts, which is what the
// one-upload-per-batch tests observe.
func (c *Cell) Upload() {
	if !c.gridDirty {
		return
	}
	c.gridDirty = false
	c.uploads++
}

func (c *Cell) BuildMesh(ex terrain.SurfaceExtractor, voxelSize float64, isoLevel float32) error {
	m, err := ex.Extract(c.grid, c.origin, voxelSize, isoLevel)
	if err != nil {
		return err
	}
	c.mesh = m
	c.hasMesh = true
	return nil
}

// BuildCollider cooks the collision mesh from the current grid. Kept as a
// separate extraction so a collider can be built later than the render mesh.
func (c *Cell) BuildCollider(ex terrain.SurfaceExtractor, voxelSize float64, isoLevel float32) error {
	m, err := ex.Extract(c.grid, c.origin, voxelSize, isoLevel)
	if err != nil {
		return err
	}
	c.collider = m
	c.hasCollider = true
	return nil
}

// DropCollider clears the cooked collider, forcing a rebuild after edits.
func (c *Cell) DropCollider() {
	c.collider = terrain.Mesh{}
	c.hasCollider = false
}

// Decorations returns the cached decoration anchor points (world space).
func (c *Cell) Decorations() []mathx.Vec3 { return c.decorations }

// DeriveDecorations picks deterministic surface points off the current mesh
// as anchors for foliage and pebbles. The visual spawn is out of scope; the
// cache exists so edits can invalidate anchors inside the edited volume.
func (c *Cell) DeriveDecorations(seed uint64, density int) {
	c.decorations = c.decorations[:0]
	if density <= 0 || !c.hasMesh {
		return
	}
	rng := mathx.NewRand(seed)
	verts := c.mesh.Vertices
	for i := 0; i+2 < len(verts); i += 3 {
		// Upward-facing triangles only.
		if verts[i].Normal.Y <= 0 {
			continue
		}
		if rng.IntN(density) != 0 {
			continue
		}
		center := verts[i].Pos.Add(verts[i+1].Pos).Add(verts[i+2].Pos).Scale(1.0 / 3.0)
		c.decorations = append(c.decorations, center)
	}
}

// PruneDecorations drops every cached anchor for which keep returns false
// and reports how many were removed.
func (c *Cell) PruneDecorations(remove func(mathx.Vec3) bool) int {
	kept := c.decorations[:0]
	removed := 0
	for _, p := range c.decorations {
		if remove(p) {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	c.decorations = kept
	return removed
}
