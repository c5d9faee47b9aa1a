package world

import (
	"math"

	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/pipeline"
	"voxelforge.dev/internal/sim/world/voxel"
)

// EditOptions are the per-request brush modifiers.
type EditOptions struct {
	// Falloff fades strength linearly toward the brush edge.
	Falloff bool
	// OneBlockOnly anchors a break to the requested material.
	OneBlockOnly bool
	// Preview writes only breaking progress (charge-up feedback).
	Preview  bool
	Progress float32
}

// worldBrush is one brush volume in world units, kept around after
// application for decoration cleanup.
type worldBrush struct {
	shape       voxel.Shape
	center      mathx.Vec3
	radius      float64
	halfExtents mathx.Vec3
	rot         mathx.Mat3

	strength float32
	material voxel.Material
	opts     EditOptions
	smooth   bool
}

// boundRadius is a rotation-invariant radius enclosing the brush volume.
func (wb worldBrush) boundRadius() float64 {
	if wb.shape == voxel.Box {
		return wb.halfExtents.Len()
	}
	return wb.radius
}

func (wb worldBrush) contains(p mathx.Vec3) bool {
	switch wb.shape {
	case voxel.Sphere:
		return p.Sub(wb.center).Len2() <= wb.radius*wb.radius
	case voxel.Box:
		d := wb.rot.ApplyInv(p.Sub(wb.center))
		return math.Abs(d.X) <= wb.halfExtents.X &&
			math.Abs(d.Y) <= wb.halfExtents.Y &&
			math.Abs(d.Z) <= wb.halfExtents.Z
	}
	return false
}

// EditBatch fans world-space brushes out to every intersected loaded chunk
// and defers the per-chunk upload and decoration cleanup to Commit, so a
// multi-brush edit uploads each touched grid once.
type EditBatch struct {
	w       *World
	touched map[grid.ChunkCoord]*pipeline.Record
	// destructive marks chunks that took a non-preview brush; only those
	// lose their cooked collider.
	destructive map[grid.ChunkCoord]bool
	volumes     []worldBrush
	delta       voxel.Delta
}

func (w *World) BeginBatch() *EditBatch {
	return &EditBatch{
		w:           w,
		touched:     make(map[grid.ChunkCoord]*pipeline.Record),
		destructive: make(map[grid.ChunkCoord]bool),
		delta:       voxel.Delta{},
	}
}

func (b *EditBatch) Sphere(center mathx.Vec3, radius float64, strength float32, mat voxel.Material, opts EditOptions) {
	b.apply(worldBrush{
		shape:    voxel.Sphere,
		center:   center,
		radius:   radius,
		rot:      mathx.Identity3(),
		strength: strength,
		material: mat,
		opts:     opts,
	})
}

func (b *EditBatch) Cube(center, halfExtents mathx.Vec3, rot mathx.Mat3, strength float32, mat voxel.Material, opts EditOptions) {
	b.apply(worldBrush{
		shape:       voxel.Box,
		center:      center,
		halfExtents: halfExtents,
		rot:         rot,
		strength:    strength,
		material:    mat,
		opts:        opts,
	})
}

func (b *EditBatch) Smooth(center mathx.Vec3, radius float64, strength float32, mat voxel.Material, falloff bool) {
	b.apply(worldBrush{
		shape:    voxel.Sphere,
		center:   center,
		radius:   radius,
		rot:      mathx.Identity3(),
		strength: strength,
		material: mat,
		opts:     EditOptions{Falloff: falloff},
		smooth:   true,
	})
}

// apply maps the brush bounding box, padded by one voxel, into chunk-index
// space and re-expresses the brush in each intersected loaded chunk's local
// grid. Unloaded chunks in range are skipped; the edit simply does not
// exist there.
func (b *EditBatch) apply(wb worldBrush) {
	w := b.w
	vs := w.cw.VoxelSize()
	pad := wb.boundRadius() + vs
	lo := w.cw.WorldToChunk(wb.center.Sub(mathx.Vec3{X: pad, Y: pad, Z: pad}))
	hi := w.cw.WorldToChunk(wb.center.Add(mathx.Vec3{X: pad, Y: pad, Z: pad}))

	for cz := lo.Z; cz <= hi.Z; cz++ {
		for cy := lo.Y; cy <= hi.Y; cy++ {
			for cx := lo.X; cx <= hi.X; cx++ {
				c := grid.ChunkCoord{X: cx, Y: cy, Z: cz}
				rec, ok := w.table.Get(c)
				if !ok {
					continue
				}

				local := w.cw.LocalVoxel(c, wb.center)
				var d voxel.Delta
				if wb.smooth {
					d = rec.Cell.Smooth(local, wb.radius/vs, wb.strength, wb.material, wb.opts.Falloff)
				} else {
					d = rec.Cell.ApplyBrush(voxel.Brush{
						Shape:        wb.shape,
						Center:       local,
						Radius:       wb.radius / vs,
						HalfExtents:  wb.halfExtents.Scale(1 / vs),
						Rot:          wb.rot,
						Strength:     wb.strength,
						Material:     wb.material,
						Falloff:      wb.opts.Falloff,
						OneBlockOnly: wb.opts.OneBlockOnly,
						Preview:      wb.opts.Preview,
						Progress:     wb.opts.Progress,
					})
				}
				b.delta.Merge(d)
				b.touched[c] = rec
				if !wb.opts.Preview {
					b.destructive[c] = true
				}
			}
		}
	}
	b.volumes = append(b.volumes, wb)
}

// Commit uploads every touched grid once, prunes cached decorations inside
// the edited volumes, reprioritizes the touched chunks for re-meshing and
// folds the aggregated delta into the controller's inventory.
func (b *EditBatch) Commit() voxel.Delta {
	for c, rec := range b.touched {
		rec.Cell.Upload()
		rec.Cell.PruneDecorations(func(p mathx.Vec3) bool {
			for _, v := range b.volumes {
				if v.contains(p) {
					return true
				}
			}
			return false
		})
		// Chunks still in the fill stages carry the edit in their grid and
		// get meshed when they reach the mesh stage on their own; queueing
		// them here would mesh an unfilled field and skip stages.
		if rec.Stage >= pipeline.StructureCompleted {
			b.w.qMeshPrio.Push(c)
		}
		if b.destructive[c] {
			rec.ColliderCooked = false
			rec.Cell.DropCollider()
		}
	}
	b.w.inventory.Apply(b.delta)
	if len(b.volumes) > 0 {
		named := make(map[string]int, len(b.delta))
		for m, n := range b.delta {
			named[m.String()] = n
		}
		b.w.journalEdit(b.volumes, named)
	}
	return b.delta
}

// EditSphere applies one spherical brush and returns the inventory delta.
func (w *World) EditSphere(center mathx.Vec3, radius float64, strength float32, mat voxel.Material, opts EditOptions) voxel.Delta {
	b := w.BeginBatch()
	b.Sphere(center, radius, strength, mat, opts)
	return b.Commit()
}

// EditCube applies one oriented box brush.
func (w *World) EditCube(center, halfExtents mathx.Vec3, rot mathx.Mat3, strength float32, mat voxel.Material, opts EditOptions) voxel.Delta {
	b := w.BeginBatch()
	b.Cube(center, halfExtents, rot, strength, mat, opts)
	return b.Commit()
}

// SmoothSphere blends iso values toward their neighborhood average inside
// the sphere.
func (w *World) SmoothSphere(center mathx.Vec3, radius float64, strength float32, mat voxel.Material, falloff bool) voxel.Delta {
	b := w.BeginBatch()
	b.Smooth(center, radius, strength, mat, falloff)
	return b.Commit()
}
