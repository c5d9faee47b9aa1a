package world

import (
	"fmt"
	"sort"

	"voxelforge.dev/internal/persistence/snapshot"
	"voxelforge.dev/internal/sim/encoding"
	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/pipeline"
	"voxelforge.dev/internal/sim/world/voxel"
)

// ExportSnapshot captures every loaded chunk's voxel field and the session
// inventory. Chunks are sorted so identical worlds export identical bytes.
func (w *World) ExportSnapshot(worldID string) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: 1,
			WorldID: worldID,
			Tick:    w.tick,
		},
		Seed:      w.cfg.Seed,
		ChunkEdge: w.cfg.ChunkEdge,
		GridDim:   w.cfg.GridDim,
		Inventory: w.inventory.Counts(),
	}

	w.table.Each(func(rec *pipeline.Record) bool {
		g := rec.Cell.Grid()
		n := g.Len()
		materials := make([]uint8, n)
		iso := make([]float32, n)
		i := 0
		dim := g.Dim()
		for z := 0; z < dim; z++ {
			for y := 0; y < dim; y++ {
				for x := 0; x < dim; x++ {
					v := g.At(x, y, z)
					materials[i] = uint8(v.Material)
					iso[i] = v.Iso
					i++
				}
			}
		}
		snap.Chunks = append(snap.Chunks, snapshot.ChunkV1{
			Coord:        [3]int{rec.Coord.X, rec.Coord.Y, rec.Coord.Z},
			MaterialsRLE: encoding.EncodeRLE(materials),
			Iso:          iso,
		})
		return true
	})

	sort.Slice(snap.Chunks, func(i, j int) bool {
		a, b := snap.Chunks[i].Coord, snap.Chunks[j].Coord
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
	return snap
}

// RestoreSnapshot loads chunks back into the table with their voxel data
// intact. Restored records re-enter the pipeline past the structure stage:
// density and structures are already baked into the field, and re-stamping
// would overwrite any edits the player made to stamped voxels.
func (w *World) RestoreSnapshot(snap snapshot.SnapshotV1) error {
	if snap.GridDim != w.cfg.GridDim {
		return fmt.Errorf("snapshot grid dim %d does not match configured %d", snap.GridDim, w.cfg.GridDim)
	}
	if snap.ChunkEdge != w.cfg.ChunkEdge {
		return fmt.Errorf("snapshot chunk edge %v does not match configured %v", snap.ChunkEdge, w.cfg.ChunkEdge)
	}

	for _, ch := range snap.Chunks {
		c := grid.ChunkCoord{X: ch.Coord[0], Y: ch.Coord[1], Z: ch.Coord[2]}
		if _, ok := w.table.Get(c); ok {
			continue
		}
		cl, ok := w.pool.Acquire()
		if !ok {
			return fmt.Errorf("pool exhausted restoring chunk %s", c)
		}
		cl.ResetFor(w.cw.ChunkOrigin(c))

		materials, err := encoding.DecodeRLE(ch.MaterialsRLE)
		if err != nil {
			w.pool.Release(cl)
			return fmt.Errorf("snapshot chunk %s: %w", c, err)
		}
		g := cl.Grid()
		if len(materials) != g.Len() || len(ch.Iso) != g.Len() {
			w.pool.Release(cl)
			return fmt.Errorf("snapshot chunk %s has %d samples, want %d", c, len(materials), g.Len())
		}
		i := 0
		dim := g.Dim()
		for z := 0; z < dim; z++ {
			for y := 0; y < dim; y++ {
				for x := 0; x < dim; x++ {
					g.Set(x, y, z, voxel.Voxel{
						Material: voxel.Material(materials[i]),
						Iso:      ch.Iso[i],
					})
					i++
				}
			}
		}

		w.table.Put(&pipeline.Record{
			Coord:    c,
			Cell:     cl,
			Stage:    pipeline.StructureCompleted,
			Restored: true,
		})
		w.qMesh.Push(c)
	}

	w.tick = snap.Header.Tick
	for name, count := range snap.Inventory {
		m, err := voxel.ParseMaterial(name)
		if err != nil {
			return fmt.Errorf("snapshot inventory: %w", err)
		}
		w.inventory[m] = count
	}
	return nil
}
