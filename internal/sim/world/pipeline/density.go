package pipeline

import (
	"log"

	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/terrain"
)

// DensityStage fills freshly loaded chunks from the configured noise
// layers, one fill dispatch per layer.
type DensityStage struct {
	In    *Queue
	Out   *Queue
	Table *Table

	World  grid.ChunkWorld
	Filler terrain.DensityFiller
	Layers []terrain.NoiseLayer
	Log    *log.Logger
}

func (s *DensityStage) Name() string { return "density" }

func (s *DensityStage) Pending() int { return s.In.Len() }

func (s *DensityStage) Run(budget int) {
	for i := 0; i < budget; i++ {
		c, ok := s.In.Pop()
		if !ok {
			return
		}
		rec, ok := s.Table.Get(c)
		if !ok {
			// Unloaded while queued; normal streaming churn.
			continue
		}

		if !rec.Restored {
			if !s.fill(rec) {
				// Not advanced; a reload will retry.
				continue
			}
		}
		rec.Advance(DensityCompleted)
		s.Out.Push(c)
	}
}

func (s *DensityStage) fill(rec *Record) bool {
	origin := s.World.ChunkOrigin(rec.Coord)
	vs := s.World.VoxelSize()
	for _, layer := range s.Layers {
		if err := s.Filler.Fill(rec.Cell.Grid(), origin, vs, layer); err != nil {
			s.Log.Printf("warn: density fill %s layer %s: %v", rec.Coord, layer.Name, err)
			return false
		}
	}
	terrain.AssignSurfaceMaterials(rec.Cell.Grid())
	return true
}
