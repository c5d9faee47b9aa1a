package pipeline

import (
	"log"

	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/terrain"
)

// ColliderStage promotes meshed chunks to collidable once they come within
// collider range. Out-of-range chunks are requeued, never dropped; the
// re-check is a pair of integer distances, so the promotion budget can run
// high.
type ColliderStage struct {
	In    *Queue
	Table *Table

	World     grid.ChunkWorld
	Extractor terrain.SurfaceExtractor
	IsoLevel  float32

	ColliderRadius int
	VerticalRadius int
	Observer       func() grid.ChunkCoord

	Log *log.Logger
}

func (s *ColliderStage) Name() string { return "collider" }

func (s *ColliderStage) Pending() int { return s.In.Len() }

func (s *ColliderStage) Run(budget int) {
	vs := s.World.VoxelSize()
	obs := s.Observer()
	for i := 0; i < budget; i++ {
		c, ok := s.In.Pop()
		if !ok {
			return
		}
		rec, ok := s.Table.Get(c)
		if !ok {
			continue
		}
		if rec.ColliderCooked {
			rec.Advance(Finished)
			continue
		}

		h, v := c.Chebyshev(obs)
		if h > s.ColliderRadius || v > s.VerticalRadius {
			// Still out of range; keep it waiting.
			s.In.Push(c)
			continue
		}
		if err := rec.Cell.BuildCollider(s.Extractor, vs, s.IsoLevel); err != nil {
			s.Log.Printf("warn: collider promotion %s: %v", c, err)
			s.In.Push(c)
			continue
		}
		rec.ColliderCooked = true
		rec.Advance(Finished)
	}
}
