package pipeline

import (
	"log"

	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/terrain"
)

// MeshStage extracts the render surface. Edit-triggered rebuilds arrive on
// the priority queue, which is always drained before the normal queue;
// budget exhaustion can defer priority work to the next tick but never
// reorder it behind normal work.
type MeshStage struct {
	Priority *Queue
	In       *Queue
	Out      *Queue
	Table    *Table

	World     grid.ChunkWorld
	Extractor terrain.SurfaceExtractor
	IsoLevel  float32

	// Colliders are built eagerly for chunks near the observer.
	ColliderRadius int
	VerticalRadius int
	Observer       func() grid.ChunkCoord

	Seed         int64
	DecorDensity int
	Log          *log.Logger
}

func (s *MeshStage) Name() string { return "mesh" }

func (s *MeshStage) Pending() int { return s.Priority.Len() + s.In.Len() }

func (s *MeshStage) pop() (grid.ChunkCoord, bool) {
	if c, ok := s.Priority.Pop(); ok {
		return c, true
	}
	return s.In.Pop()
}

func (s *MeshStage) Run(budget int) {
	vs := s.World.VoxelSize()
	for i := 0; i < budget; i++ {
		c, ok := s.pop()
		if !ok {
			return
		}
		rec, ok := s.Table.Get(c)
		if !ok {
			continue
		}

		if err := rec.Cell.BuildMesh(s.Extractor, vs, s.IsoLevel); err != nil {
			s.Log.Printf("warn: mesh extraction %s: %v", c, err)
			continue
		}
		rec.Cell.DeriveDecorations(decorSeed(s.Seed, c), s.DecorDensity)

		if s.withinColliderRange(c) {
			if err := rec.Cell.BuildCollider(s.Extractor, vs, s.IsoLevel); err != nil {
				s.Log.Printf("warn: collider cook %s: %v", c, err)
			} else {
				rec.ColliderCooked = true
			}
		}
		if rec.ColliderCooked {
			rec.Advance(Finished)
		} else {
			rec.Advance(MeshCompleted)
		}
		s.Out.Push(c)
	}
}

func (s *MeshStage) withinColliderRange(c grid.ChunkCoord) bool {
	h, v := c.Chebyshev(s.Observer())
	return h <= s.ColliderRadius && v <= s.VerticalRadius
}

func decorSeed(seed int64, c grid.ChunkCoord) uint64 {
	return mathx.Hash3(seed, c.X, c.Y, c.Z)
}
