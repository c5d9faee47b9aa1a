package pipeline

import (
	"log"

	"voxelforge.dev/internal/sim/world/structures"
)

// StructureStage stamps the portions of deterministic structure candidates
// that overlap the chunk being processed. Candidates are owned by chunks in
// a small halo around it; ownership is a pure function of world position,
// so neighbors re-derive the same instances and never write conflicting
// voxels into this chunk.
type StructureStage struct {
	In    *Queue
	Out   *Queue
	Table *Table

	Disc *structures.Discoverer
	Halo int // owner neighborhood in chunks per axis
	Log  *log.Logger
}

func (s *StructureStage) Name() string { return "structure" }

func (s *StructureStage) Pending() int { return s.In.Len() }

func (s *StructureStage) Run(budget int) {
	halo := s.Halo
	if halo <= 0 {
		halo = 1
	}
	for i := 0; i < budget; i++ {
		c, ok := s.In.Pop()
		if !ok {
			return
		}
		rec, ok := s.Table.Get(c)
		if !ok {
			continue
		}

		stamped := false
		for dz := -halo; dz <= halo; dz++ {
			for dy := -halo; dy <= halo; dy++ {
				for dx := -halo; dx <= halo; dx++ {
					owner := c.Offset(dx, dy, dz)
					insts, errs := s.Disc.DiscoverOwned(owner)
					for _, err := range errs {
						s.Log.Printf("warn: structure probe near %s: %v", owner, err)
					}
					for _, inst := range insts {
						if structures.StampClipped(s.Disc, inst, c, rec.Cell) {
							stamped = true
						}
					}
				}
			}
		}
		if stamped {
			rec.Cell.Upload()
		}
		rec.Advance(StructureCompleted)
		s.Out.Push(c)
	}
}
