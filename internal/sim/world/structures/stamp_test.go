package structures

import (
	"testing"

	"voxelforge.dev/internal/sim/world/cell"
	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/voxel"
)

func stampWorld(t *testing.T) grid.ChunkWorld {
	t.Helper()
	w, err := grid.New(16, 10)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	return w
}

func TestStampClipped_WritesOnlyOverlappingChunks(t *testing.T) {
	cw := stampWorld(t)
	d := &Discoverer{World: cw, Seed: 1, Archetypes: []Archetype{testArchetype()}}
	inst := Instance{Pos: mathx.Vec3{X: 8, Y: 4, Z: 8}, Archetype: 0, Seed: 99}

	home := grid.ChunkCoord{}
	c := cell.New(cw.GridDim)
	c.ResetFor(cw.ChunkOrigin(home))
	if !StampClipped(d, inst, home, c) {
		t.Fatalf("nothing stamped into the owning chunk")
	}
	wood := 0
	g := c.Grid()
	for z := 0; z < g.Dim(); z++ {
		for y := 0; y < g.Dim(); y++ {
			for x := 0; x < g.Dim(); x++ {
				if g.At(x, y, z).Material == voxel.Wood {
					wood++
				}
			}
		}
	}
	if wood == 0 {
		t.Fatalf("trunk left no wood voxels")
	}

	far := grid.ChunkCoord{X: 5}
	fc := cell.New(cw.GridDim)
	fc.ResetFor(cw.ChunkOrigin(far))
	if StampClipped(d, inst, far, fc) {
		t.Fatalf("stamp claimed to touch a distant chunk")
	}
	fg := fc.Grid()
	for z := 0; z < fg.Dim(); z++ {
		for y := 0; y < fg.Dim(); y++ {
			for x := 0; x < fg.Dim(); x++ {
				if v := fg.At(x, y, z); v.Iso != 0 || v.Material != voxel.Air {
					t.Fatalf("distant chunk mutated at (%d,%d,%d): %+v", x, y, z, v)
				}
			}
		}
	}
}

func TestStampClipped_DeterministicPerInstance(t *testing.T) {
	cw := stampWorld(t)
	d := &Discoverer{World: cw, Seed: 1, Archetypes: []Archetype{testArchetype()}}
	inst := Instance{Pos: mathx.Vec3{X: 6, Y: 3, Z: 10}, Archetype: 0, Seed: 4242}
	home := grid.ChunkCoord{}

	a := cell.New(cw.GridDim)
	a.ResetFor(cw.ChunkOrigin(home))
	StampClipped(d, inst, home, a)

	b := cell.New(cw.GridDim)
	b.ResetFor(cw.ChunkOrigin(home))
	StampClipped(d, inst, home, b)

	ga, gb := a.Grid(), b.Grid()
	for z := 0; z < ga.Dim(); z++ {
		for y := 0; y < ga.Dim(); y++ {
			for x := 0; x < ga.Dim(); x++ {
				if ga.At(x, y, z) != gb.At(x, y, z) {
					t.Fatalf("stamp diverged at (%d,%d,%d)", x, y, z)
				}
			}
		}
	}
}

func TestStampClipped_SharedBorderRowsAgree(t *testing.T) {
	cw := stampWorld(t)
	d := &Discoverer{World: cw, Seed: 1, Archetypes: []Archetype{testArchetype()}}
	// Anchor right on the +X chunk face so both neighbors see the trunk.
	inst := Instance{Pos: mathx.Vec3{X: 16, Y: 4, Z: 8}, Archetype: 0, Seed: 7}

	left := grid.ChunkCoord{}
	right := grid.ChunkCoord{X: 1}
	lc := cell.New(cw.GridDim)
	lc.ResetFor(cw.ChunkOrigin(left))
	rc := cell.New(cw.GridDim)
	rc.ResetFor(cw.ChunkOrigin(right))
	if !StampClipped(d, inst, left, lc) || !StampClipped(d, inst, right, rc) {
		t.Fatalf("border instance did not reach both neighbors")
	}

	// Row Span of the left grid and row 0 of the right grid are the same
	// world-space plane.
	span := cw.Span()
	lg, rg := lc.Grid(), rc.Grid()
	for z := 0; z < lg.Dim(); z++ {
		for y := 0; y < lg.Dim(); y++ {
			lv, rv := lg.At(span, y, z), rg.At(0, y, z)
			diff := lv.Iso - rv.Iso
			if diff < 0 {
				diff = -diff
			}
			// The two grids express the plane in different local frames, so
			// allow float slop at the brush boundary.
			if diff > 1e-3 {
				t.Fatalf("border iso differs at y=%d z=%d: %v vs %v", y, z, lv.Iso, rv.Iso)
			}
			if lv.Iso > 0.9 && rv.Iso > 0.9 && lv.Material != rv.Material {
				t.Fatalf("border material differs at y=%d z=%d: %v vs %v", y, z, lv.Material, rv.Material)
			}
		}
	}
}
