package voxel

import (
	"testing"

	"voxelforge.dev/internal/sim/world/logic/mathx"
)

func solidGrid(dim int, mat Material) *Grid {
	g := NewGrid(dim)
	for z := 0; z < dim; z++ {
		for y := 0; y < dim; y++ {
			for x := 0; x < dim; x++ {
				g.Set(x, y, z, Voxel{Material: mat, Iso: 1})
			}
		}
	}
	return g
}

func TestApply_BreakLandingOnThresholdIsNotACrossing(t *testing.T) {
	// Fully solid dirt, sphere r=2 s=-0.5 at (3,3,3): affected voxels land
	// exactly on 0.5, which must not count as broken.
	g := solidGrid(10, Dirt)
	b := SphereBrush(mathx.Vec3{X: 3, Y: 3, Z: 3}, 2, -0.5, Dirt)

	delta := Apply(g, b)
	if len(delta) != 0 {
		t.Fatalf("expected empty delta, got %v", delta)
	}

	for z := 0; z < 10; z++ {
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				dx, dy, dz := x-3, y-3, z-3
				v := g.At(x, y, z)
				if dx*dx+dy*dy+dz*dz <= 4 {
					if v.Iso != 0.5 {
						t.Fatalf("voxel (%d,%d,%d): iso=%v, want 0.5", x, y, z, v.Iso)
					}
				} else if v.Iso != 1 {
					t.Fatalf("voxel (%d,%d,%d) outside brush mutated: iso=%v", x, y, z, v.Iso)
				}
			}
		}
	}
}

func TestApply_BreakCountsDownwardCrossings(t *testing.T) {
	g := solidGrid(10, Stone)
	b := SphereBrush(mathx.Vec3{X: 4, Y: 4, Z: 4}, 1.2, -0.7, Stone)

	delta := Apply(g, b)

	// r=1.2 covers the center and its 6 face neighbors; every one drops from
	// 1.0 to 0.3, a downward crossing.
	if delta[Stone] != 7 {
		t.Fatalf("stone delta = %d, want 7", delta[Stone])
	}
}

func TestApply_BuildAssignsMaterialAndDecrements(t *testing.T) {
	g := NewGrid(10) // all air, iso 0
	b := SphereBrush(mathx.Vec3{X: 5, Y: 5, Z: 5}, 1, 0.8, Sand)

	delta := Apply(g, b)
	if delta[Sand] != -7 {
		t.Fatalf("sand delta = %d, want -7", delta[Sand])
	}
	v := g.At(5, 5, 5)
	if v.Material != Sand {
		t.Fatalf("material = %v, want SAND", v.Material)
	}
	if v.Iso != 0.8 {
		t.Fatalf("iso = %v, want 0.8", v.Iso)
	}
}

func TestApply_BuildDoesNotRelabelSolidWithoutForceReplace(t *testing.T) {
	g := solidGrid(8, Stone)
	b := SphereBrush(mathx.Vec3{X: 4, Y: 4, Z: 4}, 1, 0.5, Wood)

	Apply(g, b)
	if got := g.At(4, 4, 4).Material; got != Stone {
		t.Fatalf("solid voxel relabeled to %v", got)
	}

	b.ForceReplace = true
	Apply(g, b)
	if got := g.At(4, 4, 4).Material; got != Wood {
		t.Fatalf("force replace left %v", got)
	}
}

func TestApply_OneBlockOnlyGatesBreak(t *testing.T) {
	g := solidGrid(8, Stone)
	g.Set(4, 4, 4, Voxel{Material: Dirt, Iso: 1})

	b := SphereBrush(mathx.Vec3{X: 4, Y: 4, Z: 4}, 1.5, -0.8, Dirt)
	b.OneBlockOnly = true
	delta := Apply(g, b)

	if delta[Dirt] != 1 {
		t.Fatalf("dirt delta = %d, want 1", delta[Dirt])
	}
	if delta[Stone] != 0 {
		t.Fatalf("stone delta = %d, want 0", delta[Stone])
	}
	// The anchored voxel broke; the stone neighbors kept their iso.
	if got := g.At(4, 4, 4).Iso; got >= IsoSurface {
		t.Fatalf("anchored voxel not broken: iso=%v", got)
	}
	if got := g.At(5, 4, 4).Iso; got != 1 {
		t.Fatalf("stone neighbor mutated: iso=%v", got)
	}
}

func TestApply_PreviewWritesOnlyProgress(t *testing.T) {
	g := solidGrid(8, Dirt)
	b := SphereBrush(mathx.Vec3{X: 4, Y: 4, Z: 4}, 2, -0.9, Dirt)
	b.Preview = true
	b.Progress = 0.6

	delta := Apply(g, b)
	if len(delta) != 0 {
		t.Fatalf("preview produced delta %v", delta)
	}
	v := g.At(4, 4, 4)
	if v.Iso != 1 || v.Material != Dirt {
		t.Fatalf("preview mutated voxel: %+v", v)
	}
	if v.BreakingProgress != 0.6 {
		t.Fatalf("progress = %v, want 0.6", v.BreakingProgress)
	}

	// A committed edit clears the charge.
	b.Preview = false
	Apply(g, b)
	if got := g.At(4, 4, 4).BreakingProgress; got != 0 {
		t.Fatalf("committed edit left progress %v", got)
	}
}

func TestApply_FalloffMonotone(t *testing.T) {
	g := solidGrid(12, Dirt)
	b := SphereBrush(mathx.Vec3{X: 5, Y: 5, Z: 5}, 4, -0.4, Dirt)
	b.Falloff = true

	Apply(g, b)

	// Iso loss shrinks with distance from center along an axis.
	prev := g.At(5, 5, 5).Iso
	for d := 1; d <= 4; d++ {
		cur := g.At(5+d, 5, 5).Iso
		if cur < prev {
			t.Fatalf("falloff not monotone at distance %d: %v < %v", d, cur, prev)
		}
		prev = cur
	}
	if g.At(5, 5, 5).Iso >= g.At(8, 5, 5).Iso {
		t.Fatalf("center should lose the most iso")
	}
}

func TestApply_InverseEditRestoresInventory(t *testing.T) {
	g := solidGrid(10, Dirt)
	breakBrush := SphereBrush(mathx.Vec3{X: 4, Y: 4, Z: 4}, 2, -0.6, Dirt)
	buildBrush := SphereBrush(mathx.Vec3{X: 4, Y: 4, Z: 4}, 2, 0.6, Dirt)

	total := Delta{}
	total.Merge(Apply(g, breakBrush))
	if total[Dirt] <= 0 {
		t.Fatalf("break produced no dirt: %v", total)
	}
	total.Merge(Apply(g, buildBrush))

	if len(total) != 0 {
		t.Fatalf("inverse edit left net delta %v", total)
	}
	// Iso restored too: build clamps back up to the original 1.0 only where
	// break pulled it down, so the crossing counts match exactly.
	for z := 0; z < 10; z++ {
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				dx, dy, dz := x-4, y-4, z-4
				if dx*dx+dy*dy+dz*dz > 4 {
					continue
				}
				if got := g.At(x, y, z).Iso; got < IsoSurface {
					t.Fatalf("voxel (%d,%d,%d) not rebuilt: iso=%v", x, y, z, got)
				}
			}
		}
	}
}

func TestApply_BoxBrushRespectsRotation(t *testing.T) {
	g := NewGrid(12)
	// Unrotated flat box: half extents 3x1x3.
	b := BoxBrush(mathx.Vec3{X: 5, Y: 5, Z: 5}, mathx.Vec3{X: 3, Y: 1, Z: 3}, mathx.Identity3(), 0.9, Stone)

	Apply(g, b)
	if g.At(8, 5, 5).Iso != 0.9 {
		t.Fatalf("in-box voxel untouched")
	}
	if g.At(5, 8, 5).Iso != 0 {
		t.Fatalf("voxel above flat box mutated")
	}
}
