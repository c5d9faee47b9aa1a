package structures

import (
	"errors"
	"testing"

	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/terrain"
	"voxelforge.dev/internal/sim/world/voxel"
)

type flatProbe struct {
	height float64
	mat    voxel.Material
	err    error
}

func (p flatProbe) SurfaceAt(x, z float64) (terrain.Ground, error) {
	if p.err != nil {
		return terrain.Ground{}, p.err
	}
	return terrain.Ground{Height: p.height, Material: p.mat}, nil
}

func testArchetype() Archetype {
	return Archetype{
		Name:                "oak",
		SpacingGrid:         8,
		ProbabilityPermille: 600,
		TrunkHeight:         [2]float64{4, 6},
		TrunkRadius:         0.5,
		BranchCount:         [2]int{2, 4},
		BranchLength:        [2]float64{1.5, 3},
		CanopyRadius:        2.5,
		MinAltitude:         -64,
		MaxAltitude:         64,
		TrunkMaterial:       voxel.Wood,
		LeavesMaterial:      voxel.Leaves,
	}
}

func testDiscoverer(t *testing.T, probe terrain.GroundProbe) *Discoverer {
	t.Helper()
	w, err := grid.New(16, 19)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	return &Discoverer{
		World:      w,
		Seed:       1337,
		Archetypes: []Archetype{testArchetype()},
		Probe:      probe,
	}
}

func TestDiscoverOwned_Idempotent(t *testing.T) {
	d := testDiscoverer(t, flatProbe{height: 5, mat: voxel.Grass})
	owner := grid.ChunkCoord{X: 2, Y: 0, Z: -1}

	first, errs := d.DiscoverOwned(owner)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	second, _ := d.DiscoverOwned(owner)
	if len(first) != len(second) {
		t.Fatalf("rediscovery changed instance count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("instance %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDiscoverOwned_AnchorsBelongToOwner(t *testing.T) {
	d := testDiscoverer(t, flatProbe{height: 5, mat: voxel.Grass})

	total := 0
	for cz := -2; cz <= 2; cz++ {
		for cx := -2; cx <= 2; cx++ {
			owner := grid.ChunkCoord{X: cx, Y: 0, Z: cz}
			insts, _ := d.DiscoverOwned(owner)
			total += len(insts)
			for _, in := range insts {
				if got := d.World.WorldToChunk(in.Pos); got != owner {
					t.Fatalf("instance at %v resolves to %v, owner %v", in.Pos, got, owner)
				}
			}
		}
	}
	if total == 0 {
		t.Fatalf("no instances across a 5x5 chunk patch; seed or probability off")
	}
}

func TestDiscoverOwned_NoDuplicatesAcrossNeighbors(t *testing.T) {
	d := testDiscoverer(t, flatProbe{height: 5, mat: voxel.Grass})

	seen := map[[2]float64]grid.ChunkCoord{}
	for cz := -1; cz <= 1; cz++ {
		for cx := -1; cx <= 1; cx++ {
			owner := grid.ChunkCoord{X: cx, Y: 0, Z: cz}
			insts, _ := d.DiscoverOwned(owner)
			for _, in := range insts {
				key := [2]float64{in.Pos.X, in.Pos.Z}
				if prev, ok := seen[key]; ok {
					t.Fatalf("anchor %v owned by both %v and %v", key, prev, owner)
				}
				seen[key] = owner
			}
		}
	}
}

func TestDiscoverOwned_VerticalOwnershipFollowsGround(t *testing.T) {
	d := testDiscoverer(t, flatProbe{height: 5, mat: voxel.Grass})

	if insts, _ := d.DiscoverOwned(grid.ChunkCoord{Y: 1}); len(insts) != 0 {
		t.Fatalf("chunk above ground claimed %d instances", len(insts))
	}
}

func TestDiscoverOwned_RejectsBareStone(t *testing.T) {
	d := testDiscoverer(t, flatProbe{height: 5, mat: voxel.Stone})

	for cz := -2; cz <= 2; cz++ {
		for cx := -2; cx <= 2; cx++ {
			if insts, _ := d.DiscoverOwned(grid.ChunkCoord{X: cx, Z: cz}); len(insts) != 0 {
				t.Fatalf("stone surface accepted at chunk (%d,%d)", cx, cz)
			}
		}
	}
}

func TestDiscoverOwned_AltitudeBand(t *testing.T) {
	d := testDiscoverer(t, flatProbe{height: 200, mat: voxel.Grass})

	if insts, _ := d.DiscoverOwned(grid.ChunkCoord{Y: 12}); len(insts) != 0 {
		t.Fatalf("instances above the altitude band: %d", len(insts))
	}
}

func TestDiscoverOwned_ProbeFailureIsReported(t *testing.T) {
	boom := errors.New("probe exploded")
	d := testDiscoverer(t, flatProbe{err: boom})

	var sawErr bool
	for cz := -2; cz <= 2 && !sawErr; cz++ {
		for cx := -2; cx <= 2; cx++ {
			insts, errs := d.DiscoverOwned(grid.ChunkCoord{X: cx, Z: cz})
			if len(insts) != 0 {
				t.Fatalf("failing probe still produced instances")
			}
			if len(errs) > 0 {
				if !errors.Is(errs[0], boom) {
					t.Fatalf("unexpected error: %v", errs[0])
				}
				sawErr = true
				break
			}
		}
	}
	if !sawErr {
		t.Fatalf("probe failure never surfaced; no candidates hashed in")
	}
}

func TestDiscoverOwned_NoGroundYieldsNothingQuietly(t *testing.T) {
	d := testDiscoverer(t, flatProbe{err: terrain.ErrNoGround})

	for cz := -2; cz <= 2; cz++ {
		for cx := -2; cx <= 2; cx++ {
			insts, errs := d.DiscoverOwned(grid.ChunkCoord{X: cx, Z: cz})
			if len(insts) != 0 || len(errs) != 0 {
				t.Fatalf("ErrNoGround should yield no instances and no errors")
			}
		}
	}
}

func TestBuild_DeterministicForSeed(t *testing.T) {
	a := testArchetype()

	one := a.Build(Instance{Seed: 42})
	two := a.Build(Instance{Seed: 42})
	if len(one) != len(two) {
		t.Fatalf("primitive count differs: %d vs %d", len(one), len(two))
	}
	for i := range one {
		if one[i] != two[i] {
			t.Fatalf("primitive %d differs: %+v vs %+v", i, one[i], two[i])
		}
	}

	other := a.Build(Instance{Seed: 43})
	same := len(other) == len(one)
	if same {
		same = true
		for i := range one {
			if one[i] != other[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatalf("different seeds built identical trees")
	}
}
