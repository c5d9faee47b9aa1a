package terrain

import (
	"testing"

	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/voxel"
)

func baseLayer() NoiseLayer {
	return NoiseLayer{
		Name:        "base",
		Octaves:     3,
		Lacunarity:  2,
		Persistence: 0.5,
		Scale:       48,
		Weight:      0.35,
		Floor:       8,
		HardFloor:   -48,
		Material:    "STONE",
	}
}

func TestNoiseFiller_Deterministic(t *testing.T) {
	f := &NoiseFiller{Seed: 7}
	layer := baseLayer()
	origin := mathx.Vec3{X: 32, Y: -14, Z: -48}

	a := voxel.NewGrid(12)
	b := voxel.NewGrid(12)
	if err := f.Fill(a, origin, 2, layer); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := f.Fill(b, origin, 2, layer); err != nil {
		t.Fatalf("fill: %v", err)
	}

	for z := 0; z < 12; z++ {
		for y := 0; y < 12; y++ {
			for x := 0; x < 12; x++ {
				if a.At(x, y, z) != b.At(x, y, z) {
					t.Fatalf("fill diverged at (%d,%d,%d)", x, y, z)
				}
			}
		}
	}
}

func TestNoiseFiller_HardFloorIsSolid(t *testing.T) {
	f := &NoiseFiller{Seed: 7}
	layer := baseLayer()

	g := voxel.NewGrid(8)
	// Entire grid below the hard floor.
	if err := f.Fill(g, mathx.Vec3{Y: -200}, 2, layer); err != nil {
		t.Fatalf("fill: %v", err)
	}
	for y := 0; y < 8; y++ {
		v := g.At(3, y, 3)
		if v.Iso != 1 || v.Material != voxel.Stone {
			t.Fatalf("voxel below hard floor: %+v", v)
		}
	}
}

func TestNoiseFiller_RejectsBadInputs(t *testing.T) {
	f := &NoiseFiller{Seed: 7}
	g := voxel.NewGrid(8)
	if err := f.Fill(g, mathx.Vec3{}, 0, baseLayer()); err == nil {
		t.Fatalf("zero voxel size accepted")
	}
	bad := baseLayer()
	bad.Material = "ADAMANTIUM"
	if err := f.Fill(g, mathx.Vec3{}, 2, bad); err == nil {
		t.Fatalf("unknown material accepted")
	}
}

// The probe and the fill kernel must see the same surface, or structures get
// planted in mid-air.
func TestNoiseProbe_AgreesWithFill(t *testing.T) {
	const (
		seed = int64(7)
		vs   = 2.0
		dim  = 16
	)
	layer := baseLayer()
	origin := mathx.Vec3{X: 0, Y: -16, Z: 0}

	f := &NoiseFiller{Seed: seed}
	g := voxel.NewGrid(dim)
	if err := f.Fill(g, origin, vs, layer); err != nil {
		t.Fatalf("fill: %v", err)
	}

	probe := &NoiseProbe{
		Seed:   seed,
		Layers: []NoiseLayer{layer},
		Step:   vs,
		MaxY:   origin.Y + float64(dim-1)*vs,
		MinY:   origin.Y,
	}

	for _, col := range [][2]int{{0, 0}, {3, 5}, {7, 2}, {11, 11}} {
		x, z := col[0], col[1]
		wx := origin.X + float64(x)*vs
		wz := origin.Z + float64(z)*vs

		ground, err := probe.SurfaceAt(wx, wz)
		if err != nil {
			t.Fatalf("probe (%v,%v): %v", wx, wz, err)
		}
		iy := int((ground.Height - origin.Y) / vs)
		if !g.At(x, iy, z).Solid() {
			t.Fatalf("probe height %v is not solid in the fill at column (%d,%d)", ground.Height, x, z)
		}
		if iy+1 < dim && g.At(x, iy+1, z).Solid() {
			t.Fatalf("probe missed a higher surface at column (%d,%d)", x, z)
		}
		if ground.Material != voxel.Grass {
			t.Fatalf("open surface material = %v, want GRASS", ground.Material)
		}
	}
}

func TestNoiseProbe_NoGroundAboveTerrain(t *testing.T) {
	probe := &NoiseProbe{
		Seed:   7,
		Layers: []NoiseLayer{baseLayer()},
		Step:   2,
		MaxY:   400,
		MinY:   200,
	}
	if _, err := probe.SurfaceAt(5, 5); err != ErrNoGround {
		t.Fatalf("err = %v, want ErrNoGround", err)
	}
}

func TestAssignSurfaceMaterials_Layers(t *testing.T) {
	g := voxel.NewGrid(10)
	for y := 0; y <= 5; y++ {
		g.Set(4, y, 4, voxel.Voxel{Material: voxel.Stone, Iso: 1})
	}
	AssignSurfaceMaterials(g)

	if got := g.At(4, 5, 4).Material; got != voxel.Grass {
		t.Fatalf("top = %v, want GRASS", got)
	}
	for y := 2; y <= 4; y++ {
		if got := g.At(4, y, 4).Material; got != voxel.Dirt {
			t.Fatalf("y=%d = %v, want DIRT", y, got)
		}
	}
	for y := 0; y <= 1; y++ {
		if got := g.At(4, y, 4).Material; got != voxel.Stone {
			t.Fatalf("y=%d = %v, want STONE", y, got)
		}
	}
}

func TestAssignSurfaceMaterials_NoAirSeenNoGrass(t *testing.T) {
	g := voxel.NewGrid(8)
	for y := 0; y < 8; y++ {
		g.Set(2, y, 2, voxel.Voxel{Material: voxel.Stone, Iso: 1})
	}
	AssignSurfaceMaterials(g)
	if got := g.At(2, 7, 2).Material; got != voxel.Stone {
		t.Fatalf("column touching the grid ceiling grassed: %v", got)
	}
}
