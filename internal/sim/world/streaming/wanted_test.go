package streaming

import (
	"testing"

	"voxelforge.dev/internal/sim/world/grid"
)

func TestWanted_BoxSizeAndOrdering(t *testing.T) {
	c := Calculator{HorizontalRadius: 2, VerticalRadius: 1}
	obs := grid.ChunkCoord{X: 10, Y: -3, Z: 4}

	got := c.Wanted(obs)
	want := (2*2 + 1) * (2*2 + 1) * (2*1 + 1)
	if len(got) != want {
		t.Fatalf("len = %d, want %d", len(got), want)
	}

	if got[0] != obs {
		t.Fatalf("first wanted chunk %v, want observer %v", got[0], obs)
	}
	prev := -1
	for _, ch := range got {
		d := chunkDistance(obs, ch)
		if d < prev {
			t.Fatalf("distance ordering broken at %v", ch)
		}
		prev = d
		if !c.Contains(obs, ch) {
			t.Fatalf("wanted chunk %v outside load box", ch)
		}
	}
}

func TestWanted_Deterministic(t *testing.T) {
	c := Calculator{HorizontalRadius: 3, VerticalRadius: 2}
	obs := grid.ChunkCoord{X: -1, Y: 0, Z: 7}

	a := c.Wanted(obs)
	b := c.Wanted(obs)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("order differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestContains_SeparateAxes(t *testing.T) {
	c := Calculator{HorizontalRadius: 2, VerticalRadius: 1}
	obs := grid.ChunkCoord{}

	if !c.Contains(obs, grid.ChunkCoord{X: 2, Y: 1, Z: -2}) {
		t.Fatalf("corner of box should be inside")
	}
	if c.Contains(obs, grid.ChunkCoord{X: 3}) {
		t.Fatalf("horizontal overflow should be outside")
	}
	if c.Contains(obs, grid.ChunkCoord{Y: 2}) {
		t.Fatalf("vertical overflow should be outside")
	}
}

func TestUnwanted_Hysteresis(t *testing.T) {
	c := Calculator{HorizontalRadius: 2, VerticalRadius: 1, Hysteresis: 1}
	obs := grid.ChunkCoord{}

	loaded := []grid.ChunkCoord{
		{X: 3},         // outside radius, inside hysteresis band
		{X: 4},         // beyond the band, must unload
		{X: -4, Z: 2},  // beyond on x
		{Y: 2},         // vertical band
		{Y: 3, X: 1},   // vertical beyond
	}

	got := c.Unwanted(obs, loaded)
	want := []grid.ChunkCoord{{X: -4, Z: 2}, {X: 1, Y: 3}, {X: 4}}
	if len(got) != len(want) {
		t.Fatalf("unwanted = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unwanted[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
