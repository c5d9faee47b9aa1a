// Package streaming computes which chunks should be loaded around the
// observer, and which loaded chunks have drifted far enough to unload.
package streaming

import (
	"sort"

	"voxelforge.dev/internal/sim/world/grid"
)

// Calculator is the wanted-set policy: a box of chunks within the
// horizontal Chebyshev radius and the vertical radius, with hysteresis on
// the unload side so chunks do not flap at the boundary.
type Calculator struct {
	HorizontalRadius int
	VerticalRadius   int
	Hysteresis       int
}

// Wanted returns every chunk the observer should have loaded, sorted by
// ascending distance (near chunks stream first). Ordering is fully
// deterministic: distance, then coordinate.
func (c Calculator) Wanted(observer grid.ChunkCoord) []grid.ChunkCoord {
	h := c.HorizontalRadius
	v := c.VerticalRadius
	out := make([]grid.ChunkCoord, 0, (2*h+1)*(2*h+1)*(2*v+1))
	for dy := -v; dy <= v; dy++ {
		for dz := -h; dz <= h; dz++ {
			for dx := -h; dx <= h; dx++ {
				out = append(out, observer.Offset(dx, dy, dz))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di := chunkDistance(observer, out[i])
		dj := chunkDistance(observer, out[j])
		if di != dj {
			return di < dj
		}
		return coordLess(out[i], out[j])
	})
	return out
}

// Contains reports whether a chunk is inside the load box.
func (c Calculator) Contains(observer, chunk grid.ChunkCoord) bool {
	h, v := chunk.Chebyshev(observer)
	return h <= c.HorizontalRadius && v <= c.VerticalRadius
}

// Unwanted filters the loaded set down to chunks beyond radius plus
// hysteresis, sorted by coordinate for deterministic unload order.
func (c Calculator) Unwanted(observer grid.ChunkCoord, loaded []grid.ChunkCoord) []grid.ChunkCoord {
	var out []grid.ChunkCoord
	for _, ch := range loaded {
		h, v := ch.Chebyshev(observer)
		if h > c.HorizontalRadius+c.Hysteresis || v > c.VerticalRadius+c.Hysteresis {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return coordLess(out[i], out[j]) })
	return out
}

// chunkDistance is the streaming priority metric: the larger of the
// horizontal Chebyshev distance and the vertical distance.
func chunkDistance(a, b grid.ChunkCoord) int {
	h, v := b.Chebyshev(a)
	if v > h {
		return v
	}
	return h
}

func coordLess(a, b grid.ChunkCoord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
