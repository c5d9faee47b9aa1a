package structures

import (
	"math"

	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/terrain"
	"voxelforge.dev/internal/sim/world/voxel"
)

// Discoverer resolves structure candidates from world position alone. One
// placement-grid cell holds at most one candidate per archetype; its anchor
// and priority come from hashing the cell with the global seed, which is
// what makes every chunk derive the same answer.
type Discoverer struct {
	World      grid.ChunkWorld
	Seed       int64
	Archetypes []Archetype
	Probe      terrain.GroundProbe
}

// candidate is a pre-filter placement anchor.
type candidate struct {
	x, z float64
	hash uint64
}

// candidateAt derives the placement-grid cell's candidate, if any. Purely a
// function of (seed, archetype, cell), never of chunk state.
func (d *Discoverer) candidateAt(arch int, gx, gz int) (candidate, bool) {
	a := d.Archetypes[arch]
	g := a.SpacingGrid
	h := mathx.Hash3(d.Seed, gx, arch, gz)
	if int(h%1000) >= a.ProbabilityPermille {
		return candidate{}, false
	}
	ox := float64((h >> 10) % uint64(g))
	oz := float64((h >> 20) % uint64(g))
	return candidate{
		x:    float64(gx*g) + ox,
		z:    float64(gz*g) + oz,
		hash: h,
	}, true
}

// spacedOut reports whether a lower-hash candidate of the same archetype in
// a neighboring cell sits within MinSpacing. The losing candidate yields,
// and the rule reads only world data, so any two halo scans agree.
func (d *Discoverer) spacedOut(arch, gx, gz int, c candidate) bool {
	a := d.Archetypes[arch]
	if a.MinSpacing <= 0 {
		return false
	}
	min2 := a.MinSpacing * a.MinSpacing
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dz == 0 {
				continue
			}
			o, ok := d.candidateAt(arch, gx+dx, gz+dz)
			if !ok || o.hash >= c.hash {
				continue
			}
			ddx := o.x - c.x
			ddz := o.z - c.z
			if ddx*ddx+ddz*ddz < min2 {
				return true
			}
		}
	}
	return false
}

// DiscoverOwned derives every instance owned by one chunk: candidates whose
// anchor column resolves to a ground position inside that chunk. Probe
// failures are returned so the caller can log and skip; ErrNoGround is not
// reported, it simply yields no instance.
func (d *Discoverer) DiscoverOwned(owner grid.ChunkCoord) ([]Instance, []error) {
	var out []Instance
	var errs []error

	origin := d.World.ChunkOrigin(owner)
	edge := d.World.ChunkEdge

	for arch := range d.Archetypes {
		a := d.Archetypes[arch]
		if a.SpacingGrid <= 0 || a.ProbabilityPermille <= 0 {
			continue
		}
		g := a.SpacingGrid
		gx0 := mathx.FloorDiv(int(math.Floor(origin.X)), g)
		gx1 := mathx.FloorDiv(int(math.Ceil(origin.X+edge))-1, g)
		gz0 := mathx.FloorDiv(int(math.Floor(origin.Z)), g)
		gz1 := mathx.FloorDiv(int(math.Ceil(origin.Z+edge))-1, g)

		for gz := gz0; gz <= gz1; gz++ {
			for gx := gx0; gx <= gx1; gx++ {
				c, ok := d.candidateAt(arch, gx, gz)
				if !ok {
					continue
				}
				// The anchor must fall inside the owner's horizontal span;
				// edge cells can produce anchors that belong to a neighbor.
				if c.x < origin.X || c.x >= origin.X+edge || c.z < origin.Z || c.z >= origin.Z+edge {
					continue
				}
				if d.spacedOut(arch, gx, gz, c) {
					continue
				}

				ground, err := d.Probe.SurfaceAt(c.x, c.z)
				if err != nil {
					if err != terrain.ErrNoGround {
						errs = append(errs, err)
					}
					continue
				}
				if !d.accepts(a, c, ground) {
					continue
				}
				pos := mathx.Vec3{X: c.x, Y: ground.Height, Z: c.z}
				if d.World.WorldToChunk(pos) != owner {
					continue
				}
				vx, vy, vz := d.World.WorldToVoxel(pos)
				out = append(out, Instance{
					Pos:       pos,
					Archetype: arch,
					Seed:      mathx.Hash3(d.Seed, vx, vy, vz),
				})
			}
		}
	}
	return out, errs
}

// accepts applies the ground filters: surface material, altitude band and
// local slope.
func (d *Discoverer) accepts(a Archetype, c candidate, ground terrain.Ground) bool {
	if ground.Material != voxel.Grass && ground.Material != voxel.Dirt {
		return false
	}
	if ground.Height < a.MinAltitude || ground.Height > a.MaxAltitude {
		return false
	}
	if a.MaxSlope > 0 {
		for _, off := range [4][2]float64{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			n, err := d.Probe.SurfaceAt(c.x+off[0], c.z+off[1])
			if err != nil {
				return false
			}
			if math.Abs(n.Height-ground.Height) > a.MaxSlope {
				return false
			}
		}
	}
	return true
}
