// Package structures places multi-chunk procedural structures (trees)
// deterministically: any chunk that rediscovers a candidate derives the
// byte-identical instance, so stamping is idempotent and order-independent.
package structures

import (
	"math"

	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/voxel"
)

// Archetype describes one tree family. SpacingGrid is the placement grid
// cell size in world units; at most one candidate exists per cell, which is
// what makes discovery idempotent across chunks.
type Archetype struct {
	Name                string
	SpacingGrid         int
	ProbabilityPermille int
	MinSpacing          float64

	TrunkHeight  [2]float64
	TrunkRadius  float64
	BranchCount  [2]int
	BranchLength [2]float64
	RootCount    [2]int
	RootLength   [2]float64
	CanopyRadius float64

	MaxSlope    float64 // max ground height delta over one world unit
	MinAltitude float64
	MaxAltitude float64

	TrunkMaterial  voxel.Material
	LeavesMaterial voxel.Material
}

// Instance is a resolved structure candidate. Seed is derived from the
// world position alone, so the internal shape is identical wherever the
// instance is partially stamped.
type Instance struct {
	Pos       mathx.Vec3
	Archetype int
	Seed      uint64
}

// PrimitiveKind selects the stamp volume.
type PrimitiveKind uint8

const (
	Capsule PrimitiveKind = iota
	SpherePrim
)

// Primitive is one stamped volume of a built structure.
type Primitive struct {
	Kind     PrimitiveKind
	A, B     mathx.Vec3
	Radius   float64
	Material voxel.Material

	// Carve solid terrain (trunks and roots grow through dirt); leaves only
	// fill air.
	ForceReplace bool
}

// Bounds is the primitive's world-space AABB, used for per-chunk rejection.
func (p Primitive) Bounds() (min, max mathx.Vec3) {
	min = mathx.Vec3{
		X: minf(p.A.X, p.B.X) - p.Radius,
		Y: minf(p.A.Y, p.B.Y) - p.Radius,
		Z: minf(p.A.Z, p.B.Z) - p.Radius,
	}
	max = mathx.Vec3{
		X: maxf(p.A.X, p.B.X) + p.Radius,
		Y: maxf(p.A.Y, p.B.Y) + p.Radius,
		Z: maxf(p.A.Z, p.B.Z) + p.Radius,
	}
	return min, max
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Build derives the full primitive list of an instance. Every random draw
// comes from the instance seed in a fixed order, so the shape never depends
// on which chunk triggers the build.
func (a Archetype) Build(inst Instance) []Primitive {
	rng := mathx.NewRand(inst.Seed)
	var prims []Primitive

	height := rng.Range(a.TrunkHeight[0], a.TrunkHeight[1])
	base := inst.Pos
	top := base.Add(mathx.Vec3{Y: height})

	prims = append(prims, Primitive{
		Kind:         Capsule,
		A:            base.Sub(mathx.Vec3{Y: a.TrunkRadius}),
		B:            top,
		Radius:       a.TrunkRadius,
		Material:     a.TrunkMaterial,
		ForceReplace: true,
	})

	roots := rng.RangeInt(a.RootCount[0], a.RootCount[1])
	for i := 0; i < roots; i++ {
		azimuth := rng.Range(0, 2*math.Pi)
		length := rng.Range(a.RootLength[0], a.RootLength[1])
		dir := mathx.Vec3{X: math.Cos(azimuth), Y: -0.45, Z: math.Sin(azimuth)}.Normalized()
		prims = append(prims, Primitive{
			Kind:         Capsule,
			A:            base,
			B:            base.Add(dir.Scale(length)),
			Radius:       a.TrunkRadius * 0.6,
			Material:     a.TrunkMaterial,
			ForceReplace: true,
		})
	}

	branches := rng.RangeInt(a.BranchCount[0], a.BranchCount[1])
	for i := 0; i < branches; i++ {
		at := rng.Range(0.55, 0.95) * height
		azimuth := rng.Range(0, 2*math.Pi)
		lift := rng.Range(0.25, 0.7)
		length := rng.Range(a.BranchLength[0], a.BranchLength[1])
		start := base.Add(mathx.Vec3{Y: at})
		dir := mathx.Vec3{X: math.Cos(azimuth), Y: lift, Z: math.Sin(azimuth)}.Normalized()
		end := start.Add(dir.Scale(length))
		prims = append(prims, Primitive{
			Kind:         Capsule,
			A:            start,
			B:            end,
			Radius:       a.TrunkRadius * 0.45,
			Material:     a.TrunkMaterial,
			ForceReplace: true,
		})
		prims = append(prims, Primitive{
			Kind:     SpherePrim,
			A:        end,
			B:        end,
			Radius:   a.CanopyRadius * rng.Range(0.55, 0.95),
			Material: a.LeavesMaterial,
		})
	}

	prims = append(prims, Primitive{
		Kind:     SpherePrim,
		A:        top,
		B:        top,
		Radius:   a.CanopyRadius,
		Material: a.LeavesMaterial,
	})
	return prims
}
