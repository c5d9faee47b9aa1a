// Package pipeline moves chunks through the staged build: density fill,
// structure stamping, meshing and collider promotion. Stages drain bounded
// budgets each tick; unfinished work stays queued, the queue is the
// suspension point.
package pipeline

import (
	"voxelforge.dev/internal/sim/world/cell"
	"voxelforge.dev/internal/sim/world/grid"
)

// StageID is a chunk's lifecycle position. Transitions are strictly
// forward; a regression is a programming error.
type StageID uint8

const (
	Raw StageID = iota
	DensityCompleted
	StructureCompleted
	MeshCompleted
	Finished
)

var stageNames = [...]string{
	Raw:                "raw",
	DensityCompleted:   "density_completed",
	StructureCompleted: "structure_completed",
	MeshCompleted:      "mesh_completed",
	Finished:           "finished",
}

func (s StageID) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// Record is the runtime state of one loaded chunk.
type Record struct {
	Coord grid.ChunkCoord
	Cell  *cell.Cell
	Stage StageID

	// ColliderCooked mirrors whether the collision mesh is current; edits
	// clear it to force re-promotion.
	ColliderCooked bool

	// Restored chunks came out of a snapshot with voxel data intact; the
	// density stage passes them through untouched.
	Restored bool
}

// Advance moves the record forward; it never regresses.
func (r *Record) Advance(to StageID) {
	if to > r.Stage {
		r.Stage = to
	}
}

// Table is the loaded-chunk map. It is owned by the scheduling goroutine;
// nothing else mutates it.
type Table struct {
	records map[grid.ChunkCoord]*Record
}

func NewTable() *Table {
	return &Table{records: make(map[grid.ChunkCoord]*Record)}
}

func (t *Table) Get(c grid.ChunkCoord) (*Record, bool) {
	r, ok := t.records[c]
	return r, ok
}

func (t *Table) Put(r *Record) {
	t.records[r.Coord] = r
}

func (t *Table) Remove(c grid.ChunkCoord) {
	delete(t.records, c)
}

func (t *Table) Len() int { return len(t.records) }

func (t *Table) Each(fn func(*Record) bool) {
	for _, r := range t.records {
		if !fn(r) {
			return
		}
	}
}

// CountByStage tallies records per lifecycle stage, for telemetry.
func (t *Table) CountByStage() map[string]int {
	out := make(map[string]int, len(stageNames))
	for _, r := range t.records {
		out[r.Stage.String()]++
	}
	return out
}
