package pipeline

import "voxelforge.dev/internal/sim/world/grid"

// Queue is a FIFO of chunk coordinates with duplicate suppression: pushing
// a coordinate already waiting is a no-op, so edit storms do not multiply
// work.
type Queue struct {
	items  []grid.ChunkCoord
	queued map[grid.ChunkCoord]struct{}
}

func NewQueue() *Queue {
	return &Queue{queued: make(map[grid.ChunkCoord]struct{})}
}

func (q *Queue) Push(c grid.ChunkCoord) {
	if _, ok := q.queued[c]; ok {
		return
	}
	q.queued[c] = struct{}{}
	q.items = append(q.items, c)
}

func (q *Queue) Pop() (grid.ChunkCoord, bool) {
	if len(q.items) == 0 {
		return grid.ChunkCoord{}, false
	}
	c := q.items[0]
	q.items = q.items[1:]
	delete(q.queued, c)
	return c, true
}

func (q *Queue) Len() int { return len(q.items) }

// Stage is the per-tick work contract: drain up to budget queued chunks,
// advance their lifecycle stage, forward to the next queue. A queued chunk
// that is no longer loaded is dropped silently.
type Stage interface {
	Name() string
	Pending() int
	Run(budget int)
}
