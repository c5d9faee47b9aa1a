package cell

// Pool is a bounded free list of cells. Prewarmed cells are allocated up
// front; the pool never exceeds max live cells, which caps both memory and
// the streaming load set.
type Pool struct {
	dim       int
	max       int
	allocated int
	free      []*Cell
}

type PoolStats struct {
	Allocated int
	Free      int
	Max       int
}

func NewPool(prewarm, max, dim int) *Pool {
	if max < prewarm {
		max = prewarm
	}
	p := &Pool{dim: dim, max: max}
	for i := 0; i < prewarm; i++ {
		p.free = append(p.free, New(dim))
		p.allocated++
	}
	return p
}

// Acquire returns a cell ready for reuse, or (nil, false) when the pool is
// exhausted. Callers must ResetFor before filling it.
func (p *Pool) Acquire() (*Cell, bool) {
	if n := len(p.free); n > 0 {
		c := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return c, true
	}
	if p.allocated < p.max {
		p.allocated++
		return New(p.dim), true
	}
	return nil, false
}

func (p *Pool) Release(c *Cell) {
	if c == nil {
		return
	}
	p.free = append(p.free, c)
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{Allocated: p.allocated, Free: len(p.free), Max: p.max}
}
