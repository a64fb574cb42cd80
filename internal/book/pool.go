package book

// LevelPool is a free-list arena over a dense Level array. Orders reference
// levels by a stable LevelId rather than by pointer, which is the
// deliberate substitute for a graph of order/level objects and the primary
// enabler of branch-predictable, cache-friendly mutation (§9).
type LevelPool struct {
	allocated []Level
	free      []LevelId
}

// NewLevelPool reserves capacity for the expected steady-state number of
// distinct price levels. Capacity is a hint: the pool grows past it on
// demand, but growth should not occur in steady state.
func NewLevelPool(capacity int) *LevelPool {
	return &LevelPool{
		allocated: make([]Level, 0, capacity),
		free:      make([]LevelId, 0),
	}
}

// Alloc hands out a LevelId: a recycled one if the free list is non-empty,
// otherwise a fresh slot at the end of the dense array.
func (p *LevelPool) Alloc() LevelId {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		return id
	}
	id := LevelId(len(p.allocated))
	p.allocated = append(p.allocated, Level{})
	return id
}

// Free returns id to the pool. The caller guarantees the level's aggregate
// size is already zero and no resting order references it.
func (p *LevelPool) Free(id LevelId) {
	p.free = append(p.free, id)
}

// Get returns the level at id, or false if id is out of bounds. The book
// engine treats a false return as a fatal invariant violation (§7): every
// LevelId referenced by a resting order must resolve.
func (p *LevelPool) Get(id LevelId) (*Level, bool) {
	idx := int(id)
	if idx < 0 || idx >= len(p.allocated) {
		return nil, false
	}
	return &p.allocated[idx], true
}

// Set overwrites the slot at id, used when initializing a freshly allocated
// level.
func (p *LevelPool) Set(id LevelId, level Level) {
	p.allocated[int(id)] = level
}

// MustGet is Get, but panics instead of returning false. Used on the
// book-engine hot path where an unresolved LevelId is always a programming
// error, never a condition a caller can recover from.
func (p *LevelPool) MustGet(id LevelId) *Level {
	lvl, ok := p.Get(id)
	if !ok {
		panic("book: level pool has no such level")
	}
	return lvl
}
