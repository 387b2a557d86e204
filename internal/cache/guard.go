package cache

import "sync"

// Guard orders read-through fills against invalidations. A fill is only
// applied if no invalidation happened between reading the generation and
// filling, this keeps a slow read of the source of truth from writing a
// stale (or deleted) employee back after a mutation evicted it
type Guard struct {
	sync.Mutex
	generation uint64
}

// Generation must be read before the source of truth is queried
func (g *Guard) Generation() uint64 {
	g.Lock()
	defer g.Unlock()

	return g.generation
}

// Fill calls fill if generation is still current, it returns false when
// the fill was skipped
func (g *Guard) Fill(generation uint64, fill func() error) (bool, error) {
	g.Lock()
	defer g.Unlock()

	if g.generation != generation {
		return false, nil
	}
	return true, fill()
}

// Invalidate advances the generation and calls invalidate, stale is true
// when another invalidation happened after generation was read; in that
// case the caller's copy may be older than what's already cached
func (g *Guard) Invalidate(generation uint64, invalidate func(stale bool)) {
	g.Lock()
	defer g.Unlock()

	stale := g.generation != generation
	g.generation++
	invalidate(stale)
}
