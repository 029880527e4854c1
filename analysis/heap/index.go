package heap

import (
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"
)

type cellKey struct {
	t, k L.Particle
}

// indexer evaluates reads against one state. Its cache lives for a single
// top-level query and is what bounds the recursion along upcast chains.
type indexer struct {
	st    ThreadState
	cache map[cellKey]L.ValueSet
}

func newIndexer(st ThreadState) *indexer {
	return &indexer{st: st, cache: make(map[cellKey]L.ValueSet)}
}

// Index computes the values that may be read from tables t at keys k.
// It distributes over both t and k.
func (st ThreadState) Index(t, k L.ValueSet) L.ValueSet {
	return newIndexer(st).index(t, k)
}

// IndexParticle reads a single table particle at a single key particle.
func (st ThreadState) IndexParticle(t, k L.Particle) L.ValueSet {
	return newIndexer(st).particle(t, k)
}

func (ix *indexer) index(t, k L.ValueSet) L.ValueSet {
	var res []L.ValueSet
	for _, tp := range t {
		for _, kp := range k {
			res = append(res, ix.particle(tp, kp))
		}
	}
	return L.UnionAll(res...)
}

// particle answers a read of one cell:
//  1. Facts are scanned from newest to oldest. Every Add overlapping the cell
//     contributes its values. A Clear covering the cell ends the scan, and the
//     collected values are the exact answer.
//  2. Otherwise the cell may never have been written, so Undef is included, and
//     the answer is intersected with the reads of the one-step upcasts of the
//     table and of the key.
func (ix *indexer) particle(t, k L.Particle) L.ValueSet {
	key := cellKey{t, k}
	if vs, ok := ix.cache[key]; ok {
		return vs
	}
	// Recursive reads of the same cell see the trivially sound answer.
	ix.cache[key] = L.Of(L.Top)

	var (
		st     = ix.st
		ts, ks = L.ValueSet{t}, L.ValueSet{k}
		acc    []L.Particle
		exact  bool
	)
	for i := len(st.Entries) - 1; i >= 0; i-- {
		e := st.Entries[i]
		if e.IsClear {
			if e.covers(ts, ks, st.Deref) {
				exact = true
				break
			}
			continue
		}
		if e.overlaps(ts, ks, st.Deref) {
			acc = append(acc, e.V...)
		}
	}

	res := L.Compact(acc)
	if !exact {
		res = L.Union(res, L.Of(L.Undef))
		if up, ok := L.Upcast(t, st.Deref); ok {
			res = L.Intersect(res, ix.index(up, ks), st.Deref)
		}
		if up, ok := L.Upcast(k, st.Deref); ok {
			res = L.Intersect(res, ix.index(ts, up), st.Deref)
		}
	}

	ix.cache[key] = res
	return res
}

// CoverIndex reads a cell using only the Add facts that describe every cell
// of the query. It assumes the state holds no Clear facts, which is the case
// once every value id was eliminated.
func (st ThreadState) CoverIndex(t, k L.Particle) L.ValueSet {
	ts, ks := L.ValueSet{t}, L.ValueSet{k}
	var acc []L.Particle
	for _, e := range st.Entries {
		if e.IsAdd() && e.covers(ts, ks, st.Deref) {
			acc = append(acc, e.V...)
		}
	}
	return L.Compact(acc)
}

// CoverIndexCache memoizes CoverIndex for one state.
type CoverIndexCache struct {
	st    ThreadState
	cache map[cellKey]L.ValueSet
}

func NewCoverIndexCache(st ThreadState) *CoverIndexCache {
	return &CoverIndexCache{st, make(map[cellKey]L.ValueSet)}
}

func (c *CoverIndexCache) Get(t, k L.Particle) L.ValueSet {
	key := cellKey{t, k}
	if vs, ok := c.cache[key]; ok {
		return vs
	}
	vs := c.st.CoverIndex(t, k)
	c.cache[key] = vs
	return vs
}

func (c *CoverIndexCache) State() ThreadState {
	return c.st
}
