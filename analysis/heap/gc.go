package heap

import (
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"

	"golang.org/x/tools/container/intsets"
)

// EliminateValueId forgets the identity of v. Occurrences of v in deref
// entries and Add facts are replaced by the target of v, which only adds
// possibilities. Occurrences in Clear facts are removed, which only unmasks
// facts. The deref entry of v is deleted.
func (st ThreadState) EliminateValueId(v L.ValueId) ThreadState {
	return st.EliminateValueIds([]L.ValueId{v})
}

// EliminateValueIds eliminates every id of vs at once.
func (st ThreadState) EliminateValueIds(vs []L.ValueId) ThreadState {
	if len(vs) == 0 {
		return st
	}
	dead := make(map[L.ValueId]bool, len(vs))
	for _, v := range vs {
		dead[v] = true
	}

	resolved := make(map[L.ValueId]L.ValueSet)
	var subst func(L.ValueSet) L.ValueSet
	subst = func(vs L.ValueSet) L.ValueSet {
		return vs.Map(func(p L.Particle) L.ValueSet {
			v, ok := p.ValueId()
			if !ok || !dead[v] {
				return L.ValueSet{p}
			}
			if r, ok := resolved[v]; ok {
				return r
			}
			// Guards against cycles through dead ids.
			resolved[v] = nil
			r := subst(st.Deref.MustGet(v))
			resolved[v] = r
			return r
		})
	}
	remove := func(vs L.ValueSet) L.ValueSet {
		return vs.Filter(func(p L.Particle) bool {
			v, ok := p.ValueId()
			return !ok || !dead[v]
		})
	}

	deref := st.Deref
	st.Deref.ForEach(func(v L.ValueId, vs L.ValueSet) {
		if dead[v] {
			deref = deref.Delete(v)
		} else if vs.HasValueIds() {
			deref = deref.Set(v, subst(vs))
		}
	})

	entries := make([]TableEntry, 0, len(st.Entries))
	for _, e := range st.Entries {
		if e.IsClear {
			e = e.Map(remove)
		} else {
			e = e.Map(subst)
		}
		if !e.IsEmpty() {
			entries = append(entries, e)
		}
	}

	st.Deref = deref
	return st.withEntries(entries)
}

// liveValueIds computes the value ids reachable from the root and the nodes
// through the deref map.
func (st ThreadState) liveValueIds() map[L.ValueId]bool {
	live := make(map[L.ValueId]bool)
	var visit func(L.Particle)
	visit = func(p L.Particle) {
		v, ok := p.ValueId()
		if !ok || live[v] {
			return
		}
		live[v] = true
		for _, q := range st.Deref.MustGet(v) {
			visit(q)
		}
	}

	visit(L.Value(st.Root))
	for iter := st.Nodes.Iterator(); !iter.Done(); {
		_, p, _ := iter.Next()
		visit(p)
	}
	return live
}

// EliminateDeadValueIds eliminates every value id that is not reachable from
// the root or the nodes.
func (st ThreadState) EliminateDeadValueIds() ThreadState {
	live := st.liveValueIds()
	var dead []L.ValueId
	for _, v := range st.Deref.Keys() {
		if !live[v] {
			dead = append(dead, v)
		}
	}
	return st.EliminateValueIds(dead)
}

// EliminateAllValueIds eliminates every value id, including the root. Only
// table sorts remain as identities. Node bindings are left untouched and must
// not be consulted afterwards.
func (st ThreadState) EliminateAllValueIds() ThreadState {
	return st.EliminateValueIds(st.Deref.Keys())
}

// Canonicalize forgets every identity but the one of the root table, and
// re-attaches the root to its sorts. The result contains no Clear facts and no
// value ids besides the root, so it reads exactly like its own facts with the
// root table's sorts in place of the root. Node bindings are dropped, which
// makes this only applicable at procedure entry.
func (st ThreadState) Canonicalize() ThreadState {
	rootSorts := st.RootSorts()
	st = st.EliminateAllValueIds()
	st.Deref = st.Deref.Set(st.Root, rootSorts)
	st.Nodes = emptyNodes()
	return st.GC()
}

// CollectSorts computes the table sorts that are reachable from the root and
// the nodes. Reachability is the least fixpoint over the Add facts: the sorts
// in V become reachable once T contains a reachable sort and K contains a
// reachable sort or any particle that is not a table. ⊤ counts as reachable
// on both sides.
func (st ThreadState) CollectSorts() *intsets.Sparse {
	d := st.Deref
	known := new(intsets.Sparse)

	d.Resolve(L.Of(L.Value(st.Root))).Sorts(known)
	for iter := st.Nodes.Iterator(); !iter.Done(); {
		_, p, _ := iter.Next()
		d.Resolve(L.ValueSet{p}).Sorts(known)
	}

	live := func(vs L.ValueSet, free bool) bool {
		for _, p := range d.Resolve(vs) {
			if s, ok := p.Sort(); ok {
				if known.Has(int(s)) {
					return true
				}
			} else if free || p.IsTop() {
				return true
			}
		}
		return false
	}

	for changed := true; changed; {
		changed = false
		for _, e := range st.Entries {
			if e.IsClear || !live(e.T, false) || !live(e.K, true) {
				continue
			}
			before := known.Len()
			d.Resolve(e.V).Sorts(known)
			changed = changed || known.Len() != before
		}
	}
	return known
}

// PurgeSorts removes every sort outside of keep from the facts and the deref
// entries, and drops the facts that no longer describe any cell.
func (st ThreadState) PurgeSorts(keep *intsets.Sparse) ThreadState {
	purge := func(vs L.ValueSet) L.ValueSet {
		return vs.Filter(func(p L.Particle) bool {
			s, ok := p.Sort()
			return !ok || keep.Has(int(s))
		})
	}

	deref := st.Deref
	st.Deref.ForEach(func(v L.ValueId, vs L.ValueSet) {
		if p := purge(vs); len(p) != len(vs) {
			deref = deref.Set(v, p)
		}
	})
	st.Deref = deref
	return st.withEntries(mapEntries(st.Entries, purge))
}

// GC eliminates dead value ids, then alternates compaction of the fact list
// with purging of unreachable sorts until neither changes the state.
// GC is idempotent.
func (st ThreadState) GC() ThreadState {
	st = st.EliminateDeadValueIds()
	for {
		prev := st.Entries
		st = st.CompactEntries()
		st = st.PurgeSorts(st.CollectSorts())
		if entriesEqual(prev, st.Entries) {
			return st
		}
	}
}

// Sorts lists every sort mentioned by the facts and the deref map, in
// canonical order.
func (st ThreadState) Sorts() []L.TableSortId {
	all := new(intsets.Sparse)
	for _, e := range st.Entries {
		e.T.Sorts(all)
		e.K.Sorts(all)
		e.V.Sorts(all)
	}
	st.Deref.ForEach(func(_ L.ValueId, vs L.ValueSet) {
		vs.Sorts(all)
	})

	res := make([]L.TableSortId, 0, all.Len())
	for _, s := range all.AppendTo(nil) {
		res = append(res, L.TableSortId(s))
	}
	return res
}

// RenameSorts substitutes sorts according to rename. Sorts without an entry
// are kept.
func (st ThreadState) RenameSorts(rename func(L.TableSortId) L.TableSortId) ThreadState {
	subst := func(vs L.ValueSet) L.ValueSet {
		return vs.Map(func(p L.Particle) L.ValueSet {
			if s, ok := p.Sort(); ok {
				return L.ValueSet{L.Sort(rename(s))}
			}
			return L.ValueSet{p}
		})
	}

	deref := st.Deref
	st.Deref.ForEach(func(v L.ValueId, vs L.ValueSet) {
		deref = deref.Set(v, subst(vs))
	})
	st.Deref = deref
	return st.withEntries(mapEntries(st.Entries, subst))
}
