package absint

import (
	"sort"

	"github.com/cs-au-dk/tabsafe/analysis/heap"
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"

	uf "github.com/spakin/disjoint"
	"golang.org/x/tools/container/intsets"
)

// groupKey identifies the cells of one table sort under one class of keys.
type groupKey struct {
	t L.TableSortId
	k L.Particle
}

// keyClass collapses a key to its kind. Symbols and sorts are their own class.
func keyClass(p L.Particle) L.Particle {
	switch p.Kind() {
	case L.KindString, L.KindTopString:
		return L.TopString
	case L.KindInt, L.KindTopInt:
		return L.TopInt
	}
	return p
}

// Merge computes a state subsuming both a and b, coarse enough to let the
// fixpoint terminate. The fact lists of both states, stripped of value ids,
// are concatenated. Then, sorts that are stored under mostly the same cells
// are unified, until no such pair remains. When widen is set, which the
// driver does once one of the inputs is itself a merge, any two sorts stored
// under a common cell are unified as well. Finally the root is re-attached
// and the state is canonicalized.
func Merge(a, b heap.ThreadState, iou float64, widen bool) heap.ThreadState {
	rootSorts := L.Union(a.RootSorts(), b.RootSorts())

	sa := a.EliminateAllValueIds()
	sb := b.EliminateAllValueIds()

	st := sa
	st.Entries = append(append([]heap.TableEntry{}, sa.Entries...), sb.Entries...)
	for {
		st = st.CompactEntries()
		rename, changed := unifySorts(st, iou, widen)
		if !changed {
			break
		}
		st = st.RenameSorts(rename)
		rootSorts = rootSorts.Map(func(p L.Particle) L.ValueSet {
			if s, ok := p.Sort(); ok {
				return L.Of(L.Sort(rename(s)))
			}
			return L.Of(p)
		})
	}

	st.Root = a.Root
	st.Deref = st.Deref.Set(a.Root, rootSorts)
	return st.Jump(a.Pid).Canonicalize()
}

// unifySorts groups the sorts stored in the facts by the cells they are
// stored under, and unifies every pair of sorts whose sets of groups have an
// intersection over union strictly above the threshold. With widen, all
// sorts of a group are unified. The returned renaming maps every sort to the
// smallest sort of its class.
func unifySorts(st heap.ThreadState, iou float64, widen bool) (func(L.TableSortId) L.TableSortId, bool) {
	groups := make(map[groupKey]*intsets.Sparse)
	var keys []groupKey
	for _, e := range st.Entries {
		if e.IsClear {
			continue
		}
		vs := new(intsets.Sparse)
		e.V.Sorts(vs)
		if vs.IsEmpty() {
			continue
		}
		for _, tp := range e.T {
			t, ok := tp.Sort()
			if !ok {
				continue
			}
			for _, kp := range e.K {
				key := groupKey{t, keyClass(kp)}
				g, ok := groups[key]
				if !ok {
					g = new(intsets.Sparse)
					groups[key] = g
					keys = append(keys, key)
				}
				g.UnionWith(vs)
			}
		}
	}

	// Number of groups each sort, and each pair of sorts, occurs in.
	count := make(map[L.TableSortId]int)
	pairs := make(map[[2]L.TableSortId]int)
	for _, key := range keys {
		members := groups[key].AppendTo(nil)
		for i, x := range members {
			count[L.TableSortId(x)]++
			for _, y := range members[i+1:] {
				pairs[[2]L.TableSortId{L.TableSortId(x), L.TableSortId(y)}]++
			}
		}
	}

	elements := make(map[L.TableSortId]*uf.Element)
	element := func(s L.TableSortId) *uf.Element {
		el, ok := elements[s]
		if !ok {
			el = uf.NewElement()
			el.Data = s
			elements[s] = el
		}
		return el
	}

	// Deterministic order of unions.
	pairKeys := make([][2]L.TableSortId, 0, len(pairs))
	for p := range pairs {
		pairKeys = append(pairKeys, p)
	}
	sort.Slice(pairKeys, func(i, j int) bool {
		if pairKeys[i][0] != pairKeys[j][0] {
			return pairKeys[i][0] < pairKeys[j][0]
		}
		return pairKeys[i][1] < pairKeys[j][1]
	})

	changed := false
	unify := func(x, y L.TableSortId) {
		a, b := element(x), element(y)
		if a.Find() != b.Find() {
			uf.Union(a, b)
			changed = true
		}
	}
	for _, p := range pairKeys {
		inter := pairs[p]
		union := count[p[0]] + count[p[1]] - inter
		if float64(inter)/float64(union) > iou {
			unify(p[0], p[1])
		}
	}
	if widen {
		for _, key := range keys {
			members := groups[key].AppendTo(nil)
			for _, x := range members[1:] {
				unify(L.TableSortId(members[0]), L.TableSortId(x))
			}
		}
	}
	if !changed {
		return nil, false
	}

	smallest := make(map[*uf.Element]L.TableSortId)
	for s, el := range elements {
		rep := el.Find()
		if min, ok := smallest[rep]; !ok || s < min {
			smallest[rep] = s
		}
	}

	return func(s L.TableSortId) L.TableSortId {
		if el, ok := elements[s]; ok {
			return smallest[el.Find()]
		}
		return s
	}, true
}
