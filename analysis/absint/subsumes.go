package absint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cs-au-dk/tabsafe/analysis/heap"
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"

	"golang.org/x/tools/container/intsets"
)

// Homomorphism maps the sorts of a special state to the sorts of a general
// state. It need not be injective.
type Homomorphism map[L.TableSortId]L.TableSortId

func (h Homomorphism) Apply(p L.Particle) L.Particle {
	if s, ok := p.Sort(); ok {
		if t, ok := h[s]; ok {
			return L.Sort(t)
		}
	}
	return p
}

func (h Homomorphism) String() string {
	keys := make([]L.TableSortId, 0, len(h))
	for s := range h {
		keys = append(keys, s)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	strs := make([]string, len(keys))
	for i, s := range keys {
		strs[i] = fmt.Sprintf("%v ↦ %v", s, h[s])
	}
	return "[" + strings.Join(strs, ", ") + "]"
}

// unmatched is the image of special sorts that correspond to no sort of the
// general state. It never occurs in any state.
var unmatched = L.NewSort()

// Subsumes checks whether general represents every behaviour of special.
func Subsumes(general, special heap.ThreadState) bool {
	_, ok := Solve(general, special)
	return ok
}

type constraint struct {
	t, k, v L.Particle
}

// candidates maps every special sort to the general sorts it may be renamed
// to. Branches of the search copy the map and never mutate the sets.
type candidates map[L.TableSortId]*intsets.Sparse

type solver struct {
	constraints []constraint
	cover       *heap.CoverIndexCache
}

// Solve searches a renaming of the sorts of special under which every Add
// fact of special is covered by the facts of general. Both states are first
// stripped of all value ids so that sorts are the only identities. The root
// table of special must be renamed to the root table of general.
//
// Stripping forgets the Clear facts of general, which would make general
// look less precise than it is. General states must therefore be canonical,
// and any other general state is rejected.
func Solve(general, special heap.ThreadState) (Homomorphism, bool) {
	if general.Pid != special.Pid || hasClears(general) {
		return nil, false
	}

	gRoots, sRoots := general.RootSorts(), special.RootSorts()
	g := general.EliminateAllValueIds().CompactEntries()
	s := special.EliminateAllValueIds().CompactEntries()

	sv := &solver{cover: heap.NewCoverIndexCache(g)}
	seen := make(map[constraint]bool)
	for _, e := range s.Entries {
		if e.IsClear {
			continue
		}
		for _, t := range e.T {
			for _, k := range e.K {
				for _, v := range e.V {
					c := constraint{t, k, v}
					if !seen[c] {
						seen[c] = true
						sv.constraints = append(sv.constraints, c)
					}
				}
			}
		}
	}

	gSorts := new(intsets.Sparse)
	for _, t := range g.Sorts() {
		gSorts.Insert(int(t))
	}
	gRoots.Sorts(gSorts)

	anyGeneral := new(intsets.Sparse)
	anyGeneral.Copy(gSorts)
	anyGeneral.Insert(int(unmatched))

	rootImage := new(intsets.Sparse)
	gRoots.Sorts(rootImage)

	phi := make(candidates)
	sSorts := new(intsets.Sparse)
	for _, t := range s.Sorts() {
		sSorts.Insert(int(t))
	}
	sRoots.Sorts(sSorts)
	for _, x := range sSorts.AppendTo(nil) {
		set := new(intsets.Sparse)
		if gSorts.Has(x) {
			set.Insert(x)
		} else {
			set.Copy(anyGeneral)
		}
		phi[L.TableSortId(x)] = set
	}
	for _, x := range sRoots {
		r, _ := x.Sort()
		set := new(intsets.Sparse)
		set.Intersection(phi[r], rootImage)
		phi[r] = set
	}

	return sv.solve(phi)
}

func hasClears(st heap.ThreadState) bool {
	for _, e := range st.Entries {
		if e.IsClear {
			return true
		}
	}
	return false
}

func (sv *solver) solve(phi candidates) (Homomorphism, bool) {
	if !sv.consistent(phi) {
		return nil, false
	}

	// Branch on the ambiguous sort with the fewest candidates.
	var pick L.TableSortId
	fewest := -1
	for s, set := range phi {
		if n := set.Len(); n > 1 && (fewest == -1 || n < fewest || n == fewest && s < pick) {
			pick, fewest = s, n
		}
	}

	if fewest == -1 {
		h := make(Homomorphism, len(phi))
		for s, set := range phi {
			h[s] = L.TableSortId(set.Min())
		}
		return h, true
	}

	for _, x := range phi[pick].AppendTo(nil) {
		branch := make(candidates, len(phi))
		for s, set := range phi {
			branch[s] = set
		}
		single := new(intsets.Sparse)
		single.Insert(x)
		branch[pick] = single

		if h, ok := sv.solve(branch); ok {
			return h, true
		}
	}
	return nil, false
}

// image over-approximates the particles p may be renamed to under phi.
func image(phi candidates, p L.Particle) []L.Particle {
	s, ok := p.Sort()
	if !ok {
		return []L.Particle{p}
	}
	set, ok := phi[s]
	if !ok {
		return []L.Particle{p}
	}
	res := make([]L.Particle, 0, set.Len())
	for _, x := range set.AppendTo(nil) {
		res = append(res, L.Sort(L.TableSortId(x)))
	}
	return res
}

// consistent prunes search branches: a constraint fails when no candidate of
// its value is covered by the union of the reads at all candidate cells. Once
// every sort has a single candidate the check is exact.
func (sv *solver) consistent(phi candidates) bool {
	for _, set := range phi {
		if set.IsEmpty() {
			return false
		}
	}

	d := sv.cover.State().Deref
	for _, c := range sv.constraints {
		var reads []L.ValueSet
		for _, t := range image(phi, c.t) {
			for _, k := range image(phi, c.k) {
				reads = append(reads, sv.cover.Get(t, k))
			}
		}
		read := L.UnionAll(reads...)

		ok := false
		for _, v := range image(phi, c.v) {
			if ok = L.Of(v).Subseteq(read, d); ok {
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
