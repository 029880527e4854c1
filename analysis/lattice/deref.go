package lattice

import (
	"sort"
	"strings"

	"github.com/cs-au-dk/tabsafe/utils"

	"github.com/benbjohnson/immutable"
)

// Deref is the persistent map from value ids to the value sets they stand for.
// Updates return a new map and leave the receiver untouched.
type Deref struct {
	mp *immutable.Map[ValueId, ValueSet]
}

func NewDeref() Deref {
	return Deref{utils.NewImmMap[ValueId, ValueSet]()}
}

func (d Deref) Get(v ValueId) (ValueSet, bool) {
	return d.mp.Get(v)
}

// MustGet retrieves the target of a live value id. A missing entry is an
// internal invariant violation.
func (d Deref) MustGet(v ValueId) ValueSet {
	vs, ok := d.mp.Get(v)
	if !ok {
		panic(errMissingDeref(v))
	}
	return vs
}

func (d Deref) Set(v ValueId, vs ValueSet) Deref {
	return Deref{d.mp.Set(v, vs)}
}

func (d Deref) Delete(v ValueId) Deref {
	return Deref{d.mp.Delete(v)}
}

func (d Deref) Len() int {
	return d.mp.Len()
}

// ForEach visits the entries in unspecified order.
func (d Deref) ForEach(do func(ValueId, ValueSet)) {
	for iter := d.mp.Iterator(); !iter.Done(); {
		k, v, _ := iter.Next()
		do(k, v)
	}
}

// Keys returns the value ids with an entry, in canonical order.
func (d Deref) Keys() []ValueId {
	keys := make([]ValueId, 0, d.mp.Len())
	d.ForEach(func(v ValueId, _ ValueSet) {
		keys = append(keys, v)
	})
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Resolve substitutes every value id by its transitive target. The result
// mentions no value ids.
func (d Deref) Resolve(vs ValueSet) ValueSet {
	if !vs.HasValueIds() {
		return vs
	}
	visited := make(map[ValueId]bool)
	var ps []Particle
	var visit func(ValueSet)
	visit = func(vs ValueSet) {
		for _, p := range vs {
			v, ok := p.ValueId()
			if !ok {
				ps = append(ps, p)
				continue
			}
			if visited[v] {
				continue
			}
			visited[v] = true
			visit(d.MustGet(v))
		}
	}
	visit(vs)
	return Compact(ps)
}

func (d Deref) String() string {
	strs := []string{}
	for _, v := range d.Keys() {
		strs = append(strs, v.String()+" ↦ "+d.MustGet(v).String())
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
