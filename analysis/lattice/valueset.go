package lattice

import (
	"sort"
	"strings"

	"golang.org/x/tools/container/intsets"
)

// ValueSet is a finite disjunction of particles. Value sets produced by this
// package are sorted, duplicate free and compacted.
type ValueSet []Particle

// Of builds a compacted value set.
func Of(ps ...Particle) ValueSet {
	return Compact(ps)
}

// Compact canonicalizes a list of particles: it sorts and deduplicates it and
// drops every particle generalized by another particle of the list.
// The input is not modified.
func Compact(ps []Particle) ValueSet {
	var hasTop, hasTopString, hasTopInt bool
	for _, p := range ps {
		switch p.kind {
		case KindTop:
			hasTop = true
		case KindTopString:
			hasTopString = true
		case KindTopInt:
			hasTopInt = true
		}
	}
	if hasTop {
		return ValueSet{Top}
	}

	res := make(ValueSet, 0, len(ps))
	for _, p := range ps {
		if (hasTopString && p.kind == KindString) || (hasTopInt && p.kind == KindInt) {
			continue
		}
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Less(res[j]) })

	// Deduplicate in place.
	out := res[:0]
	for _, p := range res {
		if len(out) == 0 || p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// Union is the join of two value sets.
func Union(a, b ValueSet) ValueSet {
	ps := make([]Particle, 0, len(a)+len(b))
	ps = append(ps, a...)
	ps = append(ps, b...)
	return Compact(ps)
}

// UnionAll joins any number of value sets.
func UnionAll(vss ...ValueSet) ValueSet {
	var ps []Particle
	for _, vs := range vss {
		ps = append(ps, vs...)
	}
	return Compact(ps)
}

func (vs ValueSet) IsEmpty() bool { return len(vs) == 0 }

// Contains checks for syntactic membership of p.
func (vs ValueSet) Contains(p Particle) bool {
	for _, q := range vs {
		if p == q {
			return true
		}
	}
	return false
}

// Equal is syntactic equality of compacted value sets.
func (vs ValueSet) Equal(o ValueSet) bool {
	if len(vs) != len(o) {
		return false
	}
	for i := range vs {
		if vs[i] != o[i] {
			return false
		}
	}
	return true
}

// Single returns the only particle of a singleton set.
func (vs ValueSet) Single() (Particle, bool) {
	if len(vs) != 1 {
		return Particle{}, false
	}
	return vs[0], true
}

// Filter retains the particles satisfying keep.
func (vs ValueSet) Filter(keep func(Particle) bool) ValueSet {
	res := make(ValueSet, 0, len(vs))
	for _, p := range vs {
		if keep(p) {
			res = append(res, p)
		}
	}
	return res
}

// Map substitutes every particle by a value set and compacts the result.
func (vs ValueSet) Map(f func(Particle) ValueSet) ValueSet {
	var ps []Particle
	for _, p := range vs {
		ps = append(ps, f(p)...)
	}
	return Compact(ps)
}

// Sorts collects the table sort ids mentioned syntactically by the set.
func (vs ValueSet) Sorts(into *intsets.Sparse) {
	for _, p := range vs {
		if s, ok := p.Sort(); ok {
			into.Insert(int(s))
		}
	}
}

// HasValueIds checks whether the set mentions any value id.
func (vs ValueSet) HasValueIds() bool {
	for _, p := range vs {
		if p.kind == KindValueId {
			return true
		}
	}
	return false
}

func (vs ValueSet) String() string {
	if len(vs) == 0 {
		return "∅"
	}
	strs := make([]string, len(vs))
	for i, p := range vs {
		strs[i] = p.String()
	}
	if len(strs) == 1 {
		return strs[0]
	}
	return "{" + strings.Join(strs, " | ") + "}"
}
