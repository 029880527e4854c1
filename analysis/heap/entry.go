package heap

import (
	"fmt"

	L "github.com/cs-au-dk/tabsafe/analysis/lattice"
)

// TableEntry is one heap fact.
//
//	Add(T, K, V): tables matching T may map keys matching K to any particle of V.
//	Clear(T, K):  Add facts for (T, K) recorded earlier are overwritten.
type TableEntry struct {
	IsClear bool
	T, K, V L.ValueSet
}

func Add(t, k, v L.ValueSet) TableEntry {
	return TableEntry{T: t, K: k, V: v}
}

func Clear(t, k L.ValueSet) TableEntry {
	return TableEntry{IsClear: true, T: t, K: k}
}

func (e TableEntry) IsAdd() bool {
	return !e.IsClear
}

// IsEmpty holds for facts that no longer describe any table cell.
func (e TableEntry) IsEmpty() bool {
	return e.T.IsEmpty() || e.K.IsEmpty() || (e.IsAdd() && e.V.IsEmpty())
}

// Map rewrites every value set of the fact.
func (e TableEntry) Map(f func(L.ValueSet) L.ValueSet) TableEntry {
	e.T, e.K = f(e.T), f(e.K)
	if e.IsAdd() {
		e.V = f(e.V)
	}
	return e
}

// overlaps checks whether the fact describes cells that may be the query cell.
func (e TableEntry) overlaps(t, k L.ValueSet, d L.Deref) bool {
	return e.T.Overlaps(t, d) && e.K.Overlaps(k, d)
}

// covers checks whether every cell of the query is described by the fact.
func (e TableEntry) covers(t, k L.ValueSet, d L.Deref) bool {
	return t.Subseteq(e.T, d) && k.Subseteq(e.K, d)
}

func (e TableEntry) Equal(o TableEntry) bool {
	return e.IsClear == o.IsClear && e.T.Equal(o.T) && e.K.Equal(o.K) && e.V.Equal(o.V)
}

func (e TableEntry) String() string {
	if e.IsClear {
		return fmt.Sprintf("clear %s[%s]", e.T, e.K)
	}
	return fmt.Sprintf("%s[%s] ∋ %s", e.T, e.K, e.V)
}

func mapEntries(es []TableEntry, f func(L.ValueSet) L.ValueSet) []TableEntry {
	res := make([]TableEntry, 0, len(es))
	for _, e := range es {
		if e = e.Map(f); !e.IsEmpty() {
			res = append(res, e)
		}
	}
	return res
}

func entriesEqual(a, b []TableEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
