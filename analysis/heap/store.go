package heap

import (
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"
	"github.com/cs-au-dk/tabsafe/utils/slices"
)

// IsSingular holds for particles that stand for exactly one concrete value.
// A value id names one concrete value, even if its target does not.
func IsSingular(p L.Particle) bool {
	_, vid := p.ValueId()
	return vid || p.IsLiteral()
}

// upcastClosure collects every particle reachable from vs by repeated upcasts,
// excluding ⊤.
func upcastClosure(vs L.ValueSet, d L.Deref) []L.Particle {
	seen := make(map[L.Particle]bool)
	var res []L.Particle
	var visit func(L.Particle)
	visit = func(p L.Particle) {
		if p.IsTop() || seen[p] {
			return
		}
		seen[p] = true
		res = append(res, p)
		if up, ok := L.Upcast(p, d); ok {
			for _, q := range up {
				visit(q)
			}
		}
	}
	for _, p := range vs {
		visit(p)
	}
	return res
}

// Store writes v into tables t at keys k.
//
// Every pair of generalizations of t and k first gets a fact of its own,
// holding the value read there before the write. Reads through a more general
// table or key then observe the write through those facts. The write is then
// joined into every fact overlapping the written cell. Finally the written
// cell itself is recorded: strongly, masking earlier facts, when both t and k
// are singular, and weakly otherwise.
func (st ThreadState) Store(t, k, v L.ValueSet) ThreadState {
	d := st.Deref
	ix := newIndexer(st)

	exists := func(tp, kp L.Particle) bool {
		_, found := slices.Find(st.Entries, func(e TableEntry) bool {
			return e.IsAdd() && e.T.Equal(L.ValueSet{tp}) && e.K.Equal(L.ValueSet{kp})
		})
		return found
	}

	var materialized []TableEntry
	for _, tp := range upcastClosure(t, d) {
		for _, kp := range upcastClosure(k, d) {
			if t.Equal(L.ValueSet{tp}) && k.Equal(L.ValueSet{kp}) {
				continue
			}
			if exists(tp, kp) {
				continue
			}
			materialized = append(materialized,
				Add(L.ValueSet{tp}, L.ValueSet{kp}, ix.particle(tp, kp)))
		}
	}

	old := ix.index(t, k)
	st = st.appendEntries(materialized...)

	entries := make([]TableEntry, len(st.Entries))
	for i, e := range st.Entries {
		if e.IsAdd() && e.overlaps(t, k, d) {
			e.V = L.Union(e.V, v)
		}
		entries[i] = e
	}

	tp, tok := t.Single()
	kp, kok := k.Single()
	if tok && kok && IsSingular(tp) && IsSingular(kp) {
		entries = append(entries, Clear(t, k), Add(t, k, v))
	} else {
		entries = append(entries, Add(t, k, L.Union(old, v)))
	}
	return st.withEntries(entries)
}
