package heap

import (
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"
)

// CompactEntries drops facts that cannot influence any read:
//   - an Add covered by a later Add, i.e. T, K and V are all included,
//   - an Add whose cells are all overwritten by a later Clear,
//   - a Clear repeated by a later Clear with no overlapping Add in between,
//   - a Clear that masks no earlier Add.
func (st ThreadState) CompactEntries() ThreadState {
	d := st.Deref
	es := st.Entries

	keep := make([]bool, len(es))
	for i := len(es) - 1; i >= 0; i-- {
		e := es[i]
		keep[i] = true
		if e.IsClear {
			keep[i] = !e.repeatedAfter(es[i+1:], keep[i+1:], d)
			continue
		}
		for j := i + 1; j < len(es); j++ {
			if !keep[j] {
				continue
			}
			l := es[j]
			if !l.covers(e.T, e.K, d) {
				continue
			}
			if l.IsClear || e.V.Subseteq(l.V, d) {
				keep[i] = false
				break
			}
		}
	}

	for i, e := range es {
		if !keep[i] || e.IsAdd() {
			continue
		}
		masks := false
		for j := 0; j < i && !masks; j++ {
			masks = keep[j] && es[j].IsAdd() && es[j].overlaps(e.T, e.K, d)
		}
		keep[i] = masks
	}

	res := make([]TableEntry, 0, len(es))
	for i, e := range es {
		if keep[i] {
			res = append(res, e)
		}
	}
	return st.withEntries(res)
}

// repeatedAfter checks whether a kept Clear among later covers the cells of
// e before any kept Add touches them.
func (e TableEntry) repeatedAfter(later []TableEntry, keep []bool, d L.Deref) bool {
	for j, l := range later {
		if !keep[j] {
			continue
		}
		if l.IsAdd() {
			if l.overlaps(e.T, e.K, d) {
				return false
			}
			continue
		}
		if l.covers(e.T, e.K, d) {
			return true
		}
	}
	return false
}
