package lattice

// Subseteq checks whether every particle of a is covered by b. A particle is
// covered if b contains it or a particle generalizing it. A value id of a is
// additionally covered when its target is covered. Value ids of b only cover
// themselves.
func (a ValueSet) Subseteq(b ValueSet, d Deref) bool {
	return subseteq(a, b, d, make(map[ValueId]bool))
}

func subseteq(a, b ValueSet, d Deref, visiting map[ValueId]bool) bool {
	for _, p := range a {
		if covered(p, b) {
			continue
		}
		v, ok := p.ValueId()
		if !ok {
			return false
		}
		if visiting[v] {
			// A cycle does not describe any concrete value by itself.
			continue
		}
		visiting[v] = true
		ok = subseteq(d.MustGet(v), b, d, visiting)
		delete(visiting, v)
		if !ok {
			return false
		}
	}
	return true
}

func covered(p Particle, b ValueSet) bool {
	for _, q := range b {
		if q.generalizes(p) {
			return true
		}
	}
	return false
}

// Overlaps checks whether a and b may describe a common concrete value, after
// resolving the value ids on both sides. The empty set overlaps nothing.
func (a ValueSet) Overlaps(b ValueSet, d Deref) bool {
	ra, rb := d.Resolve(a), d.Resolve(b)
	for _, p := range ra {
		for _, q := range rb {
			if p.overlapsResolved(q) {
				return true
			}
		}
	}
	return false
}

// OverlapsParticle checks whether p overlaps b.
func (a ValueSet) OverlapsParticle(p Particle, d Deref) bool {
	return a.Overlaps(ValueSet{p}, d)
}

// Upcast computes the one-step generalization of p. It returns false for the
// universal particle, which has no generalization.
//
//	value id      ↦ its deref target
//	"s"           ↦ String
//	n             ↦ Int
//	anything else ↦ ⊤
func Upcast(p Particle, d Deref) (ValueSet, bool) {
	switch p.kind {
	case KindTop:
		return nil, false
	case KindValueId:
		v, _ := p.ValueId()
		return d.MustGet(v), true
	case KindString:
		return ValueSet{TopString}, true
	case KindInt:
		return ValueSet{TopInt}, true
	case KindSymbol, KindTopString, KindTopInt, KindTableSort:
		return ValueSet{Top}, true
	}
	panic(errPatternMatch(p.kind))
}

// Intersect over-approximates the meet of a and b: the result describes at
// least every concrete value described by both. It distributes over both
// sides.
func Intersect(a, b ValueSet, d Deref) ValueSet {
	var ps []Particle
	for _, p := range a {
		for _, q := range b {
			ps = append(ps, intersectParticles(p, q, d)...)
		}
	}
	return Compact(ps)
}

func intersectParticles(p, q Particle, d Deref) []Particle {
	_, pvid := p.ValueId()
	_, qvid := q.ValueId()
	switch {
	case pvid || qvid:
		if !(ValueSet{p}).Overlaps(ValueSet{q}, d) {
			return nil
		}
		// Either side bounds the meet. Prefer a side that is neither an
		// indirection nor ⊤.
		switch {
		case pvid && !qvid && !q.IsTop():
			return []Particle{q}
		case qvid && !pvid && p.IsTop():
			return []Particle{q}
		}
		return []Particle{p}
	case p.generalizes(q):
		return []Particle{q}
	case q.generalizes(p):
		return []Particle{p}
	}
	return nil
}
