package lattice

import (
	"math/rand"
	"testing"

	"github.com/cs-au-dk/tabsafe/analysis/symbol"

	"github.com/google/go-cmp/cmp"
)

var (
	sortA = NewSort()
	sortB = NewSort()
	symX  = symbol.New("x")
	symY  = symbol.New("y")
)

// particleCmp compares particles through their canonical order.
var particleCmp = cmp.Comparer(func(a, b Particle) bool { return a == b })

func randomParticle(r *rand.Rand, vids []ValueId) Particle {
	switch r.Intn(9) {
	case 0:
		return Top
	case 1:
		return Symbol([]symbol.Symbol{symX, symY}[r.Intn(2)])
	case 2:
		return String([]string{"a", "b", "c"}[r.Intn(3)])
	case 3:
		return TopString
	case 4:
		return Int(int64(r.Intn(3)))
	case 5:
		return TopInt
	case 6:
		return Sort([]TableSortId{sortA, sortB}[r.Intn(2)])
	default:
		if len(vids) == 0 {
			return Undef
		}
		return Value(vids[r.Intn(len(vids))])
	}
}

func randomSet(r *rand.Rand, vids []ValueId) ValueSet {
	n := r.Intn(4)
	ps := make([]Particle, n)
	for i := range ps {
		ps[i] = randomParticle(r, vids)
	}
	return Compact(ps)
}

// randomDeref builds an acyclic deref map over n fresh value ids.
func randomDeref(r *rand.Rand, n int) (Deref, []ValueId) {
	d := NewDeref()
	var vids []ValueId
	for i := 0; i < n; i++ {
		vs := randomSet(r, vids)
		if vs.IsEmpty() {
			vs = Of(Undef)
		}
		v := NewValueId()
		d = d.Set(v, vs)
		vids = append(vids, v)
	}
	return d, vids
}

func TestCompact(t *testing.T) {
	tests := []struct {
		in       []Particle
		expected ValueSet
	}{
		{nil, ValueSet{}},
		{[]Particle{Int(2), Int(1), Int(2)}, ValueSet{Int(1), Int(2)}},
		{[]Particle{Int(2), TopInt, String("a")}, ValueSet{String("a"), TopInt}},
		{[]Particle{String("a"), TopString, Sort(sortA)}, ValueSet{TopString, Sort(sortA)}},
		{[]Particle{Sort(sortA), Top, Int(3)}, ValueSet{Top}},
		{[]Particle{Symbol(symY), Symbol(symX), Symbol(symY)}, Of(Symbol(symX), Symbol(symY))},
	}

	for _, test := range tests {
		got := Compact(test.in)
		if diff := cmp.Diff(test.expected, got, particleCmp); diff != "" {
			t.Errorf("Compact(%v) mismatch (-want +got):\n%s", test.in, diff)
		}
	}
}

func TestCompactIdempotent(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	_, vids := randomDeref(r, 4)

	for i := 0; i < 500; i++ {
		ps := make([]Particle, r.Intn(6))
		for j := range ps {
			ps[j] = randomParticle(r, vids)
		}

		once := Compact(ps)
		if twice := Compact(once); !twice.Equal(once) {
			t.Fatalf("Compact is not idempotent on %v: %v vs. %v", ps, once, twice)
		}
		for j, p := range once {
			for k, q := range once {
				if j != k && q.generalizes(p) {
					t.Fatalf("%v still contains %v covered by %v", once, p, q)
				}
			}
		}
	}
}

func TestUnionMonotone(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		d, vids := randomDeref(r, 3)
		a, b := randomSet(r, vids), randomSet(r, vids)
		u := Union(a, b)
		if !a.Subseteq(u, d) || !b.Subseteq(u, d) {
			t.Fatalf("%v and %v are not both below their union %v", a, b, u)
		}
		if !u.Equal(Union(b, a)) {
			t.Fatalf("Union is not commutative on %v and %v", a, b)
		}
	}
}

func TestSubseteq(t *testing.T) {
	d := NewDeref()
	v := NewValueId()
	w := NewValueId()
	d = d.Set(v, Of(String("a"), Int(1)))
	d = d.Set(w, Of(Value(v), Undef))

	tests := []struct {
		a, b     ValueSet
		expected bool
	}{
		{Of(), Of(), true},
		{Of(), Of(Int(1)), true},
		{Of(Int(1)), Of(), false},
		{Of(Int(1)), Of(TopInt), true},
		{Of(TopInt), Of(Int(1)), false},
		{Of(String("a")), Of(TopInt), false},
		{Of(Sort(sortA)), Of(Top), true},
		{Of(Value(v)), Of(TopString, TopInt), true},
		{Of(Value(v)), Of(TopString), false},
		{Of(Value(w)), Of(String("a"), Int(1), Undef), true},
		{Of(Value(w)), Of(Value(v), Undef), true},
		// Value ids on the right only cover themselves.
		{Of(String("a")), Of(Value(v)), false},
	}

	for _, test := range tests {
		if got := test.a.Subseteq(test.b, d); got != test.expected {
			t.Errorf("%v ⊆ %v = %v, expected %v", test.a, test.b, got, test.expected)
		}
	}
}

func TestOverlaps(t *testing.T) {
	d := NewDeref()
	v := NewValueId()
	d = d.Set(v, Of(String("a")))

	tests := []struct {
		a, b     ValueSet
		expected bool
	}{
		{Of(), Of(Top), false},
		{Of(Top), Of(), false},
		{Of(Top), Of(Sort(sortA)), true},
		{Of(Sort(sortA)), Of(Sort(sortB)), false},
		{Of(String("a")), Of(TopString), true},
		{Of(String("a")), Of(String("b")), false},
		{Of(Value(v)), Of(TopString), true},
		{Of(Value(v)), Of(String("b"), Int(1)), false},
		{Of(Int(3)), Of(TopString, TopInt), true},
	}

	for _, test := range tests {
		if got := test.a.Overlaps(test.b, d); got != test.expected {
			t.Errorf("overlaps(%v, %v) = %v, expected %v", test.a, test.b, got, test.expected)
		}
		if got := test.b.Overlaps(test.a, d); got != test.expected {
			t.Errorf("overlaps(%v, %v) = %v, expected %v", test.b, test.a, got, test.expected)
		}
	}
}

func TestUpcast(t *testing.T) {
	d := NewDeref()
	v := NewValueId()
	d = d.Set(v, Of(Int(4)))

	if _, ok := Upcast(Top, d); ok {
		t.Error("⊤ must not have an upcast")
	}

	tests := []struct {
		p        Particle
		expected ValueSet
	}{
		{Value(v), Of(Int(4))},
		{String("s"), Of(TopString)},
		{Int(1), Of(TopInt)},
		{TopInt, Of(Top)},
		{Symbol(symX), Of(Top)},
		{Sort(sortA), Of(Top)},
	}
	for _, test := range tests {
		got, ok := Upcast(test.p, d)
		if !ok {
			t.Errorf("Upcast(%v) returned none", test.p)
			continue
		}
		if diff := cmp.Diff(test.expected, got, particleCmp); diff != "" {
			t.Errorf("Upcast(%v) mismatch (-want +got):\n%s", test.p, diff)
		}
	}

	// Every upcast chain reaches ⊤ and stops.
	for _, test := range tests {
		p, steps := test.p, 0
		for {
			up, ok := Upcast(p, d)
			if !ok {
				break
			}
			p = up[0]
			if steps++; steps > 5 {
				t.Fatalf("Upcast chain from %v does not terminate", test.p)
			}
		}
	}
}

func TestIntersect(t *testing.T) {
	d := NewDeref()
	v := NewValueId()
	d = d.Set(v, Of(String("a"), String("b")))

	tests := []struct {
		a, b, expected ValueSet
	}{
		{Of(), Of(Top), Of()},
		{Of(Top), Of(Int(1), Undef), Of(Int(1), Undef)},
		{Of(TopString, Int(1)), Of(String("x"), TopInt), Of(String("x"), Int(1))},
		{Of(Sort(sortA)), Of(Sort(sortB)), Of()},
		{Of(Value(v)), Of(String("a")), Of(String("a"))},
		{Of(Value(v)), Of(Top), Of(Value(v))},
		{Of(Value(v)), Of(String("c")), Of()},
	}

	for _, test := range tests {
		got := Intersect(test.a, test.b, d)
		if diff := cmp.Diff(test.expected, got, particleCmp); diff != "" {
			t.Errorf("Intersect(%v, %v) mismatch (-want +got):\n%s", test.a, test.b, diff)
		}
	}
}

func TestIntersectSound(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 300; i++ {
		d, vids := randomDeref(r, 3)
		a, b := randomSet(r, vids), randomSet(r, vids)
		m := Intersect(a, b, d)
		// Every resolved value in both a and b is still described by the meet.
		for _, p := range d.Resolve(a) {
			if !p.IsLiteral() {
				continue
			}
			if covered(p, d.Resolve(b)) && !Of(p).Subseteq(d.Resolve(m), d) {
				t.Fatalf("Intersect(%v, %v) = %v lost %v", a, b, m, p)
			}
		}
	}
}

func TestResolve(t *testing.T) {
	d := NewDeref()
	v, w := NewValueId(), NewValueId()
	d = d.Set(v, Of(Int(1)))
	d = d.Set(w, Of(Value(v), Sort(sortA)))

	got := d.Resolve(Of(Value(w), String("s")))
	if diff := cmp.Diff(Of(String("s"), Int(1), Sort(sortA)), got, particleCmp); diff != "" {
		t.Errorf("Resolve mismatch (-want +got):\n%s", diff)
	}

	defer func() {
		if recover() == nil {
			t.Error("Resolving a value id without entry should panic")
		}
	}()
	d.Resolve(Of(Value(NewValueId())))
}
