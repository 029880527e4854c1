package heap

import (
	"testing"

	"github.com/cs-au-dk/tabsafe/analysis/ir"
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"
	"github.com/cs-au-dk/tabsafe/analysis/symbol"

	"github.com/google/go-cmp/cmp"
)

var (
	pid   = symbol.New("P")
	good  = L.Symbol(symbol.New("Good"))
	bad   = L.Symbol(symbol.New("Bad"))
	strX  = L.String("x")
	strY  = L.String("y")
	undef = L.Undef
)

var particleCmp = cmp.Comparer(func(a, b L.Particle) bool { return a == b })

// newTable allocates a table the way the stepper does.
func newTable(st ThreadState) (ThreadState, L.ValueId) {
	st, v := st.Alloc(L.Of(L.Sort(L.NewSort())))
	return st.Store(L.Of(L.Value(v)), L.Of(L.Top), L.Of(undef)), v
}

func store(st ThreadState, t L.ValueId, k, v L.Particle) ThreadState {
	return st.Store(L.Of(L.Value(t)), L.Of(k), L.Of(v))
}

func index(st ThreadState, t L.ValueId, k L.Particle) L.ValueSet {
	return st.Index(L.Of(L.Value(t)), L.Of(k))
}

func TestInitialState(t *testing.T) {
	st := NewThreadState(pid)
	got := index(st, st.Root, strX)
	if diff := cmp.Diff(L.Of(undef), got, particleCmp); diff != "" {
		t.Errorf("Unwritten root key mismatch (-want +got):\n%s", diff)
	}
	if len(st.RootSorts()) != 1 {
		t.Errorf("Expected a single root sort, got %v", st.RootSorts())
	}
}

func TestStoreThenIndex(t *testing.T) {
	st, tbl := newTable(NewThreadState(pid))
	st = store(st, tbl, strX, good)

	if diff := cmp.Diff(L.Of(good), index(st, tbl, strX), particleCmp); diff != "" {
		t.Errorf("Read of written key mismatch (-want +got):\n%s", diff)
	}

	if got := index(st, tbl, strY); !got.Contains(undef) {
		t.Errorf("Read of unwritten key %v should contain Undef, got %v", strY, got)
	}

	// Any string key may be "x".
	if got := index(st, tbl, L.TopString); !got.Contains(good) || !got.Contains(undef) {
		t.Errorf("Read at String should contain Good and Undef, got %v", got)
	}

	// Reads through the table's sort see the write.
	sorts := st.Deref.MustGet(tbl)
	if got := st.Index(sorts, L.Of(strX)); !got.Contains(good) {
		t.Errorf("Read through %v should contain Good, got %v", sorts, got)
	}
}

func TestStrongUpdate(t *testing.T) {
	st, tbl := newTable(NewThreadState(pid))
	st = store(st, tbl, strX, bad)
	st = store(st, tbl, strX, good)

	if diff := cmp.Diff(L.Of(good), index(st, tbl, strX), particleCmp); diff != "" {
		t.Errorf("Overwritten key mismatch (-want +got):\n%s", diff)
	}
	if got := st.Index(st.Deref.MustGet(tbl), L.Of(strX)); !got.Contains(good) {
		t.Errorf("Read through the sort should contain Good, got %v", got)
	}
}

func TestWeakUpdate(t *testing.T) {
	st, tbl := newTable(NewThreadState(pid))
	st = store(st, tbl, strX, bad)

	// An unknown string key cannot overwrite "x".
	st = st.Store(L.Of(L.Value(tbl)), L.Of(L.TopString), L.Of(good))

	got := index(st, tbl, strX)
	if !got.Contains(good) || !got.Contains(bad) {
		t.Errorf("Weak update should keep both values, got %v", got)
	}
}

func TestIsSingular(t *testing.T) {
	tests := []struct {
		p        L.Particle
		expected bool
	}{
		{L.Value(L.NewValueId()), true},
		{strX, true},
		{L.Int(1), true},
		{good, true},
		{L.Top, false},
		{L.TopString, false},
		{L.TopInt, false},
		{L.Sort(L.NewSort()), false},
	}
	for _, test := range tests {
		if got := IsSingular(test.p); got != test.expected {
			t.Errorf("IsSingular(%v) = %v, expected %v", test.p, got, test.expected)
		}
	}
}

func TestHeapLaw(t *testing.T) {
	st := NewThreadState(pid)
	st, t1 := newTable(st)
	st, t2 := newTable(st)
	st = store(st, t1, strX, good)
	st = store(st, t2, strX, bad)
	st = store(st, t2, strY, L.Int(3))

	ts := L.Of(L.Value(t1), L.Value(t2))
	for _, k := range []L.Particle{strX, strY, L.TopString, L.Int(0)} {
		lhs := st.Index(ts, L.Of(k))
		rhs := L.Union(index(st, t1, k), index(st, t2, k))
		if diff := cmp.Diff(rhs, lhs, particleCmp); diff != "" {
			t.Errorf("index(t1 ∨ t2, %v) mismatch (-want +got):\n%s", k, diff)
		}
	}

	ks := L.Of(strX, strY)
	for _, tbl := range []L.ValueId{t1, t2} {
		lhs := st.Index(L.Of(L.Value(tbl)), ks)
		rhs := L.Union(index(st, tbl, strX), index(st, tbl, strY))
		if diff := cmp.Diff(rhs, lhs, particleCmp); diff != "" {
			t.Errorf("index(%v, x ∨ y) mismatch (-want +got):\n%s", tbl, diff)
		}
	}
}

func TestEliminateValueId(t *testing.T) {
	st, tbl := newTable(NewThreadState(pid))
	st = store(st, tbl, strX, good)
	target := st.Deref.MustGet(tbl)

	el := st.EliminateValueId(tbl)
	if _, ok := el.Deref.Get(tbl); ok {
		t.Errorf("%v still has a deref entry", tbl)
	}
	for _, e := range el.Entries {
		if e.T.Contains(L.Value(tbl)) || e.K.Contains(L.Value(tbl)) || e.V.Contains(L.Value(tbl)) {
			t.Errorf("%v still mentions %v", e, tbl)
		}
		if e.IsClear {
			t.Errorf("Clear fact %v survived the elimination of its table", e)
		}
	}

	// The write is still visible through the sort.
	if got := el.Index(target, L.Of(strX)); !got.Contains(good) {
		t.Errorf("Read through %v after elimination lost Good: %v", target, got)
	}
}

func TestCompactEntries(t *testing.T) {
	st := NewThreadState(pid)
	root := L.Of(L.Value(st.Root))
	st, alias := st.Alloc(st.RootSorts())
	st = st.withEntries([]TableEntry{
		Add(root, L.Of(L.Top), L.Of(undef)),
		Add(root, L.Of(strX), L.Of(bad)),
		Add(root, L.Of(L.TopString), L.Of(bad, good)),
		Clear(root, L.Of(L.Int(1))),
		Clear(L.Of(L.Value(alias)), L.Of(strY)),
	})

	got := st.CompactEntries().Entries
	expected := []TableEntry{
		Add(root, L.Of(L.Top), L.Of(undef)),
		Add(root, L.Of(L.TopString), L.Of(bad, good)),
		Clear(root, L.Of(L.Int(1))),
		Clear(L.Of(L.Value(alias)), L.Of(strY)),
	}
	if !entriesEqual(expected, got) {
		t.Errorf("Expected\n%v\ngot\n%v", expected, got)
	}

	// A Clear without earlier overlapping Add is dropped.
	st = st.withEntries([]TableEntry{
		Add(root, L.Of(strX), L.Of(good)),
		Clear(root, L.Of(strY)),
	})
	if got := st.CompactEntries().Entries; len(got) != 1 || got[0].IsClear {
		t.Errorf("Expected only the Add to remain, got %v", got)
	}

	// An Add whose cells are all overwritten is dropped.
	st = st.withEntries([]TableEntry{
		Add(root, L.Of(L.Top), L.Of(undef)),
		Add(root, L.Of(strX), L.Of(bad)),
		Clear(root, L.Of(strX)),
		Add(root, L.Of(strX), L.Of(good)),
	})
	got = st.CompactEntries().Entries
	for _, e := range got {
		if e.IsAdd() && e.V.Contains(bad) {
			t.Errorf("Overwritten fact survived: %v", got)
		}
	}
	if diff := cmp.Diff(L.Of(good), index(st.CompactEntries(), st.Root, strX), particleCmp); diff != "" {
		t.Errorf("Compaction changed a read (-want +got):\n%s", diff)
	}
}

func TestCompactRepeatedClear(t *testing.T) {
	st := NewThreadState(pid)
	root := L.Of(L.Value(st.Root))

	st = st.withEntries([]TableEntry{
		Add(root, L.Of(L.Top), L.Of(undef)),
		Clear(root, L.Of(strX)),
		Clear(root, L.Of(strX)),
		Add(root, L.Of(strX), L.Of(good)),
	})
	expected := []TableEntry{
		Add(root, L.Of(L.Top), L.Of(undef)),
		Clear(root, L.Of(strX)),
		Add(root, L.Of(strX), L.Of(good)),
	}
	if got := st.CompactEntries().Entries; !entriesEqual(expected, got) {
		t.Errorf("Expected\n%v\ngot\n%v", expected, got)
	}

	// The overwritten Add between the Clears goes first, then the Clear.
	st = st.withEntries([]TableEntry{
		Add(root, L.Of(L.Top), L.Of(undef)),
		Clear(root, L.Of(strX)),
		Add(root, L.Of(strX), L.Of(bad)),
		Clear(root, L.Of(strX)),
		Add(root, L.Of(strX), L.Of(good)),
	})
	if got := st.CompactEntries().Entries; !entriesEqual(expected, got) {
		t.Errorf("Expected\n%v\ngot\n%v", expected, got)
	}

	// A surviving Add between the Clears keeps both.
	es := []TableEntry{
		Add(root, L.Of(L.Top), L.Of(undef)),
		Clear(root, L.Of(strX)),
		Add(root, L.Of(L.TopString), L.Of(bad)),
		Clear(root, L.Of(strX)),
		Add(root, L.Of(strX), L.Of(good)),
	}
	st = st.withEntries(es)
	if got := st.CompactEntries().Entries; !entriesEqual(es, got) {
		t.Errorf("Expected\n%v\ngot\n%v", es, got)
	}
	if diff := cmp.Diff(L.Of(good), index(st.CompactEntries(), st.Root, strX), particleCmp); diff != "" {
		t.Errorf("Compaction changed a read (-want +got):\n%s", diff)
	}
}

// reachableState builds root -> t1 -> t2 plus an unreachable table t3, with
// t1 bound to a node.
func reachableState() (ThreadState, [3]L.ValueId) {
	st := NewThreadState(pid)
	var ts [3]L.ValueId
	for i := range ts {
		st, ts[i] = newTable(st)
	}
	st = store(st, st.Root, strX, L.Value(ts[0]))
	st = store(st, ts[0], strY, L.Value(ts[1]))
	st = store(st, ts[2], strX, bad)
	st = st.Bind(ir.Node(0), L.Value(ts[0]))
	return st, ts
}

func sortOf(st ThreadState, v L.ValueId) L.TableSortId {
	s, _ := st.Deref.MustGet(v)[0].Sort()
	return s
}

func TestCollectSorts(t *testing.T) {
	st, ts := reachableState()
	live := st.CollectSorts()

	for i, expected := range []bool{true, true, false} {
		if got := live.Has(int(sortOf(st, ts[i]))); got != expected {
			t.Errorf("Liveness of table %d is %v, expected %v", i, got, expected)
		}
	}
	for _, s := range st.RootSorts() {
		if sid, _ := s.Sort(); !live.Has(int(sid)) {
			t.Errorf("Root sort %v is not live", s)
		}
	}
}

func TestGC(t *testing.T) {
	st, ts := reachableState()
	dead := sortOf(st, ts[2])
	gced := st.GC()

	for _, s := range gced.Sorts() {
		if s == dead {
			t.Errorf("Unreachable sort %v survived GC:\n%v", dead, gced)
		}
	}
	if _, ok := gced.Deref.Get(ts[2]); ok {
		t.Errorf("Dead value id %v survived GC", ts[2])
	}
	if _, ok := gced.Deref.Get(ts[0]); !ok {
		t.Errorf("Value id %v bound to a node was eliminated", ts[0])
	}

	if again := gced.GC(); !again.Equal(gced) {
		t.Errorf("GC is not idempotent:\n%v\nvs.\n%v", gced, again)
	}

	// Reads from the root are preserved, up to the eliminated identities.
	for _, k := range []L.Particle{strX, strY, L.TopString} {
		before := st.Deref.Resolve(index(st, st.Root, k))
		after := gced.Deref.Resolve(index(gced, gced.Root, k))
		if !before.Subseteq(after, gced.Deref) {
			t.Errorf("GC lost values at root[%v]: %v vs. %v", k, before, after)
		}
	}
	through := gced.Index(gced.Index(L.Of(L.Value(gced.Root)), L.Of(strX)), L.Of(strY))
	if !gced.Deref.Resolve(through).Contains(L.Sort(sortOf(st, ts[1]))) {
		t.Errorf("GC lost root.x.y, got %v", through)
	}
}

func TestCanonicalize(t *testing.T) {
	st := NewThreadState(pid)
	st, tbl := newTable(st)
	st = store(st, st.Root, strX, bad)
	st = store(st, st.Root, strX, good)
	st = store(st, st.Root, strY, L.Value(tbl))
	st = store(st, tbl, strX, good)
	st = st.Bind(ir.Node(0), L.Value(tbl))

	canon := st.Canonicalize()
	for _, e := range canon.Entries {
		if e.IsClear {
			t.Errorf("Clear survived canonicalization: %v", e)
		}
	}
	if keys := canon.Deref.Keys(); len(keys) != 1 || keys[0] != canon.Root {
		t.Errorf("Expected only the root to be bound, got %v", keys)
	}
	if canon.Nodes.Len() != 0 {
		t.Errorf("Expected no node bindings, got %d", canon.Nodes.Len())
	}

	// The strong update is forgotten, so both stored values are read back.
	got := canon.Deref.Resolve(index(canon, canon.Root, strX))
	for _, p := range []L.Particle{bad, good} {
		if !got.Contains(p) {
			t.Errorf("Expected root[%v] to contain %v, got %v", strX, p, got)
		}
	}
	for _, k := range []L.Particle{strX, strY, L.TopString} {
		before := st.Deref.Resolve(index(st, st.Root, k))
		after := canon.Deref.Resolve(index(canon, canon.Root, k))
		if !before.Subseteq(after, canon.Deref) {
			t.Errorf("Canonicalization lost values at root[%v]: %v vs. %v", k, before, after)
		}
	}

	if again := canon.Canonicalize(); !again.Equal(canon) {
		t.Errorf("Canonicalize is not idempotent:\n%v\nvs.\n%v", canon, again)
	}
}
