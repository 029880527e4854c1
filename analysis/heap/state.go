// Package heap implements the abstract heap of the table IR: an append-ordered
// list of table facts together with the deref map of value ids, plus the
// procedure-local node bindings of one abstract execution context.
package heap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cs-au-dk/tabsafe/analysis/ir"
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"
	"github.com/cs-au-dk/tabsafe/utils"

	"github.com/benbjohnson/immutable"
)

type nodeHasher struct{}

func (nodeHasher) Hash(n ir.Node) uint32 { return utils.HashCombine(uint32(n)) }

func (nodeHasher) Equal(a, b ir.Node) bool { return a == b }

// Nodes binds the procedure-local nodes to particles.
type Nodes = *immutable.Map[ir.Node, L.Particle]

func emptyNodes() Nodes {
	return immutable.NewMap[ir.Node, L.Particle](nodeHasher{})
}

// ThreadState is one abstract machine state. It is a value: every operation
// that changes a state returns a new one. The entry slice is never mutated in
// place after the state was constructed, so states may share it.
type ThreadState struct {
	Entries []TableEntry
	Deref   L.Deref
	Root    L.ValueId
	Pid     ir.ProcId
	Nodes   Nodes
}

// NewThreadState creates the initial state for executing pid: a root table of
// a fresh sort whose keys are all undefined.
func NewThreadState(pid ir.ProcId) ThreadState {
	root := L.NewValueId()
	rootSort := L.NewSort()
	return ThreadState{
		Entries: []TableEntry{
			Add(L.Of(L.Value(root)), L.Of(L.Top), L.Of(L.Undef)),
		},
		Deref: L.NewDeref().Set(root, L.Of(L.Sort(rootSort))),
		Root:  root,
		Pid:   pid,
		Nodes: emptyNodes(),
	}
}

// Bind binds node n to p.
func (st ThreadState) Bind(n ir.Node, p L.Particle) ThreadState {
	st.Nodes = st.Nodes.Set(n, p)
	return st
}

// Lookup retrieves the particle bound to n. Reading an unbound node is an
// internal invariant violation, since programs are validated before analysis.
func (st ThreadState) Lookup(n ir.Node) L.Particle {
	p, ok := st.Nodes.Get(n)
	if !ok {
		panic(fmt.Errorf("node %v is unbound in proc %v", n, st.Pid))
	}
	return p
}

// Jump moves the state into procedure pid, dropping all local bindings.
func (st ThreadState) Jump(pid ir.ProcId) ThreadState {
	st.Pid = pid
	st.Nodes = emptyNodes()
	return st
}

// Alloc binds a fresh value id to vs.
func (st ThreadState) Alloc(vs L.ValueSet) (ThreadState, L.ValueId) {
	v := L.NewValueId()
	st.Deref = st.Deref.Set(v, vs)
	return st, v
}

// withEntries replaces the fact list.
func (st ThreadState) withEntries(es []TableEntry) ThreadState {
	st.Entries = es
	return st
}

// appendEntries copies the fact list and appends es to the copy.
func (st ThreadState) appendEntries(es ...TableEntry) ThreadState {
	res := make([]TableEntry, 0, len(st.Entries)+len(es))
	res = append(res, st.Entries...)
	st.Entries = append(res, es...)
	return st
}

// RootSorts resolves the root to the sorts of the root table.
func (st ThreadState) RootSorts() L.ValueSet {
	return st.Deref.Resolve(L.Of(L.Value(st.Root)))
}

// Equal is syntactic equality of two states.
func (st ThreadState) Equal(o ThreadState) bool {
	if st.Pid != o.Pid || st.Root != o.Root ||
		len(st.Entries) != len(o.Entries) ||
		st.Deref.Len() != o.Deref.Len() ||
		st.Nodes.Len() != o.Nodes.Len() {
		return false
	}
	for i := range st.Entries {
		if !st.Entries[i].Equal(o.Entries[i]) {
			return false
		}
	}

	eq := true
	st.Deref.ForEach(func(v L.ValueId, vs L.ValueSet) {
		ovs, ok := o.Deref.Get(v)
		eq = eq && ok && vs.Equal(ovs)
	})
	for iter := st.Nodes.Iterator(); eq && !iter.Done(); {
		n, p, _ := iter.Next()
		op, ok := o.Nodes.Get(n)
		eq = ok && p == op
	}
	return eq
}

func (st ThreadState) String() string {
	buf := new(strings.Builder)
	fmt.Fprintf(buf, "proc %s, root %s\n", utils.Colorize.Proc(st.Pid), st.Root)
	fmt.Fprintf(buf, "deref: %s\n", st.Deref)

	nodes := make([]ir.Node, 0, st.Nodes.Len())
	for iter := st.Nodes.Iterator(); !iter.Done(); {
		n, _, _ := iter.Next()
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	for _, n := range nodes {
		p, _ := st.Nodes.Get(n)
		fmt.Fprintf(buf, "%s = %s\n", n, p)
	}

	for _, e := range st.Entries {
		fmt.Fprintln(buf, e)
	}
	return buf.String()
}
