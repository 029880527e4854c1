package absint

import (
	"fmt"

	"github.com/cs-au-dk/tabsafe/analysis/absint/ops"
	"github.com/cs-au-dk/tabsafe/analysis/heap"
	"github.com/cs-au-dk/tabsafe/analysis/ir"
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"
)

// Step executes the body of the current procedure of st and returns the states
// at the beginning of the procedures it may jump to. Branches ending in Exit,
// Panic or Fail, or crashing on the way, produce no successors.
func Step(prog *ir.Program, st heap.ThreadState) []heap.ThreadState {
	proc, ok := prog.Proc(st.Pid)
	if !ok {
		panic(fmt.Errorf("%w: stepping unknown procedure %v", errInternal, st.Pid))
	}

	states := []heap.ThreadState{st}
	for _, s := range proc.Stmts {
		var next []heap.ThreadState
		for _, st := range states {
			next = append(next, stepStatement(prog, st, s)...)
		}
		states = next
	}
	return states
}

func stepStatement(prog *ir.Program, st heap.ThreadState, s ir.Statement) []heap.ThreadState {
	switch s := s.(type) {
	case ir.Let:
		st, p, ok := evalExpr(st, s.Expr)
		if !ok {
			return nil
		}
		return []heap.ThreadState{st.Bind(s.Node, p)}

	case ir.Store:
		t, k, v := st.Lookup(s.Table), st.Lookup(s.Key), st.Lookup(s.Value)
		return []heap.ThreadState{st.Store(L.Of(t), L.Of(k), L.Of(v))}

	case ir.Print:
		return []heap.ThreadState{st}

	case ir.Jmp:
		return jump(prog, st, st.Lookup(s.Target))

	case ir.Exit, ir.Panic, ir.Fail:
		return nil
	}
	panic(fmt.Errorf("%w: unknown statement %T", errInternal, s))
}

// jump forks one successor per procedure the target may name. Symbols naming
// no procedure are dropped. An unconstrained target may name any procedure.
func jump(prog *ir.Program, st heap.ThreadState, target L.Particle) []heap.ThreadState {
	targets := st.Deref.Resolve(L.Of(target))

	var succs []heap.ThreadState
	if p, ok := targets.Single(); ok && p.IsTop() {
		for _, pid := range prog.SortedProcs() {
			succs = append(succs, st.Jump(pid))
		}
		return succs
	}

	for _, p := range targets {
		pid, ok := p.Symbol()
		if !ok {
			continue
		}
		if _, ok := prog.Proc(pid); ok {
			succs = append(succs, st.Jump(pid))
		}
	}
	return succs
}

// evalExpr evaluates e to a single particle. Value sets that are not a single
// atomic particle are bound to a fresh value id. The boolean is false when
// every concrete evaluation crashes.
func evalExpr(st heap.ThreadState, e ir.Expr) (heap.ThreadState, L.Particle, bool) {
	switch e := e.(type) {
	case ir.Index:
		t, k := st.Lookup(e.Table), st.Lookup(e.Key)
		return atomize(st, st.Index(L.Of(t), L.Of(k)))

	case ir.Root:
		return st, L.Value(st.Root), true

	case ir.NewTable:
		st, v := st.Alloc(L.Of(L.Sort(L.NewSort())))
		st = st.Store(L.Of(L.Value(v)), L.Of(L.Top), L.Of(L.Undef))
		return st, L.Value(v), true

	case ir.BinOp:
		l := st.Deref.Resolve(L.Of(st.Lookup(e.Left)))
		r := st.Deref.Resolve(L.Of(st.Lookup(e.Right)))
		res, halts := ops.BinOp(e.Op, l, r)
		if halts {
			return st, L.Particle{}, false
		}
		return atomize(st, res)

	case ir.Input:
		st, v := st.Alloc(L.Of(L.TopString))
		return st, L.Value(v), true

	case ir.Sym:
		return st, L.Symbol(e.Value), true
	case ir.Int:
		return st, L.Int(e.Value), true
	case ir.Str:
		return st, L.String(e.Value), true
	}
	panic(fmt.Errorf("%w: unknown expression %T", errInternal, e))
}

func atomize(st heap.ThreadState, vs L.ValueSet) (heap.ThreadState, L.Particle, bool) {
	if vs.IsEmpty() {
		return st, L.Particle{}, false
	}
	if p, ok := vs.Single(); ok {
		if _, vid := p.ValueId(); vid || p.IsLiteral() {
			return st, p, true
		}
	}
	st, v := st.Alloc(vs)
	return st, L.Value(v), true
}
