// Package ir defines the heap-based intermediate representation consumed by the
// safety analysis. Programs are sets of procedures; procedures are straight-line
// statement lists ending in a terminator. All control flow happens by jumping to
// a procedure whose name is computed at runtime.
package ir

import (
	"github.com/cs-au-dk/tabsafe/analysis/symbol"
)

type (
	// ProcId names a procedure. Jump targets are symbol values equal to a ProcId.
	ProcId = symbol.Symbol

	// Node is a procedure-local SSA-style binding. Nodes do not survive jumps.
	Node uint32

	// Program is a complete IR program.
	Program struct {
		Procs map[ProcId]*Procedure
		Main  ProcId
	}

	// Procedure is a list of statements, the last of which is a terminator.
	Procedure struct {
		Stmts []Statement
	}
)

// Statement is one of Let, Store, Print, Jmp, Panic, Fail or Exit.
type Statement interface {
	stmt()
}

// Expr is one of Index, Root, NewTable, BinOp, Input, Sym, Int or Str.
type Expr interface {
	expr()
}

type (
	// Let binds the value of Expr to Node. Invisible lets are inlined when printing.
	Let struct {
		Node    Node
		Expr    Expr
		Visible bool
	}
	// Store writes Value into Table at Key.
	Store struct {
		Table, Key, Value Node
	}
	Print struct {
		Value Node
	}
	// Jmp transfers control to the procedure named by Target.
	Jmp struct {
		Target Node
	}
	Panic struct {
		Value Node
	}
	// Fail is the instruction whose reachability is decided by the analysis.
	Fail struct{}
	Exit struct{}
)

type (
	Index struct {
		Table, Key Node
	}
	// Root evaluates to the global root table.
	Root     struct{}
	NewTable struct{}
	BinOp    struct {
		Op          BinOpKind
		Left, Right Node
	}
	// Input evaluates to an arbitrary string read from the environment.
	Input struct{}
	Sym   struct {
		Value symbol.Symbol
	}
	Int struct {
		Value int64
	}
	Str struct {
		Value string
	}
)

func (Let) stmt()   {}
func (Store) stmt() {}
func (Print) stmt() {}
func (Jmp) stmt()   {}
func (Panic) stmt() {}
func (Fail) stmt()  {}
func (Exit) stmt()  {}

func (Index) expr()    {}
func (Root) expr()     {}
func (NewTable) expr() {}
func (BinOp) expr()    {}
func (Input) expr()    {}
func (Sym) expr()      {}
func (Int) expr()      {}
func (Str) expr()      {}

// IsTerminator holds for statements that end a procedure.
func IsTerminator(s Statement) bool {
	switch s.(type) {
	case Jmp, Panic, Fail, Exit:
		return true
	}
	return false
}

// HasFail checks whether the procedure contains a Fail statement.
func (p *Procedure) HasFail() bool {
	for _, s := range p.Stmts {
		if _, ok := s.(Fail); ok {
			return true
		}
	}
	return false
}

// Proc retrieves the procedure named pid, if any.
func (prog *Program) Proc(pid ProcId) (*Procedure, bool) {
	p, ok := prog.Procs[pid]
	return p, ok
}

// Uses returns the nodes read by a statement.
func Uses(s Statement) []Node {
	switch s := s.(type) {
	case Let:
		return ExprUses(s.Expr)
	case Store:
		return []Node{s.Table, s.Key, s.Value}
	case Print:
		return []Node{s.Value}
	case Jmp:
		return []Node{s.Target}
	case Panic:
		return []Node{s.Value}
	}
	return nil
}

// ExprUses returns the nodes read by an expression.
func ExprUses(e Expr) []Node {
	switch e := e.(type) {
	case Index:
		return []Node{e.Table, e.Key}
	case BinOp:
		return []Node{e.Left, e.Right}
	}
	return nil
}
