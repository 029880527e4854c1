package ir

import "github.com/cs-au-dk/tabsafe/analysis/symbol"

// Builder assembles programs programmatically.
type Builder struct {
	prog *Program
}

// ProcBuilder appends statements to one procedure and allocates its nodes.
type ProcBuilder struct {
	proc *Procedure
	next Node
}

func NewBuilder(main string) *Builder {
	return &Builder{&Program{
		Procs: make(map[ProcId]*Procedure),
		Main:  symbol.New(main),
	}}
}

// Proc starts a new procedure. Starting the same procedure twice resets it.
func (b *Builder) Proc(name string) *ProcBuilder {
	proc := &Procedure{}
	b.prog.Procs[symbol.New(name)] = proc
	return &ProcBuilder{proc: proc}
}

// Build validates and returns the program.
func (b *Builder) Build() (*Program, error) {
	if err := b.prog.Validate(); err != nil {
		return nil, err
	}
	return b.prog, nil
}

// Let binds e to a fresh visible node.
func (p *ProcBuilder) Let(e Expr) Node {
	return p.let(e, true)
}

// Tmp binds e to a fresh node that is inlined when printing.
func (p *ProcBuilder) Tmp(e Expr) Node {
	return p.let(e, false)
}

func (p *ProcBuilder) let(e Expr, visible bool) Node {
	n := p.next
	p.next++
	p.proc.Stmts = append(p.proc.Stmts, Let{Node: n, Expr: e, Visible: visible})
	return n
}

func (p *ProcBuilder) Sym(s string) Node {
	return p.Tmp(Sym{symbol.New(s)})
}

func (p *ProcBuilder) Str(s string) Node {
	return p.Tmp(Str{s})
}

func (p *ProcBuilder) Int(i int64) Node {
	return p.Tmp(Int{i})
}

func (p *ProcBuilder) Index(t, k Node) Node {
	return p.Let(Index{t, k})
}

func (p *ProcBuilder) BinOp(op BinOpKind, l, r Node) Node {
	return p.Let(BinOp{op, l, r})
}

func (p *ProcBuilder) Store(t, k, v Node) *ProcBuilder {
	p.proc.Stmts = append(p.proc.Stmts, Store{t, k, v})
	return p
}

func (p *ProcBuilder) Print(v Node) *ProcBuilder {
	p.proc.Stmts = append(p.proc.Stmts, Print{v})
	return p
}

func (p *ProcBuilder) Jmp(target Node) {
	p.proc.Stmts = append(p.proc.Stmts, Jmp{target})
}

func (p *ProcBuilder) Panic(v Node) {
	p.proc.Stmts = append(p.proc.Stmts, Panic{v})
}

func (p *ProcBuilder) Fail() {
	p.proc.Stmts = append(p.proc.Stmts, Fail{})
}

func (p *ProcBuilder) Exit() {
	p.proc.Stmts = append(p.proc.Stmts, Exit{})
}
