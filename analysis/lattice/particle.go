package lattice

import (
	"fmt"
	"strconv"

	"github.com/cs-au-dk/tabsafe/analysis/symbol"
	"github.com/cs-au-dk/tabsafe/utils"
)

type (
	// TableSortId identifies one abstract allocation region. Tables of the same
	// sort are indistinguishable to the analysis, tables of different sorts are
	// disjoint.
	TableSortId symbol.Symbol
	// ValueId is an indirection resolved through the deref map.
	ValueId symbol.Symbol
)

// NewSort allocates a table sort id distinct from every existing one.
func NewSort() TableSortId {
	return TableSortId(symbol.Fresh("sort"))
}

// NewValueId allocates a value id distinct from every existing one.
func NewValueId() ValueId {
	return ValueId(symbol.Fresh("vid"))
}

func (s TableSortId) Hash() uint32 { return symbol.Symbol(s).Hash() }
func (s TableSortId) Equal(o TableSortId) bool { return s == o }
func (s TableSortId) String() string { return utils.Colorize.Sort(symbol.Symbol(s).String()) }

func (v ValueId) Hash() uint32 { return symbol.Symbol(v).Hash() }
func (v ValueId) Equal(o ValueId) bool { return v == o }
func (v ValueId) String() string { return utils.Colorize.ValueId(symbol.Symbol(v).String()) }

// Kind discriminates particles. The declaration order is the canonical order
// of particles inside a value set.
type Kind uint8

const (
	KindTop Kind = iota
	KindSymbol
	KindString
	KindTopString
	KindInt
	KindTopInt
	KindTableSort
	KindValueId
)

// Particle is one atomic abstract value. Particles are comparable and may be
// used as map keys.
type Particle struct {
	kind Kind
	num  int64
	str  string
	sym  symbol.Symbol
}

var (
	// Top is the universal particle.
	Top       = Particle{kind: KindTop}
	TopString = Particle{kind: KindTopString}
	TopInt    = Particle{kind: KindTopInt}
)

func Symbol(s symbol.Symbol) Particle { return Particle{kind: KindSymbol, sym: s} }
func String(s string) Particle { return Particle{kind: KindString, str: s} }
func Int(i int64) Particle { return Particle{kind: KindInt, num: i} }
func Sort(s TableSortId) Particle { return Particle{kind: KindTableSort, sym: symbol.Symbol(s)} }
func Value(v ValueId) Particle { return Particle{kind: KindValueId, sym: symbol.Symbol(v)} }

// Bool encodes a boolean as the True/False symbols.
func Bool(b bool) Particle {
	if b {
		return Symbol(symbol.True)
	}
	return Symbol(symbol.False)
}

// Undef is the value of every key that was never written.
var Undef = Symbol(symbol.Undef)

func (p Particle) Kind() Kind { return p.kind }

func (p Particle) IsTop() bool { return p.kind == KindTop }

func (p Particle) Symbol() (symbol.Symbol, bool) {
	return p.sym, p.kind == KindSymbol
}

func (p Particle) Str() (string, bool) {
	return p.str, p.kind == KindString
}

func (p Particle) Int() (int64, bool) {
	return p.num, p.kind == KindInt
}

func (p Particle) Sort() (TableSortId, bool) {
	return TableSortId(p.sym), p.kind == KindTableSort
}

func (p Particle) ValueId() (ValueId, bool) {
	return ValueId(p.sym), p.kind == KindValueId
}

// IsLiteral holds for exact symbols, strings and integers.
func (p Particle) IsLiteral() bool {
	switch p.kind {
	case KindSymbol, KindString, KindInt:
		return true
	}
	return false
}

// IsTable holds for particles that may denote a table. Value ids are not
// tables themselves, they must be resolved first.
func (p Particle) IsTable() bool {
	return p.kind == KindTableSort
}

// Less is the canonical particle order.
func (p Particle) Less(o Particle) bool {
	switch {
	case p.kind != o.kind:
		return p.kind < o.kind
	case p.num != o.num:
		return p.num < o.num
	case p.str != o.str:
		return p.str < o.str
	}
	return p.sym < o.sym
}

// generalizes holds when every concrete value described by o is described by p,
// without consulting the deref map.
func (p Particle) generalizes(o Particle) bool {
	switch {
	case p == o, p.kind == KindTop:
		return true
	case p.kind == KindTopString:
		return o.kind == KindString
	case p.kind == KindTopInt:
		return o.kind == KindInt
	}
	return false
}

// overlapsResolved checks whether two resolved particles may describe a common
// concrete value.
func (p Particle) overlapsResolved(o Particle) bool {
	return p.generalizes(o) || o.generalizes(p)
}

func (p Particle) String() string {
	switch p.kind {
	case KindTop:
		return utils.Colorize.Top("⊤")
	case KindSymbol:
		return utils.Colorize.Const("$" + p.sym.String())
	case KindString:
		return utils.Colorize.Const(strconv.Quote(p.str))
	case KindTopString:
		return utils.Colorize.Top("String")
	case KindInt:
		return utils.Colorize.Const(strconv.FormatInt(p.num, 10))
	case KindTopInt:
		return utils.Colorize.Top("Int")
	case KindTableSort:
		return TableSortId(p.sym).String()
	case KindValueId:
		return ValueId(p.sym).String()
	}
	panic(errPatternMatch(fmt.Sprintf("particle kind %d", p.kind)))
}
