package ops

import (
	"math"
	"testing"

	"github.com/cs-au-dk/tabsafe/analysis/ir"
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"
	"github.com/cs-au-dk/tabsafe/analysis/symbol"
)

var (
	tt   = L.Bool(true)
	ff   = L.Bool(false)
	both = L.Of(tt, ff)
)

func TestBinOp(t *testing.T) {
	i := func(n int64) L.ValueSet { return L.Of(L.Int(n)) }

	tests := []struct {
		op       ir.BinOpKind
		l, r     L.ValueSet
		expected L.ValueSet
	}{
		{ir.Plus, i(2), i(3), i(5)},
		{ir.Minus, i(2), i(3), i(-1)},
		{ir.Mul, i(-4), i(3), i(-12)},
		{ir.Div, i(7), i(2), i(3)},
		{ir.Mod, i(7), i(2), i(1)},
		{ir.Pow, i(2), i(10), i(1024)},
		{ir.Pow, i(-1), i(math.MaxInt64), i(-1)},
		{ir.Pow, i(2), i(-1), L.Of(L.TopInt)},
		{ir.Pow, i(3), i(100), L.Of(L.TopInt)},
		{ir.Plus, i(math.MaxInt64), i(1), L.Of(L.TopInt)},
		{ir.Minus, i(math.MinInt64), i(1), L.Of(L.TopInt)},
		{ir.Mul, i(math.MaxInt64), i(2), L.Of(L.TopInt)},
		{ir.Div, i(math.MinInt64), i(-1), L.Of(L.TopInt)},
		{ir.Lt, i(1), i(2), L.Of(tt)},
		{ir.Ge, i(1), i(2), L.Of(ff)},
		{ir.IsEqual, i(1), i(1), L.Of(tt)},
		{ir.IsNotEqual, i(1), i(1), L.Of(ff)},
		{ir.IsEqual, L.Of(L.String("a")), L.Of(L.String("a")), L.Of(tt)},
		{ir.IsEqual, L.Of(L.String("a")), L.Of(L.Int(1)), L.Of(ff)},
		{ir.IsNotEqual, L.Of(L.Symbol(symbol.New("s"))), L.Of(L.String("s")), L.Of(tt)},
		{ir.IsEqual, L.Of(L.TopString), L.Of(L.String("a")), both},
		{ir.Plus, L.Of(L.TopInt), i(1), L.Of(L.TopInt)},
		{ir.Plus, L.Of(L.Int(1), L.Int(2)), i(1), L.Of(L.TopInt)},
		{ir.Lt, L.Of(L.Top), i(1), both},
	}

	for _, test := range tests {
		got, halts := BinOp(test.op, test.l, test.r)
		if halts {
			t.Errorf("%v %v %v unexpectedly halts", test.l, test.op, test.r)
		}
		if !got.Equal(test.expected) {
			t.Errorf("%v %v %v = %v, expected %v", test.l, test.op, test.r, got, test.expected)
		}
	}
}

func TestBinOpDivByZero(t *testing.T) {
	for _, op := range []ir.BinOpKind{ir.Div, ir.Mod} {
		for _, l := range []L.ValueSet{L.Of(L.Int(1)), L.Of(L.TopInt)} {
			if _, halts := BinOp(op, l, L.Of(L.Int(0))); !halts {
				t.Errorf("%v %v 0 should halt", l, op)
			}
		}
	}
}

func TestBinOpUnreachable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Adding strings should be an invariant violation")
		}
	}()
	BinOp(ir.Plus, L.Of(L.String("a")), L.Of(L.TopString))
}
