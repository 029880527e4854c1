// Package ops is the operator table of the abstract interpreter.
package ops

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/cs-au-dk/tabsafe/analysis/ir"
	L "github.com/cs-au-dk/tabsafe/analysis/lattice"
)

var errUnreachableBinOp = errors.New("unreachable binary operation")

// BinOp evaluates a binary operation over resolved operands. The second result
// reports that every concrete execution of the operation crashes, as is the
// case for integer division by zero.
//
// Exact integer operands compute exactly, and so do equality tests between
// exact literals. Otherwise, operands that may both be integers produce any
// integer, or both booleans for comparisons. Any other combination is never
// produced by lowering and is treated as an internal invariant violation.
func BinOp(op ir.BinOpKind, l, r L.ValueSet) (res L.ValueSet, halts bool) {
	if (op == ir.Div || op == ir.Mod) && r.Equal(L.Of(L.Int(0))) {
		return nil, true
	}

	lp, lok := l.Single()
	rp, rok := r.Single()
	if lok && rok {
		li, lint := lp.Int()
		ri, rint := rp.Int()
		if lint && rint {
			return intBinOp(op, li, ri), false
		}

		if (op == ir.IsEqual || op == ir.IsNotEqual) && lp.IsLiteral() && rp.IsLiteral() {
			return L.Of(L.Bool((lp == rp) == (op == ir.IsEqual))), false
		}
	}

	switch {
	case op == ir.IsEqual || op == ir.IsNotEqual:
		return L.Of(L.Bool(true), L.Bool(false)), false
	case maybeInt(l) && maybeInt(r):
		if op.IsComparison() {
			return L.Of(L.Bool(true), L.Bool(false)), false
		}
		return L.Of(L.TopInt), false
	}
	panic(fmt.Errorf("%w: %v %v %v", errUnreachableBinOp, l, op, r))
}

func maybeInt(vs L.ValueSet) bool {
	return vs.Overlaps(L.Of(L.TopInt), L.NewDeref())
}

func intBinOp(op ir.BinOpKind, l, r int64) L.ValueSet {
	var (
		res      int64
		overflow bool
	)
	switch op {
	case ir.Plus:
		res = l + r
		overflow = (r > 0 && res < l) || (r < 0 && res > l)
	case ir.Minus:
		res = l - r
		overflow = (r > 0 && res > l) || (r < 0 && res < l)
	case ir.Mul:
		hi, lo := bits.Mul64(uint64(abs(l)), uint64(abs(r)))
		overflow = hi != 0 || lo > math.MaxInt64 ||
			l == math.MinInt64 || r == math.MinInt64
		res = l * r
	case ir.Div:
		if l == math.MinInt64 && r == -1 {
			overflow = true
		}
		res = l / r
	case ir.Mod:
		res = l % r
	case ir.Pow:
		res, overflow = pow(l, r)
	case ir.Lt:
		return L.Of(L.Bool(l < r))
	case ir.Le:
		return L.Of(L.Bool(l <= r))
	case ir.Gt:
		return L.Of(L.Bool(l > r))
	case ir.Ge:
		return L.Of(L.Bool(l >= r))
	case ir.IsEqual:
		return L.Of(L.Bool(l == r))
	case ir.IsNotEqual:
		return L.Of(L.Bool(l != r))
	default:
		panic(fmt.Errorf("%w: unknown operator %v", errUnreachableBinOp, op))
	}

	if overflow {
		return L.Of(L.TopInt)
	}
	return L.Of(L.Int(res))
}

func abs(i int64) int64 {
	if i < 0 {
		return -i
	}
	return i
}

// pow reports overflow for results that do not fit and for negative
// exponents, whose results are not integers.
func pow(base, exp int64) (int64, bool) {
	switch {
	case exp < 0:
		return 0, true
	case exp == 0:
		return 1, false
	case base == 0 || base == 1:
		return base, false
	case base == -1:
		if exp%2 == 0 {
			return 1, false
		}
		return -1, false
	}

	// |base| >= 2, so the loop overflows after at most 63 rounds.
	res := int64(1)
	for ; exp > 0; exp-- {
		hi, lo := bits.Mul64(uint64(abs(res)), uint64(abs(base)))
		if hi != 0 || lo > math.MaxInt64 || base == math.MinInt64 {
			return 0, true
		}
		res *= base
	}
	return res, false
}
