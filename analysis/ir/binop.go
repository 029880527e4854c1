package ir

import "fmt"

type BinOpKind uint8

const (
	Plus BinOpKind = iota
	Minus
	Mul
	Div
	Mod
	Pow
	Lt
	Le
	Gt
	Ge
	IsEqual
	IsNotEqual
)

var binOpStrings = [...]string{
	Plus:       "+",
	Minus:      "-",
	Mul:        "*",
	Div:        "/",
	Mod:        "%",
	Pow:        "^",
	Lt:         "<",
	Le:         "<=",
	Gt:         ">",
	Ge:         ">=",
	IsEqual:    "==",
	IsNotEqual: "~=",
}

func (k BinOpKind) String() string {
	if int(k) < len(binOpStrings) {
		return binOpStrings[k]
	}
	return fmt.Sprintf("BinOpKind(%d)", uint8(k))
}

// IsComparison holds for operators producing the True/False symbols.
func (k BinOpKind) IsComparison() bool {
	return k >= Lt
}

// ParseBinOp maps the textual form of an operator back to its kind.
func ParseBinOp(s string) (BinOpKind, error) {
	for k, str := range binOpStrings {
		if str == s {
			return BinOpKind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown binary operator %q", s)
}
