package utils

import (
	"github.com/fatih/color"
)

// Colorizers shared by the pretty printers of the analysis packages.
var Colorize = struct {
	Proc    func(...interface{}) string
	Sort    func(...interface{}) string
	ValueId func(...interface{}) string
	Const   func(...interface{}) string
	Top     func(...interface{}) string
	Spec    func(...interface{}) string
	Safe    func(...interface{}) string
	Unsafe  func(...interface{}) string
}{
	Proc: func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiYellow).SprintFunc())(is...)
	},
	Sort: func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiCyan).SprintFunc())(is...)
	},
	ValueId: func(is ...interface{}) string {
		return CanColorize(color.New(color.FgMagenta).SprintFunc())(is...)
	},
	Const: func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
	Top: func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiBlue).SprintFunc())(is...)
	},
	Spec: func(is ...interface{}) string {
		return CanColorize(color.New(color.FgYellow).SprintFunc())(is...)
	},
	Safe: func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiGreen, color.Bold).SprintFunc())(is...)
	},
	Unsafe: func(is ...interface{}) string {
		return CanColorize(color.New(color.FgHiRed, color.Bold).SprintFunc())(is...)
	},
}
