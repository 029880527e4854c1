package utils

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type options struct {
	mergeCap     uint
	maxSteps     uint
	mergeIoU     float64
	minlen       uint
	nodesep      float64
	outputFormat string
	outputFile   string
	logai        bool
	metrics      bool
	checks       bool
	noColorize   bool
	verbose      bool
	visualize    bool
	printIR      bool
}

func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

var opts = &options{
	mergeCap: 50,
	mergeIoU: 0.5,
	minlen:   2,
	nodesep:  0.35,
}

type optInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}

// MergeCap is the number of live specializations of one procedure that
// triggers a merge.
func (optInterface) MergeCap() int {
	return int(opts.mergeCap)
}

// MergeIoU is the intersection-over-union threshold above which two table
// sorts are unified during a merge.
func (optInterface) MergeIoU() float64 {
	return opts.mergeIoU
}

func (optInterface) MaxSteps() int {
	return int(opts.maxSteps)
}

func (optInterface) Minlen() uint {
	return opts.minlen
}
func (optInterface) Nodesep() float64 {
	return opts.nodesep
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) OutputFile() string {
	return opts.outputFile
}
func (optInterface) LogAI() bool {
	return opts.logai
}
func (optInterface) Metrics() bool {
	return opts.metrics
}
func (optInterface) Checks() bool {
	return opts.checks
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) Visualize() bool {
	return opts.visualize
}
func (optInterface) PrintIR() bool {
	return opts.printIR
}

func init() {
	flag.UintVar(&(opts.mergeCap), "merge-cap", opts.mergeCap, "Number of specializations of a single procedure that triggers a merge.")
	flag.Float64Var(&(opts.mergeIoU), "merge-iou", opts.mergeIoU, "Intersection-over-union threshold for unifying table sorts during a merge.")
	flag.UintVar(&(opts.maxSteps), "max-steps", 0, "Abort after this many fixpoint steps (0 disables the bound).")
	flag.UintVar(&(opts.minlen), "minlen", opts.minlen, "Minimum edge length (for wider output).")
	flag.Float64Var(&(opts.nodesep), "nodesep", opts.nodesep, "Minimum space between two adjacent nodes in the same rank (for taller output).")
	flag.StringVar(&(opts.outputFormat), "format", "svg", "output file format [svg | png | jpg | ...]")
	flag.StringVar(&(opts.outputFile), "out", "", "output file name (without extension) for the rendered specialization graph")
	flag.BoolVar(&(opts.logai), "ai-logging", false, "Enable logging of specific events during abstract interpretation")
	flag.BoolVar(&(opts.metrics), "metrics", false, "Enable collection of performance metrics for abstract interpretation")
	flag.BoolVar(&(opts.checks), "checks", false, "Assert that every merged state subsumes the states it replaces")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.visualize), "visualize", false, "render the specialization graph via Graphviz")
	flag.BoolVar(&(opts.printIR), "print-ir", false, "print the loaded IR before analyzing it")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	// See https://stackoverflow.com/questions/60235896/flag-provided-but-not-defined-test-v
	flag.Parse()

	if opts.mergeCap < 2 {
		log.Fatalf("Value %d is not valid for -merge-cap (must be at least 2)", opts.mergeCap)
	}
	if opts.mergeIoU < 0 || opts.mergeIoU >= 1 {
		log.Fatalf("Value %v is not valid for -merge-iou (must be in [0, 1))", opts.mergeIoU)
	}
	if opts.visualize || !isatty.IsTerminal(os.Stdout.Fd()) {
		opts.noColorize = true
	}
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}
