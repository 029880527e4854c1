// Package absint implements the fixpoint engine of the safety analysis: the
// symbolic stepper, the subsumption solver, merging of specializations and the
// worklist driver deciding reachability of Fail.
package absint

import (
	"errors"
	"fmt"

	"github.com/cs-au-dk/tabsafe/utils"
)

var opts = utils.Opts()

var (
	errInternal   = errors.New("internal error")
	errStepBound  = fmt.Errorf("%w: step bound exceeded", errInternal)
	errMergeCheck = fmt.Errorf("%w: merged state does not subsume its inputs", errInternal)
)

// Config parameterizes one analysis run.
type Config struct {
	// Number of live specializations of one procedure that triggers a merge.
	MergeCap int
	// Intersection-over-union threshold above which merging unifies two sorts.
	MergeIoU float64
	Log      bool
	Metrics  bool
	// Assert that merged states subsume the states they replace.
	Checks bool
	// Number of fixpoint steps after which the run is aborted. 0 means no bound.
	MaxSteps int
}

func DefaultConfig() Config {
	return Config{
		MergeCap: 50,
		MergeIoU: 0.5,
	}
}

// ConfigFromOpts builds a configuration from the command line options.
func ConfigFromOpts() Config {
	return Config{
		MergeCap: opts.MergeCap(),
		MergeIoU: opts.MergeIoU(),
		Log:      opts.LogAI(),
		Metrics:  opts.Metrics(),
		Checks:   opts.Checks(),
		MaxSteps: opts.MaxSteps(),
	}
}
