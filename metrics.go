package main

import (
	"fmt"

	ai "github.com/cs-au-dk/tabsafe/analysis/absint"
	"github.com/cs-au-dk/tabsafe/utils"
)

func gatherMetrics(path string, a *ai.Analysis) {
	if !opts.Metrics() || a == nil {
		return
	}
	m := a.Metrics()

	msg := "================ Results =====================\n\n"
	msg += "Program: " + path + "\n"
	msg += fmt.Sprintf("Procedures: %d\n", len(a.Program().Procs))
	msg += m.String()

	if m.Outcome == ai.OUTCOME_PANIC {
		msg += m.Error() + "\n"
	}

	if failing := a.Failing(); len(failing) > 0 {
		msg += "Failing specializations: {\n"
		for _, id := range failing {
			s, _ := a.Spec(id)
			msg += "  " + id.String() + " in " + utils.Colorize.Proc(s.State.Pid) + "\n"
		}
		msg += "}\n"
	}
	msg += "================ Results ====================="
	fmt.Println(msg)
}
