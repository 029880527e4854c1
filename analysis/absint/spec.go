package absint

import (
	"fmt"

	"github.com/cs-au-dk/tabsafe/analysis/heap"
	"github.com/cs-au-dk/tabsafe/utils"
	"github.com/cs-au-dk/tabsafe/utils/slices"
)

// SpecId identifies a specialization.
type SpecId int

func (id SpecId) String() string {
	return utils.Colorize.Spec(fmt.Sprintf("#%d", int(id)))
}

// Spec is a discovered abstract state at the entry of a procedure, together
// with the specializations it steps to. Merged marks states produced by Merge.
type Spec struct {
	Id     SpecId
	State  heap.ThreadState
	Outs   []SpecId
	Merged bool
}

func (s *Spec) String() string {
	return fmt.Sprintf("%s %s -> %v\n%s", s.Id, utils.Colorize.Proc(s.State.Pid), s.Outs, s.State)
}

// replaceOut redirects the edges to bad towards good.
func (s *Spec) replaceOut(bad, good SpecId) {
	s.Outs = slices.ReplaceUnique(s.Outs, bad, good)
}
