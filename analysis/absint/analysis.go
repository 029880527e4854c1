package absint

import (
	"fmt"
	"log"
	"sort"

	"github.com/cs-au-dk/tabsafe/analysis/heap"
	"github.com/cs-au-dk/tabsafe/analysis/ir"
	"github.com/cs-au-dk/tabsafe/utils"
	"github.com/cs-au-dk/tabsafe/utils/graph"
	"github.com/cs-au-dk/tabsafe/utils/slices"
	W "github.com/cs-au-dk/tabsafe/utils/worklist"
)

// Analysis is the state of one fixpoint computation over a program.
//
// Specializations are stepped from a LIFO queue. Freshly discovered
// specializations first pass through the heuristics queue, where they are
// checked against the known specializations of the same procedure, and where
// merging is triggered.
type Analysis struct {
	Config Config

	prog      *ir.Program
	rootSpec  SpecId
	specs     map[SpecId]*Spec
	nextId    SpecId
	queue     W.Worklist[SpecId]
	heurQueue W.Worklist[SpecId]
	steps     int
	metrics   *Metrics
}

// Analyze runs the analysis of prog to completion.
func Analyze(prog *ir.Program, cfg Config) *Analysis {
	a := New(prog, cfg)
	a.Run()
	return a
}

// New seeds an analysis with the initial state of the main procedure.
func New(prog *ir.Program, cfg Config) *Analysis {
	a := &Analysis{
		Config:    cfg,
		prog:      prog,
		specs:     make(map[SpecId]*Spec),
		queue:     W.EmptyStack[SpecId](),
		heurQueue: W.Empty[SpecId](),
		metrics:   cfg.initMetrics(),
	}

	a.rootSpec = a.add(heap.NewThreadState(prog.Main).Canonicalize())
	a.queue.Add(a.rootSpec)
	return a
}

// Run processes both queues until they are empty.
func (a *Analysis) Run() {
	a.metrics.TimerStart()

	for {
		if !a.heurQueue.IsEmpty() {
			a.heur(a.heurQueue.GetNext())
			continue
		}
		if a.queue.IsEmpty() {
			break
		}

		id := a.queue.GetNext()
		if _, ok := a.specs[id]; ok {
			a.step(id)
		}
	}

	safe := a.Safe()
	a.metrics.Done(safe, len(a.specs))
	if a.Config.Log {
		log.Printf("Fixpoint reached after %d steps with %d specializations, program is %s\n",
			a.steps, len(a.specs), verdict(safe))
	}
}

func verdict(safe bool) string {
	if safe {
		return utils.Colorize.Safe("safe")
	}
	return utils.Colorize.Unsafe("unsafe")
}

// Safe holds iff no retained specialization is in a procedure containing Fail.
func (a *Analysis) Safe() bool {
	return len(a.Failing()) == 0
}

// Failing returns the retained specializations of procedures containing Fail.
func (a *Analysis) Failing() (res []SpecId) {
	for _, s := range a.Specs() {
		if proc, ok := a.prog.Proc(s.State.Pid); ok && proc.HasFail() {
			res = append(res, s.Id)
		}
	}
	return
}

// Specs returns the retained specializations ordered by id.
func (a *Analysis) Specs() []*Spec {
	res := make([]*Spec, 0, len(a.specs))
	for _, s := range a.specs {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Id < res[j].Id })
	return res
}

func (a *Analysis) Spec(id SpecId) (*Spec, bool) {
	s, ok := a.specs[id]
	return s, ok
}

func (a *Analysis) RootSpec() SpecId {
	return a.rootSpec
}

func (a *Analysis) Program() *ir.Program {
	return a.prog
}

func (a *Analysis) Metrics() *Metrics {
	return a.metrics
}

// Steps is the number of specializations stepped so far.
func (a *Analysis) Steps() int {
	return a.steps
}

func (a *Analysis) add(st heap.ThreadState) SpecId {
	id := a.nextId
	a.nextId++
	a.specs[id] = &Spec{Id: id, State: st}
	a.metrics.AddSpec(len(a.specs))

	if a.Config.Log && id%100 == 0 && id > 0 {
		log.Printf("Discovered %d specializations, %d retained\n", id, len(a.specs))
	}
	return id
}

// specsOf returns the specializations of pid in order of discovery.
func (a *Analysis) specsOf(pid ir.ProcId) []SpecId {
	var res []SpecId
	for id, s := range a.specs {
		if s.State.Pid == pid {
			res = append(res, id)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// step runs the stepper on a specialization and registers its successors.
// Successors are canonicalized, so the subsumption check compares exactly the
// states that are stepped later on.
func (a *Analysis) step(id SpecId) {
	a.steps++
	if a.Config.MaxSteps > 0 && a.steps > a.Config.MaxSteps {
		panic(fmt.Errorf("%w after %d steps", errStepBound, a.Config.MaxSteps))
	}
	a.metrics.Step()

	sp := a.specs[id]
	succs := Step(a.prog, sp.State)

	outs := make([]SpecId, 0, len(succs))
	for _, st := range succs {
		nid := a.add(st.Canonicalize())
		outs = append(outs, nid)
		a.heurQueue.Add(nid)
	}
	sp.Outs = outs
}

// heur either replaces a fresh specialization by a known one subsuming it,
// or queues it for stepping. Queuing may push the number of specializations
// of its procedure over the merge cap, in which case the two most recent ones
// are merged.
func (a *Analysis) heur(id SpecId) {
	sp, ok := a.specs[id]
	if !ok {
		return
	}
	pid := sp.State.Pid

	if other, ok := a.subsumedBy(sp.State, id); ok {
		a.metrics.Subsumed()
		a.replace(id, other)
		a.gc()
		return
	}

	a.queue.Add(id)

	same := a.specsOf(pid)
	if len(same) >= a.Config.MergeCap && len(same) >= 2 {
		a.merge(same[len(same)-2], same[len(same)-1])
	}
}

// subsumedBy finds a specialization of the same procedure subsuming st,
// other than the excluded ones.
func (a *Analysis) subsumedBy(st heap.ThreadState, exclude ...SpecId) (SpecId, bool) {
	for _, other := range a.specsOf(st.Pid) {
		if slices.OneOf(other, exclude...) {
			continue
		}
		if Subsumes(a.specs[other].State, st) {
			return other, true
		}
	}
	return 0, false
}

func (a *Analysis) merge(x, y SpecId) {
	sx, sy := a.specs[x], a.specs[y]
	merged := Merge(sx.State, sy.State, a.Config.MergeIoU, sx.Merged || sy.Merged)
	a.metrics.Merge()

	if a.Config.Checks && !(Subsumes(merged, sx.State) && Subsumes(merged, sy.State)) {
		panic(fmt.Errorf("%w: merging %v and %v into\n%v", errMergeCheck, x, y, merged))
	}

	if other, ok := a.subsumedBy(merged, x, y); ok {
		if a.Config.Log {
			log.Printf("Merge of %v and %v is subsumed by %v\n", x, y, other)
		}
		a.metrics.Subsumed()
		a.replace(x, other)
		a.replace(y, other)
		a.gc()
		return
	}

	m := a.add(merged)
	if a.Config.Log {
		log.Printf("Merged %v and %v into %v (%s)\n", x, y, m, utils.Colorize.Proc(merged.Pid))
	}

	outs := append(append([]SpecId{}, sx.Outs...), sy.Outs...)
	a.specs[m].Outs = outs
	a.specs[m].Merged = true
	a.replace(x, m)
	a.replace(y, m)
	a.queue.Add(m)
	a.gc()
}

// replace redirects every reference to bad towards good, and forgets bad.
func (a *Analysis) replace(bad, good SpecId) {
	for _, s := range a.specs {
		s.replaceOut(bad, good)
	}
	a.queue.Filter(func(id SpecId) bool { return id != bad })
	a.heurQueue.Filter(func(id SpecId) bool { return id != bad })
	if a.rootSpec == bad {
		a.rootSpec = good
	}
	delete(a.specs, bad)
}

// specGraph is the graph of successor edges between specializations.
func (a *Analysis) specGraph() graph.Graph[SpecId] {
	return graph.Of(func(id SpecId) []SpecId {
		if s, ok := a.specs[id]; ok {
			return s.Outs
		}
		return nil
	})
}

// gc forgets the specializations that are unreachable from the root.
func (a *Analysis) gc() {
	live := make(map[SpecId]bool)
	for _, id := range a.specGraph().Reachable(a.rootSpec) {
		live[id] = true
	}

	for id := range a.specs {
		if !live[id] {
			delete(a.specs, id)
		}
	}
	keep := func(id SpecId) bool { return live[id] }
	a.queue.Filter(keep)
	a.heurQueue.Filter(keep)
}
