package absint

import (
	"fmt"

	"github.com/cs-au-dk/tabsafe/analysis/ir"
	"github.com/cs-au-dk/tabsafe/utils/dot"
	"github.com/cs-au-dk/tabsafe/utils/graph"
)

// ToDotGraph renders the retained specializations, clustered by procedure.
// Specializations of procedures containing Fail are highlighted.
func (a *Analysis) ToDotGraph() *dot.DotGraph {
	ids := a.specGraph().Reachable(a.rootSpec)

	failing := make(map[SpecId]bool)
	for _, id := range a.Failing() {
		failing[id] = true
	}

	dg := a.specGraph().ToDotGraph(ids, &graph.VisualizationConfig[SpecId]{
		NodeAttrs: func(id SpecId) (string, dot.DotAttrs) {
			s := a.specs[id]
			attrs := dot.DotAttrs{
				"label": fmt.Sprintf("#%d\n%d facts", int(id), len(s.State.Entries)),
			}
			if failing[id] {
				attrs["fillcolor"] = "#ff9999"
			}
			if id == a.rootSpec {
				attrs["penwidth"] = "2.5"
			}
			return fmt.Sprintf("spec%d", int(id)), attrs
		},
		ClusterKey: func(id SpecId) any {
			return a.specs[id].State.Pid
		},
		ClusterAttrs: func(key any) (string, dot.DotAttrs) {
			pid := key.(ir.ProcId)
			attrs := dot.DotAttrs{
				"label":   pid.String(),
				"bgcolor": "#fffbe6",
			}
			if pid == a.prog.Main {
				attrs["bgcolor"] = "#e6f0ff"
			}
			return pid.String(), attrs
		},
	})

	outcome := "safe"
	if !a.Safe() {
		outcome = "unsafe"
	}
	dg.Title = fmt.Sprintf("%d specializations, %s", len(ids), outcome)
	return dg
}

// Visualize renders the specialization graph and returns the image path.
func (a *Analysis) Visualize(outfname, format string) (string, error) {
	return a.ToDotGraph().Render(outfname, format)
}
