package modgraph

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrBuilderDepCycle is wrapped by CheckBuilderDepsAcyclic's error when the
// builder-dep subgraph contains a cycle.
var ErrBuilderDepCycle = fmt.Errorf("builder dependency cycle")

// CheckBuilderDepsAcyclic verifies g's builder-dep edges form a DAG, as
// required by §4.5: a builder plugin cannot be linked against its own
// builder, directly or transitively. On failure the error names the
// offending modules: a self-dependency as "m -> m", otherwise every set of
// cyclically connected modules that gonum's topo.Sort reports; members are
// not sorted by name.
func CheckBuilderDepsAcyclic(g *Graph) error {
	dg := simple.NewDirectedGraph()
	for i := 0; i < g.Len(); i++ {
		dg.AddNode(simpleNode(i))
	}
	for _, e := range g.Edges {
		if e.Kind != BuilderDep {
			continue
		}
		if e.From == e.To {
			name := g.Module(e.From).Name
			return xerrors.Errorf("%w: %s -> %s", ErrBuilderDepCycle, name, name)
		}
		dg.SetEdge(dg.NewEdge(simpleNode(e.From), simpleNode(e.To)))
	}

	if _, err := topo.Sort(dg); err != nil {
		unorderable, ok := err.(topo.Unorderable)
		if !ok {
			return xerrors.Errorf("%w: %v", ErrBuilderDepCycle, err)
		}
		return xerrors.Errorf("%w: %s", ErrBuilderDepCycle, describeCycles(g, unorderable))
	}
	return nil
}

func describeCycles(g *Graph, cycles topo.Unorderable) string {
	var sb strings.Builder
	for i, cycle := range cycles {
		if i > 0 {
			sb.WriteString("; ")
		}
		names := make([]string, len(cycle))
		for j, n := range cycle {
			names[j] = g.Module(int(n.ID())).Name
		}
		sb.WriteString(strings.Join(names, " -> "))
	}
	return sb.String()
}

var _ graph.Node = simpleNode(0)
