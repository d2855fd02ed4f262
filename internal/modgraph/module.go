// Package modgraph implements module discovery, dependency-edge bookkeeping,
// strongly-connected-component condensation, and version propagation
// (§4.5). Modules and SCCs are stored by value in a single owning Graph and
// referenced by stable integer index, sidestepping the ownership cycles that
// a pointer-based module graph would otherwise require (§9).
package modgraph

import "github.com/buildorc/orc/internal/pathmodel"

// EdgeKind tags a dependency edge as either build-time (builder plugin
// linkage) or runtime (final artifact linkage).
type EdgeKind int

const (
	// BuilderDep: to's builder plugin is linked into from's builder plugin.
	// Builder edges must form a DAG.
	BuilderDep EdgeKind = iota
	// ModuleDep: to's libraries are linked into from's artifacts. Module
	// edges may contain cycles, condensed into SCCs.
	ModuleDep
)

// Edge is a directed dependency from one module to another.
type Edge struct {
	From, To int // module indices
	Kind     EdgeKind
}

// Module is one workspace subdirectory containing builder.cpp and
// deps.json.
type Module struct {
	Name        string
	SourceDir   pathmodel.Abs
	BuilderDeps []string // declared dependency names, in manifest order
	ModuleDeps  []string

	// SourceVersion is the maximum mtime under SourceDir, computed during
	// discovery.
	SourceVersion uint64

	// Version is the propagated version, written exactly once by
	// PropagateVersions.
	Version uint64

	// SCCID identifies the SCC this module belongs to, assigned by
	// Condense. -1 until assigned.
	SCCID int
}

// Graph is the discovered module set plus its edges, indexed by module name.
type Graph struct {
	ModulesDir pathmodel.Abs
	Target     string

	modules []Module
	byName  map[string]int
	Edges   []Edge
}

// Index returns the module index for name, or -1 if not present.
func (g *Graph) Index(name string) int {
	idx, ok := g.byName[name]
	if !ok {
		return -1
	}
	return idx
}

// Module returns a pointer to the module at idx; callers such as Condense
// and PropagateVersions write SCCID and Version through it.
func (g *Graph) Module(idx int) *Module {
	return &g.modules[idx]
}

// ModuleByName looks up a module by name.
func (g *Graph) ModuleByName(name string) (*Module, bool) {
	idx, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return &g.modules[idx], true
}

// Len returns the number of discovered modules.
func (g *Graph) Len() int { return len(g.modules) }

// Names returns every discovered module's name in discovery order.
func (g *Graph) Names() []string {
	names := make([]string, len(g.modules))
	for i, m := range g.modules {
		names[i] = m.Name
	}
	return names
}

// EdgesFrom returns every edge of the given kind whose From is idx.
func (g *Graph) EdgesFrom(idx int, kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == idx && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (g *Graph) addModule(m Module) int {
	if g.byName == nil {
		g.byName = make(map[string]int)
	}
	m.SCCID = -1
	idx := len(g.modules)
	g.modules = append(g.modules, m)
	g.byName[m.Name] = idx
	return idx
}

// addEdge appends e. Duplicate edges of the same (From, To, Kind) are
// forbidden by the data model, but that invariant is enforced upstream by
// manifest validation (each deps.json array may not itself contain
// duplicate strings), so a module can never request the same edge twice.
func (g *Graph) addEdge(e Edge) {
	g.Edges = append(g.Edges, e)
}
