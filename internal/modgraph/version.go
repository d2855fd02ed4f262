package modgraph

import (
	"os"

	"github.com/buildorc/orc/internal/pathmodel"
)

// SourceVersion exposes the same source-version computation Discover uses
// internally for each module, for the orchestrator driver's own self-version
// check (§4.9): the orchestrator's own source tree is versioned the same
// way any other module's is.
func SourceVersion(dir pathmodel.Abs) (uint64, error) {
	return sourceVersion(dir)
}

// sourceVersion returns the maximum filesystem-modification timestamp, as
// non-negative Unix nanoseconds, of any file recursively under dir. This is
// the module's source version, the leaf input to version propagation (§3).
func sourceVersion(dir pathmodel.Abs) (uint64, error) {
	var max uint64
	include := func(e pathmodel.Abs, depth int) bool { return true }
	descend := func(e pathmodel.Abs, depth int) bool { return true }
	entries, err := pathmodel.Find(dir, include, descend)
	if err != nil {
		return 0, err
	}
	// Find does not include dir itself; its own mtime still counts.
	if err := accumulateMtime(dir, &max); err != nil {
		return 0, err
	}
	for _, e := range entries {
		if err := accumulateMtime(e, &max); err != nil {
			return 0, err
		}
	}
	return max, nil
}

func accumulateMtime(p pathmodel.Abs, max *uint64) error {
	fi, err := os.Stat(p.String())
	if err != nil {
		return err
	}
	ns := fi.ModTime().UnixNano()
	if ns < 0 {
		ns = 0
	}
	if uint64(ns) > *max {
		*max = uint64(ns)
	}
	return nil
}

// PropagateVersions computes the propagated version for each SCC in
// ascending id order (a valid topological order per §4.5 and §5), then
// writes it back to every member module. orchestratorVersion is folded into
// every SCC's version floor, matching §4.5's formula exactly: a propagated
// version is never lower than the running orchestrator's own version.
func PropagateVersions(g *Graph, sccs []*SCC, orchestratorVersion uint64) {
	for _, scc := range sccByAscendingID(sccs) {
		v := orchestratorVersion
		for _, depID := range scc.Deps {
			if depV := sccs[depID].Version; depV > v {
				v = depV
			}
		}
		for _, name := range scc.Members {
			m, _ := g.ModuleByName(name)
			if m.SourceVersion > v {
				v = m.SourceVersion
			}
		}
		scc.Version = v
		for _, name := range scc.Members {
			m, _ := g.ModuleByName(name)
			m.Version = v
		}
	}
}

func sccByAscendingID(sccs []*SCC) []*SCC {
	ordered := make([]*SCC, len(sccs))
	for _, s := range sccs {
		ordered[s.ID] = s
	}
	return ordered
}
