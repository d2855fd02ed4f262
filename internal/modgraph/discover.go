package modgraph

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/buildorc/orc"
	"github.com/buildorc/orc/internal/pathmodel"
)

// moduleProbe is the read-only result of stat-ing and parsing one module's
// deps.json and builder.cpp, before anything is written into a Graph.
type moduleProbe struct {
	sourceDir  pathmodel.Abs
	man        manifest
	srcVersion uint64
}

// Discover builds the module graph reachable from target: target's
// deps.json is read, and the discovery recurses into every declared
// dependency (both builder_deps and module_deps), validating each along the
// way per §4.5's discovery invariants.
//
// The filesystem probe (existence checks, deps.json parsing, mtime walk) is
// read-only and has no ordering requirement between modules, so it runs
// breadth-first with one errgroup per frontier (§4.11); only the resulting
// Graph is built up sequentially afterwards, preserving the deterministic
// module-index and edge-insertion order a single-threaded DFS would produce.
func Discover(modulesDir pathmodel.Abs, target string) (*Graph, error) {
	probes, err := probeClosure(modulesDir, target)
	if err != nil {
		return nil, err
	}
	g := &Graph{ModulesDir: modulesDir, Target: target}
	discover1(g, target, probes)
	return g, nil
}

func probeClosure(modulesDir pathmodel.Abs, target string) (map[string]moduleProbe, error) {
	var mu sync.Mutex
	probes := make(map[string]moduleProbe)
	frontier := []string{target}

	for len(frontier) > 0 {
		var grp errgroup.Group
		next := make([][]string, len(frontier))
		for i, name := range frontier {
			i, name := i, name
			grp.Go(func() error {
				p, err := probeOne(modulesDir, name)
				if err != nil {
					return err
				}
				mu.Lock()
				probes[name] = p
				mu.Unlock()
				next[i] = append(append([]string{}, p.man.BuilderDeps...), p.man.ModuleDeps...)
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return nil, err
		}

		var newFrontier []string
		for _, deps := range next {
			for _, dep := range deps {
				if _, ok := probes[dep]; ok {
					continue
				}
				newFrontier = append(newFrontier, dep)
			}
		}
		frontier = dedupStrings(newFrontier)
	}
	return probes, nil
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func probeOne(modulesDir pathmodel.Abs, name string) (moduleProbe, error) {
	sourceDir, err := modulesDir.Join(pathmodel.NewRelOrPanic(name))
	if err != nil {
		return moduleProbe{}, fmt.Errorf("%w: module %q: %v", ErrDiscoveryInconsistency, name, err)
	}
	if !pathmodel.Exists(sourceDir) {
		return moduleProbe{}, fmt.Errorf("%w: module %q: directory %s does not exist", ErrDiscoveryInconsistency, name, sourceDir)
	}
	builderSrc := sourceDir.MustJoin(pathmodel.NewRelOrPanic(orc.BuilderSource))
	if !pathmodel.Exists(builderSrc) {
		return moduleProbe{}, fmt.Errorf("%w: module %q: missing %s", ErrDiscoveryInconsistency, name, orc.BuilderSource)
	}
	man, err := readManifest(sourceDir)
	if err != nil {
		return moduleProbe{}, err
	}
	srcVersion, err := sourceVersion(sourceDir)
	if err != nil {
		return moduleProbe{}, fmt.Errorf("%w: module %q: %v", ErrDiscoveryInconsistency, name, err)
	}
	return moduleProbe{sourceDir: sourceDir, man: man, srcVersion: srcVersion}, nil
}

// discover1 walks the already-probed closure in the same order a recursive
// DFS would, so module indices and edge order stay deterministic regardless
// of how probeClosure's concurrent frontier scan completed.
func discover1(g *Graph, name string, probes map[string]moduleProbe) {
	if _, ok := g.ModuleByName(name); ok {
		return
	}
	p := probes[name]
	idx := g.addModule(Module{
		Name:          name,
		SourceDir:     p.sourceDir,
		BuilderDeps:   p.man.BuilderDeps,
		ModuleDeps:    p.man.ModuleDeps,
		SourceVersion: p.srcVersion,
	})
	for _, dep := range p.man.BuilderDeps {
		discover1(g, dep, probes)
		g.addEdge(Edge{From: idx, To: g.Index(dep), Kind: BuilderDep})
	}
	for _, dep := range p.man.ModuleDeps {
		discover1(g, dep, probes)
		g.addEdge(Edge{From: idx, To: g.Index(dep), Kind: ModuleDep})
	}
}
