// Package orchestrator ties the module graph, artifact layout and plugin
// protocol packages together into the single driver operation §2's data
// flow describes: discover, condense, propagate versions, then invoke the
// requested module's import-libraries phase, letting the module-builder
// view cascade into whatever dependency phases that requires.
package orchestrator

import (
	"log"
	"os"

	"golang.org/x/xerrors"

	"github.com/buildorc/orc"
	"github.com/buildorc/orc/internal/artifact"
	"github.com/buildorc/orc/internal/modgraph"
	"github.com/buildorc/orc/internal/pathmodel"
	"github.com/buildorc/orc/internal/plugin"
	"github.com/buildorc/orc/internal/toolchain"
)

// Orchestrator holds everything one invocation of the driver needs: the
// workspace root, where artifacts are written, and the toolchain used to
// realize plugin builds.
type Orchestrator struct {
	ModulesDir   pathmodel.Abs
	ArtifactsDir pathmodel.Abs
	Toolchain    *toolchain.Facade
	Log          *log.Logger
	Verbose      bool
}

// New constructs an Orchestrator. l defaults to a stderr logger if nil,
// matching every other component's constructor in this module (§4.10.1).
func New(modulesDir, artifactsDir pathmodel.Abs, tc *toolchain.Facade, l *log.Logger, verbose bool) *Orchestrator {
	if l == nil {
		l = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Orchestrator{ModulesDir: modulesDir, ArtifactsDir: artifactsDir, Toolchain: tc, Log: l, Verbose: verbose}
}

// Build runs the full pipeline for target: discovery, builder-dep cycle
// check, Tarjan condensation (cross-validated against gonum's topological
// sort), version propagation, then the target's import-libraries phase.
func (o *Orchestrator) Build(target string) error {
	g, err := modgraph.Discover(o.ModulesDir, target)
	if err != nil {
		return err
	}
	if err := modgraph.CheckBuilderDepsAcyclic(g); err != nil {
		return err
	}
	sccs, err := modgraph.Condense(g)
	if err != nil {
		return err
	}
	if err := modgraph.CheckCondensationIsDAG(sccs); err != nil {
		return xerrors.Errorf("orchestrator: condensation is not a DAG (internal invariant violated): %w", err)
	}

	orchestratorVersion, err := o.selfSourceVersion()
	if err != nil {
		return err
	}
	modgraph.PropagateVersions(g, sccs, orchestratorVersion)

	if o.Verbose {
		o.logSCCs(sccs)
	}

	layout := artifact.New(o.ArtifactsDir)
	driver := plugin.New(g, sccs, layout, o.Toolchain, o.Log)

	m, ok := g.ModuleByName(target)
	if !ok {
		return xerrors.Errorf("orchestrator: target %q not discovered", target)
	}
	o.Log.Printf("building %s@%d (%s)", target, m.Version, versionBanner(m.Version))
	return driver.RunPhase(target, plugin.ImportLibraries, artifact.Static)
}

// logSCCs prints each SCC's id, members and dependency ids, promoting the
// original implementation's commented-out diagnostic (§4.12) to a -v flag.
func (o *Orchestrator) logSCCs(sccs []*modgraph.SCC) {
	for _, scc := range sccs {
		o.Log.Printf("scc %d: members=%v deps=%v version=%d", scc.ID, scc.Members, scc.Deps, scc.Version)
	}
}

// selfSourceVersion is the source version of the orchestrator's own builder
// module, if present under modules_dir; it is folded into every propagated
// version as a floor (§4.5), so no propagated version is lower than the
// orchestrator's own source version. Absent a
// "builder" module in this workspace, the floor is zero.
func (o *Orchestrator) selfSourceVersion() (uint64, error) {
	dir, err := o.ModulesDir.Join(pathmodel.NewRelOrPanic(orc.BuilderModuleName))
	if err != nil {
		return 0, err
	}
	if !pathmodel.Exists(dir) {
		return 0, nil
	}
	return modgraph.SourceVersion(dir)
}
