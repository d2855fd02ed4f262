package plugin

import (
	"github.com/buildorc/orc"
	"github.com/buildorc/orc/internal/artifact"
	"github.com/buildorc/orc/internal/pathmodel"
	"golang.org/x/xerrors"
)

// buildPlugin realizes §4.8: locate builder.cpp, build each builder-dep's
// plugin first (and its exported interface, so its headers are available),
// ensure the orchestrator's own core is exported, then link the module's
// own builder.so. moduleName itself is the natural recursion base case:
// the orchestrator's builtin "builder" module never waits on itself.
func (d *Driver) buildPlugin(moduleName string) (pathmodel.Abs, error) {
	m, ok := d.Graph.ModuleByName(moduleName)
	if !ok {
		return pathmodel.Abs{}, xerrors.Errorf("%w: module %q not discovered", ErrBuildFailed, moduleName)
	}
	so := d.Layout.BuilderSharedLibrary(moduleName, m.Version)
	if pathmodel.Exists(so) {
		return so, nil
	}

	var includes, extraDSOs []pathmodel.Abs
	for _, dep := range m.BuilderDeps {
		depSO, err := d.buildPlugin(dep)
		if err != nil {
			return pathmodel.Abs{}, err
		}
		if err := d.RunPhase(dep, ExportInterface, artifact.Static); err != nil {
			return pathmodel.Abs{}, err
		}
		depM, _ := d.Graph.ModuleByName(dep)
		includes = append(includes, d.Layout.InterfaceInstallDir(dep, depM.Version, artifact.Static))
		extraDSOs = append(extraDSOs, depSO)
	}

	// "builder" is only ever present in d.Graph when some module's deps.json
	// closure actually names it as a dependency (discovery never adds it on
	// its own, internal/modgraph/discover.go); most workspaces never declare
	// it, so linking against the orchestrator's own core is skipped rather
	// than forced, the same way orchestrator.selfSourceVersion treats an
	// absent "builder" module as a no-op rather than an error.
	if _, ok := d.Graph.ModuleByName(orc.BuilderModuleName); moduleName != orc.BuilderModuleName && ok {
		if err := d.RunPhase(orc.BuilderModuleName, ExportInterface, artifact.Static); err != nil {
			return pathmodel.Abs{}, err
		}
		if err := d.RunPhase(orc.BuilderModuleName, ExportLibraries, artifact.Static); err != nil {
			return pathmodel.Abs{}, err
		}
		coreSO, err := d.buildPlugin(orc.BuilderModuleName)
		if err != nil {
			return pathmodel.Abs{}, err
		}
		coreM, _ := d.Graph.ModuleByName(orc.BuilderModuleName)
		includes = append(includes, d.Layout.InterfaceInstallDir(orc.BuilderModuleName, coreM.Version, artifact.Static))
		extraDSOs = append(extraDSOs, coreSO)
	}

	cache := d.Layout.BuildDir(moduleName, m.Version, artifact.Builder, artifact.Static)
	sources := []pathmodel.Abs{m.SourceDir.MustJoin(pathmodel.NewRelOrPanic(orc.BuilderSource))}
	if err := d.Toolchain.CreateSharedLibrary(cache, m.SourceDir, includes, sources, nil, extraDSOs, so); err != nil {
		return pathmodel.Abs{}, xerrors.Errorf("%w: %s: %v", ErrBuildFailed, moduleName, err)
	}
	if !pathmodel.Exists(so) {
		return pathmodel.Abs{}, xerrors.Errorf("%w: %s: %s was not produced", ErrBuildFailed, moduleName, so)
	}
	return so, nil
}
