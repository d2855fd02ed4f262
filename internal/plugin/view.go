package plugin

import (
	"github.com/buildorc/orc"
	"github.com/buildorc/orc/internal/artifact"
	"github.com/buildorc/orc/internal/modgraph"
	"github.com/buildorc/orc/internal/pathmodel"
	"github.com/buildorc/orc/internal/toolchain"
)

// View is the module-builder view (§4.7, §9): the operation surface a
// builder plugin is handed when the phase driver invokes one of its three
// entry points. One View is constructed per (module, phase) invocation.
type View struct {
	d      *Driver
	module string
}

func newView(d *Driver, module string) *View {
	return &View{d: d, module: module}
}

func (v *View) self() *modgraph.Module {
	m, ok := v.d.Graph.ModuleByName(v.module)
	if !ok {
		panic("plugin: view constructed for undiscovered module " + v.module)
	}
	return m
}

// ModulesDir is the workspace root every module directory lives under.
func (v *View) ModulesDir() pathmodel.Abs { return v.d.Graph.ModulesDir }

// ArtifactsDir is the root of the versioned artifact tree (§3).
func (v *View) ArtifactsDir() pathmodel.Abs { return v.d.Layout.ArtifactsDir }

// SourceDir is this module's own source directory.
func (v *View) SourceDir() pathmodel.Abs { return v.self().SourceDir }

// ArtifactDir is this module's current version directory.
func (v *View) ArtifactDir() pathmodel.Abs {
	return v.d.Layout.VersionDir(v.module, v.self().Version)
}

// ArtifactAliasDir is the stable alias symlink for this module.
func (v *View) ArtifactAliasDir() pathmodel.Abs {
	return v.d.Layout.AliasDir(v.module)
}

// BuilderSourcePath is this module's builder.cpp.
func (v *View) BuilderSourcePath() pathmodel.Abs {
	return v.SourceDir().MustJoin(pathmodel.NewRelOrPanic(orc.BuilderSource))
}

func (v *View) InterfaceBuildDir(lib artifact.LibraryType) pathmodel.Abs {
	return v.d.Layout.BuildDir(v.module, v.self().Version, artifact.ExportInterface, lib)
}

func (v *View) InterfaceInstallDir(lib artifact.LibraryType) pathmodel.Abs {
	return v.d.Layout.InterfaceInstallDir(v.module, v.self().Version, lib)
}

func (v *View) LibrariesBuildDir(lib artifact.LibraryType) pathmodel.Abs {
	return v.d.Layout.BuildDir(v.module, v.self().Version, artifact.ExportLibraries, lib)
}

func (v *View) LibrariesInstallDir(lib artifact.LibraryType) pathmodel.Abs {
	return v.d.Layout.InstallDir(v.module, v.self().Version, artifact.ExportLibraries, lib)
}

func (v *View) ImportBuildDir() pathmodel.Abs {
	return v.d.Layout.BuildDir(v.module, v.self().Version, artifact.ImportLibraries, artifact.Static)
}

func (v *View) ImportInstallDir() pathmodel.Abs {
	return v.d.Layout.InstallDir(v.module, v.self().Version, artifact.ImportLibraries, artifact.Static)
}

// InstallInterface copies the regular file src (a header) into this
// module's interface install directory, under the name it already has. A
// directory src is not copied: pathmodel.Copy handles regular files only. This is the write side of the contract InterfaceInstallDir's
// directory is read through by dependents.
func (v *View) InstallInterface(lib artifact.LibraryType, src pathmodel.Abs) error {
	dst := v.InterfaceInstallDir(lib).MustJoin(pathmodel.NewRelOrPanic(src.Base()))
	return pathmodel.Copy(src, dst)
}

// InstallLibrary copies a produced library file src into this module's
// libraries install directory.
func (v *View) InstallLibrary(lib artifact.LibraryType, src pathmodel.Abs) error {
	dst := v.LibrariesInstallDir(lib).MustJoin(pathmodel.NewRelOrPanic(src.Base()))
	return pathmodel.Copy(src, dst)
}

// InstallImport copies a produced final artifact (binary or linkable
// interface) src into this module's import install directory.
func (v *View) InstallImport(src pathmodel.Abs) error {
	dst := v.ImportInstallDir().MustJoin(pathmodel.NewRelOrPanic(src.Base()))
	return pathmodel.Copy(src, dst)
}

// moduleDepClosureSCCs returns the SCCs reachable from self's direct
// module-deps, in ascending (dependency-first) id order, per §4.5's
// ordering guarantee. self's own SCC is included whenever it is reached
// from one of self's module-deps, including through a self-loop; callers
// skip self.Name when iterating its members (§4.12).
func (v *View) moduleDepClosureSCCs() []*modgraph.SCC {
	self := v.self()
	seedIDs := map[int]bool{}
	for _, dep := range self.ModuleDeps {
		depM, ok := v.d.Graph.ModuleByName(dep)
		if !ok {
			continue
		}
		seedIDs[depM.SCCID] = true
	}

	visited := map[int]bool{}
	var order []int
	var visit func(id int)
	visit = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range v.d.SCCs[id].Deps {
			visit(dep)
		}
		order = append(order, id)
	}
	for id := range seedIDs {
		visit(id)
	}

	// order was built post-order (dependencies appended after recursing into
	// their own deps first... actually appended on the way back up, which is
	// already dependency-first); sort by id ascending is equivalent and
	// simpler since SCC ids are already a valid topological order (§4.5).
	sccs := make([]*modgraph.SCC, 0, len(order))
	for _, id := range order {
		sccs = append(sccs, v.d.SCCs[id])
	}
	sortSCCsByID(sccs)
	return sccs
}

func sortSCCsByID(sccs []*modgraph.SCC) {
	for i := 1; i < len(sccs); i++ {
		for j := i; j > 0 && sccs[j-1].ID > sccs[j].ID; j-- {
			sccs[j-1], sccs[j] = sccs[j], sccs[j-1]
		}
	}
}

// ExportInterfaces visits the SCCs of this module's module-dep closure in
// topological order, runs export-interface for each member (skipping this
// module itself, §4.12), and returns the include directories to feed the
// compiler.
func (v *View) ExportInterfaces(lib artifact.LibraryType) ([]pathmodel.Abs, error) {
	var includes []pathmodel.Abs
	for _, scc := range v.moduleDepClosureSCCs() {
		for _, member := range scc.Members {
			if member == v.module {
				continue
			}
			if err := v.d.RunPhase(member, ExportInterface, lib); err != nil {
				return nil, err
			}
			mv, _ := v.d.Graph.ModuleByName(member)
			includes = append(includes, v.d.Layout.InterfaceInstallDir(member, mv.Version, lib))
		}
	}
	return includes, nil
}

// ExportLibraries visits the same closure, runs export-libraries for each
// member, and returns one toolchain.LibraryGroup per SCC, preserving SCC
// boundaries so a cyclic SCC's static archives can be bracketed with
// --start-group/--end-group by the linker (§4.4, §4.12).
func (v *View) ExportLibraries(lib artifact.LibraryType) ([]toolchain.LibraryGroup, error) {
	var groups []toolchain.LibraryGroup
	for _, scc := range v.moduleDepClosureSCCs() {
		if g, ok := v.d.bundleCache(scc.ID, lib); ok {
			groups = append(groups, g)
			continue
		}
		var libs []pathmodel.Abs
		for _, member := range scc.Members {
			if member == v.module {
				continue
			}
			if err := v.d.RunPhase(member, ExportLibraries, lib); err != nil {
				return nil, err
			}
			mv, _ := v.d.Graph.ModuleByName(member)
			files, err := installedLibraryFiles(v.d.Layout.InstallDir(member, mv.Version, artifact.ExportLibraries, lib))
			if err != nil {
				return nil, err
			}
			libs = append(libs, files...)
		}
		if len(libs) == 0 {
			continue
		}
		group := toolchain.LibraryGroup{Libraries: libs, Shared: lib == artifact.Shared}
		v.d.setBundleCache(scc.ID, lib, group)
		groups = append(groups, group)
	}
	return groups, nil
}

// ImportLibraries runs import-libraries for this module itself.
func (v *View) ImportLibraries() error {
	return v.d.RunPhase(v.module, ImportLibraries, artifact.Static)
}

func installedLibraryFiles(installDir pathmodel.Abs) ([]pathmodel.Abs, error) {
	if !pathmodel.Exists(installDir) {
		return nil, nil
	}
	notDir := func(e pathmodel.Abs, _ int) bool { return !pathmodel.IsDir(e) }
	never := func(pathmodel.Abs, int) bool { return false }
	return pathmodel.Find(installDir, notDir, never)
}
