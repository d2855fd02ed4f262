package orchestrator

import (
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/buildorc/orc"
	"github.com/buildorc/orc/internal/artifact"
	"github.com/buildorc/orc/internal/pathmodel"
	"github.com/buildorc/orc/internal/procrun"
	"github.com/buildorc/orc/internal/toolchain"
)

// Version is the orchestrator's own compile-time source version (§4.9): the
// zero value means "never built from a versioned workspace", forcing a
// rebuild the first time a "builder" module is present under modules_dir. A
// self-rebuild passes the new value to the next driver binary as a
// VERSION=<v> preprocessor define when compiling driver.cpp (buildSelf).
var Version uint64

// driverSource is driver.cpp, excluded from the shared-library sources
// collected for a self-rebuild (it is compiled separately into the final
// binary, §4.9 step 2).
const driverSource = "driver.cpp"

// SelfRebuildAndReexec implements §4.9: if the orchestrator's own "builder"
// module is newer than the running binary's baked-in Version, build (if not
// already cached) a new driver binary and re-exec it with argv unchanged.
// It returns nil without doing anything when no rebuild is needed, and never
// returns on a successful re-exec.
func (o *Orchestrator) SelfRebuildAndReexec(argv []string) error {
	sourceVersion, err := o.selfSourceVersion()
	if err != nil {
		return err
	}
	if sourceVersion <= Version {
		return nil
	}

	builderDir, err := o.ModulesDir.Join(pathmodel.NewRelOrPanic(orc.BuilderModuleName))
	if err != nil {
		return err
	}
	layout := artifact.New(o.ArtifactsDir)
	versionDir := layout.VersionDir(orc.BuilderModuleName, sourceVersion)
	binary := versionDir.MustJoin(pathmodel.NewRelOrPanic("driver"))

	if !pathmodel.Exists(binary) {
		if err := o.buildSelf(builderDir, versionDir, sourceVersion, binary); err != nil {
			return err
		}
	}

	o.Log.Printf("self-rebuild: %s (%s) -> re-exec %s", strconv.FormatUint(sourceVersion, 10), versionBanner(sourceVersion), binary)
	newArgv := make([]procrun.Arg, len(argv))
	newArgv[0] = procrun.Path(binary)
	for i, a := range argv[1:] {
		newArgv[i+1] = procrun.Lit(a)
	}
	return procrun.Exec(newArgv)
}

// buildSelf runs the shared-library-then-binary build of §4.9 step 2 inside
// a single errgroup task, mirroring the teacher's habit (internal/batch) of
// waiting on a subprocess tree through errgroup.Group rather than a bare
// error return; here the tree is the compile+link sequence for the
// orchestrator's own next version.
func (o *Orchestrator) buildSelf(builderDir, versionDir pathmodel.Abs, newVersion uint64, binary pathmodel.Abs) error {
	var grp errgroup.Group
	grp.Go(func() error {
		sources, err := nonDriverSources(builderDir)
		if err != nil {
			return err
		}
		cache := versionDir.MustJoin(pathmodel.NewRelOrPanic("build"))
		libOut := versionDir.MustJoin(pathmodel.NewRelOrPanic("libbuilder.so"))
		if err := o.Toolchain.CreateSharedLibrary(cache, builderDir, nil, sources, nil, nil, libOut); err != nil {
			return xerrors.Errorf("%w: self-rebuild shared library: %v", ErrToolchainFailure, err)
		}

		driverSrc := builderDir.MustJoin(pathmodel.NewRelOrPanic(driverSource))
		defines := []toolchain.Define{{Name: "VERSION", Value: strconv.FormatUint(newVersion, 10)}}
		groups := []toolchain.LibraryGroup{{Libraries: []pathmodel.Abs{libOut}, Shared: true}}
		if err := o.Toolchain.CreateBinary(cache, builderDir, nil, []pathmodel.Abs{driverSrc}, defines, groups, binary); err != nil {
			return xerrors.Errorf("%w: self-rebuild binary: %v", ErrToolchainFailure, err)
		}
		return nil
	})
	if err := grp.Wait(); err != nil {
		return err
	}
	if !pathmodel.Exists(binary) {
		return xerrors.Errorf("%w: self-rebuild produced no %s", ErrToolchainFailure, binary)
	}
	return nil
}

func nonDriverSources(builderDir pathmodel.Abs) ([]pathmodel.Abs, error) {
	isCPPNotDriver := func(e pathmodel.Abs, _ int) bool {
		return e.Base() != driverSource && len(e.Base()) > 4 && e.Base()[len(e.Base())-4:] == ".cpp"
	}
	descendAll := func(pathmodel.Abs, int) bool { return true }
	return pathmodel.Find(builderDir, isCPPNotDriver, descendAll)
}
