// Package toolchain is the façade of §4.4 over the C++ compiler, archiver
// and linker. Every operation shells out to a subprocess via procrun,
// logging its full command line first, matching the teacher's
// (github.com/distr1/distri) internal/build package. Paths to the compiler,
// archiver and linker binaries are the sole place system-specific paths
// leak into the orchestrator (§6).
package toolchain

import (
	"fmt"

	"github.com/buildorc/orc/internal/pathmodel"
	"github.com/buildorc/orc/internal/procrun"
	"golang.org/x/xerrors"
)

// Config names the absolute paths of the compiler, archiver and linker
// driver binaries.
type Config struct {
	CXX      string // compiler, also used as the linker driver
	Archiver string
}

// DefaultConfig is the small configuration table §6 calls for.
var DefaultConfig = Config{CXX: "/usr/bin/c++", Archiver: "/usr/bin/ar"}

// Define is a preprocessor macro definition passed with -D.
type Define struct {
	Name  string
	Value string
}

// Facade compiles, archives and links on behalf of the plugin-build
// pipeline (§4.8) and builder plugins performing their own link step
// (§4.7's import-libraries phase).
type Facade struct {
	Config Config
	Runner *procrun.Runner
}

// New returns a Facade using cfg and logging through runner.
func New(cfg Config, runner *procrun.Runner) *Facade {
	return &Facade{Config: cfg, Runner: runner}
}

// CompileObjects compiles each source under srcRoot into a .o placed under
// cache, mirroring the source tree, returning the list of produced object
// files in the order sources was given.
func (f *Facade) CompileObjects(cache, srcRoot pathmodel.Abs, includes []pathmodel.Abs, sources []pathmodel.Abs, defines []Define, positionIndependent bool) ([]pathmodel.Abs, error) {
	objects := make([]pathmodel.Abs, 0, len(sources))
	for _, src := range sources {
		rel, err := src.RelativeTo(srcRoot)
		if err != nil {
			return nil, xerrors.Errorf("toolchain: %v not under source root %v: %w", src, srcRoot, err)
		}
		objRel, err := rel.WithPostfix(".o")
		if err != nil {
			return nil, err
		}
		obj, err := cache.Join(objRel)
		if err != nil {
			return nil, err
		}
		if err := pathmodel.CreateDirectories(mustParent(obj)); err != nil {
			return nil, err
		}

		argv := []procrun.Arg{procrun.Lit(f.Config.CXX), procrun.Lit("-std=c++23"), procrun.Lit("-g")}
		if positionIndependent {
			argv = append(argv, procrun.Lit("-fPIC"))
		}
		for _, d := range defines {
			argv = append(argv, procrun.Lit(fmt.Sprintf("-D%s=%s", d.Name, d.Value)))
		}
		for _, inc := range includes {
			argv = append(argv, procrun.Lit("-I"+inc.String()))
		}
		argv = append(argv, procrun.Lit("-c"), procrun.Path(src), procrun.Lit("-o"), procrun.Path(obj))

		status, err := f.Runner.SpawnAndWait(argv)
		if err != nil {
			return nil, err
		}
		if status != 0 {
			return nil, xerrors.Errorf("toolchain: compiling %v: exit status %d", src, status)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// CreateStaticLibrary compiles non-PIC objects and archives them into
// output.
func (f *Facade) CreateStaticLibrary(cache, srcRoot pathmodel.Abs, includes []pathmodel.Abs, sources []pathmodel.Abs, defines []Define, output pathmodel.Abs) error {
	objects, err := f.CompileObjects(cache, srcRoot, includes, sources, defines, false)
	if err != nil {
		return err
	}
	if err := pathmodel.CreateDirectories(mustParent(output)); err != nil {
		return err
	}
	argv := []procrun.Arg{procrun.Lit(f.Config.Archiver), procrun.Lit("rcs"), procrun.Path(output)}
	for _, o := range objects {
		argv = append(argv, procrun.Path(o))
	}
	status, err := f.Runner.SpawnAndWait(argv)
	if err != nil {
		return err
	}
	if status != 0 {
		return xerrors.Errorf("toolchain: creating archive %v: exit status %d", output, status)
	}
	return nil
}

// CreateSharedLibrary compiles PIC objects and links them, along with
// extraDSOs, into the shared object at output.
func (f *Facade) CreateSharedLibrary(cache, srcRoot pathmodel.Abs, includes []pathmodel.Abs, sources []pathmodel.Abs, defines []Define, extraDSOs []pathmodel.Abs, output pathmodel.Abs) error {
	objects, err := f.CompileObjects(cache, srcRoot, includes, sources, defines, true)
	if err != nil {
		return err
	}
	if err := pathmodel.CreateDirectories(mustParent(output)); err != nil {
		return err
	}
	argv := []procrun.Arg{procrun.Lit(f.Config.CXX), procrun.Lit("-fPIC"), procrun.Lit("-shared"), procrun.Lit("-o"), procrun.Path(output)}
	for _, o := range objects {
		argv = append(argv, procrun.Path(o))
	}
	for _, dso := range extraDSOs {
		argv = append(argv, procrun.Path(dso))
	}
	status, err := f.Runner.SpawnAndWait(argv)
	if err != nil {
		return err
	}
	if status != 0 {
		return xerrors.Errorf("toolchain: creating shared library %v: exit status %d", output, status)
	}
	return nil
}

// LibraryGroup is a set of libraries that must be presented to the linker as
// a single --start-group/--end-group block to resolve circular references
// within one SCC (§4.4, §9's library-group glossary entry). Shared tags the
// group as consisting entirely of shared objects, in which case no
// start/end markers are necessary.
type LibraryGroup struct {
	Libraries []pathmodel.Abs
	Shared    bool
}

// CreateBinary compiles sources, then links the resulting objects against
// libraryGroups (consumed in reverse order, per standard Unix link
// semantics) into output. A group with more than one library is wrapped in
// --start-group/--end-group markers unless its Shared flag is set.
func (f *Facade) CreateBinary(cache, srcRoot pathmodel.Abs, includes []pathmodel.Abs, sources []pathmodel.Abs, defines []Define, libraryGroups []LibraryGroup, output pathmodel.Abs) error {
	objects, err := f.CompileObjects(cache, srcRoot, includes, sources, defines, false)
	if err != nil {
		return err
	}
	if err := pathmodel.CreateDirectories(mustParent(output)); err != nil {
		return err
	}

	argv := []procrun.Arg{procrun.Lit(f.Config.CXX), procrun.Lit("-std=c++23"), procrun.Lit("-o"), procrun.Path(output)}
	for _, o := range objects {
		argv = append(argv, procrun.Path(o))
	}

	var rpaths []string
	seenRpath := map[string]bool{}
	for i := len(libraryGroups) - 1; i >= 0; i-- {
		g := libraryGroups[i]
		needsMarkers := len(g.Libraries) > 1 && !g.Shared
		if needsMarkers {
			argv = append(argv, procrun.Lit("-Wl,--start-group"))
		}
		for _, lib := range g.Libraries {
			argv = append(argv, procrun.Path(lib))
			dir, err := lib.Parent()
			if err != nil {
				return err
			}
			if ds := dir.String(); !seenRpath[ds] {
				seenRpath[ds] = true
				rpaths = append(rpaths, ds)
			}
		}
		if needsMarkers {
			argv = append(argv, procrun.Lit("-Wl,--end-group"))
		}
	}
	// rpaths is already in first-seen order (link order), not map order, so
	// the produced binary's RUNPATH encoding is stable across runs (§8).
	for _, dir := range rpaths {
		argv = append(argv, procrun.Lit("-Wl,-rpath,"+dir))
	}

	status, err := f.Runner.SpawnAndWait(argv)
	if err != nil {
		return err
	}
	if status != 0 {
		return xerrors.Errorf("toolchain: creating binary %v: exit status %d", output, status)
	}
	return nil
}

func mustParent(a pathmodel.Abs) pathmodel.Abs {
	p, err := a.Parent()
	if err != nil {
		panic(err)
	}
	return p
}
