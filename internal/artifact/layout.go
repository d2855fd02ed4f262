// Package artifact implements the content-addressed artifact tree of §3:
// the pure (module, version, phase) → path mapping, the atomic alias-symlink
// swing, and stale-version purge.
package artifact

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/buildorc/orc/internal/pathmodel"
)

// Phase names one of the three plugin protocol phases, plus the builder
// plugin's own build (which shares the same build/install/.in_progress
// framing but is not one of the three module_builder__* entry points).
type Phase int

const (
	Builder Phase = iota
	ExportInterface
	ExportLibraries
	ImportLibraries
)

func (p Phase) String() string {
	switch p {
	case Builder:
		return "builder"
	case ExportInterface:
		return "interface"
	case ExportLibraries:
		return "libraries"
	case ImportLibraries:
		return "import"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// LibraryType is the one-byte ABI tag shared with the plugin protocol: 0 =
// static, 1 = shared.
type LibraryType int

const (
	Static LibraryType = iota
	Shared
)

func (l LibraryType) String() string {
	switch l {
	case Static:
		return "static"
	case Shared:
		return "shared"
	default:
		return fmt.Sprintf("LibraryType(%d)", int(l))
	}
}

// Layout is the pure mapping from artifacts_dir plus a module name to every
// path under that module's versioned subtree (§3, §4.6). It carries no
// state beyond artifacts_dir; all other inputs are passed per call.
type Layout struct {
	ArtifactsDir pathmodel.Abs
}

// New constructs a Layout rooted at artifactsDir.
func New(artifactsDir pathmodel.Abs) Layout {
	return Layout{ArtifactsDir: artifactsDir}
}

// ModuleDir is artifacts_dir/<module_name>, the parent of every version
// directory and of the alias symlink.
func (l Layout) ModuleDir(module string) pathmodel.Abs {
	return l.ArtifactsDir.MustJoin(pathmodel.NewRelOrPanic(module))
}

// VersionDir is artifacts_dir/<module_name>/<module_name>@<version>.
func (l Layout) VersionDir(module string, version uint64) pathmodel.Abs {
	return l.ModuleDir(module).MustJoin(pathmodel.NewRelOrPanic(VersionedName(module, version)))
}

// AliasDir is artifacts_dir/<module_name>/alias, the symlink consumers use
// as a stable path regardless of version.
func (l Layout) AliasDir(module string) pathmodel.Abs {
	return l.ModuleDir(module).MustJoin(pathmodel.NewRelOrPanic("alias"))
}

// VersionedName formats the <name>@<v> directory name.
func VersionedName(module string, version uint64) string {
	return module + "@" + strconv.FormatUint(version, 10)
}

// ParseVersionedName is the inverse of VersionedName. ok is false when name
// does not contain "@", meaning the entry is not a version directory and
// must be ignored by the purge logic (§4.6).
func ParseVersionedName(name string) (module string, version uint64, ok bool) {
	i := strings.LastIndex(name, "@")
	if i < 0 {
		return "", 0, false
	}
	v, err := strconv.ParseUint(name[i+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return name[:i], v, true
}

// PhaseDir is the phase's own subtree root: VersionDir/<phase>, or, for
// interface and libraries, VersionDir/<phase>/<library_type>.
func (l Layout) PhaseDir(module string, version uint64, phase Phase, lib LibraryType) pathmodel.Abs {
	dir := l.VersionDir(module, version).MustJoin(pathmodel.NewRelOrPanic(phase.String()))
	if phase == ExportInterface || phase == ExportLibraries {
		dir = dir.MustJoin(pathmodel.NewRelOrPanic(lib.String()))
	}
	return dir
}

// BuildDir is a phase's build/ subdirectory, which holds the .in_progress
// marker and any scratch build output.
func (l Layout) BuildDir(module string, version uint64, phase Phase, lib LibraryType) pathmodel.Abs {
	return l.PhaseDir(module, version, phase, lib).MustJoin(pathmodel.NewRelOrPanic("build"))
}

// InstallDir is a phase's install/ subdirectory; its presence is the
// authoritative completion marker (§3 invariant 3).
func (l Layout) InstallDir(module string, version uint64, phase Phase, lib LibraryType) pathmodel.Abs {
	return l.PhaseDir(module, version, phase, lib).MustJoin(pathmodel.NewRelOrPanic("install"))
}

// InProgressMarker is the sentinel file inside BuildDir that flags an
// in-flight (or crashed, never-cleaned-up) invocation of this phase (§3
// invariant 4).
func (l Layout) InProgressMarker(module string, version uint64, phase Phase, lib LibraryType) pathmodel.Abs {
	return l.BuildDir(module, version, phase, lib).MustJoin(pathmodel.NewRelOrPanic(".in_progress"))
}

// BuilderSharedLibrary is builder/install/builder.so, the compiled plugin.
func (l Layout) BuilderSharedLibrary(module string, version uint64) pathmodel.Abs {
	return l.InstallDir(module, version, Builder, Static).MustJoin(pathmodel.NewRelOrPanic("builder.so"))
}

// InterfaceInstallDir is interface/<library_type>/install/<module_name>,
// the per-dependent include directory a module exports.
func (l Layout) InterfaceInstallDir(module string, version uint64, lib LibraryType) pathmodel.Abs {
	return l.InstallDir(module, version, ExportInterface, lib).MustJoin(pathmodel.NewRelOrPanic(module))
}

// IsCompleted reports whether a phase has already completed for this
// version, per §3 invariant 3: install/ presence is authoritative.
func (l Layout) IsCompleted(module string, version uint64, phase Phase, lib LibraryType) bool {
	return pathmodel.Exists(l.InstallDir(module, version, phase, lib))
}

// IsInProgress reports whether a phase is (or was, if the process crashed)
// mid-flight for this version.
func (l Layout) IsInProgress(module string, version uint64, phase Phase, lib LibraryType) bool {
	return pathmodel.Exists(l.InProgressMarker(module, version, phase, lib))
}
