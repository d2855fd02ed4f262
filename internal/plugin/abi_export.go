package plugin

/*
#include <stdint.h>
*/
import "C"

import (
	"strings"

	"github.com/buildorc/orc/internal/artifact"
	"github.com/buildorc/orc/internal/pathmodel"
)

// These are the module_builder_view__* callbacks a builder plugin's
// companion header declares extern "C" and calls through the opaque handle
// module_builder__export_interface/export_libraries/import_libraries were
// invoked with. Every returned *C.char is intentionally leaked: plugin
// handles themselves are leaked for the process lifetime (§4.3, §9), and a
// view handle never outlives the phase call that owns it, so its strings
// are cheaper left for the process to reclaim than pooled.

func cstr(s string) *C.char { return C.CString(s) }

func withView(h C.int64_t, fn func(v *View) string) *C.char {
	entry := lookupView(int64(h))
	if entry == nil {
		return nil
	}
	return cstr(fn(entry.view))
}

//export module_builder_view__modules_dir
func module_builder_view__modules_dir(h C.int64_t) *C.char {
	return withView(h, func(v *View) string { return v.ModulesDir().String() })
}

//export module_builder_view__artifacts_dir
func module_builder_view__artifacts_dir(h C.int64_t) *C.char {
	return withView(h, func(v *View) string { return v.ArtifactsDir().String() })
}

//export module_builder_view__source_dir
func module_builder_view__source_dir(h C.int64_t) *C.char {
	return withView(h, func(v *View) string { return v.SourceDir().String() })
}

//export module_builder_view__artifact_dir
func module_builder_view__artifact_dir(h C.int64_t) *C.char {
	return withView(h, func(v *View) string { return v.ArtifactDir().String() })
}

//export module_builder_view__artifact_alias_dir
func module_builder_view__artifact_alias_dir(h C.int64_t) *C.char {
	return withView(h, func(v *View) string { return v.ArtifactAliasDir().String() })
}

//export module_builder_view__builder_source_path
func module_builder_view__builder_source_path(h C.int64_t) *C.char {
	return withView(h, func(v *View) string { return v.BuilderSourcePath().String() })
}

//export module_builder_view__interface_build_dir
func module_builder_view__interface_build_dir(h C.int64_t, lib C.int32_t) *C.char {
	return withView(h, func(v *View) string { return v.InterfaceBuildDir(artifact.LibraryType(lib)).String() })
}

//export module_builder_view__interface_install_dir
func module_builder_view__interface_install_dir(h C.int64_t, lib C.int32_t) *C.char {
	return withView(h, func(v *View) string { return v.InterfaceInstallDir(artifact.LibraryType(lib)).String() })
}

//export module_builder_view__libraries_build_dir
func module_builder_view__libraries_build_dir(h C.int64_t, lib C.int32_t) *C.char {
	return withView(h, func(v *View) string { return v.LibrariesBuildDir(artifact.LibraryType(lib)).String() })
}

//export module_builder_view__libraries_install_dir
func module_builder_view__libraries_install_dir(h C.int64_t, lib C.int32_t) *C.char {
	return withView(h, func(v *View) string { return v.LibrariesInstallDir(artifact.LibraryType(lib)).String() })
}

//export module_builder_view__import_build_dir
func module_builder_view__import_build_dir(h C.int64_t) *C.char {
	return withView(h, func(v *View) string { return v.ImportBuildDir().String() })
}

//export module_builder_view__import_install_dir
func module_builder_view__import_install_dir(h C.int64_t) *C.char {
	return withView(h, func(v *View) string { return v.ImportInstallDir().String() })
}

//export module_builder_view__install_interface
func module_builder_view__install_interface(h C.int64_t, lib C.int32_t, src *C.char) C.int32_t {
	entry := lookupView(int64(h))
	if entry == nil {
		return -1
	}
	p, err := pathFromC(src)
	if err != nil {
		recordViewError(int64(h), err)
		return -1
	}
	if err := entry.view.InstallInterface(artifact.LibraryType(lib), p); err != nil {
		recordViewError(int64(h), err)
		return -1
	}
	return 0
}

//export module_builder_view__install_library
func module_builder_view__install_library(h C.int64_t, lib C.int32_t, src *C.char) C.int32_t {
	entry := lookupView(int64(h))
	if entry == nil {
		return -1
	}
	p, err := pathFromC(src)
	if err != nil {
		recordViewError(int64(h), err)
		return -1
	}
	if err := entry.view.InstallLibrary(artifact.LibraryType(lib), p); err != nil {
		recordViewError(int64(h), err)
		return -1
	}
	return 0
}

//export module_builder_view__install_import
func module_builder_view__install_import(h C.int64_t, src *C.char) C.int32_t {
	entry := lookupView(int64(h))
	if entry == nil {
		return -1
	}
	p, err := pathFromC(src)
	if err != nil {
		recordViewError(int64(h), err)
		return -1
	}
	if err := entry.view.InstallImport(p); err != nil {
		recordViewError(int64(h), err)
		return -1
	}
	return 0
}

// groupSeparator delimits library groups within export_libraries' encoded
// result; items within a group are newline-separated. Absolute paths never
// contain either.
const groupSeparator = "\x00GROUP\x00"

//export module_builder_view__export_interfaces
func module_builder_view__export_interfaces(h C.int64_t, lib C.int32_t) *C.char {
	entry := lookupView(int64(h))
	if entry == nil {
		return nil
	}
	dirs, err := entry.view.ExportInterfaces(artifact.LibraryType(lib))
	if err != nil {
		recordViewError(int64(h), err)
		return nil
	}
	lines := make([]string, len(dirs))
	for i, d := range dirs {
		lines[i] = d.String()
	}
	return cstr(strings.Join(lines, "\n"))
}

//export module_builder_view__export_libraries
func module_builder_view__export_libraries(h C.int64_t, lib C.int32_t) *C.char {
	entry := lookupView(int64(h))
	if entry == nil {
		return nil
	}
	groups, err := entry.view.ExportLibraries(artifact.LibraryType(lib))
	if err != nil {
		recordViewError(int64(h), err)
		return nil
	}
	groupStrs := make([]string, len(groups))
	for i, g := range groups {
		libs := make([]string, len(g.Libraries))
		for j, p := range g.Libraries {
			libs[j] = p.String()
		}
		groupStrs[i] = strings.Join(libs, "\n")
	}
	return cstr(strings.Join(groupStrs, groupSeparator))
}

//export module_builder_view__import_libraries
func module_builder_view__import_libraries(h C.int64_t) C.int32_t {
	entry := lookupView(int64(h))
	if entry == nil {
		return -1
	}
	if err := entry.view.ImportLibraries(); err != nil {
		recordViewError(int64(h), err)
		return -1
	}
	return 0
}

func pathFromC(s *C.char) (pathmodel.Abs, error) {
	return pathmodel.NewAbs(C.GoString(s))
}
