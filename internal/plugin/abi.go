// Package plugin implements the three-phase plugin protocol of §4.7: the
// module-builder view surface a builder plugin calls back into, the generic
// phase driver (cache-hit short circuit, re-entry detection, rollback), and
// the plugin-build pipeline of §4.8.
package plugin

import "github.com/buildorc/orc/internal/artifact"

// Phase is one of the three module_builder__* entry points a builder
// plugin exports.
type Phase int

const (
	ExportInterface Phase = iota
	ExportLibraries
	ImportLibraries
)

func (p Phase) String() string {
	switch p {
	case ExportInterface:
		return "export-interface"
	case ExportLibraries:
		return "export-libraries"
	case ImportLibraries:
		return "import-libraries"
	default:
		return "Phase(?)"
	}
}

// Symbol is the fixed C-linkage entry point name the phase driver resolves
// via dlsym (§6, §9's "plugin entry points resolved by name" design note).
func (p Phase) Symbol() string {
	switch p {
	case ExportInterface:
		return "module_builder__export_interface"
	case ExportLibraries:
		return "module_builder__export_libraries"
	case ImportLibraries:
		return "module_builder__import_libraries"
	default:
		panic("plugin: unknown phase")
	}
}

// artifactPhase maps the ABI phase to its artifact-layout counterpart.
func (p Phase) artifactPhase() artifact.Phase {
	switch p {
	case ExportInterface:
		return artifact.ExportInterface
	case ExportLibraries:
		return artifact.ExportLibraries
	case ImportLibraries:
		return artifact.ImportLibraries
	default:
		panic("plugin: unknown phase")
	}
}

// takesLibraryType reports whether a phase's entry point signature carries
// a library_type_t argument. import-libraries does not: it runs once per
// module regardless of library type (§6's ABI signatures).
func (p Phase) takesLibraryType() bool {
	return p == ExportInterface || p == ExportLibraries
}
