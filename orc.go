// Package orc holds constants and small helpers shared across the module
// graph, artifact, plugin and orchestrator packages.
package orc

const (
	// ManifestFile is the per-module dependency manifest, required to exist
	// in every module's source directory.
	ManifestFile = "deps.json"

	// BuilderSource is the builder plugin's C++ source file, required to
	// exist in every module's source directory.
	BuilderSource = "builder.cpp"

	// BuilderModuleName is the name of the orchestrator's own bootstrap
	// module: the module whose builder.cpp is the orchestrator's own core
	// source tree.
	BuilderModuleName = "builder"
)
