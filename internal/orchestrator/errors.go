package orchestrator

import "fmt"

// ErrToolchainFailure is wrapped when the self-rebuild step's compile/link
// subprocess exits non-zero, rounding out §7's taxonomy at the top-level
// driver (the per-module taxonomy entries — schema violation, discovery
// inconsistency, builder-dep cycle, plugin-protocol violation — are the
// sentinel errors already defined in internal/modgraph and internal/plugin;
// this package does not redefine them, only surfaces them to main).
var ErrToolchainFailure = fmt.Errorf("toolchain failure")
