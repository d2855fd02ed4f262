package plugin

import "fmt"

// ErrReentry is wrapped when a (module, phase) pair is invoked while an
// earlier invocation of the same pair is still in flight (§3 invariant 4).
var ErrReentry = fmt.Errorf("plugin re-entry")

// ErrProtocolViolation is wrapped when a plugin fails to uphold its side of
// the ABI contract: a missing entry symbol, or a phase that returns success
// without producing the install/ directory it promised (§7).
var ErrProtocolViolation = fmt.Errorf("plugin protocol violation")

// ErrBuildFailed is wrapped when compiling a builder plugin itself fails
// (§4.8), as distinct from a failure inside a phase the plugin runs.
var ErrBuildFailed = fmt.Errorf("builder plugin build failed")
