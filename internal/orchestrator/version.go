package orchestrator

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// versionBanner formats a propagated version (a raw nanosecond timestamp,
// §3 — never itself a semantic version) as an operator-facing
// "v0.<version mod 1000000>.0" diagnostic string. This is cosmetic only: propagated versions are never
// compared via semver, but golang.org/x/mod/semver.IsValid still gives the
// formatted banner a real, if modest, use beyond raw Printf (§4.11).
func versionBanner(version uint64) string {
	s := fmt.Sprintf("v0.%d.0", version%1_000_000)
	if !semver.IsValid(s) {
		return fmt.Sprintf("v0.0.0+%d", version)
	}
	return s
}
