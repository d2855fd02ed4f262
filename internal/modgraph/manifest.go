package modgraph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/buildorc/orc"
	"github.com/buildorc/orc/internal/pathmodel"
)

// ErrSchemaViolation is wrapped by every deps.json validation failure.
var ErrSchemaViolation = fmt.Errorf("schema violation")

// ErrDiscoveryInconsistency is wrapped by every missing-module-directory or
// missing-builder.cpp failure.
var ErrDiscoveryInconsistency = fmt.Errorf("discovery inconsistency")

// manifest is the on-disk shape of deps.json. Unknown keys are silently
// ignored by encoding/json's default decode behaviour.
type manifest struct {
	BuilderDeps []string `json:"builder_deps"`
	ModuleDeps  []string `json:"module_deps"`
}

func readManifest(dir pathmodel.Abs) (manifest, error) {
	path := dir.MustJoin(pathmodel.NewRelOrPanic(orc.ManifestFile))
	data, err := os.ReadFile(path.String())
	if err != nil {
		return manifest{}, fmt.Errorf("%w: %s: %v", ErrSchemaViolation, path, err)
	}
	var raw struct {
		BuilderDeps *[]string `json:"builder_deps"`
		ModuleDeps  *[]string `json:"module_deps"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return manifest{}, fmt.Errorf("%w: %s: invalid JSON: %v", ErrSchemaViolation, path, err)
	}
	if raw.BuilderDeps == nil || raw.ModuleDeps == nil {
		return manifest{}, fmt.Errorf("%w: %s: both \"builder_deps\" and \"module_deps\" are mandatory", ErrSchemaViolation, path)
	}
	m := manifest{BuilderDeps: *raw.BuilderDeps, ModuleDeps: *raw.ModuleDeps}
	if err := validateDepList(path.String(), "builder_deps", m.BuilderDeps); err != nil {
		return manifest{}, err
	}
	if err := validateDepList(path.String(), "module_deps", m.ModuleDeps); err != nil {
		return manifest{}, err
	}
	return m, nil
}

func validateDepList(path, key string, deps []string) error {
	seen := make(map[string]bool, len(deps))
	for _, d := range deps {
		if d == "" {
			return fmt.Errorf("%w: %s: %q contains an empty string", ErrSchemaViolation, path, key)
		}
		if seen[d] {
			return fmt.Errorf("%w: %s: %q contains duplicate entry %q", ErrSchemaViolation, path, key, d)
		}
		seen[d] = true
	}
	return nil
}
