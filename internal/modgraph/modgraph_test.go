package modgraph

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/buildorc/orc"
	"github.com/buildorc/orc/internal/pathmodel"
)

// writeModule creates modulesDir/name/{builder.cpp,deps.json} with the given
// deps, returning nothing; failures fail the test immediately.
func writeModule(t *testing.T, modulesDir string, name string, builderDeps, moduleDeps []string) {
	t.Helper()
	dir := filepath.Join(modulesDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, orc.BuilderSource), []byte("// builder\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if builderDeps == nil {
		builderDeps = []string{}
	}
	if moduleDeps == nil {
		moduleDeps = []string{}
	}
	data, err := json.Marshal(struct {
		BuilderDeps []string `json:"builder_deps"`
		ModuleDeps  []string `json:"module_deps"`
	}{builderDeps, moduleDeps})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, orc.ManifestFile), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustAbs(t *testing.T, p string) pathmodel.Abs {
	t.Helper()
	a, err := pathmodel.NewAbs(p)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func discoverFixture(t *testing.T, root string, target string) *Graph {
	t.Helper()
	modulesDir := pathmodel.MustAbs(root)
	g, err := Discover(modulesDir, target)
	if err != nil {
		t.Fatalf("Discover(%s): %v", target, err)
	}
	return g
}
