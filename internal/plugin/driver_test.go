package plugin

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/buildorc/orc"
	"github.com/buildorc/orc/internal/artifact"
	"github.com/buildorc/orc/internal/modgraph"
	"github.com/buildorc/orc/internal/pathmodel"
	"github.com/buildorc/orc/internal/toolchain"
)

type fakeHandle struct{}

func (fakeHandle) Resolve(name string) (unsafe.Pointer, error) { return nil, nil }
func (fakeHandle) Close() error                                { return nil }

func writeTestModule(t *testing.T, root, name string, moduleDeps []string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, orc.BuilderSource), []byte("// builder\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if moduleDeps == nil {
		moduleDeps = []string{}
	}
	data, _ := json.Marshal(struct {
		BuilderDeps []string `json:"builder_deps"`
		ModuleDeps  []string `json:"module_deps"`
	}{[]string{}, moduleDeps})
	if err := os.WriteFile(filepath.Join(dir, orc.ManifestFile), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// testDriver builds a two-module (app -> lib) fixture and a Driver whose
// plugin loading is faked: buildPlugin's real CreateSharedLibrary call is
// avoided by pre-touching the expected builder.so path, and openPlugin
// returns a fake handle so no real dlopen happens.
func testDriver(t *testing.T) (*Driver, *modgraph.Graph) {
	t.Helper()
	modulesRoot := t.TempDir()
	writeTestModule(t, modulesRoot, "app", []string{"lib"})
	writeTestModule(t, modulesRoot, "lib", nil)

	modulesDir, err := pathmodel.NewAbs(modulesRoot)
	if err != nil {
		t.Fatal(err)
	}
	g, err := modgraph.Discover(modulesDir, "app")
	if err != nil {
		t.Fatal(err)
	}
	sccs, err := modgraph.Condense(g)
	if err != nil {
		t.Fatal(err)
	}
	modgraph.PropagateVersions(g, sccs, 0)

	artifactsRoot, err := pathmodel.NewAbs(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	layout := artifact.New(artifactsRoot)

	for _, name := range []string{"app", "lib"} {
		m, _ := g.ModuleByName(name)
		so := layout.BuilderSharedLibrary(name, m.Version)
		parent, err := so.Parent()
		if err != nil {
			t.Fatal(err)
		}
		if err := pathmodel.CreateDirectories(parent); err != nil {
			t.Fatal(err)
		}
		if err := pathmodel.Touch(so); err != nil {
			t.Fatal(err)
		}
	}

	d := New(g, sccs, layout, toolchain.New(toolchain.DefaultConfig, nil), log.New(os.Stderr, "", 0))
	d.openPlugin = func(string) (pluginHandle, error) { return fakeHandle{}, nil }
	return d, g
}

func TestRunPhaseCacheHitSkipsInvoke(t *testing.T) {
	d, g := testDriver(t)
	m, _ := g.ModuleByName("lib")
	if err := pathmodel.CreateDirectories(d.Layout.InstallDir("lib", m.Version, artifact.ExportInterface, artifact.Static)); err != nil {
		t.Fatal(err)
	}
	called := false
	d.invokePhase = func(pluginHandle, Phase, *View, artifact.LibraryType) error {
		called = true
		return nil
	}
	if err := d.RunPhase("lib", ExportInterface, artifact.Static); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("invokePhase should not be called on a cache hit")
	}
}

func TestRunPhaseReentryDetected(t *testing.T) {
	d, g := testDriver(t)
	m, _ := g.ModuleByName("lib")
	if err := pathmodel.CreateDirectories(d.Layout.BuildDir("lib", m.Version, artifact.ExportInterface, artifact.Static)); err != nil {
		t.Fatal(err)
	}
	if err := pathmodel.Touch(d.Layout.InProgressMarker("lib", m.Version, artifact.ExportInterface, artifact.Static)); err != nil {
		t.Fatal(err)
	}
	err := d.RunPhase("lib", ExportInterface, artifact.Static)
	if !errors.Is(err, ErrReentry) {
		t.Fatalf("err = %v, want ErrReentry", err)
	}
}

func TestRunPhaseRollsBackOnInvokeError(t *testing.T) {
	d, g := testDriver(t)
	boom := errors.New("plugin exploded")
	d.invokePhase = func(pluginHandle, Phase, *View, artifact.LibraryType) error { return boom }

	err := d.RunPhase("lib", ExportInterface, artifact.Static)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapping %v", err, boom)
	}
	m, _ := g.ModuleByName("lib")
	if pathmodel.Exists(d.Layout.PhaseDir("lib", m.Version, artifact.ExportInterface, artifact.Static)) {
		t.Fatal("phase directory should have been rolled back")
	}
}

func TestRunPhaseProtocolViolationWithoutInstallOutput(t *testing.T) {
	d, _ := testDriver(t)
	d.invokePhase = func(pluginHandle, Phase, *View, artifact.LibraryType) error { return nil }

	err := d.RunPhase("lib", ExportInterface, artifact.Static)
	if !errors.Is(err, ErrProtocolViolation) {
		t.Fatalf("err = %v, want ErrProtocolViolation", err)
	}
}

func TestRunPhaseSuccessClearsMarkerAndSwingsAlias(t *testing.T) {
	d, g := testDriver(t)
	m, _ := g.ModuleByName("lib")
	d.invokePhase = func(h pluginHandle, phase Phase, v *View, lib artifact.LibraryType) error {
		return pathmodel.CreateDirectories(d.Layout.InstallDir("lib", m.Version, phase.artifactPhase(), lib))
	}

	if err := d.RunPhase("lib", ExportLibraries, artifact.Static); err != nil {
		t.Fatal(err)
	}
	if d.Layout.IsInProgress("lib", m.Version, artifact.ExportLibraries, artifact.Static) {
		t.Fatal("in-progress marker should be cleared after success")
	}
	if !pathmodel.Exists(d.Layout.AliasDir("lib")) {
		t.Fatal("alias should be swung after a successful export-libraries")
	}
}
