package modgraph

import (
	"errors"
	"testing"
)

func TestDiscoverLinearChain(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "app", nil, []string{"lib"})
	writeModule(t, root, "lib", nil, nil)

	g := discoverFixture(t, root, "app")

	if g.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", g.Len())
	}
	if _, ok := g.ModuleByName("lib"); !ok {
		t.Fatalf("lib not discovered")
	}
	edges := g.EdgesFrom(g.Index("app"), ModuleDep)
	if len(edges) != 1 || edges[0].To != g.Index("lib") {
		t.Fatalf("edges = %+v, want single app->lib module-dep edge", edges)
	}
}

func TestDiscoverMissingModule(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "app", nil, []string{"ghost"})

	_, err := Discover(mustAbs(t, root), "app")
	if err == nil {
		t.Fatal("expected error for missing dependency directory")
	}
	if !errors.Is(err, ErrDiscoveryInconsistency) {
		t.Fatalf("err = %v, want ErrDiscoveryInconsistency", err)
	}
}

func TestDiscoverSelfModuleDep(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "app", nil, []string{"app"})

	g := discoverFixture(t, root, "app")
	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}
	edges := g.EdgesFrom(g.Index("app"), ModuleDep)
	if len(edges) != 1 || edges[0].To != g.Index("app") {
		t.Fatalf("edges = %+v, want a single self-loop", edges)
	}
}

func TestDiscoverDuplicateManifestEntryRejected(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "app", nil, []string{"lib", "lib"})
	writeModule(t, root, "lib", nil, nil)

	_, err := Discover(mustAbs(t, root), "app")
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("err = %v, want ErrSchemaViolation", err)
	}
}
