package modgraph

import (
	"errors"
	"testing"
)

func TestCheckBuilderDepsAcyclicOK(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "app", []string{"codegen"}, nil)
	writeModule(t, root, "codegen", nil, nil)

	g := discoverFixture(t, root, "app")
	if err := CheckBuilderDepsAcyclic(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckBuilderDepsAcyclicDetectsCycle(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "a", []string{"b"}, nil)
	writeModule(t, root, "b", []string{"a"}, nil)

	g := discoverFixture(t, root, "a")
	err := CheckBuilderDepsAcyclic(g)
	if !errors.Is(err, ErrBuilderDepCycle) {
		t.Fatalf("err = %v, want ErrBuilderDepCycle", err)
	}
}

func TestCheckBuilderDepsAcyclicAllowsModuleDepCycle(t *testing.T) {
	// Module-dep cycles are legal (condensed into an SCC); only builder-dep
	// cycles are fatal.
	root := t.TempDir()
	writeModule(t, root, "a", nil, []string{"b"})
	writeModule(t, root, "b", nil, []string{"a"})

	g := discoverFixture(t, root, "a")
	if err := CheckBuilderDepsAcyclic(g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
