package modgraph

import (
	"reflect"
	"testing"
)

func sccByMember(t *testing.T, sccs []*SCC, member string) *SCC {
	t.Helper()
	for _, s := range sccs {
		for _, m := range s.Members {
			if m == member {
				return s
			}
		}
	}
	t.Fatalf("no SCC contains member %q", member)
	return nil
}

func TestCondenseNoCycles(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "app", nil, []string{"lib"})
	writeModule(t, root, "lib", nil, nil)

	g := discoverFixture(t, root, "app")
	sccs, err := Condense(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(sccs) != 2 {
		t.Fatalf("len(sccs) = %d, want 2", len(sccs))
	}
	libSCC := sccByMember(t, sccs, "lib")
	appSCC := sccByMember(t, sccs, "app")
	if libSCC.ID >= appSCC.ID {
		t.Fatalf("lib SCC id %d should be lower than app's %d", libSCC.ID, appSCC.ID)
	}
	if !reflect.DeepEqual(appSCC.Deps, []int{libSCC.ID}) {
		t.Fatalf("app.Deps = %v, want [%d]", appSCC.Deps, libSCC.ID)
	}
	if len(libSCC.Deps) != 0 {
		t.Fatalf("lib.Deps = %v, want empty", libSCC.Deps)
	}
}

func TestCondenseMergesCycleIntoOneSCC(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "app", nil, []string{"x"})
	writeModule(t, root, "x", nil, []string{"y"})
	writeModule(t, root, "y", nil, []string{"x"})

	g := discoverFixture(t, root, "app")
	sccs, err := Condense(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(sccs) != 2 {
		t.Fatalf("len(sccs) = %d, want 2 (app, {x,y})", len(sccs))
	}
	cycle := sccByMember(t, sccs, "x")
	if !reflect.DeepEqual(cycle.Members, []string{"x", "y"}) {
		t.Fatalf("cycle.Members = %v, want [x y] (lexicographic)", cycle.Members)
	}
	app := sccByMember(t, sccs, "app")
	if app.ID <= cycle.ID {
		t.Fatalf("app SCC id %d should be greater than its dependency cycle's id %d", app.ID, cycle.ID)
	}
	if err := CheckCondensationIsDAG(sccs); err != nil {
		t.Fatalf("condensation is not a DAG: %v", err)
	}
}

func TestCondenseExcludesBuilderOnlyModules(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "app", []string{"codegen"}, nil)
	writeModule(t, root, "codegen", nil, nil)

	g := discoverFixture(t, root, "app")
	sccs, err := Condense(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(sccs) != 1 {
		t.Fatalf("len(sccs) = %d, want 1 (codegen is builder-only, excluded)", len(sccs))
	}
	if sccs[0].Members[0] != "app" {
		t.Fatalf("sccs[0].Members = %v, want [app]", sccs[0].Members)
	}
}

func TestCondenseSelfModuleDepIsSingleMemberSCC(t *testing.T) {
	root := t.TempDir()
	writeModule(t, root, "app", nil, []string{"app"})

	g := discoverFixture(t, root, "app")
	sccs, err := Condense(g)
	if err != nil {
		t.Fatal(err)
	}
	if len(sccs) != 1 || len(sccs[0].Members) != 1 || sccs[0].Members[0] != "app" {
		t.Fatalf("sccs = %+v, want single {app} SCC", sccs)
	}
	if len(sccs[0].Deps) != 0 {
		t.Fatalf("Deps = %v, want empty (self-dep is not a cross-SCC dep)", sccs[0].Deps)
	}
}
