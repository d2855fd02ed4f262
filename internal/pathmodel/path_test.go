package pathmodel

import "testing"

func TestJoinEscapeRejected(t *testing.T) {
	base := MustAbs("/a/b")
	cases := []struct {
		name string
		rel  string
	}{
		{"parent-escape", "../c"},
		{"dot", "."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rel, err := NewRel(tc.rel)
			if err != nil {
				// escaping relative paths are already rejected by NewRel;
				// that satisfies the same contract.
				return
			}
			if _, err := base.Join(rel); err == nil {
				t.Fatalf("Join(%q, %q) succeeded, want error", base, tc.rel)
			}
		})
	}
}

func TestJoinOK(t *testing.T) {
	base := MustAbs("/a/b")
	rel, err := NewRel("c/d")
	if err != nil {
		t.Fatal(err)
	}
	got, err := base.Join(rel)
	if err != nil {
		t.Fatal(err)
	}
	if want := "/a/b/c/d"; got.String() != want {
		t.Fatalf("Join = %q, want %q", got, want)
	}
}

func TestIsChild(t *testing.T) {
	base := MustAbs("/a/b")
	if !base.IsChild(MustAbs("/a/b/c")) {
		t.Error("expected /a/b/c to be a child of /a/b")
	}
	if base.IsChild(MustAbs("/a/b")) {
		t.Error("a path must not be its own child")
	}
	if base.IsChild(MustAbs("/a/bc")) {
		t.Error("/a/bc must not be considered a child of /a/b (prefix without separator)")
	}
}

func TestRelativeTo(t *testing.T) {
	base := MustAbs("/a/b")
	child := MustAbs("/a/b/c/d")
	rel, err := child.RelativeTo(base)
	if err != nil {
		t.Fatal(err)
	}
	if rel.String() != "c/d" {
		t.Fatalf("RelativeTo = %q, want c/d", rel)
	}
	roundtrip, err := base.Join(rel)
	if err != nil {
		t.Fatal(err)
	}
	if roundtrip != child {
		t.Fatalf("roundtrip = %q, want %q", roundtrip, child)
	}
}

func TestParentOfRootFails(t *testing.T) {
	if _, err := MustAbs("/").Parent(); err == nil {
		t.Fatal("expected error taking the parent of a filesystem root")
	}
}

func TestWithPostfix(t *testing.T) {
	a := MustAbs("/a/b")
	got, err := a.WithPostfix(".tmp")
	if err != nil {
		t.Fatal(err)
	}
	if want := "/a/b.tmp"; got.String() != want {
		t.Fatalf("WithPostfix = %q, want %q", got, want)
	}
}
