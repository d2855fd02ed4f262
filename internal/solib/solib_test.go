package solib

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// buildTestLib compiles a trivial shared object exporting answer() == 42,
// skipping the test if no C compiler is available in the test environment.
func buildTestLib(t *testing.T) string {
	t.Helper()
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler available")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "answer.c")
	if err := os.WriteFile(src, []byte("int answer(void) { return 42; }\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "answer.so")
	cmd := exec.Command(cc, "-shared", "-fPIC", "-o", out, src)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("compiling test fixture: %v", err)
	}
	return out
}

func TestOpenResolveClose(t *testing.T) {
	path := buildTestLib(t)

	h, err := Open(path, PluginPolicy)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	sym, err := h.Resolve("answer")
	if err != nil {
		t.Fatal(err)
	}
	if sym == nil {
		t.Fatal("Resolve returned nil pointer for existing symbol")
	}
}

func TestResolveMissingSymbol(t *testing.T) {
	path := buildTestLib(t)

	h, err := Open(path, PluginPolicy)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if _, err := h.Resolve("does_not_exist"); err == nil {
		t.Fatal("expected error resolving a missing symbol")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/path.so", PluginPolicy); err == nil {
		t.Fatal("expected error opening a nonexistent shared object")
	}
}

func TestProcessLifetimeCloseIsNoop(t *testing.T) {
	path := buildTestLib(t)
	h, err := Open(path, Policy{Lifetime: PROCESS, Resolution: Lazy, Visibility: Local})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close under PROCESS lifetime must not fail: %v", err)
	}
	// The symbol must still resolve: the mapping was never unmapped.
	if _, err := h.Resolve("answer"); err != nil {
		t.Fatalf("symbol unexpectedly unresolvable after PROCESS-lifetime Close: %v", err)
	}
}
