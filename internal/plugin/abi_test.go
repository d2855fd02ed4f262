package plugin

import "testing"

func TestPhaseSymbols(t *testing.T) {
	cases := map[Phase]string{
		ExportInterface: "module_builder__export_interface",
		ExportLibraries: "module_builder__export_libraries",
		ImportLibraries: "module_builder__import_libraries",
	}
	for phase, want := range cases {
		if got := phase.Symbol(); got != want {
			t.Errorf("%v.Symbol() = %q, want %q", phase, got, want)
		}
	}
}

func TestPhaseTakesLibraryType(t *testing.T) {
	if !ExportInterface.takesLibraryType() {
		t.Error("export-interface should take a library type")
	}
	if !ExportLibraries.takesLibraryType() {
		t.Error("export-libraries should take a library type")
	}
	if ImportLibraries.takesLibraryType() {
		t.Error("import-libraries should not take a library type")
	}
}
