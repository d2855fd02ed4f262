package plugin

/*
#include <stdint.h>

typedef void (*phase_with_lib_fn)(int64_t view, int32_t lib);
typedef void (*phase_without_lib_fn)(int64_t view);

static void call_phase_with_lib(void *fn, int64_t view, int32_t lib) {
	((phase_with_lib_fn)fn)(view, lib);
}
static void call_phase_without_lib(void *fn, int64_t view) {
	((phase_without_lib_fn)fn)(view);
}
*/
import "C"

import (
	"sync"

	"golang.org/x/xerrors"

	"github.com/buildorc/orc/internal/artifact"
)

// The module-builder view is never marshaled across the cgo boundary as a
// struct: a plugin's companion header declares module_builder_view_t as an
// opaque handle (an int64_t) and calls back into the module_builder_view__*
// functions exported in abi_export.go, passing that handle as their first
// argument. This registry maps a handle to the *View it stands for, and to
// the first error a callback on it recorded (a void-returning entry point
// can't propagate a Go error directly; the phase driver inspects this field
// once call_phase_* returns).
var (
	viewRegistryMu sync.Mutex
	viewRegistry   = map[int64]*viewEntry{}
	nextViewHandle int64
)

type viewEntry struct {
	view *View
	err  error
}

func registerView(v *View) int64 {
	viewRegistryMu.Lock()
	defer viewRegistryMu.Unlock()
	nextViewHandle++
	h := nextViewHandle
	viewRegistry[h] = &viewEntry{view: v}
	return h
}

func lookupView(h int64) *viewEntry {
	viewRegistryMu.Lock()
	defer viewRegistryMu.Unlock()
	return viewRegistry[h]
}

func recordViewError(h int64, err error) {
	viewRegistryMu.Lock()
	defer viewRegistryMu.Unlock()
	if entry, ok := viewRegistry[h]; ok && entry.err == nil {
		entry.err = err
	}
}

func unregisterView(h int64) {
	viewRegistryMu.Lock()
	defer viewRegistryMu.Unlock()
	delete(viewRegistry, h)
}

// realInvokePhase resolves phase's entry symbol in h and calls it, handing
// it a fresh registry handle in place of a real pointer-valued view.
func realInvokePhase(h pluginHandle, phase Phase, view *View, lib artifact.LibraryType) error {
	fn, err := h.Resolve(phase.Symbol())
	if err != nil {
		return xerrors.Errorf("%w: %s: %v", ErrProtocolViolation, phase.Symbol(), err)
	}

	handle := registerView(view)
	defer unregisterView(handle)

	if phase.takesLibraryType() {
		C.call_phase_with_lib(fn, C.int64_t(handle), C.int32_t(lib))
	} else {
		C.call_phase_without_lib(fn, C.int64_t(handle))
	}

	if entry := lookupView(handle); entry != nil && entry.err != nil {
		return entry.err
	}
	return nil
}
