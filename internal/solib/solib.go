// Package solib is the shared-object loader of §4.3: an RAII-style handle
// over dlopen/dlsym/dlclose, parameterised by lifetime, symbol-resolution,
// and symbol-visibility policy. Go's standard "plugin" package hard-codes
// RTLD_NOW|RTLD_GLOBAL and cannot express the LAZY+LOCAL policy the plugin
// protocol (§4.7) requires for per-plugin symbol isolation, so this package
// reaches for cgo and <dlfcn.h> directly, the same header the original
// implementation's builder_api.cpp calls.
package solib

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Lifetime controls what happens to the mapping when a Handle is dropped.
type Lifetime int

const (
	// DTOR unmaps the library when the Handle is closed.
	DTOR Lifetime = iota
	// PROCESS intentionally leaks the mapping: the library stays mapped for
	// the remainder of the process. This is the plugin-loading policy
	// (§4.3): plugin entry points may capture static data in the plugin's
	// own address space, and unmapping between phases would dangle it.
	PROCESS
)

// Resolution controls when symbol relocations are performed.
type Resolution int

const (
	// Now resolves all symbols immediately, failing dlopen if any are
	// unresolvable.
	Now Resolution = iota
	// Lazy resolves symbols on first use.
	Lazy
)

// Visibility controls whether a library's symbols are added to the global
// symbol table.
type Visibility int

const (
	// Local keeps a library's symbols out of the global table, so that
	// multiple plugins defining the same entry-point name each resolve to
	// their own definition. This is required by the plugin protocol.
	Local Visibility = iota
	// Global adds a library's symbols to the global table.
	Global
)

// Policy is a loader configuration. PluginPolicy is the one this
// orchestrator uses for every builder plugin: PROCESS + LAZY + LOCAL.
type Policy struct {
	Lifetime   Lifetime
	Resolution Resolution
	Visibility Visibility
}

// PluginPolicy is the fixed policy §4.3 mandates for loading builder
// plugins.
var PluginPolicy = Policy{Lifetime: PROCESS, Resolution: Lazy, Visibility: Local}

func (p Policy) flags() C.int {
	var flags C.int
	switch p.Resolution {
	case Now:
		flags |= C.RTLD_NOW
	default:
		flags |= C.RTLD_LAZY
	}
	switch p.Visibility {
	case Global:
		flags |= C.RTLD_GLOBAL
	default:
		flags |= C.RTLD_LOCAL
	}
	return flags
}

// Handle is a loaded shared object.
type Handle struct {
	path   string
	handle unsafe.Pointer
	policy Policy
	closed bool
}

// Open loads the shared object at path under policy.
func Open(path string, policy Policy) (*Handle, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	C.dlerror() // clear any pending error
	h := C.dlopen(cpath, policy.flags())
	if h == nil {
		return nil, fmt.Errorf("solib: dlopen(%s): %s", path, dlerror())
	}
	return &Handle{path: path, handle: h, policy: policy}, nil
}

// Resolve returns the address of symbol name as an opaque pointer. The
// caller bears the burden of signature correctness when invoking it; solib
// has no way to check a C function pointer's signature.
func (h *Handle) Resolve(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	C.dlerror()
	sym := C.dlsym(h.handle, cname)
	if sym == nil {
		if errStr := dlerror(); errStr != "" {
			return nil, fmt.Errorf("solib: dlsym(%s, %s): %s", h.path, name, errStr)
		}
	}
	return sym, nil
}

// Close unmaps the library if its policy's Lifetime is DTOR. Under PROCESS
// lifetime this is a deliberate no-op: the mapping is leaked for the life of
// the process, per §4.3 and §9.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.policy.Lifetime == PROCESS {
		return nil
	}
	if C.dlclose(h.handle) != 0 {
		return fmt.Errorf("solib: dlclose(%s): %s", h.path, dlerror())
	}
	return nil
}

func dlerror() string {
	msg := C.dlerror()
	if msg == nil {
		return ""
	}
	return C.GoString(msg)
}
