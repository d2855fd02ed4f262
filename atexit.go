package orc

import (
	"sync"
	"sync/atomic"
)

// atExit collects cleanup callbacks the orchestrator wants to run once the
// requested target has been built successfully, e.g. removing each completed
// phase's scratch build/ directory (internal/plugin). main runs them only
// after a successful build; a failed run skips them. It is a process-wide
// registry because main is the only place that decides when the run is over.
var atExit struct {
	sync.Mutex
	fns    []func() error
	closed uint32
}

// RegisterAtExit queues fn to run when RunAtExit is called.
func RegisterAtExit(fn func() error) {
	if atomic.LoadUint32(&atExit.closed) != 0 {
		panic("BUG: RegisterAtExit must not be called from an atExit func")
	}
	atExit.Lock()
	defer atExit.Unlock()
	atExit.fns = append(atExit.fns, fn)
}

// RunAtExit runs every registered callback in registration order, returning
// the first error encountered.
func RunAtExit() error {
	atomic.StoreUint32(&atExit.closed, 1)
	for _, fn := range atExit.fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}
