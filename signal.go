package orc

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// InterruptibleContext returns a context which is canceled when the process
// receives SIGINT or SIGTERM. It is consulted only by the driver's top-level
// loop (to print a diagnostic and exit promptly); the build pipeline itself
// never observes cancellation (§5: no suspension point in the core is
// cancellable, a signal terminates the in-flight subprocess via OS-level
// process-group semantics instead).
func InterruptibleContext() (context.Context, context.CancelFunc) {
	ctx, canc := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		// A second signal terminates immediately, in case cleanup hangs.
		signal.Stop(sig)
		canc()
	}()
	return ctx, canc
}
