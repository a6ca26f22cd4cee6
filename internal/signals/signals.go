// Package signals turns process signals into context cancellation.
// Leaf package: stdlib only, no internal imports, no logging.
package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Shutdown lists the signals that end a blocking command such as
// "status --watch".
var Shutdown = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// SetupSignalContext returns a context canceled on SIGINT/SIGTERM or when
// parent is done. The returned cancel stops signal delivery.
func SetupSignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return notify(parent, Shutdown...)
}

func notify(parent context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, sigs...)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
