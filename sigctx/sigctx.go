// Package sigctx provides a context that is canceled when the process
// receives an interrupt or termination signal.
package sigctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// New returns a context that is canceled on SIGINT or SIGTERM. A second
// signal exits the process immediately.
func New() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigs
		cancel()
		<-sigs
		os.Exit(1)
	}()

	return ctx
}
