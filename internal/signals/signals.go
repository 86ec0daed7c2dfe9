// Package signals provides OS signal utilities for graceful shutdown.
// This is a leaf package: stdlib only, no internal imports, no logging.
package signals

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ErrInterrupted is the cancellation cause when SIGINT or SIGTERM arrives.
var ErrInterrupted = errors.New("interrupted by signal")

// SetupSignalContext creates a context that's canceled on SIGINT/SIGTERM.
func SetupSignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return notifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func notifyContext(parent context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, sigs...)

	go func() {
		select {
		case <-sigChan:
			cancel(ErrInterrupted)
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, func() { cancel(context.Canceled) }
}

// Interrupted reports whether ctx was canceled by a signal.
func Interrupted(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrInterrupted)
}

// CleanupContext returns a context for teardown work that outlives a
// canceled parent, bounded by timeout. Parent values are kept.
func CleanupContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
