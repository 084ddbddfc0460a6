package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// createContext creates a context that is cancelled on SIGINT/SIGTERM and,
// for a positive timeout, after that duration.
func createContext(parent context.Context, timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		parentCancel := cancel
		cancel = func() {
			cancelTimeout()
			parentCancel()
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, cancelling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
