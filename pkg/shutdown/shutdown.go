package shutdown

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"vagentd/pkg/logger"
)

// SetupSignalHandler installs handlers for SIGINT/SIGTERM and SIGPIPE and
// returns a cancellable context. The returned context is cancelled when any
// of the watched signals arrives.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigc
		logger.Info("signal_received", "signal", s.String(), "msg", "shutdown requested")
		cancel()
	}()

	// dump goroutine stacks on SIGPIPE to aid diagnostics, then shut down
	sigpipe := make(chan os.Signal, 1)
	signal.Notify(sigpipe, syscall.SIGPIPE)
	go func() {
		s := <-sigpipe
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		logger.Info("signal_received", "signal", s.String(), "dump", string(buf[:n]))
		cancel()
	}()

	return ctx, cancel
}
