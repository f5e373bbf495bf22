// Package tcp is the inbound transport adapter: it binds a listening
// socket and hands accepted connections to the proxy core.
package tcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/hostgate/hostgate/internal/port/inbound"
)

// Listen binds addr and runs server.Serve against it until ctx is
// cancelled, logging bind and shutdown events the way the rest of the
// proxy's entrypoints do.
func Listen(ctx context.Context, addr string, server inbound.Server, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("tcp: listen on %s: %w", addr, err)
	}
	logger.Info("listening", "addr", ln.Addr().String())

	err = server.Serve(ctx, ln)
	logger.Info("listener stopped", "addr", addr)
	return err
}
