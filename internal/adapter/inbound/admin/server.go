package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hostgate/hostgate/internal/domain/auth"
	"github.com/hostgate/hostgate/internal/port/inbound"
)

// Server wraps Handler in an *http.Server bound to a loopback address, with
// bearer-token auth applied whenever tokenHash is non-empty.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the admin HTTP server. proxy must additionally satisfy
// inbound.Server's control operations; tokenHash, if non-empty, is an
// Argon2id or SHA-256 hash the presented bearer token must match.
func NewServer(addr string, proxy inbound.Server, tokenHash string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	var handler http.Handler = NewHandler(proxy, logger)
	if tokenHash != "" {
		handler = RequireBearerToken(auth.NewTokenVerifier(tokenHash), handler)
	}
	return &Server{
		httpServer: &http.Server{Addr: addr, Handler: handler},
		logger:     logger,
	}
}

// Run starts the admin server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.httpServer.Shutdown(context.Background())
	}()

	s.logger.Info("admin control surface listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin: serve: %w", err)
	}
	return nil
}
