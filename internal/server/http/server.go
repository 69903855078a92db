package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"menulens/internal/logging"
)

// ServerConfig configures the listener.
type ServerConfig struct {
	Addr        string
	ReadTimeout time.Duration
	// WriteTimeout must exceed the upstream relay timeout.
	WriteTimeout time.Duration
}

// Server wraps http.Server around the gin engine.
type Server struct {
	httpServer *http.Server
	logger     logging.Logger
}

// NewServer builds a server for handler.
func NewServer(cfg ServerConfig, handler http.Handler, logger logging.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: logging.OrNop(logger),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start blocks serving until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("menulens proxy listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("stopping menulens proxy")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}
	return nil
}
