package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"GridSentinel/internal/logger"
)

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	log        *logrus.Entry
}

// New creates a server listening on addr.
func New(addr string, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: logger.Default().WithComponent("api"),
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("starting api server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down api server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
