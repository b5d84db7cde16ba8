package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"trading-journal-go/internal/config"

	"go.uber.org/zap"
)

// Server owns the listening HTTP server.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

func NewServer(cfg *config.Server, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger.Named("api-server"),
	}
}

// Start serves in a new goroutine. Listen failures are reported on the returned channel.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))
	go func() {
		if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server failed", zap.Error(err))
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server...")
	return s.server.Shutdown(ctx)
}
