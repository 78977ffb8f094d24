package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spherical/ecg-extractor/internal/config"
	"github.com/spherical/ecg-extractor/internal/observability"
)

// Server is the HTTP server with graceful shutdown.
type Server struct {
	srv      *http.Server
	logger   *observability.Logger
	shutdown time.Duration
}

// NewServer creates a server for handler using cfg.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *observability.Logger) *Server {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Address(),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger:   logger,
		shutdown: cfg.GracefulShutdown,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("HTTP server listening")
		serverErrors <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := s.srv.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Forced shutdown failed")
		}
		return err
	}
	s.logger.Info().Msg("Server stopped")
	return nil
}
