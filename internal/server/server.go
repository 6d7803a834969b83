// Package server assembles the HTTP router and runs the server until its
// context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dspybridge/dspybridge/internal/config"
	"github.com/dspybridge/dspybridge/internal/models"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg     *config.Config
	http    *http.Server
	closers []func() // run after the HTTP server has drained
}

func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	router, err := s.setupRoutes()
	if err != nil {
		s.close()
		return nil, fmt.Errorf("setup routes: %w", err)
	}

	s.http = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// agent runs may use the whole agent timeout
		WriteTimeout: s.agentTimeout() + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		s.close()
		return err
	case err := <-errCh:
		s.close()
		return err
	}
}

func (s *Server) close() {
	for _, c := range s.closers {
		c()
	}
	s.closers = nil
}

func (s *Server) agentTimeout() time.Duration {
	return time.Duration(s.cfg.AgentTimeout) * time.Second
}

func writeNotFound(w http.ResponseWriter) {
	models.WriteError(w, http.StatusNotFound, "not found")
}
