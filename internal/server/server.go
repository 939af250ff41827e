// Package server wires the HTTP surface: router, middleware, and
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/storepilot/storepilot/internal/config"
	"github.com/storepilot/storepilot/internal/handler"
	"github.com/storepilot/storepilot/internal/store"
)

type Server struct {
	cfg   *config.Config
	http  *http.Server
	store *store.Store // held for graceful close
}

// New builds the server from its dependencies. chat may be nil when no
// model API key is configured; the chat endpoint then returns 503.
func New(cfg *config.Config, chat handler.ChatService, st *store.Store) *Server {
	s := &Server{cfg: cfg, store: st}

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.setupRoutes(chat, st),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)

		if s.store != nil {
			s.store.Close()
			log.Info().Msg("database pool closed")
		}

		return err
	case err := <-errCh:
		return err
	}
}
