package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/storepilot/storepilot/internal/handler"
	"github.com/storepilot/storepilot/internal/middleware"
	"github.com/storepilot/storepilot/internal/models"
	"github.com/storepilot/storepilot/internal/security"
	"github.com/storepilot/storepilot/internal/store"
)

func (s *Server) setupRoutes(chat handler.ChatService, st *store.Store) http.Handler {
	cfg := s.cfg

	log.Info().
		Bool("chat_enabled", chat != nil).
		Bool("database_enabled", st != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Msg("service configuration")

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("WARNING: auth enabled but no API keys configured - all API requests will be rejected")
	}

	var healthH *handler.HealthHandler
	if st != nil {
		healthH = handler.NewHealthHandler(st)
	} else {
		healthH = handler.NewHealthHandler(nil)
	}

	var chatH *handler.ChatHandler
	if chat != nil {
		chatH = handler.NewChatHandler(chat,
			security.NewMessageValidator(),
			security.NewAuditLogger(cfg.EnableAuditLogging))
	}

	var recordsH *handler.RecordsHandler
	if st != nil {
		recordsH = handler.NewRecordsHandler(st)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	// Auth + rate limiting for API routes
	apiMiddleware := []func(http.Handler) http.Handler{
		middleware.RateLimit(cfg.RateLimitPerMinute),
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			if chatH != nil {
				r.Post("/chat", chatH.Chat)
			} else {
				r.Post("/chat", func(w http.ResponseWriter, _ *http.Request) {
					models.WriteError(w, http.StatusServiceUnavailable, "assistant is not configured")
				})
			}

			if recordsH != nil {
				r.Get("/services", recordsH.Services)
				r.Get("/sales", recordsH.Sales)
				r.Get("/memberships", recordsH.Memberships)
				r.Get("/summary", recordsH.Summary)
			}
		})
	})

	return r
}
