// Package api provides the HTTP API server and handlers for StudyDesk.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/studydeskapp/studydesk-server/internal/archive"
	"github.com/studydeskapp/studydesk-server/internal/config"
	"github.com/studydeskapp/studydesk-server/internal/http/response"
	"github.com/studydeskapp/studydesk-server/internal/ratelimit"
	"github.com/studydeskapp/studydesk-server/internal/sse"
	"github.com/studydeskapp/studydesk-server/internal/store"
	"github.com/studydeskapp/studydesk-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      *store.Store
	services   *Services
	archive    *archive.Archive
	sseManager *sse.Manager
	sseHandler *sse.Handler
	router     *chi.Mux
	api        huma.API
	validator  *validation.Validator
	limiter    *ratelimit.KeyedRateLimiter
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, st *store.Store, services *Services, arc *archive.Archive, sseManager *sse.Manager, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:      st,
		services:   services,
		archive:    arc,
		sseManager: sseManager,
		sseHandler: sse.NewHandler(sseManager, logger),
		router:     router,
		validator:  validation.New(),
		limiter:    ratelimit.New(50, 100),
		logger:     logger,
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig(cfg.Server.Name, "1.0.0")
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerSubjectRoutes()
	s.registerChapterRoutes()
	s.registerPlanRoutes()
	s.registerAssignmentRoutes()
	s.registerSessionRoutes()
	s.registerStatsRoutes()
	s.registerSearchRoutes()
	s.registerHistoryRoutes()

	// SSE stays outside huma: it is a long-lived stream, not a JSON operation.
	router.Get("/api/v1/events", s.sseHandler.ServeHTTP)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases server-held resources.
func (s *Server) Close() {
	s.limiter.Stop()
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Use(s.rateLimit)
}

// rateLimit rejects clients that exceed the per-address token bucket.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(r.RemoteAddr) {
			response.Error(w, http.StatusTooManyRequests, "rate limit exceeded", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
