// Package web provides the HTTP server, JSON API and HTML pages for joining
// two spreadsheets.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Krish120003/databind/internal/config"
	"github.com/Krish120003/databind/internal/core"
	"github.com/Krish120003/databind/internal/web/middleware"
	"github.com/Krish120003/databind/internal/web/templates"
)

// Server is the HTTP server for the join application.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	// stop ends background work started for the router.
	stop context.CancelFunc
}

// NewServer creates a Server serving service with the given config.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	ctx, stop := context.WithCancel(context.Background())
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
		stop:    stop,
	}
	s.setupMiddleware(ctx)
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(requestMetadata)

	if s.cfg.Rate.Enabled {
		limiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
			RequestsPerMinute: s.cfg.Rate.RequestsPerMinute,
			Burst:             s.cfg.Rate.Burst,
		})
		s.router.Use(limiter.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Get("/", s.handleHome)
	s.router.Get("/sessions/{sessionID}", s.handleSessionPage)

	s.router.Route("/api", func(r chi.Router) {
		if origins := s.cfg.Security.CORSAllowedOrigins; len(origins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   origins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "Authorization", "X-Request-Id"},
				ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
				AllowCredentials: false,
				MaxAge:           300,
			}))
		}
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))

		r.Get("/upload-queue", s.handleUploadQueueStatus)
		r.Get("/audit-log", s.handleAuditLog)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/reset", s.handleResetSession)

			r.Post("/files/{side}", s.handleUploadFile)
			r.Delete("/files/{side}", s.handleClearFile)

			r.Post("/columns/{side}", s.handleToggleColumn)
			r.Delete("/columns", s.handleResetSelections)

			r.Post("/join", s.handleJoin)
			r.Post("/back", s.handleBack)
			r.Get("/rows", s.handleRows)
			r.Get("/conflicts", s.handleConflicts)
			r.Put("/resolutions/{rowIndex}", s.handleResolve)
			r.Post("/resolutions", s.handleResolveAll)
			r.Get("/export", s.handleExport)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds hardening headers to all responses. The CSP allows
// inline styles and scripts for the page shell plus the htmx origin.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	csp := "default-src 'self'; script-src 'self' 'unsafe-inline' " + templates.HTMXSource +
		"; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", csp)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("json encode error", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
