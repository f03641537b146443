// Package httpapi exposes the external interfaces of SPEC_FULL.md §6 over
// chi, grounded on the teacher's server.New/setupMiddleware/setupRoutes
// shape.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Config holds server configuration.
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger
	Catalog *CatalogHandler
	Rates   *RatesHandler
	Import  *ImportHandler
	Health  *HealthHandler
}

// Server is the HTTP surface of the service.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
}

// New builds a Server with routes and middleware wired.
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "http_server").Logger(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", cfg.Health.Handle)

	s.router.Route("/v1", func(r chi.Router) {
		// Public, read-only surface.
		r.Get("/currencies", cfg.Catalog.List)
		r.Get("/exchange-rates", cfg.Rates.Get)

		// Operator-only writes and on-demand actions, segregated under
		// /admin so they can be fronted by a separate auth policy upstream.
		r.Route("/admin", func(r chi.Router) {
			r.Route("/currencies", func(r chi.Router) {
				r.Post("/", cfg.Catalog.Create)
				r.Get("/{id}", cfg.Catalog.Get)
				r.Put("/{id}", cfg.Catalog.SetEnabled)
			})
			r.Post("/exchange-rates/import", cfg.Import.Trigger)
		})
	})
}

// Start serves until the process is terminated.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests then stops.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
