// Package server sets up the HTTP server, router and route definitions for
// the read-only catalog API.
//
// WIRING:
// The CLI's serve command opens the backend and the catalog.Store, then
// hands the store to server.New. The server never opens storage itself, so
// the same store (and its mutex) backs every request.
//
//	kv backend → catalog.Store → handler.CatalogHandler → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/bookreview/internal/handler"
	"github.com/sakif/bookreview/internal/middleware"
)

const shutdownTimeout = 30 * time.Second

// Config holds the HTTP server settings.
type Config struct {
	Addr string // e.g. ":8080"
}

// Server serves the read-only catalog API.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
}

// New builds a Server whose routes read from catalog.
func New(cfg Config, catalog handler.Catalog, logger *slog.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	s.setupRoutes(catalog)
	return s
}

// setupRoutes configures middleware and handlers.
//
// ROUTES:
// GET /healthz                       → liveness
// GET /api/books?q=&genre=&sort=     → search/filter/sort
// GET /api/books/popular?limit=      → ranked by review count
// GET /api/books/{id}?sort=          → detail with reviews
// GET /api/genres                    → distinct genres
// GET /api/reviews/recent?limit=     → activity feed
// GET /api/stats                     → catalog totals
// GET /api/users/{id}/stats          → one reader's statistics
//
// MIDDLEWARE ORDER:
// RequestID first so Logger can report it; Recoverer last so a panic in a
// handler is still logged as a 500.
func (s *Server) setupRoutes(catalog handler.Catalog) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	catalogHandler := handler.NewCatalogHandler(catalog, s.logger)
	s.router.Route("/api", catalogHandler.Mount)
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then gives
// in-flight requests shutdownTimeout to finish.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", s.config.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
		return nil
	}
}
