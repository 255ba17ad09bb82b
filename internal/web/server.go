// Package web provides the HTTP server and JSON handlers for the biens API.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/evcraddock/biens/internal/auth"
	"github.com/evcraddock/biens/internal/bien"
	"github.com/evcraddock/biens/internal/lead"
	"github.com/evcraddock/biens/internal/logging"
	"github.com/evcraddock/biens/internal/media"
	"github.com/evcraddock/biens/internal/review"
	"github.com/evcraddock/biens/internal/wanted"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the server delegates to.
type Deps struct {
	Biens   *bien.Repository
	Wanted  *wanted.Repository
	Reviews *review.Repository
	Media   *media.Store
	Leads   *lead.Relay
	Auth    *auth.Authenticator
}

// Server is the biens API HTTP server.
type Server struct {
	biens   *bien.Repository
	wanted  *wanted.Repository
	reviews *review.Repository
	media   *media.Store
	leads   *lead.Relay
	auth    *auth.Authenticator
	metrics *metrics
	router  chi.Router
}

// NewServer creates a server and registers all routes.
func NewServer(d Deps) (*Server, error) {
	if d.Biens == nil || d.Wanted == nil || d.Reviews == nil || d.Media == nil || d.Leads == nil || d.Auth == nil {
		return nil, fmt.Errorf("web: missing server dependency")
	}

	s := &Server{
		biens:   d.Biens,
		wanted:  d.Wanted,
		reviews: d.Reviews,
		media:   d.Media,
		leads:   d.Leads,
		auth:    d.Auth,
		metrics: newMetrics(),
		router:  chi.NewRouter(),
	}
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(logging.RequestLogger)
	r.Use(s.metrics.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.handler)

	// Listings
	r.Get("/get-one", s.handleGetOne)
	r.Get("/all-biens", s.handleAllBiens)

	// Images and wanted ads
	r.Get("/images/{repertoire}/{key}", s.handleImage)
	r.Get("/get-wanteds", s.handleGetWanteds)

	// Forms and reviews
	r.Route("/user", func(r chi.Router) {
		r.Post("/contact-us", s.handleForm(lead.KindContact))
		r.Post("/wanted", s.handleForm(lead.KindWanted))
		r.Post("/selling", s.handleForm(lead.KindSelling))
		r.Post("/add-review", s.handleAddReview)
		r.Get("/reviews", s.handleReviews)

		r.With(s.auth.RequireToken).Get("/tk-log", s.handleTokenLog)
		r.With(s.auth.RequireToken).Patch("/validation-review", s.handleValidationReview)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireToken)

		r.Post("/create", s.handleCreate)
		r.Patch("/update", s.handleUpdate)
		r.Delete("/delete", s.handleDelete)

		r.Post("/add-image", s.handleAddImage)
		r.Put("/update-image", s.handleUpdateImage)
		r.Delete("/medias/{repertoire}/{key}", s.handleDeleteMedia)

		r.Post("/wanted-image", s.handleWantedImage)
		r.Delete("/delete-wanted", s.handleDeleteWanted)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server and shuts it down gracefully
// when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting biens API", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down biens API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
