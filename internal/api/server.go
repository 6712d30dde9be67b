package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/reanchor/internal/annostore"
	"github.com/dgallion1/reanchor/internal/config"
	"github.com/dgallion1/reanchor/internal/docstore"
	"github.com/dgallion1/reanchor/internal/pipeline"
	"github.com/dgallion1/reanchor/internal/resolve"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for reanchor.
type Server struct {
	router       chi.Router
	docs         *docstore.Store
	annos        *annostore.Store
	orchestrator *pipeline.Orchestrator
	resolver     *resolve.Resolver
	stats        *resolve.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(docs *docstore.Store, annos *annostore.Store, orch *pipeline.Orchestrator, resolver *resolve.Resolver, stats *resolve.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		docs:         docs,
		annos:        annos,
		orchestrator: orch,
		resolver:     resolver,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleUploadDocument)
		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Post("/api/documents/{docID}/annotations", s.handleCreateAnnotation)
		r.Get("/api/documents/{docID}/annotations", s.handleListAnnotations)
		r.Get("/api/documents/{docID}/annotations/{annoID}", s.handleGetAnnotation)
		r.Delete("/api/documents/{docID}/annotations/{annoID}", s.handleDeleteAnnotation)

		r.Post("/api/documents/{docID}/anchor", s.handleAnchor)
		r.Post("/api/documents/{docID}/anchor/batch", s.handleBatchAnchor)
		r.Get("/api/anchor/{jobID}/status", s.handleAnchorStatus)

		r.Get("/api/stats/resolutions", s.handleResolutionStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
