package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docsum/internal/config"
	"github.com/dgallion1/docsum/internal/pipeline"
	"github.com/dgallion1/docsum/internal/report"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docsum.
type Server struct {
	router       chi.Router
	service      *pipeline.Service
	orchestrator *pipeline.Orchestrator
	stats        *report.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. orch and stats may be
// nil, which disables the batch and stats endpoints.
func NewServer(svc *pipeline.Service, orch *pipeline.Orchestrator, stats *report.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		service:      svc,
		orchestrator: orch,
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
	r.Use(CORS(s.cfg.CORSOrigins))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Post("/upload", s.handleUpload)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.DocsumAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.DocsumAPIKey, s.log))
		}

		r.Post("/api/batches", s.handleBatchSubmit)
		r.Get("/api/batches/{batchID}", s.handleBatchStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
