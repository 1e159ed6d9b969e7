// Package api serves the document Q&A HTTP API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bull/docqa/internal/metrics"
	"github.com/bull/docqa/internal/qa"
)

// Options configures optional parts of the server.
type Options struct {
	// MaxUploadBytes bounds uploaded documents.
	MaxUploadBytes int64
	// Metrics enables /metrics and request instrumentation when non-nil.
	Metrics *metrics.Metrics
	// MCP is mounted at /mcp when non-nil.
	MCP http.Handler
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	service *qa.Service
	log     *slog.Logger
	opts    Options
}

// NewServer creates and configures the HTTP server.
func NewServer(service *qa.Service, log *slog.Logger, opts Options) *Server {
	if log == nil {
		log = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 52428800
	}
	s := &Server{
		service: service,
		log:     log,
		opts:    opts,
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
	if s.opts.Metrics != nil {
		r.Use(Instrument(s.opts.Metrics))
	}

	r.Get("/", handleLanding)
	r.Get("/health", NewHealthHandler(s.service))
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	r.Post("/build_chatbot", s.handleBuild)
	r.Get("/chatbot_status/{jobID}", s.handleStatus)
	r.Post("/ask_chatbot/{jobID}", s.handleAsk)

	if s.opts.MCP != nil {
		r.Handle("/mcp", s.opts.MCP)
	}

	s.router = r
}
