// Package api provides the HTTP surface over the analysis pipeline and the
// semantic index.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"chat-insights/internal/analysis"
	"chat-insights/internal/logging"
	"chat-insights/internal/vectorindex"
)

// Router wires the HTTP routes to the orchestrator and the index.
type Router struct {
	mux          *chi.Mux
	orchestrator *analysis.Orchestrator
	index        *vectorindex.Index
	logger       logging.Logger
	version      string
}

// NewRouter creates the API router with its middleware stack and routes.
func NewRouter(orchestrator *analysis.Orchestrator, index *vectorindex.Index, logger logging.Logger) *Router {
	r := &Router{
		mux:          chi.NewRouter(),
		orchestrator: orchestrator,
		index:        index,
		logger:       logger.WithComponent("api"),
		version:      "1.0.0",
	}
	r.setupMiddleware()
	r.setupRoutes()
	return r
}

// Handler returns the HTTP handler.
func (r *Router) Handler() http.Handler {
	return r.mux
}

func (r *Router) setupMiddleware() {
	r.mux.Use(chimiddleware.Recoverer)
	r.mux.Use(chimiddleware.RealIP)
	r.mux.Use(r.traceMiddleware)
	r.mux.Use(chimiddleware.RequestSize(10 * 1024 * 1024))
	r.mux.Use(chimiddleware.Heartbeat("/ping"))
}

func (r *Router) setupRoutes() {
	r.mux.Get("/healthz", r.handleHealth)

	r.mux.Route("/api/v1", func(api chi.Router) {
		api.Post("/analyze", r.handleAnalyze)
		api.Post("/index", r.handleIndex)
		api.Get("/search", r.handleSearch)
		api.Get("/stats", r.handleStats)
	})
}

// traceMiddleware attaches a trace ID to every request context, reusing the
// caller's X-Trace-ID when present.
func (r *Router) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		traceID := req.Header.Get("X-Trace-ID")
		ctx := logging.WithTraceID(req.Context(), traceID)
		w.Header().Set("X-Trace-ID", logging.TraceID(ctx))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}
