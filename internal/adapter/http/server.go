// Package http serves the derived views as JSON alongside the health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-explorer/internal/analysis"
	"github.com/couchcryptid/quake-explorer/internal/domain"
	"github.com/couchcryptid/quake-explorer/internal/observability"
	"github.com/couchcryptid/quake-explorer/internal/pipeline"
)

// Views computes the JSON views served under /api.
type Views interface {
	sharedobs.ReadinessChecker
	Events(ctx context.Context, q pipeline.Query) (pipeline.Result[[]pipeline.EventView], error)
	Links(ctx context.Context, q pipeline.Query) (pipeline.Result[[]pipeline.ArcView], error)
	Summary(ctx context.Context, q pipeline.Query) (pipeline.Result[[]domain.GroupSummary], error)
	Changes(ctx context.Context, q pipeline.Query) (pipeline.Result[[]domain.PeriodChange], error)
	Trend(ctx context.Context, q pipeline.Query) (pipeline.Result[[]analysis.TrendPoint], error)
	Density(ctx context.Context, q pipeline.Query) (pipeline.Result[[]analysis.DensityCurve], error)
	Histogram(ctx context.Context, q pipeline.Query) (pipeline.Result[[]analysis.HistogramSeries], error)
	Epicenters(ctx context.Context, q pipeline.Query) (pipeline.Result[[]pipeline.EventView], error)
	Report(ctx context.Context) (pipeline.Report, error)
}

// Server exposes the view API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	views      Views
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates an HTTP server with the /api view routes and the
// /healthz, /readyz, and /metrics routes.
func NewServer(addr string, views Views, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		views:   views,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(views))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/events", serveView(s, "events", views.Events))
	mux.HandleFunc("GET /api/links", serveView(s, "links", views.Links))
	mux.HandleFunc("GET /api/summary", serveView(s, "summary", views.Summary))
	mux.HandleFunc("GET /api/changes", serveView(s, "changes", views.Changes))
	mux.HandleFunc("GET /api/trend", serveView(s, "trend", views.Trend))
	mux.HandleFunc("GET /api/density", serveView(s, "density", views.Density))
	mux.HandleFunc("GET /api/histogram", serveView(s, "histogram", views.Histogram))
	mux.HandleFunc("GET /api/epicenters", serveView(s, "epicenters", views.Epicenters))
	mux.HandleFunc("GET /api/legend", s.handleLegend)
	mux.HandleFunc("GET /api/report", s.handleReport)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type viewFunc[T any] func(ctx context.Context, q pipeline.Query) (pipeline.Result[T], error)

// serveView parses the query and runs fn. name is the view label used in
// metrics; rejected queries never reach the service, so they are counted here.
func serveView[T any](s *Server, name string, fn viewFunc[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r.URL.Query())
		if err != nil {
			s.metrics.ViewRequests.WithLabelValues(name, "bad_request").Inc()
			writeError(w, http.StatusBadRequest, err)
			return
		}
		res, err := fn(r.Context(), q)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	entries, ok := pipeline.Legend(by)
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("unknown colour scheme "+by+" (want magnitude or time_delta)"))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.views.Report(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// writeServiceError maps load failures to 503 so the UI can show the
// message; anything else is a 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		dsErr     *domain.DataSourceError
		schemaErr *domain.SchemaError
	)
	if errors.As(err, &dsErr) || errors.As(err, &schemaErr) {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	s.logger.Error("view failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
