package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/walls-survey-etl/internal/domain"
	"github.com/couchcryptid/walls-survey-etl/internal/walls"
)

// UnitsLookup returns the unit context currently in effect for a survey file,
// or nil if the file has not been seen.
type UnitsLookup interface {
	Units(file string) *walls.Units
}

// Server exposes health, readiness, metrics and unit-context HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz and /metrics routes.
// When units is non-nil it also serves GET /units/{file}.
func NewServer(addr string, ready sharedobs.ReadinessChecker, units UnitsLookup, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if units != nil {
		mux.HandleFunc("GET /units/{file...}", handleUnits(units))
	}

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

type unitsResponse struct {
	File     string       `json:"file"`
	UnitsKey string       `json:"units_key"`
	Units    *walls.Units `json:"units"`
}

func handleUnits(lookup UnitsLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := r.PathValue("file")
		u := lookup.Units(file)
		if u == nil {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{
				"error": "no unit context for file " + file,
			})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, unitsResponse{
			File:     file,
			UnitsKey: domain.UnitsKey(u),
			Units:    u,
		})
	}
}
