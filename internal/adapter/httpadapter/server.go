package httpadapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/hydro-priority-service/internal/domain"
	"github.com/couchcryptid/hydro-priority-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRecordBytes = 1 << 20

// Server exposes health, readiness and metrics endpoints plus a stateless
// single-record assessment endpoint.
type Server struct {
	httpServer *http.Server
	assessor   pipeline.Transformer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /v1/assess routes. assessor may be nil to disable /v1/assess.
func NewServer(addr string, ready sharedobs.ReadinessChecker, assessor pipeline.Transformer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		assessor: assessor,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if assessor != nil {
		mux.HandleFunc("POST /v1/assess", s.handleAssess)
	}

	return s
}

// handleAssess runs one importer record through the same transform the
// pipeline uses and returns the assessed object without publishing it.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecordBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sharedobs.WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "record too large"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	obj, err := s.assessor.Transform(r.Context(), domain.RawEvent{Value: body, Timestamp: time.Now()})
	if err != nil {
		reason := pipeline.RejectReason(err)
		s.logger.Debug("assess request rejected", "reason", reason, "error", err)
		status := http.StatusUnprocessableEntity
		if reason == "malformed" {
			status = http.StatusBadRequest
		}
		sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error(), "reason": reason})
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, obj)
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
